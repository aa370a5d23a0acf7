package sanitizer

import "testing"

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "valid E.164 format",
			input: "+962791234567",
			want:  "+962791234567",
		},
		{
			name:  "with spaces",
			input: "+962 79 123 4567",
			want:  "+962791234567",
		},
		{
			name:  "with dashes",
			input: "+962-79-123-4567",
			want:  "+962791234567",
		},
		{
			name:  "with parentheses",
			input: "+1 (212) 555-1234",
			want:  "+12125551234",
		},
		{
			name:  "leading and trailing spaces",
			input: "  +962791234567  ",
			want:  "+962791234567",
		},
		{
			name:  "national format defaults to jordan",
			input: "079 123 4567",
			want:  "+962791234567",
		},
		{
			name:  "empty string",
			input: "",
			want:  "",
		},
		{
			name:  "only whitespace",
			input: "   ",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizePhone(tt.input)
			if got != tt.want {
				t.Errorf("NormalizePhone(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizePhone_Idempotent(t *testing.T) {
	once := NormalizePhone("+1 (212) 555-1234")
	twice := NormalizePhone(once)
	if once != twice {
		t.Errorf("NormalizePhone is not idempotent: %q then %q", once, twice)
	}
}
