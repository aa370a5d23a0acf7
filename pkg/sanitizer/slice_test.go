package sanitizer

import (
	"reflect"
	"testing"
)

func TestNormalizeStringSlice(t *testing.T) {
	tests := []struct {
		name  string
		input []string
		want  []string
	}{
		{
			name:  "remove duplicates after normalization",
			input: []string{"Amman", " amman ", "AMMAN"},
			want:  []string{"amman"},
		},
		{
			name:  "filter empty strings",
			input: []string{"Amman", "", "  ", "Aqaba"},
			want:  []string{"amman", "aqaba"},
		},
		{
			name:  "empty input",
			input: []string{},
			want:  []string{},
		},
		{
			name:  "nil input",
			input: nil,
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeStringSlice(tt.input, NormalizeNameForComparison)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("NormalizeStringSlice(%v) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeImageURLs(t *testing.T) {
	tests := []struct {
		name  string
		input []string
		want  []string
	}{
		{
			name:  "keep scheme and lowercase host",
			input: []string{"http://CDN.Meshwar.jo/img/1.jpg"},
			want:  []string{"http://cdn.meshwar.jo/img/1.jpg"},
		},
		{
			name:  "add scheme and drop trailing slash",
			input: []string{"cdn.meshwar.jo/img/"},
			want:  []string{"https://cdn.meshwar.jo/img"},
		},
		{
			name:  "dedupe equivalent urls",
			input: []string{"https://cdn.meshwar.jo/a.png", "https://CDN.meshwar.jo/a.png/", "http://cdn.meshwar.jo/a.png", " "},
			want:  []string{"https://cdn.meshwar.jo/a.png", "http://cdn.meshwar.jo/a.png"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeImageURLs(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("NormalizeImageURLs(%v) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
