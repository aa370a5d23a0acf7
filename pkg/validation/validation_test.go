package validation

import (
	"errors"
	"testing"
	"time"

	apperrors "meshwar/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string    `json:"name" validate:"required,min=2"`
	Email string    `json:"email,omitempty" validate:"omitempty,email"`
	Role  string    `json:"role" validate:"oneof=admin user"`
	Start time.Time `json:"start" validate:"required"`
	End   time.Time `json:"end" validate:"required,gtfield=Start"`
}

func TestStruct_UsesJSONNames(t *testing.T) {
	v := New()
	start := time.Now()

	err := Struct(v, &sample{Name: "x", Email: "nope", Role: "root", Start: start, End: start.Add(-time.Hour)})
	require.Error(t, err)

	var fieldErrs Errors
	require.True(t, errors.As(err, &fieldErrs))

	fields := map[string]string{}
	for _, fe := range fieldErrs {
		fields[fe.Field] = fe.Message
	}
	assert.Equal(t, "name must be at least 2", fields["name"])
	assert.Equal(t, "email must be a valid email address", fields["email"])
	assert.Equal(t, "role must be one of: admin user", fields["role"])
	assert.Contains(t, fields, "end")
}

func TestStruct_Valid(t *testing.T) {
	start := time.Now()
	err := Struct(New(), &sample{Name: "ok", Role: "user", Start: start, End: start.Add(time.Hour)})
	assert.NoError(t, err)
}

func TestToAppError(t *testing.T) {
	appErr := ToAppError("Booking validation failed", Field("status", "bad"))
	assert.Equal(t, apperrors.CodeValidation, appErr.Code)
	assert.Equal(t, []FieldError{{Field: "status", Message: "bad"}}, appErr.Details["errors"])

	plain := ToAppError("failed", errors.New("boom"))
	assert.Equal(t, "boom", plain.Details["error"])
}
