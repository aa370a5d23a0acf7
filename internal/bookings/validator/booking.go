package validator

import (
	"meshwar/pkg/model"
	"meshwar/pkg/validation"

	"github.com/go-playground/validator/v10"
)

type BookingValidator struct {
	validate *validator.Validate
}

func NewBookingValidator() *BookingValidator {
	return &BookingValidator{validate: validation.New()}
}

// ValidateRequest checks an admission request after defaults are applied.
func (v *BookingValidator) ValidateRequest(req *model.BookingRequest) error {
	return validation.Struct(v.validate, req)
}

func (v *BookingValidator) ValidateStatus(update *model.BookingStatusUpdate) error {
	return validation.Struct(v.validate, update)
}

func (v *BookingValidator) ValidateFilter(filter model.BookingFilter) error {
	var errs validation.Errors
	if filter.UserID != "" && v.validate.Var(filter.UserID, "mongodb") != nil {
		errs = append(errs, validation.FieldError{Field: "user_id", Message: "user_id must be a valid MongoDB ObjectID"})
	}
	if filter.ActivityID != "" && v.validate.Var(filter.ActivityID, "mongodb") != nil {
		errs = append(errs, validation.FieldError{Field: "activity_id", Message: "activity_id must be a valid MongoDB ObjectID"})
	}
	if filter.Status != "" && v.validate.Var(filter.Status, "oneof=pending confirmed cancelled") != nil {
		errs = append(errs, validation.FieldError{Field: "status", Message: "status must be one of: pending confirmed cancelled"})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}
