package validator

import (
	"meshwar/pkg/model"
	"meshwar/pkg/validation"

	"github.com/go-playground/validator/v10"
)

type ActivityValidator struct {
	validate *validator.Validate
}

func NewActivityValidator() *ActivityValidator {
	return &ActivityValidator{validate: validation.New()}
}

func (v *ActivityValidator) Validate(activity *model.Activity) error {
	return validation.Struct(v.validate, activity)
}

func (v *ActivityValidator) ValidateFilter(filter model.ActivityFilter) error {
	if filter.LocationID == "" {
		return validation.Field("location_id", "location_id is required")
	}
	if v.validate.Var(filter.LocationID, "mongodb") != nil {
		return validation.Field("location_id", "location_id must be a valid MongoDB ObjectID")
	}
	return nil
}
