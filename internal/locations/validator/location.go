package validator

import (
	"meshwar/pkg/model"
	"meshwar/pkg/validation"

	"github.com/go-playground/validator/v10"
)

type LocationValidator struct {
	validate *validator.Validate
}

func NewLocationValidator() *LocationValidator {
	return &LocationValidator{validate: validation.New()}
}

func (v *LocationValidator) Validate(location *model.Location) error {
	if err := validation.Struct(v.validate, location); err != nil {
		return err
	}
	return v.validateBusinessRules(location)
}

func (v *LocationValidator) ValidateFilter(filter model.LocationFilter) error {
	if filter.CategoryID != "" && v.validate.Var(filter.CategoryID, "mongodb") != nil {
		return validation.Field("category_id", "category_id must be a valid MongoDB ObjectID")
	}
	return nil
}

// 0,0 is what a body without coordinates decodes to.
func (v *LocationValidator) validateBusinessRules(location *model.Location) error {
	if location.Latitude == 0 && location.Longitude == 0 {
		return validation.Field("latitude", "coordinates 0,0 are not a valid location")
	}
	return nil
}
