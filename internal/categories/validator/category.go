package validator

import (
	"meshwar/pkg/model"
	"meshwar/pkg/validation"

	"github.com/go-playground/validator/v10"
)

type CategoryValidator struct {
	validate *validator.Validate
}

func NewCategoryValidator() *CategoryValidator {
	return &CategoryValidator{validate: validation.New()}
}

func (v *CategoryValidator) Validate(category *model.Category) error {
	return validation.Struct(v.validate, category)
}
