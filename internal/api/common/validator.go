package common

import (
	"github.com/go-playground/validator/v10"

	"github.com/adconfigurator/api/pkg/naming"
)

// CustomValidator wraps the validator for echo
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates the request validator, including the instanceid tag
func NewValidator() *CustomValidator {
	v := validator.New()
	_ = v.RegisterValidation("instanceid", func(fl validator.FieldLevel) bool {
		return naming.ValidInstanceID(fl.Field().String())
	})
	return &CustomValidator{validator: v}
}

// Validate validates the struct
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
