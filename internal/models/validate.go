package models

import (
	"reflect"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if id, ok := field.Interface().(ID); ok {
			return id.String()
		}
		return nil
	}, ID{})
	_ = v.RegisterValidation("interest", func(fl validator.FieldLevel) bool {
		return TagInterests.Allows(fl.Field().String())
	})
	_ = v.RegisterValidation("skill", func(fl validator.FieldLevel) bool {
		return TagSkills.Allows(fl.Field().String())
	})
	return v
}

// Validate checks a user record against its validation tags.
func (u *User) Validate() error {
	return validate.Struct(u)
}

// Validate checks a profile record against its validation tags.
func (p *Profile) Validate() error {
	return validate.Struct(p)
}
