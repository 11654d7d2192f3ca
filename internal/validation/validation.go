package validation

import (
	"github.com/go-playground/validator/v10"
)

// New returns a validator with the custom tags of this module registered.
func New() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := registerCustomTags(v); err != nil {
		panic(err)
	}
	return v
}

func Register(v *validator.Validate, tag string, fn validator.Func) error {
	return v.RegisterValidation(tag, fn)
}

func RegisterAlias(v *validator.Validate, tag string, alias string) {
	v.RegisterAlias(tag, alias)
}
