package validation

import (
	stderrors "errors"

	"github.com/go-playground/validator/v10"
)

// Error is one failed field, safe to log or return to callers.
type Error struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

// FormatValidationError flattens validator errors; anything else yields nil.
func FormatValidationError(err error) []Error {
	var validationErrors validator.ValidationErrors
	if !stderrors.As(err, &validationErrors) {
		return nil
	}

	errs := make([]Error, 0, len(validationErrors))
	for _, e := range validationErrors {
		errs = append(errs, Error{
			Field:   e.Field(),
			Tag:     e.Tag(),
			Message: e.Error(),
		})
	}
	return errs
}

// HasFieldError reports whether err contains a failure for the given struct field.
func HasFieldError(err error, field string) bool {
	for _, e := range FormatValidationError(err) {
		if e.Field == field {
			return true
		}
	}
	return false
}
