package models

import (
	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterStructValidation(func(sl validator.StructLevel) {
		q := sl.Current().Interface().(Quantity)
		if q.kinds() != 1 {
			sl.ReportError(q, "quantity", "Quantity", "exactly_one", "")
		}
	}, Quantity{})
	return v
}

// Validate checks struct tags and the quantity rule.
func Validate(v any) error {
	return validate.Struct(v)
}
