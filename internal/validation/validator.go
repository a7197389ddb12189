// Package validation plugs go-playground/validator into echo so handlers
// can call c.Validate on bound request bodies.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/iliyamo/festival-reservation/internal/repository"
)

// Validator checks `validate` struct tags for echo.Context.Validate.
type Validator struct {
	v *validator.Validate
}

// New returns a Validator that reports fields by their JSON names.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report JSON field names instead of Go ones.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{v: v}
}

// Validate implements echo.Validator.  A missing required field wraps
// repository.ErrMissingRequiredField; every other failed rule wraps
// repository.ErrInvalidField.
func (cv *Validator) Validate(i interface{}) error {
	err := cv.v.Struct(i)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("%w: %v", repository.ErrInvalidField, err)
	}
	fe := verrs[0]
	if fe.Tag() == "required" {
		return fmt.Errorf("%w: %s", repository.ErrMissingRequiredField, fe.Field())
	}
	return fmt.Errorf("%w: %s fails %s", repository.ErrInvalidField, fe.Field(), fe.Tag())
}
