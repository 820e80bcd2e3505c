package validator

import (
	"context"
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	ErrFieldExceedsMaxLen = "too long"
	ErrUnknownValidation  = "invalid"
)

// validate reports fields by their json names.
var validate = newValidate()

func newValidate() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// Validate checks structure against its `validate` tags and returns the
// first failure as "<field> <reason>", or nil.
func Validate(ctx context.Context, structure any) error {
	return parseValidationErrors(validate.StructCtx(ctx, structure))
}

func parseValidationErrors(err error) error {
	if err == nil {
		return nil
	}
	var vErrors validator.ValidationErrors
	if !errors.As(err, &vErrors) || len(vErrors) == 0 {
		return err
	}
	ve := vErrors[0]
	msg := ErrUnknownValidation
	if ve.Tag() == "max" {
		msg = ErrFieldExceedsMaxLen
	}
	return errors.New(ve.Field() + " " + msg)
}
