package handler

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/abdusco/shortly/internal"
	"github.com/go-playground/validator/v10"
)

// Validator plugs go-playground/validator into echo. Field names in errors
// follow the json tags of the request struct.
type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.Split(field.Tag.Get("json"), ",")[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{validate: v}
}

func (v *Validator) Validate(i any) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	fields := make(map[string]string, len(verrs))
	for _, verr := range verrs {
		field := verr.Field()
		if _, exists := fields[field]; exists {
			continue
		}
		fields[field] = describe(verr)
	}
	return &internal.ValidationError{Fields: fields}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	}
	return "is invalid"
}
