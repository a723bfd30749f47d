package form

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// notblank also rejects whitespace-only strings, which pass required.
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(err)
	}
	return v
}

// Messages overrides the message of a failed rule. Keys are "field.rule"
// or just "field" for any rule on that field.
type Messages map[string]string

// Struct validates the `validate` tags of a form struct and returns the first
// failure per field.
func Struct[T any](messages Messages) Validator[T] {
	return func(v T) Errors {
		err := validate.Struct(v)
		if err == nil {
			return nil
		}
		var ves validator.ValidationErrors
		if !errors.As(err, &ves) {
			return Errors{"-": err.Error()}
		}
		out := Errors{}
		for _, fe := range ves {
			field := fe.Field()
			if _, ok := out[field]; ok {
				continue
			}
			out[field] = message(messages, fe)
		}
		return out
	}
}

func message(messages Messages, fe validator.FieldError) string {
	if m, ok := messages[fe.Field()+"."+fe.Tag()]; ok {
		return m
	}
	if m, ok := messages[fe.Field()]; ok {
		return m
	}
	label := humanize(fe.Field())
	switch fe.Tag() {
	case "required", "required_without", "notblank":
		return label + " is required"
	case "email":
		return label + " must be a valid email"
	case "gte":
		return label + " must be at least " + fe.Param()
	case "gt":
		return label + " must be greater than " + fe.Param()
	case "oneof":
		return label + " must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	default:
		return label + " is invalid"
	}
}

// humanize turns "delivery_fee" into "Delivery fee".
func humanize(field string) string {
	s := strings.ReplaceAll(field, "_", " ")
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
