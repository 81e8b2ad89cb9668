package utils

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// Report json names so messages match what the client sent
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// ValidateStruct runs the validate tags of s and folds every failure into one
// validation AppError. Field points at the first failing input.
func ValidateStruct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return NewValidationError("", err.Error())
	}

	var messages []string
	for _, fe := range validationErrors {
		field := fe.Field()
		param := fe.Param()

		switch fe.Tag() {
		case "required":
			messages = append(messages, field+" is required")
		case "min":
			if fe.Kind() == reflect.String {
				messages = append(messages, field+" must be at least "+param+" characters")
			} else {
				messages = append(messages, field+" must be at least "+param)
			}
		case "max":
			if fe.Kind() == reflect.String {
				messages = append(messages, field+" must be at most "+param+" characters")
			} else {
				messages = append(messages, field+" must be at most "+param)
			}
		case "email":
			messages = append(messages, field+" must be a valid email")
		case "hexcolor":
			messages = append(messages, field+" must be a hex color")
		case "oneof":
			messages = append(messages, field+" must be one of: "+strings.ReplaceAll(param, " ", ", "))
		default:
			messages = append(messages, field+" is invalid")
		}
	}

	return &AppError{
		Kind:    KindValidation,
		Message: strings.Join(messages, ", "),
		Field:   validationErrors[0].Field(),
	}
}
