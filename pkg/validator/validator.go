package validator

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Validator defines the interface for validation operations
type Validator interface {
	ValidateStruct(s any) map[string]string
}

type validatorImpl struct {
	validate *validator.Validate
}

// NewValidator creates a validator that reports fields by their json names.
func NewValidator() Validator {
	return &validatorImpl{validate: newEngine()}
}

func newEngine() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonFieldName)
	return v
}

func jsonFieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return fld.Name
	}
	return name
}

var defaultValidator = NewValidator()

// ValidateStruct validates a struct and returns field-specific errors, nil when valid.
func (v *validatorImpl) ValidateStruct(s any) map[string]string {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	return Translate(err)
}

// ValidateStruct validates with the package default validator.
func ValidateStruct(s any) map[string]string {
	return defaultValidator.ValidateStruct(s)
}

// Translate converts validator errors (including the ones produced by gin binding)
// into a field → message map. Non-validation errors yield nil.
func Translate(err error) map[string]string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil
	}

	out := make(map[string]string, len(validationErrors))
	for _, fieldErr := range validationErrors {
		key := snakeCase(fieldErr.Field())
		out[key] = formatValidationError(fieldErr, prettifyFieldName(fieldErr.Field()))
	}
	return out
}

func formatValidationError(err validator.FieldError, fieldName string) string {
	switch err.Tag() {
	case "required":
		return fieldName + " is required"
	case "email":
		return fieldName + " must be a valid email address"
	case "min":
		return fieldName + " must be at least " + err.Param() + " characters long"
	case "max":
		return fieldName + " must be at most " + err.Param() + " characters long"
	case "len":
		return fieldName + " must be exactly " + err.Param() + " characters long"
	case "uuid", "uuid4":
		return fieldName + " must be a valid UUID"
	case "gte":
		return fieldName + " must be greater than or equal to " + err.Param()
	case "lte":
		return fieldName + " must be less than or equal to " + err.Param()
	case "oneof":
		return fieldName + " must be one of the following: " + err.Param()
	case "datetime":
		return fieldName + " must be a date in " + err.Param() + " format"
	case "url":
		return fieldName + " must be a valid URL"
	case "iso4217":
		return fieldName + " must be a valid ISO 4217 currency code"
	default:
		return fieldName + " is invalid"
	}
}

// prettifyFieldName turns provider_id or ProviderID into "Provider Id".
func prettifyFieldName(field string) string {
	var result []rune
	for i, r := range field {
		switch {
		case r == '_':
			result = append(result, ' ')
			continue
		case i > 0 && r >= 'A' && r <= 'Z' && field[i-1] >= 'a' && field[i-1] <= 'z':
			result = append(result, ' ')
		}
		result = append(result, r)
	}
	return cases.Title(language.Und).String(string(result))
}

// snakeCase normalises a field name for map keys; json names pass through unchanged.
func snakeCase(field string) string {
	var b strings.Builder
	for i, r := range field {
		if r >= 'A' && r <= 'Z' {
			if i > 0 && field[i-1] >= 'a' && field[i-1] <= 'z' {
				b.WriteByte('_')
			}
			b.WriteRune(r + ('a' - 'A'))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
