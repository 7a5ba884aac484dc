package services

import (
	"errors"
	"reflect"
	"strings"

	"github.com/dmitrijs2005/gophtodo/internal/common"
	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// fieldMessages overrides the generic message for a field/tag pair.
var fieldMessages = map[string]string{
	"confirm_password.eqfield": "Passwords must match",
	"content.max":              "Todo must be less than 200 characters",
}

var tagMessages = map[string]string{
	"required": "This field is required.",
	"email":    "Invalid email address.",
	"min":      "Field must be at least %s characters long.",
	"max":      "Field cannot be longer than %s characters.",
	"eqfield":  "Field must be equal to %s.",
}

// validateStruct runs the struct's validate tags and converts failures into
// a *common.ValidationError keyed by JSON field name.
func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	out := &common.ValidationError{Fields: make(map[string]string, len(fieldErrs))}
	for _, fe := range fieldErrs {
		if _, seen := out.Fields[fe.Field()]; seen {
			continue
		}
		out.Fields[fe.Field()] = message(fe)
	}
	return out
}

func message(fe validator.FieldError) string {
	if m, ok := fieldMessages[fe.Field()+"."+fe.Tag()]; ok {
		return m
	}
	m, ok := tagMessages[fe.Tag()]
	if !ok {
		return "Invalid value."
	}
	if strings.Contains(m, "%s") {
		return strings.Replace(m, "%s", fe.Param(), 1)
	}
	return m
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
