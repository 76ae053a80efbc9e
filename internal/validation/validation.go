// Package validation wraps go-playground/validator with the client's
// normalisation rules for user input.
package validation

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	once     sync.Once
	validate *validator.Validate
)

// engine returns the lazily initialised validator
func engine() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// Используем json имена полей в сообщениях об ошибках
		validate.RegisterTagNameFunc(jsonFieldName)
	})
	return validate
}

// Struct validates s against its `validate` tags and returns a single
// human-readable error describing the first failing field.
func Struct(s any) error {
	err := engine().Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return describe(verrs[0])
	}
	return err
}

// Var validates a single value against tag
func Var(field string, value any, tag string) error {
	err := engine().Var(value, tag)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return describeField(field, verrs[0])
	}
	return err
}

// NormalizeEmail trims and lower-cases an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeReferralCode trims and upper-cases a referral code
func NormalizeReferralCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func describe(fe validator.FieldError) error {
	return describeField(fe.Field(), fe)
}

func describeField(field string, fe validator.FieldError) error {
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%s is required", field)
	case "email":
		return fmt.Errorf("%s must be a valid email address", field)
	case "min":
		return fmt.Errorf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Errorf("%s must not exceed %s characters", field, fe.Param())
	case "len":
		return fmt.Errorf("%s must be exactly %s characters", field, fe.Param())
	case "numeric":
		return fmt.Errorf("%s must contain only digits", field)
	case "alphanum":
		return fmt.Errorf("%s must contain only letters and digits", field)
	default:
		return fmt.Errorf("%s is invalid (%s)", field, fe.Tag())
	}
}
