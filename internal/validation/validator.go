// Package validation checks user input before it reaches the API or the
// session store: credentials and cart import files.
package validation

import (
	"errors"
	"fmt"
	"strings"

	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	sferrors "github.com/storefront-labs/storefront/internal/errors"
)

// New returns a configured validator with the storefront tags registered.
func New() *validatorv10.Validate {
	v := validatorv10.New()

	// money: a non-negative decimal string
	_ = v.RegisterValidation("money", func(fl validatorv10.FieldLevel) bool {
		d, err := decimal.NewFromString(strings.TrimSpace(fl.Field().String()))
		return err == nil && !d.IsNegative()
	})

	v.RegisterStructValidation(cartFileStructValidation, CartFile{})
	return v
}

var defaultValidator = New()

// LoginRequest is the input of 'auth login'.
type LoginRequest struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

// RegisterRequest is the input of 'auth register'.
type RegisterRequest struct {
	FullName string `validate:"required"`
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=6"`
}

// Struct validates s and converts the first failure into ErrInvalidInput.
func Struct(s interface{}) error {
	err := defaultValidator.Struct(s)
	if err == nil {
		return nil
	}
	var ve validatorv10.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		fe := ve[0]
		return sferrors.NewInvalidInput(fieldName(fe), describe(fe))
	}
	return sferrors.NewInvalidInput("input", err.Error())
}

func fieldName(fe validatorv10.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func describe(fe validatorv10.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		if fe.Kind().String() == "string" {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "money":
		return "must be a non-negative decimal amount"
	case "unique_product":
		return "lists the same product more than once"
	default:
		return fmt.Sprintf("failed '%s' check", fe.Tag())
	}
}
