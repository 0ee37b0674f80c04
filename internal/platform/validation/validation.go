// Package validation plugs go-playground/validator into echo and adds the
// portal's custom tags.
package validation

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/ehr/portal/internal/platform/phone"
)

// PasswordPolicy is shown when strongpassword fails.
const PasswordPolicy = "password must be at least 8 characters and include an uppercase letter, a lowercase letter, a number and a symbol"

// Validator implements echo.Validator.
type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("strongpassword", strongPassword)
	_ = v.RegisterValidation("country", registeredCountry)
	return &Validator{v: v}
}

// RegisterStructValidation adds a cross-field rule for the given types.
func (val *Validator) RegisterStructValidation(fn validator.StructLevelFunc, types ...interface{}) {
	val.v.RegisterStructValidation(fn, types...)
}

// Validate returns FieldErrors when i breaks any of its rules.
func (val *Validator) Validate(i interface{}) error {
	err := val.v.Struct(i)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := make(FieldErrors, len(verrs))
	for _, fe := range verrs {
		out[fieldPath(fe)] = message(fe)
	}
	return out
}

// FieldErrors maps a JSON field path to its message.
type FieldErrors map[string]string

func (f FieldErrors) Error() string {
	parts := make([]string, 0, len(f))
	for k, v := range f {
		parts = append(parts, k+": "+v)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// BindAndValidate decodes the request body into dst and validates it. Both
// failures come back as a 400 echo.HTTPError.
func BindAndValidate(c echo.Context, dst interface{}) error {
	if err := c.Bind(dst); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(dst); err != nil {
		var fields FieldErrors
		if errors.As(err, &fields) {
			return echo.NewHTTPError(http.StatusBadRequest, map[string]interface{}{
				"message": "validation failed",
				"fields":  fields,
			})
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return fe.Field()
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "strongpassword":
		return PasswordPolicy
	case "country":
		return "must be a supported country code"
	case "phone_complete":
		return "is not a complete phone number for the selected country"
	case "datetime":
		return fmt.Sprintf("must be a date in the form %s", fe.Param())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

func strongPassword(fl validator.FieldLevel) bool {
	password := fl.Field().String()
	if len(password) < 8 {
		return false
	}
	var upper, lower, digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			special = true
		}
	}
	return upper && lower && digit && special
}

func registeredCountry(fl validator.FieldLevel) bool {
	_, ok := phone.Lookup(fl.Field().String())
	return ok
}
