package portal

import (
	"github.com/go-playground/validator/v10"

	"github.com/ehr/portal/internal/platform/phone"
	"github.com/ehr/portal/internal/platform/validation"
)

// RegisterValidations adds the portal's cross-field rules to v.
func RegisterValidations(v *validation.Validator) {
	v.RegisterStructValidation(phoneInputRule, PhoneInput{})
}

func phoneInputRule(sl validator.StructLevel) {
	in := sl.Current().Interface().(PhoneInput)
	if phone.Digits(in.National) == "" {
		return
	}
	if in.Country == "" {
		sl.ReportError(in.Country, "country", "Country", "required", "")
		return
	}
	if !phone.IsComplete(in.Country, in.National) {
		sl.ReportError(in.National, "national", "National", "phone_complete", "")
	}
}
