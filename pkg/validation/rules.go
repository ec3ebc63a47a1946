package validation

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

var (
	residentNameRe  = regexp.MustCompile(`^[\p{Han}A-Za-z]{2,10}$`)
	residentPhoneRe = regexp.MustCompile(`^1[3-9]\d{9}$`)
)

// registerRules регистрирует теги, которые мы используем в struct tags
func registerRules(v *validator.Validate) error {
	if err := v.RegisterValidation("resident_name", func(fl validator.FieldLevel) bool {
		return IsResidentName(fl.Field().String())
	}); err != nil {
		return err
	}
	if err := v.RegisterValidation("resident_phone", func(fl validator.FieldLevel) bool {
		return IsResidentPhone(fl.Field().String())
	}); err != nil {
		return err
	}
	return nil
}

// IsResidentName: 2–10 иероглифов или латинских букв.
func IsResidentName(s string) bool {
	return residentNameRe.MatchString(s)
}

// IsResidentPhone: 11 цифр, первая 1, вторая 3–9.
func IsResidentPhone(s string) bool {
	return residentPhoneRe.MatchString(s)
}
