package signup

import (
	"errors"
	"regexp"

	"github.com/go-playground/validator/v10"

	"github.com/Techcurators-fsdteam/mamagadhi-app/internal/profile"
)

// phoneRE is the E.164 shape the form accepts: "+", a nonzero first digit,
// then 1–14 more digits.
var phoneRE = regexp.MustCompile(`^\+[1-9][0-9]{1,14}$`)

// ValidPhone reports whether p is an acceptable E.164 phone number.
func ValidPhone(p string) bool {
	return phoneRE.MatchString(p)
}

var codeRE = regexp.MustCompile(`^[0-9]{6}$`)

// Form carries the signup form fields. Validation here is pre-flight: a
// failing form never causes a network call.
type Form struct {
	FirstName       string       `validate:"required"`
	LastName        string       `validate:"required"`
	Email           string       `validate:"required"`
	Password        string       `validate:"required,min=6"`
	ConfirmPassword string       `validate:"required,eqfield=Password"`
	Phone           string       `validate:"required,e164_phone"`
	Role            profile.Role `validate:"required"`
}

func newValidator() *validator.Validate {
	v := validator.New()
	// The builtin e164 rule is looser than what the backend accepts, so
	// register the exact shape instead.
	_ = v.RegisterValidation("e164_phone", func(fl validator.FieldLevel) bool {
		return ValidPhone(fl.Field().String())
	})
	return v
}

// validateForm returns a user-facing message for the first failing rule.
func validateForm(v *validator.Validate, f Form) error {
	if !profile.ValidRole(f.Role) {
		return errors.New("Please select a role.")
	}

	err := v.Struct(f)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return errors.New("Please fill in all required fields.")
	}

	fe := fieldErrs[0]
	switch {
	case fe.Field() == "Password" && fe.Tag() == "min":
		return errors.New("Password must be at least 6 characters.")
	case fe.Field() == "ConfirmPassword" && fe.Tag() == "eqfield":
		return errors.New("Passwords do not match.")
	case fe.Field() == "Phone" && fe.Tag() == "e164_phone":
		return errors.New("Please enter your phone in international format, e.g. +14155551234.")
	default:
		return errors.New("Please fill in all required fields.")
	}
}
