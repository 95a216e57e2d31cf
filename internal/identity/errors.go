package identity

import "errors"

// Stable provider error codes. These are the strings the provider uses on
// the wire; classification keys off them, never off free-form messages.
const (
	CodeEmailExists     = "EMAIL_EXISTS"
	CodeWeakPassword    = "WEAK_PASSWORD"
	CodeInvalidEmail    = "INVALID_EMAIL"
	CodeUserNotFound    = "EMAIL_NOT_FOUND"
	CodeInvalidPassword = "INVALID_PASSWORD"
	CodeInvalidCode     = "INVALID_CODE"
	CodeExpiredCode     = "SESSION_EXPIRED"
	CodeTooManyRequests = "TOO_MANY_ATTEMPTS_TRY_LATER"
	CodeBotCheckFailed  = "CAPTCHA_CHECK_FAILED"
)

// Error is a provider failure with a stable code.
type Error struct {
	Code string
}

func (e *Error) Error() string { return "identity provider: " + e.Code }

// CodeOf extracts the stable code from err, or "" when err is not a
// provider error.
func CodeOf(err error) string {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ""
}

// UserMessage maps known provider codes to the message shown to the user.
// Unknown errors get a generic message so raw provider text never surfaces.
func UserMessage(err error) string {
	switch CodeOf(err) {
	case CodeEmailExists:
		return "An account with this email already exists. Please sign in instead."
	case CodeWeakPassword:
		return "Password is too weak. Please use at least 6 characters."
	case CodeInvalidEmail:
		return "Please enter a valid email address."
	case CodeUserNotFound, CodeInvalidPassword:
		return "Invalid email or password."
	case CodeInvalidCode:
		return "Invalid verification code. Please try again."
	case CodeExpiredCode:
		return "Verification code expired. Please request a new one."
	case CodeTooManyRequests:
		return "Too many attempts. Please wait a moment and try again."
	default:
		return "Something went wrong. Please try again."
	}
}
