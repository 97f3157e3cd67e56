package auth

import "errors"

// Local validation errors. These resolve without a remote call.
var (
	// ErrInvalidEmail indicates the email field is missing or malformed.
	ErrInvalidEmail = errors.New("please enter a valid email")

	// ErrInvalidPhone indicates the phone field is missing or malformed.
	ErrInvalidPhone = errors.New("please enter a valid phone number")

	// ErrPasswordRequired indicates an empty password on a local login.
	ErrPasswordRequired = errors.New("password is required")

	// ErrCurrentPasswordRequired indicates a password change without the
	// current password.
	ErrCurrentPasswordRequired = errors.New("current password is required")

	// ErrPasswordTooShort indicates the new password is under 8 characters.
	ErrPasswordTooShort = errors.New("password must be at least 8 characters")

	// ErrPasswordMismatch indicates the confirmation does not equal the
	// new password.
	ErrPasswordMismatch = errors.New("passwords do not match")

	// ErrIncompleteCode indicates fewer than 6 code digits were entered.
	ErrIncompleteCode = errors.New("please enter the complete 6-digit code")
)

// Flow/state errors.
var (
	// ErrNotAuthenticated guards authenticated-only operations.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrResendCooldown indicates a resend was requested before the
	// cooldown expired.
	ErrResendCooldown = errors.New("wait before requesting another code")
)

// statusError is implemented by transport errors that carry an HTTP
// status. Declared here so the engine never imports the transport.
type statusError interface {
	HTTPStatus() int
}

// isUnauthorized reports whether err is a 401-class remote failure; any
// authenticated call failing this way is treated as an expired session.
func isUnauthorized(err error) bool {
	var se statusError
	return errors.As(err, &se) && (se.HTTPStatus() == 401 || se.HTTPStatus() == 419)
}
