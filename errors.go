package login

import (
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	TextCodeConfig             = "CONFIG_ERROR"
	TextCodeConflict           = "ACCOUNT_EXISTS"
	TextCodeInvalidCredentials = "INVALID_CREDENTIALS"
	TextCodeAuthRequired       = "AUTH_REQUIRED"
	TextCodeTokenInvalid       = "TOKEN_INVALID"
	TextCodeTokenExpired       = "TOKEN_EXPIRED"
	TextCodeTokenMalformed     = "TOKEN_MALFORMED"
	TextCodeAlreadyVerified    = "ALREADY_VERIFIED"
	TextCodeNotFound           = "ACCOUNT_NOT_FOUND"
	TextCodePasswordTooShort   = "PASSWORD_TOO_SHORT"
	TextCodePasswordTooLong    = "PASSWORD_TOO_LONG"
	TextCodeEmptyPassword      = "EMPTY_PASSWORD"
	TextCodeValidation         = "VALIDATION_ERROR"
	TextCodeInternal           = "INTERNAL_ERROR"
	TextCodeUnauthenticated    = "UNAUTHENTICATED"
)

// ErrConfig is returned when the configuration is incomplete or invalid
var ErrConfig = goerrors.New("invalid configuration", goerrors.CategoryValidation).
	WithTextCode(TextCodeConfig).
	WithCode(goerrors.CodeBadRequest)

// ErrConflict is returned when an account with the same email exists
var ErrConflict = goerrors.New("an account with this email already exists", goerrors.CategoryConflict).
	WithTextCode(TextCodeConflict).
	WithCode(goerrors.CodeConflict)

// ErrInvalidCredentials is returned for unknown emails and wrong passwords alike
var ErrInvalidCredentials = goerrors.New("the credentials provided are invalid", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(goerrors.CodeUnauthorized)

// ErrAuthRequired is returned when a required token or credential is missing
var ErrAuthRequired = goerrors.New("authentication error", goerrors.CategoryBadInput).
	WithTextCode(TextCodeAuthRequired).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenInvalid covers bad signatures, expired tokens and tokens that
// do not match the stored copy.
var ErrTokenInvalid = goerrors.New("token has either expired or is invalid", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenInvalid).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenExpired is internal to the token service, callers see ErrTokenInvalid
var ErrTokenExpired = goerrors.New("token is expired", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenMalformed is internal to the token service, callers see ErrTokenInvalid
var ErrTokenMalformed = goerrors.New("token is malformed", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(goerrors.CodeUnauthorized)

// ErrAlreadyVerified is returned when verifying an account twice
var ErrAlreadyVerified = goerrors.New("you have already verified your email address", goerrors.CategoryConflict).
	WithTextCode(TextCodeAlreadyVerified).
	WithCode(goerrors.CodeConflict)

// ErrAccountNotFound is returned when no account matches the lookup
var ErrAccountNotFound = goerrors.New("account with this email does not exist", goerrors.CategoryNotFound).
	WithTextCode(TextCodeNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrPasswordTooShort is returned when a new password is under the configured length
var ErrPasswordTooShort = goerrors.New("password is too short", goerrors.CategoryValidation).
	WithTextCode(TextCodePasswordTooShort).
	WithCode(goerrors.CodeBadRequest)

// ErrPasswordTooLong is returned for passwords bcrypt cannot hash
var ErrPasswordTooLong = goerrors.New("password must not exceed 72 bytes", goerrors.CategoryValidation).
	WithTextCode(TextCodePasswordTooLong).
	WithCode(goerrors.CodeBadRequest)

// ErrNoEmptyString is returned when hashing an empty password
var ErrNoEmptyString = goerrors.New("password must not be empty", goerrors.CategoryValidation).
	WithTextCode(TextCodeEmptyPassword).
	WithCode(goerrors.CodeBadRequest)

// ErrUnauthenticated is returned by the gate for any session failure
var ErrUnauthenticated = goerrors.New("authentication failed", goerrors.CategoryAuth).
	WithTextCode(TextCodeUnauthenticated).
	WithCode(goerrors.CodeUnauthorized)

// ErrInternal is the public face of infrastructure failures
var ErrInternal = goerrors.New("internal server error", goerrors.CategoryInternal).
	WithTextCode(TextCodeInternal).
	WithCode(goerrors.CodeInternal)

// internalError reports an infrastructure failure as ErrInternal. The
// cause is kept in the metadata for logging and never printed by Error().
func internalError(err error, msg string) *goerrors.Error {
	out := ErrInternal.Clone()
	out.Message = msg
	if err != nil {
		out = out.WithMetadata(map[string]any{"cause": err.Error()})
	}
	return out
}

// validationError wraps payload validation failures
func validationError(err error) *goerrors.Error {
	return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid input").
		WithTextCode(TextCodeValidation).
		WithCode(goerrors.CodeBadRequest)
}

// TextCode returns the text code of the outermost rich error in err
func TextCode(err error) string {
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr.TextCode
	}
	return ""
}

// IsKind reports whether err carries the same text code as kind
func IsKind(err error, kind *goerrors.Error) bool {
	if err == nil || kind == nil {
		return false
	}
	return TextCode(err) == kind.TextCode
}

// IsUniqueViolation reports whether a storage error comes from a unique
// constraint. Drivers do not share an error type so we match the message.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "duplicate entry")
}
