package domain

import "errors"

// Catalog, session and provider errors
var (
	// Catalog errors
	ErrModelNotFound = errors.New("model not found")
	ErrNotModelOwner = errors.New("not the model owner")

	// Purchase errors
	ErrPurchaseNotFound = errors.New("purchase not found")

	// Session errors
	ErrNotAuthenticated = errors.New("no authenticated identity")
	ErrSessionClosed    = errors.New("session store closed")

	// Authorization errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// Provider errors
	ErrProviderUnavailable = errors.New("identity provider unavailable")

	// Validation errors
	ErrInvalidInput = errors.New("invalid input")

	// Rate limiting errors
	ErrRateLimited = errors.New("rate limit exceeded")

	// General errors
	ErrInternal = errors.New("internal error")
)

// AuthError represents an identity provider operation failure with a
// stable code the calling screen translates into a user-visible message.
// Auth errors are returned to the caller and never reach the session
// store or the authorization gate.
type AuthError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AuthError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *AuthError) Unwrap() error {
	return e.Cause
}

// NewAuthError creates a new authentication error
func NewAuthError(code, message string, cause error) *AuthError {
	return &AuthError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// AuthErrorCode returns the code carried by err if it is (or wraps) an
// AuthError, and CodeUnknown otherwise.
func AuthErrorCode(err error) string {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr.Code
	}
	return CodeUnknown
}

// Auth error codes
const (
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeUserNotFound       = "USER_NOT_FOUND"
	CodeEmailInUse         = "EMAIL_ALREADY_IN_USE"
	CodeWeakPassword       = "WEAK_PASSWORD"
	CodeInvalidEmail       = "INVALID_EMAIL"
	CodeConsentAborted     = "CONSENT_ABORTED"
	CodeProviderError      = "PROVIDER_ERROR"
	CodeNotAuthenticated   = "NOT_AUTHENTICATED"
	CodeUnknown            = "UNKNOWN"
)
