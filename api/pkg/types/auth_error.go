package types

import (
	"errors"
	"fmt"
)

// AuthErrorKind is the closed taxonomy of terminal authentication failures.
// The string values are the errorType names understood by the controller.
type AuthErrorKind string

const (
	AuthErrorInvalidEmail      AuthErrorKind = "INVALID_EMAIL"
	AuthErrorIncorrectPassword AuthErrorKind = "INCORRECT_PASSWORD"
	AuthErrorInvalidOtp        AuthErrorKind = "INVALID_OTP"
	AuthErrorPushDenied        AuthErrorKind = "PUSH_DENIED"
	AuthErrorUnknown2FAPage    AuthErrorKind = "UNKNOWN_2FA_PAGE"
	AuthErrorGeneric           AuthErrorKind = "GENERIC_ERROR"
)

// Sentinels for errors.Is. Any *AuthError matches the sentinel of its kind.
var (
	ErrInvalidEmail      = &AuthError{Kind: AuthErrorInvalidEmail}
	ErrIncorrectPassword = &AuthError{Kind: AuthErrorIncorrectPassword}
	ErrInvalidOtp        = &AuthError{Kind: AuthErrorInvalidOtp}
	ErrPushDenied        = &AuthError{Kind: AuthErrorPushDenied}
	ErrUnknown2FAPage    = &AuthError{Kind: AuthErrorUnknown2FAPage}
	ErrGeneric           = &AuthError{Kind: AuthErrorGeneric}
)

type AuthError struct {
	Kind   AuthErrorKind
	Detail string
	// Err is the infrastructure failure behind a GenericError, if any
	Err error
}

func NewAuthError(kind AuthErrorKind, detail string) *AuthError {
	return &AuthError{Kind: kind, Detail: detail}
}

// GenericError wraps err (which may be nil) as a terminal GENERIC_ERROR.
func GenericError(detail string, err error) *AuthError {
	return &AuthError{Kind: AuthErrorGeneric, Detail: detail, Err: err}
}

func (e *AuthError) Error() string {
	switch {
	case e.Detail != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Detail, e.Err)
	case e.Detail != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return string(e.Kind)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

func (e *AuthError) Is(target error) bool {
	t, ok := target.(*AuthError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Retriable reports whether a different authentication flow may still be
// attempted after this error. Only ambiguous failures qualify.
func (e *AuthError) Retriable() bool {
	return e.Kind == AuthErrorGeneric
}

// Message is the user facing text reported alongside the errorType.
func (e *AuthError) Message() string {
	switch e.Kind {
	case AuthErrorInvalidEmail:
		return "The email address is not associated with an account"
	case AuthErrorIncorrectPassword:
		return "The password is incorrect"
	case AuthErrorInvalidOtp:
		return "OTP verification failed, please try again..."
	case AuthErrorPushDenied:
		return "Push notification was denied"
	case AuthErrorUnknown2FAPage:
		return "This account requires additional verification that cannot be automated"
	}
	if e.Detail != "" {
		return "Authentication failed: " + e.Detail
	}
	return "An unexpected error occurred during authentication. Please try again."
}

// AsAuthError returns err as an *AuthError, translating anything outside the
// taxonomy into a GENERIC_ERROR so no unspecified error leaves the core.
func AsAuthError(err error) *AuthError {
	if err == nil {
		return nil
	}
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr
	}
	return GenericError("", err)
}
