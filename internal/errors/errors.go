package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error Handling Guidelines:
//
// For HTTP REST handlers:
//   - Return *errors.Error values from services and call errors.Respond()
//     exactly once per request; it handles both logging and the HTTP response
//   - Use logger.ErrorErr() only for non-critical errors where processing
//     continues (reconciliation, compensation, verification emails)
//
// For services/repositories/internal packages:
//   - Classified failures are built with the constructors below and surfaced
//     verbatim (kind + message) to the caller
//   - Unclassified failures are returned wrapped with fmt.Errorf("context: %w", err)
//     and rewritten to an opaque server_error at the boundary

// Kind identifies a classified failure. The string value doubles as the wire
// error code.
type Kind string

// authentication (401)
const (
	KindMissingCredential   Kind = "missing_credential"
	KindInvalidCredential   Kind = "invalid_credential"
	KindExpiredCredential   Kind = "expired_credential"
	KindInvalidRefreshToken Kind = "invalid_refresh_token"
)

// authorization (403)
const (
	KindEmailNotVerified Kind = "email_not_verified"
	KindAccountDisabled  Kind = "account_disabled"
)

// validation (400)
const (
	KindEmailAlreadyExists    Kind = "email_already_exists"
	KindUsernameAlreadyExists Kind = "username_already_exists"
	KindInvalidPassword       Kind = "invalid_password"
	KindWeakPassword          Kind = "weak_password"
)

// not found (404)
const (
	KindUserNotFound        Kind = "user_not_found"
	KindUserNotFoundLocally Kind = "user_not_found_locally"
)

// operation failures
const (
	KindRegistrationFailed      Kind = "registration_failed"
	KindLoginFailed             Kind = "login_failed"
	KindTokenRefreshFailed      Kind = "token_refresh_failed"
	KindPasswordResetFailed     Kind = "password_reset_failed"
	KindEmailVerificationFailed Kind = "email_verification_failed"
	KindPasswordUpdateFailed    Kind = "password_update_failed"
	KindUserDeletionFailed      Kind = "user_deletion_failed"
	KindUserRetrievalFailed     Kind = "user_retrieval_failed"
)

// rate limiting (429)
const (
	KindRateLimitExceeded Kind = "rate_limit_exceeded"
)

// fallback for unclassified failures
const (
	KindInternal Kind = "server_error"
)

// Error is a classified application failure carrying the HTTP status it maps
// to at the transport boundary. It replaces an exception hierarchy with a
// single value type.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Details string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// attaches diagnostic details without mutating the original
func (e *Error) WithDetails(details string) *Error {
	out := *e
	out.Details = details
	return &out
}

// extracts a classified error from an error chain
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}

	return nil, false
}

// reports whether err carries the given kind
func HasKind(err error, kind Kind) bool {
	appErr, ok := As(err)
	return ok && appErr.Kind == kind
}

// authentication constructors

func MissingCredential() *Error {
	return &Error{Kind: KindMissingCredential, Status: http.StatusUnauthorized, Message: "authentication credential is missing"}
}

func InvalidCredential(message string) *Error {
	if message == "" {
		message = "invalid authentication credential"
	}

	return &Error{Kind: KindInvalidCredential, Status: http.StatusUnauthorized, Message: message}
}

func ExpiredCredential() *Error {
	return &Error{Kind: KindExpiredCredential, Status: http.StatusUnauthorized, Message: "authentication credential has expired"}
}

func InvalidCredentials(message string) *Error {
	if message == "" {
		message = "invalid email or password"
	}

	return &Error{Kind: KindInvalidCredential, Status: http.StatusUnauthorized, Message: message}
}

func InvalidRefreshToken() *Error {
	return &Error{Kind: KindInvalidRefreshToken, Status: http.StatusUnauthorized, Message: "invalid or expired refresh token"}
}

// authorization constructors

func EmailNotVerified() *Error {
	return &Error{Kind: KindEmailNotVerified, Status: http.StatusForbidden, Message: "email address must be verified to perform this action"}
}

func AccountDisabled() *Error {
	return &Error{Kind: KindAccountDisabled, Status: http.StatusForbidden, Message: "this account has been disabled"}
}

// validation constructors

func EmailAlreadyExists() *Error {
	return &Error{Kind: KindEmailAlreadyExists, Status: http.StatusBadRequest, Message: "email already registered"}
}

func UsernameAlreadyExists() *Error {
	return &Error{Kind: KindUsernameAlreadyExists, Status: http.StatusBadRequest, Message: "username already taken"}
}

func InvalidPassword(message string) *Error {
	if message == "" {
		message = "incorrect password"
	}

	return &Error{Kind: KindInvalidPassword, Status: http.StatusBadRequest, Message: message}
}

func WeakPassword() *Error {
	return &Error{Kind: KindWeakPassword, Status: http.StatusBadRequest, Message: "password is too weak, use at least 6 characters"}
}

// not found constructors

func UserNotFound() *Error {
	return &Error{Kind: KindUserNotFound, Status: http.StatusNotFound, Message: "user not found"}
}

func UserNotFoundLocally() *Error {
	return &Error{Kind: KindUserNotFoundLocally, Status: http.StatusNotFound, Message: "user record not found in database"}
}

// operation constructors

func RegistrationFailed(err error) *Error {
	return operation(KindRegistrationFailed, http.StatusInternalServerError, "registration failed", err)
}

func LoginFailed(err error) *Error {
	return operation(KindLoginFailed, http.StatusUnauthorized, "login failed", err)
}

func TokenRefreshFailed(err error) *Error {
	return operation(KindTokenRefreshFailed, http.StatusUnauthorized, "token refresh failed", err)
}

func PasswordResetFailed(message string) *Error {
	if message == "" {
		message = "failed to send password reset email"
	}

	return &Error{Kind: KindPasswordResetFailed, Status: http.StatusBadRequest, Message: message}
}

func EmailVerificationFailed(message string) *Error {
	if message == "" {
		message = "failed to send verification email"
	}

	return &Error{Kind: KindEmailVerificationFailed, Status: http.StatusBadRequest, Message: message}
}

func PasswordUpdateFailed(err error) *Error {
	return operation(KindPasswordUpdateFailed, http.StatusBadRequest, "failed to update password", err)
}

func UserDeletionFailed(err error) *Error {
	return operation(KindUserDeletionFailed, http.StatusInternalServerError, "failed to delete user", err)
}

func UserRetrievalFailed(err error) *Error {
	return operation(KindUserRetrievalFailed, http.StatusInternalServerError, "failed to retrieve user", err)
}

// rate limiting constructor

func RateLimitExceeded() *Error {
	return &Error{Kind: KindRateLimitExceeded, Status: http.StatusTooManyRequests, Message: "too many requests, please try again later"}
}

// fallback constructor for unclassified failures that must cross the boundary
func Internal(message string) *Error {
	if message == "" {
		message = "an internal error occurred"
	}

	return &Error{Kind: KindInternal, Status: http.StatusInternalServerError, Message: message}
}

func operation(kind Kind, status int, message string, err error) *Error {
	out := &Error{Kind: kind, Status: status, Message: message}

	if err != nil {
		out.Details = err.Error()
	}

	return out
}
