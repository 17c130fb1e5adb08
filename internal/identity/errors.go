package identity

import "fmt"

// ProviderError is a non-success response from the identity provider,
// carrying the provider's error code verbatim.
type ProviderError struct {
	Code       string // provider code, e.g. EMAIL_NOT_FOUND
	HTTPStatus int
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("identity provider error %s (http %d)", e.Code, e.HTTPStatus)
}

// fixed lookup table from provider error codes to user-facing messages;
// unmapped codes pass through verbatim
var providerMessages = map[string]string{
	"EMAIL_NOT_FOUND":             "no user found with this email address",
	"INVALID_PASSWORD":            "incorrect password",
	"INVALID_LOGIN_CREDENTIALS":   "invalid email or password",
	"USER_DISABLED":               "this account has been disabled",
	"TOO_MANY_ATTEMPTS_TRY_LATER": "too many failed attempts, please try again later",
	"EMAIL_EXISTS":                "email already registered",
	"INVALID_EMAIL":               "invalid email address",
	"WEAK_PASSWORD":               "password is too weak, use at least 6 characters",
}

// translates a provider error code to its user-facing message
func userMessage(code string) string {
	if msg, ok := providerMessages[code]; ok {
		return msg
	}

	return code
}
