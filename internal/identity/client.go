package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	apperrors "codeberg.org/tetherlabs/authgw/internal/errors"
	"codeberg.org/tetherlabs/authgw/internal/metrics"
	"golang.org/x/time/rate"
)

// shared HTTP client for identity provider calls
var identityHTTPClient = &http.Client{
	Timeout: 15 * time.Second,
	Transport: &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	},
}

// rate limiter for outbound provider calls (50 requests/second with burst capacity of 10)
var identityRateLimiter = rate.NewLimiter(50, 10)

type ClientConfig struct {
	APIKey   string
	BaseURL  string // accounts endpoint, e.g. https://provider.example/v1/accounts
	TokenURL string // refresh-token exchange endpoint
}

// Client issues REST calls to the external identity provider and normalizes
// provider error payloads into typed outcomes. Credentials are set once at
// construction and never mutated.
type Client struct {
	config     ClientConfig
	httpClient *http.Client
}

func NewClient(config ClientConfig) *Client {
	return &Client{
		config:     config,
		httpClient: identityHTTPClient,
	}
}

// creates a new remote account; the provider issues the opaque subject id
func (c *Client) SignUp(ctx context.Context, email, password string) (*Session, error) {
	var resp signInResponse

	err := c.post(ctx, "signUp", c.accountURL("signUp"), signInRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	}, &resp)

	if err != nil {
		var provErr *ProviderError
		if errors.As(err, &provErr) {
			switch provErr.Code {
			case "EMAIL_EXISTS":
				return nil, apperrors.EmailAlreadyExists()
			case "WEAK_PASSWORD":
				return nil, apperrors.WeakPassword()
			}

			return nil, apperrors.RegistrationFailed(fmt.Errorf("%s", userMessage(provErr.Code)))
		}

		return nil, fmt.Errorf("sign up: %w", err)
	}

	return sessionFromSignIn(&resp)
}

// authenticates with email and password
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	var resp signInResponse

	err := c.post(ctx, "signInWithPassword", c.accountURL("signInWithPassword"), signInRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	}, &resp)

	if err != nil {
		var provErr *ProviderError
		if errors.As(err, &provErr) {
			switch provErr.Code {
			case "USER_DISABLED":
				return nil, apperrors.AccountDisabled()
			case "TOO_MANY_ATTEMPTS_TRY_LATER":
				return nil, apperrors.RateLimitExceeded()
			}

			return nil, apperrors.InvalidCredentials(userMessage(provErr.Code))
		}

		return nil, fmt.Errorf("sign in: %w", err)
	}

	return sessionFromSignIn(&resp)
}

// exchanges a provider-minted custom token for a session
func (c *Client) ExchangeCustomToken(ctx context.Context, token string) (*Session, error) {
	var resp signInResponse

	err := c.post(ctx, "signInWithCustomToken", c.accountURL("signInWithCustomToken"), signInRequest{
		Token:             token,
		ReturnSecureToken: true,
	}, &resp)

	if err != nil {
		var provErr *ProviderError
		if errors.As(err, &provErr) {
			return nil, apperrors.TokenRefreshFailed(provErr)
		}

		return nil, fmt.Errorf("exchange custom token: %w", err)
	}

	return sessionFromSignIn(&resp)
}

// exchanges a refresh token for a new session
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (*Session, error) {
	var resp refreshResponse

	err := c.post(ctx, "token", c.tokenURL(), refreshRequest{
		GrantType:    "refresh_token",
		RefreshToken: refreshToken,
	}, &resp)

	if err != nil {
		var provErr *ProviderError
		if errors.As(err, &provErr) {
			return nil, apperrors.InvalidRefreshToken()
		}

		return nil, fmt.Errorf("refresh token: %w", err)
	}

	expiresIn, _ := strconv.ParseInt(resp.ExpiresIn, 10, 64) // zero on malformed value

	return &Session{
		IDToken:      resp.IDToken,
		RefreshToken: resp.RefreshToken,
		ExpiresIn:    expiresIn,
		SubjectID:    resp.UserID,
	}, nil
}

// requests a one-time action code. For PASSWORD_RESET the target is the
// account email; for VERIFY_EMAIL it is the caller's ID token.
func (c *Client) SendOobCode(ctx context.Context, kind OobKind, target string) error {
	req := oobCodeRequest{RequestType: string(kind)}

	switch kind {
	case OobPasswordReset:
		req.Email = target
	case OobVerifyEmail:
		req.IDToken = target
	default:
		return fmt.Errorf("unsupported oob code kind %q", kind)
	}

	err := c.post(ctx, "sendOobCode", c.accountURL("sendOobCode"), req, nil)
	if err == nil {
		return nil
	}

	message := err.Error()

	var provErr *ProviderError
	if errors.As(err, &provErr) {
		message = userMessage(provErr.Code)
	}

	if kind == OobPasswordReset {
		return apperrors.PasswordResetFailed(message)
	}

	return apperrors.EmailVerificationFailed(message)
}

// resolves a one-time code to the email it was issued for, without consuming it
func (c *Client) VerifyOobCode(ctx context.Context, oobCode string) (string, error) {
	var resp resetPasswordResponse

	err := c.post(ctx, "resetPassword", c.accountURL("resetPassword"), resetPasswordRequest{OobCode: oobCode}, &resp)
	if err != nil {
		var provErr *ProviderError
		if errors.As(err, &provErr) {
			return "", fmt.Errorf("failed to verify action code: %s", userMessage(provErr.Code))
		}

		return "", fmt.Errorf("failed to verify action code: %w", err)
	}

	if resp.Email == "" {
		return "", fmt.Errorf("provider response is missing the account email")
	}

	return resp.Email, nil
}

// consumes a password-reset code and sets the new password
func (c *Client) ConfirmPasswordReset(ctx context.Context, oobCode, newPassword string) error {
	err := c.post(ctx, "resetPassword", c.accountURL("resetPassword"), resetPasswordRequest{
		OobCode:     oobCode,
		NewPassword: newPassword,
	}, nil)

	if err != nil {
		var provErr *ProviderError
		if errors.As(err, &provErr) {
			return fmt.Errorf("failed to reset password: %s", userMessage(provErr.Code))
		}

		return fmt.Errorf("failed to reset password: %w", err)
	}

	return nil
}

// consumes an email-verification code, flipping the provider-side flag
func (c *Client) ConfirmEmailVerification(ctx context.Context, oobCode string) error {
	err := c.post(ctx, "update", c.accountURL("update"), updateRequest{OobCode: oobCode}, nil)
	if err != nil {
		var provErr *ProviderError
		if errors.As(err, &provErr) {
			return fmt.Errorf("failed to confirm email verification: %s", userMessage(provErr.Code))
		}

		return fmt.Errorf("failed to confirm email verification: %w", err)
	}

	return nil
}

// changes the password of the account the ID token belongs to
func (c *Client) ChangePassword(ctx context.Context, idToken, newPassword string) error {
	err := c.post(ctx, "update", c.accountURL("update"), updateRequest{
		IDToken:  idToken,
		Password: newPassword,
	}, nil)

	if err != nil {
		var provErr *ProviderError
		if errors.As(err, &provErr) {
			return apperrors.PasswordUpdateFailed(fmt.Errorf("%s", userMessage(provErr.Code)))
		}

		return fmt.Errorf("change password: %w", err)
	}

	return nil
}

// fetches the provider's authoritative record for a subject id
func (c *Client) GetUser(ctx context.Context, subjectID string) (*UserRecord, error) {
	var resp lookupResponse

	err := c.post(ctx, "lookup", c.accountURL("lookup"), lookupRequest{LocalID: []string{subjectID}}, &resp)
	if err != nil {
		var provErr *ProviderError
		if errors.As(err, &provErr) {
			if provErr.Code == "USER_NOT_FOUND" {
				return nil, apperrors.UserNotFound()
			}

			return nil, apperrors.UserRetrievalFailed(provErr)
		}

		return nil, fmt.Errorf("get user: %w", err)
	}

	if len(resp.Users) == 0 {
		return nil, apperrors.UserNotFound()
	}

	u := resp.Users[0]

	return &UserRecord{
		SubjectID:     u.LocalID,
		Email:         u.Email,
		EmailVerified: u.EmailVerified,
		DisplayName:   u.DisplayName,
		Disabled:      u.Disabled,
	}, nil
}

// updates provider-side account fields for a subject id
func (c *Client) UpdateUser(ctx context.Context, subjectID string, params UpdateUserParams) error {
	err := c.post(ctx, "update", c.accountURL("update"), updateRequest{
		LocalID:       subjectID,
		EmailVerified: params.EmailVerified,
		DisplayName:   params.DisplayName,
	}, nil)

	if err != nil {
		var provErr *ProviderError
		if errors.As(err, &provErr) {
			if provErr.Code == "USER_NOT_FOUND" {
				return apperrors.UserNotFound()
			}

			return fmt.Errorf("update user: %s", userMessage(provErr.Code))
		}

		return fmt.Errorf("update user: %w", err)
	}

	return nil
}

// removes the remote account
func (c *Client) DeleteUser(ctx context.Context, subjectID string) error {
	err := c.post(ctx, "delete", c.accountURL("delete"), deleteRequest{LocalID: subjectID}, nil)
	if err != nil {
		var provErr *ProviderError
		if errors.As(err, &provErr) {
			if provErr.Code == "USER_NOT_FOUND" {
				return apperrors.UserNotFound()
			}

			return apperrors.UserDeletionFailed(provErr)
		}

		return fmt.Errorf("delete user: %w", err)
	}

	return nil
}

func (c *Client) accountURL(verb string) string {
	return fmt.Sprintf("%s:%s?key=%s", c.config.BaseURL, verb, c.config.APIKey)
}

func (c *Client) tokenURL() string {
	return fmt.Sprintf("%s?key=%s", c.config.TokenURL, c.config.APIKey)
}

// issues a POST with the JSON payload, decoding a success body into out and
// non-2xx responses into a *ProviderError
func (c *Client) post(ctx context.Context, endpoint, url string, payload, out any) error {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	// rate limiting
	if err := identityRateLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter error: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.ObserveIdentityRequest(endpoint, time.Since(start).Seconds())

	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}

	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode/100 != 2 {
		body, _ := io.ReadAll(resp.Body)

		var envelope errorEnvelope
		if err := json.Unmarshal(body, &envelope); err != nil || envelope.Error.Message == "" {
			return &ProviderError{Code: fmt.Sprintf("HTTP_%d", resp.StatusCode), HTTPStatus: resp.StatusCode}
		}

		return &ProviderError{Code: envelope.Error.Message, HTTPStatus: resp.StatusCode}
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

func sessionFromSignIn(resp *signInResponse) (*Session, error) {
	if resp.IDToken == "" || resp.LocalID == "" {
		return nil, fmt.Errorf("provider response is missing session tokens")
	}

	expiresIn, _ := strconv.ParseInt(resp.ExpiresIn, 10, 64) // zero on malformed value

	return &Session{
		IDToken:      resp.IDToken,
		RefreshToken: resp.RefreshToken,
		ExpiresIn:    expiresIn,
		SubjectID:    resp.LocalID,
		Email:        resp.Email,
	}, nil
}
