package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "codeberg.org/tetherlabs/authgw/internal/errors"
)

// fakeProvider simulates the identity provider's REST surface. Handlers are
// registered per verb (the part after the colon in the request path).
type fakeProvider struct {
	server   *httptest.Server
	handlers map[string]http.HandlerFunc
	requests []string
}

func newFakeProvider(t *testing.T) *fakeProvider {
	t.Helper()

	p := &fakeProvider{handlers: map[string]http.HandlerFunc{}}
	p.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		verb := r.URL.Path
		if idx := strings.LastIndex(verb, ":"); idx >= 0 {
			verb = verb[idx+1:]
		} else if idx := strings.LastIndex(verb, "/"); idx >= 0 {
			verb = verb[idx+1:]
		}

		p.requests = append(p.requests, verb)

		handler, ok := p.handlers[verb]
		if !ok {
			t.Errorf("unexpected request for verb %q", verb)
			w.WriteHeader(http.StatusNotFound)
			return
		}

		handler(w, r)
	}))
	t.Cleanup(p.server.Close)

	return p
}

func (p *fakeProvider) client() *Client {
	return NewClient(ClientConfig{
		APIKey:   "test-key",
		BaseURL:  p.server.URL + "/v1/accounts",
		TokenURL: p.server.URL + "/v1/token",
	})
}

func (p *fakeProvider) respond(verb string, status int, body any) {
	p.handlers[verb] = func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(body) //nolint:errcheck // test fixture
	}
}

func (p *fakeProvider) respondError(verb string, status int, code string) {
	p.respond(verb, status, map[string]any{"error": map[string]any{"message": code}})
}

func signInBody(subjectID, email string) map[string]any {
	return map[string]any{
		"idToken":      "id-token",
		"refreshToken": "refresh-token",
		"expiresIn":    "3600",
		"localId":      subjectID,
		"email":        email,
	}
}

func TestSignInWithPassword_Success(t *testing.T) {
	provider := newFakeProvider(t)
	provider.respond("signInWithPassword", http.StatusOK, signInBody("ext-1", "user@example.com"))

	session, err := provider.client().SignInWithPassword(context.Background(), "user@example.com", "secret123")

	require.NoError(t, err)
	assert.Equal(t, "id-token", session.IDToken)
	assert.Equal(t, "refresh-token", session.RefreshToken)
	assert.Equal(t, int64(3600), session.ExpiresIn)
	assert.Equal(t, "ext-1", session.SubjectID)
	assert.Equal(t, "user@example.com", session.Email)
}

func TestSignInWithPassword_ErrorMapping(t *testing.T) {
	tests := []struct {
		name         string
		providerCode string
		wantKind     apperrors.Kind
	}{
		{"wrong password", "INVALID_PASSWORD", apperrors.KindInvalidCredential},
		{"unknown email", "EMAIL_NOT_FOUND", apperrors.KindInvalidCredential},
		{"combined credential error", "INVALID_LOGIN_CREDENTIALS", apperrors.KindInvalidCredential},
		{"disabled account", "USER_DISABLED", apperrors.KindAccountDisabled},
		{"throttled", "TOO_MANY_ATTEMPTS_TRY_LATER", apperrors.KindRateLimitExceeded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := newFakeProvider(t)
			provider.respondError("signInWithPassword", http.StatusBadRequest, tt.providerCode)

			_, err := provider.client().SignInWithPassword(context.Background(), "user@example.com", "secret123")

			assert.True(t, apperrors.HasKind(err, tt.wantKind), "got %v", err)
		})
	}
}

func TestSignInWithPassword_ProviderMessagePassesThrough(t *testing.T) {
	provider := newFakeProvider(t)
	provider.respondError("signInWithPassword", http.StatusBadRequest, "INVALID_PASSWORD")

	_, err := provider.client().SignInWithPassword(context.Background(), "user@example.com", "wrong")
	require.Error(t, err)

	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, "incorrect password", appErr.Message)
}

func TestSignUp_Success(t *testing.T) {
	provider := newFakeProvider(t)
	provider.respond("signUp", http.StatusOK, signInBody("ext-new", "new@example.com"))

	session, err := provider.client().SignUp(context.Background(), "new@example.com", "secret123")

	require.NoError(t, err)
	assert.Equal(t, "ext-new", session.SubjectID)
}

func TestSignUp_ErrorMapping(t *testing.T) {
	tests := []struct {
		providerCode string
		wantKind     apperrors.Kind
	}{
		{"EMAIL_EXISTS", apperrors.KindEmailAlreadyExists},
		{"WEAK_PASSWORD", apperrors.KindWeakPassword},
		{"OPERATION_NOT_ALLOWED", apperrors.KindRegistrationFailed},
	}

	for _, tt := range tests {
		t.Run(tt.providerCode, func(t *testing.T) {
			provider := newFakeProvider(t)
			provider.respondError("signUp", http.StatusBadRequest, tt.providerCode)

			_, err := provider.client().SignUp(context.Background(), "new@example.com", "secret123")

			assert.True(t, apperrors.HasKind(err, tt.wantKind), "got %v", err)
		})
	}
}

func TestRefreshToken_Success(t *testing.T) {
	provider := newFakeProvider(t)
	provider.respond("token", http.StatusOK, map[string]any{
		"id_token":      "new-id-token",
		"refresh_token": "new-refresh-token",
		"expires_in":    "3600",
		"user_id":       "ext-1",
	})

	session, err := provider.client().RefreshToken(context.Background(), "old-refresh-token")

	require.NoError(t, err)
	assert.Equal(t, "new-id-token", session.IDToken)
	assert.Equal(t, "new-refresh-token", session.RefreshToken)
	assert.Equal(t, "ext-1", session.SubjectID)
}

func TestRefreshToken_InvalidToken(t *testing.T) {
	provider := newFakeProvider(t)
	provider.respondError("token", http.StatusBadRequest, "INVALID_REFRESH_TOKEN")

	_, err := provider.client().RefreshToken(context.Background(), "stale")

	assert.True(t, apperrors.HasKind(err, apperrors.KindInvalidRefreshToken))
}

func TestExchangeCustomToken_Success(t *testing.T) {
	provider := newFakeProvider(t)
	provider.respond("signInWithCustomToken", http.StatusOK, signInBody("ext-1", "user@example.com"))

	session, err := provider.client().ExchangeCustomToken(context.Background(), "custom-token")

	require.NoError(t, err)
	assert.Equal(t, "ext-1", session.SubjectID)
}

func TestExchangeCustomToken_Rejected(t *testing.T) {
	provider := newFakeProvider(t)
	provider.respondError("signInWithCustomToken", http.StatusBadRequest, "INVALID_CUSTOM_TOKEN")

	_, err := provider.client().ExchangeCustomToken(context.Background(), "forged")

	assert.True(t, apperrors.HasKind(err, apperrors.KindTokenRefreshFailed))
}

func TestSendOobCode_TargetFieldPerKind(t *testing.T) {
	var lastBody map[string]any

	provider := newFakeProvider(t)
	provider.handlers["sendOobCode"] = func(w http.ResponseWriter, r *http.Request) {
		lastBody = map[string]any{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&lastBody))
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "{}") //nolint:errcheck // test fixture
	}
	client := provider.client()

	require.NoError(t, client.SendOobCode(context.Background(), OobPasswordReset, "user@example.com"))
	assert.Equal(t, "PASSWORD_RESET", lastBody["requestType"])
	assert.Equal(t, "user@example.com", lastBody["email"])
	assert.NotContains(t, lastBody, "idToken")

	require.NoError(t, client.SendOobCode(context.Background(), OobVerifyEmail, "id-token"))
	assert.Equal(t, "VERIFY_EMAIL", lastBody["requestType"])
	assert.Equal(t, "id-token", lastBody["idToken"])
	assert.NotContains(t, lastBody, "email")
}

func TestSendOobCode_UnsupportedKind(t *testing.T) {
	provider := newFakeProvider(t)

	err := provider.client().SendOobCode(context.Background(), OobKind("MAGIC_LINK"), "user@example.com")

	assert.Error(t, err)
	assert.Empty(t, provider.requests, "no request should be sent for an unknown kind")
}

func TestVerifyOobCode_ReturnsEmail(t *testing.T) {
	provider := newFakeProvider(t)
	provider.respond("resetPassword", http.StatusOK, map[string]any{"email": "user@example.com"})

	email, err := provider.client().VerifyOobCode(context.Background(), "oob-123")

	require.NoError(t, err)
	assert.Equal(t, "user@example.com", email)
}

func TestVerifyOobCode_ExpiredCode(t *testing.T) {
	provider := newFakeProvider(t)
	provider.respondError("resetPassword", http.StatusBadRequest, "EXPIRED_OOB_CODE")

	_, err := provider.client().VerifyOobCode(context.Background(), "stale")

	assert.Error(t, err)
}

func TestGetUser_Success(t *testing.T) {
	provider := newFakeProvider(t)
	provider.respond("lookup", http.StatusOK, map[string]any{
		"users": []map[string]any{{
			"localId":       "ext-1",
			"email":         "user@example.com",
			"emailVerified": true,
			"displayName":   "Ada",
		}},
	})

	record, err := provider.client().GetUser(context.Background(), "ext-1")

	require.NoError(t, err)
	assert.Equal(t, "ext-1", record.SubjectID)
	assert.Equal(t, "user@example.com", record.Email)
	assert.True(t, record.EmailVerified)
	assert.Equal(t, "Ada", record.DisplayName)
}

func TestGetUser_EmptyResultIsNotFound(t *testing.T) {
	provider := newFakeProvider(t)
	provider.respond("lookup", http.StatusOK, map[string]any{"users": []map[string]any{}})

	_, err := provider.client().GetUser(context.Background(), "ghost")

	assert.True(t, apperrors.HasKind(err, apperrors.KindUserNotFound))
}

func TestDeleteUser_NotFound(t *testing.T) {
	provider := newFakeProvider(t)
	provider.respondError("delete", http.StatusBadRequest, "USER_NOT_FOUND")

	err := provider.client().DeleteUser(context.Background(), "ghost")

	assert.True(t, apperrors.HasKind(err, apperrors.KindUserNotFound))
}

func TestChangePassword_ProviderRejection(t *testing.T) {
	provider := newFakeProvider(t)
	provider.respondError("update", http.StatusBadRequest, "WEAK_PASSWORD")

	err := provider.client().ChangePassword(context.Background(), "id-token", "123")

	assert.True(t, apperrors.HasKind(err, apperrors.KindPasswordUpdateFailed))
}

func TestPost_MalformedErrorBodyStillFails(t *testing.T) {
	provider := newFakeProvider(t)
	provider.handlers["lookup"] = func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		fmt.Fprint(w, "upstream exploded") //nolint:errcheck // test fixture
	}

	_, err := provider.client().GetUser(context.Background(), "ext-1")

	require.Error(t, err)
	assert.True(t, apperrors.HasKind(err, apperrors.KindUserRetrievalFailed))
}
