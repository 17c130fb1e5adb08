package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func performRequest(t *testing.T, err error) (*httptest.ResponseRecorder, ErrorResponse) {
	t.Helper()

	gin.SetMode(gin.TestMode)

	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)

	Respond(c, err)

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))

	return recorder, body
}

func TestRespond_ClassifiedErrorPassesThroughVerbatim(t *testing.T) {
	recorder, body := performRequest(t, EmailAlreadyExists())

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Equal(t, "email_already_exists", body.Error)
	assert.Equal(t, "email already registered", body.Message)
}

func TestRespond_WrappedClassifiedErrorIsStillRecognized(t *testing.T) {
	wrapped := fmt.Errorf("sign in: %w", AccountDisabled())

	recorder, body := performRequest(t, wrapped)

	assert.Equal(t, http.StatusForbidden, recorder.Code)
	assert.Equal(t, "account_disabled", body.Error)
}

func TestRespond_UnclassifiedErrorIsRewrittenOpaque(t *testing.T) {
	recorder, body := performRequest(t, fmt.Errorf("pq: connection refused to 10.0.0.5:5432"))

	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	assert.Equal(t, "server_error", body.Error)
	assert.Equal(t, "an internal error occurred", body.Message)
	assert.NotContains(t, body.Message, "10.0.0.5", "internal failure text must not leak")
	assert.Empty(t, body.Details)
}

func TestRespond_StatusPerKind(t *testing.T) {
	tests := []struct {
		err        *Error
		wantStatus int
	}{
		{MissingCredential(), http.StatusUnauthorized},
		{ExpiredCredential(), http.StatusUnauthorized},
		{InvalidRefreshToken(), http.StatusUnauthorized},
		{EmailNotVerified(), http.StatusForbidden},
		{UserNotFound(), http.StatusNotFound},
		{WeakPassword(), http.StatusBadRequest},
		{RateLimitExceeded(), http.StatusTooManyRequests},
		{RegistrationFailed(nil), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.err.Kind), func(t *testing.T) {
			recorder, body := performRequest(t, tt.err)

			assert.Equal(t, tt.wantStatus, recorder.Code)
			assert.Equal(t, string(tt.err.Kind), body.Error)
		})
	}
}

func TestRespond_ProductionStrips5xxDetails(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")

	recorder, body := performRequest(t, UserDeletionFailed(fmt.Errorf("stack trace with secrets")))

	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	assert.Empty(t, body.Details)
}

func TestRespond_DevelopmentKeepsDetails(t *testing.T) {
	t.Setenv("ENVIRONMENT", "development")

	_, body := performRequest(t, UserDeletionFailed(fmt.Errorf("delete ext-1: provider timeout")))

	assert.Equal(t, "delete ext-1: provider timeout", body.Details)
}

func TestValidationError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)

	ValidationError(c, fmt.Errorf("email is required"))

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Equal(t, "validation_error", body.Error)
	assert.Equal(t, "email is required", body.Details)
}

func TestWithDetails_DoesNotMutateOriginal(t *testing.T) {
	original := UserNotFound()
	augmented := original.WithDetails("subject ext-1")

	assert.Empty(t, original.Details)
	assert.Equal(t, "subject ext-1", augmented.Details)
	assert.Equal(t, original.Kind, augmented.Kind)
}

func TestHasKind(t *testing.T) {
	assert.True(t, HasKind(EmailNotVerified(), KindEmailNotVerified))
	assert.True(t, HasKind(fmt.Errorf("wrapped: %w", EmailNotVerified()), KindEmailNotVerified))
	assert.False(t, HasKind(fmt.Errorf("plain"), KindEmailNotVerified))
	assert.False(t, HasKind(nil, KindEmailNotVerified))
}
