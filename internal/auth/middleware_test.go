package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "codeberg.org/tetherlabs/authgw/internal/errors"
	"codeberg.org/tetherlabs/authgw/internal/identity"
)

// implements Authenticator for testing
type fakeAuthenticator struct {
	verifyFunc    func(ctx context.Context, token string) (*identity.Claims, error)
	reconcileFunc func(ctx context.Context, subjectID string) (bool, error)
}

func (f *fakeAuthenticator) VerifyToken(ctx context.Context, token string) (*identity.Claims, error) {
	if f.verifyFunc != nil {
		return f.verifyFunc(ctx, token)
	}

	return &identity.Claims{SubjectID: "ext-1", Email: "user@example.com", EmailVerified: false}, nil
}

func (f *fakeAuthenticator) Reconcile(ctx context.Context, subjectID string) (bool, error) {
	if f.reconcileFunc != nil {
		return f.reconcileFunc(ctx, subjectID)
	}

	return false, nil
}

func newTestRouter(authenticator Authenticator, extra ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	handlers := append([]gin.HandlerFunc{Middleware(authenticator)}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		claims, _ := GetClaims(c)
		subjectID, _ := GetSubjectID(c)
		token, _ := GetToken(c)

		c.JSON(http.StatusOK, gin.H{
			"subject_id":     subjectID,
			"token":          token,
			"email_verified": claims.EmailVerified,
		})
	})
	router.GET("/protected", handlers...)

	return router
}

func doRequest(router *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	return recorder
}

func TestMiddleware_ValidToken(t *testing.T) {
	router := newTestRouter(&fakeAuthenticator{})

	recorder := doRequest(router, "Bearer good-token")

	require.Equal(t, http.StatusOK, recorder.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	assert.Equal(t, "ext-1", body["subject_id"])
	assert.Equal(t, "good-token", body["token"])
}

func TestMiddleware_MissingHeader(t *testing.T) {
	router := newTestRouter(&fakeAuthenticator{})

	recorder := doRequest(router, "")

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "missing_credential")
}

func TestMiddleware_MalformedHeader(t *testing.T) {
	router := newTestRouter(&fakeAuthenticator{})

	for _, header := range []string{"good-token", "Basic dXNlcjpwYXNz", "Bearer"} {
		recorder := doRequest(router, header)

		assert.Equal(t, http.StatusUnauthorized, recorder.Code, "header %q", header)
	}
}

func TestMiddleware_RejectedToken(t *testing.T) {
	authenticator := &fakeAuthenticator{
		verifyFunc: func(_ context.Context, _ string) (*identity.Claims, error) {
			return nil, apperrors.ExpiredCredential()
		},
	}
	router := newTestRouter(authenticator)

	recorder := doRequest(router, "Bearer stale-token")

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "expired_credential")
}

func TestMiddleware_ReconcileOverridesStaleClaims(t *testing.T) {
	authenticator := &fakeAuthenticator{
		reconcileFunc: func(_ context.Context, subjectID string) (bool, error) {
			require.Equal(t, "ext-1", subjectID)
			return true, nil
		},
	}
	router := newTestRouter(authenticator)

	recorder := doRequest(router, "Bearer good-token")

	require.Equal(t, http.StatusOK, recorder.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	assert.Equal(t, true, body["email_verified"], "live provider state wins over token-time claims")
}

func TestMiddleware_ReconcileFailureDoesNotBlockRequest(t *testing.T) {
	authenticator := &fakeAuthenticator{
		verifyFunc: func(_ context.Context, _ string) (*identity.Claims, error) {
			return &identity.Claims{SubjectID: "ext-1", EmailVerified: true}, nil
		},
		reconcileFunc: func(_ context.Context, _ string) (bool, error) {
			return false, fmt.Errorf("provider timeout")
		},
	}
	router := newTestRouter(authenticator)

	recorder := doRequest(router, "Bearer good-token")

	require.Equal(t, http.StatusOK, recorder.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	assert.Equal(t, true, body["email_verified"], "pre-sync claims are kept when the sync fails")
}

func TestRequireVerifiedEmail_Allows(t *testing.T) {
	authenticator := &fakeAuthenticator{
		reconcileFunc: func(_ context.Context, _ string) (bool, error) {
			return true, nil
		},
	}
	router := newTestRouter(authenticator, RequireVerifiedEmail())

	recorder := doRequest(router, "Bearer good-token")

	assert.Equal(t, http.StatusOK, recorder.Code)
}

func TestRequireVerifiedEmail_Rejects(t *testing.T) {
	router := newTestRouter(&fakeAuthenticator{}, RequireVerifiedEmail())

	recorder := doRequest(router, "Bearer good-token")

	assert.Equal(t, http.StatusForbidden, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "email_not_verified")
}
