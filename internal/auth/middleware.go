package auth

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "codeberg.org/tetherlabs/authgw/internal/errors"
	"codeberg.org/tetherlabs/authgw/internal/identity"
	"codeberg.org/tetherlabs/authgw/internal/logger"
)

// Authenticator converts a bearer token into trusted claims and keeps the
// local verification state in sync with the provider
type Authenticator interface {
	VerifyToken(ctx context.Context, token string) (*identity.Claims, error)
	Reconcile(ctx context.Context, subjectID string) (bool, error)
}

// Middleware verifies the bearer token and adds the claims to the request
// context. After a successful verification it opportunistically syncs the
// local verification flag with the provider; a failed sync is logged and the
// request proceeds on the pre-sync claims.
func Middleware(authenticator Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := bearerToken(c)
		if err != nil {
			apperrors.Respond(c, err)
			c.Abort()
			return
		}

		claims, err := authenticator.VerifyToken(c.Request.Context(), token)
		if err != nil {
			apperrors.Respond(c, err)
			c.Abort()
			return
		}

		// best-effort: the sync error is acknowledged here and goes no further
		verified, err := authenticator.Reconcile(c.Request.Context(), claims.SubjectID)
		if err != nil {
			logger.ErrorErr(err, "verification sync failed", "subject_id", claims.SubjectID)
		} else {
			claims.EmailVerified = verified
		}

		c.Set(ctxKeyClaims, claims)
		c.Set(ctxKeyToken, token)
		c.Set(ctxKeySubjectID, claims.SubjectID)

		c.Next()
	}
}

// RequireVerifiedEmail rejects callers whose reconciled verification state is
// false. Must run after Middleware.
func RequireVerifiedEmail() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := GetClaims(c)
		if !ok {
			apperrors.Respond(c, apperrors.MissingCredential())
			c.Abort()
			return
		}

		if !claims.EmailVerified {
			apperrors.Respond(c, apperrors.EmailNotVerified())
			c.Abort()
			return
		}

		c.Next()
	}
}

// extracts the bearer token from the Authorization header
func bearerToken(c *gin.Context) (string, error) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", apperrors.MissingCredential()
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", apperrors.InvalidCredential("invalid authorization header format")
	}

	return parts[1], nil
}
