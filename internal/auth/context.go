package auth

import (
	"github.com/gin-gonic/gin"

	"codeberg.org/tetherlabs/authgw/internal/identity"
)

// context keys set by the middleware
const (
	ctxKeyClaims    = "auth_claims"
	ctxKeyToken     = "auth_token"
	ctxKeySubjectID = "subject_id"
)

// extracts the verified claims set after Middleware
func GetClaims(c *gin.Context) (*identity.Claims, bool) {
	value, exists := c.Get(ctxKeyClaims)
	if !exists {
		return nil, false
	}

	claims, ok := value.(*identity.Claims)
	return claims, ok
}

// extracts the subject id after Middleware
func GetSubjectID(c *gin.Context) (string, bool) {
	subjectID := c.GetString(ctxKeySubjectID)
	return subjectID, subjectID != ""
}

// extracts the raw bearer token after Middleware
func GetToken(c *gin.Context) (string, bool) {
	token := c.GetString(ctxKeyToken)
	return token, token != ""
}
