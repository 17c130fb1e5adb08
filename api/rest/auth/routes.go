package auth

import (
	"github.com/gin-gonic/gin"
	limiter "github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"codeberg.org/tetherlabs/authgw/internal/auth"
	"codeberg.org/tetherlabs/authgw/internal/authn"
	"codeberg.org/tetherlabs/authgw/internal/config"
	apperrors "codeberg.org/tetherlabs/authgw/internal/errors"
)

// per-IP budget for the credential endpoints
const credentialRateLimit = "10-M"

func credentialLimiter() gin.HandlerFunc {
	rate, err := limiter.NewRateFromFormatted(credentialRateLimit)
	if err != nil {
		panic(err)
	}

	return mgin.NewMiddleware(
		limiter.New(memory.NewStore(), rate),
		mgin.WithLimitReachedHandler(func(c *gin.Context) {
			apperrors.Respond(c, apperrors.RateLimitExceeded())
			c.Abort()
		}),
	)
}

func RegisterRoutes(rg *gin.RouterGroup, svc *authn.Service, cfg *config.Config) {
	grp := rg.Group("/auth")

	limited := grp.Group("", credentialLimiter())
	limited.POST("/register", Register(svc))
	limited.POST("/login", Login(svc))
	limited.POST("/refresh", Refresh(svc))
	limited.POST("/password-reset", PasswordReset(svc))

	grp.GET("/verify-email-callback", ActionCallback(svc, cfg))
	grp.POST("/reset-password-confirm", ResetPasswordConfirm(svc))

	authed := grp.Group("", auth.Middleware(svc))
	authed.GET("/verify-token", VerifyToken())
	authed.GET("/me", Me(svc))
	authed.GET("/user/:id", GetUser(svc))
	authed.POST("/verify-email", SendVerificationEmail(svc))
	authed.POST("/sync-verification", SyncVerification(svc))
	authed.POST("/password-update", PasswordUpdate(svc))
	authed.DELETE("/me", auth.RequireVerifiedEmail(), DeleteMe(svc))

	admin := grp.Group("/admin", auth.Middleware(svc))
	admin.POST("/verify-email/:email", AdminVerifyEmail(svc))
}
