package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"codeberg.org/tetherlabs/authgw/internal/auth"
	"codeberg.org/tetherlabs/authgw/internal/authn"
	"codeberg.org/tetherlabs/authgw/internal/config"
	apperrors "codeberg.org/tetherlabs/authgw/internal/errors"
	"codeberg.org/tetherlabs/authgw/internal/logger"
)

// Register godoc
// @Summary Register a new user
// @Description Creates the account at the identity provider, stores the local profile, and returns a session
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Registration details"
// @Success 201 {object} authn.Session
// @Failure 400 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /api/v1/auth/register [post]
func Register(svc *authn.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			apperrors.ValidationError(c, err)
			return
		}

		session, err := svc.Register(c.Request.Context(), authn.RegisterParams{
			Email:     req.Email,
			Password:  req.Password,
			Username:  req.Username,
			FirstName: req.FirstName,
			LastName:  req.LastName,
		})
		if err != nil {
			apperrors.Respond(c, err)
			return
		}

		c.JSON(http.StatusCreated, session)
	}
}

// Login godoc
// @Summary Authenticate with email and password
// @Description Signs in against the identity provider and returns a session with reconciled verification status
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Credentials"
// @Success 200 {object} authn.Session
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /api/v1/auth/login [post]
func Login(svc *authn.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			apperrors.ValidationError(c, err)
			return
		}

		session, err := svc.Login(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			apperrors.Respond(c, err)
			return
		}

		c.JSON(http.StatusOK, session)
	}
}

// Refresh godoc
// @Summary Exchange a refresh token for a new session
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RefreshRequest true "Refresh token"
// @Success 200 {object} authn.Session
// @Failure 401 {object} errors.ErrorResponse
// @Router /api/v1/auth/refresh [post]
func Refresh(svc *authn.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RefreshRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			apperrors.ValidationError(c, err)
			return
		}

		session, err := svc.Refresh(c.Request.Context(), req.RefreshToken)
		if err != nil {
			apperrors.Respond(c, err)
			return
		}

		c.JSON(http.StatusOK, session)
	}
}

// PasswordReset godoc
// @Summary Send a password reset email
// @Tags auth
// @Accept json
// @Produce json
// @Param request body PasswordResetRequest true "Account email"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} errors.ErrorResponse
// @Router /api/v1/auth/password-reset [post]
func PasswordReset(svc *authn.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req PasswordResetRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			apperrors.ValidationError(c, err)
			return
		}

		if err := svc.SendPasswordReset(c.Request.Context(), req.Email); err != nil {
			apperrors.Respond(c, err)
			return
		}

		c.JSON(http.StatusOK, MessageResponse{Message: "password reset email sent", Success: true})
	}
}

// PasswordUpdate godoc
// @Summary Change the caller's password
// @Description Re-authenticates with the current password before applying the new one
// @Tags auth
// @Accept json
// @Produce json
// @Param request body PasswordUpdateRequest true "Current and new password"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /api/v1/auth/password-update [post]
// @Security BearerAuth
func PasswordUpdate(svc *authn.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req PasswordUpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			apperrors.ValidationError(c, err)
			return
		}

		subjectID, _ := auth.GetSubjectID(c)
		token, _ := auth.GetToken(c)
		if err := svc.UpdatePassword(c.Request.Context(), subjectID, token, req.CurrentPassword, req.NewPassword); err != nil {
			apperrors.Respond(c, err)
			return
		}

		c.JSON(http.StatusOK, MessageResponse{Message: "password updated", Success: true})
	}
}

// SendVerificationEmail godoc
// @Summary Resend the verification email for the caller's account
// @Tags auth
// @Produce json
// @Success 200 {object} MessageResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /api/v1/auth/verify-email [post]
// @Security BearerAuth
func SendVerificationEmail(svc *authn.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := auth.GetToken(c)
		if !ok {
			apperrors.Respond(c, apperrors.MissingCredential())
			return
		}

		if err := svc.SendVerificationEmail(c.Request.Context(), token); err != nil {
			apperrors.Respond(c, err)
			return
		}

		c.JSON(http.StatusOK, MessageResponse{Message: "verification email sent", Success: true})
	}
}

// SyncVerification godoc
// @Summary Reconcile the local verification flag with the identity provider
// @Tags auth
// @Produce json
// @Success 200 {object} VerificationStatusResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /api/v1/auth/sync-verification [post]
// @Security BearerAuth
func SyncVerification(svc *authn.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		subjectID, _ := auth.GetSubjectID(c)

		verified, err := svc.Reconcile(c.Request.Context(), subjectID)
		if err != nil {
			logger.ErrorErr(err, "verification sync failed", "subject_id", subjectID)
			claims, ok := auth.GetClaims(c)
			verified = ok && claims.EmailVerified
		}

		c.JSON(http.StatusOK, VerificationStatusResponse{Verified: verified})
	}
}

// VerifyToken godoc
// @Summary Validate a bearer token and echo its claims
// @Tags auth
// @Produce json
// @Success 200 {object} TokenStatusResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /api/v1/auth/verify-token [get]
// @Security BearerAuth
func VerifyToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := auth.GetClaims(c)
		if !ok {
			apperrors.Respond(c, apperrors.MissingCredential())
			return
		}

		c.JSON(http.StatusOK, TokenStatusResponse{
			Valid:         true,
			SubjectID:     claims.SubjectID,
			Email:         claims.Email,
			EmailVerified: claims.EmailVerified,
			Claims:        claims.Extra,
		})
	}
}

// Me godoc
// @Summary Get the caller's merged profile
// @Description Combines the identity provider record with the local profile
// @Tags auth
// @Produce json
// @Success 200 {object} authn.UserProfile
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /api/v1/auth/me [get]
// @Security BearerAuth
func Me(svc *authn.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		subjectID, _ := auth.GetSubjectID(c)

		profile, err := svc.CurrentUser(c.Request.Context(), subjectID)
		if err != nil {
			apperrors.Respond(c, err)
			return
		}

		c.JSON(http.StatusOK, profile)
	}
}

// GetUser godoc
// @Summary Get a user's merged profile by identity provider id
// @Tags auth
// @Produce json
// @Param id path string true "Identity provider user id"
// @Success 200 {object} authn.UserProfile
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /api/v1/auth/user/{id} [get]
// @Security BearerAuth
func GetUser(svc *authn.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		profile, err := svc.CurrentUser(c.Request.Context(), c.Param("id"))
		if err != nil {
			apperrors.Respond(c, err)
			return
		}

		c.JSON(http.StatusOK, profile)
	}
}

// DeleteMe godoc
// @Summary Delete the caller's account
// @Description Removes the account from the identity provider and the local store
// @Tags auth
// @Produce json
// @Success 200 {object} MessageResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /api/v1/auth/me [delete]
// @Security BearerAuth
func DeleteMe(svc *authn.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		subjectID, _ := auth.GetSubjectID(c)

		if err := svc.DeleteAccount(c.Request.Context(), subjectID); err != nil {
			apperrors.Respond(c, err)
			return
		}

		c.JSON(http.StatusOK, MessageResponse{Message: "account deleted", Success: true})
	}
}

// AdminVerifyEmail godoc
// @Summary Mark an account's email as verified
// @Description Flips the verified flag at the identity provider and reconciles the local profile
// @Tags auth
// @Produce json
// @Param email path string true "Account email"
// @Success 200 {object} MessageResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /api/v1/auth/admin/verify-email/{email} [post]
// @Security BearerAuth
func AdminVerifyEmail(svc *authn.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		email := c.Param("email")

		if err := svc.AdminVerifyEmail(c.Request.Context(), email); err != nil {
			apperrors.Respond(c, err)
			return
		}

		c.JSON(http.StatusOK, MessageResponse{Message: "email verified", Success: true})
	}
}

// ActionCallback godoc
// @Summary Handle email action links from the identity provider
// @Description Landing page for verification and password reset links. Completes
// verification in place or serves the reset form, redirecting when configured.
// @Tags auth
// @Produce html
// @Param mode query string true "Action mode" Enums(verifyEmail, resetPassword)
// @Param oobCode query string true "One-time action code"
// @Success 200 {string} string "HTML page"
// @Failure 400 {string} string "HTML error page"
// @Router /api/v1/auth/verify-email-callback [get]
func ActionCallback(svc *authn.Service, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		mode := c.Query("mode")
		oobCode := c.Query("oobCode")

		if oobCode == "" {
			renderErrorPage(c, http.StatusBadRequest, "the action link is missing its code")
			return
		}

		switch mode {
		case "verifyEmail":
			email, err := svc.VerifyEmailCallback(c.Request.Context(), oobCode)
			if err != nil {
				logger.Warn("email verification callback failed", "error", err)
				renderErrorPage(c, http.StatusBadRequest, "this verification link is invalid or has expired")
				return
			}
			if cfg.EmailVerificationSuccessURL != "" {
				c.Redirect(http.StatusFound, cfg.EmailVerificationSuccessURL)
				return
			}
			renderVerifiedPage(c, email)

		case "resetPassword":
			if cfg.PasswordResetURL != "" {
				c.Redirect(http.StatusFound, cfg.PasswordResetURL+"?mode=resetPassword&oobCode="+oobCode)
				return
			}
			email, err := svc.ResolveResetCode(c.Request.Context(), oobCode)
			if err != nil {
				logger.Warn("password reset callback failed", "error", err)
				renderErrorPage(c, http.StatusBadRequest, "this reset link is invalid or has expired")
				return
			}
			renderResetFormPage(c, oobCode, email)

		default:
			renderErrorPage(c, http.StatusBadRequest, "unsupported action mode")
		}
	}
}

// ResetPasswordConfirm godoc
// @Summary Complete a password reset started from an email link
// @Tags auth
// @Accept x-www-form-urlencoded
// @Produce html
// @Param oob_code formData string true "One-time action code"
// @Param new_password formData string true "New password"
// @Success 200 {string} string "HTML page"
// @Failure 400 {string} string "HTML error page"
// @Router /api/v1/auth/reset-password-confirm [post]
func ResetPasswordConfirm(svc *authn.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ResetConfirmRequest
		if err := c.ShouldBind(&req); err != nil {
			renderErrorPage(c, http.StatusBadRequest, "the code and a password of at least 6 characters are required")
			return
		}

		if err := svc.ConfirmPasswordReset(c.Request.Context(), req.OobCode, req.NewPassword); err != nil {
			logger.Warn("password reset confirmation failed", "error", err)
			renderErrorPage(c, http.StatusBadRequest, "the reset code is invalid or the password was rejected")
			return
		}

		renderResetSuccessPage(c)
	}
}
