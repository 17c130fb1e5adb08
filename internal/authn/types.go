package authn

import (
	"context"
	"time"

	"codeberg.org/tetherlabs/authgw/internal/identity"
	"codeberg.org/tetherlabs/authgw/tether/profiles"
)

// IdentityAPI is the subset of identity provider operations used by the
// authentication workflows
type IdentityAPI interface {
	SignUp(ctx context.Context, email, password string) (*identity.Session, error)
	SignInWithPassword(ctx context.Context, email, password string) (*identity.Session, error)
	RefreshToken(ctx context.Context, refreshToken string) (*identity.Session, error)
	SendOobCode(ctx context.Context, kind identity.OobKind, target string) error
	VerifyOobCode(ctx context.Context, oobCode string) (string, error)
	ConfirmPasswordReset(ctx context.Context, oobCode, newPassword string) error
	ConfirmEmailVerification(ctx context.Context, oobCode string) error
	ChangePassword(ctx context.Context, idToken, newPassword string) error
	GetUser(ctx context.Context, subjectID string) (*identity.UserRecord, error)
	UpdateUser(ctx context.Context, subjectID string, params identity.UpdateUserParams) error
	DeleteUser(ctx context.Context, subjectID string) error
}

// ProfileStore is the local record store consumed by the workflows
type ProfileStore interface {
	Create(ctx context.Context, params profiles.CreateParams) (*profiles.Profile, error)
	FindByUsername(ctx context.Context, username string) (*profiles.Profile, error)
	FindByEmail(ctx context.Context, email string) (*profiles.Profile, error)
	FindByExternalID(ctx context.Context, externalID string) (*profiles.Profile, error)
	UpdateLastLogin(ctx context.Context, email string) error
	SetEmailVerified(ctx context.Context, externalID string, verified bool) error
	SetEmailVerifiedByEmail(ctx context.Context, email string, verified bool) error
	Delete(ctx context.Context, externalID string) error
}

// TokenVerifier validates a bearer token into verified claims
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*identity.Claims, error)
}

// Service composes the identity provider, the local profile store and the
// claims verifier into the authentication workflows
type Service struct {
	identity IdentityAPI
	profiles ProfileStore
	verifier TokenVerifier
}

// Session is the token bundle returned by registration, login and refresh.
// Never stored server-side.
type Session struct {
	AccessToken   string `json:"access_token"`
	RefreshToken  string `json:"refresh_token"`
	ExpiresIn     int64  `json:"expires_in"`
	SubjectID     string `json:"subject_id"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
}

// contains data for the registration workflow
type RegisterParams struct {
	Email     string
	Password  string
	Username  string
	FirstName string
	LastName  string
}

// UserProfile merges the provider's authoritative record with the locally
// mirrored profile data. Email and verification state come from the provider;
// the rest from the local record.
type UserProfile struct {
	SubjectID     string     `json:"subject_id"`
	Email         string     `json:"email"`
	Username      string     `json:"username"`
	FirstName     string     `json:"first_name"`
	LastName      string     `json:"last_name"`
	EmailVerified bool       `json:"email_verified"`
	IsActive      bool       `json:"is_active"`
	CreatedAt     time.Time  `json:"created_at"`
	LastLogin     *time.Time `json:"last_login,omitempty"`
}
