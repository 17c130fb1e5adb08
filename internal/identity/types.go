package identity

import "time"

// Session is a provider-issued token bundle returned by sign-in, sign-up,
// custom-token exchange and refresh. Never stored server-side.
type Session struct {
	IDToken      string
	RefreshToken string
	ExpiresIn    int64 // seconds until the ID token expires
	SubjectID    string
	Email        string
}

// UserRecord is the provider's authoritative view of an account
type UserRecord struct {
	SubjectID     string
	Email         string
	EmailVerified bool
	DisplayName   string
	Disabled      bool
}

// Claims are the decoded, verified assertions from a bearer token. The
// verification flag reflects the token at issue time and may be stale
// relative to the provider's live record.
type Claims struct {
	SubjectID     string
	Email         string
	EmailVerified bool
	ExpiresAt     time.Time
	Extra         map[string]any // provider-defined fields, passed through opaquely
}

// OobKind selects the action authorized by a one-time code
type OobKind string

const (
	OobPasswordReset OobKind = "PASSWORD_RESET"
	OobVerifyEmail   OobKind = "VERIFY_EMAIL"
)

// UpdateUserParams carries the mutable provider-side account fields
type UpdateUserParams struct {
	EmailVerified *bool
	DisplayName   string
}

// wire payloads for the provider's REST surface

type signInRequest struct {
	Email             string `json:"email,omitempty"`
	Password          string `json:"password,omitempty"`
	Token             string `json:"token,omitempty"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type signInResponse struct {
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"`
	LocalID      string `json:"localId"`
	Email        string `json:"email"`
}

type refreshRequest struct {
	GrantType    string `json:"grant_type"`
	RefreshToken string `json:"refresh_token"`
}

type refreshResponse struct {
	IDToken      string `json:"id_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    string `json:"expires_in"`
	UserID       string `json:"user_id"`
}

type oobCodeRequest struct {
	RequestType string `json:"requestType"`
	Email       string `json:"email,omitempty"`
	IDToken     string `json:"idToken,omitempty"`
}

type resetPasswordRequest struct {
	OobCode     string `json:"oobCode"`
	NewPassword string `json:"newPassword,omitempty"`
}

type resetPasswordResponse struct {
	Email string `json:"email"`
}

type updateRequest struct {
	IDToken           string `json:"idToken,omitempty"`
	LocalID           string `json:"localId,omitempty"`
	OobCode           string `json:"oobCode,omitempty"`
	Password          string `json:"password,omitempty"`
	DisplayName       string `json:"displayName,omitempty"`
	EmailVerified     *bool  `json:"emailVerified,omitempty"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type lookupRequest struct {
	LocalID []string `json:"localId"`
}

type lookupResponse struct {
	Users []struct {
		LocalID       string `json:"localId"`
		Email         string `json:"email"`
		EmailVerified bool   `json:"emailVerified"`
		DisplayName   string `json:"displayName"`
		Disabled      bool   `json:"disabled"`
	} `json:"users"`
}

type deleteRequest struct {
	LocalID string `json:"localId"`
}

type errorEnvelope struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}
