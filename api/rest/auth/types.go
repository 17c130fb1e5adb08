package auth

// RegisterRequest for creating a new account
type RegisterRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=6"`
	Username  string `json:"username" binding:"required,min=3,max=30"`
	FirstName string `json:"first_name" binding:"required,max=100"`
	LastName  string `json:"last_name" binding:"required,max=100"`
}

// LoginRequest for password authentication
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest for exchanging a refresh token
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// PasswordResetRequest for requesting a reset email
type PasswordResetRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// PasswordUpdateRequest for changing the password of an authenticated caller
type PasswordUpdateRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=6"`
}

// ResetConfirmRequest is the reset form submission (phase 2 of the callback)
type ResetConfirmRequest struct {
	OobCode     string `form:"oob_code" binding:"required"`
	NewPassword string `form:"new_password" binding:"required,min=6"`
}

// MessageResponse for simple success messages
type MessageResponse struct {
	Message string `json:"message"`
	Success bool   `json:"success"`
}

// VerificationStatusResponse for the explicit sync endpoint
type VerificationStatusResponse struct {
	Verified bool `json:"verified"`
}

// TokenStatusResponse echoes the verified claims of a valid token
type TokenStatusResponse struct {
	Valid         bool           `json:"valid"`
	SubjectID     string         `json:"subject_id"`
	Email         string         `json:"email"`
	EmailVerified bool           `json:"email_verified"`
	Claims        map[string]any `json:"claims"`
}
