package config

type Config struct {
	DatabaseURL string

	// identity provider settings
	IdentityAPIKey   string
	IdentityBaseURL  string // account operations endpoint
	IdentityTokenURL string // refresh-token exchange endpoint
	IdentityCertsURL string // public signing certificates
	IdentityIssuer   string
	IdentityAudience string

	// callback redirect targets (optional)
	EmailVerificationSuccessURL string
	PasswordResetURL            string

	AllowedOrigins []string
	Environment    string
}
