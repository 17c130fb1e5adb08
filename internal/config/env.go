package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// loads configuration from environment variables
func LoadEnvironmentVariables() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		_ = err // not an error - production environments may not have .env file
	}

	databaseURL := os.Getenv("DATABASE_URL")
	apiKey := os.Getenv("IDENTITY_API_KEY")
	baseURL := os.Getenv("IDENTITY_BASE_URL")
	tokenURL := os.Getenv("IDENTITY_TOKEN_URL")
	certsURL := os.Getenv("IDENTITY_CERTS_URL")
	issuer := os.Getenv("IDENTITY_ISSUER")
	audience := os.Getenv("IDENTITY_AUDIENCE")
	environment := os.Getenv("ENVIRONMENT")

	if databaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}

	if apiKey == "" {
		return nil, fmt.Errorf("IDENTITY_API_KEY environment variable is required")
	}

	if baseURL == "" {
		return nil, fmt.Errorf("IDENTITY_BASE_URL environment variable is required")
	}

	if tokenURL == "" {
		return nil, fmt.Errorf("IDENTITY_TOKEN_URL environment variable is required")
	}

	if certsURL == "" {
		return nil, fmt.Errorf("IDENTITY_CERTS_URL environment variable is required")
	}

	if issuer == "" {
		return nil, fmt.Errorf("IDENTITY_ISSUER environment variable is required")
	}

	if audience == "" {
		return nil, fmt.Errorf("IDENTITY_AUDIENCE environment variable is required")
	}

	if environment == "" {
		environment = "development"
	}

	return &Config{
		DatabaseURL:                 databaseURL,
		IdentityAPIKey:              apiKey,
		IdentityBaseURL:             strings.TrimRight(baseURL, "/"),
		IdentityTokenURL:            tokenURL,
		IdentityCertsURL:            certsURL,
		IdentityIssuer:              issuer,
		IdentityAudience:            audience,
		EmailVerificationSuccessURL: os.Getenv("EMAIL_VERIFICATION_SUCCESS_URL"),
		PasswordResetURL:            os.Getenv("PASSWORD_RESET_URL"),
		AllowedOrigins:              parseOrigins(os.Getenv("ALLOWED_ORIGINS")),
		Environment:                 environment,
	}, nil
}

// splits a comma-separated origin list, dropping empty entries
func parseOrigins(raw string) []string {
	if raw == "" {
		return []string{"*"}
	}

	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))

	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}

	if len(origins) == 0 {
		return []string{"*"}
	}

	return origins
}
