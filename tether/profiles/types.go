package profiles

import (
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// handles user profile database operations
type Repository struct {
	db *pgxpool.Pool
}

// Profile is the locally mirrored subset of a remote identity record.
// ExternalID is the opaque join key issued by the identity provider and
// never changes once set.
type Profile struct {
	ID            string     `json:"id"`
	Username      string     `json:"username"`
	Email         string     `json:"email"`
	ExternalID    string     `json:"external_id"`
	FirstName     string     `json:"first_name"`
	LastName      string     `json:"last_name"`
	EmailVerified bool       `json:"email_verified"`
	IsActive      bool       `json:"is_active"`
	CreatedAt     time.Time  `json:"created_at"`
	LastLogin     *time.Time `json:"last_login,omitempty"`
}

// contains data for creating a profile record
type CreateParams struct {
	Username   string
	Email      string
	ExternalID string
	FirstName  string
	LastName   string
}
