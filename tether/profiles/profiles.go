package profiles

import (
	"context"
	"errors"
	"strings"

	apperrors "codeberg.org/tetherlabs/authgw/internal/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// postgres unique_violation
const uniqueViolationCode = "23505"

// creates a new profile repository
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// inserts a new profile record. The unique indexes on username, email and
// external_id are the concurrency backstop for duplicate registrations: the
// insert fails atomically before any further side effect.
func (r *Repository) Create(ctx context.Context, params CreateParams) (*Profile, error) {
	row := r.db.QueryRow(
		ctx,
		queryCreate,
		NormalizeUsername(params.Username),
		params.Email,
		params.ExternalID,
		params.FirstName,
		params.LastName,
	)

	profile, err := scanProfile(row)
	if err != nil {
		return nil, mapConstraintError(err)
	}

	return profile, nil
}

// finds a profile by its case-normalized username
func (r *Repository) FindByUsername(ctx context.Context, username string) (*Profile, error) {
	return r.findOne(ctx, queryFindByUsername, NormalizeUsername(username))
}

// finds a profile by email
func (r *Repository) FindByEmail(ctx context.Context, email string) (*Profile, error) {
	return r.findOne(ctx, queryFindByEmail, email)
}

// finds a profile by the provider-issued external id
func (r *Repository) FindByExternalID(ctx context.Context, externalID string) (*Profile, error) {
	return r.findOne(ctx, queryFindByExternalID, externalID)
}

// stamps the last successful authentication time
func (r *Repository) UpdateLastLogin(ctx context.Context, email string) error {
	_, err := r.db.Exec(ctx, queryUpdateLastLogin, email)
	return err
}

// overwrites the local verified flag for a subject
func (r *Repository) SetEmailVerified(ctx context.Context, externalID string, verified bool) error {
	_, err := r.db.Exec(ctx, querySetEmailVerified, verified, externalID)
	return err
}

// overwrites the local verified flag by email (callback flows resolve the
// account by email, not subject id)
func (r *Repository) SetEmailVerifiedByEmail(ctx context.Context, email string, verified bool) error {
	_, err := r.db.Exec(ctx, querySetEmailVerifiedByEmail, verified, email)
	return err
}

// removes the local record. Deleting an absent record is not an error; the
// remote account is the authoritative half of deletion.
func (r *Repository) Delete(ctx context.Context, externalID string) error {
	_, err := r.db.Exec(ctx, queryDeleteByExternalID, externalID)
	return err
}

func (r *Repository) findOne(ctx context.Context, query string, arg any) (*Profile, error) {
	profile, err := scanProfile(r.db.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.UserNotFoundLocally()
		}

		return nil, err
	}

	return profile, nil
}

func scanProfile(row pgx.Row) (*Profile, error) {
	var profile Profile

	err := row.Scan(
		&profile.ID,
		&profile.Username,
		&profile.Email,
		&profile.ExternalID,
		&profile.FirstName,
		&profile.LastName,
		&profile.EmailVerified,
		&profile.IsActive,
		&profile.CreatedAt,
		&profile.LastLogin,
	)

	if err != nil {
		return nil, err
	}

	return &profile, nil
}

// translates unique-constraint violations into the validation taxonomy
func mapConstraintError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolationCode {
		return err
	}

	switch {
	case strings.Contains(pgErr.ConstraintName, "username"):
		return apperrors.UsernameAlreadyExists()
	case strings.Contains(pgErr.ConstraintName, "email"):
		return apperrors.EmailAlreadyExists()
	default:
		return err
	}
}

// lowercases and trims a username; uniqueness is case-insensitive
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}
