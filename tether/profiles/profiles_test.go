package profiles

import (
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	apperrors "codeberg.org/tetherlabs/authgw/internal/errors"
)

func TestNormalizeUsername(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Alice", "alice"},
		{"  alice  ", "alice"},
		{"ALICE_42", "alice_42"},
		{"alice", "alice"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeUsername(tt.in))
	}
}

func TestMapConstraintError_UsernameViolation(t *testing.T) {
	err := mapConstraintError(&pgconn.PgError{Code: "23505", ConstraintName: "users_username_key"})

	assert.True(t, apperrors.HasKind(err, apperrors.KindUsernameAlreadyExists))
}

func TestMapConstraintError_EmailViolation(t *testing.T) {
	err := mapConstraintError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

	assert.True(t, apperrors.HasKind(err, apperrors.KindEmailAlreadyExists))
}

func TestMapConstraintError_OtherConstraintPassesThrough(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "users_external_id_key"}

	err := mapConstraintError(pgErr)

	assert.Equal(t, pgErr, err)
}

func TestMapConstraintError_NonUniqueViolationPassesThrough(t *testing.T) {
	plain := fmt.Errorf("connection reset")

	assert.Equal(t, plain, mapConstraintError(plain))

	notNull := &pgconn.PgError{Code: "23502", ConstraintName: "users_username_key"}
	assert.Equal(t, notNull, mapConstraintError(notNull))
}
