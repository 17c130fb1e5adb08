package authn

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/tetherlabs/authgw/internal/identity"
	"codeberg.org/tetherlabs/authgw/tether/profiles"
)

func TestReconcile_RepairsDrift(t *testing.T) {
	id := &fakeIdentity{
		getUserFunc: func(_ context.Context, subjectID string) (*identity.UserRecord, error) {
			return &identity.UserRecord{SubjectID: subjectID, EmailVerified: true}, nil
		},
	}
	store := newFakeStore()
	_, err := store.Create(context.Background(), profiles.CreateParams{Username: "user", Email: "user@example.com", ExternalID: "ext-1"})
	require.NoError(t, err)

	svc := newTestService(id, store, nil)

	verified, err := svc.Reconcile(context.Background(), "ext-1")

	require.NoError(t, err)
	assert.True(t, verified)

	p, err := store.FindByExternalID(context.Background(), "ext-1")
	require.NoError(t, err)
	assert.True(t, p.EmailVerified)
	assert.Equal(t, 1, store.writes)
}

func TestReconcile_NoWriteWhenUnchanged(t *testing.T) {
	id := &fakeIdentity{
		getUserFunc: func(_ context.Context, subjectID string) (*identity.UserRecord, error) {
			return &identity.UserRecord{SubjectID: subjectID, EmailVerified: true}, nil
		},
	}
	store := newFakeStore()
	_, err := store.Create(context.Background(), profiles.CreateParams{Username: "user", Email: "user@example.com", ExternalID: "ext-1"})
	require.NoError(t, err)
	require.NoError(t, store.SetEmailVerified(context.Background(), "ext-1", true))
	writesAfterSetup := store.writes

	svc := newTestService(id, store, nil)

	// repeated syncs with no provider-side change must be write-free
	for range 3 {
		verified, err := svc.Reconcile(context.Background(), "ext-1")
		require.NoError(t, err)
		assert.True(t, verified)
	}

	assert.Equal(t, writesAfterSetup, store.writes)
}

func TestReconcile_MissingLocalRecordReturnsProviderValue(t *testing.T) {
	id := &fakeIdentity{
		getUserFunc: func(_ context.Context, subjectID string) (*identity.UserRecord, error) {
			return &identity.UserRecord{SubjectID: subjectID, EmailVerified: true}, nil
		},
	}

	svc := newTestService(id, newFakeStore(), nil)

	verified, err := svc.Reconcile(context.Background(), "ext-1")

	require.NoError(t, err)
	assert.True(t, verified)
}

func TestReconcile_ProviderFailure(t *testing.T) {
	id := &fakeIdentity{
		getUserFunc: func(_ context.Context, _ string) (*identity.UserRecord, error) {
			return nil, fmt.Errorf("provider timeout")
		},
	}

	svc := newTestService(id, newFakeStore(), nil)

	_, err := svc.Reconcile(context.Background(), "ext-1")

	assert.Error(t, err)
}

func TestReconcile_UnverifyingDriftIsAlsoRepaired(t *testing.T) {
	id := &fakeIdentity{
		getUserFunc: func(_ context.Context, subjectID string) (*identity.UserRecord, error) {
			return &identity.UserRecord{SubjectID: subjectID, EmailVerified: false}, nil
		},
	}
	store := newFakeStore()
	_, err := store.Create(context.Background(), profiles.CreateParams{Username: "user", Email: "user@example.com", ExternalID: "ext-1"})
	require.NoError(t, err)
	require.NoError(t, store.SetEmailVerified(context.Background(), "ext-1", true))

	svc := newTestService(id, store, nil)

	verified, err := svc.Reconcile(context.Background(), "ext-1")

	require.NoError(t, err)
	assert.False(t, verified)

	p, err := store.FindByExternalID(context.Background(), "ext-1")
	require.NoError(t, err)
	assert.False(t, p.EmailVerified, "the provider is authoritative in both directions")
}
