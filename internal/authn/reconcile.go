package authn

import (
	"context"
	"fmt"

	apperrors "codeberg.org/tetherlabs/authgw/internal/errors"
	"codeberg.org/tetherlabs/authgw/internal/logger"
	"codeberg.org/tetherlabs/authgw/internal/metrics"
)

// Reconcile fetches the provider's authoritative verified flag for a subject
// and repairs local drift, returning the authoritative value. The local
// record is only written when it actually differs, so repeated calls with no
// provider-side change are write-free.
//
// Callers on the authenticated-request path must acknowledge the error and
// only ever log it: a failed sync never fails the caller's primary operation.
func (s *Service) Reconcile(ctx context.Context, subjectID string) (bool, error) {
	record, err := s.identity.GetUser(ctx, subjectID)
	if err != nil {
		metrics.RecordVerificationSync("error")
		return false, fmt.Errorf("provider lookup: %w", err)
	}

	profile, err := s.profiles.FindByExternalID(ctx, subjectID)
	if err != nil {
		if apperrors.HasKind(err, apperrors.KindUserNotFoundLocally) {
			// nothing to repair without a local record; the provider value
			// still answers the caller's question
			logger.Warn("no local record during verification sync", "subject_id", subjectID)
			metrics.RecordVerificationSync("missing_local")
			return record.EmailVerified, nil
		}

		metrics.RecordVerificationSync("error")
		return false, fmt.Errorf("local lookup: %w", err)
	}

	if profile.EmailVerified == record.EmailVerified {
		metrics.RecordVerificationSync("unchanged")
		return record.EmailVerified, nil
	}

	if err := s.profiles.SetEmailVerified(ctx, subjectID, record.EmailVerified); err != nil {
		metrics.RecordVerificationSync("error")
		return false, fmt.Errorf("local update: %w", err)
	}

	logger.Info("synced email verification status",
		"subject_id", subjectID,
		"verified", record.EmailVerified,
	)
	metrics.RecordVerificationSync("synced")

	return record.EmailVerified, nil
}
