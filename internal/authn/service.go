package authn

import (
	"context"
	"fmt"

	apperrors "codeberg.org/tetherlabs/authgw/internal/errors"
	"codeberg.org/tetherlabs/authgw/internal/identity"
	"codeberg.org/tetherlabs/authgw/internal/logger"
	"codeberg.org/tetherlabs/authgw/internal/metrics"
	"codeberg.org/tetherlabs/authgw/tether/profiles"
)

// creates a new authentication service
func NewService(identityAPI IdentityAPI, store ProfileStore, verifier TokenVerifier) *Service {
	return &Service{
		identity: identityAPI,
		profiles: store,
		verifier: verifier,
	}
}

// Register creates a remote account and the local mirror record, then
// exchanges the fresh credentials for a session. If local persistence fails
// after the remote account exists, the remote account is deleted as a
// compensating action and the original failure is reported. A freshly created
// account is never reported as verified.
func (s *Service) Register(ctx context.Context, params RegisterParams) (session *Session, err error) {
	defer func() { metrics.RecordAuthOperation("register", err) }()

	// local-store-first uniqueness check, cheap compared to the remote call
	_, err = s.profiles.FindByUsername(ctx, params.Username)
	if err == nil {
		return nil, apperrors.UsernameAlreadyExists()
	}

	if !apperrors.HasKind(err, apperrors.KindUserNotFoundLocally) {
		return nil, apperrors.RegistrationFailed(err)
	}

	remote, err := s.identity.SignUp(ctx, params.Email, params.Password)
	if err != nil {
		return nil, classifyOr(err, apperrors.RegistrationFailed)
	}

	_, err = s.profiles.Create(ctx, profiles.CreateParams{
		Username:   params.Username,
		Email:      params.Email,
		ExternalID: remote.SubjectID,
		FirstName:  params.FirstName,
		LastName:   params.LastName,
	})

	if err != nil {
		// the remote account exists but the local half does not; undo the
		// remote side effect and report the original failure
		s.compensateRemoteAccount(ctx, remote.SubjectID)
		return nil, classifyOr(err, apperrors.RegistrationFailed)
	}

	providerSession, err := s.identity.SignInWithPassword(ctx, params.Email, params.Password)
	if err != nil {
		s.compensateRemoteAccount(ctx, remote.SubjectID)
		s.compensateLocalRecord(ctx, remote.SubjectID)
		return nil, apperrors.RegistrationFailed(err)
	}

	// non-critical side effect: a failed verification email never fails registration
	if err := s.identity.SendOobCode(ctx, identity.OobVerifyEmail, providerSession.IDToken); err != nil {
		logger.Warn("failed to send verification email during registration",
			"subject_id", remote.SubjectID,
			"error", err,
		)
	}

	return &Session{
		AccessToken:   providerSession.IDToken,
		RefreshToken:  providerSession.RefreshToken,
		ExpiresIn:     providerSession.ExpiresIn,
		SubjectID:     providerSession.SubjectID,
		Email:         providerSession.Email,
		EmailVerified: false, // new accounts are never trusted as verified at creation
	}, nil
}

// Login authenticates with email and password. The verification flag in the
// response reflects the reconciled provider state, not the sign-in response,
// which can be stale relative to a verification performed moments earlier.
func (s *Service) Login(ctx context.Context, email, password string) (session *Session, err error) {
	defer func() { metrics.RecordAuthOperation("login", err) }()

	providerSession, err := s.identity.SignInWithPassword(ctx, email, password)
	if err != nil {
		return nil, classifyOr(err, apperrors.LoginFailed)
	}

	// best-effort, login does not fail on a missed timestamp
	if err := s.profiles.UpdateLastLogin(ctx, email); err != nil {
		logger.ErrorErr(err, "failed to update last login", "email", email)
	}

	verified, syncErr := s.Reconcile(ctx, providerSession.SubjectID)
	if syncErr != nil {
		logger.ErrorErr(syncErr, "verification sync failed during login", "subject_id", providerSession.SubjectID)
		verified = s.lastKnownVerified(ctx, providerSession.SubjectID)
	}

	return &Session{
		AccessToken:   providerSession.IDToken,
		RefreshToken:  providerSession.RefreshToken,
		ExpiresIn:     providerSession.ExpiresIn,
		SubjectID:     providerSession.SubjectID,
		Email:         providerSession.Email,
		EmailVerified: verified,
	}, nil
}

// Refresh exchanges a refresh token for a new session. The new ID token is
// re-verified through the claims verifier before its claims are trusted;
// the refresh endpoint's raw response is never trusted on its own.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (session *Session, err error) {
	defer func() { metrics.RecordAuthOperation("refresh", err) }()

	if refreshToken == "" {
		return nil, apperrors.InvalidRefreshToken()
	}

	providerSession, err := s.identity.RefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, classifyOr(err, apperrors.TokenRefreshFailed)
	}

	claims, err := s.verifier.Verify(ctx, providerSession.IDToken)
	if err != nil {
		return nil, classifyOr(err, apperrors.TokenRefreshFailed)
	}

	return &Session{
		AccessToken:   providerSession.IDToken,
		RefreshToken:  providerSession.RefreshToken,
		ExpiresIn:     providerSession.ExpiresIn,
		SubjectID:     claims.SubjectID,
		Email:         claims.Email,
		EmailVerified: claims.EmailVerified,
	}, nil
}

// VerifyToken validates a bearer token and returns its claims
func (s *Service) VerifyToken(ctx context.Context, token string) (*identity.Claims, error) {
	return s.verifier.Verify(ctx, token)
}

// SendPasswordReset emails a reset link to the account
func (s *Service) SendPasswordReset(ctx context.Context, email string) (err error) {
	defer func() { metrics.RecordAuthOperation("password_reset", err) }()

	if err := s.identity.SendOobCode(ctx, identity.OobPasswordReset, email); err != nil {
		return classifyOr(err, func(e error) *apperrors.Error { return apperrors.PasswordResetFailed(e.Error()) })
	}

	return nil
}

// SendVerificationEmail emails a verification link to the authenticated caller
func (s *Service) SendVerificationEmail(ctx context.Context, idToken string) error {
	if err := s.identity.SendOobCode(ctx, identity.OobVerifyEmail, idToken); err != nil {
		return classifyOr(err, func(e error) *apperrors.Error { return apperrors.EmailVerificationFailed(e.Error()) })
	}

	return nil
}

// UpdatePassword re-verifies the current password by performing a full
// sign-in, then changes the password using the caller's token. Re-auth
// failure is always reported as invalid_password, regardless of the
// underlying sign-in failure kind.
func (s *Service) UpdatePassword(ctx context.Context, subjectID, idToken, currentPassword, newPassword string) (err error) {
	defer func() { metrics.RecordAuthOperation("password_update", err) }()

	profile, err := s.profiles.FindByExternalID(ctx, subjectID)
	if err != nil {
		return classifyOr(err, apperrors.PasswordUpdateFailed)
	}

	if _, err := s.identity.SignInWithPassword(ctx, profile.Email, currentPassword); err != nil {
		return apperrors.InvalidPassword("current password is incorrect")
	}

	if err := s.identity.ChangePassword(ctx, idToken, newPassword); err != nil {
		return classifyOr(err, apperrors.PasswordUpdateFailed)
	}

	return nil
}

// CurrentUser merges the provider's authoritative record with the local
// profile for a subject
func (s *Service) CurrentUser(ctx context.Context, subjectID string) (*UserProfile, error) {
	record, err := s.identity.GetUser(ctx, subjectID)
	if err != nil {
		return nil, classifyOr(err, apperrors.UserRetrievalFailed)
	}

	profile, err := s.profiles.FindByExternalID(ctx, subjectID)
	if err != nil {
		return nil, classifyOr(err, apperrors.UserRetrievalFailed)
	}

	return &UserProfile{
		SubjectID:     record.SubjectID,
		Email:         record.Email,
		Username:      profile.Username,
		FirstName:     profile.FirstName,
		LastName:      profile.LastName,
		EmailVerified: record.EmailVerified,
		IsActive:      profile.IsActive,
		CreatedAt:     profile.CreatedAt,
		LastLogin:     profile.LastLogin,
	}, nil
}

// DeleteAccount removes the remote account first, then the local record.
// An absent local record is not an error; remote deletion already succeeded.
func (s *Service) DeleteAccount(ctx context.Context, subjectID string) (err error) {
	defer func() { metrics.RecordAuthOperation("delete_account", err) }()

	if err := s.identity.DeleteUser(ctx, subjectID); err != nil {
		return classifyOr(err, apperrors.UserDeletionFailed)
	}

	if err := s.profiles.Delete(ctx, subjectID); err != nil {
		return apperrors.UserDeletionFailed(err)
	}

	return nil
}

// VerifyEmailCallback resolves and consumes an email-verification code,
// flips the provider-side flag, then mirrors it locally. A missing local
// record is logged and still reported as success: the provider-side state is
// authoritative and already corrected.
func (s *Service) VerifyEmailCallback(ctx context.Context, oobCode string) (string, error) {
	email, err := s.identity.VerifyOobCode(ctx, oobCode)
	if err != nil {
		return "", err
	}

	if err := s.identity.ConfirmEmailVerification(ctx, oobCode); err != nil {
		return "", err
	}

	if _, err := s.profiles.FindByEmail(ctx, email); err != nil {
		if apperrors.HasKind(err, apperrors.KindUserNotFoundLocally) {
			logger.Warn("local record missing during verification callback", "email", email)
			return email, nil
		}

		return "", fmt.Errorf("local lookup: %w", err)
	}

	if err := s.profiles.SetEmailVerifiedByEmail(ctx, email, true); err != nil {
		return "", fmt.Errorf("failed to update local verification flag: %w", err)
	}

	return email, nil
}

// ResolveResetCode resolves a password-reset code to the email it was issued
// for, without consuming it (phase 1 of the reset callback)
func (s *Service) ResolveResetCode(ctx context.Context, oobCode string) (string, error) {
	return s.identity.VerifyOobCode(ctx, oobCode)
}

// ConfirmPasswordReset consumes the single-use code and sets the new
// password (phase 2 of the reset callback)
func (s *Service) ConfirmPasswordReset(ctx context.Context, oobCode, newPassword string) error {
	return s.identity.ConfirmPasswordReset(ctx, oobCode, newPassword)
}

// AdminVerifyEmail marks the account verified at the provider and syncs the
// local record. Development and testing surface.
func (s *Service) AdminVerifyEmail(ctx context.Context, email string) error {
	profile, err := s.profiles.FindByEmail(ctx, email)
	if err != nil {
		return classifyOr(err, apperrors.UserRetrievalFailed)
	}

	verified := true
	if err := s.identity.UpdateUser(ctx, profile.ExternalID, identity.UpdateUserParams{EmailVerified: &verified}); err != nil {
		return classifyOr(err, func(e error) *apperrors.Error { return apperrors.EmailVerificationFailed(e.Error()) })
	}

	if _, err := s.Reconcile(ctx, profile.ExternalID); err != nil {
		logger.ErrorErr(err, "verification sync failed after admin verify", "email", email)
	}

	return nil
}

// best-effort rollback of a remote account; failure is logged, never surfaced
func (s *Service) compensateRemoteAccount(ctx context.Context, subjectID string) {
	if err := s.identity.DeleteUser(ctx, subjectID); err != nil {
		logger.ErrorErr(err, "failed to roll back remote account", "subject_id", subjectID)
	}
}

// best-effort rollback of the local record; failure is logged, never surfaced
func (s *Service) compensateLocalRecord(ctx context.Context, subjectID string) {
	if err := s.profiles.Delete(ctx, subjectID); err != nil {
		logger.ErrorErr(err, "failed to roll back local record", "subject_id", subjectID)
	}
}

// last-known local verification state, false when no record exists
func (s *Service) lastKnownVerified(ctx context.Context, subjectID string) bool {
	profile, err := s.profiles.FindByExternalID(ctx, subjectID)
	if err != nil {
		return false
	}

	return profile.EmailVerified
}

// passes classified errors through verbatim, wrapping everything else
func classifyOr(err error, wrap func(error) *apperrors.Error) error {
	if _, ok := apperrors.As(err); ok {
		return err
	}

	return wrap(err)
}
