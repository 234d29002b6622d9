package auth

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/apitienda/store-api/auth/reset"
	apierrors "github.com/apitienda/store-api/internal/errors"
	"github.com/apitienda/store-api/users"
)

// RequestPasswordReset issues a single-use reset token for a verified email
// address, persists it on the user record and in the standalone reset ledger,
// and mails it out. The token is persisted before the send attempt: a send
// failure surfaces as an error but does not roll the token back, so a retry
// of the send is the caller's concern rather than a re-issuance.
func (s *SessionService) RequestPasswordReset(ctx context.Context, userEmail string) error {
	user, err := s.repos.Users.GetByEmail(ctx, userEmail)
	if err != nil {
		if apierrors.Is(err, apierrors.ErrNotFound) {
			return apierrors.Wrapf(apierrors.ErrNotFound, "[SessionService.RequestPasswordReset] no account with that email")
		}
		return errors.Wrap(err, "[SessionService.RequestPasswordReset] users.GetByEmail")
	}

	if !user.EmailVerified {
		return apierrors.Wrapf(apierrors.ErrEmailNotVerified, "[SessionService.RequestPasswordReset] reset requires a verified email")
	}

	tokenStr, err := reset.GenerateToken()
	if err != nil {
		return errors.Wrap(err, "[SessionService.RequestPasswordReset] reset.GenerateToken")
	}
	expiration := s.nowTime().Add(reset.TokenLifetime)

	user.ResetToken = tokenStr
	user.ResetTokenExpiry = &expiration
	if err := s.repos.Users.Update(ctx, user); err != nil {
		return errors.Wrap(err, "[SessionService.RequestPasswordReset] users.Update")
	}

	if err := s.repos.Resets.Insert(ctx, &reset.PasswordResetToken{
		Token:      tokenStr,
		Email:      user.Email,
		UserID:     user.ID,
		Expiration: expiration,
	}); err != nil {
		return errors.Wrap(err, "[SessionService.RequestPasswordReset] resets.Insert")
	}

	if err := s.mailer.SendPasswordReset(ctx, user.Email, tokenStr); err != nil {
		return apierrors.Wrapf(apierrors.ErrInternal, "[SessionService.RequestPasswordReset] send failed: %v", err)
	}

	return nil
}

// ResetPassword redeems a reset token. The standalone ledger row and the live
// expiration on the user record are both checked; the user record's reset
// fields are the canonical consumption signal, so a replayed token fails even
// though the ledger row is never deleted.
func (s *SessionService) ResetPassword(ctx context.Context, tokenStr, newPassword string) error {
	row, err := s.repos.Resets.Get(ctx, tokenStr)
	if err != nil {
		if apierrors.Is(err, apierrors.ErrNotFound) {
			return apierrors.Wrapf(apierrors.ErrNotFound, "[SessionService.ResetPassword] unknown reset token")
		}
		return errors.Wrap(err, "[SessionService.ResetPassword] resets.Get")
	}

	now := s.nowTime()
	if now.After(row.Expiration) {
		return apierrors.Wrapf(apierrors.ErrNotFound, "[SessionService.ResetPassword] reset token expired")
	}

	user, err := s.repos.Users.GetByEmail(ctx, row.Email)
	if err != nil {
		if apierrors.Is(err, apierrors.ErrNotFound) {
			return apierrors.Wrapf(apierrors.ErrNotFound, "[SessionService.ResetPassword] user no longer exists")
		}
		return errors.Wrap(err, "[SessionService.ResetPassword] users.GetByEmail")
	}

	// The live fields guard replay: once cleared (or replaced by a newer
	// request), the presented token no longer matches.
	if user.ResetToken != tokenStr || user.ResetTokenExpiry == nil || now.After(*user.ResetTokenExpiry) {
		return apierrors.Wrapf(apierrors.ErrNotFound, "[SessionService.ResetPassword] reset token consumed or expired")
	}

	if err := users.ValidatePasswordStrength(newPassword); err != nil {
		return apierrors.Wrapf(apierrors.ErrWeakPassword, "[SessionService.ResetPassword] %v", err)
	}

	hashed, err := users.HashPassword(newPassword)
	if err != nil {
		return errors.Wrap(err, "[SessionService.ResetPassword] users.HashPassword")
	}

	user.PasswordHash = hashed
	user.ResetToken = ""
	user.ResetTokenExpiry = nil
	if err := s.repos.Users.Update(ctx, user); err != nil {
		return errors.Wrap(err, "[SessionService.ResetPassword] users.Update")
	}

	return nil
}

// ChangePassword updates an authenticated user's password. The current
// password must verify (legacy plaintext rows are migrated first), the new
// password must differ from the current one, meet the strength rules, and
// match its confirmation. Any violation leaves the stored hash unchanged.
func (s *SessionService) ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword, confirmPassword string) error {
	user, err := s.repos.Users.GetByID(ctx, userID)
	if err != nil {
		if apierrors.Is(err, apierrors.ErrNotFound) {
			return apierrors.Wrapf(apierrors.ErrNotFound, "[SessionService.ChangePassword] user not found")
		}
		return errors.Wrap(err, "[SessionService.ChangePassword] users.GetByID")
	}

	if err := s.migrateLegacyPassword(ctx, user); err != nil {
		return err
	}

	if !users.CheckPasswordHash(currentPassword, user.PasswordHash) {
		return apierrors.Wrapf(apierrors.ErrBadRequest, "[SessionService.ChangePassword] current password is incorrect")
	}

	if newPassword == currentPassword {
		return apierrors.Wrapf(apierrors.ErrPasswordReused, "[SessionService.ChangePassword] new password must differ")
	}

	if err := users.ValidatePasswordStrength(newPassword); err != nil {
		return apierrors.Wrapf(apierrors.ErrWeakPassword, "[SessionService.ChangePassword] %v", err)
	}

	if newPassword != confirmPassword {
		return apierrors.Wrapf(apierrors.ErrBadRequest, "[SessionService.ChangePassword] confirmation does not match")
	}

	hashed, err := users.HashPassword(newPassword)
	if err != nil {
		return errors.Wrap(err, "[SessionService.ChangePassword] users.HashPassword")
	}

	user.PasswordHash = hashed
	if err := s.repos.Users.Update(ctx, user); err != nil {
		return errors.Wrap(err, "[SessionService.ChangePassword] users.Update")
	}

	return nil
}
