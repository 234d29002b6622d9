package auth

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/apitienda/store-api/auth/reset"
	"github.com/apitienda/store-api/email"
	apierrors "github.com/apitienda/store-api/internal/errors"
	"github.com/apitienda/store-api/token"
	"github.com/apitienda/store-api/token/ledger"
	"github.com/apitienda/store-api/users"
)

// Repos holds all repository dependencies for the SessionService
type Repos struct {
	Users  users.Repo  // Repository for user records
	Ledger ledger.Repo // Repository for refresh token records
	Resets reset.Repo  // Repository for password-reset tokens
}

// SessionService orchestrates the authentication session lifecycle: login,
// refresh-token rotation, logout, and the password-reset flow.
type SessionService struct {
	repos   Repos
	ledger  *ledger.Ledger
	issuer  *token.Issuer
	mailer  email.Sender
	nowTime func() time.Time // nowTime function (injectable for testing)
}

// SessionServiceOption defines a function type to modify the SessionService instance.
type SessionServiceOption func(*SessionService)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) SessionServiceOption {
	return func(s *SessionService) {
		s.nowTime = nowFunc
	}
}

// NewSessionService initializes a new SessionService with required
// dependencies. Optional configuration can be provided via options.
func NewSessionService(
	repos Repos,
	issuer *token.Issuer,
	mailer email.Sender,
	options ...SessionServiceOption,
) (*SessionService, error) {
	if repos.Users == nil {
		return nil, errors.New("[NewSessionService] Users repo is required")
	}
	if repos.Ledger == nil {
		return nil, errors.New("[NewSessionService] Ledger repo is required")
	}
	if repos.Resets == nil {
		return nil, errors.New("[NewSessionService] Resets repo is required")
	}
	if issuer == nil {
		return nil, errors.New("[NewSessionService] issuer is required")
	}
	if mailer == nil {
		return nil, errors.New("[NewSessionService] mailer is required")
	}

	service := &SessionService{
		repos:   repos,
		issuer:  issuer,
		mailer:  mailer,
		nowTime: time.Now,
	}

	for _, opt := range options {
		opt(service)
	}

	service.ledger = ledger.NewLedger(repos.Ledger, ledger.WithNowTime(service.nowTime))

	return service, nil
}

// Login verifies credentials, issues a fresh access/refresh pair, and
// records the refresh token in the ledger as "issued".
func (s *SessionService) Login(ctx context.Context, userEmail, password string) (*token.Pair, error) {
	user, err := s.verifyCredentials(ctx, userEmail, password)
	if err != nil {
		return nil, err
	}

	pair, err := s.issuer.IssuePair(user)
	if err != nil {
		return nil, errors.Wrap(err, "[SessionService.Login] issuer.IssuePair")
	}

	if err := s.ledger.Record(ctx, pair.RefreshJTI, user.ID, pair.RefreshExpiresAt); err != nil {
		return nil, errors.Wrap(err, "[SessionService.Login] ledger.Record")
	}

	return pair, nil
}

// Refresh exchanges a valid refresh token for a new pair. Rotation is
// one-shot: the presented token's record is revoked with reason "refreshed"
// before the new jti is recorded, and a token can only ever be exchanged
// once. Validation is deliberately double: the JWT's own signature and claims
// AND the ledger record must both pass, with the ledger's expiry clock
// authoritative.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (*token.Pair, error) {
	claims, err := s.issuer.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, apierrors.Wrapf(apierrors.ErrUnauthorized, "[SessionService.Refresh] %v", err)
	}

	rec, err := s.ledger.Lookup(ctx, claims.JTI, claims.UserID)
	if err != nil {
		if apierrors.Is(err, apierrors.ErrNotFound) {
			return nil, apierrors.Wrapf(apierrors.ErrUnauthorized, "[SessionService.Refresh] unknown refresh token")
		}
		return nil, errors.Wrap(err, "[SessionService.Refresh] ledger.Lookup")
	}

	if !s.ledger.IsUsable(rec) {
		return nil, apierrors.Wrapf(apierrors.ErrUnauthorized, "[SessionService.Refresh] refresh token revoked or expired")
	}

	user, err := s.repos.Users.GetByID(ctx, claims.UserID)
	if err != nil {
		if apierrors.Is(err, apierrors.ErrNotFound) {
			return nil, apierrors.Wrapf(apierrors.ErrUnauthorized, "[SessionService.Refresh] user no longer exists")
		}
		return nil, errors.Wrap(err, "[SessionService.Refresh] users.GetByID")
	}

	pair, err := s.issuer.IssuePair(user)
	if err != nil {
		return nil, errors.Wrap(err, "[SessionService.Refresh] issuer.IssuePair")
	}

	if err := s.ledger.Revoke(ctx, rec, ledger.ReasonRefreshed); err != nil {
		if apierrors.Is(err, apierrors.ErrAlreadyRevoked) {
			// Lost a concurrent refresh race on the same token. The winner's
			// pair stands; this caller gets nothing.
			return nil, apierrors.Wrapf(apierrors.ErrUnauthorized, "[SessionService.Refresh] refresh token already exchanged")
		}
		return nil, errors.Wrap(err, "[SessionService.Refresh] ledger.Revoke")
	}

	if err := s.ledger.Record(ctx, pair.RefreshJTI, user.ID, pair.RefreshExpiresAt); err != nil {
		return nil, errors.Wrap(err, "[SessionService.Refresh] ledger.Record")
	}

	return pair, nil
}

// Logout revokes the presented refresh token with reason "logout". A repeat
// logout with the same token is a client error, not a silent no-op.
func (s *SessionService) Logout(ctx context.Context, refreshToken string) error {
	claims, err := s.issuer.VerifyRefresh(refreshToken)
	if err != nil {
		return apierrors.Wrapf(apierrors.ErrUnauthorized, "[SessionService.Logout] %v", err)
	}

	rec, err := s.ledger.Lookup(ctx, claims.JTI, claims.UserID)
	if err != nil {
		if apierrors.Is(err, apierrors.ErrNotFound) {
			return apierrors.Wrapf(apierrors.ErrBadRequest, "[SessionService.Logout] unknown refresh token")
		}
		return errors.Wrap(err, "[SessionService.Logout] ledger.Lookup")
	}

	if rec.RevokedAt != nil {
		return apierrors.Wrapf(apierrors.ErrBadRequest, "[SessionService.Logout] refresh token already revoked")
	}

	if err := s.ledger.Revoke(ctx, rec, ledger.ReasonLogout); err != nil {
		if apierrors.Is(err, apierrors.ErrAlreadyRevoked) {
			return apierrors.Wrapf(apierrors.ErrBadRequest, "[SessionService.Logout] refresh token already revoked")
		}
		return errors.Wrap(err, "[SessionService.Logout] ledger.Revoke")
	}

	return nil
}
