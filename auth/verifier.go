package auth

import (
	"context"

	"github.com/pkg/errors"

	apierrors "github.com/apitienda/store-api/internal/errors"
	"github.com/apitienda/store-api/users"
)

// verifyCredentials looks up the user by email and checks the password
// against the stored bcrypt hash. Unknown user and wrong password both
// collapse to ErrInvalidCredentials so callers cannot tell which failed.
func (s *SessionService) verifyCredentials(ctx context.Context, userEmail, password string) (*users.User, error) {
	user, err := s.repos.Users.GetByEmail(ctx, userEmail)
	if err != nil {
		if apierrors.Is(err, apierrors.ErrNotFound) {
			return nil, apierrors.ErrInvalidCredentials
		}
		return nil, errors.Wrap(err, "[verifyCredentials] users.GetByEmail")
	}

	if !user.Active {
		return nil, apierrors.ErrInvalidCredentials
	}

	if err := s.migrateLegacyPassword(ctx, user); err != nil {
		return nil, err
	}

	if !users.CheckPasswordHash(password, user.PasswordHash) {
		return nil, apierrors.ErrInvalidCredentials
	}

	return user, nil
}

// migrateLegacyPassword re-hashes and persists a stored plaintext password
// the first time the row is touched. Rows written before the hashing rollout
// hold the raw password; detection is an explicit bcrypt prefix check, not a
// side effect of comparison.
func (s *SessionService) migrateLegacyPassword(ctx context.Context, user *users.User) error {
	if users.IsBcryptHash(user.PasswordHash) {
		return nil
	}

	hashed, err := users.HashPassword(user.PasswordHash)
	if err != nil {
		return errors.Wrap(err, "[migrateLegacyPassword] users.HashPassword")
	}
	user.PasswordHash = hashed

	if err := s.repos.Users.Update(ctx, user); err != nil {
		return errors.Wrap(err, "[migrateLegacyPassword] users.Update")
	}
	return nil
}
