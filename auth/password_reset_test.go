package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/apitienda/store-api/auth/reset"
	"github.com/apitienda/store-api/internal/errors"
	"github.com/apitienda/store-api/users"
)

func TestRequestPasswordReset_Success(t *testing.T) {
	f := setupTestFixture(t)
	user := defaultTestUser()
	f.createTestUser(t, user)

	err := f.service.RequestPasswordReset(context.Background(), testUserEmail)
	require.NoError(t, err)

	// Token mailed out
	sent := f.mailer.Sent()
	require.Len(t, sent, 1)
	require.Equal(t, testUserEmail, sent[0].To)
	require.NotEmpty(t, sent[0].Token)

	// Token lives on the user record with a one-hour expiry
	stored, err := f.userRepo.GetByEmail(context.Background(), testUserEmail)
	require.NoError(t, err)
	require.Equal(t, sent[0].Token, stored.ResetToken)
	require.NotNil(t, stored.ResetTokenExpiry)
	require.Equal(t, f.now.Add(reset.TokenLifetime), *stored.ResetTokenExpiry)

	// And in the standalone ledger
	row, err := f.resetRepo.Get(context.Background(), sent[0].Token)
	require.NoError(t, err)
	require.Equal(t, testUserEmail, row.Email)
	require.Equal(t, user.ID, row.UserID)
}

func TestRequestPasswordReset_UnknownEmail(t *testing.T) {
	f := setupTestFixture(t)

	err := f.service.RequestPasswordReset(context.Background(), "nobody@example.com")
	require.Error(t, err)
	require.ErrorIs(t, err, errors.ErrNotFound)
	require.Empty(t, f.mailer.Sent())
}

func TestRequestPasswordReset_UnverifiedEmail(t *testing.T) {
	f := setupTestFixture(t)
	user := defaultTestUser()
	user.EmailVerified = false
	f.createTestUser(t, user)

	err := f.service.RequestPasswordReset(context.Background(), testUserEmail)
	require.Error(t, err)
	require.ErrorIs(t, err, errors.ErrEmailNotVerified)
	require.Empty(t, f.mailer.Sent())
}

func TestRequestPasswordReset_SendFailureKeepsToken(t *testing.T) {
	f := setupTestFixture(t)
	f.createTestUser(t, defaultTestUser())
	f.mailer.Fail = true

	err := f.service.RequestPasswordReset(context.Background(), testUserEmail)
	require.Error(t, err)
	require.ErrorIs(t, err, errors.ErrInternal)

	// The token was persisted before the send attempt and stays valid
	stored, err := f.userRepo.GetByEmail(context.Background(), testUserEmail)
	require.NoError(t, err)
	require.NotEmpty(t, stored.ResetToken)

	require.NoError(t, f.service.ResetPassword(context.Background(), stored.ResetToken, "newpassword1"))
}

func TestRequestPasswordReset_NewRequestSupersedesOld(t *testing.T) {
	f := setupTestFixture(t)
	f.createTestUser(t, defaultTestUser())

	require.NoError(t, f.service.RequestPasswordReset(context.Background(), testUserEmail))
	require.NoError(t, f.service.RequestPasswordReset(context.Background(), testUserEmail))

	sent := f.mailer.Sent()
	require.Len(t, sent, 2)
	require.NotEqual(t, sent[0].Token, sent[1].Token)

	// The first token no longer matches the live user fields
	err := f.service.ResetPassword(context.Background(), sent[0].Token, "newpassword1")
	require.Error(t, err)
	require.ErrorIs(t, err, errors.ErrNotFound)

	// The second one redeems
	require.NoError(t, f.service.ResetPassword(context.Background(), sent[1].Token, "newpassword1"))
}

func TestResetPassword_Success(t *testing.T) {
	f := setupTestFixture(t)
	f.createTestUser(t, defaultTestUser())

	require.NoError(t, f.service.RequestPasswordReset(context.Background(), testUserEmail))
	tokenStr := f.mailer.Sent()[0].Token

	require.NoError(t, f.service.ResetPassword(context.Background(), tokenStr, "newpassword1"))

	// Old password dead, new one live
	_, err := f.service.Login(context.Background(), testUserEmail, testUserPassword)
	require.Error(t, err)
	require.ErrorIs(t, err, errors.ErrInvalidCredentials)

	_, err = f.service.Login(context.Background(), testUserEmail, "newpassword1")
	require.NoError(t, err)

	// Reset fields cleared
	stored, err := f.userRepo.GetByEmail(context.Background(), testUserEmail)
	require.NoError(t, err)
	require.Empty(t, stored.ResetToken)
	require.Nil(t, stored.ResetTokenExpiry)
}

func TestResetPassword_TokenIsSingleUse(t *testing.T) {
	f := setupTestFixture(t)
	f.createTestUser(t, defaultTestUser())

	require.NoError(t, f.service.RequestPasswordReset(context.Background(), testUserEmail))
	tokenStr := f.mailer.Sent()[0].Token

	require.NoError(t, f.service.ResetPassword(context.Background(), tokenStr, "newpassword1"))

	// Replay fails even though the ledger row still exists
	_, err := f.resetRepo.Get(context.Background(), tokenStr)
	require.NoError(t, err)

	err = f.service.ResetPassword(context.Background(), tokenStr, "anotherpassword1")
	require.Error(t, err)
	require.ErrorIs(t, err, errors.ErrNotFound)
}

func TestResetPassword_ExpiredToken(t *testing.T) {
	f := setupTestFixture(t)
	f.createTestUser(t, defaultTestUser())

	require.NoError(t, f.service.RequestPasswordReset(context.Background(), testUserEmail))
	tokenStr := f.mailer.Sent()[0].Token

	f.now = f.now.Add(reset.TokenLifetime + time.Minute)

	err := f.service.ResetPassword(context.Background(), tokenStr, "newpassword1")
	require.Error(t, err)
	require.ErrorIs(t, err, errors.ErrNotFound)
}

func TestResetPassword_UnknownToken(t *testing.T) {
	f := setupTestFixture(t)
	f.createTestUser(t, defaultTestUser())

	err := f.service.ResetPassword(context.Background(), "neverissued", "newpassword1")
	require.Error(t, err)
	require.ErrorIs(t, err, errors.ErrNotFound)
}

func TestResetPassword_WeakPassword(t *testing.T) {
	f := setupTestFixture(t)
	f.createTestUser(t, defaultTestUser())

	require.NoError(t, f.service.RequestPasswordReset(context.Background(), testUserEmail))
	tokenStr := f.mailer.Sent()[0].Token

	err := f.service.ResetPassword(context.Background(), tokenStr, "short1")
	require.Error(t, err)
	require.ErrorIs(t, err, errors.ErrWeakPassword)

	// The rejection does not consume the token
	require.NoError(t, f.service.ResetPassword(context.Background(), tokenStr, "newpassword1"))
}

func TestChangePassword(t *testing.T) {
	f := setupTestFixture(t)
	user := defaultTestUser()
	f.createTestUser(t, user)
	ctx := context.Background()

	t.Run("wrong current password", func(t *testing.T) {
		err := f.service.ChangePassword(ctx, user.ID, "wrongpassword1", "newpassword1", "newpassword1")
		require.Error(t, err)
		require.ErrorIs(t, err, errors.ErrBadRequest)
	})

	t.Run("new password equals current", func(t *testing.T) {
		err := f.service.ChangePassword(ctx, user.ID, testUserPassword, testUserPassword, testUserPassword)
		require.Error(t, err)
		require.ErrorIs(t, err, errors.ErrPasswordReused)
	})

	t.Run("weak new password", func(t *testing.T) {
		err := f.service.ChangePassword(ctx, user.ID, testUserPassword, "short1", "short1")
		require.Error(t, err)
		require.ErrorIs(t, err, errors.ErrWeakPassword)
	})

	t.Run("confirmation mismatch", func(t *testing.T) {
		err := f.service.ChangePassword(ctx, user.ID, testUserPassword, "newpassword1", "differentpassword1")
		require.Error(t, err)
		require.ErrorIs(t, err, errors.ErrBadRequest)
	})

	t.Run("success", func(t *testing.T) {
		err := f.service.ChangePassword(ctx, user.ID, testUserPassword, "newpassword1", "newpassword1")
		require.NoError(t, err)

		_, err = f.service.Login(ctx, testUserEmail, "newpassword1")
		require.NoError(t, err)
	})
}

func TestChangePassword_MigratesLegacyRowFirst(t *testing.T) {
	f := setupTestFixture(t)
	user := defaultTestUser()
	user.PlainPassword = true
	f.createTestUser(t, user)

	err := f.service.ChangePassword(context.Background(), user.ID, testUserPassword, "newpassword1", "newpassword1")
	require.NoError(t, err)

	stored, err := f.userRepo.GetByEmail(context.Background(), testUserEmail)
	require.NoError(t, err)
	require.True(t, users.IsBcryptHash(stored.PasswordHash))
	require.True(t, users.CheckPasswordHash("newpassword1", stored.PasswordHash))
}
