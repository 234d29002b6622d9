package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/apitienda/store-api/auth/reset"
	"github.com/apitienda/store-api/internal/errors"
)

var _ reset.Repo = (*ResetRepo)(nil)

type ResetRepo struct {
	db *sql.DB
}

func NewResetRepo(db *sql.DB) *ResetRepo {
	return &ResetRepo{db: db}
}

func (r *ResetRepo) Insert(ctx context.Context, token *reset.PasswordResetToken) error {
	query := `INSERT INTO password_reset_tokens (token, email, user_id, expiration)
		VALUES ($1, $2, $3, $4)`

	_, err := r.db.ExecContext(ctx, query, token.Token, token.Email, token.UserID, token.Expiration)
	if err != nil {
		return fmt.Errorf("[ResetRepo.Insert] exec: %w", err)
	}
	return nil
}

func (r *ResetRepo) Get(ctx context.Context, tokenStr string) (*reset.PasswordResetToken, error) {
	query := `SELECT token, email, user_id, expiration
		FROM password_reset_tokens WHERE token = $1`

	var t reset.PasswordResetToken
	err := r.db.QueryRowContext(ctx, query, tokenStr).Scan(&t.Token, &t.Email, &t.UserID, &t.Expiration)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.ErrNotFound
		}
		return nil, fmt.Errorf("[ResetRepo.Get] scan: %w", err)
	}
	return &t, nil
}
