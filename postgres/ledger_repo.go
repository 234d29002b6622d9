package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/apitienda/store-api/internal/errors"
	"github.com/apitienda/store-api/token/ledger"
)

var _ ledger.Repo = (*LedgerRepo)(nil)

type LedgerRepo struct {
	db *sql.DB
}

func NewLedgerRepo(db *sql.DB) *LedgerRepo {
	return &LedgerRepo{db: db}
}

func (r *LedgerRepo) Insert(ctx context.Context, rec *ledger.Record) error {
	query := `INSERT INTO refresh_tokens (id, jti, user_id, expires_at, revoked_at, reason)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.ExecContext(ctx, query, rec.ID, rec.JTI, rec.UserID, rec.ExpiresAt, rec.RevokedAt, rec.Reason)
	if err != nil {
		return fmt.Errorf("[LedgerRepo.Insert] exec: %w", err)
	}
	return nil
}

func (r *LedgerRepo) Get(ctx context.Context, jti string, userID uuid.UUID) (*ledger.Record, error) {
	query := `SELECT id, jti, user_id, expires_at, revoked_at, reason
		FROM refresh_tokens WHERE jti = $1 AND user_id = $2`

	var rec ledger.Record
	err := r.db.QueryRowContext(ctx, query, jti, userID).Scan(
		&rec.ID, &rec.JTI, &rec.UserID, &rec.ExpiresAt, &rec.RevokedAt, &rec.Reason,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.ErrNotFound
		}
		return nil, fmt.Errorf("[LedgerRepo.Get] scan: %w", err)
	}
	return &rec, nil
}

// Revoke is a conditional update: the row is only touched while revoked_at is
// still null. Two concurrent revokes of the same record therefore cannot both
// succeed; the loser gets ErrAlreadyRevoked.
func (r *LedgerRepo) Revoke(ctx context.Context, id uuid.UUID, reason string, revokedAt time.Time) error {
	query := `UPDATE refresh_tokens SET revoked_at = $2, reason = $3
		WHERE id = $1 AND revoked_at IS NULL`

	res, err := r.db.ExecContext(ctx, query, id, revokedAt, reason)
	if err != nil {
		return fmt.Errorf("[LedgerRepo.Revoke] exec: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("[LedgerRepo.Revoke] rows affected: %w", err)
	}
	if affected > 0 {
		return nil
	}

	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM refresh_tokens WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("[LedgerRepo.Revoke] exists check: %w", err)
	}
	if !exists {
		return errors.ErrNotFound
	}
	return errors.ErrAlreadyRevoked
}
