package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/apitienda/store-api/internal/errors"
	"github.com/apitienda/store-api/users"
)

var _ users.Repo = (*UserRepo)(nil)

type UserRepo struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

const userColumns = `id, email, username, password_hash, first_name, last_name, role,
	date_joined, last_login, is_active, is_deleted, deleted_at,
	email_verified, email_verified_at, password_reset_token, password_reset_token_expiration`

func (r *UserRepo) Create(ctx context.Context, user *users.User) error {
	query := `INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Email, user.Username, user.PasswordHash, user.FirstName, user.LastName, user.Role,
		user.DateJoined, nullTime(user.LastLogin), user.Active, user.Deleted, user.DeletedAt,
		user.EmailVerified, user.EmailVerifiedAt, user.ResetToken, user.ResetTokenExpiry,
	)
	if err != nil {
		return fmt.Errorf("[UserRepo.Create] exec: %w", err)
	}
	return nil
}

func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*users.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 AND NOT is_deleted`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *UserRepo) GetByIDIncludeDeleted(ctx context.Context, id uuid.UUID) (*users.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*users.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1 AND NOT is_deleted`
	return r.scanOne(r.db.QueryRowContext(ctx, query, email))
}

func (r *UserRepo) Update(ctx context.Context, user *users.User) error {
	query := `UPDATE users SET
		email = $2, username = $3, password_hash = $4, first_name = $5, last_name = $6, role = $7,
		date_joined = $8, last_login = $9, is_active = $10, is_deleted = $11, deleted_at = $12,
		email_verified = $13, email_verified_at = $14,
		password_reset_token = $15, password_reset_token_expiration = $16
		WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query,
		user.ID, user.Email, user.Username, user.PasswordHash, user.FirstName, user.LastName, user.Role,
		user.DateJoined, nullTime(user.LastLogin), user.Active, user.Deleted, user.DeletedAt,
		user.EmailVerified, user.EmailVerifiedAt, user.ResetToken, user.ResetTokenExpiry,
	)
	if err != nil {
		return fmt.Errorf("[UserRepo.Update] exec: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("[UserRepo.Update] rows affected: %w", err)
	}
	if affected == 0 {
		return errors.ErrNotFound
	}
	return nil
}

func (r *UserRepo) List(ctx context.Context, offset, limit int) ([]*users.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE NOT is_deleted
		ORDER BY date_joined LIMIT $1 OFFSET $2`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("[UserRepo.List] query: %w", err)
	}
	defer rows.Close()

	var result []*users.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("[UserRepo.List] scan: %w", err)
		}
		result = append(result, user)
	}
	return result, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *UserRepo) scanOne(row *sql.Row) (*users.User, error) {
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.ErrNotFound
		}
		return nil, fmt.Errorf("[UserRepo] scan: %w", err)
	}
	return user, nil
}

func scanUser(row rowScanner) (*users.User, error) {
	var u users.User
	var lastLogin sql.NullTime

	err := row.Scan(
		&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.FirstName, &u.LastName, &u.Role,
		&u.DateJoined, &lastLogin, &u.Active, &u.Deleted, &u.DeletedAt,
		&u.EmailVerified, &u.EmailVerifiedAt, &u.ResetToken, &u.ResetTokenExpiry,
	)
	if err != nil {
		return nil, err
	}
	if lastLogin.Valid {
		u.LastLogin = lastLogin.Time
	}
	return &u, nil
}

func nullTime(t interface{ IsZero() bool }) any {
	if t.IsZero() {
		return nil
	}
	return t
}
