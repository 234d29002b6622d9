package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repo manages server-side storage of refresh token records. Implementations
// return errors.ErrNotFound from Get when no record matches, and must make
// Revoke a conditional update: the record is only touched while revoked_at is
// still null, and errors.ErrAlreadyRevoked is returned otherwise. That
// condition is what keeps a concurrent double-refresh from issuing two pairs.
type Repo interface {
	Insert(ctx context.Context, rec *Record) error
	Get(ctx context.Context, jti string, userID uuid.UUID) (*Record, error)
	Revoke(ctx context.Context, id uuid.UUID, reason string, revokedAt time.Time) error
}
