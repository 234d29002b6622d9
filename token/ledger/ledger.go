package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Revocation reasons. Free text in storage, but this is the vocabulary the
// session protocol writes.
const (
	ReasonIssued    = "issued"
	ReasonRefreshed = "refreshed"
	ReasonLogout    = "logout"
)

// Record is the persisted entry for one issued refresh token, 1:1 with its
// jti claim. Records are never deleted; revocation is terminal and the rows
// double as an audit trail.
type Record struct {
	ID        uuid.UUID  // Unique record identifier
	JTI       string     // Token identifier matching the jti claim
	UserID    uuid.UUID  // Owner of the token
	ExpiresAt time.Time  // Copied from the token's exp claim at issuance
	RevokedAt *time.Time // Nil while the token is still active
	Reason    string     // "issued" | "refreshed" | "logout" | future reasons
}

// Ledger is the authority for whether a refresh token may still be exchanged.
// Signature validation alone is not sufficient: the session protocol consults
// the ledger on every refresh and logout.
type Ledger struct {
	repo    Repo
	nowTime func() time.Time
}

// Option defines a function type to modify the Ledger instance.
type Option func(*Ledger)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) Option {
	return func(l *Ledger) {
		l.nowTime = nowFunc
	}
}

// NewLedger creates a ledger over the given repo.
func NewLedger(repo Repo, options ...Option) *Ledger {
	l := &Ledger{
		repo:    repo,
		nowTime: time.Now,
	}
	for _, opt := range options {
		opt(l)
	}
	return l
}

// Record inserts a new active entry for a freshly issued refresh token.
func (l *Ledger) Record(ctx context.Context, jti string, userID uuid.UUID, expiresAt time.Time) error {
	rec := &Record{
		ID:        uuid.New(),
		JTI:       jti,
		UserID:    userID,
		ExpiresAt: expiresAt,
		Reason:    ReasonIssued,
	}
	if err := l.repo.Insert(ctx, rec); err != nil {
		return errors.Wrap(err, "[Ledger.Record] repo.Insert")
	}
	return nil
}

// Lookup fetches the entry for (jti, userID).
func (l *Ledger) Lookup(ctx context.Context, jti string, userID uuid.UUID) (*Record, error) {
	rec, err := l.repo.Get(ctx, jti, userID)
	if err != nil {
		return nil, errors.Wrap(err, "[Ledger.Lookup] repo.Get")
	}
	return rec, nil
}

// Revoke marks the record revoked with the given reason. The underlying
// store update is conditional on revoked_at still being null, so the loser of
// a concurrent double-revoke observes ErrAlreadyRevoked instead of silently
// overwriting.
func (l *Ledger) Revoke(ctx context.Context, rec *Record, reason string) error {
	now := l.nowTime()
	if err := l.repo.Revoke(ctx, rec.ID, reason, now); err != nil {
		return errors.Wrap(err, "[Ledger.Revoke] repo.Revoke")
	}
	rec.RevokedAt = &now
	rec.Reason = reason
	return nil
}

// IsUsable reports whether the record still authorizes a refresh: it exists,
// has not been revoked, and has not passed its ledger expiry. Ledger expiry
// is authoritative even when the signed token's own exp claim would pass.
func (l *Ledger) IsUsable(rec *Record) bool {
	if rec == nil {
		return false
	}
	return rec.RevokedAt == nil && rec.ExpiresAt.After(l.nowTime())
}
