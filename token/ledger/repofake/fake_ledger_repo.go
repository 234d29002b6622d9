package ledgerrepofake

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/apitienda/store-api/internal/errors"
	"github.com/apitienda/store-api/token/ledger"
)

var _ ledger.Repo = (*FakeLedgerRepo)(nil)

type FakeLedgerRepo struct {
	byID  map[uuid.UUID]*ledger.Record
	byJTI map[string]uuid.UUID
	lock  sync.RWMutex
}

func NewFakeLedgerRepo() *FakeLedgerRepo {
	return &FakeLedgerRepo{
		byID:  make(map[uuid.UUID]*ledger.Record),
		byJTI: make(map[string]uuid.UUID),
	}
}

func (lr *FakeLedgerRepo) Insert(_ context.Context, rec *ledger.Record) error {
	lr.lock.Lock()
	defer lr.lock.Unlock()

	r := *rec
	lr.byID[r.ID] = &r
	lr.byJTI[r.JTI] = r.ID
	return nil
}

func (lr *FakeLedgerRepo) Get(_ context.Context, jti string, userID uuid.UUID) (*ledger.Record, error) {
	lr.lock.RLock()
	defer lr.lock.RUnlock()

	id, ok := lr.byJTI[jti]
	if !ok {
		return nil, errors.ErrNotFound
	}
	rec := lr.byID[id]
	if rec.UserID != userID {
		return nil, errors.ErrNotFound
	}
	copied := *rec
	return &copied, nil
}

// Revoke mirrors the conditional UPDATE of the postgres repo: it only
// succeeds while the record is unrevoked, under a single lock acquisition.
func (lr *FakeLedgerRepo) Revoke(_ context.Context, id uuid.UUID, reason string, revokedAt time.Time) error {
	lr.lock.Lock()
	defer lr.lock.Unlock()

	rec, ok := lr.byID[id]
	if !ok {
		return errors.ErrNotFound
	}
	if rec.RevokedAt != nil {
		return errors.ErrAlreadyRevoked
	}
	at := revokedAt
	rec.RevokedAt = &at
	rec.Reason = reason
	return nil
}

// All returns every stored record, ordered insertion-independent. Test helper.
func (lr *FakeLedgerRepo) All() []*ledger.Record {
	lr.lock.RLock()
	defer lr.lock.RUnlock()

	all := make([]*ledger.Record, 0, len(lr.byID))
	for _, rec := range lr.byID {
		copied := *rec
		all = append(all, &copied)
	}
	return all
}
