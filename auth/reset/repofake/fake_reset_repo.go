package resetrepofake

import (
	"context"
	"sync"

	"github.com/apitienda/store-api/auth/reset"
	"github.com/apitienda/store-api/internal/errors"
)

var _ reset.Repo = (*FakeResetRepo)(nil)

type FakeResetRepo struct {
	tokens map[string]*reset.PasswordResetToken
	lock   sync.RWMutex
}

func NewFakeResetRepo() *FakeResetRepo {
	return &FakeResetRepo{tokens: make(map[string]*reset.PasswordResetToken)}
}

func (rr *FakeResetRepo) Insert(_ context.Context, token *reset.PasswordResetToken) error {
	rr.lock.Lock()
	defer rr.lock.Unlock()

	t := *token
	rr.tokens[t.Token] = &t
	return nil
}

func (rr *FakeResetRepo) Get(_ context.Context, token string) (*reset.PasswordResetToken, error) {
	rr.lock.RLock()
	defer rr.lock.RUnlock()

	t, ok := rr.tokens[token]
	if !ok {
		return nil, errors.ErrNotFound
	}
	copied := *t
	return &copied, nil
}
