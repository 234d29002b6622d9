package userrepofake

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/apitienda/store-api/internal/errors"
	"github.com/apitienda/store-api/users"
)

var _ users.Repo = (*FakeUserRepo)(nil)

type FakeUserRepo struct {
	byID    map[uuid.UUID]*users.User
	byEmail map[string]uuid.UUID
	lock    sync.RWMutex
}

func NewFakeUserRepo() *FakeUserRepo {
	return &FakeUserRepo{
		byID:    make(map[uuid.UUID]*users.User),
		byEmail: make(map[string]uuid.UUID),
	}
}

func (ur *FakeUserRepo) Create(_ context.Context, user *users.User) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	u := *user
	ur.byID[u.ID] = &u
	ur.byEmail[u.Email] = u.ID
	return nil
}

func (ur *FakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	u, ok := ur.byID[id]
	if !ok || u.Deleted {
		return nil, errors.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (ur *FakeUserRepo) GetByIDIncludeDeleted(_ context.Context, id uuid.UUID) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	u, ok := ur.byID[id]
	if !ok {
		return nil, errors.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (ur *FakeUserRepo) GetByEmail(_ context.Context, email string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	id, ok := ur.byEmail[email]
	if !ok {
		return nil, errors.ErrNotFound
	}
	u, ok := ur.byID[id]
	if !ok || u.Deleted {
		return nil, errors.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (ur *FakeUserRepo) Update(_ context.Context, user *users.User) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	existing, ok := ur.byID[user.ID]
	if !ok {
		return errors.ErrNotFound
	}
	delete(ur.byEmail, existing.Email)

	u := *user
	ur.byID[u.ID] = &u
	ur.byEmail[u.Email] = u.ID
	return nil
}

func (ur *FakeUserRepo) List(_ context.Context, offset, limit int) ([]*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	all := make([]*users.User, 0, len(ur.byID))
	for _, u := range ur.byID {
		if u.Deleted {
			continue
		}
		copied := *u
		all = append(all, &copied)
	}

	sort.Slice(all, func(i, j int) bool {
		return all[i].DateJoined.Before(all[j].DateJoined)
	})

	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}
