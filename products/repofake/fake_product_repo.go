package productrepofake

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/apitienda/store-api/internal/errors"
	"github.com/apitienda/store-api/products"
)

var _ products.Repo = (*FakeProductRepo)(nil)

type FakeProductRepo struct {
	byID map[uuid.UUID]*products.Product
	lock sync.RWMutex
}

func NewFakeProductRepo() *FakeProductRepo {
	return &FakeProductRepo{byID: make(map[uuid.UUID]*products.Product)}
}

func (pr *FakeProductRepo) Create(_ context.Context, product *products.Product) error {
	pr.lock.Lock()
	defer pr.lock.Unlock()

	p := *product
	pr.byID[p.ID] = &p
	return nil
}

func (pr *FakeProductRepo) GetByID(_ context.Context, id uuid.UUID) (*products.Product, error) {
	pr.lock.RLock()
	defer pr.lock.RUnlock()

	p, ok := pr.byID[id]
	if !ok {
		return nil, errors.ErrNotFound
	}
	copied := *p
	return &copied, nil
}

func (pr *FakeProductRepo) Update(_ context.Context, product *products.Product) error {
	pr.lock.Lock()
	defer pr.lock.Unlock()

	if _, ok := pr.byID[product.ID]; !ok {
		return errors.ErrNotFound
	}
	p := *product
	pr.byID[p.ID] = &p
	return nil
}

func (pr *FakeProductRepo) Delete(_ context.Context, id uuid.UUID) error {
	pr.lock.Lock()
	defer pr.lock.Unlock()

	if _, ok := pr.byID[id]; !ok {
		return errors.ErrNotFound
	}
	delete(pr.byID, id)
	return nil
}

func (pr *FakeProductRepo) List(_ context.Context, offset, limit int) ([]*products.Product, error) {
	pr.lock.RLock()
	defer pr.lock.RUnlock()

	all := pr.snapshot(func(*products.Product) bool { return true })
	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (pr *FakeProductRepo) Search(_ context.Context, term string) ([]*products.Product, error) {
	pr.lock.RLock()
	defer pr.lock.RUnlock()

	return pr.snapshot(func(p *products.Product) bool {
		return strings.Contains(p.Name, term) || strings.Contains(p.Text, term)
	}), nil
}

func (pr *FakeProductRepo) PriceRange(_ context.Context, minPrice, maxPrice float64) ([]*products.Product, error) {
	pr.lock.RLock()
	defer pr.lock.RUnlock()

	return pr.snapshot(func(p *products.Product) bool {
		return p.Price >= minPrice && p.Price <= maxPrice
	}), nil
}

func (pr *FakeProductRepo) snapshot(match func(*products.Product) bool) []*products.Product {
	matched := make([]*products.Product, 0)
	for _, p := range pr.byID {
		if match(p) {
			copied := *p
			matched = append(matched, &copied)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.Before(matched[j].CreatedAt)
	})
	return matched
}
