package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/apitienda/store-api/internal/errors"
	"github.com/apitienda/store-api/products"
)

var _ products.Repo = (*ProductRepo)(nil)

type ProductRepo struct {
	db *sql.DB
}

func NewProductRepo(db *sql.DB) *ProductRepo {
	return &ProductRepo{db: db}
}

const productColumns = `id, name, text, price, created_at, modified_at`

func (r *ProductRepo) Create(ctx context.Context, product *products.Product) error {
	query := `INSERT INTO products (` + productColumns + `) VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.ExecContext(ctx, query,
		product.ID, product.Name, product.Text, product.Price, product.CreatedAt, product.ModifiedAt)
	if err != nil {
		return fmt.Errorf("[ProductRepo.Create] exec: %w", err)
	}
	return nil
}

func (r *ProductRepo) GetByID(ctx context.Context, id uuid.UUID) (*products.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	var p products.Product
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.Name, &p.Text, &p.Price, &p.CreatedAt, &p.ModifiedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.ErrNotFound
		}
		return nil, fmt.Errorf("[ProductRepo.GetByID] scan: %w", err)
	}
	return &p, nil
}

func (r *ProductRepo) Update(ctx context.Context, product *products.Product) error {
	query := `UPDATE products SET name = $2, text = $3, price = $4, modified_at = $5 WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query,
		product.ID, product.Name, product.Text, product.Price, product.ModifiedAt)
	if err != nil {
		return fmt.Errorf("[ProductRepo.Update] exec: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("[ProductRepo.Update] rows affected: %w", err)
	}
	if affected == 0 {
		return errors.ErrNotFound
	}
	return nil
}

func (r *ProductRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("[ProductRepo.Delete] exec: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("[ProductRepo.Delete] rows affected: %w", err)
	}
	if affected == 0 {
		return errors.ErrNotFound
	}
	return nil
}

func (r *ProductRepo) List(ctx context.Context, offset, limit int) ([]*products.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products ORDER BY created_at LIMIT $1 OFFSET $2`
	return r.query(ctx, query, limit, offset)
}

func (r *ProductRepo) Search(ctx context.Context, term string) ([]*products.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products
		WHERE name LIKE '%' || $1 || '%' OR text LIKE '%' || $1 || '%'
		ORDER BY created_at`
	return r.query(ctx, query, term)
}

func (r *ProductRepo) PriceRange(ctx context.Context, minPrice, maxPrice float64) ([]*products.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products
		WHERE price >= $1 AND price <= $2 ORDER BY created_at`
	return r.query(ctx, query, minPrice, maxPrice)
}

func (r *ProductRepo) query(ctx context.Context, query string, args ...any) ([]*products.Product, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("[ProductRepo] query: %w", err)
	}
	defer rows.Close()

	var result []*products.Product
	for rows.Next() {
		var p products.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Text, &p.Price, &p.CreatedAt, &p.ModifiedAt); err != nil {
			return nil, fmt.Errorf("[ProductRepo] scan: %w", err)
		}
		result = append(result, &p)
	}
	return result, rows.Err()
}
