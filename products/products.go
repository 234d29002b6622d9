package products

import (
	"time"

	"github.com/google/uuid"
)

type Product struct {
	ID         uuid.UUID `json:"id,omitempty"`   // Unique identifier for the product
	Name       string    `json:"name,omitempty"` // Display name
	Text       string    `json:"text,omitempty"` // Description text
	Price      float64   `json:"price"`          // Unit price
	CreatedAt  time.Time `json:"created_at,omitempty"`
	ModifiedAt time.Time `json:"modified_at,omitempty"`
}

// ApplyPartial copies the non-zero fields of p onto the receiver. Used by
// partial-update requests where absent fields must keep their stored values.
func (pr *Product) ApplyPartial(p *Product) {
	if p.Name != "" {
		pr.Name = p.Name
	}
	if p.Text != "" {
		pr.Text = p.Text
	}
	if p.Price != 0 {
		pr.Price = p.Price
	}
}
