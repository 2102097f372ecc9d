package product

import (
	"time"

	"github.com/google/uuid"

	"github.com/davemoreau/maplewood-commerce/internal/checkout"
	"github.com/davemoreau/maplewood-commerce/pkg/db/models"
)

// ListFilters describe the supported filter knobs for the browse endpoint.
type ListFilters struct {
	Query         string `json:"q,omitempty"`
	PriceMinCents *int64 `json:"price_min_cents,omitempty"`
	PriceMaxCents *int64 `json:"price_max_cents,omitempty"`
}

// ProductView is the public catalog shape.
type ProductView struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	Slug            string    `json:"slug"`
	Description     string    `json:"description,omitempty"`
	ImageURL        string    `json:"image_url,omitempty"`
	PriceCents      int64     `json:"price_cents"`
	DiscountPercent int       `json:"discount_percent"`
	FinalPriceCents int64     `json:"final_price_cents"`
	InStock         bool      `json:"in_stock"`
	CreatedAt       time.Time `json:"created_at"`
}

// ProductList is a cursor page of catalog entries.
type ProductList struct {
	Products   []ProductView `json:"products"`
	NextCursor *string       `json:"next_cursor,omitempty"`
}

// NewProductView maps a product row into its public shape. The discounted
// price is computed with the same rounding checkout uses.
func NewProductView(p *models.Product) ProductView {
	return ProductView{
		ID:              p.ID,
		Name:            p.Name,
		Slug:            p.Slug,
		Description:     p.Description,
		ImageURL:        p.ImageURL,
		PriceCents:      p.PriceCents,
		DiscountPercent: p.DiscountPercent,
		FinalPriceCents: checkout.FinalPriceCents(p.PriceCents, p.DiscountPercent),
		InStock:         p.Stock > 0,
		CreatedAt:       p.CreatedAt,
	}
}
