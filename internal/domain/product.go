package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog entry. On reads Rating and ReviewCount are computed
// from approved reviews at query time; the stored rating column is only a
// cache kept in step by review mutations.
type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    string          `json:"imageUrl"`
	Category    string          `json:"category"`
	Rating      decimal.Decimal `json:"rating"`
	ReviewCount int             `json:"reviewCount"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// RecomputeSummary reports the outcome of a full rating sweep.
type RecomputeSummary struct {
	ProductsUpdated int `json:"productsUpdated"`
}
