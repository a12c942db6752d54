package domain

import (
	"github.com/shopspring/decimal"

	"github.com/Marcholio/product-review-catalog-sub000/pkg/pagination"
)

// ProductSort selects the ordering of a product listing.
type ProductSort string

// Listing orders. createdAt is newest first, price is cheapest first, rating
// and popularity are highest first. All break ties by id.
const (
	SortCreatedAt  ProductSort = "createdAt"
	SortPrice      ProductSort = "price"
	SortRating     ProductSort = "rating"
	SortPopularity ProductSort = "popularity"
)

// ParseProductSort returns the sort named by s, or false if s is unknown.
func ParseProductSort(s string) (ProductSort, bool) {
	switch ProductSort(s) {
	case SortCreatedAt, SortPrice, SortRating, SortPopularity:
		return ProductSort(s), true
	}
	return "", false
}

// ProductListOptions are the inputs of a product listing. Zero values mean
// "not supplied" until Normalize fills in defaults.
type ProductListOptions struct {
	Page      int
	Limit     int
	Sort      ProductSort
	Category  string
	MinBudget *decimal.Decimal
	MaxBudget *decimal.Decimal
	Search    string
}

// WithPreferences fills parameters the caller left unset from a user's
// stored preferences. Explicit request values always win.
func (o ProductListOptions) WithPreferences(p Preferences) ProductListOptions {
	if o.Sort == "" {
		if s, ok := ParseProductSort(string(p.DefaultSort)); ok {
			o.Sort = s
		}
	}
	if o.Category == "" {
		o.Category = p.DefaultCategory
	}
	if o.MinBudget == nil && p.MinBudget != nil {
		v := *p.MinBudget
		o.MinBudget = &v
	}
	if o.MaxBudget == nil && p.MaxBudget != nil {
		v := *p.MaxBudget
		o.MaxBudget = &v
	}
	return o
}

// Normalize applies paging defaults and caps and the default sort.
func (o ProductListOptions) Normalize() ProductListOptions {
	p := pagination.New(o.Page, o.Limit)
	o.Page, o.Limit = p.Page, p.Limit
	if _, ok := ParseProductSort(string(o.Sort)); !ok {
		o.Sort = SortCreatedAt
	}
	return o
}

// Pagination returns the normalized paging window.
func (o ProductListOptions) Pagination() pagination.Params {
	return pagination.New(o.Page, o.Limit)
}
