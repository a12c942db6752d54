package http

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Marcholio/product-review-catalog-sub000/internal/domain"
	"github.com/Marcholio/product-review-catalog-sub000/pkg/pagination"
)

// parseListOptions reads listing parameters leniently: values that do not
// parse are treated as absent rather than rejected.
func parseListOptions(r *http.Request) domain.ProductListOptions {
	q := r.URL.Query()

	opts := domain.ProductListOptions{
		Page:      pagination.ParseInt(q.Get("page")),
		Limit:     pagination.ParseInt(q.Get("limit")),
		Category:  strings.TrimSpace(q.Get("category")),
		Search:    strings.TrimSpace(q.Get("search")),
		MinBudget: parseDecimal(q.Get("minBudget")),
		MaxBudget: parseDecimal(q.Get("maxBudget")),
	}
	if sort, ok := domain.ParseProductSort(q.Get("sort")); ok {
		opts.Sort = sort
	}
	return opts
}

func parseDecimal(s string) *decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil
	}
	return &d
}
