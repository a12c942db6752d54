package http

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Marcholio/product-review-catalog-sub000/internal/domain"
)

func TestParseListOptions(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/products?page=2&limit=5&sort=rating&category=+Books+&search=cook&minBudget=10.5&maxBudget=20", nil)
	opts := parseListOptions(r)

	assert.Equal(t, 2, opts.Page)
	assert.Equal(t, 5, opts.Limit)
	assert.Equal(t, domain.SortRating, opts.Sort)
	assert.Equal(t, "Books", opts.Category)
	assert.Equal(t, "cook", opts.Search)
	require.NotNil(t, opts.MinBudget)
	assert.Equal(t, "10.5", opts.MinBudget.String())
	require.NotNil(t, opts.MaxBudget)
	assert.Equal(t, "20", opts.MaxBudget.String())
}

func TestParseListOptions_LenientOnGarbage(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/products?page=abc&limit=-3&sort=stars&minBudget=cheap", nil)
	opts := parseListOptions(r)

	assert.Zero(t, opts.Page)
	assert.Equal(t, -3, opts.Limit)
	assert.Empty(t, opts.Sort)
	assert.Nil(t, opts.MinBudget)
	assert.Nil(t, opts.MaxBudget)

	n := opts.Normalize()
	assert.Equal(t, 1, n.Page)
	assert.Equal(t, 10, n.Limit)
	assert.Equal(t, domain.SortCreatedAt, n.Sort)
}
