package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Marcholio/product-review-catalog-sub000/pkg/errors"
)

func TestRecomputeProductRating(t *testing.T) {
	products := new(mockProductRepository)
	ratings := new(mockRatingRepository)
	events := &recordingEvents{}
	svc := NewRatingService(products, ratings, events, &countingCache{}, newTestLogger())

	ratings.On("Recompute", mock.Anything, "p1").Return(decimal.RequireFromString("4.5"), nil)

	avg, err := svc.RecomputeProductRating(context.Background(), "p1")

	require.NoError(t, err)
	assert.Equal(t, "4.5", avg.String())
	assert.Equal(t, []string{"rating.recomputed"}, events.names)
}

func TestRecomputeProductRating_NotFound(t *testing.T) {
	ratings := new(mockRatingRepository)
	svc := NewRatingService(new(mockProductRepository), ratings, &recordingEvents{}, &countingCache{}, newTestLogger())

	ratings.On("Recompute", mock.Anything, "gone").Return(decimal.Zero, apperrors.NotFound("product", "gone"))

	_, err := svc.RecomputeProductRating(context.Background(), "gone")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestRecomputeAllRatings_UpdatesEveryProduct(t *testing.T) {
	products := new(mockProductRepository)
	ratings := new(mockRatingRepository)
	cache := &countingCache{}
	svc := NewRatingService(products, ratings, &recordingEvents{}, cache, newTestLogger())

	products.On("ListIDs", mock.Anything).Return([]string{"a", "b", "c"}, nil)
	ratings.On("Recompute", mock.Anything, mock.Anything).Return(decimal.NewFromInt(3), nil)

	summary, err := svc.RecomputeAllRatings(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 3, summary.ProductsUpdated)
	assert.Equal(t, 1, cache.invalidations)
	ratings.AssertNumberOfCalls(t, "Recompute", 3)
}

func TestRecomputeAllRatings_StopsAtFirstFailure(t *testing.T) {
	products := new(mockProductRepository)
	ratings := new(mockRatingRepository)
	svc := NewRatingService(products, ratings, &recordingEvents{}, &countingCache{}, newTestLogger())

	products.On("ListIDs", mock.Anything).Return([]string{"a", "b", "c"}, nil)
	ratings.On("Recompute", mock.Anything, "a").Return(decimal.NewFromInt(5), nil)
	ratings.On("Recompute", mock.Anything, "b").Return(decimal.Zero, errors.New("deadlock detected"))

	summary, err := svc.RecomputeAllRatings(context.Background())

	require.Error(t, err)
	assert.Equal(t, 1, summary.ProductsUpdated)
	ratings.AssertNotCalled(t, "Recompute", mock.Anything, "c")
}

func TestRecomputeAllRatings_EmptyCatalog(t *testing.T) {
	products := new(mockProductRepository)
	cache := &countingCache{}
	svc := NewRatingService(products, new(mockRatingRepository), &recordingEvents{}, cache, newTestLogger())

	products.On("ListIDs", mock.Anything).Return([]string{}, nil)

	summary, err := svc.RecomputeAllRatings(context.Background())

	require.NoError(t, err)
	assert.Zero(t, summary.ProductsUpdated)
	assert.Zero(t, cache.invalidations)
}
