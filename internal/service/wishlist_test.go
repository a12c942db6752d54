package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Marcholio/product-review-catalog-sub000/internal/domain"
	apperrors "github.com/Marcholio/product-review-catalog-sub000/pkg/errors"
	"github.com/Marcholio/product-review-catalog-sub000/pkg/pagination"
)

func TestWishlistAdd(t *testing.T) {
	wishlist := new(mockWishlistRepository)
	products := new(mockProductRepository)
	svc := NewWishlistService(wishlist, products, newTestLogger())

	products.On("GetByID", mock.Anything, "p1").Return(&domain.Product{ID: "p1", Name: "Lamp"}, nil)
	wishlist.On("Add", mock.Anything, mock.MatchedBy(func(i *domain.WishlistItem) bool {
		return i.UserID == "u1" && i.ProductID == "p1"
	})).Return(nil)

	item, err := svc.Add(context.Background(), "u1", "p1")

	require.NoError(t, err)
	assert.Equal(t, "Lamp", item.Product.Name)
}

func TestWishlistAdd_MissingProduct(t *testing.T) {
	wishlist := new(mockWishlistRepository)
	products := new(mockProductRepository)
	svc := NewWishlistService(wishlist, products, newTestLogger())

	products.On("GetByID", mock.Anything, "p9").Return(nil, apperrors.NotFound("product", "p9"))

	_, err := svc.Add(context.Background(), "u1", "p9")

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	wishlist.AssertNotCalled(t, "Add", mock.Anything, mock.Anything)
}

func TestWishlistAdd_Duplicate(t *testing.T) {
	wishlist := new(mockWishlistRepository)
	products := new(mockProductRepository)
	svc := NewWishlistService(wishlist, products, newTestLogger())

	products.On("GetByID", mock.Anything, "p1").Return(&domain.Product{ID: "p1"}, nil)
	wishlist.On("Add", mock.Anything, mock.Anything).Return(apperrors.Conflict("product is already in the wishlist"))

	_, err := svc.Add(context.Background(), "u1", "p1")
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestWishlistRemoveAndContains(t *testing.T) {
	wishlist := new(mockWishlistRepository)
	svc := NewWishlistService(wishlist, new(mockProductRepository), newTestLogger())

	wishlist.On("Remove", mock.Anything, "u1", "p1").Return(nil)
	wishlist.On("Remove", mock.Anything, "u1", "p2").Return(apperrors.NotFound("wishlist item", "p2"))
	wishlist.On("Exists", mock.Anything, "u1", "p1").Return(true, nil)

	require.NoError(t, svc.Remove(context.Background(), "u1", "p1"))
	assert.ErrorIs(t, svc.Remove(context.Background(), "u1", "p2"), apperrors.ErrNotFound)

	ok, err := svc.Contains(context.Background(), "u1", "p1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestWishlistList(t *testing.T) {
	wishlist := new(mockWishlistRepository)
	svc := NewWishlistService(wishlist, new(mockProductRepository), newTestLogger())

	wishlist.On("List", mock.Anything, "u1", 1, 10).Return(nil, 0, nil)

	res, err := svc.List(context.Background(), "u1", pagination.DefaultParams())

	require.NoError(t, err)
	assert.NotNil(t, res.Items)
	assert.Zero(t, res.Total)
}
