package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Marcholio/product-review-catalog-sub000/internal/domain"
	"github.com/Marcholio/product-review-catalog-sub000/internal/repository"
	apperrors "github.com/Marcholio/product-review-catalog-sub000/pkg/errors"
	"github.com/Marcholio/product-review-catalog-sub000/pkg/pagination"
)

type adminFixture struct {
	users    *mockUserRepository
	products *mockProductRepository
	reviews  *mockReviewRepository
	events   *recordingEvents
	svc      *AdminService
}

func newAdminFixture() *adminFixture {
	f := &adminFixture{
		users:    new(mockUserRepository),
		products: new(mockProductRepository),
		reviews:  new(mockReviewRepository),
		events:   &recordingEvents{},
	}
	f.svc = NewAdminService(f.users, f.products, f.reviews, f.events, newTestLogger())
	return f
}

func TestAdminListUsers(t *testing.T) {
	f := newAdminFixture()
	f.users.On("List", mock.Anything, repository.UserFilter{Search: "ana", Page: 1, Limit: 10}).
		Return([]domain.User{{ID: "u1"}}, 1, nil)

	res, err := f.svc.ListUsers(context.Background(), " ana ", pagination.DefaultParams())

	require.NoError(t, err)
	assert.Equal(t, 1, res.Total)
	assert.Len(t, res.Items, 1)
}

func TestAdminUpdateUser_PromotesOtherUser(t *testing.T) {
	f := newAdminFixture()
	f.users.On("GetByID", mock.Anything, "u2").Return(&domain.User{ID: "u2", Name: "Bo"}, nil)
	f.users.On("Update", mock.Anything, mock.MatchedBy(func(u *domain.User) bool {
		return u.IsAdmin && u.Name == "Bo"
	})).Return(nil)

	u, err := f.svc.UpdateUser(context.Background(), "admin", "u2", AdminUpdateUserInput{IsAdmin: boolPtr(true)})

	require.NoError(t, err)
	assert.True(t, u.IsAdmin)
}

func TestAdminUpdateUser_CannotDemoteSelf(t *testing.T) {
	f := newAdminFixture()

	_, err := f.svc.UpdateUser(context.Background(), "admin", "admin", AdminUpdateUserInput{IsAdmin: boolPtr(false)})

	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	assert.Equal(t, 400, apperrors.HTTPStatus(err))
	f.users.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestAdminUpdateUser_SelfRenameAllowed(t *testing.T) {
	f := newAdminFixture()
	f.users.On("GetByID", mock.Anything, "admin").Return(&domain.User{ID: "admin", IsAdmin: true}, nil)
	f.users.On("Update", mock.Anything, mock.Anything).Return(nil)

	u, err := f.svc.UpdateUser(context.Background(), "admin", "admin", AdminUpdateUserInput{Name: strPtr("Root")})

	require.NoError(t, err)
	assert.Equal(t, "Root", u.Name)
	assert.True(t, u.IsAdmin)
}

func TestAdminDeleteUser(t *testing.T) {
	f := newAdminFixture()
	f.users.On("Delete", mock.Anything, "u2").Return(nil)

	require.NoError(t, f.svc.DeleteUser(context.Background(), "admin", "u2"))
	assert.Equal(t, []string{"user.deleted"}, f.events.names)

	err := f.svc.DeleteUser(context.Background(), "admin", "admin")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestAdminStats(t *testing.T) {
	f := newAdminFixture()
	f.products.On("CountAll", mock.Anything).Return(7, nil)
	f.users.On("CountAll", mock.Anything).Return(3, nil)
	f.reviews.On("CountByStatus", mock.Anything).Return(domain.ReviewStats{Pending: 1, Approved: 4, Rejected: 2, Total: 7}, nil)

	stats, err := f.svc.Stats(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 7, stats.Products)
	assert.Equal(t, 3, stats.Users)
	assert.Equal(t, 4, stats.Reviews.Approved)
}

func TestPasswordPolicy_GetCreatesFromDefaults(t *testing.T) {
	repo := new(mockPolicyRepository)
	svc := NewPasswordPolicyService(repo, defaultPolicy(), newTestLogger())
	stored := defaultPolicy()
	repo.On("GetOrCreate", mock.Anything, defaultPolicy()).Return(&stored, nil)

	p, err := svc.Get(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 8, p.MinLength)
}

func TestPasswordPolicy_Update(t *testing.T) {
	repo := new(mockPolicyRepository)
	svc := NewPasswordPolicyService(repo, defaultPolicy(), newTestLogger())
	stored := defaultPolicy()
	repo.On("GetOrCreate", mock.Anything, mock.Anything).Return(&stored, nil)
	repo.On("Save", mock.Anything, mock.MatchedBy(func(p *domain.PasswordPolicy) bool {
		return p.MinLength == 12 && p.RequireSpecialChars && p.RequireUppercase && p.PreventReuseCount == 5
	})).Return(nil)

	p, err := svc.Update(context.Background(), UpdatePasswordPolicyInput{
		MinLength:           intPtr(12),
		RequireSpecialChars: boolPtr(true),
		PreventReuseCount:   intPtr(5),
	})

	require.NoError(t, err)
	assert.Equal(t, 12, p.MinLength)
	repo.AssertExpectations(t)
}

func TestPasswordPolicy_UpdateValidation(t *testing.T) {
	repo := new(mockPolicyRepository)
	svc := NewPasswordPolicyService(repo, defaultPolicy(), newTestLogger())
	stored := defaultPolicy()
	repo.On("GetOrCreate", mock.Anything, mock.Anything).Return(&stored, nil)

	_, err := svc.Update(context.Background(), UpdatePasswordPolicyInput{
		MinLength:  intPtr(0),
		ExpiryDays: intPtr(-1),
	})

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Contains(t, appErr.Fields, "minLength")
	assert.Contains(t, appErr.Fields, "expiryDays")
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}
