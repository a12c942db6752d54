package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAverageRating(t *testing.T) {
	tests := []struct {
		name    string
		ratings []int
		want    string
	}{
		{"no reviews", nil, "0"},
		{"single", []int{4}, "4"},
		{"two", []int{4, 2}, "3"},
		{"repeating decimal rounds down", []int{5, 5, 4}, "4.67"},
		{"thirds", []int{1, 2, 2}, "1.67"},
		{"exact half rounds up", []int{1, 1, 1, 1, 1, 1, 1, 2}, "1.13"},
		{"all max", []int{5, 5, 5, 5}, "5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AverageRating(tt.ratings).String())
		})
	}
}

func TestAverageRating_EmptyIsExactlyZero(t *testing.T) {
	got := AverageRating([]int{})
	assert.True(t, got.IsZero())
	assert.Equal(t, "0.00", got.StringFixed(RatingScale))
}

func TestIsValidRating(t *testing.T) {
	assert.False(t, IsValidRating(0))
	assert.True(t, IsValidRating(1))
	assert.True(t, IsValidRating(5))
	assert.False(t, IsValidRating(6))
}

func TestReviewStatus_IsValid(t *testing.T) {
	assert.True(t, ReviewStatusPending.IsValid())
	assert.True(t, ReviewStatusApproved.IsValid())
	assert.True(t, ReviewStatusRejected.IsValid())
	assert.False(t, ReviewStatus("spam").IsValid())
}
