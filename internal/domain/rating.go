package domain

import "github.com/shopspring/decimal"

// RatingScale is the number of decimal places ratings are stored with.
const RatingScale = 2

// Review rating bounds.
const (
	MinRating = 1
	MaxRating = 5
)

// AverageRating returns the mean of ratings rounded half-up to two places,
// or exactly zero when there are none.
func AverageRating(ratings []int) decimal.Decimal {
	if len(ratings) == 0 {
		return decimal.Zero
	}
	var sum int64
	for _, r := range ratings {
		sum += int64(r)
	}
	return decimal.NewFromInt(sum).
		Div(decimal.NewFromInt(int64(len(ratings)))).
		Round(RatingScale)
}

// IsValidRating reports whether r is within the 1..5 star range.
func IsValidRating(r int) bool {
	return r >= MinRating && r <= MaxRating
}
