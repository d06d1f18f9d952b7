package domain

import "github.com/shopspring/decimal"

// AverageRating returns the mean of the review ratings rounded to two decimal
// places with ties to even, or DefaultRating when there are no reviews.
func AverageRating(reviews []Review) decimal.Decimal {
	if len(reviews) == 0 {
		return DefaultRating
	}
	var sum int64
	for _, r := range reviews {
		sum += int64(r.Rating)
	}
	return decimal.NewFromInt(sum).
		DivRound(decimal.NewFromInt(int64(len(reviews))), 16).
		RoundBank(2)
}
