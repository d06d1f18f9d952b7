package service

import (
	"context"
	"fmt"
	"log"

	"storefront-catalog-service/internal/domain"
	"storefront-catalog-service/internal/store"
)

// ReviewService appends single reviews and keeps the product rating current.
type ReviewService struct {
	store store.CatalogStorer
}

func NewReviewService(s store.CatalogStorer) *ReviewService {
	return &ReviewService{store: s}
}

// AddReview stores the review and recomputes the product rating from all of its
// reviews. The product row stays locked until the rating is written.
func (s *ReviewService) AddReview(ctx context.Context, productID int64, in ReviewInput) (*domain.Review, error) {
	if in.Comment == "" {
		return nil, &ValidationError{Fields: map[string]string{"comment": "This field may not be blank."}}
	}
	review, ok := reviewFrom(productID, in)
	if !ok {
		return nil, &ValidationError{Fields: map[string]string{"rating": ratingRangeMessage}}
	}

	var created *domain.Review
	err := s.store.WithTx(ctx, func(tx store.CatalogStorer) error {
		if err := tx.LockProduct(ctx, productID); err != nil {
			return err
		}
		var err error
		if created, err = tx.CreateReview(ctx, &review); err != nil {
			return err
		}
		all, err := tx.ListReviews(ctx, productID)
		if err != nil {
			return err
		}
		return tx.SetProductRating(ctx, productID, domain.AverageRating(all))
	})
	if err != nil {
		return nil, fmt.Errorf("service: add review to product %d: %w", productID, err)
	}
	log.Printf("INFO: Added review %d to product %d (rating %d)", created.ID, productID, created.Rating)
	return created, nil
}
