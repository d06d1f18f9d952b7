package service

import (
	"context"
	"fmt"
	"log"

	"storefront-catalog-service/internal/domain"
	"storefront-catalog-service/internal/store"
)

// ProductService creates and updates products together with their owned
// collections. Every write runs in one transaction.
type ProductService struct {
	store store.CatalogStorer
}

func NewProductService(s store.CatalogStorer) *ProductService {
	return &ProductService{store: s}
}

// ListProducts returns product rows only, newest first.
func (s *ProductService) ListProducts(ctx context.Context) ([]domain.Product, error) {
	products, err := s.store.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("service: list products: %w", err)
	}
	return products, nil
}

// GetProduct returns the full aggregate.
func (s *ProductService) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	return loadAggregate(ctx, s.store, id)
}

// CreateProduct stores the product, then its sub-descriptions, thumbnails and
// reviews. In-stock defaults to true. When reviews were stored the rating is
// their mean.
func (s *ProductService) CreateProduct(ctx context.Context, in CreateProductInput) (*domain.Product, error) {
	product := &domain.Product{InStock: true, Rating: domain.DefaultRating}
	in.ProductFields.apply(product)
	if err := validateProduct(product); err != nil {
		return nil, err
	}
	reviews, err := reviewsFrom(0, in.Reviews)
	if err != nil {
		return nil, err
	}

	var result *domain.Product
	err = s.store.WithTx(ctx, func(tx store.CatalogStorer) error {
		created, err := tx.CreateProduct(ctx, product)
		if err != nil {
			return err
		}
		if err := insertSubDescriptions(ctx, tx, subDescriptionsFrom(created.ID, in.SubDescriptions)); err != nil {
			return err
		}
		if err := insertThumbnails(ctx, tx, thumbnailsFrom(created.ID, in.Thumbnails)); err != nil {
			return err
		}
		if len(reviews) > 0 {
			if err := insertReviews(ctx, tx, created.ID, reviews); err != nil {
				return err
			}
			if err := tx.SetProductRating(ctx, created.ID, domain.AverageRating(reviews)); err != nil {
				return err
			}
		}
		result, err = loadAggregate(ctx, tx, created.ID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("service: create product: %w", err)
	}
	log.Printf("INFO: Created product %d (%q) with %d reviews", result.ID, result.Name, len(result.Reviews))
	return result, nil
}

// UpdateProduct overwrites supplied scalar fields and replaces every supplied
// collection wholesale. Collections left nil are untouched. Replacing reviews
// recomputes the rating.
func (s *ProductService) UpdateProduct(ctx context.Context, id int64, in UpdateProductInput) (*domain.Product, error) {
	var reviews []domain.Review
	if in.Reviews != nil {
		var err error
		if reviews, err = reviewsFrom(id, *in.Reviews); err != nil {
			return nil, err
		}
	}

	var result *domain.Product
	err := s.store.WithTx(ctx, func(tx store.CatalogStorer) error {
		if err := tx.LockProduct(ctx, id); err != nil {
			return err
		}
		existing, err := tx.GetProductByID(ctx, id)
		if err != nil {
			return err
		}
		in.ProductFields.apply(existing)
		if err := validateProduct(existing); err != nil {
			return err
		}
		if _, err := tx.UpdateProduct(ctx, existing); err != nil {
			return err
		}

		if in.SubDescriptions != nil {
			if err := tx.DeleteSubDescriptions(ctx, id); err != nil {
				return err
			}
			if err := insertSubDescriptions(ctx, tx, subDescriptionsFrom(id, *in.SubDescriptions)); err != nil {
				return err
			}
		}
		if in.Thumbnails != nil {
			if err := tx.DeleteThumbnails(ctx, id); err != nil {
				return err
			}
			if err := insertThumbnails(ctx, tx, thumbnailsFrom(id, *in.Thumbnails)); err != nil {
				return err
			}
		}
		if in.Reviews != nil {
			if err := tx.DeleteReviews(ctx, id); err != nil {
				return err
			}
			if err := insertReviews(ctx, tx, id, reviews); err != nil {
				return err
			}
			if err := tx.SetProductRating(ctx, id, domain.AverageRating(reviews)); err != nil {
				return err
			}
		}

		result, err = loadAggregate(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("service: update product %d: %w", id, err)
	}
	return result, nil
}

// DeleteProduct removes the product; its collections go with it.
func (s *ProductService) DeleteProduct(ctx context.Context, id int64) error {
	if err := s.store.DeleteProduct(ctx, id); err != nil {
		return fmt.Errorf("service: delete product %d: %w", id, err)
	}
	log.Printf("INFO: Deleted product %d", id)
	return nil
}

func loadAggregate(ctx context.Context, s store.CatalogStorer, id int64) (*domain.Product, error) {
	product, err := s.GetProductByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product.SubDescriptions, err = s.ListSubDescriptions(ctx, id); err != nil {
		return nil, err
	}
	if product.Thumbnails, err = s.ListThumbnails(ctx, id); err != nil {
		return nil, err
	}
	if product.Reviews, err = s.ListReviews(ctx, id); err != nil {
		return nil, err
	}
	return product, nil
}

func insertSubDescriptions(ctx context.Context, tx store.CatalogStorer, subs []domain.SubDescription) error {
	for i := range subs {
		if _, err := tx.CreateSubDescription(ctx, &subs[i]); err != nil {
			return err
		}
	}
	return nil
}

func insertThumbnails(ctx context.Context, tx store.CatalogStorer, thumbs []domain.Thumbnail) error {
	for i := range thumbs {
		if _, err := tx.CreateThumbnail(ctx, &thumbs[i]); err != nil {
			return err
		}
	}
	return nil
}

func insertReviews(ctx context.Context, tx store.CatalogStorer, productID int64, reviews []domain.Review) error {
	for i := range reviews {
		reviews[i].ProductID = productID
		if _, err := tx.CreateReview(ctx, &reviews[i]); err != nil {
			return err
		}
	}
	return nil
}
