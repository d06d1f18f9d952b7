package store

import (
	"context"

	"github.com/shopspring/decimal"

	"storefront-catalog-service/internal/domain"
)

// ProductStorer defines the database operations for product rows.
type ProductStorer interface {
	CreateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error)
	GetProductByID(ctx context.Context, id int64) (*domain.Product, error)
	ListProducts(ctx context.Context) ([]domain.Product, error) // Newest first, unbounded
	UpdateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id int64) error // Cascades to all child collections
	LockProduct(ctx context.Context, id int64) error
	SetProductRating(ctx context.Context, id int64, rating decimal.Decimal) error
}

// SubDescriptionStorer manages the sub-descriptions owned by a product.
type SubDescriptionStorer interface {
	CreateSubDescription(ctx context.Context, sub *domain.SubDescription) (*domain.SubDescription, error)
	ListSubDescriptions(ctx context.Context, productID int64) ([]domain.SubDescription, error)
	DeleteSubDescriptions(ctx context.Context, productID int64) error
}

// ThumbnailStorer manages the thumbnails owned by a product.
type ThumbnailStorer interface {
	CreateThumbnail(ctx context.Context, thumb *domain.Thumbnail) (*domain.Thumbnail, error)
	ListThumbnails(ctx context.Context, productID int64) ([]domain.Thumbnail, error)
	DeleteThumbnails(ctx context.Context, productID int64) error
}

// ReviewStorer manages the reviews owned by a product.
type ReviewStorer interface {
	CreateReview(ctx context.Context, review *domain.Review) (*domain.Review, error)
	ListReviews(ctx context.Context, productID int64) ([]domain.Review, error)
	DeleteReviews(ctx context.Context, productID int64) error
}

// CatalogStorer is the full catalog repository. WithTx runs fn against a
// transaction-bound CatalogStorer, committing when fn returns nil.
type CatalogStorer interface {
	ProductStorer
	SubDescriptionStorer
	ThumbnailStorer
	ReviewStorer
	WithTx(ctx context.Context, fn func(tx CatalogStorer) error) error
}

// UserStorer defines the database operations for accounts.
type UserStorer interface {
	CreateUser(ctx context.Context, user *domain.User) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUserByID(ctx context.Context, id int64) (*domain.User, error)
	UpsertStaffUser(ctx context.Context, user *domain.User) (*domain.User, bool, error) // bool: created
}
