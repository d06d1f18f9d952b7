package service

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"storefront-catalog-service/internal/domain"
	"storefront-catalog-service/internal/store"
)

// MockCatalogStore is a mock type for the store.CatalogStorer interface.
// WithTx runs fn against the mock itself.
type MockCatalogStore struct {
	mock.Mock
}

var _ store.CatalogStorer = (*MockCatalogStore)(nil)

func (m *MockCatalogStore) WithTx(ctx context.Context, fn func(tx store.CatalogStorer) error) error {
	return fn(m)
}

func (m *MockCatalogStore) CreateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	args := m.Called(ctx, product)
	var p *domain.Product
	if args.Get(0) != nil {
		p = args.Get(0).(*domain.Product)
	}
	return p, args.Error(1)
}

func (m *MockCatalogStore) GetProductByID(ctx context.Context, id int64) (*domain.Product, error) {
	args := m.Called(ctx, id)
	var p *domain.Product
	if args.Get(0) != nil {
		p = args.Get(0).(*domain.Product)
	}
	return p, args.Error(1)
}

func (m *MockCatalogStore) ListProducts(ctx context.Context) ([]domain.Product, error) {
	args := m.Called(ctx)
	var ps []domain.Product
	if args.Get(0) != nil {
		ps = args.Get(0).([]domain.Product)
	}
	return ps, args.Error(1)
}

func (m *MockCatalogStore) UpdateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	args := m.Called(ctx, product)
	var p *domain.Product
	if args.Get(0) != nil {
		p = args.Get(0).(*domain.Product)
	}
	return p, args.Error(1)
}

func (m *MockCatalogStore) DeleteProduct(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockCatalogStore) LockProduct(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockCatalogStore) SetProductRating(ctx context.Context, id int64, rating decimal.Decimal) error {
	return m.Called(ctx, id, rating).Error(0)
}

func (m *MockCatalogStore) CreateSubDescription(ctx context.Context, sub *domain.SubDescription) (*domain.SubDescription, error) {
	args := m.Called(ctx, sub)
	var sd *domain.SubDescription
	if args.Get(0) != nil {
		sd = args.Get(0).(*domain.SubDescription)
	}
	return sd, args.Error(1)
}

func (m *MockCatalogStore) ListSubDescriptions(ctx context.Context, productID int64) ([]domain.SubDescription, error) {
	args := m.Called(ctx, productID)
	var subs []domain.SubDescription
	if args.Get(0) != nil {
		subs = args.Get(0).([]domain.SubDescription)
	}
	return subs, args.Error(1)
}

func (m *MockCatalogStore) DeleteSubDescriptions(ctx context.Context, productID int64) error {
	return m.Called(ctx, productID).Error(0)
}

func (m *MockCatalogStore) CreateThumbnail(ctx context.Context, thumb *domain.Thumbnail) (*domain.Thumbnail, error) {
	args := m.Called(ctx, thumb)
	var th *domain.Thumbnail
	if args.Get(0) != nil {
		th = args.Get(0).(*domain.Thumbnail)
	}
	return th, args.Error(1)
}

func (m *MockCatalogStore) ListThumbnails(ctx context.Context, productID int64) ([]domain.Thumbnail, error) {
	args := m.Called(ctx, productID)
	var ths []domain.Thumbnail
	if args.Get(0) != nil {
		ths = args.Get(0).([]domain.Thumbnail)
	}
	return ths, args.Error(1)
}

func (m *MockCatalogStore) DeleteThumbnails(ctx context.Context, productID int64) error {
	return m.Called(ctx, productID).Error(0)
}

func (m *MockCatalogStore) CreateReview(ctx context.Context, review *domain.Review) (*domain.Review, error) {
	args := m.Called(ctx, review)
	var rv *domain.Review
	if args.Get(0) != nil {
		rv = args.Get(0).(*domain.Review)
	}
	return rv, args.Error(1)
}

func (m *MockCatalogStore) ListReviews(ctx context.Context, productID int64) ([]domain.Review, error) {
	args := m.Called(ctx, productID)
	var rvs []domain.Review
	if args.Get(0) != nil {
		rvs = args.Get(0).([]domain.Review)
	}
	return rvs, args.Error(1)
}

func (m *MockCatalogStore) DeleteReviews(ctx context.Context, productID int64) error {
	return m.Called(ctx, productID).Error(0)
}

// expectAggregate stubs the reads loadAggregate performs for id.
func (m *MockCatalogStore) expectAggregate(p *domain.Product, subs []domain.SubDescription, thumbs []domain.Thumbnail, reviews []domain.Review) {
	m.On("GetProductByID", mock.Anything, p.ID).Return(p, nil)
	m.On("ListSubDescriptions", mock.Anything, p.ID).Return(subs, nil)
	m.On("ListThumbnails", mock.Anything, p.ID).Return(thumbs, nil)
	m.On("ListReviews", mock.Anything, p.ID).Return(reviews, nil)
}

func ratingEquals(want string) interface{} {
	return mock.MatchedBy(func(d decimal.Decimal) bool { return d.Equal(decimal.RequireFromString(want)) })
}

func PtrTo[T any](v T) *T {
	return &v
}
