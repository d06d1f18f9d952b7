package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/mock"

	"storefront-catalog-service/internal/auth"
	"storefront-catalog-service/internal/domain"
	"storefront-catalog-service/internal/service"
)

// MockProductService is a mock implementation of ProductServicer
type MockProductService struct {
	mock.Mock
}

func (m *MockProductService) ListProducts(ctx context.Context) ([]domain.Product, error) {
	args := m.Called(ctx)
	var products []domain.Product
	if arg0 := args.Get(0); arg0 != nil {
		products = arg0.([]domain.Product)
	}
	return products, args.Error(1)
}

func (m *MockProductService) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *MockProductService) CreateProduct(ctx context.Context, in service.CreateProductInput) (*domain.Product, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *MockProductService) UpdateProduct(ctx context.Context, id int64, in service.UpdateProductInput) (*domain.Product, error) {
	args := m.Called(ctx, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *MockProductService) DeleteProduct(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

// MockReviewService is a mock implementation of ReviewServicer
type MockReviewService struct {
	mock.Mock
}

func (m *MockReviewService) AddReview(ctx context.Context, productID int64, in service.ReviewInput) (*domain.Review, error) {
	args := m.Called(ctx, productID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Review), args.Error(1)
}

// MockAuthService is a mock implementation of AuthServicer. Authenticate
// accepts only testAccessToken.
type MockAuthService struct {
	mock.Mock
}

const testAccessToken = "valid-access-token"

func (m *MockAuthService) Signup(ctx context.Context, in auth.SignupInput) (*domain.User, auth.TokenPair, error) {
	args := m.Called(ctx, in)
	var u *domain.User
	if args.Get(0) != nil {
		u = args.Get(0).(*domain.User)
	}
	return u, args.Get(1).(auth.TokenPair), args.Error(2)
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (*domain.User, auth.TokenPair, error) {
	args := m.Called(ctx, email, password)
	var u *domain.User
	if args.Get(0) != nil {
		u = args.Get(0).(*domain.User)
	}
	return u, args.Get(1).(auth.TokenPair), args.Error(2)
}

func (m *MockAuthService) Refresh(ctx context.Context, refreshToken string) (auth.TokenPair, error) {
	args := m.Called(ctx, refreshToken)
	return args.Get(0).(auth.TokenPair), args.Error(1)
}

func (m *MockAuthService) Authenticate(accessToken string) (*auth.Claims, error) {
	if accessToken != testAccessToken {
		return nil, auth.ErrInvalidToken
	}
	return &auth.Claims{UserID: 42, Email: "staff@example.com", TokenType: auth.TokenTypeAccess}, nil
}

func (m *MockAuthService) Profile(ctx context.Context, userID int64) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

// MockBlobStore is a mock implementation of blob.Store
type MockBlobStore struct {
	mock.Mock
}

func (m *MockBlobStore) Put(ctx context.Context, data []byte, ext string) (string, error) {
	args := m.Called(ctx, data, ext)
	return args.String(0), args.Error(1)
}

type testMocks struct {
	products *MockProductService
	reviews  *MockReviewService
	auth     *MockAuthService
	blobs    *MockBlobStore
}

// Helper for setting up tests with a chi router and handler
func setupTestChiServer(t *testing.T) (*httptest.Server, *testMocks) {
	t.Helper()
	m := &testMocks{
		products: new(MockProductService),
		reviews:  new(MockReviewService),
		auth:     new(MockAuthService),
		blobs:    new(MockBlobStore),
	}
	handler := NewHTTPHandler(m.products, m.reviews, m.auth, m.blobs, 1<<20)
	router := chi.NewRouter()
	router.Use(Metrics)
	handler.RegisterRoutes(router)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server, m
}

func newAuthedRequest(t *testing.T, method, url string, body []byte) *http.Request {
	t.Helper()
	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+testAccessToken)
	return req
}

func PtrTo[T any](v T) *T {
	return &v
}
