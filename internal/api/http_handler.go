package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"storefront-catalog-service/internal/auth"
	"storefront-catalog-service/internal/blob"
	"storefront-catalog-service/internal/domain"
	"storefront-catalog-service/internal/service"
	"storefront-catalog-service/internal/store"
)

// ProductServicer is the product aggregate API the handlers depend on.
type ProductServicer interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	CreateProduct(ctx context.Context, in service.CreateProductInput) (*domain.Product, error)
	UpdateProduct(ctx context.Context, id int64, in service.UpdateProductInput) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
}

type ReviewServicer interface {
	AddReview(ctx context.Context, productID int64, in service.ReviewInput) (*domain.Review, error)
}

type AuthServicer interface {
	Signup(ctx context.Context, in auth.SignupInput) (*domain.User, auth.TokenPair, error)
	Login(ctx context.Context, email, password string) (*domain.User, auth.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (auth.TokenPair, error)
	Authenticate(accessToken string) (*auth.Claims, error)
	Profile(ctx context.Context, userID int64) (*domain.User, error)
}

// Error codes carried in every error body.
const (
	codeBadRequest   = "BAD_REQUEST"
	codeValidation   = "VALIDATION_ERROR"
	codeNotFound     = "NOT_FOUND"
	codeUnauthorized = "UNAUTHORIZED"
	codeConflict     = "CONFLICT"
	codeInternal     = "INTERNAL_ERROR"
)

const maxJSONBodyBytes = 1 << 20

// HTTPHandler holds dependencies for HTTP handlers.
type HTTPHandler struct {
	products       ProductServicer
	reviews        ReviewServicer
	auth           AuthServicer
	blobs          blob.Store
	validate       *validator.Validate
	maxUploadBytes int64
}

// NewHTTPHandler creates a new HTTPHandler with dependencies.
func NewHTTPHandler(products ProductServicer, reviews ReviewServicer, authSvc AuthServicer, blobs blob.Store, maxUploadBytes int64) *HTTPHandler {
	return &HTTPHandler{
		products:       products,
		reviews:        reviews,
		auth:           authSvc,
		blobs:          blobs,
		validate:       newValidator(),
		maxUploadBytes: maxUploadBytes,
	}
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		return domain.Category(fl.Field().String()).Valid()
	})
	return v
}

// --- Helpers ---

// ErrorResponse defines the structure for JSON error responses.
type ErrorResponse struct {
	Error  string            `json:"error"`
	Code   string            `json:"code"`
	Fields map[string]string `json:"fields,omitempty"`
}

func respondWithError(w http.ResponseWriter, status int, code, message string) {
	respondWithJSON(w, status, ErrorResponse{Error: message, Code: code})
}

func respondWithFieldErrors(w http.ResponseWriter, fields map[string]string) {
	respondWithJSON(w, http.StatusBadRequest, ErrorResponse{
		Error:  "Validation failed",
		Code:   codeValidation,
		Fields: fields,
	})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil { // Avoid writing empty body for 204 No Content
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			log.Printf("ERROR: Failed to encode JSON response: %v", err)
		}
	}
}

// respondWithServiceError maps service, store and auth errors onto HTTP responses.
// Unexpected errors are logged with op and reported as a generic 500.
func respondWithServiceError(w http.ResponseWriter, op string, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		respondWithFieldErrors(w, verr.Fields)
	case errors.Is(err, store.ErrProductNotFound):
		respondWithError(w, http.StatusNotFound, codeNotFound, "Product not found")
	case errors.Is(err, store.ErrUserNotFound):
		respondWithError(w, http.StatusNotFound, codeNotFound, "User not found")
	case errors.Is(err, store.ErrUserEmailExists):
		respondWithError(w, http.StatusConflict, codeConflict, "A user with this email already exists")
	case errors.Is(err, auth.ErrPasswordMismatch):
		respondWithFieldErrors(w, map[string]string{"confirm_password": "Passwords do not match"})
	case errors.Is(err, auth.ErrInvalidCredentials):
		respondWithError(w, http.StatusUnauthorized, codeUnauthorized, "Invalid email or password")
	case errors.Is(err, auth.ErrInvalidToken):
		respondWithError(w, http.StatusUnauthorized, codeUnauthorized, "Token is invalid or expired")
	default:
		log.Printf("ERROR: %s failed: %v", op, err)
		respondWithError(w, http.StatusInternalServerError, codeInternal, "Internal server error")
	}
}

func readJSONBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	defer r.Body.Close()
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxJSONBodyBytes))
	if err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil, errors.New("empty request body")
	}
	return body, nil
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body, err := readJSONBody(w, r)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, dst)
}

// validateRequest returns field errors keyed by JSON path, or nil.
func (h *HTTPHandler) validateRequest(v any) map[string]string {
	err := h.validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"non_field_errors": err.Error()}
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		ns := fe.Namespace()
		if i := strings.IndexByte(ns, '.'); i >= 0 {
			ns = ns[i+1:]
		}
		fields[ns] = msgForTag(fe)
	}
	return fields
}

func msgForTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Ensure this field has at least %s characters.", fe.Param())
		}
		return fmt.Sprintf("Ensure this value is greater than or equal to %s.", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
		}
		return fmt.Sprintf("Ensure this value is less than or equal to %s.", fe.Param())
	case "category":
		return fmt.Sprintf("%q is not a valid choice.", fe.Value())
	default:
		return fmt.Sprintf("failed on '%s' validation", fe.Tag())
	}
}

func parseProductID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "productId"), 10, 64)
	if err != nil || productID <= 0 {
		respondWithError(w, http.StatusBadRequest, codeBadRequest, "Invalid product ID format")
		return 0, false
	}
	return productID, true
}

// --- Product Handlers ---

func (h *HTTPHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.ListProducts(r.Context())
	if err != nil {
		respondWithServiceError(w, "ListProducts", err)
		return
	}
	respondWithJSON(w, http.StatusOK, newProductSummaries(products))
}

func (h *HTTPHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	productID, ok := parseProductID(w, r)
	if !ok {
		return
	}
	product, err := h.products.GetProduct(r.Context(), productID)
	if err != nil {
		respondWithServiceError(w, fmt.Sprintf("GetProduct %d", productID), err)
		return
	}
	respondWithJSON(w, http.StatusOK, newProductDetail(product))
}

func (h *HTTPHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeProduct(w, r, true)
	if !ok {
		return
	}
	product, err := h.products.CreateProduct(r.Context(), req.createInput())
	if err != nil {
		respondWithServiceError(w, "CreateProduct", err)
		return
	}
	respondWithJSON(w, http.StatusCreated, newProductDetail(product))
}

// UpdateProduct serves both PUT and PATCH. Only supplied fields and collections change.
func (h *HTTPHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	productID, ok := parseProductID(w, r)
	if !ok {
		return
	}
	req, ok := h.decodeProduct(w, r, false)
	if !ok {
		return
	}
	product, err := h.products.UpdateProduct(r.Context(), productID, req.updateInput())
	if err != nil {
		respondWithServiceError(w, fmt.Sprintf("UpdateProduct %d", productID), err)
		return
	}
	respondWithJSON(w, http.StatusOK, newProductDetail(product))
}

func (h *HTTPHandler) decodeProduct(w http.ResponseWriter, r *http.Request, creating bool) (*productRequest, bool) {
	body, err := readJSONBody(w, r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, codeBadRequest, "Invalid request payload: "+err.Error())
		return nil, false
	}
	req, err := decodeProductRequest(body)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, codeBadRequest, "Invalid request payload: "+err.Error())
		return nil, false
	}

	fields := map[string]string{}
	if creating {
		fields = req.checkCreate()
	}
	req.checkPrice(fields)
	for k, v := range h.validateRequest(req) {
		if _, exists := fields[k]; !exists {
			fields[k] = v
		}
	}
	if len(fields) > 0 {
		respondWithFieldErrors(w, fields)
		return nil, false
	}
	return req, true
}

func (h *HTTPHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	productID, ok := parseProductID(w, r)
	if !ok {
		return
	}
	if err := h.products.DeleteProduct(r.Context(), productID); err != nil {
		respondWithServiceError(w, fmt.Sprintf("DeleteProduct %d", productID), err)
		return
	}
	respondWithJSON(w, http.StatusNoContent, nil)
}

// AddReview is public; anyone may review a product.
func (h *HTTPHandler) AddReview(w http.ResponseWriter, r *http.Request) {
	productID, ok := parseProductID(w, r)
	if !ok {
		return
	}
	body, err := readJSONBody(w, r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, codeBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	req, err := decodeReviewRequest(body)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, codeBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	fields := h.validateRequest(req)
	if req.Comment == "" {
		if fields == nil {
			fields = map[string]string{}
		}
		fields["comment"] = "This field may not be blank."
	}
	if len(fields) > 0 {
		respondWithFieldErrors(w, fields)
		return
	}

	review, err := h.reviews.AddReview(r.Context(), productID, req.input())
	if err != nil {
		respondWithServiceError(w, fmt.Sprintf("AddReview %d", productID), err)
		return
	}
	respondWithJSON(w, http.StatusCreated, newReviewResponse(review))
}

// --- Route Registration ---

// RegisterRoutes sets up the HTTP routes for the service. Every route is
// reachable with or without a trailing slash, at the root and under /api.
func (h *HTTPHandler) RegisterRoutes(r chi.Router) {
	r.Use(middleware.StripSlashes)

	h.catalogRoutes(r)
	h.authRoutes(r)
	r.Route("/api", func(r chi.Router) {
		h.catalogRoutes(r)
		r.Route("/auth", h.authRoutes)
	})
}

func (h *HTTPHandler) catalogRoutes(r chi.Router) {
	r.Get("/products", h.ListProducts)
	r.Get("/products/{productId}", h.GetProduct)
	r.Post("/products/{productId}/add_review", h.AddReview)
	r.Post("/upload-image", h.UploadImage)

	r.Group(func(r chi.Router) {
		r.Use(h.RequireAuth)
		r.Post("/products", h.CreateProduct)
		r.Put("/products/{productId}", h.UpdateProduct)
		r.Patch("/products/{productId}", h.UpdateProduct)
		r.Delete("/products/{productId}", h.DeleteProduct)
	})
}

func (h *HTTPHandler) authRoutes(r chi.Router) {
	r.Post("/signup", h.Signup)
	r.Post("/login", h.Login)
	r.Post("/token/refresh", h.RefreshToken)
	r.With(h.RequireAuth).Get("/profile", h.Profile)
}
