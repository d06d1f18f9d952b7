package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"storefront-catalog-service/internal/domain"
	"storefront-catalog-service/internal/service"
	"storefront-catalog-service/internal/store"
)

func sampleProduct() *domain.Product {
	created := time.Date(2024, 3, 5, 10, 30, 0, 0, time.UTC)
	return &domain.Product{
		ID:          12,
		Name:        "Silver Lakshmi Idol",
		Category:    domain.CategoryIdols,
		Price:       decimal.RequireFromString("2499.5"),
		Image:       "https://cdn.example.com/lakshmi.jpg",
		Alt:         "Silver Lakshmi",
		Description: PtrTo("Silver plated"),
		InStock:     true,
		Rating:      decimal.RequireFromString("4"),
		CreatedAt:   created,
		UpdatedAt:   created,
		SubDescriptions: []domain.SubDescription{
			{ID: 1, Title: "Finish", Body: "Antique", Order: 0},
		},
		Thumbnails: []domain.Thumbnail{
			{ID: 1, ImageURL: "a.jpg", Order: 0},
			{ID: 2, ImageURL: "b.jpg", Order: 1},
		},
		Reviews: []domain.Review{
			{ID: 9, UserName: "Meera", Rating: 5, Comment: "Lovely", Date: created.Add(48 * time.Hour)},
			{ID: 8, UserName: "Anonymous", Rating: 3, Comment: "Okay", Date: created},
		},
	}
}

func decodeError(t *testing.T, res *http.Response) ErrorResponse {
	t.Helper()
	var body ErrorResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	return body
}

func TestHTTPHandler_ListProducts_PublicSummary(t *testing.T) {
	server, m := setupTestChiServer(t)

	p := sampleProduct()
	m.products.On("ListProducts", mock.Anything).Return([]domain.Product{*p}, nil)

	for _, path := range []string{"/products/", "/products", "/api/products/"} {
		res, err := http.Get(server.URL + path)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, res.StatusCode, path)

		var items []map[string]any
		require.NoError(t, json.NewDecoder(res.Body).Decode(&items))
		res.Body.Close()

		require.Len(t, items, 1)
		item := items[0]
		assert.Len(t, item, 8, "summary carries exactly the list fields")
		assert.Equal(t, "2499.50", item["price"])
		assert.Equal(t, "4.00", item["rating"])
		assert.Equal(t, true, item["inStock"])
		assert.Equal(t, "Idols", item["category"])
	}
}

func TestHTTPHandler_GetProduct_DetailShapeAndIdempotentReads(t *testing.T) {
	server, m := setupTestChiServer(t)
	m.products.On("GetProduct", mock.Anything, int64(12)).Return(sampleProduct(), nil)

	read := func() []byte {
		res, err := http.Get(server.URL + "/products/12/")
		require.NoError(t, err)
		defer res.Body.Close()
		require.Equal(t, http.StatusOK, res.StatusCode)
		body, err := io.ReadAll(res.Body)
		require.NoError(t, err)
		return body
	}
	first, second := read(), read()
	assert.Equal(t, first, second)

	var detail map[string]any
	require.NoError(t, json.Unmarshal(first, &detail))
	assert.Equal(t, "2499.50", detail["price"])
	assert.Equal(t, "4.00", detail["rating"])
	assert.Equal(t, []any{"a.jpg", "b.jpg"}, detail["thumbnails"])
	assert.Equal(t, []any{map[string]any{"title": "Finish", "body": "Antique"}}, detail["sub_descriptions"])
	assert.Nil(t, detail["main_description"])

	reviews := detail["reviews"].([]any)
	require.Len(t, reviews, 2)
	newest := reviews[0].(map[string]any)
	assert.Equal(t, "Meera", newest["userName"])
	assert.Equal(t, "2024-03-07", newest["date"])
}

func TestHTTPHandler_GetProduct_NotFoundAndBadID(t *testing.T) {
	server, m := setupTestChiServer(t)
	m.products.On("GetProduct", mock.Anything, int64(999)).Return(nil, store.ErrProductNotFound)

	res, err := http.Get(server.URL + "/products/999/")
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	body := decodeError(t, res)
	assert.Equal(t, codeNotFound, body.Code)
	assert.NotEmpty(t, body.Error)

	res2, err := http.Get(server.URL + "/products/abc/")
	require.NoError(t, err)
	defer res2.Body.Close()
	assert.Equal(t, http.StatusBadRequest, res2.StatusCode)
}

func TestHTTPHandler_CreateProduct_RequiresAuth(t *testing.T) {
	server, m := setupTestChiServer(t)

	res, err := http.Post(server.URL+"/products/", "application/json", bytes.NewBufferString(`{"name":"x"}`))
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	assert.Equal(t, codeUnauthorized, decodeError(t, res).Code)

	req := newAuthedRequest(t, http.MethodPost, server.URL+"/products/", []byte(`{"name":"x"}`))
	req.Header.Set("Authorization", "Bearer forged")
	res2, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res2.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, res2.StatusCode)

	m.products.AssertNotCalled(t, "CreateProduct", mock.Anything, mock.Anything)
}

func TestHTTPHandler_CreateProduct_MapsAliases(t *testing.T) {
	server, m := setupTestChiServer(t)

	payload := `{
		"name": "Silver Lakshmi Idol",
		"category": "Idols",
		"price": "2499.50",
		"image": "https://cdn.example.com/lakshmi.jpg",
		"inStock": false,
		"subDescriptions": [{"title": "Finish", "body": "Antique"}, {"title": "", "body": ""}],
		"thumbnails": ["a.jpg", "b.jpg"],
		"reviews": [{"userName": "Meera", "rating": 5, "comment": "Lovely"}, {"user_name": "Ravi", "comment": "Good"}]
	}`

	m.products.On("CreateProduct", mock.Anything, mock.MatchedBy(func(in service.CreateProductInput) bool {
		return *in.Name == "Silver Lakshmi Idol" &&
			*in.Category == domain.CategoryIdols &&
			in.Price.Equal(decimal.RequireFromString("2499.5")) &&
			in.InStock != nil && !*in.InStock &&
			len(in.SubDescriptions) == 2 &&
			len(in.Thumbnails) == 2 &&
			len(in.Reviews) == 2 &&
			in.Reviews[0].UserName == "Meera" && *in.Reviews[0].Rating == 5 &&
			in.Reviews[1].UserName == "Ravi" && in.Reviews[1].Rating == nil
	})).Return(sampleProduct(), nil).Once()

	res, err := http.DefaultClient.Do(newAuthedRequest(t, http.MethodPost, server.URL+"/products/", []byte(payload)))
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusCreated, res.StatusCode)

	var detail map[string]any
	require.NoError(t, json.NewDecoder(res.Body).Decode(&detail))
	assert.Equal(t, float64(12), detail["id"])
	m.products.AssertExpectations(t)
}

func TestHTTPHandler_CreateProduct_FieldErrors(t *testing.T) {
	server, m := setupTestChiServer(t)

	payload := `{"category": "Furniture", "price": "-3", "reviews": [{"rating": 7, "comment": "x"}]}`
	res, err := http.DefaultClient.Do(newAuthedRequest(t, http.MethodPost, server.URL+"/api/products/", []byte(payload)))
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusBadRequest, res.StatusCode)

	body := decodeError(t, res)
	assert.Equal(t, codeValidation, body.Code)
	for _, field := range []string{"name", "image", "price", "category", "reviews[0].rating"} {
		assert.Contains(t, body.Fields, field)
	}
	m.products.AssertNotCalled(t, "CreateProduct", mock.Anything, mock.Anything)
}

func TestHTTPHandler_CreateProduct_PriceOutsideColumnRange(t *testing.T) {
	server, m := setupTestChiServer(t)

	tests := []struct {
		name  string
		price string
		want  string
	}{
		{"too many integer digits", `"123456789012.00"`, "Ensure that there are no more than 8 digits before the decimal point."},
		{"too many decimal places", `"9.999"`, "Ensure that there are no more than 2 decimal places."},
		{"numeric literal with three places", `9.999`, "Ensure that there are no more than 2 decimal places."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := `{"name": "Frame", "category": "Photo Frames", "image": "f.jpg", "price": ` + tt.price + `}`
			res, err := http.DefaultClient.Do(newAuthedRequest(t, http.MethodPost, server.URL+"/products", []byte(payload)))
			require.NoError(t, err)
			defer res.Body.Close()
			require.Equal(t, http.StatusBadRequest, res.StatusCode)

			body := decodeError(t, res)
			assert.Equal(t, codeValidation, body.Code)
			assert.Equal(t, tt.want, body.Fields["price"])
		})
	}
	m.products.AssertNotCalled(t, "CreateProduct", mock.Anything, mock.Anything)
}

func TestHTTPHandler_UpdateProduct_PriceOutsideColumnRange(t *testing.T) {
	server, m := setupTestChiServer(t)

	res, err := http.DefaultClient.Do(newAuthedRequest(t, http.MethodPatch, server.URL+"/products/12", []byte(`{"price": "100000000"}`)))
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Contains(t, decodeError(t, res).Fields, "price")
	m.products.AssertNotCalled(t, "UpdateProduct", mock.Anything, mock.Anything, mock.Anything)
}

func TestHTTPHandler_CreateProduct_MalformedJSON(t *testing.T) {
	server, _ := setupTestChiServer(t)

	res, err := http.DefaultClient.Do(newAuthedRequest(t, http.MethodPost, server.URL+"/products/", []byte(`{"name":`)))
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Equal(t, codeBadRequest, decodeError(t, res).Code)
}

func TestHTTPHandler_UpdateProduct_AbsentVersusEmptyCollections(t *testing.T) {
	server, m := setupTestChiServer(t)

	m.products.On("UpdateProduct", mock.Anything, int64(12), mock.MatchedBy(func(in service.UpdateProductInput) bool {
		return in.Reviews != nil && len(*in.Reviews) == 0 &&
			in.Thumbnails == nil &&
			in.SubDescriptions == nil &&
			*in.Name == "Renamed" &&
			in.Price == nil
	})).Return(sampleProduct(), nil).Once()

	payload := `{"name": "Renamed", "reviews": [], "thumbnails": null}`
	res, err := http.DefaultClient.Do(newAuthedRequest(t, http.MethodPatch, server.URL+"/products/12/", []byte(payload)))
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
	m.products.AssertExpectations(t)
}

func TestHTTPHandler_UpdateProduct_SnakeCaseSubDescriptionsWin(t *testing.T) {
	server, m := setupTestChiServer(t)

	m.products.On("UpdateProduct", mock.Anything, int64(12), mock.MatchedBy(func(in service.UpdateProductInput) bool {
		return in.SubDescriptions != nil && len(*in.SubDescriptions) == 1 && (*in.SubDescriptions)[0].Title == "snake"
	})).Return(sampleProduct(), nil).Once()

	payload := `{"sub_descriptions": [{"title": "snake", "body": ""}], "subDescriptions": [{"title": "camel"}, {"title": "camel2"}]}`
	res, err := http.DefaultClient.Do(newAuthedRequest(t, http.MethodPut, server.URL+"/products/12", []byte(payload)))
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
	m.products.AssertExpectations(t)
}

func TestHTTPHandler_UpdateProduct_CamelCaseEmptySubDescriptions(t *testing.T) {
	server, m := setupTestChiServer(t)

	m.products.On("UpdateProduct", mock.Anything, int64(12), mock.MatchedBy(func(in service.UpdateProductInput) bool {
		return in.SubDescriptions != nil && len(*in.SubDescriptions) == 0 &&
			in.Thumbnails == nil && in.Reviews == nil
	})).Return(sampleProduct(), nil).Once()

	res, err := http.DefaultClient.Do(newAuthedRequest(t, http.MethodPatch, server.URL+"/products/12", []byte(`{"subDescriptions": []}`)))
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
	m.products.AssertExpectations(t)
}

func TestHTTPHandler_UpdateProduct_BlankSubDescriptionPassedThrough(t *testing.T) {
	server, m := setupTestChiServer(t)

	m.products.On("UpdateProduct", mock.Anything, int64(12), mock.MatchedBy(func(in service.UpdateProductInput) bool {
		if in.SubDescriptions == nil || len(*in.SubDescriptions) != 2 {
			return false
		}
		subs := *in.SubDescriptions
		return subs[0] == service.SubDescriptionInput{} && subs[1].Title == "Care"
	})).Return(sampleProduct(), nil).Once()

	payload := `{"subDescriptions": [{"title": "", "body": ""}, {"title": "Care", "body": "Dry cloth"}]}`
	res, err := http.DefaultClient.Do(newAuthedRequest(t, http.MethodPut, server.URL+"/products/12", []byte(payload)))
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
	m.products.AssertExpectations(t)
}

func TestHTTPHandler_DeleteProduct(t *testing.T) {
	server, m := setupTestChiServer(t)
	m.products.On("DeleteProduct", mock.Anything, int64(12)).Return(nil).Once()
	m.products.On("DeleteProduct", mock.Anything, int64(13)).Return(store.ErrProductNotFound).Once()

	res, err := http.DefaultClient.Do(newAuthedRequest(t, http.MethodDelete, server.URL+"/products/12/", nil))
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusNoContent, res.StatusCode)

	res, err = http.DefaultClient.Do(newAuthedRequest(t, http.MethodDelete, server.URL+"/products/13/", nil))
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestHTTPHandler_AddReview(t *testing.T) {
	server, m := setupTestChiServer(t)

	m.reviews.On("AddReview", mock.Anything, int64(12), service.ReviewInput{UserName: "Meera", Rating: PtrTo(4), Comment: "Nice"}).
		Return(&domain.Review{ID: 30, ProductID: 12, UserName: "Meera", Rating: 4, Comment: "Nice", Date: time.Date(2025, 1, 2, 23, 0, 0, 0, time.UTC)}, nil).Once()

	res, err := http.Post(server.URL+"/products/12/add_review/", "application/json",
		bytes.NewBufferString(`{"userName": "Meera", "user_name": "ignored", "rating": 4, "comment": "Nice"}`))
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusCreated, res.StatusCode)

	var review map[string]any
	require.NoError(t, json.NewDecoder(res.Body).Decode(&review))
	assert.Equal(t, "Meera", review["userName"])
	assert.Equal(t, "2025-01-02", review["date"])
	m.reviews.AssertExpectations(t)
}

func TestHTTPHandler_AddReview_Validation(t *testing.T) {
	server, m := setupTestChiServer(t)

	res, err := http.Post(server.URL+"/products/12/add_review/", "application/json", bytes.NewBufferString(`{"rating": 0, "comment": ""}`))
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusBadRequest, res.StatusCode)

	body := decodeError(t, res)
	assert.Contains(t, body.Fields, "comment")
	assert.Contains(t, body.Fields, "rating")
	m.reviews.AssertNotCalled(t, "AddReview", mock.Anything, mock.Anything, mock.Anything)
}

func TestHTTPHandler_AddReview_UnknownProduct(t *testing.T) {
	server, m := setupTestChiServer(t)
	m.reviews.On("AddReview", mock.Anything, int64(77), mock.Anything).Return(nil, store.ErrProductNotFound).Once()

	res, err := http.Post(server.URL+"/products/77/add_review/", "application/json", bytes.NewBufferString(`{"comment": "Hello"}`))
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestHTTPHandler_InternalErrorsAreGeneric(t *testing.T) {
	server, m := setupTestChiServer(t)
	m.products.On("ListProducts", mock.Anything).Return(nil, errors.New("pq: password authentication failed for user catalog"))

	res, err := http.Get(server.URL + "/products/")
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusInternalServerError, res.StatusCode)

	body := decodeError(t, res)
	assert.Equal(t, codeInternal, body.Code)
	assert.NotContains(t, body.Error, "pq:")
}
