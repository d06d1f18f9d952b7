package api

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"storefront-catalog-service/internal/domain"
	"storefront-catalog-service/internal/service"
)

// fieldAlias maps the accepted external names of a field onto its canonical
// name. Earlier sources win; a null or empty-string value counts as absent.
type fieldAlias struct {
	canonical string
	sources   []string
}

var productAliases = []fieldAlias{
	{canonical: "in_stock", sources: []string{"inStock", "in_stock"}},
	{canonical: "sub_descriptions", sources: []string{"sub_descriptions", "subDescriptions"}},
}

var reviewAliases = []fieldAlias{
	{canonical: "user_name", sources: []string{"userName", "user_name"}},
}

func isAbsent(v json.RawMessage) bool {
	v = bytes.TrimSpace(v)
	return len(v) == 0 || bytes.Equal(v, []byte("null")) || bytes.Equal(v, []byte(`""`))
}

func applyAliases(obj map[string]json.RawMessage, aliases []fieldAlias) {
	for _, a := range aliases {
		var chosen json.RawMessage
		for _, src := range a.sources {
			v, ok := obj[src]
			if !ok {
				continue
			}
			delete(obj, src)
			if chosen == nil && !isAbsent(v) {
				chosen = v
			}
		}
		if chosen != nil {
			obj[a.canonical] = chosen
		}
	}
}

// normalizeProductJSON rewrites a product payload, including each nested
// review, to canonical field names.
func normalizeProductJSON(body []byte) ([]byte, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, fmt.Errorf("expected a JSON object")
	}
	applyAliases(obj, productAliases)

	if raw, ok := obj["reviews"]; ok && !isAbsent(raw) {
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("reviews: %w", err)
		}
		for i, item := range items {
			// A null entry carries no comment, so it is kept as {} and skipped downstream.
			if bytes.Equal(bytes.TrimSpace(item), []byte("null")) {
				items[i] = json.RawMessage(`{}`)
				continue
			}
			normalized, err := normalizeReviewJSON(item)
			if err != nil {
				return nil, fmt.Errorf("reviews[%d]: %w", i, err)
			}
			items[i] = normalized
		}
		encoded, err := json.Marshal(items)
		if err != nil {
			return nil, err
		}
		obj["reviews"] = encoded
	}
	return json.Marshal(obj)
}

func normalizeReviewJSON(body []byte) ([]byte, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, fmt.Errorf("expected a JSON object")
	}
	applyAliases(obj, reviewAliases)
	return json.Marshal(obj)
}

// productRequest is the canonical product payload. Pointer fields distinguish
// "not sent" from zero values; a JSON null decodes as not sent.
type productRequest struct {
	Name            *string                  `json:"name" validate:"omitempty,max=255"`
	Category        *string                  `json:"category" validate:"omitempty,category"`
	Price           *decimal.Decimal         `json:"price"`
	Image           *string                  `json:"image" validate:"omitempty,max=500"`
	Alt             *string                  `json:"alt" validate:"omitempty,max=255"`
	Description     *string                  `json:"description"`
	MainDescription *string                  `json:"main_description"`
	Dimensions      *string                  `json:"dimensions" validate:"omitempty,max=100"`
	Material        *string                  `json:"material" validate:"omitempty,max=100"`
	Weight          *string                  `json:"weight" validate:"omitempty,max=50"`
	InStock         *bool                    `json:"in_stock"`
	SubDescriptions *[]subDescriptionRequest `json:"sub_descriptions" validate:"omitempty,dive"`
	Thumbnails      *[]string                `json:"thumbnails" validate:"omitempty,dive,max=500"`
	Reviews         *[]reviewRequest         `json:"reviews" validate:"omitempty,dive"`
}

type subDescriptionRequest struct {
	Title string `json:"title" validate:"max=255"`
	Body  string `json:"body"`
}

type reviewRequest struct {
	UserName string `json:"user_name" validate:"max=100"`
	Rating   *int   `json:"rating" validate:"omitempty,min=1,max=5"`
	Comment  string `json:"comment"`
}

func decodeProductRequest(body []byte) (*productRequest, error) {
	normalized, err := normalizeProductJSON(body)
	if err != nil {
		return nil, err
	}
	var req productRequest
	if err := json.Unmarshal(normalized, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

func decodeReviewRequest(body []byte) (*reviewRequest, error) {
	normalized, err := normalizeReviewJSON(body)
	if err != nil {
		return nil, err
	}
	var req reviewRequest
	if err := json.Unmarshal(normalized, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

// checkCreate reports the fields a new product must carry.
func (req *productRequest) checkCreate() map[string]string {
	fields := map[string]string{}
	if req.Name == nil || *req.Name == "" {
		fields["name"] = "This field is required."
	}
	if req.Category == nil {
		fields["category"] = "This field is required."
	}
	if req.Price == nil {
		fields["price"] = "This field is required."
	}
	if req.Image == nil || *req.Image == "" {
		fields["image"] = "This field is required."
	}
	return fields
}

func (req *productRequest) checkPrice(fields map[string]string) {
	if req.Price == nil {
		return
	}
	if msg := domain.PriceProblem(*req.Price); msg != "" {
		fields["price"] = msg
	}
}

func (req *productRequest) fields() service.ProductFields {
	f := service.ProductFields{
		Name:            req.Name,
		Price:           req.Price,
		Image:           req.Image,
		Alt:             req.Alt,
		Description:     req.Description,
		MainDescription: req.MainDescription,
		Dimensions:      req.Dimensions,
		Material:        req.Material,
		Weight:          req.Weight,
		InStock:         req.InStock,
	}
	if req.Category != nil {
		c := domain.Category(*req.Category)
		f.Category = &c
	}
	return f
}

func (req *productRequest) subDescriptions() []service.SubDescriptionInput {
	if req.SubDescriptions == nil {
		return nil
	}
	out := make([]service.SubDescriptionInput, 0, len(*req.SubDescriptions))
	for _, sd := range *req.SubDescriptions {
		out = append(out, service.SubDescriptionInput{Title: sd.Title, Body: sd.Body})
	}
	return out
}

func (req *productRequest) reviews() []service.ReviewInput {
	if req.Reviews == nil {
		return nil
	}
	out := make([]service.ReviewInput, 0, len(*req.Reviews))
	for _, rv := range *req.Reviews {
		out = append(out, rv.input())
	}
	return out
}

func (req *productRequest) createInput() service.CreateProductInput {
	in := service.CreateProductInput{
		ProductFields:   req.fields(),
		SubDescriptions: req.subDescriptions(),
		Reviews:         req.reviews(),
	}
	if req.Thumbnails != nil {
		in.Thumbnails = *req.Thumbnails
	}
	return in
}

func (req *productRequest) updateInput() service.UpdateProductInput {
	in := service.UpdateProductInput{ProductFields: req.fields(), Thumbnails: req.Thumbnails}
	if req.SubDescriptions != nil {
		subs := req.subDescriptions()
		in.SubDescriptions = &subs
	}
	if req.Reviews != nil {
		reviews := req.reviews()
		in.Reviews = &reviews
	}
	return in
}

func (req reviewRequest) input() service.ReviewInput {
	return service.ReviewInput{UserName: req.UserName, Rating: req.Rating, Comment: req.Comment}
}
