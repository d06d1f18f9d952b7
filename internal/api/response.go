package api

import (
	"time"

	"storefront-catalog-service/internal/domain"
)

const reviewDateLayout = "2006-01-02"

// productSummary is the list representation of a product.
type productSummary struct {
	ID       int64           `json:"id"`
	Name     string          `json:"name"`
	Category domain.Category `json:"category"`
	Price    string          `json:"price"`
	Image    string          `json:"image"`
	Alt      string          `json:"alt"`
	Rating   string          `json:"rating"`
	InStock  bool            `json:"inStock"`
}

type productDetail struct {
	ID              int64                    `json:"id"`
	Name            string                   `json:"name"`
	Category        domain.Category          `json:"category"`
	Price           string                   `json:"price"`
	Image           string                   `json:"image"`
	Alt             string                   `json:"alt"`
	Description     *string                  `json:"description"`
	MainDescription *string                  `json:"main_description"`
	SubDescriptions []subDescriptionResponse `json:"sub_descriptions"`
	Dimensions      *string                  `json:"dimensions"`
	Material        *string                  `json:"material"`
	Weight          *string                  `json:"weight"`
	InStock         bool                     `json:"inStock"`
	Thumbnails      []string                 `json:"thumbnails"`
	Reviews         []reviewResponse         `json:"reviews"`
	Rating          string                   `json:"rating"`
	CreatedAt       time.Time                `json:"created_at"`
	UpdatedAt       time.Time                `json:"updated_at"`
}

type subDescriptionResponse struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type reviewResponse struct {
	ID       int64  `json:"id"`
	UserName string `json:"userName"`
	Rating   int    `json:"rating"`
	Comment  string `json:"comment"`
	Date     string `json:"date"`
}

type userResponse struct {
	ID         int64     `json:"id"`
	Email      string    `json:"email"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	DateJoined time.Time `json:"date_joined"`
}

func newProductSummary(p *domain.Product) productSummary {
	return productSummary{
		ID:       p.ID,
		Name:     p.Name,
		Category: p.Category,
		Price:    p.Price.StringFixed(2),
		Image:    p.Image,
		Alt:      p.Alt,
		Rating:   p.Rating.StringFixed(2),
		InStock:  p.InStock,
	}
}

func newProductSummaries(products []domain.Product) []productSummary {
	out := make([]productSummary, 0, len(products))
	for i := range products {
		out = append(out, newProductSummary(&products[i]))
	}
	return out
}

// newProductDetail renders the aggregate. Collections are never null.
func newProductDetail(p *domain.Product) productDetail {
	d := productDetail{
		ID:              p.ID,
		Name:            p.Name,
		Category:        p.Category,
		Price:           p.Price.StringFixed(2),
		Image:           p.Image,
		Alt:             p.Alt,
		Description:     p.Description,
		MainDescription: p.MainDescription,
		SubDescriptions: make([]subDescriptionResponse, 0, len(p.SubDescriptions)),
		Dimensions:      p.Dimensions,
		Material:        p.Material,
		Weight:          p.Weight,
		InStock:         p.InStock,
		Thumbnails:      make([]string, 0, len(p.Thumbnails)),
		Reviews:         make([]reviewResponse, 0, len(p.Reviews)),
		Rating:          p.Rating.StringFixed(2),
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
	for _, sd := range p.SubDescriptions {
		d.SubDescriptions = append(d.SubDescriptions, subDescriptionResponse{Title: sd.Title, Body: sd.Body})
	}
	for _, th := range p.Thumbnails {
		d.Thumbnails = append(d.Thumbnails, th.ImageURL)
	}
	for i := range p.Reviews {
		d.Reviews = append(d.Reviews, newReviewResponse(&p.Reviews[i]))
	}
	return d
}

func newReviewResponse(r *domain.Review) reviewResponse {
	return reviewResponse{
		ID:       r.ID,
		UserName: r.UserName,
		Rating:   r.Rating,
		Comment:  r.Comment,
		Date:     r.Date.UTC().Format(reviewDateLayout),
	}
}

func newUserResponse(u *domain.User) userResponse {
	return userResponse{
		ID:         u.ID,
		Email:      u.Email,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		DateJoined: u.DateJoined,
	}
}
