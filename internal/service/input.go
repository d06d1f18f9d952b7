package service

import (
	"fmt"

	"github.com/shopspring/decimal"

	"storefront-catalog-service/internal/domain"
)

// ProductFields carries the scalar product fields. A nil field is not supplied.
type ProductFields struct {
	Name            *string
	Category        *domain.Category
	Price           *decimal.Decimal
	Image           *string
	Alt             *string
	Description     *string
	MainDescription *string
	Dimensions      *string
	Material        *string
	Weight          *string
	InStock         *bool
}

type SubDescriptionInput struct {
	Title string
	Body  string
}

// ReviewInput is a review as submitted. A nil Rating means the default applies.
type ReviewInput struct {
	UserName string
	Rating   *int
	Comment  string
}

type CreateProductInput struct {
	ProductFields
	SubDescriptions []SubDescriptionInput
	Thumbnails      []string
	Reviews         []ReviewInput
}

// UpdateProductInput distinguishes an absent collection (nil pointer, left
// untouched) from an empty one (replaces the collection with nothing).
type UpdateProductInput struct {
	ProductFields
	SubDescriptions *[]SubDescriptionInput
	Thumbnails      *[]string
	Reviews         *[]ReviewInput
}

// apply copies every supplied field onto p.
func (f ProductFields) apply(p *domain.Product) {
	if f.Name != nil {
		p.Name = *f.Name
	}
	if f.Category != nil {
		p.Category = *f.Category
	}
	if f.Price != nil {
		p.Price = *f.Price
	}
	if f.Image != nil {
		p.Image = *f.Image
	}
	if f.Alt != nil {
		p.Alt = *f.Alt
	}
	if f.Description != nil {
		p.Description = f.Description
	}
	if f.MainDescription != nil {
		p.MainDescription = f.MainDescription
	}
	if f.Dimensions != nil {
		p.Dimensions = f.Dimensions
	}
	if f.Material != nil {
		p.Material = f.Material
	}
	if f.Weight != nil {
		p.Weight = f.Weight
	}
	if f.InStock != nil {
		p.InStock = *f.InStock
	}
}

func validateProduct(p *domain.Product) error {
	verr := &ValidationError{}
	if p.Name == "" {
		verr.add("name", "This field is required.")
	}
	if !p.Category.Valid() {
		verr.add("category", fmt.Sprintf("%q is not a valid choice.", p.Category))
	}
	if msg := domain.PriceProblem(p.Price); msg != "" {
		verr.add("price", msg)
	}
	if p.Image == "" {
		verr.add("image", "This field is required.")
	}
	return verr.orNil()
}

// subDescriptionsFrom keeps input positions as the display order and drops
// entries with neither title nor body.
func subDescriptionsFrom(productID int64, in []SubDescriptionInput) []domain.SubDescription {
	out := make([]domain.SubDescription, 0, len(in))
	for i, sd := range in {
		entry := domain.SubDescription{ProductID: productID, Title: sd.Title, Body: sd.Body, Order: i}
		if entry.Blank() {
			continue
		}
		out = append(out, entry)
	}
	return out
}

func thumbnailsFrom(productID int64, urls []string) []domain.Thumbnail {
	out := make([]domain.Thumbnail, 0, len(urls))
	for i, u := range urls {
		if u == "" {
			continue
		}
		out = append(out, domain.Thumbnail{ProductID: productID, ImageURL: u, Order: i})
	}
	return out
}

// reviewsFrom drops reviews without a comment and fills in the default user name and rating.
func reviewsFrom(productID int64, in []ReviewInput) ([]domain.Review, error) {
	verr := &ValidationError{}
	out := make([]domain.Review, 0, len(in))
	for i, r := range in {
		if r.Comment == "" {
			continue
		}
		review, ok := reviewFrom(productID, r)
		if !ok {
			verr.add(fmt.Sprintf("reviews[%d].rating", i), ratingRangeMessage)
			continue
		}
		out = append(out, review)
	}
	if err := verr.orNil(); err != nil {
		return nil, err
	}
	return out, nil
}

const ratingRangeMessage = "Ensure this value is between 1 and 5."

// reviewFrom reports false when the rating is outside 1..5.
func reviewFrom(productID int64, r ReviewInput) (domain.Review, bool) {
	review := domain.Review{
		ProductID: productID,
		UserName:  r.UserName,
		Rating:    domain.DefaultReviewRating,
		Comment:   r.Comment,
	}
	if review.UserName == "" {
		review.UserName = domain.AnonymousReviewer
	}
	if r.Rating != nil {
		if *r.Rating < 1 || *r.Rating > 5 {
			return domain.Review{}, false
		}
		review.Rating = *r.Rating
	}
	return review, true
}
