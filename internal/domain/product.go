package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category is one of the fixed storefront sections a product is listed under.
type Category string

const (
	CategoryPhotoFrames    Category = "Photo Frames"
	CategoryIdols          Category = "Idols"
	CategoryHomeInteriors  Category = "Home Interiors"
	CategoryCorporateGifts Category = "Corporate Gifts"
)

// Categories lists every accepted category in display order.
var Categories = []Category{
	CategoryPhotoFrames,
	CategoryIdols,
	CategoryHomeInteriors,
	CategoryCorporateGifts,
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Prices are stored as NUMERIC(10,2): at most two decimal places and eight
// digits before the point.
const (
	PriceDecimalPlaces = 2
	priceIntegerDigits = 8
)

var maxPriceExclusive = decimal.New(1, priceIntegerDigits)

// PriceProblem returns a field message when price cannot be stored, or "".
func PriceProblem(price decimal.Decimal) string {
	switch {
	case price.IsNegative():
		return "Ensure this value is greater than or equal to 0."
	case price.Exponent() < -PriceDecimalPlaces:
		return "Ensure that there are no more than 2 decimal places."
	case price.GreaterThanOrEqual(maxPriceExclusive):
		return "Ensure that there are no more than 8 digits before the decimal point."
	}
	return ""
}

// DefaultRating is the rating a product carries while it has no reviews.
var DefaultRating = decimal.NewFromInt(5)

// DefaultReviewRating is used for reviews submitted without a rating.
const DefaultReviewRating = 5

// AnonymousReviewer is the user name recorded when a review has none.
const AnonymousReviewer = "Anonymous"

// Product represents a catalog entry. Nullable text columns are pointers.
// Rating is derived from the product's reviews and is never written by callers.
type Product struct {
	ID              int64
	Name            string
	Category        Category
	Price           decimal.Decimal
	Image           string
	Alt             string
	Description     *string
	MainDescription *string
	Dimensions      *string
	Material        *string
	Weight          *string
	InStock         bool
	Rating          decimal.Decimal
	CreatedAt       time.Time
	UpdatedAt       time.Time

	// Owned collections. Populated only when the full aggregate is loaded.
	SubDescriptions []SubDescription
	Thumbnails      []Thumbnail
	Reviews         []Review
}

// SubDescription is a titled paragraph shown under the main description.
type SubDescription struct {
	ID        int64
	ProductID int64
	Title     string
	Body      string
	Order     int
}

// Blank reports whether the entry carries neither a title nor a body.
func (s SubDescription) Blank() bool {
	return s.Title == "" && s.Body == ""
}

// Thumbnail is an additional product image.
type Thumbnail struct {
	ID        int64
	ProductID int64
	ImageURL  string
	Order     int
}

// Review is a customer rating with a comment. Date is set on insert and never changes.
type Review struct {
	ID        int64
	ProductID int64
	UserName  string
	Rating    int
	Comment   string
	Date      time.Time
}
