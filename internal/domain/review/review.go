package review

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/storefront/backend/internal/domain/shared"
)

// Rating bounds
const (
	MinRating = 1
	MaxRating = 5
)

// Review represents a customer's review of a product
// A customer writes at most one review per product
type Review struct {
	shared.BaseAggregateRoot
	ProductID  uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_review_product_customer,priority:1"`
	CustomerID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_review_product_customer,priority:2"`
	Rating     int       `gorm:"not null"`
	Title      string    `gorm:"type:varchar(200)"`
	Comment    string    `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (Review) TableName() string {
	return "reviews"
}

// NewReview creates a new review
func NewReview(productID, customerID uuid.UUID, rating int, title, comment string) (*Review, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}
	if err := validateRating(rating); err != nil {
		return nil, err
	}
	if err := validateTitle(title); err != nil {
		return nil, err
	}

	r := &Review{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ProductID:         productID,
		CustomerID:        customerID,
		Rating:            rating,
		Title:             strings.TrimSpace(title),
		Comment:           comment,
	}

	return r, nil
}

// Update updates the rating, title and comment
func (r *Review) Update(rating int, title, comment string) error {
	if err := validateRating(rating); err != nil {
		return err
	}
	if err := validateTitle(title); err != nil {
		return err
	}

	r.Rating = rating
	r.Title = strings.TrimSpace(title)
	r.Comment = comment
	r.UpdatedAt = time.Now()
	r.IncrementVersion()

	return nil
}

// IsAuthor returns true if the given customer wrote this review
func (r *Review) IsAuthor(customerID uuid.UUID) bool {
	return r.CustomerID == customerID
}

func validateRating(rating int) error {
	if rating < MinRating || rating > MaxRating {
		return shared.NewDomainError("INVALID_RATING", "Rating must be between 1 and 5")
	}
	return nil
}

func validateTitle(title string) error {
	if len(title) > 200 {
		return shared.NewDomainError("INVALID_TITLE", "Title cannot exceed 200 characters")
	}
	return nil
}
