package review

import (
	"time"

	"github.com/google/uuid"

	"github.com/storefront/backend/internal/domain/review"
)

// CreateReviewRequest contains the input for writing a review
type CreateReviewRequest struct {
	ProductID uuid.UUID
	Rating    int
	Title     string
	Comment   string
}

// UpdateReviewRequest contains the input for editing a review
type UpdateReviewRequest struct {
	Rating  int
	Title   string
	Comment string
}

// ListReviewsInput contains filters for review listings
type ListReviewsInput struct {
	Page     int
	PageSize int
}

// ReviewResponse is the review view returned to clients
type ReviewResponse struct {
	ID         uuid.UUID `json:"id"`
	ProductID  uuid.UUID `json:"product_id"`
	CustomerID uuid.UUID `json:"customer_id"`
	Rating     int       `json:"rating"`
	Title      string    `json:"title,omitempty"`
	Comment    string    `json:"comment,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func toReviewResponse(r *review.Review) ReviewResponse {
	return ReviewResponse{
		ID:         r.ID,
		ProductID:  r.ProductID,
		CustomerID: r.CustomerID,
		Rating:     r.Rating,
		Title:      r.Title,
		Comment:    r.Comment,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}
