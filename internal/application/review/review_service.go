package review

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/review"
	"github.com/storefront/backend/internal/domain/shared"
)

// ReviewService handles product reviews. Each write recomputes the
// product's denormalized rating aggregates from the review table.
type ReviewService struct {
	reviewRepo  review.ReviewRepository
	productRepo catalog.ProductRepository
	logger      *zap.Logger
}

// NewReviewService creates a new ReviewService
func NewReviewService(
	reviewRepo review.ReviewRepository,
	productRepo catalog.ProductRepository,
	logger *zap.Logger,
) *ReviewService {
	return &ReviewService{
		reviewRepo:  reviewRepo,
		productRepo: productRepo,
		logger:      logger,
	}
}

// Create writes a customer's review of a product. A customer reviews a
// product at most once.
func (s *ReviewService) Create(ctx context.Context, customerID uuid.UUID, req CreateReviewRequest) (*ReviewResponse, error) {
	product, err := s.productRepo.FindByID(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}

	if _, err := s.reviewRepo.FindByProductAndCustomer(ctx, product.ID, customerID); err == nil {
		return nil, shared.ErrDuplicateReview
	} else if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	r, err := review.NewReview(product.ID, customerID, req.Rating, req.Title, req.Comment)
	if err != nil {
		return nil, err
	}

	if err := s.reviewRepo.Save(ctx, r); err != nil {
		return nil, err
	}

	s.refreshRatingStats(ctx, product.ID)

	s.logger.Info("Review created",
		zap.String("review_id", r.ID.String()),
		zap.String("product_id", product.ID.String()),
		zap.Int("rating", r.Rating))

	resp := toReviewResponse(r)
	return &resp, nil
}

// Update edits the customer's own review
func (s *ReviewService) Update(ctx context.Context, customerID, reviewID uuid.UUID, req UpdateReviewRequest) (*ReviewResponse, error) {
	r, err := s.reviewRepo.FindByID(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	if !r.IsAuthor(customerID) {
		return nil, shared.ErrForbidden
	}

	if err := r.Update(req.Rating, req.Title, req.Comment); err != nil {
		return nil, err
	}

	if err := s.reviewRepo.Save(ctx, r); err != nil {
		return nil, err
	}

	s.refreshRatingStats(ctx, r.ProductID)

	resp := toReviewResponse(r)
	return &resp, nil
}

// Delete removes a review. Customers may delete their own review;
// admins pass a nil requestedBy and may delete any.
func (s *ReviewService) Delete(ctx context.Context, reviewID uuid.UUID, requestedBy *uuid.UUID) error {
	r, err := s.reviewRepo.FindByID(ctx, reviewID)
	if err != nil {
		return err
	}
	if requestedBy != nil && !r.IsAuthor(*requestedBy) {
		return shared.ErrForbidden
	}

	if err := s.reviewRepo.Delete(ctx, reviewID); err != nil {
		return err
	}

	s.refreshRatingStats(ctx, r.ProductID)

	s.logger.Info("Review deleted",
		zap.String("review_id", reviewID.String()),
		zap.String("product_id", r.ProductID.String()))

	return nil
}

// ListByProduct returns a page of a product's reviews
func (s *ReviewService) ListByProduct(ctx context.Context, productID uuid.UUID, input ListReviewsInput) (*shared.Paginated[ReviewResponse], error) {
	f := shared.DefaultFilter()
	if input.Page > 0 {
		f.Page = input.Page
	}
	if input.PageSize > 0 {
		f.PageSize = input.PageSize
	}

	reviews, err := s.reviewRepo.FindByProduct(ctx, productID, f)
	if err != nil {
		return nil, err
	}
	total, err := s.reviewRepo.CountByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	responses := make([]ReviewResponse, len(reviews))
	for i := range reviews {
		responses[i] = toReviewResponse(&reviews[i])
	}

	result := shared.NewPaginated(responses, total, f.Page, f.PageSize)
	return &result, nil
}

// refreshRatingStats recomputes the product's rating aggregates. The
// aggregates are a denormalized cache; a failed refresh is logged and
// corrected by the next write.
func (s *ReviewService) refreshRatingStats(ctx context.Context, productID uuid.UUID) {
	stats, err := s.reviewRepo.StatsByProduct(ctx, productID)
	if err != nil {
		s.logger.Error("Failed to compute rating stats",
			zap.String("product_id", productID.String()),
			zap.Error(err))
		return
	}

	if err := s.productRepo.UpdateRatingStats(ctx, productID, stats.Average, stats.Count); err != nil {
		s.logger.Error("Failed to update rating stats",
			zap.String("product_id", productID.String()),
			zap.Error(err))
	}
}
