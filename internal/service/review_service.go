package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"storefront/internal/domain"
	"storefront/internal/repository"
)

// ErrForbidden is returned when the caller may not touch the resource.
var ErrForbidden = errors.New("forbidden")

// ReviewService manages reviews and computes rating statistics
type ReviewService struct {
	reviews  repository.ReviewRepository
	products repository.ProductRepository
}

func NewReviewService(reviews repository.ReviewRepository, products repository.ProductRepository) *ReviewService {
	return &ReviewService{reviews: reviews, products: products}
}

type CreateReviewInput struct {
	ProductID string  `json:"productId" validate:"required"`
	UserID    string  `json:"-" validate:"required"`
	Rating    int     `json:"rating" validate:"min=1,max=5"`
	Comment   string  `json:"comment" validate:"min=5,max=2000"`
	ParentID  *string `json:"parentId"`
}

func (s *ReviewService) Create(ctx context.Context, in CreateReviewInput) (*domain.Review, error) {
	in.Comment = strings.TrimSpace(in.Comment)
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	p, err := s.products.GetByID(ctx, in.ProductID)
	if err != nil {
		return nil, fmt.Errorf("product %s: %w", in.ProductID, err)
	}
	if p.Deleted() {
		return nil, fmt.Errorf("product %s: %w", in.ProductID, repository.ErrNotFound)
	}

	r := domain.Review{
		ProductID: in.ProductID,
		UserID:    in.UserID,
		Rating:    in.Rating,
		Comment:   in.Comment,
	}
	if in.ParentID != nil && *in.ParentID != "" {
		parent, err := s.reviews.GetByID(ctx, *in.ParentID)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: parent review %s does not exist", ErrInvalidInput, *in.ParentID)
		}
		if err != nil {
			return nil, err
		}
		if parent.ProductID != in.ProductID {
			return nil, fmt.Errorf("%w: parent review belongs to another product", ErrInvalidInput)
		}
		if !parent.TopLevel() {
			return nil, fmt.Errorf("%w: cannot reply to a reply", ErrInvalidInput)
		}
		r.ParentID = &parent.ID
	}
	if err := s.reviews.Create(ctx, &r); err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}
	return s.reviews.GetByID(ctx, r.ID)
}

func (s *ReviewService) Get(ctx context.Context, id string) (*domain.Review, error) {
	if id == "" {
		return nil, ErrInvalidInput
	}
	return s.reviews.GetByID(ctx, id)
}

// Delete removes a review and its replies. Only the author or an admin may.
func (s *ReviewService) Delete(ctx context.Context, actor domain.Actor, id string) error {
	r, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if r.UserID != actor.UserID && !actor.IsAdmin() {
		return ErrForbidden
	}
	if err := s.reviews.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	slog.InfoContext(ctx, "review deleted", "review_id", id, "by", actor.UserID, "replies", len(r.Replies))
	return nil
}

// Stats recomputes the rating summary of a product from its top-level reviews.
func (s *ReviewService) Stats(ctx context.Context, productID string) (domain.RatingStats, error) {
	if productID == "" {
		return domain.RatingStats{}, ErrInvalidInput
	}
	ratings, err := s.reviews.TopLevelRatings(ctx, productID)
	if err != nil {
		return domain.RatingStats{}, fmt.Errorf("load ratings: %w", err)
	}
	return domain.ComputeRatingStats(ratings), nil
}
