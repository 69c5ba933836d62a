// Package rating ingests product reviews. Reviews are append-only: there is
// no edit or delete, and the stored average is always recomputed from the
// star distribution.
package rating

import (
	"context"

	"storefront/internal/domain"
	catalogrepo "storefront/internal/repository/catalog"
)

type Service struct {
	repo repo
}

type repo interface {
	AddReview(ctx context.Context, id string, stars int) (*domain.Product, error)
}

func New(r catalogrepo.Repository) *Service {
	return &Service{repo: r}
}

// AddReview records one review; the repository applies the O(1) distribution
// update atomically per product.
func (s *Service) AddReview(ctx context.Context, productID string, stars int) (*domain.Ratings, error) {
	if stars < 1 || stars > 5 {
		return nil, &domain.ValidationError{Field: "stars", Reason: "must be between 1 and 5"}
	}
	p, err := s.repo.AddReview(ctx, productID, stars)
	if err != nil {
		return nil, err
	}
	return &p.Ratings, nil
}
