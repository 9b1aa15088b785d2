package services

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/arzan03/storefront/internal/apperror"
	"github.com/arzan03/storefront/internal/models"
)

type CartService struct {
	carts CartStore
	now   func() time.Time
}

func NewCartService(carts CartStore) *CartService {
	return &CartService{carts: carts, now: time.Now}
}

type AbandonedCartInput struct {
	Email string            `json:"email" validate:"required"`
	Name  string            `json:"name"`
	Phone string            `json:"phone"`
	Items []models.CartItem `json:"items"`
	Total *float64          `json:"total"`
}

// CaptureAbandoned snapshots a checkout the buyer left. The document expires via TTL index.
func (s *CartService) CaptureAbandoned(ctx context.Context, in AbandonedCartInput) (*models.AbandonedCart, error) {
	in.Email = normalizeEmail(in.Email)
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	if !validEmail(in.Email) {
		return nil, apperror.BadRequest("email is invalid")
	}

	items := make([]models.CartItem, 0, len(in.Items))
	var total float64
	for _, it := range in.Items {
		if it.Quantity <= 0 {
			continue
		}
		items = append(items, it)
		total += it.Price * float64(it.Quantity)
	}
	if in.Total != nil && *in.Total >= 0 {
		total = *in.Total
	}

	cart := &models.AbandonedCart{
		Email:     in.Email,
		Name:      strings.TrimSpace(in.Name),
		Phone:     strings.TrimSpace(in.Phone),
		Items:     items,
		Total:     math.Round(total*100) / 100,
		CreatedAt: s.now(),
	}
	if err := s.carts.Create(ctx, cart); err != nil {
		return nil, apperror.Internal(err, "failed to save cart")
	}
	return cart, nil
}
