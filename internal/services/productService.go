package services

import (
	"context"
	"strings"
	"time"

	"github.com/arzan03/storefront/internal/apperror"
	"github.com/arzan03/storefront/internal/db"
	"github.com/arzan03/storefront/internal/models"
	"github.com/pkg/errors"
)

type ProductService struct {
	products ProductStore
	now      func() time.Time
}

func NewProductService(products ProductStore) *ProductService {
	return &ProductService{products: products, now: time.Now}
}

type CreateProductInput struct {
	Name        string           `json:"name" validate:"required"`
	Description string           `json:"description"`
	Price       float64          `json:"price" validate:"gte=0"`
	Category    string           `json:"category"`
	Images      []string         `json:"images"`
	Variants    []models.Variant `json:"variants" validate:"dive"`
	IsActive    *bool            `json:"isActive"`
}

func (s *ProductService) ListActive(ctx context.Context) ([]models.Product, error) {
	products, err := s.products.List(ctx, true)
	if err != nil {
		return nil, apperror.Internal(err, "failed to list products")
	}
	return products, nil
}

func (s *ProductService) ListAll(ctx context.Context) ([]models.Product, error) {
	products, err := s.products.List(ctx, false)
	if err != nil {
		return nil, apperror.Internal(err, "failed to list products")
	}
	return products, nil
}

// Single returns the product shown on the single-product landing page.
func (s *ProductService) Single(ctx context.Context) (*models.Product, error) {
	p, err := s.products.Newest(ctx)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, apperror.NotFound("no products available")
		}
		return nil, apperror.Internal(err, "failed to load product")
	}
	return p, nil
}

func (s *ProductService) Get(ctx context.Context, rawID string) (*models.Product, error) {
	id, err := parseID(rawID, "product")
	if err != nil {
		return nil, err
	}
	p, err := s.products.FindByID(ctx, id, true)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, apperror.NotFound("product not found")
		}
		return nil, apperror.Internal(err, "failed to load product")
	}
	return p, nil
}

func (s *ProductService) Create(ctx context.Context, in CreateProductInput) (*models.Product, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	now := s.now()
	p := &models.Product{
		Name:        in.Name,
		Description: strings.TrimSpace(in.Description),
		Price:       in.Price,
		Category:    strings.TrimSpace(in.Category),
		Images:      nonNil(in.Images),
		Variants:    in.Variants,
		IsActive:    in.IsActive == nil || *in.IsActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if p.Variants == nil {
		p.Variants = []models.Variant{}
	}
	if err := s.products.Create(ctx, p); err != nil {
		return nil, apperror.Internal(err, "failed to create product")
	}
	return p, nil
}

// Patch applies only the supplied fields. isActive=false is how products are removed.
func (s *ProductService) Patch(ctx context.Context, rawID string, patch models.ProductPatch) (*models.Product, error) {
	id, err := parseID(rawID, "product")
	if err != nil {
		return nil, err
	}
	if patch.Name != nil {
		trimmed := strings.TrimSpace(*patch.Name)
		patch.Name = &trimmed
	}
	if patch.Empty() {
		return nil, apperror.BadRequest("no fields to update")
	}
	if err := validateStruct(patch); err != nil {
		return nil, err
	}

	p, err := s.products.Patch(ctx, id, patch)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, apperror.NotFound("product not found")
		}
		return nil, apperror.Internal(err, "failed to update product")
	}
	return p, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
