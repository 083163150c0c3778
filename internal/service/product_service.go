package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"storefront/internal/domain"
	"storefront/internal/repository"
)

// ProductService holds the back-office rules around catalog items
type ProductService struct {
	products   repository.ProductRepository
	categories repository.CategoryRepository
}

func NewProductService(products repository.ProductRepository, categories repository.CategoryRepository) *ProductService {
	return &ProductService{products: products, categories: categories}
}

var ErrInvalidInput = errors.New("invalid input")

// ProductInput is the payload for creating a product
type ProductInput struct {
	Name         string           `json:"name" validate:"required,min=2,max=255"`
	Description  string           `json:"description" validate:"max=10000"`
	Price        decimal.Decimal  `json:"price"`
	ComparePrice *decimal.Decimal `json:"comparePrice"`
	Stock        int              `json:"stock" validate:"min=0"`
	SKU          string           `json:"sku" validate:"max=64"`
	Images       []string         `json:"images" validate:"min=1,max=10,dive,required,max=2048"`
	CategoryID   string           `json:"categoryId" validate:"required"`
	IsActive     *bool            `json:"isActive"`
	IsFeatured   bool             `json:"isFeatured"`
}

// ProductPatch changes only the fields that are set. A zero comparePrice clears it
type ProductPatch struct {
	Name         *string          `json:"name" validate:"omitempty,min=2,max=255"`
	Description  *string          `json:"description" validate:"omitempty,max=10000"`
	Price        *decimal.Decimal `json:"price"`
	ComparePrice *decimal.Decimal `json:"comparePrice"`
	Stock        *int             `json:"stock" validate:"omitempty,min=0"`
	SKU          *string          `json:"sku" validate:"omitempty,max=64"`
	Images       []string         `json:"images" validate:"omitempty,max=10,dive,required,max=2048"`
	CategoryID   *string          `json:"categoryId"`
	IsActive     *bool            `json:"isActive"`
	IsFeatured   *bool            `json:"isFeatured"`
}

func (s *ProductService) Create(ctx context.Context, in ProductInput) (*domain.Product, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	if err := checkMoney(in.Price, in.ComparePrice); err != nil {
		return nil, err
	}
	if err := s.requireCategory(ctx, in.CategoryID); err != nil {
		return nil, err
	}
	p := domain.Product{
		Name:        strings.TrimSpace(in.Name),
		Slug:        newSlug(in.Name),
		Description: in.Description,
		Price:       in.Price,
		Stock:       in.Stock,
		SKU:         in.SKU,
		Images:      domain.Images(in.Images),
		CategoryID:  in.CategoryID,
		IsActive:    in.IsActive == nil || *in.IsActive,
		IsFeatured:  in.IsFeatured,
	}
	if in.ComparePrice != nil && !in.ComparePrice.IsZero() {
		p.ComparePrice = decimal.NewNullDecimal(*in.ComparePrice)
	}
	if err := s.products.Create(ctx, &p); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	slog.InfoContext(ctx, "product created", "product_id", p.ID, "slug", p.Slug)
	return &p, nil
}

func (s *ProductService) Get(ctx context.Context, id string) (*domain.Product, error) {
	if id == "" {
		return nil, ErrInvalidInput
	}
	return s.products.GetByID(ctx, id)
}

func (s *ProductService) Update(ctx context.Context, id string, in ProductPatch) (*domain.Product, error) {
	if id == "" {
		return nil, ErrInvalidInput
	}
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	if in.Images != nil && len(in.Images) == 0 {
		return nil, fmt.Errorf("%w: images must not be empty", ErrInvalidInput)
	}
	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		p.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.ComparePrice != nil {
		if in.ComparePrice.IsZero() {
			p.ComparePrice = decimal.NullDecimal{}
		} else {
			p.ComparePrice = decimal.NewNullDecimal(*in.ComparePrice)
		}
	}
	if in.Stock != nil {
		p.Stock = *in.Stock
	}
	if in.SKU != nil {
		p.SKU = *in.SKU
	}
	if in.Images != nil {
		p.Images = domain.Images(in.Images)
	}
	if in.CategoryID != nil && *in.CategoryID != p.CategoryID {
		if err := s.requireCategory(ctx, *in.CategoryID); err != nil {
			return nil, err
		}
		p.CategoryID = *in.CategoryID
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
	if in.IsFeatured != nil {
		p.IsFeatured = *in.IsFeatured
	}
	var compare *decimal.Decimal
	if p.ComparePrice.Valid {
		compare = &p.ComparePrice.Decimal
	}
	if err := checkMoney(p.Price, compare); err != nil {
		return nil, err
	}
	p.Category = nil
	if err := s.products.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	return s.products.GetByID(ctx, id)
}

// Delete hides the product from the catalog. Orders keep resolving it.
func (s *ProductService) Delete(ctx context.Context, id string) error {
	p, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	p.DeletedAt = &now
	p.IsActive = false
	p.Category = nil
	if err := s.products.Update(ctx, p); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	slog.InfoContext(ctx, "product soft deleted", "product_id", id)
	return nil
}

func (s *ProductService) Restore(ctx context.Context, id string) (*domain.Product, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	p.DeletedAt = nil
	p.IsActive = true
	p.Category = nil
	if err := s.products.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("restore product: %w", err)
	}
	return s.products.GetByID(ctx, id)
}

func (s *ProductService) requireCategory(ctx context.Context, id string) error {
	c, err := s.categories.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: category %s does not exist", ErrInvalidInput, id)
	}
	if err != nil {
		return err
	}
	if c.Deleted() {
		return fmt.Errorf("%w: category %s is deleted", ErrInvalidInput, id)
	}
	return nil
}

func checkMoney(price decimal.Decimal, compare *decimal.Decimal) error {
	if price.IsNegative() {
		return fmt.Errorf("%w: price must not be negative", ErrInvalidInput)
	}
	if compare != nil && compare.IsNegative() {
		return fmt.Errorf("%w: comparePrice must not be negative", ErrInvalidInput)
	}
	return nil
}
