package service

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/domain"
	"storefront/internal/repository"
)

// CartService keeps the per-user working cart. Checkout does not read it
type CartService struct {
	carts    repository.CartRepository
	products repository.ProductRepository
}

func NewCartService(carts repository.CartRepository, products repository.ProductRepository) *CartService {
	return &CartService{carts: carts, products: products}
}

type CartItemInput struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"min=0,max=999"`
}

// Get returns the cart with current product data attached. Lines whose
// product has vanished are skipped.
func (s *CartService) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	cart, err := s.carts.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	items := make([]domain.CartItem, 0, len(cart.Items))
	for _, it := range cart.Items {
		p, err := s.products.GetByID(ctx, it.ProductID)
		if errors.Is(err, repository.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		p.Category = nil
		it.Product = p
		items = append(items, it)
	}
	cart.Items = items
	return cart, nil
}

// SetItem puts quantity of a product in the cart; zero removes the line.
func (s *CartService) SetItem(ctx context.Context, userID string, in CartItemInput) (*domain.Cart, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	if in.Quantity == 0 {
		return s.RemoveItem(ctx, userID, in.ProductID)
	}
	p, err := s.products.GetByID(ctx, in.ProductID)
	if err != nil {
		return nil, fmt.Errorf("product %s: %w", in.ProductID, err)
	}
	if p.Deleted() || !p.IsActive {
		return nil, fmt.Errorf("%w: product %s is not available", ErrInvalidInput, in.ProductID)
	}
	if err := s.carts.SetItem(ctx, userID, in.ProductID, in.Quantity); err != nil {
		return nil, fmt.Errorf("set cart item: %w", err)
	}
	return s.Get(ctx, userID)
}

func (s *CartService) RemoveItem(ctx context.Context, userID, productID string) (*domain.Cart, error) {
	if productID == "" {
		return nil, ErrInvalidInput
	}
	if err := s.carts.RemoveItem(ctx, userID, productID); err != nil {
		return nil, fmt.Errorf("remove cart item: %w", err)
	}
	return s.Get(ctx, userID)
}

func (s *CartService) Clear(ctx context.Context, userID string) error {
	if err := s.carts.Clear(ctx, userID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}
