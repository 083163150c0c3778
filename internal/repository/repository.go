package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"storefront/internal/domain"
)

// ErrNotFound is returned when an entity does not exist
var ErrNotFound = errors.New("not found")

// UserRepository stores accounts
type UserRepository interface {
	Create(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, u *domain.User) error
	CountActive(ctx context.Context, role domain.Role) (int64, error)
}

// CategoryRepository stores the category tree
type CategoryRepository interface {
	Create(ctx context.Context, c *domain.Category) error
	GetByID(ctx context.Context, id string) (*domain.Category, error)
	Update(ctx context.Context, c *domain.Category) error
}

// ProductRepository stores catalog items. GetByID also returns soft-deleted rows
type ProductRepository interface {
	Create(ctx context.Context, p *domain.Product) error
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	Update(ctx context.Context, p *domain.Product) error
	CountActive(ctx context.Context) (int64, error)
}

// OrderFilter narrows admin order listings. Limit 0 means no limit
type OrderFilter struct {
	Status       domain.OrderStatus
	Search       string
	CreatedAfter time.Time
	Offset       int
	Limit        int
}

// OrderRepository stores orders. Create writes the order row only; items are
// written by AddItems so callers can group both in one transaction
type OrderRepository interface {
	Create(ctx context.Context, o *domain.Order) error
	AddItems(ctx context.Context, orderID string, items []domain.OrderItem) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
	List(ctx context.Context, f OrderFilter) ([]domain.Order, int64, error)
	SetStatus(ctx context.Context, id string, status domain.OrderStatus, at time.Time) error
	CountByStatus(ctx context.Context) (map[domain.OrderStatus]int64, error)
	Revenue(ctx context.Context) (decimal.Decimal, error)
}

// ReviewRepository stores reviews and replies
type ReviewRepository interface {
	Create(ctx context.Context, r *domain.Review) error
	GetByID(ctx context.Context, id string) (*domain.Review, error)
	// Delete removes the review and its replies.
	Delete(ctx context.Context, id string) error
	// TopLevelRatings returns the rating of every review of the product without a parent.
	TopLevelRatings(ctx context.Context, productID string) ([]int, error)
}

// CartRepository stores per-user working carts
type CartRepository interface {
	Get(ctx context.Context, userID string) (*domain.Cart, error)
	SetItem(ctx context.Context, userID, productID string, quantity int) error
	RemoveItem(ctx context.Context, userID, productID string) error
	Clear(ctx context.Context, userID string) error
}

// TxManager runs fn as one all-or-nothing unit. Repositories called with the
// ctx handed to fn take part in the transaction
type TxManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Set bundles every repository over one backing store
type Set struct {
	Users      UserRepository
	Categories CategoryRepository
	Products   ProductRepository
	Orders     OrderRepository
	Reviews    ReviewRepository
	Carts      CartRepository
	Tx         TxManager
}

// helper: case-insensitive contains
func containsIgnoreCase(s, substr string) bool {
	if substr == "" {
		return true
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
