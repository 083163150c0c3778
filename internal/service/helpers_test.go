package service

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"storefront/internal/domain"
	"storefront/internal/repository"
)

type published struct {
	topic string
	key   string
	event any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []published
	err    error
}

func (p *recordingPublisher) PublishEvent(_ context.Context, topic, key string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{topic: topic, key: key, event: event})
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) topics() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.topic)
	}
	return out
}

type env struct {
	set        repository.Set
	pub        *recordingPublisher
	products   *ProductService
	categories *CategoryService
	orders     *OrderService
	reviews    *ReviewService
	users      *UserService
	carts      *CartService
	dashboard  *DashboardService
}

func setup(t *testing.T) *env {
	t.Helper()
	set := repository.NewMemorySet()
	pub := &recordingPublisher{}
	return &env{
		set:        set,
		pub:        pub,
		products:   NewProductService(set.Products, set.Categories),
		categories: NewCategoryService(set.Categories),
		orders:     NewOrderService(set.Products, set.Orders, set.Tx, pub),
		reviews:    NewReviewService(set.Reviews, set.Products),
		users:      NewUserService(set.Users),
		carts:      NewCartService(set.Carts, set.Products),
		dashboard:  NewDashboardService(set.Users, set.Products, set.Orders),
	}
}

func (e *env) category(t *testing.T) *domain.Category {
	t.Helper()
	c, err := e.categories.Create(context.Background(), CategoryInput{Name: "Books"})
	require.NoError(t, err)
	return c
}

func (e *env) product(t *testing.T, name, price string) *domain.Product {
	t.Helper()
	c := e.category(t)
	p, err := e.products.Create(context.Background(), ProductInput{
		Name:       "Item " + name,
		Price:      decimal.RequireFromString(price),
		Stock:      5,
		SKU:        name,
		Images:     []string{"https://img.example.com/" + name + ".png"},
		CategoryID: c.ID,
	})
	require.NoError(t, err)
	return p
}

func (e *env) user(t *testing.T, email string, role domain.Role) *domain.User {
	t.Helper()
	u := domain.User{Email: email, Name: email, PasswordHash: "x", Role: role}
	require.NoError(t, e.set.Users.Create(context.Background(), &u))
	return &u
}

func validShipping() domain.ShippingInfo {
	return domain.ShippingInfo{
		FullName: "Jane Roe",
		Phone:    "0901234567",
		Email:    "jane@example.com",
		Address:  "12 Long Street, Ward 3",
		City:     "Hanoi",
		District: "Ba Dinh",
	}
}

func orderInput(userID string, items ...PlaceOrderItem) PlaceOrderInput {
	return PlaceOrderInput{
		UserID:        userID,
		Items:         items,
		ShippingInfo:  validShipping(),
		PaymentMethod: domain.PaymentCOD,
		TotalAmount:   decimal.RequireFromString("30"),
		ShippingFee:   decimal.RequireFromString("2"),
	}
}
