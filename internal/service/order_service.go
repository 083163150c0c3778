package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"storefront/internal/domain"
	"storefront/internal/events"
	"storefront/internal/repository"
)

// OrderService places orders and moves them through their statuses
type OrderService struct {
	products repository.ProductRepository
	orders   repository.OrderRepository
	tx       repository.TxManager
	events   events.Publisher
	now      func() time.Time

	publishTimeout time.Duration
}

// defaultPublishTimeout bounds how long a request waits on the event broker
// after its write has committed.
const defaultPublishTimeout = 2 * time.Second

func NewOrderService(products repository.ProductRepository, orders repository.OrderRepository, tx repository.TxManager, publisher events.Publisher) *OrderService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &OrderService{
		products: products,
		orders:   orders,
		tx:       tx,
		events:   publisher,
		now:      func() time.Time { return time.Now().UTC() },

		publishTimeout: defaultPublishTimeout,
	}
}

type PlaceOrderItem struct {
	ProductID string          `json:"productId" validate:"required"`
	Quantity  int             `json:"quantity" validate:"min=1,max=999"`
	Price     decimal.Decimal `json:"price"`
}

// PlaceOrderInput is the checkout payload. Totals are taken as sent
type PlaceOrderInput struct {
	UserID        string               `json:"-" validate:"required"`
	Items         []PlaceOrderItem     `json:"items" validate:"dive"`
	ShippingInfo  domain.ShippingInfo  `json:"shippingInfo"`
	PaymentMethod domain.PaymentMethod `json:"paymentMethod" validate:"required,oneof=cod bank card"`
	TotalAmount   decimal.Decimal      `json:"totalAmount"`
	ShippingFee   decimal.Decimal      `json:"shippingFee"`
}

func (in PlaceOrderInput) check() error {
	if len(in.Items) == 0 {
		return fmt.Errorf("%w: order must contain at least one item", ErrInvalidInput)
	}
	if err := validateStruct(in); err != nil {
		return err
	}
	for i, it := range in.Items {
		if it.Price.IsNegative() {
			return fmt.Errorf("%w: items[%d].price must not be negative", ErrInvalidInput, i)
		}
	}
	if in.TotalAmount.IsNegative() || in.ShippingFee.IsNegative() {
		return fmt.Errorf("%w: totals must not be negative", ErrInvalidInput)
	}
	return nil
}

// CreateOrder writes the order and all of its items as one unit, in PENDING.
// Stock is not reserved.
func (s *OrderService) CreateOrder(ctx context.Context, in PlaceOrderInput) (*domain.Order, error) {
	if err := in.check(); err != nil {
		return nil, err
	}

	var orderID string
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		for _, it := range in.Items {
			p, err := s.products.GetByID(ctx, it.ProductID)
			if err != nil {
				return fmt.Errorf("product %s: %w", it.ProductID, err)
			}
			if p.Deleted() {
				return fmt.Errorf("product %s: %w", it.ProductID, repository.ErrNotFound)
			}
		}

		o := domain.Order{
			UserID:        in.UserID,
			Status:        domain.OrderStatusPending,
			TotalAmount:   in.TotalAmount,
			ShippingFee:   in.ShippingFee,
			PaymentMethod: in.PaymentMethod,
			ShippingInfo:  in.ShippingInfo,
		}
		if err := s.orders.Create(ctx, &o); err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		items := make([]domain.OrderItem, 0, len(in.Items))
		for _, it := range in.Items {
			items = append(items, domain.OrderItem{
				ProductID: it.ProductID,
				Quantity:  it.Quantity,
				Price:     it.Price,
			})
		}
		if err := s.orders.AddItems(ctx, o.ID, items); err != nil {
			return fmt.Errorf("create order items: %w", err)
		}
		orderID = o.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	created, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("load order: %w", err)
	}
	slog.InfoContext(ctx, "order placed", "order_id", created.ID, "user_id", created.UserID, "items", len(created.Items))
	s.publish(ctx, events.TopicOrderPlaced, created.ID, events.OrderPlaced{
		OrderID:       created.ID,
		UserID:        created.UserID,
		TotalAmount:   created.TotalAmount,
		ShippingFee:   created.ShippingFee,
		PaymentMethod: string(created.PaymentMethod),
		ItemCount:     len(created.Items),
		PlacedAt:      created.CreatedAt,
	})
	return created, nil
}

// ListForUser returns the caller's orders, newest first.
func (s *OrderService) ListForUser(ctx context.Context, userID string) ([]domain.Order, error) {
	if userID == "" {
		return nil, ErrInvalidInput
	}
	return s.orders.ListByUser(ctx, userID)
}

// GetForUser hides orders of other users behind not-found.
func (s *OrderService) GetForUser(ctx context.Context, id, userID string) (*domain.Order, error) {
	o, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, repository.ErrNotFound
	}
	return o, nil
}

func (s *OrderService) Get(ctx context.Context, id string) (*domain.Order, error) {
	if id == "" {
		return nil, ErrInvalidInput
	}
	return s.orders.GetByID(ctx, id)
}

type ListOrdersInput struct {
	Status string
	Search string
	Page   int
	Limit  int
}

type Pagination struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"totalPages"`
}

type OrderPage struct {
	Orders     []domain.Order `json:"orders"`
	Pagination Pagination     `json:"pagination"`
}

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// List is the back-office order listing.
func (s *OrderService) List(ctx context.Context, in ListOrdersInput) (*OrderPage, error) {
	f := repository.OrderFilter{Search: in.Search}
	if in.Status != "" && in.Status != "all" {
		st, err := domain.ParseOrderStatus(in.Status)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		f.Status = st
	}
	page, limit := in.Page, in.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	f.Offset = (page - 1) * limit
	f.Limit = limit

	orders, total, err := s.orders.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return &OrderPage{
		Orders: orders,
		Pagination: Pagination{
			Total:      total,
			Page:       page,
			Limit:      limit,
			TotalPages: int((total + int64(limit) - 1) / int64(limit)),
		},
	}, nil
}

// UpdateStatus sets the order status. Any status may follow any other;
// concurrent writers race and the last one wins.
func (s *OrderService) UpdateStatus(ctx context.Context, id, status string) (*domain.Order, error) {
	if id == "" {
		return nil, ErrInvalidInput
	}
	if status == "" {
		return nil, fmt.Errorf("%w: status is required", ErrInvalidInput)
	}
	st, err := domain.ParseOrderStatus(status)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	at := s.now()
	if err := s.orders.SetStatus(ctx, id, st, at); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update order status: %w", err)
	}
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "order status updated", "order_id", id, "status", st)
	s.publish(ctx, events.TopicOrderStatusChanged, id, events.OrderStatusChanged{
		OrderID:   id,
		Status:    string(st),
		ChangedAt: at,
	})
	return o, nil
}

// publish is best-effort: the write it reports is already committed.
func (s *OrderService) publish(ctx context.Context, topic, key string, event any) {
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.publishTimeout)
	defer cancel()
	if err := s.events.PublishEvent(pctx, topic, key, event); err != nil {
		slog.ErrorContext(ctx, "publish event failed", "topic", topic, "key", key, "err", err)
	}
}
