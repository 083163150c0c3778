package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/domain"
	"storefront/internal/events"
	"storefront/internal/repository"
)

func TestCreateOrder_PendingWithSnapshotPrices(t *testing.T) {
	ctx := context.Background()
	e := setup(t)
	p1 := e.product(t, "A", "10.50")
	p2 := e.product(t, "B", "20")

	o, err := e.orders.CreateOrder(ctx, orderInput("u1",
		PlaceOrderItem{ProductID: p1.ID, Quantity: 2, Price: decimal.RequireFromString("9.99")},
		PlaceOrderItem{ProductID: p2.ID, Quantity: 1, Price: decimal.RequireFromString("20")},
	))
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPending, o.Status)
	assert.True(t, o.TotalAmount.Equal(decimal.RequireFromString("30")))
	require.Len(t, o.Items, 2)

	prices := map[string]decimal.Decimal{}
	for _, it := range o.Items {
		require.NotNil(t, it.Product)
		prices[it.ProductID] = it.Price
	}
	assert.True(t, prices[p1.ID].Equal(decimal.RequireFromString("9.99")))

	// stock is not reserved
	after, err := e.products.Get(ctx, p1.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, after.Stock)

	assert.Equal(t, []string{events.TopicOrderPlaced}, e.pub.topics())
	ev := e.pub.events[0].event.(events.OrderPlaced)
	assert.Equal(t, o.ID, ev.OrderID)
	assert.Equal(t, 2, ev.ItemCount)
}

func TestCreateOrder_EmptyItemsWritesNothing(t *testing.T) {
	ctx := context.Background()
	e := setup(t)

	_, err := e.orders.CreateOrder(ctx, orderInput("u1"))
	require.ErrorIs(t, err, ErrInvalidInput)

	page, err := e.orders.List(ctx, ListOrdersInput{})
	require.NoError(t, err)
	assert.Zero(t, page.Pagination.Total)
	assert.Empty(t, e.pub.topics())
}

func TestCreateOrder_InvalidInput(t *testing.T) {
	ctx := context.Background()
	e := setup(t)
	p := e.product(t, "A", "10")
	item := PlaceOrderItem{ProductID: p.ID, Quantity: 1, Price: decimal.NewFromInt(10)}

	cases := map[string]func(in *PlaceOrderInput){
		"zero quantity":    func(in *PlaceOrderInput) { in.Items[0].Quantity = 0 },
		"huge quantity":    func(in *PlaceOrderInput) { in.Items[0].Quantity = 1000 },
		"negative price":   func(in *PlaceOrderInput) { in.Items[0].Price = decimal.NewFromInt(-1) },
		"missing product":  func(in *PlaceOrderInput) { in.Items[0].ProductID = "" },
		"short phone":      func(in *PlaceOrderInput) { in.ShippingInfo.Phone = "123" },
		"bad email":        func(in *PlaceOrderInput) { in.ShippingInfo.Email = "nope" },
		"payment method":   func(in *PlaceOrderInput) { in.PaymentMethod = "bitcoin" },
		"negative total":   func(in *PlaceOrderInput) { in.TotalAmount = decimal.NewFromInt(-5) },
		"missing user":     func(in *PlaceOrderInput) { in.UserID = "" },
		"short full name":  func(in *PlaceOrderInput) { in.ShippingInfo.FullName = "J" },
		"missing district": func(in *PlaceOrderInput) { in.ShippingInfo.District = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := orderInput("u1", item)
			mutate(&in)
			_, err := e.orders.CreateOrder(ctx, in)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestCreateOrder_UnknownOrDeletedProduct(t *testing.T) {
	ctx := context.Background()
	e := setup(t)
	p := e.product(t, "A", "10")
	gone := e.product(t, "Gone", "10")
	require.NoError(t, e.products.Delete(ctx, gone.ID))

	_, err := e.orders.CreateOrder(ctx, orderInput("u1",
		PlaceOrderItem{ProductID: p.ID, Quantity: 1, Price: decimal.NewFromInt(10)},
		PlaceOrderItem{ProductID: "missing", Quantity: 1, Price: decimal.NewFromInt(10)},
	))
	require.ErrorIs(t, err, repository.ErrNotFound)

	_, err = e.orders.CreateOrder(ctx, orderInput("u1",
		PlaceOrderItem{ProductID: gone.ID, Quantity: 1, Price: decimal.NewFromInt(10)},
	))
	require.ErrorIs(t, err, repository.ErrNotFound)

	page, err := e.orders.List(ctx, ListOrdersInput{})
	require.NoError(t, err)
	assert.Zero(t, page.Pagination.Total)
}

type failingItems struct {
	repository.OrderRepository
	err error
}

func (f failingItems) AddItems(context.Context, string, []domain.OrderItem) error { return f.err }

func TestCreateOrder_ItemFailureRollsBackOrder(t *testing.T) {
	ctx := context.Background()
	e := setup(t)
	p := e.product(t, "A", "10")

	boom := errors.New("disk full")
	svc := NewOrderService(e.set.Products, failingItems{OrderRepository: e.set.Orders, err: boom}, e.set.Tx, e.pub)
	_, err := svc.CreateOrder(ctx, orderInput("u1", PlaceOrderItem{ProductID: p.ID, Quantity: 1, Price: decimal.NewFromInt(10)}))
	require.ErrorIs(t, err, boom)

	mine, err := e.orders.ListForUser(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, mine)
	assert.Empty(t, e.pub.topics())
}

func TestCreateOrder_PublishFailureIsNotFatal(t *testing.T) {
	ctx := context.Background()
	e := setup(t)
	p := e.product(t, "A", "10")
	e.pub.err = errors.New("broker down")

	o, err := e.orders.CreateOrder(ctx, orderInput("u1", PlaceOrderItem{ProductID: p.ID, Quantity: 1, Price: decimal.NewFromInt(10)}))
	require.NoError(t, err)
	assert.NotEmpty(t, o.ID)
}

// stallingPublisher never reaches a broker; it waits until the caller gives up.
type stallingPublisher struct {
	mu        sync.Mutex
	deadlines int
}

func (p *stallingPublisher) PublishEvent(ctx context.Context, _, _ string, _ any) error {
	if _, ok := ctx.Deadline(); ok {
		p.mu.Lock()
		p.deadlines++
		p.mu.Unlock()
	}
	<-ctx.Done()
	return ctx.Err()
}

func (p *stallingPublisher) Close() error { return nil }

func TestStalledBrokerDoesNotHoldRequests(t *testing.T) {
	ctx := context.Background()
	e := setup(t)
	p := e.product(t, "A", "10")

	pub := &stallingPublisher{}
	svc := NewOrderService(e.set.Products, e.set.Orders, e.set.Tx, pub)
	svc.publishTimeout = 20 * time.Millisecond

	start := time.Now()
	o, err := svc.CreateOrder(ctx, orderInput("u1", PlaceOrderItem{ProductID: p.ID, Quantity: 1, Price: decimal.NewFromInt(10)}))
	require.NoError(t, err)
	_, err = svc.UpdateStatus(ctx, o.ID, "SHIPPED")
	require.NoError(t, err)
	assert.Less(t, time.Since(start), time.Second)

	pub.mu.Lock()
	defer pub.mu.Unlock()
	assert.Equal(t, 2, pub.deadlines)
}

func TestPlacedOrderIgnoresLaterPriceChanges(t *testing.T) {
	ctx := context.Background()
	e := setup(t)
	p := e.product(t, "A", "10")

	o, err := e.orders.CreateOrder(ctx, orderInput("u1", PlaceOrderItem{ProductID: p.ID, Quantity: 3, Price: decimal.NewFromInt(10)}))
	require.NoError(t, err)

	newPrice := decimal.NewFromInt(99)
	_, err = e.products.Update(ctx, p.ID, ProductPatch{Price: &newPrice})
	require.NoError(t, err)
	require.NoError(t, e.products.Delete(ctx, p.ID))

	got, err := e.orders.GetForUser(ctx, o.ID, "u1")
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.True(t, got.Items[0].Price.Equal(decimal.NewFromInt(10)))
	assert.True(t, got.Items[0].Subtotal().Equal(decimal.NewFromInt(30)))
	require.NotNil(t, got.Items[0].Product)
	assert.True(t, got.Items[0].Product.Deleted())
}

func TestGetForUser_HidesOtherUsersOrders(t *testing.T) {
	ctx := context.Background()
	e := setup(t)
	p := e.product(t, "A", "10")
	o, err := e.orders.CreateOrder(ctx, orderInput("u1", PlaceOrderItem{ProductID: p.ID, Quantity: 1, Price: decimal.NewFromInt(10)}))
	require.NoError(t, err)

	_, err = e.orders.GetForUser(ctx, o.ID, "u2")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	mine, err := e.orders.ListForUser(ctx, "u2")
	require.NoError(t, err)
	assert.Empty(t, mine)
}

func TestUpdateStatus_AnyTransitionAllowed(t *testing.T) {
	ctx := context.Background()
	e := setup(t)
	p := e.product(t, "A", "10")
	o, err := e.orders.CreateOrder(ctx, orderInput("u1", PlaceOrderItem{ProductID: p.ID, Quantity: 2, Price: decimal.NewFromInt(10)}))
	require.NoError(t, err)

	for _, st := range []string{"DELIVERED", "pending", "CANCELLED", "SHIPPED"} {
		got, err := e.orders.UpdateStatus(ctx, o.ID, st)
		require.NoError(t, err, st)
		assert.Equal(t, strings.ToUpper(st), string(got.Status))
		assert.True(t, got.TotalAmount.Equal(o.TotalAmount))
		assert.Len(t, got.Items, 1)
	}
	assert.Len(t, e.pub.topics(), 5)
}

func TestUpdateStatus_Errors(t *testing.T) {
	ctx := context.Background()
	e := setup(t)
	p := e.product(t, "A", "10")
	o, err := e.orders.CreateOrder(ctx, orderInput("u1", PlaceOrderItem{ProductID: p.ID, Quantity: 1, Price: decimal.NewFromInt(10)}))
	require.NoError(t, err)

	_, err = e.orders.UpdateStatus(ctx, o.ID, "")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = e.orders.UpdateStatus(ctx, o.ID, "LOST")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = e.orders.UpdateStatus(ctx, "missing", "SHIPPED")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	got, err := e.orders.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPending, got.Status)
}

func TestUpdateStatus_ConcurrentWritersLastWins(t *testing.T) {
	ctx := context.Background()
	e := setup(t)
	p := e.product(t, "A", "10")
	o, err := e.orders.CreateOrder(ctx, orderInput("u1", PlaceOrderItem{ProductID: p.ID, Quantity: 1, Price: decimal.NewFromInt(10)}))
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			st := domain.OrderStatuses[i%len(domain.OrderStatuses)]
			if _, err := e.orders.UpdateStatus(ctx, o.ID, string(st)); err != nil {
				errs <- fmt.Errorf("writer %d: %w", i, err)
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}

	got, err := e.orders.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.True(t, got.Status.Valid())
	assert.True(t, got.TotalAmount.Equal(o.TotalAmount))
}

func TestListOrders_Pagination(t *testing.T) {
	ctx := context.Background()
	e := setup(t)
	p := e.product(t, "A", "10")
	for i := 0; i < 3; i++ {
		_, err := e.orders.CreateOrder(ctx, orderInput("u1", PlaceOrderItem{ProductID: p.ID, Quantity: 1, Price: decimal.NewFromInt(10)}))
		require.NoError(t, err)
	}

	page, err := e.orders.List(ctx, ListOrdersInput{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 3, page.Pagination.Total)
	assert.Equal(t, 2, page.Pagination.TotalPages)
	assert.Len(t, page.Orders, 1)

	page, err = e.orders.List(ctx, ListOrdersInput{Status: "shipped"})
	require.NoError(t, err)
	assert.Zero(t, page.Pagination.Total)

	_, err = e.orders.List(ctx, ListOrdersInput{Status: "bogus"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}
