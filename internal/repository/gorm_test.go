package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"storefront/internal/domain"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(domain.Models()...))
	return db
}

type fixture struct {
	set     Set
	user    domain.User
	product domain.Product
}

func seedFixture(t *testing.T, db *gorm.DB) fixture {
	t.Helper()
	ctx := context.Background()
	set := NewGormSet(db)

	u := domain.User{Email: "Buyer@Example.com", Name: "Buyer", PasswordHash: "x", Role: domain.RoleUser}
	require.NoError(t, set.Users.Create(ctx, &u))
	c := domain.Category{Name: "Books", Slug: "books"}
	require.NoError(t, set.Categories.Create(ctx, &c))
	p := domain.Product{
		Name:       "Go in Action",
		Slug:       "go-in-action",
		Price:      decimal.RequireFromString("10.50"),
		Stock:      10,
		Images:     domain.Images{"cover.png"},
		CategoryID: c.ID,
		IsActive:   true,
	}
	require.NoError(t, set.Products.Create(ctx, &p))
	return fixture{set: set, user: u, product: p}
}

func TestGormOrders_ItemsFailureRollsBackOrder(t *testing.T) {
	db := openTestDB(t)
	fx := seedFixture(t, db)
	ctx := context.Background()

	injected := errors.New("injected item failure")
	require.NoError(t, db.Callback().Create().Before("gorm:create").Register("test:fail_items", func(tx *gorm.DB) {
		if tx.Statement.Table == "order_items" {
			_ = tx.AddError(injected)
		}
	}))

	err := fx.set.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		o := domain.Order{UserID: fx.user.ID, Status: domain.OrderStatusPending, TotalAmount: decimal.NewFromInt(21)}
		if err := fx.set.Orders.Create(ctx, &o); err != nil {
			return err
		}
		return fx.set.Orders.AddItems(ctx, o.ID, []domain.OrderItem{{ProductID: fx.product.ID, Quantity: 2, Price: fx.product.Price}})
	})
	require.ErrorIs(t, err, injected)

	var orders, items int64
	require.NoError(t, db.Model(&domain.Order{}).Count(&orders).Error)
	require.NoError(t, db.Model(&domain.OrderItem{}).Count(&items).Error)
	assert.Zero(t, orders)
	assert.Zero(t, items)
}

func TestGormOrders_PriceSnapshotSurvivesProductChanges(t *testing.T) {
	db := openTestDB(t)
	fx := seedFixture(t, db)
	ctx := context.Background()

	o := domain.Order{
		UserID:        fx.user.ID,
		Status:        domain.OrderStatusPending,
		TotalAmount:   decimal.RequireFromString("21"),
		PaymentMethod: domain.PaymentCOD,
		ShippingInfo:  domain.ShippingInfo{FullName: "Jane Roe", City: "Hanoi"},
	}
	require.NoError(t, fx.set.Orders.Create(ctx, &o))
	require.NoError(t, fx.set.Orders.AddItems(ctx, o.ID, []domain.OrderItem{{ProductID: fx.product.ID, Quantity: 2, Price: fx.product.Price}}))

	p := fx.product
	p.Price = decimal.NewFromInt(99)
	now := time.Now()
	p.DeletedAt = &now
	p.IsActive = false
	require.NoError(t, fx.set.Products.Update(ctx, &p))

	got, err := fx.set.Orders.GetByID(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.True(t, got.Items[0].Price.Equal(decimal.RequireFromString("10.50")))
	require.NotNil(t, got.Items[0].Product)
	assert.True(t, got.Items[0].Product.Deleted())
	require.NotNil(t, got.User)
	assert.Equal(t, fx.user.Email, got.User.Email)
	assert.Equal(t, "Jane Roe", got.ShippingInfo.FullName)

	active, err := fx.set.Products.CountActive(ctx)
	require.NoError(t, err)
	assert.Zero(t, active)
}

func TestGormOrders_ListStatusAndTotals(t *testing.T) {
	db := openTestDB(t)
	fx := seedFixture(t, db)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	mk := func(name string, st domain.OrderStatus, total string, offset time.Duration) domain.Order {
		o := domain.Order{
			UserID:       fx.user.ID,
			Status:       st,
			TotalAmount:  decimal.RequireFromString(total),
			ShippingInfo: domain.ShippingInfo{FullName: name},
			CreatedAt:    base.Add(offset),
		}
		require.NoError(t, fx.set.Orders.Create(ctx, &o))
		return o
	}
	a := mk("Alice", domain.OrderStatusPending, "10", 0)
	mk("Bob", domain.OrderStatusCancelled, "20", time.Minute)
	c := mk("Carol", domain.OrderStatusPending, "30.25", 2*time.Minute)

	list, total, err := fx.set.Orders.List(ctx, OrderFilter{Status: domain.OrderStatusPending})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, list, 2)
	assert.Equal(t, c.ID, list[0].ID)
	assert.Equal(t, a.ID, list[1].ID)

	list, total, err = fx.set.Orders.List(ctx, OrderFilter{Search: "carol"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, c.ID, list[0].ID)

	list, total, err = fx.set.Orders.List(ctx, OrderFilter{Search: "buyer@example"})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, list, 3)

	list, total, err = fx.set.Orders.List(ctx, OrderFilter{Offset: 2, Limit: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, list, 1)
	assert.Equal(t, a.ID, list[0].ID)

	at := time.Now()
	require.NoError(t, fx.set.Orders.SetStatus(ctx, a.ID, domain.OrderStatusShipped, at))
	require.NoError(t, fx.set.Orders.SetStatus(ctx, a.ID, domain.OrderStatusShipped, at))
	assert.ErrorIs(t, fx.set.Orders.SetStatus(ctx, "missing", domain.OrderStatusShipped, at), ErrNotFound)

	counts, err := fx.set.Orders.CountByStatus(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, counts[domain.OrderStatusShipped])
	assert.EqualValues(t, 1, counts[domain.OrderStatusCancelled])

	rev, err := fx.set.Orders.Revenue(ctx)
	require.NoError(t, err)
	assert.True(t, rev.Equal(decimal.RequireFromString("40.25")), rev.String())
}

func TestGormReviews_RepliesAndCascade(t *testing.T) {
	db := openTestDB(t)
	fx := seedFixture(t, db)
	ctx := context.Background()

	top := domain.Review{ProductID: fx.product.ID, UserID: fx.user.ID, Rating: 4, Comment: "solid book"}
	require.NoError(t, fx.set.Reviews.Create(ctx, &top))
	reply := domain.Review{ProductID: fx.product.ID, UserID: fx.user.ID, Rating: 1, Comment: "agreed", ParentID: &top.ID}
	require.NoError(t, fx.set.Reviews.Create(ctx, &reply))

	ratings, err := fx.set.Reviews.TopLevelRatings(ctx, fx.product.ID)
	require.NoError(t, err)
	assert.Equal(t, []int{4}, ratings)

	got, err := fx.set.Reviews.GetByID(ctx, top.ID)
	require.NoError(t, err)
	require.Len(t, got.Replies, 1)
	assert.Equal(t, reply.ID, got.Replies[0].ID)
	require.NotNil(t, got.User)
	assert.Equal(t, fx.user.ID, got.User.ID)
	assert.Equal(t, fx.user.Name, got.User.Name)
	require.NotNil(t, got.Replies[0].User)
	assert.Equal(t, fx.user.ID, got.Replies[0].User.ID)
	assert.NotNil(t, got.Replies[0].Replies)

	require.NoError(t, fx.set.Reviews.Delete(ctx, top.ID))
	_, err = fx.set.Reviews.GetByID(ctx, reply.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, fx.set.Reviews.Delete(ctx, top.ID), ErrNotFound)
}

func TestGormCartsAndUsers(t *testing.T) {
	db := openTestDB(t)
	fx := seedFixture(t, db)
	ctx := context.Background()

	require.NoError(t, fx.set.Carts.SetItem(ctx, fx.user.ID, fx.product.ID, 1))
	require.NoError(t, fx.set.Carts.SetItem(ctx, fx.user.ID, fx.product.ID, 3))
	cart, err := fx.set.Carts.Get(ctx, fx.user.ID)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 3, cart.Items[0].Quantity)
	require.NoError(t, fx.set.Carts.Clear(ctx, fx.user.ID))
	cart, err = fx.set.Carts.Get(ctx, fx.user.ID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)

	u, err := fx.set.Users.GetByEmail(ctx, "buyer@example.com")
	require.NoError(t, err)
	assert.Equal(t, fx.user.ID, u.ID)

	ghost := domain.User{ID: "missing", Email: "g@example.com", Role: domain.RoleUser}
	assert.ErrorIs(t, fx.set.Users.Update(ctx, &ghost), ErrNotFound)

	n, err := fx.set.Users.CountActive(ctx, domain.RoleUser)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}
