package repository

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"storefront/internal/domain"
)

func TestMemoryStore_ProductCRUD(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	p := domain.Product{Name: "A", SKU: "S1", Price: decimal.NewFromInt(10), Stock: 5, Images: domain.Images{"a.png"}}
	if err := store.Create(ctx, &p); err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.ID == "" {
		t.Fatalf("no id")
	}

	got, err := store.GetByID(ctx, p.ID)
	if err != nil || got.ID != p.ID {
		t.Fatalf("get: %v", err)
	}
	got.Images[0] = "mutated.png"

	p.Price = decimal.NewFromInt(12)
	if err := store.Update(ctx, &p); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ = store.GetByID(ctx, p.ID)
	if !got.Price.Equal(decimal.NewFromInt(12)) || got.Images[0] != "a.png" {
		t.Fatalf("unexpected product after update: %+v", got)
	}

	now := time.Now()
	p.DeletedAt = &now
	if err := store.Update(ctx, &p); err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	if _, err := store.GetByID(ctx, p.ID); err != nil {
		t.Fatalf("soft-deleted product must stay readable: %v", err)
	}
	if n, _ := store.CountActive(ctx); n != 0 {
		t.Fatalf("active count expected 0, got %d", n)
	}
	if _, err := store.GetByID(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestMemoryTx_RollbackOnError(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	tx := NewMemoryTx(store)
	orders := NewMemoryOrders(store)

	boom := errors.New("boom")
	var orderID string
	err := tx.WithTransaction(ctx, func(ctx context.Context) error {
		o := domain.Order{UserID: "u1", Status: domain.OrderStatusPending, TotalAmount: decimal.NewFromInt(10)}
		if err := orders.Create(ctx, &o); err != nil {
			return err
		}
		orderID = o.ID
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if _, err := orders.GetByID(ctx, orderID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("order must be rolled back, got %v", err)
	}
}

func TestMemoryTx_CommitAndNested(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	tx := NewMemoryTx(store)
	orders := NewMemoryOrders(store)

	p := domain.Product{Name: "A", Price: decimal.NewFromInt(10), Stock: 5}
	if err := store.Create(ctx, &p); err != nil {
		t.Fatal(err)
	}

	var id string
	err := tx.WithTransaction(ctx, func(ctx context.Context) error {
		o := domain.Order{UserID: "u1", Status: domain.OrderStatusPending}
		if err := orders.Create(ctx, &o); err != nil {
			return err
		}
		id = o.ID
		return tx.WithTransaction(ctx, func(ctx context.Context) error {
			return orders.AddItems(ctx, o.ID, []domain.OrderItem{{ProductID: p.ID, Quantity: 3, Price: p.Price}})
		})
	})
	if err != nil {
		t.Fatalf("tx: %v", err)
	}

	o, err := orders.GetByID(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if len(o.Items) != 1 || o.Items[0].Product == nil || o.Items[0].OrderID != id {
		t.Fatalf("items not attached: %+v", o.Items)
	}
}

func TestMemoryOrders_ListFilters(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	orders := NewMemoryOrders(store)

	add := func(user, name string, st domain.OrderStatus, total int64) domain.Order {
		o := domain.Order{
			UserID:       user,
			Status:       st,
			TotalAmount:  decimal.NewFromInt(total),
			ShippingInfo: domain.ShippingInfo{FullName: name},
		}
		if err := orders.Create(ctx, &o); err != nil {
			t.Fatal(err)
		}
		return o
	}
	first := add("u1", "Alice", domain.OrderStatusPending, 10)
	add("u2", "Bob", domain.OrderStatusCancelled, 20)
	last := add("u1", "Carol", domain.OrderStatusPending, 30)

	list, total, _ := orders.List(ctx, OrderFilter{Status: domain.OrderStatusPending})
	if total != 2 || len(list) != 2 {
		t.Fatalf("status filter: total=%d len=%d", total, len(list))
	}
	if list[0].ID != last.ID || list[1].ID != first.ID {
		t.Fatalf("expected newest first")
	}

	list, total, _ = orders.List(ctx, OrderFilter{Search: "bob"})
	if total != 1 || list[0].ShippingInfo.FullName != "Bob" {
		t.Fatalf("search filter failed: %+v", list)
	}

	list, total, _ = orders.List(ctx, OrderFilter{Offset: 1, Limit: 1})
	if total != 3 || len(list) != 1 {
		t.Fatalf("paging: total=%d len=%d", total, len(list))
	}

	mine, _ := orders.ListByUser(ctx, "u1")
	if len(mine) != 2 {
		t.Fatalf("expected 2 orders for u1, got %d", len(mine))
	}

	rev, _ := orders.Revenue(ctx)
	if !rev.Equal(decimal.NewFromInt(40)) {
		t.Fatalf("revenue expected 40, got %s", rev)
	}
	counts, _ := orders.CountByStatus(ctx)
	if counts[domain.OrderStatusPending] != 2 || counts[domain.OrderStatusCancelled] != 1 {
		t.Fatalf("unexpected counts %v", counts)
	}
}

func TestMemoryReviews_RepliesAndRatings(t *testing.T) {
	ctx := context.Background()
	reviews := NewMemoryReviews(NewMemoryStore())

	top := domain.Review{ProductID: "p1", UserID: "u1", Rating: 5, Comment: "great stuff"}
	if err := reviews.Create(ctx, &top); err != nil {
		t.Fatal(err)
	}
	reply := domain.Review{ProductID: "p1", UserID: "u2", Rating: 1, Comment: "thanks!", ParentID: &top.ID}
	if err := reviews.Create(ctx, &reply); err != nil {
		t.Fatal(err)
	}

	ratings, _ := reviews.TopLevelRatings(ctx, "p1")
	if len(ratings) != 1 || ratings[0] != 5 {
		t.Fatalf("replies must not count: %v", ratings)
	}

	got, err := reviews.GetByID(ctx, top.ID)
	if err != nil || len(got.Replies) != 1 {
		t.Fatalf("expected one reply: %v %+v", err, got)
	}

	if err := reviews.Delete(ctx, top.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := reviews.GetByID(ctx, reply.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("reply must be deleted with parent")
	}
}

func TestMemoryReviews_AuthorAttached(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	users := NewMemoryUsers(store)
	reviews := NewMemoryReviews(store)

	avatar := "https://img.example.com/jane.png"
	jane := domain.User{Email: "jane@example.com", Name: "Jane", PasswordHash: "secret", Role: domain.RoleUser, Avatar: &avatar}
	if err := users.Create(ctx, &jane); err != nil {
		t.Fatal(err)
	}
	top := domain.Review{ProductID: "p1", UserID: jane.ID, Rating: 4, Comment: "nice and warm"}
	if err := reviews.Create(ctx, &top); err != nil {
		t.Fatal(err)
	}
	reply := domain.Review{ProductID: "p1", UserID: jane.ID, Rating: 1, Comment: "still good", ParentID: &top.ID}
	if err := reviews.Create(ctx, &reply); err != nil {
		t.Fatal(err)
	}

	got, err := reviews.GetByID(ctx, top.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.User == nil || got.User.Name != "Jane" || got.User.Avatar == nil || *got.User.Avatar != avatar {
		t.Fatalf("author missing: %+v", got.User)
	}
	if len(got.Replies) != 1 || got.Replies[0].User == nil || got.Replies[0].User.ID != jane.ID {
		t.Fatalf("reply author missing: %+v", got.Replies)
	}
	if got.Replies[0].Replies == nil {
		t.Fatalf("nested replies must be an empty list, not nil")
	}

	body, err := json.Marshal(got)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(body), "jane@example.com") || strings.Contains(string(body), "secret") {
		t.Fatalf("review leaks private account fields: %s", body)
	}
	if strings.Contains(string(body), `"replies":null`) {
		t.Fatalf("replies must serialize as a list: %s", body)
	}

	orphan := domain.Review{ProductID: "p1", UserID: "gone", Rating: 3, Comment: "who wrote this"}
	if err := reviews.Create(ctx, &orphan); err != nil {
		t.Fatal(err)
	}
	if got, _ := reviews.GetByID(ctx, orphan.ID); got.User != nil {
		t.Fatalf("unknown author must be left empty")
	}
}

func TestMemoryUsers_AvatarNotShared(t *testing.T) {
	ctx := context.Background()
	users := NewMemoryUsers(NewMemoryStore())

	avatar := "a.png"
	u := domain.User{Email: "a@example.com", Name: "A", Role: domain.RoleUser, Avatar: &avatar}
	if err := users.Create(ctx, &u); err != nil {
		t.Fatal(err)
	}
	avatar = "changed-by-caller.png"

	got, _ := users.GetByID(ctx, u.ID)
	if *got.Avatar != "a.png" {
		t.Fatalf("stored avatar aliased the caller's value: %s", *got.Avatar)
	}
	*got.Avatar = "mutated.png"
	again, _ := users.GetByEmail(ctx, "a@example.com")
	if *again.Avatar != "a.png" {
		t.Fatalf("returned avatar aliased the stored value: %s", *again.Avatar)
	}
}

func TestMemoryCarts(t *testing.T) {
	ctx := context.Background()
	carts := NewMemoryCarts(NewMemoryStore())

	_ = carts.SetItem(ctx, "u1", "p2", 1)
	_ = carts.SetItem(ctx, "u1", "p1", 2)
	_ = carts.SetItem(ctx, "u1", "p1", 4)

	cart, _ := carts.Get(ctx, "u1")
	if len(cart.Items) != 2 || cart.Items[0].ProductID != "p1" || cart.Items[0].Quantity != 4 {
		t.Fatalf("unexpected cart %+v", cart.Items)
	}
	_ = carts.RemoveItem(ctx, "u1", "p2")
	_ = carts.Clear(ctx, "u1")
	cart, _ = carts.Get(ctx, "u1")
	if len(cart.Items) != 0 {
		t.Fatalf("cart should be empty")
	}
}
