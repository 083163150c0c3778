package repository

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"storefront/internal/domain"
)

// MemoryStore is the in-memory backing store shared by every Memory* repository.
// It is used by tests and by the "memory" database driver
type MemoryStore struct {
	mu         sync.RWMutex
	last       time.Time
	users      map[string]domain.User
	categories map[string]domain.Category
	products   map[string]domain.Product
	orders     map[string]domain.Order
	orderItems map[string][]domain.OrderItem
	reviews    map[string]domain.Review
	carts      map[string]map[string]domain.CartItem
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:      make(map[string]domain.User),
		categories: make(map[string]domain.Category),
		products:   make(map[string]domain.Product),
		orders:     make(map[string]domain.Order),
		orderItems: make(map[string][]domain.OrderItem),
		reviews:    make(map[string]domain.Review),
		carts:      make(map[string]map[string]domain.CartItem),
	}
}

// NewMemorySet wires every repository over a fresh MemoryStore.
func NewMemorySet() Set {
	store := NewMemoryStore()
	return Set{
		Users:      NewMemoryUsers(store),
		Categories: NewMemoryCategories(store),
		Products:   store,
		Orders:     NewMemoryOrders(store),
		Reviews:    NewMemoryReviews(store),
		Carts:      NewMemoryCarts(store),
		Tx:         NewMemoryTx(store),
	}
}

// transaction-aware locking helpers
type txKey struct{}

func isTx(ctx context.Context) bool {
	v := ctx.Value(txKey{})
	if v == nil {
		return false
	}
	b, ok := v.(bool)
	return ok && b
}

func (m *MemoryStore) rlock(ctx context.Context) {
	if !isTx(ctx) {
		m.mu.RLock()
	}
}
func (m *MemoryStore) runlock(ctx context.Context) {
	if !isTx(ctx) {
		m.mu.RUnlock()
	}
}
func (m *MemoryStore) wlock(ctx context.Context) {
	if !isTx(ctx) {
		m.mu.Lock()
	}
}
func (m *MemoryStore) wunlock(ctx context.Context) {
	if !isTx(ctx) {
		m.mu.Unlock()
	}
}

// now returns a strictly increasing timestamp so listings have a stable order.
// Callers must hold the write lock.
func (m *MemoryStore) now() time.Time {
	t := time.Now().UTC()
	if !t.After(m.last) {
		t = m.last.Add(time.Microsecond)
	}
	m.last = t
	return t
}

type memorySnapshot struct {
	last       time.Time
	users      map[string]domain.User
	categories map[string]domain.Category
	products   map[string]domain.Product
	orders     map[string]domain.Order
	orderItems map[string][]domain.OrderItem
	reviews    map[string]domain.Review
	carts      map[string]map[string]domain.CartItem
}

func (m *MemoryStore) snapshot() memorySnapshot {
	carts := make(map[string]map[string]domain.CartItem, len(m.carts))
	for k, v := range m.carts {
		carts[k] = copyMap(v)
	}
	return memorySnapshot{
		last:       m.last,
		users:      copyMap(m.users),
		categories: copyMap(m.categories),
		products:   copyMap(m.products),
		orders:     copyMap(m.orders),
		orderItems: copyMap(m.orderItems),
		reviews:    copyMap(m.reviews),
		carts:      carts,
	}
}

func (m *MemoryStore) restore(s memorySnapshot) {
	m.last = s.last
	m.users = s.users
	m.categories = s.categories
	m.products = s.products
	m.orders = s.orders
	m.orderItems = s.orderItems
	m.reviews = s.reviews
	m.carts = s.carts
}

func copyMap[K comparable, V any](src map[K]V) map[K]V {
	dst := make(map[K]V, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func cloneString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// cloneUser detaches the pointer fields of u from any other copy.
func cloneUser(u domain.User) domain.User {
	u.DeletedAt = cloneTime(u.DeletedAt)
	u.Avatar = cloneString(u.Avatar)
	return u
}

func cloneTime(p *time.Time) *time.Time {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneProduct(p domain.Product) domain.Product {
	p.Images = slices.Clone(p.Images)
	p.DeletedAt = cloneTime(p.DeletedAt)
	p.Category = nil
	return p
}

func newID(id string) string {
	if id == "" {
		return uuid.NewString()
	}
	return id
}

// Ensure interfaces
var _ ProductRepository = (*MemoryStore)(nil)

// ProductRepository implementation
func (m *MemoryStore) Create(ctx context.Context, p *domain.Product) error {
	m.wlock(ctx)
	defer m.wunlock(ctx)
	p.ID = newID(p.ID)
	p.CreatedAt = m.now()
	p.UpdatedAt = p.CreatedAt
	m.products[p.ID] = cloneProduct(*p)
	return nil
}

func (m *MemoryStore) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	m.rlock(ctx)
	defer m.runlock(ctx)
	p, ok := m.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	// return copy
	cp := cloneProduct(p)
	if c, ok := m.categories[p.CategoryID]; ok {
		cp.Category = &c
	}
	return &cp, nil
}

func (m *MemoryStore) Update(ctx context.Context, p *domain.Product) error {
	m.wlock(ctx)
	defer m.wunlock(ctx)
	old, ok := m.products[p.ID]
	if !ok {
		return ErrNotFound
	}
	p.CreatedAt = old.CreatedAt
	p.UpdatedAt = m.now()
	m.products[p.ID] = cloneProduct(*p)
	return nil
}

func (m *MemoryStore) CountActive(ctx context.Context) (int64, error) {
	m.rlock(ctx)
	defer m.runlock(ctx)
	var n int64
	for _, p := range m.products {
		if p.DeletedAt == nil {
			n++
		}
	}
	return n, nil
}

// UserRepository implementation on wrapper type
type MemoryUsers struct{ store *MemoryStore }

func NewMemoryUsers(store *MemoryStore) *MemoryUsers { return &MemoryUsers{store: store} }

var _ UserRepository = (*MemoryUsers)(nil)

func (mu *MemoryUsers) Create(ctx context.Context, u *domain.User) error {
	mu.store.wlock(ctx)
	defer mu.store.wunlock(ctx)
	u.ID = newID(u.ID)
	u.CreatedAt = mu.store.now()
	u.UpdatedAt = u.CreatedAt
	mu.store.users[u.ID] = cloneUser(*u)
	return nil
}

func (mu *MemoryUsers) GetByID(ctx context.Context, id string) (*domain.User, error) {
	mu.store.rlock(ctx)
	defer mu.store.runlock(ctx)
	u, ok := mu.store.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	u = cloneUser(u)
	return &u, nil
}

func (mu *MemoryUsers) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	mu.store.rlock(ctx)
	defer mu.store.runlock(ctx)
	for _, u := range mu.store.users {
		if strings.EqualFold(u.Email, email) {
			u = cloneUser(u)
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (mu *MemoryUsers) Update(ctx context.Context, u *domain.User) error {
	mu.store.wlock(ctx)
	defer mu.store.wunlock(ctx)
	old, ok := mu.store.users[u.ID]
	if !ok {
		return ErrNotFound
	}
	u.CreatedAt = old.CreatedAt
	u.UpdatedAt = mu.store.now()
	mu.store.users[u.ID] = cloneUser(*u)
	return nil
}

func (mu *MemoryUsers) CountActive(ctx context.Context, role domain.Role) (int64, error) {
	mu.store.rlock(ctx)
	defer mu.store.runlock(ctx)
	var n int64
	for _, u := range mu.store.users {
		if u.DeletedAt == nil && u.Role == role {
			n++
		}
	}
	return n, nil
}

// CategoryRepository implementation on wrapper type
type MemoryCategories struct{ store *MemoryStore }

func NewMemoryCategories(store *MemoryStore) *MemoryCategories {
	return &MemoryCategories{store: store}
}

var _ CategoryRepository = (*MemoryCategories)(nil)

func (mc *MemoryCategories) Create(ctx context.Context, c *domain.Category) error {
	mc.store.wlock(ctx)
	defer mc.store.wunlock(ctx)
	c.ID = newID(c.ID)
	c.CreatedAt = mc.store.now()
	c.UpdatedAt = c.CreatedAt
	cp := *c
	cp.ParentID = cloneString(c.ParentID)
	mc.store.categories[c.ID] = cp
	return nil
}

func (mc *MemoryCategories) GetByID(ctx context.Context, id string) (*domain.Category, error) {
	mc.store.rlock(ctx)
	defer mc.store.runlock(ctx)
	c, ok := mc.store.categories[id]
	if !ok {
		return nil, ErrNotFound
	}
	c.ParentID = cloneString(c.ParentID)
	c.DeletedAt = cloneTime(c.DeletedAt)
	return &c, nil
}

func (mc *MemoryCategories) Update(ctx context.Context, c *domain.Category) error {
	mc.store.wlock(ctx)
	defer mc.store.wunlock(ctx)
	old, ok := mc.store.categories[c.ID]
	if !ok {
		return ErrNotFound
	}
	c.CreatedAt = old.CreatedAt
	c.UpdatedAt = mc.store.now()
	cp := *c
	cp.ParentID = cloneString(c.ParentID)
	mc.store.categories[c.ID] = cp
	return nil
}

// OrderRepository implementation on wrapper type
type MemoryOrders struct{ store *MemoryStore }

func NewMemoryOrders(store *MemoryStore) *MemoryOrders { return &MemoryOrders{store: store} }

var _ OrderRepository = (*MemoryOrders)(nil)

func (mo *MemoryOrders) Create(ctx context.Context, o *domain.Order) error {
	mo.store.wlock(ctx)
	defer mo.store.wunlock(ctx)
	o.ID = newID(o.ID)
	o.CreatedAt = mo.store.now()
	o.UpdatedAt = o.CreatedAt
	cp := *o
	cp.Items = nil
	cp.User = nil
	mo.store.orders[o.ID] = cp
	return nil
}

func (mo *MemoryOrders) AddItems(ctx context.Context, orderID string, items []domain.OrderItem) error {
	mo.store.wlock(ctx)
	defer mo.store.wunlock(ctx)
	if _, ok := mo.store.orders[orderID]; !ok {
		return ErrNotFound
	}
	stored := slices.Clone(mo.store.orderItems[orderID])
	for i := range items {
		items[i].ID = newID(items[i].ID)
		items[i].OrderID = orderID
		it := items[i]
		it.Product = nil
		stored = append(stored, it)
	}
	mo.store.orderItems[orderID] = stored
	return nil
}

// assemble attaches items, their products (soft-deleted ones included) and the owner.
func (mo *MemoryOrders) assemble(o domain.Order) domain.Order {
	items := make([]domain.OrderItem, 0, len(mo.store.orderItems[o.ID]))
	for _, it := range mo.store.orderItems[o.ID] {
		if p, ok := mo.store.products[it.ProductID]; ok {
			cp := cloneProduct(p)
			it.Product = &cp
		}
		items = append(items, it)
	}
	o.Items = items
	if u, ok := mo.store.users[o.UserID]; ok {
		u = cloneUser(u)
		o.User = &u
	}
	return o
}

func (mo *MemoryOrders) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	mo.store.rlock(ctx)
	defer mo.store.runlock(ctx)
	o, ok := mo.store.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := mo.assemble(o)
	return &cp, nil
}

func (mo *MemoryOrders) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	mo.store.rlock(ctx)
	defer mo.store.runlock(ctx)
	out := make([]domain.Order, 0)
	for _, o := range mo.store.orders {
		if o.UserID == userID {
			out = append(out, mo.assemble(o))
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (mo *MemoryOrders) List(ctx context.Context, f OrderFilter) ([]domain.Order, int64, error) {
	mo.store.rlock(ctx)
	defer mo.store.runlock(ctx)
	out := make([]domain.Order, 0)
	for _, o := range mo.store.orders {
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		if !f.CreatedAfter.IsZero() && o.CreatedAt.Before(f.CreatedAfter) {
			continue
		}
		full := mo.assemble(o)
		if f.Search != "" && !orderMatches(full, f.Search) {
			continue
		}
		out = append(out, full)
	}
	sortNewestFirst(out)
	total := int64(len(out))
	if f.Offset > 0 {
		if f.Offset >= len(out) {
			return []domain.Order{}, total, nil
		}
		out = out[f.Offset:]
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, total, nil
}

func orderMatches(o domain.Order, q string) bool {
	if containsIgnoreCase(o.ID, q) {
		return true
	}
	s := o.ShippingInfo
	for _, field := range []string{s.FullName, s.Email, s.Phone, s.Address, s.City, s.District} {
		if containsIgnoreCase(field, q) {
			return true
		}
	}
	return o.User != nil && containsIgnoreCase(o.User.Email, q)
}

func sortNewestFirst(orders []domain.Order) {
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
}

func (mo *MemoryOrders) SetStatus(ctx context.Context, id string, status domain.OrderStatus, at time.Time) error {
	mo.store.wlock(ctx)
	defer mo.store.wunlock(ctx)
	o, ok := mo.store.orders[id]
	if !ok {
		return ErrNotFound
	}
	o.Status = status
	o.UpdatedAt = at
	mo.store.orders[id] = o
	return nil
}

func (mo *MemoryOrders) CountByStatus(ctx context.Context) (map[domain.OrderStatus]int64, error) {
	mo.store.rlock(ctx)
	defer mo.store.runlock(ctx)
	counts := make(map[domain.OrderStatus]int64)
	for _, o := range mo.store.orders {
		counts[o.Status]++
	}
	return counts, nil
}

func (mo *MemoryOrders) Revenue(ctx context.Context) (decimal.Decimal, error) {
	mo.store.rlock(ctx)
	defer mo.store.runlock(ctx)
	sum := decimal.Zero
	for _, o := range mo.store.orders {
		if o.Status != domain.OrderStatusCancelled {
			sum = sum.Add(o.TotalAmount)
		}
	}
	return sum, nil
}

// ReviewRepository implementation on wrapper type
type MemoryReviews struct{ store *MemoryStore }

func NewMemoryReviews(store *MemoryStore) *MemoryReviews { return &MemoryReviews{store: store} }

var _ ReviewRepository = (*MemoryReviews)(nil)

func (mr *MemoryReviews) Create(ctx context.Context, r *domain.Review) error {
	mr.store.wlock(ctx)
	defer mr.store.wunlock(ctx)
	r.ID = newID(r.ID)
	r.CreatedAt = mr.store.now()
	r.UpdatedAt = r.CreatedAt
	cp := *r
	cp.ParentID = cloneString(r.ParentID)
	cp.User = nil
	cp.Replies = nil
	mr.store.reviews[r.ID] = cp
	return nil
}

func (mr *MemoryReviews) GetByID(ctx context.Context, id string) (*domain.Review, error) {
	mr.store.rlock(ctx)
	defer mr.store.runlock(ctx)
	r, ok := mr.store.reviews[id]
	if !ok {
		return nil, ErrNotFound
	}
	r.ParentID = cloneString(r.ParentID)
	r.User = mr.author(r.UserID)
	r.Replies = []domain.Review{}
	for _, reply := range mr.store.reviews {
		if reply.ParentID != nil && *reply.ParentID == id {
			reply.ParentID = cloneString(reply.ParentID)
			reply.User = mr.author(reply.UserID)
			reply.Replies = []domain.Review{}
			r.Replies = append(r.Replies, reply)
		}
	}
	sort.Slice(r.Replies, func(i, j int) bool {
		return r.Replies[i].CreatedAt.Before(r.Replies[j].CreatedAt)
	})
	return &r, nil
}

// author must be called under the store lock.
func (mr *MemoryReviews) author(userID string) *domain.Author {
	u, ok := mr.store.users[userID]
	if !ok {
		return nil
	}
	return domain.AuthorOf(&u)
}

func (mr *MemoryReviews) Delete(ctx context.Context, id string) error {
	mr.store.wlock(ctx)
	defer mr.store.wunlock(ctx)
	if _, ok := mr.store.reviews[id]; !ok {
		return ErrNotFound
	}
	for rid, reply := range mr.store.reviews {
		if reply.ParentID != nil && *reply.ParentID == id {
			delete(mr.store.reviews, rid)
		}
	}
	delete(mr.store.reviews, id)
	return nil
}

func (mr *MemoryReviews) TopLevelRatings(ctx context.Context, productID string) ([]int, error) {
	mr.store.rlock(ctx)
	defer mr.store.runlock(ctx)
	ratings := make([]int, 0)
	for _, r := range mr.store.reviews {
		if r.ProductID == productID && r.ParentID == nil {
			ratings = append(ratings, r.Rating)
		}
	}
	return ratings, nil
}

// CartRepository implementation on wrapper type
type MemoryCarts struct{ store *MemoryStore }

func NewMemoryCarts(store *MemoryStore) *MemoryCarts { return &MemoryCarts{store: store} }

var _ CartRepository = (*MemoryCarts)(nil)

func (mc *MemoryCarts) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	mc.store.rlock(ctx)
	defer mc.store.runlock(ctx)
	cart := &domain.Cart{UserID: userID, Items: []domain.CartItem{}}
	for _, it := range mc.store.carts[userID] {
		cart.Items = append(cart.Items, it)
	}
	sort.Slice(cart.Items, func(i, j int) bool {
		return cart.Items[i].ProductID < cart.Items[j].ProductID
	})
	return cart, nil
}

func (mc *MemoryCarts) SetItem(ctx context.Context, userID, productID string, quantity int) error {
	mc.store.wlock(ctx)
	defer mc.store.wunlock(ctx)
	items, ok := mc.store.carts[userID]
	if !ok {
		items = make(map[string]domain.CartItem)
		mc.store.carts[userID] = items
	}
	items[productID] = domain.CartItem{
		UserID:    userID,
		ProductID: productID,
		Quantity:  quantity,
		UpdatedAt: mc.store.now(),
	}
	return nil
}

func (mc *MemoryCarts) RemoveItem(ctx context.Context, userID, productID string) error {
	mc.store.wlock(ctx)
	defer mc.store.wunlock(ctx)
	delete(mc.store.carts[userID], productID)
	return nil
}

func (mc *MemoryCarts) Clear(ctx context.Context, userID string) error {
	mc.store.wlock(ctx)
	defer mc.store.wunlock(ctx)
	delete(mc.store.carts, userID)
	return nil
}

// Tx manager using write lock to emulate transaction boundary. Changes made
// inside fn are rolled back from a snapshot when fn fails
type MemoryTx struct{ store *MemoryStore }

func NewMemoryTx(store *MemoryStore) *MemoryTx { return &MemoryTx{store: store} }

func (tx *MemoryTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if isTx(ctx) {
		return fn(ctx)
	}
	tx.store.mu.Lock()
	defer tx.store.mu.Unlock()
	snap := tx.store.snapshot()
	committed := false
	defer func() {
		if !committed {
			tx.store.restore(snap)
		}
	}()
	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		return err
	}
	committed = true
	return nil
}
