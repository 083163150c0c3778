package repository

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"storefront/internal/domain"
)

// GormOrders is the SQL-backed OrderRepository
type GormOrders struct{ db *gorm.DB }

func NewGormOrders(db *gorm.DB) *GormOrders { return &GormOrders{db: db} }

var _ OrderRepository = (*GormOrders)(nil)

func (r *GormOrders) Create(ctx context.Context, o *domain.Order) error {
	ensureID(&o.ID)
	return conn(ctx, r.db).Omit(clause.Associations).Create(o).Error
}

func (r *GormOrders) AddItems(ctx context.Context, orderID string, items []domain.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		ensureID(&items[i].ID)
		items[i].OrderID = orderID
	}
	return conn(ctx, r.db).Omit(clause.Associations).Create(&items).Error
}

// withDetails loads items with their products and the owning account.
func withDetails(db *gorm.DB) *gorm.DB {
	return db.Preload("Items.Product").Preload("User")
}

func (r *GormOrders) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	var o domain.Order
	if err := conn(ctx, r.db).Scopes(withDetails).First(&o, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &o, nil
}

func (r *GormOrders) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	out := make([]domain.Order, 0)
	err := conn(ctx, r.db).Scopes(withDetails).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}

func orderFilter(f OrderFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if f.Status != "" {
			db = db.Where("orders.status = ?", f.Status)
		}
		if !f.CreatedAfter.IsZero() {
			db = db.Where("orders.created_at >= ?", f.CreatedAfter)
		}
		if q := strings.TrimSpace(f.Search); q != "" {
			like := "%" + strings.ToLower(q) + "%"
			users := db.Session(&gorm.Session{NewDB: true}).
				Model(&domain.User{}).
				Select("id").
				Where("LOWER(email) LIKE ?", like)
			db = db.Where("LOWER(orders.id) LIKE ? OR LOWER(orders.shipping_info) LIKE ? OR orders.user_id IN (?)", like, like, users)
		}
		return db
	}
}

func (r *GormOrders) List(ctx context.Context, f OrderFilter) ([]domain.Order, int64, error) {
	var total int64
	if err := conn(ctx, r.db).Model(&domain.Order{}).Scopes(orderFilter(f)).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	q := conn(ctx, r.db).Scopes(orderFilter(f), withDetails).Order("orders.created_at DESC")
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	out := make([]domain.Order, 0)
	if err := q.Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *GormOrders) SetStatus(ctx context.Context, id string, status domain.OrderStatus, at time.Time) error {
	res := conn(ctx, r.db).Model(&domain.Order{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": status, "updated_at": at})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return exists(ctx, r.db, &domain.Order{}, id)
	}
	return nil
}

func (r *GormOrders) CountByStatus(ctx context.Context) (map[domain.OrderStatus]int64, error) {
	var rows []struct {
		Status domain.OrderStatus
		N      int64
	}
	err := conn(ctx, r.db).Model(&domain.Order{}).
		Select("status, COUNT(*) AS n").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[domain.OrderStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.N
	}
	return counts, nil
}

func (r *GormOrders) Revenue(ctx context.Context) (decimal.Decimal, error) {
	var sum decimal.NullDecimal
	err := conn(ctx, r.db).Model(&domain.Order{}).
		Select("SUM(total_amount)").
		Where("status <> ?", domain.OrderStatusCancelled).
		Row().Scan(&sum)
	if err != nil {
		return decimal.Zero, err
	}
	if !sum.Valid {
		return decimal.Zero, nil
	}
	return sum.Decimal.Round(2), nil
}
