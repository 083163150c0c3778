package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"storefront/internal/domain"
)

// GormCarts keeps carts in the cart_items table
type GormCarts struct{ db *gorm.DB }

func NewGormCarts(db *gorm.DB) *GormCarts { return &GormCarts{db: db} }

var _ CartRepository = (*GormCarts)(nil)

func (r *GormCarts) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	items := make([]domain.CartItem, 0)
	err := conn(ctx, r.db).
		Where("user_id = ?", userID).
		Order("product_id").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return &domain.Cart{UserID: userID, Items: items}, nil
}

func (r *GormCarts) SetItem(ctx context.Context, userID, productID string, quantity int) error {
	item := domain.CartItem{UserID: userID, ProductID: productID, Quantity: quantity}
	return conn(ctx, r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"quantity", "updated_at"}),
	}).Create(&item).Error
}

func (r *GormCarts) RemoveItem(ctx context.Context, userID, productID string) error {
	return conn(ctx, r.db).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&domain.CartItem{}).Error
}

func (r *GormCarts) Clear(ctx context.Context, userID string) error {
	return conn(ctx, r.db).Where("user_id = ?", userID).Delete(&domain.CartItem{}).Error
}
