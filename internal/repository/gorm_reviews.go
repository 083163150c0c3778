package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"storefront/internal/domain"
)

// GormReviews is the SQL-backed ReviewRepository
type GormReviews struct {
	db *gorm.DB
	tx *GormTx
}

func NewGormReviews(db *gorm.DB) *GormReviews {
	return &GormReviews{db: db, tx: NewGormTx(db)}
}

var _ ReviewRepository = (*GormReviews)(nil)

func (r *GormReviews) Create(ctx context.Context, rv *domain.Review) error {
	ensureID(&rv.ID)
	return conn(ctx, r.db).Omit(clause.Associations).Create(rv).Error
}

func (r *GormReviews) GetByID(ctx context.Context, id string) (*domain.Review, error) {
	var rv domain.Review
	err := conn(ctx, r.db).
		Preload("User").
		Preload("Replies", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Replies.User").
		First(&rv, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err)
	}
	if rv.Replies == nil {
		rv.Replies = []domain.Review{}
	}
	for i := range rv.Replies {
		rv.Replies[i].Replies = []domain.Review{}
	}
	return &rv, nil
}

// Delete removes replies explicitly; not every driver enforces ON DELETE CASCADE.
func (r *GormReviews) Delete(ctx context.Context, id string) error {
	return r.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := conn(ctx, r.db).Where("parent_id = ?", id).Delete(&domain.Review{}).Error; err != nil {
			return err
		}
		res := conn(ctx, r.db).Where("id = ?", id).Delete(&domain.Review{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *GormReviews) TopLevelRatings(ctx context.Context, productID string) ([]int, error) {
	ratings := make([]int, 0)
	err := conn(ctx, r.db).Model(&domain.Review{}).
		Where("product_id = ? AND parent_id IS NULL", productID).
		Pluck("rating", &ratings).Error
	return ratings, err
}
