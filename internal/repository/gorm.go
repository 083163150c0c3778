package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"storefront/internal/domain"
)

// NewGormSet wires every repository over one gorm connection.
func NewGormSet(db *gorm.DB) Set {
	return Set{
		Users:      NewGormUsers(db),
		Categories: NewGormCategories(db),
		Products:   NewGormProducts(db),
		Orders:     NewGormOrders(db),
		Reviews:    NewGormReviews(db),
		Carts:      NewGormCarts(db),
		Tx:         NewGormTx(db),
	}
}

type gormTxKey struct{}

// conn returns the transaction bound to ctx, or the pool when there is none.
func conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(gormTxKey{}).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// exists distinguishes "no row" from "nothing changed" after an update.
func exists(ctx context.Context, db *gorm.DB, model any, id string) error {
	var n int64
	if err := conn(ctx, db).Model(model).Where("id = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func ensureID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}

// GormTx runs fn inside a database transaction. Nested calls join the outer one
type GormTx struct{ db *gorm.DB }

func NewGormTx(db *gorm.DB) *GormTx { return &GormTx{db: db} }

func (t *GormTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(gormTxKey{}).(*gorm.DB); ok {
		return fn(ctx)
	}
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, gormTxKey{}, tx))
	})
}

// GormProducts is the SQL-backed ProductRepository
type GormProducts struct{ db *gorm.DB }

func NewGormProducts(db *gorm.DB) *GormProducts { return &GormProducts{db: db} }

var _ ProductRepository = (*GormProducts)(nil)

func (r *GormProducts) Create(ctx context.Context, p *domain.Product) error {
	ensureID(&p.ID)
	return conn(ctx, r.db).Omit(clause.Associations).Create(p).Error
}

func (r *GormProducts) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	var p domain.Product
	if err := conn(ctx, r.db).Preload("Category").First(&p, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (r *GormProducts) Update(ctx context.Context, p *domain.Product) error {
	res := conn(ctx, r.db).Model(p).Select("*").Omit("created_at", clause.Associations).Updates(p)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return exists(ctx, r.db, &domain.Product{}, p.ID)
	}
	return nil
}

func (r *GormProducts) CountActive(ctx context.Context) (int64, error) {
	var n int64
	err := conn(ctx, r.db).Model(&domain.Product{}).Where("deleted_at IS NULL").Count(&n).Error
	return n, err
}

// GormUsers is the SQL-backed UserRepository
type GormUsers struct{ db *gorm.DB }

func NewGormUsers(db *gorm.DB) *GormUsers { return &GormUsers{db: db} }

var _ UserRepository = (*GormUsers)(nil)

func (r *GormUsers) Create(ctx context.Context, u *domain.User) error {
	ensureID(&u.ID)
	return conn(ctx, r.db).Create(u).Error
}

func (r *GormUsers) GetByID(ctx context.Context, id string) (*domain.User, error) {
	var u domain.User
	if err := conn(ctx, r.db).First(&u, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (r *GormUsers) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	if err := conn(ctx, r.db).Where("LOWER(email) = LOWER(?)", email).First(&u).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (r *GormUsers) Update(ctx context.Context, u *domain.User) error {
	res := conn(ctx, r.db).Model(u).Select("*").Omit("created_at").Updates(u)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return exists(ctx, r.db, &domain.User{}, u.ID)
	}
	return nil
}

func (r *GormUsers) CountActive(ctx context.Context, role domain.Role) (int64, error) {
	var n int64
	err := conn(ctx, r.db).Model(&domain.User{}).
		Where("deleted_at IS NULL AND role = ?", role).
		Count(&n).Error
	return n, err
}

// GormCategories is the SQL-backed CategoryRepository
type GormCategories struct{ db *gorm.DB }

func NewGormCategories(db *gorm.DB) *GormCategories { return &GormCategories{db: db} }

var _ CategoryRepository = (*GormCategories)(nil)

func (r *GormCategories) Create(ctx context.Context, c *domain.Category) error {
	ensureID(&c.ID)
	return conn(ctx, r.db).Create(c).Error
}

func (r *GormCategories) GetByID(ctx context.Context, id string) (*domain.Category, error) {
	var c domain.Category
	if err := conn(ctx, r.db).First(&c, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func (r *GormCategories) Update(ctx context.Context, c *domain.Category) error {
	res := conn(ctx, r.db).Model(c).Select("*").Omit("created_at").Updates(c)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return exists(ctx, r.db, &domain.Category{}, c.ID)
	}
	return nil
}
