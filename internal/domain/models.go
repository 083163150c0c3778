package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Prices leave the API as JSON numbers, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// Role is the privilege level of an account
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User is a customer or back-office account
type User struct {
	ID           string     `gorm:"primaryKey;size:36" json:"id"`
	Email        string     `gorm:"size:255;not null;uniqueIndex" json:"email"`
	Name         string     `gorm:"size:255;not null" json:"name"`
	PasswordHash string     `gorm:"size:255;not null" json:"-"`
	Role         Role       `gorm:"size:16;not null;index" json:"role"`
	Avatar       *string    `gorm:"size:2048" json:"avatar,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
	DeletedAt    *time.Time `gorm:"index" json:"deletedAt,omitempty"`
}

// Deleted reports whether the account has been soft-deleted.
func (u *User) Deleted() bool { return u.DeletedAt != nil }

// Category is a node of the catalog tree
type Category struct {
	ID          string     `gorm:"primaryKey;size:36" json:"id"`
	Name        string     `gorm:"size:255;not null" json:"name"`
	Slug        string     `gorm:"size:255;not null;uniqueIndex" json:"slug"`
	Description string     `gorm:"type:text" json:"description"`
	Image       string     `gorm:"size:2048" json:"image"`
	ParentID    *string    `gorm:"size:36;index" json:"parentId"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	DeletedAt   *time.Time `gorm:"index" json:"deletedAt,omitempty"`
}

func (c *Category) Deleted() bool { return c.DeletedAt != nil }

// Images is the ordered list of product image URLs, persisted as one JSON column
type Images []string

// Product is a catalog item
type Product struct {
	ID           string              `gorm:"primaryKey;size:36" json:"id"`
	Name         string              `gorm:"size:255;not null" json:"name"`
	Slug         string              `gorm:"size:255;not null;uniqueIndex" json:"slug"`
	Description  string              `gorm:"type:text" json:"description"`
	Price        decimal.Decimal     `gorm:"type:decimal(12,2);not null" json:"price"`
	ComparePrice decimal.NullDecimal `gorm:"type:decimal(12,2)" json:"comparePrice"`
	Stock        int                 `gorm:"not null" json:"stock"`
	SKU          string              `gorm:"size:64" json:"sku"`
	Images       Images              `gorm:"type:text;serializer:json" json:"images"`
	CategoryID   string              `gorm:"size:36;not null;index" json:"categoryId"`
	Category     *Category           `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	IsActive     bool                `gorm:"not null" json:"isActive"`
	IsFeatured   bool                `gorm:"not null" json:"isFeatured"`
	CreatedAt    time.Time           `json:"createdAt"`
	UpdatedAt    time.Time           `json:"updatedAt"`
	DeletedAt    *time.Time          `gorm:"index" json:"deletedAt,omitempty"`
}

func (p *Product) Deleted() bool { return p.DeletedAt != nil }

// Review is a product review; replies have ParentID set and live one level deep
type Review struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	ProductID string    `gorm:"size:36;not null;index" json:"productId"`
	UserID    string    `gorm:"size:36;not null;index" json:"userId"`
	Rating    int       `gorm:"not null" json:"rating"`
	Comment   string    `gorm:"type:text;not null" json:"comment"`
	ParentID  *string   `gorm:"size:36;index" json:"parentId"`
	User      *Author   `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Replies   []Review  `gorm:"foreignKey:ParentID;constraint:OnDelete:CASCADE" json:"replies"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Author is the public view of an account shown next to its reviews
type Author struct {
	ID     string  `gorm:"primaryKey;size:36" json:"id"`
	Name   string  `gorm:"size:255;not null" json:"name"`
	Avatar *string `gorm:"size:2048" json:"avatar,omitempty"`
}

func (Author) TableName() string { return "users" }

// AuthorOf projects u onto the fields safe to show publicly.
func AuthorOf(u *User) *Author {
	a := &Author{ID: u.ID, Name: u.Name}
	if u.Avatar != nil {
		v := *u.Avatar
		a.Avatar = &v
	}
	return a
}

// TopLevel reports whether the review participates in rating aggregation.
func (r *Review) TopLevel() bool { return r.ParentID == nil }

// CartItem is one line of a user's working cart
type CartItem struct {
	UserID    string    `gorm:"primaryKey;size:36" json:"-"`
	ProductID string    `gorm:"primaryKey;size:36" json:"productId"`
	Quantity  int       `gorm:"not null" json:"quantity"`
	Product   *Product  `gorm:"-" json:"product,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Cart is the mutable per-user working set
type Cart struct {
	UserID string     `json:"userId"`
	Items  []CartItem `json:"items"`
}

// Actor is the authenticated caller of an operation
type Actor struct {
	UserID string
	Role   Role
}

func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

// Models lists every persisted type in dependency order for schema migration.
func Models() []any {
	return []any{
		&User{},
		&Category{},
		&Product{},
		&Order{},
		&OrderItem{},
		&Review{},
		&CartItem{},
	}
}
