package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"storefront/internal/auth"
	"storefront/internal/domain"
	"storefront/internal/repository"
)

// SeedConfig names the bootstrap accounts
type SeedConfig struct {
	AdminEmail    string
	AdminPassword string
	UserEmail     string
	UserPassword  string
}

func DefaultSeedConfig() SeedConfig {
	return SeedConfig{
		AdminEmail:    "admin@storefront.local",
		AdminPassword: "admin123",
		UserEmail:     "user@storefront.local",
		UserPassword:  "user123",
	}
}

type seedCategory struct {
	id, name, slug string
}

type seedProduct struct {
	id, name, slug, category, price, compare, sku string
	stock                                          int
	featured                                       bool
}

var (
	seedCategories = []seedCategory{
		{"cat-electronics", "Electronics", "electronics"},
		{"cat-fashion", "Fashion", "fashion"},
		{"cat-home", "Home & Living", "home-living"},
	}
	seedProducts = []seedProduct{
		{"prd-headphones", "Wireless Headphones", "wireless-headphones", "cat-electronics", "59.90", "79.90", "EL-001", 40, true},
		{"prd-keyboard", "Mechanical Keyboard", "mechanical-keyboard", "cat-electronics", "89.00", "", "EL-002", 25, false},
		{"prd-tshirt", "Cotton T-Shirt", "cotton-t-shirt", "cat-fashion", "12.50", "15.00", "FA-001", 120, true},
		{"prd-sneakers", "Running Sneakers", "running-sneakers", "cat-fashion", "64.00", "", "FA-002", 30, false},
		{"prd-lamp", "Desk Lamp", "desk-lamp", "cat-home", "24.99", "", "HO-001", 55, false},
		{"prd-mug", "Ceramic Mug", "ceramic-mug", "cat-home", "7.50", "9.00", "HO-002", 200, true},
	}
)

// Seed inserts the bootstrap accounts and a demo catalog. Rows that already
// exist are left alone, so running it twice is harmless.
func Seed(ctx context.Context, set repository.Set, cfg SeedConfig) error {
	return set.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := seedUser(ctx, set.Users, cfg.AdminEmail, "Administrator", cfg.AdminPassword, domain.RoleAdmin); err != nil {
			return err
		}
		if err := seedUser(ctx, set.Users, cfg.UserEmail, "Demo Customer", cfg.UserPassword, domain.RoleUser); err != nil {
			return err
		}
		for _, c := range seedCategories {
			if _, err := set.Categories.GetByID(ctx, c.id); err == nil {
				continue
			} else if !errors.Is(err, repository.ErrNotFound) {
				return err
			}
			cat := domain.Category{ID: c.id, Name: c.name, Slug: c.slug}
			if err := set.Categories.Create(ctx, &cat); err != nil {
				return fmt.Errorf("seed category %s: %w", c.slug, err)
			}
		}
		created := 0
		for _, p := range seedProducts {
			if _, err := set.Products.GetByID(ctx, p.id); err == nil {
				continue
			} else if !errors.Is(err, repository.ErrNotFound) {
				return err
			}
			prod := domain.Product{
				ID:         p.id,
				Name:       p.name,
				Slug:       p.slug,
				Price:      decimal.RequireFromString(p.price),
				Stock:      p.stock,
				SKU:        p.sku,
				Images:     domain.Images{"https://picsum.photos/seed/" + p.slug + "/600/600"},
				CategoryID: p.category,
				IsActive:   true,
				IsFeatured: p.featured,
			}
			if p.compare != "" {
				prod.ComparePrice = decimal.NewNullDecimal(decimal.RequireFromString(p.compare))
			}
			if err := set.Products.Create(ctx, &prod); err != nil {
				return fmt.Errorf("seed product %s: %w", p.slug, err)
			}
			created++
		}
		slog.InfoContext(ctx, "seed complete", "products_created", created)
		return nil
	})
}

func seedUser(ctx context.Context, users repository.UserRepository, email, name, password string, role domain.Role) error {
	if _, err := users.GetByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	u := domain.User{Email: email, Name: name, PasswordHash: hash, Role: role}
	if err := users.Create(ctx, &u); err != nil {
		return fmt.Errorf("seed user %s: %w", email, err)
	}
	slog.InfoContext(ctx, "seeded user", "email", email, "role", role)
	return nil
}
