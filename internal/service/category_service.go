package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront/internal/domain"
	"storefront/internal/repository"
)

// CategoryService maintains the category tree
type CategoryService struct {
	repo repository.CategoryRepository
}

func NewCategoryService(repo repository.CategoryRepository) *CategoryService {
	return &CategoryService{repo: repo}
}

type CategoryInput struct {
	Name        string  `json:"name" validate:"required,min=1,max=255"`
	Description string  `json:"description" validate:"max=5000"`
	Image       string  `json:"image" validate:"max=2048"`
	ParentID    *string `json:"parentId"`
}

// CategoryPatch changes only the fields that are set. An empty parentId moves
// the category to the root
type CategoryPatch struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=255"`
	Description *string `json:"description" validate:"omitempty,max=5000"`
	Image       *string `json:"image" validate:"omitempty,max=2048"`
	ParentID    *string `json:"parentId"`
}

func (s *CategoryService) Create(ctx context.Context, in CategoryInput) (*domain.Category, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	c := domain.Category{
		Name:        strings.TrimSpace(in.Name),
		Slug:        newSlug(in.Name),
		Description: in.Description,
		Image:       in.Image,
	}
	if in.ParentID != nil && *in.ParentID != "" {
		if err := s.requireParent(ctx, *in.ParentID); err != nil {
			return nil, err
		}
		c.ParentID = in.ParentID
	}
	if err := s.repo.Create(ctx, &c); err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return &c, nil
}

func (s *CategoryService) Get(ctx context.Context, id string) (*domain.Category, error) {
	if id == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.GetByID(ctx, id)
}

func (s *CategoryService) Update(ctx context.Context, id string, in CategoryPatch) (*domain.Category, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		c.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		c.Description = *in.Description
	}
	if in.Image != nil {
		c.Image = *in.Image
	}
	if in.ParentID != nil {
		if *in.ParentID == "" {
			c.ParentID = nil
		} else {
			if err := s.checkNoCycle(ctx, id, *in.ParentID); err != nil {
				return nil, err
			}
			parent := *in.ParentID
			c.ParentID = &parent
		}
	}
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("update category: %w", err)
	}
	return c, nil
}

func (s *CategoryService) Delete(ctx context.Context, id string) error {
	c, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	c.DeletedAt = &now
	if err := s.repo.Update(ctx, c); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}

func (s *CategoryService) Restore(ctx context.Context, id string) (*domain.Category, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	c.DeletedAt = nil
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("restore category: %w", err)
	}
	return c, nil
}

func (s *CategoryService) requireParent(ctx context.Context, id string) error {
	p, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: parent category %s does not exist", ErrInvalidInput, id)
	}
	if err != nil {
		return err
	}
	if p.Deleted() {
		return fmt.Errorf("%w: parent category %s is deleted", ErrInvalidInput, id)
	}
	return nil
}

// checkNoCycle walks from parentID to the root and fails if it meets id.
func (s *CategoryService) checkNoCycle(ctx context.Context, id, parentID string) error {
	if parentID == id {
		return fmt.Errorf("%w: category cannot be its own parent", ErrInvalidInput)
	}
	if err := s.requireParent(ctx, parentID); err != nil {
		return err
	}
	seen := map[string]bool{id: true}
	cur := parentID
	for cur != "" {
		if seen[cur] {
			return fmt.Errorf("%w: moving category under %s would create a cycle", ErrInvalidInput, parentID)
		}
		seen[cur] = true
		c, err := s.repo.GetByID(ctx, cur)
		if err != nil {
			return err
		}
		if c.ParentID == nil {
			break
		}
		cur = *c.ParentID
	}
	return nil
}
