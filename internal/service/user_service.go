package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"storefront/internal/domain"
	"storefront/internal/repository"
)

// UserService is the back-office view of accounts
type UserService struct {
	repo repository.UserRepository
}

func NewUserService(repo repository.UserRepository) *UserService {
	return &UserService{repo: repo}
}

type UserPatch struct {
	Name *string      `json:"name" validate:"omitempty,min=1,max=255"`
	Role *domain.Role `json:"role"`
}

func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	if id == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.GetByID(ctx, id)
}

func (s *UserService) Update(ctx context.Context, id string, in UserPatch) (*domain.User, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	if in.Role != nil && !in.Role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, *in.Role)
	}
	u, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		u.Name = strings.TrimSpace(*in.Name)
	}
	if in.Role != nil {
		u.Role = *in.Role
	}
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return u, nil
}

// Delete soft-deletes an account. Admins cannot delete themselves.
func (s *UserService) Delete(ctx context.Context, actor domain.Actor, id string) error {
	if actor.UserID == id {
		return fmt.Errorf("%w: cannot delete yourself", ErrInvalidInput)
	}
	u, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	u.DeletedAt = &now
	if err := s.repo.Update(ctx, u); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	slog.InfoContext(ctx, "user soft deleted", "user_id", id, "by", actor.UserID)
	return nil
}

func (s *UserService) Restore(ctx context.Context, id string) (*domain.User, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	u.DeletedAt = nil
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, fmt.Errorf("restore user: %w", err)
	}
	return u, nil
}
