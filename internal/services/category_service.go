package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/core"
)

// CategoryService manages user-defined categories. System categories are
// visible to everyone and immutable; the store enforces that.
type CategoryService struct {
	categories CategoryStore
}

func NewCategoryService(categories CategoryStore) *CategoryService {
	return &CategoryService{categories: categories}
}

func (s *CategoryService) Create(ctx context.Context, c core.Category) (core.Category, error) {
	if c.Name == "" {
		return core.Category{}, core.ErrEmptyName
	}
	if c.Type != core.Income && c.Type != core.Expense {
		return core.Category{}, core.ErrInvalidType
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.IsSystem = false
	c.CreatedAt = time.Now().UTC()

	if err := s.categories.CreateCategory(ctx, c); err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}
	return c, nil
}

type CategoryPatch struct {
	Name  *string
	Icon  *string
	Color *string
}

func (s *CategoryService) Update(ctx context.Context, id, userID string, patch CategoryPatch) (core.Category, error) {
	c, err := s.categories.GetCategory(ctx, id, userID)
	if err != nil {
		return core.Category{}, err
	}
	if c.IsSystem {
		return core.Category{}, ErrNotFound
	}
	if patch.Name != nil {
		c.Name = *patch.Name
	}
	if patch.Icon != nil {
		c.Icon = *patch.Icon
	}
	if patch.Color != nil {
		c.Color = *patch.Color
	}
	if c.Name == "" {
		return core.Category{}, core.ErrEmptyName
	}

	if err := s.categories.UpdateCategory(ctx, c); err != nil {
		return core.Category{}, fmt.Errorf("update category: %w", err)
	}
	return c, nil
}

func (s *CategoryService) FindOne(ctx context.Context, id, userID string) (core.Category, error) {
	return s.categories.GetCategory(ctx, id, userID)
}

// FindAll returns the user's categories plus the system set.
func (s *CategoryService) FindAll(ctx context.Context, userID string) ([]core.Category, error) {
	return s.categories.ListCategories(ctx, userID)
}

func (s *CategoryService) Remove(ctx context.Context, id, userID string) error {
	return s.categories.DeleteCategory(ctx, id, userID)
}
