package services

import (
	"context"

	"github.com/DiogoMatos10/myfinance/internal/core"
	"github.com/DiogoMatos10/myfinance/internal/log"
	"github.com/DiogoMatos10/myfinance/internal/store"
)

// CategoryInput carries the caller-supplied fields for a new category.
type CategoryInput struct {
	Name  string
	Type  core.CategoryType
	Color string
}

// CategoryRegistry manages the per-user category set. The set is
// append-only: no rename or delete, so name snapshots on past transactions
// stay truthful.
type CategoryRegistry struct {
	store  store.CategoryStore
	logger *log.Logger
}

func NewCategoryRegistry(st store.CategoryStore, logger *log.Logger) *CategoryRegistry {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &CategoryRegistry{
		store:  st,
		logger: logger.WithComponent(log.ComponentCategory),
	}
}

func (r *CategoryRegistry) Create(ctx context.Context, userID string, input CategoryInput) (core.Category, error) {
	c := core.Category{
		UserID: userID,
		Name:   input.Name,
		Type:   input.Type,
		Color:  input.Color,
	}
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}

	created, err := r.store.AddCategory(ctx, c)
	if err != nil {
		return core.Category{}, core.Dependency("persist category", err)
	}

	r.logger.InfoContext(ctx, "Category created",
		log.FieldUserID, userID,
		log.FieldCategoryID, created.ID,
		log.FieldCategoryName, created.Name,
		"type", created.Type)
	return created, nil
}

// List returns the user's categories, newest first.
func (r *CategoryRegistry) List(ctx context.Context, userID string) ([]core.Category, error) {
	items, err := r.store.ListCategories(ctx, userID)
	if err != nil {
		return nil, core.Dependency("list categories", err)
	}
	return items, nil
}

// DisplayName resolves a category id to its current name. core.ErrNotFound
// when the id is not in the user's set. The scan is linear; category sets
// are tens of entries, not thousands.
func (r *CategoryRegistry) DisplayName(ctx context.Context, userID, categoryID string) (string, error) {
	items, err := r.store.ListCategories(ctx, userID)
	if err != nil {
		return "", core.Dependency("list categories", err)
	}
	for _, c := range items {
		if c.ID == categoryID {
			return c.Name, nil
		}
	}
	return "", core.ErrNotFound
}
