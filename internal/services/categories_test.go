package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DiogoMatos10/myfinance/internal/core"
	"github.com/DiogoMatos10/myfinance/internal/store/memory"
)

func TestCategoryCreateAndList(t *testing.T) {
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	st := memory.New().WithClock(func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	})
	registry := NewCategoryRegistry(st, nil)
	ctx := context.Background()

	for _, name := range []string{"Groceries", "Rent", "Salary"} {
		if _, err := registry.Create(ctx, "u1", CategoryInput{Name: name, Type: core.CategoryBoth}); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
	}

	items, err := registry.List(ctx, "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	// Newest first.
	want := []string{"Salary", "Rent", "Groceries"}
	for i, name := range want {
		if items[i].Name != name {
			t.Fatalf("pos %d: name=%s want %s", i, items[i].Name, name)
		}
	}
}

func TestCategoryValidationFailures(t *testing.T) {
	registry := NewCategoryRegistry(memory.New(), nil)
	ctx := context.Background()

	cases := []struct {
		name  string
		input CategoryInput
		field string
	}{
		{"short name", CategoryInput{Name: "G", Type: core.CategoryExpense}, "name"},
		{"bad type", CategoryInput{Name: "Groceries", Type: "savings"}, "type"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := registry.Create(ctx, "u1", tc.input)
			var verr *core.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected *ValidationError, got %v", err)
			}
			if len(verr.Fields[tc.field]) == 0 {
				t.Fatalf("expected error on %q, got %v", tc.field, verr.Fields)
			}
		})
	}
}

func TestCategoryDuplicateNamesAllowed(t *testing.T) {
	registry := NewCategoryRegistry(memory.New(), nil)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := registry.Create(ctx, "u1", CategoryInput{Name: "Groceries", Type: core.CategoryExpense}); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}
	items, _ := registry.List(ctx, "u1")
	if len(items) != 2 {
		t.Fatalf("len=%d want 2", len(items))
	}
}

func TestDisplayName(t *testing.T) {
	registry := NewCategoryRegistry(memory.New(), nil)
	ctx := context.Background()

	cat, err := registry.Create(ctx, "u1", CategoryInput{Name: "Rent", Type: core.CategoryExpense})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	name, err := registry.DisplayName(ctx, "u1", cat.ID)
	if err != nil || name != "Rent" {
		t.Fatalf("DisplayName=%q,%v want Rent,nil", name, err)
	}

	if _, err := registry.DisplayName(ctx, "u1", "nope"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	// Another user's category does not resolve.
	if _, err := registry.DisplayName(ctx, "u2", cat.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound across users, got %v", err)
	}
}
