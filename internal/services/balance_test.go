package services

import (
	"context"
	"errors"
	"testing"

	"github.com/DiogoMatos10/myfinance/internal/core"
	"github.com/DiogoMatos10/myfinance/internal/store/memory"
)

func TestBalanceDefaultsToZero(t *testing.T) {
	svc := NewBalanceService(memory.New(), nil)
	balance, err := svc.Get(context.Background(), "u1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if balance.Cents != 0 {
		t.Fatalf("cents=%d want 0", balance.Cents)
	}
}

func TestBalanceSetAndGet(t *testing.T) {
	svc := NewBalanceService(memory.New(), nil)
	ctx := context.Background()

	if err := svc.Set(ctx, "u1", core.Money{Cents: 123400}); err != nil {
		t.Fatalf("set: %v", err)
	}
	balance, err := svc.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if balance.Cents != 123400 {
		t.Fatalf("cents=%d want 123400", balance.Cents)
	}

	// Zero is a valid initial balance, unlike transaction amounts.
	if err := svc.Set(ctx, "u1", core.Money{}); err != nil {
		t.Fatalf("set zero: %v", err)
	}
}

func TestBalanceRejectsNegative(t *testing.T) {
	svc := NewBalanceService(memory.New(), nil)
	err := svc.Set(context.Background(), "u1", core.Money{Cents: -1})
	var verr *core.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	if len(verr.Fields["initialBalance"]) == 0 {
		t.Fatalf("expected initialBalance field error, got %v", verr.Fields)
	}
}
