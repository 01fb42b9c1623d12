package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/DiogoMatos10/myfinance/internal/core"
	"github.com/DiogoMatos10/myfinance/internal/store"
	"github.com/DiogoMatos10/myfinance/internal/store/memory"
)

// failingLedger fails every write, standing in for a broken document store.
type failingLedger struct {
	store.TransactionStore
}

func (failingLedger) AddTransaction(_ context.Context, _ core.Transaction) (core.Transaction, error) {
	return core.Transaction{}, errors.New("store unavailable")
}

func newTestService(t *testing.T) (*TransactionService, *CategoryRegistry, *memory.Store, *memory.Receipts) {
	t.Helper()
	st := memory.New()
	receipts := memory.NewReceipts()
	registry := NewCategoryRegistry(st, nil)
	svc := NewTransactionService(st, registry, receipts, nil, nil)
	return svc, registry, st, receipts
}

func expenseInput(categoryID string, cents int64) TransactionInput {
	return TransactionInput{
		Type:       core.Expense,
		CategoryID: categoryID,
		Amount:     core.Money{Cents: cents},
		Date:       "2024-01-01",
	}
}

func TestCreateResolvesCategoryNameFromRegistry(t *testing.T) {
	svc, registry, _, _ := newTestService(t)
	ctx := context.Background()

	cat, err := registry.Create(ctx, "u1", CategoryInput{Name: "Groceries", Type: core.CategoryExpense})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}

	input := expenseInput(cat.ID, 5000)
	input.CategoryName = "Spoofed" // client hint must lose to the registry
	created, err := svc.Create(ctx, "u1", input)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.CategoryName != "Groceries" {
		t.Fatalf("categoryName=%q want Groceries", created.CategoryName)
	}
	if created.ID == "" || created.CreatedAt.IsZero() {
		t.Fatalf("expected store-assigned id and timestamps, got %+v", created)
	}
}

func TestCreateFallsBackToClientNameWhenUnresolved(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	input := expenseInput("missing-category", 100)
	input.CategoryName = "Hint"
	created, err := svc.Create(context.Background(), "u1", input)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.CategoryName != "Hint" {
		t.Fatalf("categoryName=%q want Hint", created.CategoryName)
	}
}

func TestCreateValidation(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		input TransactionInput
		field string
	}{
		{"zero amount", expenseInput("c1", 0), "amount"},
		{"negative amount", expenseInput("c1", -500), "amount"},
		{"bad type", TransactionInput{Type: "transfer", CategoryID: "c1", Amount: core.Money{Cents: 1}, Date: "2024-01-01"}, "type"},
		{"missing category", TransactionInput{Type: core.Income, Amount: core.Money{Cents: 1}, Date: "2024-01-01"}, "categoryId"},
		{"missing date", TransactionInput{Type: core.Income, CategoryID: "c1", Amount: core.Money{Cents: 1}}, "date"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(ctx, "u1", tc.input)
			var verr *core.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected *ValidationError, got %v", err)
			}
			if len(verr.Fields[tc.field]) == 0 {
				t.Fatalf("expected error on %q, got %v", tc.field, verr.Fields)
			}
		})
	}

	// One cent is the smallest valid amount.
	if _, err := svc.Create(ctx, "u1", expenseInput("c1", 1)); err != nil {
		t.Fatalf("boundary amount should pass, got %v", err)
	}
}

func TestCreateUploadsReceiptBeforePersist(t *testing.T) {
	svc, _, _, receipts := newTestService(t)

	input := expenseInput("c1", 2500)
	input.Receipt = &ReceiptFile{Name: "lunch.pdf", Body: strings.NewReader("%PDF-1.4")}
	created, err := svc.Create(context.Background(), "u1", input)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ReceiptURL == "" || !strings.Contains(created.ReceiptURL, "users/u1/receipts/") {
		t.Fatalf("unexpected receipt url %q", created.ReceiptURL)
	}
	if receipts.Count() != 1 {
		t.Fatalf("expected one stored blob, got %d", receipts.Count())
	}
}

func TestCreateAbortsWhenUploadFails(t *testing.T) {
	st := memory.New()
	receipts := memory.NewReceipts()
	receipts.FailWith = errors.New("blob store down")
	svc := NewTransactionService(st, NewCategoryRegistry(st, nil), receipts, nil, nil)

	input := expenseInput("c1", 2500)
	input.Receipt = &ReceiptFile{Name: "lunch.pdf", Body: strings.NewReader("x")}
	_, err := svc.Create(context.Background(), "u1", input)

	var derr *core.DependencyError
	if !errors.As(err, &derr) {
		t.Fatalf("expected *DependencyError, got %v", err)
	}
	items, _ := st.ListTransactions(context.Background(), "u1")
	if len(items) != 0 {
		t.Fatalf("no transaction may be persisted after upload failure, got %d", len(items))
	}
	if receipts.Count() != 0 {
		t.Fatalf("store adapter observed %d writes, want 0", receipts.Count())
	}
}

func TestCreateSurfacesPersistFailure(t *testing.T) {
	st := memory.New()
	svc := NewTransactionService(failingLedger{}, NewCategoryRegistry(st, nil), memory.NewReceipts(), nil, nil)

	_, err := svc.Create(context.Background(), "u1", expenseInput("c1", 100))
	var derr *core.DependencyError
	if !errors.As(err, &derr) {
		t.Fatalf("expected *DependencyError, got %v", err)
	}
}

func TestListOrdersByDateDescending(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	for _, date := range []string{"2024-01-02", "2024-03-01", "2024-01-15"} {
		input := expenseInput("c1", 100)
		input.Date = date
		if _, err := svc.Create(ctx, "u1", input); err != nil {
			t.Fatalf("create %s: %v", date, err)
		}
	}

	items, err := svc.List(ctx, "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []string{"2024-03-01", "2024-01-15", "2024-01-02"}
	if len(items) != len(want) {
		t.Fatalf("len=%d want %d", len(items), len(want))
	}
	for i, d := range want {
		if items[i].Date != d {
			t.Fatalf("pos %d: date=%s want %s", i, items[i].Date, d)
		}
	}
}

func TestDeleteNotFoundAndDoubleDelete(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	if err := svc.Delete(ctx, "u1", "never-created"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	created, err := svc.Create(ctx, "u1", expenseInput("c1", 100))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.Delete(ctx, "u1", created.ID); err != nil {
		t.Fatalf("first delete: %v", err)
	}
	if err := svc.Delete(ctx, "u1", created.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("second delete: expected ErrNotFound, got %v", err)
	}
}

func TestDeleteIsScopedToUser(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, "u1", expenseInput("c1", 100))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.Delete(ctx, "u2", created.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("cross-user delete must be ErrNotFound, got %v", err)
	}
}
