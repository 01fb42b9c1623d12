package services

import (
	"context"
	"errors"
	"testing"

	"github.com/DiogoMatos10/myfinance/internal/core"
	"github.com/DiogoMatos10/myfinance/internal/store/memory"
)

func TestProfileUpdateRoundTrip(t *testing.T) {
	st := memory.New()
	svc := NewProfileService(st, nil)
	ctx := context.Background()

	updated, err := svc.Update(ctx, "u1", ProfileInput{
		DisplayName: "User One",
		Currency:    "EUR",
		Preferences: core.Preferences{Theme: "dark", DateFormat: "yyyy-MM-dd", Notifications: true},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Currency != "EUR" || updated.Preferences.Theme != "dark" {
		t.Fatalf("unexpected merged profile %+v", updated)
	}

	got, err := svc.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.DisplayName != "User One" || !got.Preferences.Notifications {
		t.Fatalf("stored profile %+v", got)
	}
}

func TestProfileUpdatePreservesBalance(t *testing.T) {
	st := memory.New()
	ctx := context.Background()

	if err := NewBalanceService(st, nil).Set(ctx, "u1", core.Money{Cents: 10000}); err != nil {
		t.Fatalf("set balance: %v", err)
	}

	svc := NewProfileService(st, nil)
	updated, err := svc.Update(ctx, "u1", ProfileInput{Currency: "USD"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.InitialBalance.Cents != 10000 {
		t.Fatalf("settings write changed the balance: %d", updated.InitialBalance.Cents)
	}
}

func TestProfileUpdateValidation(t *testing.T) {
	svc := NewProfileService(memory.New(), nil)
	ctx := context.Background()

	cases := []struct {
		name  string
		input ProfileInput
		field string
	}{
		{"bad currency", ProfileInput{Currency: "euros"}, "currency"},
		{"lowercase currency", ProfileInput{Currency: "eur"}, "currency"},
		{"bad theme", ProfileInput{Preferences: core.Preferences{Theme: "neon"}}, "theme"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Update(ctx, "u1", tc.input)
			var verr *core.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected *ValidationError, got %v", err)
			}
			if len(verr.Fields[tc.field]) == 0 {
				t.Fatalf("expected error on %q, got %v", tc.field, verr.Fields)
			}
		})
	}

	// Empty settings are valid; everything is optional.
	if _, err := svc.Update(ctx, "u1", ProfileInput{}); err != nil {
		t.Fatalf("empty input should pass, got %v", err)
	}
}

func TestProfileGetDefaultsToZero(t *testing.T) {
	svc := NewProfileService(memory.New(), nil)

	p, err := svc.Get(context.Background(), "u1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if p.UserID != "u1" || p.Currency != "" || p.InitialBalance.Cents != 0 {
		t.Fatalf("expected zero profile, got %+v", p)
	}
}
