package worker

import (
	"testing"

	"github.com/DiogoMatos10/myfinance/internal/events"
)

func TestHandleLedgerEvent(t *testing.T) {
	n := NewNotifier(nil)

	if err := n.HandleLedgerEvent(events.NewLedgerEvent(events.ActionCreated, "t1", "u1")); err != nil {
		t.Fatalf("created event: %v", err)
	}
	if err := n.HandleLedgerEvent(events.NewLedgerEvent(events.ActionDeleted, "t1", "u1")); err != nil {
		t.Fatalf("deleted event: %v", err)
	}

	stats, total := n.Stats()
	if stats[events.ActionCreated] != 1 || stats[events.ActionDeleted] != 1 {
		t.Fatalf("stats = %v", stats)
	}
	if total != 2 {
		t.Fatalf("total = %d, want 2", total)
	}
}

func TestHandleLedgerEventDropsMalformed(t *testing.T) {
	n := NewNotifier(nil)

	// Missing ids and unknown actions are dropped, not requeued.
	if err := n.HandleLedgerEvent(events.NewLedgerEvent(events.ActionCreated, "", "u1")); err != nil {
		t.Fatalf("incomplete event should not error: %v", err)
	}
	if err := n.HandleLedgerEvent(events.NewLedgerEvent("transaction.exploded", "t1", "u1")); err != nil {
		t.Fatalf("unknown action should not error: %v", err)
	}

	stats, total := n.Stats()
	if stats["dropped"] != 2 || total != 2 {
		t.Fatalf("stats = %v, total = %d", stats, total)
	}

	if err := n.HandleLedgerEvent(nil); err == nil {
		t.Fatal("nil event should error")
	}
}
