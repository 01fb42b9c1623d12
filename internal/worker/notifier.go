// Package worker consumes ledger events off the queue and turns them into
// notifications. Delivery is currently a structured log line; a mail or
// push integration would slot in behind HandleLedgerEvent.
package worker

import (
	"fmt"
	"sync"

	"github.com/DiogoMatos10/myfinance/internal/events"
	"github.com/DiogoMatos10/myfinance/internal/log"
)

type Notifier struct {
	logger *log.Logger

	mu    sync.Mutex
	seen  map[string]int64 // action -> processed count
	total int64
}

func NewNotifier(logger *log.Logger) *Notifier {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Notifier{
		logger: logger.WithComponent(log.ComponentWorker),
		seen:   make(map[string]int64),
	}
}

// HandleLedgerEvent processes one event. A non-nil error requeues the
// message, so only genuinely retryable conditions may return one; malformed
// events are counted and dropped.
func (n *Notifier) HandleLedgerEvent(event *events.LedgerEvent) error {
	if event == nil {
		return fmt.Errorf("nil event")
	}
	if event.TransactionID == "" || event.UserID == "" {
		n.logger.Warn("Dropping incomplete ledger event",
			"action", event.Action,
			log.FieldTransactionID, event.TransactionID,
			log.FieldUserID, event.UserID)
		n.record("dropped")
		return nil
	}

	switch event.Action {
	case events.ActionCreated:
		n.logger.Info("Transaction recorded",
			log.FieldUserID, event.UserID,
			log.FieldTransactionID, event.TransactionID,
			"at", event.Timestamp)
	case events.ActionDeleted:
		n.logger.Info("Transaction removed",
			log.FieldUserID, event.UserID,
			log.FieldTransactionID, event.TransactionID,
			"at", event.Timestamp)
	default:
		n.logger.Warn("Dropping ledger event with unknown action", "action", event.Action)
		n.record("dropped")
		return nil
	}

	n.record(event.Action)
	return nil
}

func (n *Notifier) record(action string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.seen[action]++
	n.total++
}

// Stats returns per-action processed counts and the overall total.
func (n *Notifier) Stats() (map[string]int64, int64) {
	n.mu.Lock()
	defer n.mu.Unlock()

	out := make(map[string]int64, len(n.seen))
	for action, count := range n.seen {
		out[action] = count
	}
	return out, n.total
}
