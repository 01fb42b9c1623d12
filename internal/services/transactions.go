// Package services orchestrates ledger operations across the store ports.
// It owns validation and the create pipeline; persistence semantics stay in
// the adapters.
package services

import (
	"context"
	"errors"
	"io"

	"github.com/DiogoMatos10/myfinance/internal/core"
	"github.com/DiogoMatos10/myfinance/internal/events"
	"github.com/DiogoMatos10/myfinance/internal/log"
	"github.com/DiogoMatos10/myfinance/internal/store"
)

// ReceiptFile is an attachment supplied with a create request.
type ReceiptFile struct {
	Name string
	Body io.Reader
}

// TransactionInput carries the caller-supplied fields for a new ledger entry.
// CategoryName is a display hint only; the registry value always wins when
// the category resolves.
type TransactionInput struct {
	Type         core.TransactionType
	CategoryID   string
	CategoryName string
	Amount       core.Money
	Date         string
	Description  string
	ReceiptURL   string
	Receipt      *ReceiptFile
}

// TransactionService validates and records ledger entries. Receipt upload
// happens before the persist: a transaction is never written without its
// receipt reference. The two steps are not atomic, so a receipt can be
// orphaned when the persist fails; orphaned blobs are harmless because paths
// are timestamp-prefixed and nothing references them.
type TransactionService struct {
	ledger   store.TransactionStore
	registry *CategoryRegistry
	receipts store.ReceiptStore
	events   *events.Client
	logger   *log.Logger
}

func NewTransactionService(ledger store.TransactionStore, registry *CategoryRegistry, receipts store.ReceiptStore, ev *events.Client, logger *log.Logger) *TransactionService {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &TransactionService{
		ledger:   ledger,
		registry: registry,
		receipts: receipts,
		events:   ev,
		logger:   logger.WithComponent(log.ComponentTransaction),
	}
}

// Create validates input, resolves the category name, uploads the receipt if
// one accompanies the request, persists the entry and returns it with the
// store-assigned id and timestamps.
func (s *TransactionService) Create(ctx context.Context, userID string, input TransactionInput) (core.Transaction, error) {
	t := core.Transaction{
		UserID:      userID,
		Type:        input.Type,
		CategoryID:  input.CategoryID,
		Amount:      input.Amount,
		Date:        input.Date,
		Description: input.Description,
		ReceiptURL:  input.ReceiptURL,
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	// The registry is authoritative for the name snapshot; the client value
	// is only used when resolution fails, never preferred over it.
	t.CategoryName = input.CategoryName
	if name, err := s.registry.DisplayName(ctx, userID, input.CategoryID); err == nil {
		t.CategoryName = name
	} else if !errors.Is(err, core.ErrNotFound) {
		s.logger.WarnContext(ctx, "Category resolution failed, using client hint",
			log.FieldCategoryID, input.CategoryID, log.FieldError, err)
	}

	if input.Receipt != nil {
		url, err := s.receipts.Store(ctx, userID, input.Receipt.Name, input.Receipt.Body)
		if err != nil {
			s.logger.ErrorContext(ctx, "Receipt upload failed, aborting create",
				log.FieldUserID, userID, log.FieldError, err)
			return core.Transaction{}, core.Dependency("store receipt", err)
		}
		t.ReceiptURL = url
	}

	created, err := s.ledger.AddTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, core.Dependency("persist transaction", err)
	}

	s.logger.InfoContext(ctx, "Transaction created",
		log.FieldUserID, userID,
		log.FieldTransactionID, created.ID,
		log.FieldAmountCents, created.Amount.Cents,
		log.FieldCategoryName, created.CategoryName,
		"type", created.Type)

	s.publish(ctx, events.ActionCreated, created)
	return created, nil
}

// List returns the user's ledger, most recent date first.
func (s *TransactionService) List(ctx context.Context, userID string) ([]core.Transaction, error) {
	items, err := s.ledger.ListTransactions(ctx, userID)
	if err != nil {
		return nil, core.Dependency("list transactions", err)
	}
	return items, nil
}

// Delete removes one entry. core.ErrNotFound when the id was never created
// for that user, or was already deleted. The receipt blob, if any, is left
// in place.
func (s *TransactionService) Delete(ctx context.Context, userID, id string) error {
	err := s.ledger.DeleteTransaction(ctx, userID, id)
	if errors.Is(err, core.ErrNotFound) {
		return core.ErrNotFound
	}
	if err != nil {
		return core.Dependency("delete transaction", err)
	}

	s.logger.InfoContext(ctx, "Transaction deleted",
		log.FieldUserID, userID, log.FieldTransactionID, id)

	s.publish(ctx, events.ActionDeleted, core.Transaction{ID: id, UserID: userID})
	return nil
}

// publish emits a ledger event. Failures are logged but never fail the
// operation: the write already happened and the stream is best-effort.
func (s *TransactionService) publish(ctx context.Context, action string, t core.Transaction) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishLedgerEvent(ctx, events.NewLedgerEvent(action, t.ID, t.UserID)); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish ledger event",
			log.FieldTransactionID, t.ID, "action", action, log.FieldError, err)
	}
}
