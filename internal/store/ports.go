// Package store defines the ports the ledger core expects from its
// persistence collaborators. Implementations live in internal/storage
// (SQLite), internal/store/supabase and internal/store/memory.
package store

import (
	"context"
	"io"

	"github.com/DiogoMatos10/myfinance/internal/core"
)

// Ports for outbound adapters. Write operations assign ids and timestamps;
// callers never supply them. List operations return the full scoped set, no
// pagination.
type (
	// TransactionStore persists one ledger partition per user.
	TransactionStore interface {
		// AddTransaction persists t and returns it with id and timestamps set.
		AddTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
		// ListTransactions returns the user's ledger ordered by date descending.
		ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error)
		// DeleteTransaction removes one entry; core.ErrNotFound when the id
		// does not exist under that user.
		DeleteTransaction(ctx context.Context, userID, id string) error
	}

	// CategoryStore persists the user's category set. Append-only.
	CategoryStore interface {
		AddCategory(ctx context.Context, c core.Category) (core.Category, error)
		// ListCategories returns categories ordered by creation time descending.
		ListCategories(ctx context.Context, userID string) ([]core.Category, error)
	}

	// ProfileStore reads and merge-writes the per-user profile document.
	// The balance and the display settings are written independently; a
	// settings write never touches the stored balance and vice versa.
	ProfileStore interface {
		// InitialBalance returns the stored balance, zero when unset.
		InitialBalance(ctx context.Context, userID string) (core.Money, error)
		// SetInitialBalance merge-upserts the balance into the profile.
		SetInitialBalance(ctx context.Context, userID string, balance core.Money) error
		// Profile returns the full document, zero-valued when never written.
		Profile(ctx context.Context, userID string) (core.Profile, error)
		// UpdateProfile merge-upserts everything except the initial balance.
		UpdateProfile(ctx context.Context, userID string, p core.Profile) error
	}

	// ReceiptStore persists a binary attachment and returns a retrievable
	// URL. Paths are timestamp-prefixed so uploads never overwrite each
	// other; there is no delete contract.
	ReceiptStore interface {
		Store(ctx context.Context, userID, filename string, r io.Reader) (url string, err error)
	}
)
