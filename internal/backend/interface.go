package backend

import (
	"context"

	"github.com/DiogoMatos10/myfinance/internal/identity"
	"github.com/DiogoMatos10/myfinance/internal/store"
)

// Stores bundles the persistence ports one backend provides. Every backend
// fills all fields; no partial bundles.
type Stores struct {
	Transactions store.TransactionStore
	Categories   store.CategoryStore
	Profiles     store.ProfileStore
	Receipts     store.ReceiptStore
	Verifier     identity.Verifier

	// ReceiptsDir is set when receipts live on the local filesystem and
	// must be served by the HTTP layer; empty otherwise.
	ReceiptsDir string
}

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// Result contains the store bundle and optional cleanup function
type Result struct {
	Stores  Stores
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateBackend creates a store bundle based on the provided config
	CreateBackend(ctx context.Context, config Config) (*Result, error)
}

// Config holds configuration for backend creation
type Config struct {
	// Backend type
	Type BackendType

	// SQLite specific
	SQLiteDBPath string
	ReceiptsDir  string

	// Supabase specific
	SupabaseURL    string
	SupabaseKey    string
	SupabaseBucket string

	// Dev session tokens for the sqlite and memory backends
	DevSessionTokens string
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend   BackendType = "sqlite"
	SupabaseBackend BackendType = "supabase"
	MemoryBackend   BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, SupabaseBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
