package backend

import (
	"context"
	"fmt"

	"github.com/DiogoMatos10/myfinance/internal/identity"
	"github.com/DiogoMatos10/myfinance/internal/log"
	"github.com/DiogoMatos10/myfinance/internal/receipts"
	"github.com/DiogoMatos10/myfinance/internal/storage"
	"github.com/DiogoMatos10/myfinance/internal/store/memory"
	supastore "github.com/DiogoMatos10/myfinance/internal/store/supabase"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLiteBackend(config)
	case SupabaseBackend:
		return f.createSupabaseBackend(config)
	case MemoryBackend:
		return f.createMemoryBackend(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*Result, error) {
	repo, err := storage.NewRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	receiptStore, err := receipts.NewLocal(config.ReceiptsDir, f.logger)
	if err != nil {
		repo.Close()
		return nil, fmt.Errorf("failed to initialize receipt store: %w", err)
	}

	f.logger.Info("Initialized SQLite backend",
		"db_path", config.SQLiteDBPath,
		"receipts_dir", config.ReceiptsDir)

	return &Result{
		Stores: Stores{
			Transactions: repo,
			Categories:   repo,
			Profiles:     repo,
			Receipts:     receiptStore,
			Verifier:     identity.ParseStaticTokens(config.DevSessionTokens),
			ReceiptsDir:  receiptStore.Dir(),
		},
		Cleanup: repo.Close,
	}, nil
}

func (f *DefaultFactory) createSupabaseBackend(config Config) (*Result, error) {
	s, err := supastore.NewStore(config.SupabaseURL, config.SupabaseKey, config.SupabaseBucket, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Supabase backend: %w", err)
	}

	f.logger.Info("Initialized Supabase backend",
		"url", config.SupabaseURL,
		"bucket", config.SupabaseBucket)

	return &Result{
		Stores: Stores{
			Transactions: s,
			Categories:   s,
			Profiles:     s,
			Receipts:     s,
			Verifier:     s,
		},
		Cleanup: nil, // No cleanup needed for supabase backend
	}, nil
}

func (f *DefaultFactory) createMemoryBackend(config Config) (*Result, error) {
	s := memory.New()
	r := memory.NewReceipts()

	f.logger.Info("Initialized memory backend")

	return &Result{
		Stores: Stores{
			Transactions: s,
			Categories:   s,
			Profiles:     s,
			Receipts:     r,
			Verifier:     identity.ParseStaticTokens(config.DevSessionTokens),
		},
		Cleanup: nil, // No cleanup needed for memory backend
	}, nil
}
