package services

import (
	"context"

	"github.com/DiogoMatos10/myfinance/internal/core"
	"github.com/DiogoMatos10/myfinance/internal/log"
	"github.com/DiogoMatos10/myfinance/internal/store"
)

// BalanceService reads and merge-writes the initial balance on the profile
// document. The stored value is informational: Summarize never folds it into
// the computed balance, callers combine the two when they want a total.
type BalanceService struct {
	profiles store.ProfileStore
	logger   *log.Logger
}

func NewBalanceService(profiles store.ProfileStore, logger *log.Logger) *BalanceService {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &BalanceService{
		profiles: profiles,
		logger:   logger.WithComponent(log.ComponentBalance),
	}
}

// Get returns the stored initial balance, zero when never set.
func (s *BalanceService) Get(ctx context.Context, userID string) (core.Money, error) {
	balance, err := s.profiles.InitialBalance(ctx, userID)
	if err != nil {
		return core.Money{}, core.Dependency("read balance", err)
	}
	return balance, nil
}

// Set merge-upserts the initial balance. Negative values are rejected; zero
// is allowed, unlike transaction amounts.
func (s *BalanceService) Set(ctx context.Context, userID string, balance core.Money) error {
	if balance.Cents < 0 {
		v := core.NewValidationError()
		v.Add("initialBalance", "initialBalance must be zero or greater")
		return v
	}
	if err := s.profiles.SetInitialBalance(ctx, userID, balance); err != nil {
		return core.Dependency("write balance", err)
	}

	s.logger.InfoContext(ctx, "Initial balance updated",
		log.FieldUserID, userID, log.FieldAmountCents, balance.Cents)
	return nil
}
