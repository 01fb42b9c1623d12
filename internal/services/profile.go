package services

import (
	"context"

	"github.com/DiogoMatos10/myfinance/internal/core"
	"github.com/DiogoMatos10/myfinance/internal/log"
	"github.com/DiogoMatos10/myfinance/internal/store"
)

// ProfileInput carries the caller-supplied profile settings. The initial
// balance is deliberately absent; it travels through BalanceService only.
type ProfileInput struct {
	Email       string
	DisplayName string
	Currency    string
	Preferences core.Preferences
}

// ProfileService reads and merge-writes the settings slice of the profile
// document.
type ProfileService struct {
	profiles store.ProfileStore
	logger   *log.Logger
}

func NewProfileService(profiles store.ProfileStore, logger *log.Logger) *ProfileService {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &ProfileService{
		profiles: profiles,
		logger:   logger.WithComponent(log.ComponentProfile),
	}
}

// Get returns the full profile document, zero-valued when never written.
func (s *ProfileService) Get(ctx context.Context, userID string) (core.Profile, error) {
	p, err := s.profiles.Profile(ctx, userID)
	if err != nil {
		return core.Profile{}, core.Dependency("read profile", err)
	}
	return p, nil
}

// Update validates and merge-persists the settings, then reads the document
// back so the caller sees the merged view including the stored balance.
func (s *ProfileService) Update(ctx context.Context, userID string, input ProfileInput) (core.Profile, error) {
	p := core.Profile{
		UserID:      userID,
		Email:       input.Email,
		DisplayName: input.DisplayName,
		Currency:    input.Currency,
		Preferences: input.Preferences,
	}
	if err := p.Validate(); err != nil {
		return core.Profile{}, err
	}

	if err := s.profiles.UpdateProfile(ctx, userID, p); err != nil {
		return core.Profile{}, core.Dependency("write profile", err)
	}

	s.logger.InfoContext(ctx, "Profile settings updated",
		log.FieldUserID, userID, "currency", p.Currency, "theme", p.Preferences.Theme)

	return s.Get(ctx, userID)
}
