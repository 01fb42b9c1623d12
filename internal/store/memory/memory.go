// Package memory is the in-process reference implementation of the store
// ports. It backs the dev backend and the service tests.
package memory

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/DiogoMatos10/myfinance/internal/core"
)

// Store keeps all ledger documents in memory, partitioned by user id the
// same way the persistent backends partition them.
type Store struct {
	mu           sync.Mutex
	transactions map[string][]core.Transaction
	categories   map[string][]core.Category
	profiles     map[string]core.Profile

	now func() time.Time
}

func New() *Store {
	return &Store{
		transactions: map[string][]core.Transaction{},
		categories:   map[string][]core.Category{},
		profiles:     map[string]core.Profile{},
		now:          time.Now,
	}
}

// WithClock overrides the timestamp source. Tests use it for stable output.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) AddTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	t.ID = uuid.NewString()
	t.CreatedAt = now
	t.UpdatedAt = now
	s.transactions[t.UserID] = append(s.transactions[t.UserID], t)
	return t, nil
}

func (s *Store) ListTransactions(_ context.Context, userID string) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := append([]core.Transaction(nil), s.transactions[userID]...)
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Date != items[j].Date {
			return items[i].Date > items[j].Date
		}
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	return items, nil
}

func (s *Store) DeleteTransaction(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.transactions[userID]
	for i, t := range items {
		if t.ID == id {
			s.transactions[userID] = append(items[:i], items[i+1:]...)
			return nil
		}
	}
	return core.ErrNotFound
}

func (s *Store) AddCategory(_ context.Context, c core.Category) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	c.ID = uuid.NewString()
	c.CreatedAt = now
	c.UpdatedAt = now
	s.categories[c.UserID] = append(s.categories[c.UserID], c)
	return c, nil
}

func (s *Store) ListCategories(_ context.Context, userID string) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := append([]core.Category(nil), s.categories[userID]...)
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	return items, nil
}

func (s *Store) InitialBalance(_ context.Context, userID string) (core.Money, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profiles[userID].InitialBalance, nil
}

func (s *Store) SetInitialBalance(_ context.Context, userID string, balance core.Money) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.profiles[userID]
	p.UserID = userID
	p.InitialBalance = balance
	p.UpdatedAt = s.now().UTC()
	s.profiles[userID] = p
	return nil
}

func (s *Store) Profile(_ context.Context, userID string) (core.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.profiles[userID]
	p.UserID = userID
	return p, nil
}

func (s *Store) UpdateProfile(_ context.Context, userID string, in core.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.profiles[userID]
	p.UserID = userID
	p.Email = in.Email
	p.DisplayName = in.DisplayName
	p.Currency = in.Currency
	p.Preferences = in.Preferences
	p.UpdatedAt = s.now().UTC()
	s.profiles[userID] = p
	return nil
}

// Receipts is an in-memory blob store. Stored bodies are kept so tests can
// assert exactly what was written.
type Receipts struct {
	mu    sync.Mutex
	blobs map[string][]byte
	now   func() time.Time

	// FailWith makes every Store call fail; used to exercise the
	// upload-failure path.
	FailWith error
}

func NewReceipts() *Receipts {
	return &Receipts{blobs: map[string][]byte{}, now: time.Now}
}

func (r *Receipts) Store(_ context.Context, userID, filename string, body io.Reader) (string, error) {
	if r.FailWith != nil {
		return "", r.FailWith
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	path := fmt.Sprintf("users/%s/receipts/%d-%s", userID, r.now().UnixMilli(), filename)
	r.blobs[path] = data
	return "mem://" + path, nil
}

// Count returns how many blobs were stored.
func (r *Receipts) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.blobs)
}
