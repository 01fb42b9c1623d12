// Package supabase backs the store ports with a hosted Supabase project:
// postgrest tables for the ledger, a storage bucket for receipts and
// gotrue for session verification.
package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/supabase-community/supabase-go"

	"github.com/DiogoMatos10/myfinance/internal/core"
	"github.com/DiogoMatos10/myfinance/internal/log"
)

type Store struct {
	client *supabase.Client
	bucket string
	logger *log.Logger
	now    func() time.Time
}

func NewStore(url, key, bucket string, logger *log.Logger) (*Store, error) {
	client, err := supabase.NewClient(url, key, &supabase.ClientOptions{})
	if err != nil {
		return nil, fmt.Errorf("supabase client: %w", err)
	}
	return &Store{
		client: client,
		bucket: bucket,
		logger: logger.WithComponent(log.ComponentStorage),
		now:    time.Now,
	}, nil
}

// transactionRow mirrors the transactions table. Amounts travel as integer
// cents so postgrest never sees a float.
type transactionRow struct {
	ID           string `json:"id,omitempty"`
	UserID       string `json:"user_id"`
	Type         string `json:"type"`
	CategoryID   string `json:"category_id"`
	CategoryName string `json:"category_name"`
	AmountCents  int64  `json:"amount_cents"`
	Date         string `json:"date"`
	Description  string `json:"description"`
	ReceiptURL   string `json:"receipt_url"`
	CreatedAt    string `json:"created_at,omitempty"`
	UpdatedAt    string `json:"updated_at,omitempty"`
}

type categoryRow struct {
	ID        string `json:"id,omitempty"`
	UserID    string `json:"user_id"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	Color     string `json:"color"`
	CreatedAt string `json:"created_at,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

// profileRow carries the balance columns only; the merge-upsert must not
// include settings keys or a balance write would blank them.
type profileRow struct {
	UserID              string `json:"user_id"`
	InitialBalanceCents int64  `json:"initial_balance_cents"`
}

// profileSettingsRow is the settings slice of the document; it omits the
// balance column for the same reason.
type profileSettingsRow struct {
	UserID        string `json:"user_id"`
	Email         string `json:"email"`
	DisplayName   string `json:"display_name"`
	Currency      string `json:"currency"`
	Theme         string `json:"theme"`
	DateFormat    string `json:"date_format"`
	Notifications bool   `json:"notifications"`
}

type profileDoc struct {
	profileSettingsRow
	InitialBalanceCents int64  `json:"initial_balance_cents"`
	UpdatedAt           string `json:"updated_at,omitempty"`
}

func (s *Store) AddTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	row := transactionRow{
		UserID:       t.UserID,
		Type:         string(t.Type),
		CategoryID:   t.CategoryID,
		CategoryName: t.CategoryName,
		AmountCents:  t.Amount.Cents,
		Date:         t.Date,
		Description:  t.Description,
		ReceiptURL:   t.ReceiptURL,
	}
	data, _, err := s.client.From("transactions").Insert(row, true, "", "", "").Execute()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}

	var created []transactionRow
	if err := json.Unmarshal(data, &created); err != nil {
		return core.Transaction{}, fmt.Errorf("parse inserted transaction: %w", err)
	}
	if len(created) == 0 {
		return core.Transaction{}, fmt.Errorf("insert transaction: empty response")
	}

	result := created[0].toDomain()
	s.logger.InfoContext(ctx, "transaction stored",
		log.FieldTransactionID, result.ID,
		log.FieldUserID, result.UserID,
		log.FieldAmountCents, result.Amount.Cents)
	return result, nil
}

func (s *Store) ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error) {
	data, _, err := s.client.From("transactions").
		Select("*", "", false).
		Eq("user_id", userID).
		Order("date.desc", nil).
		Order("created_at.desc", nil).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	var rows []transactionRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("parse transactions: %w", err)
	}

	items := make([]core.Transaction, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toDomain())
	}
	return items, nil
}

func (s *Store) DeleteTransaction(ctx context.Context, userID, id string) error {
	// Ask postgrest to return the deleted rows so a miss is detectable.
	data, _, err := s.client.From("transactions").
		Delete("representation", "").
		Eq("id", id).
		Eq("user_id", userID).
		Execute()
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}

	var deleted []transactionRow
	if err := json.Unmarshal(data, &deleted); err != nil {
		return fmt.Errorf("parse deleted transaction: %w", err)
	}
	if len(deleted) == 0 {
		return core.ErrNotFound
	}

	s.logger.InfoContext(ctx, "transaction deleted",
		log.FieldTransactionID, id,
		log.FieldUserID, userID)
	return nil
}

func (s *Store) AddCategory(ctx context.Context, c core.Category) (core.Category, error) {
	row := categoryRow{
		UserID: c.UserID,
		Name:   c.Name,
		Type:   string(c.Type),
		Color:  c.Color,
	}
	data, _, err := s.client.From("categories").Insert(row, true, "", "", "").Execute()
	if err != nil {
		return core.Category{}, fmt.Errorf("insert category: %w", err)
	}

	var created []categoryRow
	if err := json.Unmarshal(data, &created); err != nil {
		return core.Category{}, fmt.Errorf("parse inserted category: %w", err)
	}
	if len(created) == 0 {
		return core.Category{}, fmt.Errorf("insert category: empty response")
	}
	return created[0].toDomain(), nil
}

func (s *Store) ListCategories(ctx context.Context, userID string) ([]core.Category, error) {
	data, _, err := s.client.From("categories").
		Select("*", "", false).
		Eq("user_id", userID).
		Order("created_at.desc", nil).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	var rows []categoryRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("parse categories: %w", err)
	}

	items := make([]core.Category, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toDomain())
	}
	return items, nil
}

func (s *Store) InitialBalance(ctx context.Context, userID string) (core.Money, error) {
	data, _, err := s.client.From("profiles").
		Select("user_id,initial_balance_cents", "", false).
		Eq("user_id", userID).
		Execute()
	if err != nil {
		return core.Money{}, fmt.Errorf("get profile: %w", err)
	}

	var rows []profileRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return core.Money{}, fmt.Errorf("parse profile: %w", err)
	}
	if len(rows) == 0 {
		return core.Money{}, nil
	}
	return core.Money{Cents: rows[0].InitialBalanceCents}, nil
}

func (s *Store) SetInitialBalance(ctx context.Context, userID string, amount core.Money) error {
	// Insert with the upsert flag merges on the user_id conflict target.
	row := profileRow{UserID: userID, InitialBalanceCents: amount.Cents}
	_, _, err := s.client.From("profiles").
		Insert(row, true, "user_id", "", "").
		Execute()
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

func (s *Store) Profile(ctx context.Context, userID string) (core.Profile, error) {
	data, _, err := s.client.From("profiles").
		Select("*", "", false).
		Eq("user_id", userID).
		Execute()
	if err != nil {
		return core.Profile{}, fmt.Errorf("get profile: %w", err)
	}

	var rows []profileDoc
	if err := json.Unmarshal(data, &rows); err != nil {
		return core.Profile{}, fmt.Errorf("parse profile: %w", err)
	}
	if len(rows) == 0 {
		return core.Profile{UserID: userID}, nil
	}
	return rows[0].toDomain(), nil
}

func (s *Store) UpdateProfile(ctx context.Context, userID string, p core.Profile) error {
	row := profileSettingsRow{
		UserID:        userID,
		Email:         p.Email,
		DisplayName:   p.DisplayName,
		Currency:      p.Currency,
		Theme:         p.Preferences.Theme,
		DateFormat:    p.Preferences.DateFormat,
		Notifications: p.Preferences.Notifications,
	}
	_, _, err := s.client.From("profiles").
		Insert(row, true, "user_id", "", "").
		Execute()
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

// Store uploads the receipt into the configured bucket and returns a
// shareable URL. The object path embeds the upload instant so repeated
// uploads of the same filename never collide.
func (s *Store) Store(ctx context.Context, userID, filename string, body io.Reader) (string, error) {
	path := fmt.Sprintf("users/%s/receipts/%d-%s", userID, s.now().UnixMilli(), filename)
	if _, err := s.client.Storage.UploadFile(s.bucket, path, body); err != nil {
		return "", fmt.Errorf("upload receipt: %w", err)
	}

	resp := s.client.Storage.GetPublicUrl(s.bucket, path)
	s.logger.InfoContext(ctx, "receipt uploaded",
		log.FieldUserID, userID,
		log.FieldReceiptURL, resp.SignedURL)
	return resp.SignedURL, nil
}

// Verify checks the bearer token against gotrue and returns the subject.
func (s *Store) Verify(ctx context.Context, token string) (string, error) {
	user, err := s.client.Auth.WithToken(token).GetUser()
	if err != nil {
		return "", core.ErrUnauthorized
	}
	return user.ID.String(), nil
}

func (r transactionRow) toDomain() core.Transaction {
	return core.Transaction{
		ID:           r.ID,
		UserID:       r.UserID,
		Type:         core.TransactionType(r.Type),
		CategoryID:   r.CategoryID,
		CategoryName: r.CategoryName,
		Amount:       core.Money{Cents: r.AmountCents},
		Date:         r.Date,
		Description:  r.Description,
		ReceiptURL:   r.ReceiptURL,
		CreatedAt:    parseTimestamp(r.CreatedAt),
		UpdatedAt:    parseTimestamp(r.UpdatedAt),
	}
}

func (r categoryRow) toDomain() core.Category {
	return core.Category{
		ID:        r.ID,
		UserID:    r.UserID,
		Name:      r.Name,
		Type:      core.CategoryType(r.Type),
		Color:     r.Color,
		CreatedAt: parseTimestamp(r.CreatedAt),
		UpdatedAt: parseTimestamp(r.UpdatedAt),
	}
}

func (r profileDoc) toDomain() core.Profile {
	return core.Profile{
		UserID:         r.UserID,
		Email:          r.Email,
		DisplayName:    r.DisplayName,
		Currency:       r.Currency,
		InitialBalance: core.Money{Cents: r.InitialBalanceCents},
		Preferences: core.Preferences{
			Theme:         r.Theme,
			DateFormat:    r.DateFormat,
			Notifications: r.Notifications,
		},
		UpdatedAt: parseTimestamp(r.UpdatedAt),
	}
}

func parseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
