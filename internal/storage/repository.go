// Package storage is the SQLite implementation of the document-store ports:
// one ledger partition per user plus the profile document, all scoped by
// user_id. It assigns ids and timestamps on write; callers never supply them.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/DiogoMatos10/myfinance/internal/core"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Timestamps are stored as RFC3339Nano text so ordering in SQL matches
// ordering in Go.
const timeLayout = time.RFC3339Nano

func (r *Repository) AddTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	now := time.Now().UTC()
	t.ID = uuid.NewString()
	t.CreatedAt = now
	t.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions
			(id, user_id, type, category_id, category_name, amount_cents, date, description, receipt_url, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, string(t.Type), t.CategoryID, t.CategoryName,
		t.Amount.Cents, t.Date, t.Description, t.ReceiptURL,
		now.Format(timeLayout), now.Format(timeLayout),
	)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", t.ID,
		"user_id", t.UserID,
		"amount_cents", t.Amount.Cents,
		"date", t.Date)

	return t, nil
}

func (r *Repository) ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, type, category_id, category_name, amount_cents, date, description, receipt_url, created_at, updated_at
		FROM transactions
		WHERE user_id = ?
		ORDER BY date DESC, created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var items []core.Transaction
	for rows.Next() {
		var (
			t                    core.Transaction
			typ                  string
			createdAt, updatedAt string
		)
		if err := rows.Scan(&t.ID, &t.UserID, &typ, &t.CategoryID, &t.CategoryName,
			&t.Amount.Cents, &t.Date, &t.Description, &t.ReceiptURL, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t.Type = core.TransactionType(typ)
		t.CreatedAt = parseTime(createdAt)
		t.UpdatedAt = parseTime(updatedAt)
		items = append(items, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return items, nil
}

func (r *Repository) DeleteTransaction(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM transactions WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *Repository) AddCategory(ctx context.Context, c core.Category) (core.Category, error) {
	now := time.Now().UTC()
	c.ID = uuid.NewString()
	c.CreatedAt = now
	c.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO categories (id, user_id, name, type, color, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.UserID, c.Name, string(c.Type), c.Color,
		now.Format(timeLayout), now.Format(timeLayout),
	)
	if err != nil {
		return core.Category{}, fmt.Errorf("insert category: %w", err)
	}
	return c, nil
}

func (r *Repository) ListCategories(ctx context.Context, userID string) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, name, type, color, created_at, updated_at
		FROM categories
		WHERE user_id = ?
		ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var items []core.Category
	for rows.Next() {
		var (
			c                    core.Category
			typ                  string
			createdAt, updatedAt string
		)
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &typ, &c.Color, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		c.Type = core.CategoryType(typ)
		c.CreatedAt = parseTime(createdAt)
		c.UpdatedAt = parseTime(updatedAt)
		items = append(items, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return items, nil
}

func (r *Repository) InitialBalance(ctx context.Context, userID string) (core.Money, error) {
	var cents int64
	err := r.db.QueryRowContext(ctx,
		`SELECT initial_balance_cents FROM profiles WHERE user_id = ?`, userID,
	).Scan(&cents)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Money{}, nil
	}
	if err != nil {
		return core.Money{}, fmt.Errorf("query balance: %w", err)
	}
	return core.Money{Cents: cents}, nil
}

func (r *Repository) SetInitialBalance(ctx context.Context, userID string, balance core.Money) error {
	now := time.Now().UTC().Format(timeLayout)
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO profiles (user_id, initial_balance_cents, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			initial_balance_cents = excluded.initial_balance_cents,
			updated_at = excluded.updated_at`,
		userID, balance.Cents, now,
	)
	if err != nil {
		return fmt.Errorf("upsert balance: %w", err)
	}
	return nil
}

func (r *Repository) Profile(ctx context.Context, userID string) (core.Profile, error) {
	var (
		p             core.Profile
		notifications int
		updatedAt     string
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT user_id, email, display_name, currency, theme, date_format, notifications, initial_balance_cents, updated_at
		FROM profiles WHERE user_id = ?`, userID,
	).Scan(&p.UserID, &p.Email, &p.DisplayName, &p.Currency,
		&p.Preferences.Theme, &p.Preferences.DateFormat, &notifications,
		&p.InitialBalance.Cents, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Profile{UserID: userID}, nil
	}
	if err != nil {
		return core.Profile{}, fmt.Errorf("query profile: %w", err)
	}
	p.Preferences.Notifications = notifications != 0
	p.UpdatedAt = parseTime(updatedAt)
	return p, nil
}

func (r *Repository) UpdateProfile(ctx context.Context, userID string, p core.Profile) error {
	notifications := 0
	if p.Preferences.Notifications {
		notifications = 1
	}
	now := time.Now().UTC().Format(timeLayout)
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO profiles (user_id, email, display_name, currency, theme, date_format, notifications, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			email = excluded.email,
			display_name = excluded.display_name,
			currency = excluded.currency,
			theme = excluded.theme,
			date_format = excluded.date_format,
			notifications = excluded.notifications,
			updated_at = excluded.updated_at`,
		userID, p.Email, p.DisplayName, p.Currency,
		p.Preferences.Theme, p.Preferences.DateFormat, notifications, now,
	)
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
