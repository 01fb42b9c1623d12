package core

import (
	"strings"
	"time"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

const (
	CategoryIncome  CategoryType = "income"
	CategoryExpense CategoryType = "expense"
	CategoryBoth    CategoryType = "both"
)

type (
	TransactionType string
	CategoryType    string

	// Transaction is a single ledger entry. Entries are immutable once
	// created; the only mutations the ledger supports are create and delete.
	Transaction struct {
		ID           string          `json:"id"`
		UserID       string          `json:"userId"`
		Type         TransactionType `json:"type"`
		CategoryID   string          `json:"categoryId"`
		CategoryName string          `json:"categoryName"`
		Amount       Money           `json:"amount"`
		Date         string          `json:"date"`
		Description  string          `json:"description,omitempty"`
		ReceiptURL   string          `json:"receiptUrl,omitempty"`
		CreatedAt    time.Time       `json:"createdAt,omitempty"`
		UpdatedAt    time.Time       `json:"updatedAt,omitempty"`
	}

	// Category is a user-defined label assignable to transactions. The set is
	// append-only: no rename or delete is exposed, so the CategoryName snapshot
	// carried by past transactions can never go stale.
	Category struct {
		ID        string       `json:"id"`
		UserID    string       `json:"userId"`
		Name      string       `json:"name"`
		Type      CategoryType `json:"type"`
		Color     string       `json:"color,omitempty"`
		CreatedAt time.Time    `json:"createdAt,omitempty"`
		UpdatedAt time.Time    `json:"updatedAt,omitempty"`
	}

	// Preferences are display settings carried on the profile document.
	Preferences struct {
		Theme         string `json:"theme,omitempty"`
		DateFormat    string `json:"dateFormat,omitempty"`
		Notifications bool   `json:"notifications"`
	}

	// Profile is the per-user document. The initial balance is merged into it
	// rather than kept as a separate collection.
	Profile struct {
		UserID         string      `json:"userId"`
		Email          string      `json:"email,omitempty"`
		DisplayName    string      `json:"displayName,omitempty"`
		Currency       string      `json:"currency,omitempty"`
		InitialBalance Money       `json:"initialBalance"`
		Preferences    Preferences `json:"preferences"`
		UpdatedAt      time.Time   `json:"updatedAt,omitempty"`
	}
)

// Valid reports whether t is one of the two ledger entry types.
func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

// Valid reports whether t is an allowed category scope.
func (t CategoryType) Valid() bool {
	return t == CategoryIncome || t == CategoryExpense || t == CategoryBoth
}

// Validate checks the fields a caller supplies on creation. Store-assigned
// fields (ID, timestamps) are not inspected. The sign of a transaction is
// carried by Type, so Amount must be strictly positive for both entry types.
func (t Transaction) Validate() error {
	v := NewValidationError()
	if !t.Type.Valid() {
		v.Add("type", "type must be income or expense")
	}
	if strings.TrimSpace(t.UserID) == "" {
		v.Add("userId", "userId is required")
	}
	if strings.TrimSpace(t.CategoryID) == "" {
		v.Add("categoryId", "categoryId is required")
	}
	if err := t.Amount.Validate(); err != nil {
		v.Add("amount", "amount must be a positive number")
	}
	if strings.TrimSpace(t.Date) == "" {
		v.Add("date", "date is required")
	}
	return v.OrNil()
}

// Validate checks caller-supplied profile settings. The initial balance is
// governed by the balance operations and not inspected here.
func (p Profile) Validate() error {
	v := NewValidationError()
	if p.Currency != "" && !validCurrency(p.Currency) {
		v.Add("currency", "currency must be a 3-letter ISO code")
	}
	switch p.Preferences.Theme {
	case "", "light", "dark", "system":
	default:
		v.Add("theme", "theme must be light, dark or system")
	}
	return v.OrNil()
}

func validCurrency(s string) bool {
	if len(s) != 3 {
		return false
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

// Validate checks caller-supplied category fields. Color is a free-form
// display hint and deliberately not validated. Duplicate names are allowed.
func (c Category) Validate() error {
	v := NewValidationError()
	if strings.TrimSpace(c.UserID) == "" {
		v.Add("userId", "userId is required")
	}
	if len(strings.TrimSpace(c.Name)) < 2 {
		v.Add("name", "name must be at least 2 characters")
	}
	if !c.Type.Valid() {
		v.Add("type", "type must be income, expense or both")
	}
	return v.OrNil()
}
