package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/DiogoMatos10/myfinance/internal/core"
	"github.com/DiogoMatos10/myfinance/internal/services"
)

// maxUploadBytes caps multipart bodies; receipts are photos or PDFs, not
// videos.
const maxUploadBytes = 10 << 20

type transactionRequest struct {
	Type         string     `json:"type"`
	CategoryID   string     `json:"categoryId"`
	CategoryName string     `json:"categoryName"`
	Amount       core.Money `json:"amount"`
	Date         string     `json:"date"`
	Description  string     `json:"description"`
	ReceiptURL   string     `json:"receiptUrl"`
}

// handleListTransactions requires an explicit userId parameter; the gate has
// already rejected values that do not match the session user.
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("userId") == "" {
		verr := core.NewValidationError()
		verr.Add("userId", "userId is required")
		writeError(w, r, verr)
		return
	}

	items, err := s.transactions.List(r.Context(), UserID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if items == nil {
		items = []core.Transaction{}
	}
	writeJSON(w, http.StatusOK, items)
}

// handleCreateTransaction accepts either a JSON body or multipart form data;
// multipart is how a receipt file travels with the entry.
func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	// Cap the whole body, not just the multipart memory buffer, so an
	// oversized upload fails instead of spooling to disk.
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	var input services.TransactionInput
	var err error

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		input, err = s.parseMultipartTransaction(r)
	} else {
		input, err = parseJSONTransaction(r)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	created, err := s.transactions.Create(r.Context(), UserID(r.Context()), input)
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.invalidateSummary(created.UserID)
	writeJSON(w, http.StatusCreated, created)
}

func parseJSONTransaction(r *http.Request) (services.TransactionInput, error) {
	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		verr := core.NewValidationError()
		verr.Add("body", "request body must be valid JSON")
		return services.TransactionInput{}, verr
	}
	return services.TransactionInput{
		Type:         core.TransactionType(req.Type),
		CategoryID:   req.CategoryID,
		CategoryName: req.CategoryName,
		Amount:       req.Amount,
		Date:         req.Date,
		Description:  req.Description,
		ReceiptURL:   req.ReceiptURL,
	}, nil
}

func (s *Server) parseMultipartTransaction(r *http.Request) (services.TransactionInput, error) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		verr := core.NewValidationError()
		verr.Add("body", "request body must be valid multipart form data")
		return services.TransactionInput{}, verr
	}

	amount, err := core.MoneyFromString(strings.TrimSpace(r.FormValue("amount")))
	if err != nil {
		verr := core.NewValidationError()
		verr.Add("amount", "amount must be a positive number")
		return services.TransactionInput{}, verr
	}

	input := services.TransactionInput{
		Type:         core.TransactionType(r.FormValue("type")),
		CategoryID:   r.FormValue("categoryId"),
		CategoryName: r.FormValue("categoryName"),
		Amount:       amount,
		Date:         r.FormValue("date"),
		Description:  r.FormValue("description"),
	}

	file, header, err := r.FormFile("receipt")
	if err == nil {
		input.Receipt = &services.ReceiptFile{Name: header.Filename, Body: file}
	} else if err != http.ErrMissingFile {
		verr := core.NewValidationError()
		verr.Add("receipt", "receipt file could not be read")
		return services.TransactionInput{}, verr
	}

	return input, nil
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	userID := UserID(r.Context())
	if err := s.transactions.Delete(r.Context(), userID, r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateSummary(userID)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	items, err := s.categories.List(r.Context(), UserID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if items == nil {
		items = []core.Category{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name  string `json:"name"`
		Type  string `json:"type"`
		Color string `json:"color"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		verr := core.NewValidationError()
		verr.Add("body", "request body must be valid JSON")
		writeError(w, r, verr)
		return
	}

	created, err := s.categories.Create(r.Context(), UserID(r.Context()), services.CategoryInput{
		Name:  req.Name,
		Type:  core.CategoryType(req.Type),
		Color: req.Color,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGetBalance(w http.ResponseWriter, r *http.Request) {
	balance, err := s.balance.Get(r.Context(), UserID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]core.Money{"initialBalance": balance})
}

func (s *Server) handleSetBalance(w http.ResponseWriter, r *http.Request) {
	var req struct {
		InitialBalance core.Money `json:"initialBalance"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		verr := core.NewValidationError()
		verr.Add("body", "request body must be valid JSON")
		writeError(w, r, verr)
		return
	}

	userID := UserID(r.Context())
	if err := s.balance.Set(r.Context(), userID, req.InitialBalance); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]core.Money{"initialBalance": req.InitialBalance})
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := s.profile.Get(r.Context(), UserID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// handleUpdateProfile merge-persists the settings slice of the profile.
// The initial balance is read-only here; it has its own endpoint.
func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email       string           `json:"email"`
		DisplayName string           `json:"displayName"`
		Currency    string           `json:"currency"`
		Preferences core.Preferences `json:"preferences"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		verr := core.NewValidationError()
		verr.Add("body", "request body must be valid JSON")
		writeError(w, r, verr)
		return
	}

	updated, err := s.profile.Update(r.Context(), UserID(r.Context()), services.ProfileInput{
		Email:       req.Email,
		DisplayName: req.DisplayName,
		Currency:    req.Currency,
		Preferences: req.Preferences,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

type summaryResponse struct {
	Income           core.Money            `json:"income"`
	Expenses         core.Money            `json:"expenses"`
	Balance          core.Money            `json:"balance"`
	InitialBalance   core.Money            `json:"initialBalance"`
	TotalWithInitial core.Money            `json:"totalWithInitial"`
	ByCategory       map[string]core.Money `json:"byCategory"`
}

// handleSummary aggregates the user's ledger server-side. The aggregate is
// cached per user; the initial balance is read fresh on every request so a
// balance update shows up without an invalidation hook.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	userID := UserID(r.Context())

	summary, found := s.summaryCache.Get(userID)
	if !found {
		items, err := s.transactions.List(r.Context(), userID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		summary = core.Summarize(items)
		s.summaryCache.Set(userID, summary)
	} else {
		slog.DebugContext(r.Context(), "Summary cache hit", "user_id", userID)
	}

	initial, err := s.balance.Get(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, summaryResponse{
		Income:           summary.Income,
		Expenses:         summary.Expenses,
		Balance:          summary.Balance,
		InitialBalance:   initial,
		TotalWithInitial: summary.TotalWithInitial(initial),
		ByCategory:       summary.ByCategory,
	})
}

func (s *Server) invalidateSummary(userID string) {
	s.summaryCache.Delete(userID)
}
