package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DiogoMatos10/myfinance/internal/identity"
	"github.com/DiogoMatos10/myfinance/internal/log"
	"github.com/DiogoMatos10/myfinance/internal/services"
	"github.com/DiogoMatos10/myfinance/internal/store/memory"
)

type testEnv struct {
	server   *Server
	store    *memory.Store
	receipts *memory.Receipts
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st := memory.New()
	rc := memory.NewReceipts()
	logger := log.New(log.DefaultConfig())

	verifier := identity.NewStatic()
	verifier.Register("tok-u1", "u1")
	verifier.Register("tok-u2", "u2")

	registry := services.NewCategoryRegistry(st, logger)
	env := &testEnv{
		server: NewServer(":0", Deps{
			Transactions: services.NewTransactionService(st, registry, rc, nil, logger),
			Categories:   registry,
			Balance:      services.NewBalanceService(st, logger),
			Profile:      services.NewProfileService(st, logger),
			Verifier:     verifier,
			SessionTTL:   7 * 24 * time.Hour,
		}),
		store:    st,
		receipts: rc,
	}
	t.Cleanup(func() { _ = env.server.Shutdown(context.Background()) })
	return env
}

func (e *testEnv) do(t *testing.T, method, path, token string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: token})
	}
	rr := httptest.NewRecorder()
	e.server.Server.Handler.ServeHTTP(rr, req)
	return rr
}

func (e *testEnv) doJSON(t *testing.T, method, path, token string, payload string) *httptest.ResponseRecorder {
	return e.do(t, method, path, token, strings.NewReader(payload), "application/json")
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode body %q: %v", rr.Body.String(), err)
	}
	return out
}

func TestSessionLifecycle(t *testing.T) {
	env := newTestEnv(t)

	rr := env.doJSON(t, "POST", "/api/session", "", `{"token":"tok-u1"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("create session status = %d, body %s", rr.Code, rr.Body.String())
	}
	if got := decodeBody(t, rr)["userId"]; got != "u1" {
		t.Fatalf("userId = %v, want u1", got)
	}

	cookies := rr.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected one cookie, got %d", len(cookies))
	}
	c := cookies[0]
	if c.Name != sessionCookieName || c.Value != "tok-u1" {
		t.Fatalf("cookie %s=%s, want session=tok-u1", c.Name, c.Value)
	}
	if !c.HttpOnly || c.Path != "/" || c.SameSite != http.SameSiteLaxMode {
		t.Fatalf("cookie attributes wrong: %+v", c)
	}
	if c.MaxAge != int(7*24*time.Hour/time.Second) {
		t.Fatalf("cookie MaxAge = %d, want 7 days", c.MaxAge)
	}

	rr = env.doJSON(t, "DELETE", "/api/session", "tok-u1", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("delete session status = %d", rr.Code)
	}
	cookies = rr.Result().Cookies()
	if len(cookies) != 1 || cookies[0].MaxAge >= 0 {
		t.Fatalf("expected expiring cookie, got %+v", cookies)
	}
}

func TestSessionRejections(t *testing.T) {
	env := newTestEnv(t)

	rr := env.doJSON(t, "POST", "/api/session", "", `{"token":"bogus"}`)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("unknown token status = %d, want 401", rr.Code)
	}

	rr = env.doJSON(t, "POST", "/api/session", "", `{}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("missing token status = %d, want 400", rr.Code)
	}
	body := decodeBody(t, rr)
	if body["message"] != "Validation failed" {
		t.Fatalf("message = %v, want Validation failed", body["message"])
	}
	if _, ok := body["fieldErrors"].(map[string]any)["token"]; !ok {
		t.Fatalf("expected fieldErrors.token, got %v", body["fieldErrors"])
	}
}

func TestGateBlocksWithoutSession(t *testing.T) {
	env := newTestEnv(t)

	for _, route := range []struct{ method, path string }{
		{"GET", "/api/transactions"},
		{"POST", "/api/transactions"},
		{"GET", "/api/categories"},
		{"GET", "/api/balance"},
		{"GET", "/api/summary"},
	} {
		rr := env.doJSON(t, route.method, route.path, "", "{}")
		if rr.Code != http.StatusUnauthorized {
			t.Errorf("%s %s without cookie: status = %d, want 401", route.method, route.path, rr.Code)
		}
	}

	rr := env.doJSON(t, "GET", "/api/transactions", "expired-token", "")
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("stale cookie status = %d, want 401", rr.Code)
	}
}

func TestGateRejectsForeignUserID(t *testing.T) {
	env := newTestEnv(t)

	rr := env.doJSON(t, "GET", "/api/transactions?userId=u2", "tok-u1", "")
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("foreign userId status = %d, want 401", rr.Code)
	}

	// The session user's own id is fine.
	rr = env.doJSON(t, "GET", "/api/transactions?userId=u1", "tok-u1", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("own userId status = %d, want 200", rr.Code)
	}
}

func TestListTransactionsRequiresUserID(t *testing.T) {
	env := newTestEnv(t)

	rr := env.doJSON(t, "GET", "/api/transactions", "tok-u1", "")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("missing userId status = %d, want 400", rr.Code)
	}
	if _, ok := decodeBody(t, rr)["fieldErrors"].(map[string]any)["userId"]; !ok {
		t.Fatalf("expected fieldErrors.userId, got %s", rr.Body.String())
	}
}

func createCategory(t *testing.T, env *testEnv, token, name, typ string) string {
	t.Helper()
	rr := env.doJSON(t, "POST", "/api/categories", token,
		fmt.Sprintf(`{"name":%q,"type":%q}`, name, typ))
	if rr.Code != http.StatusCreated {
		t.Fatalf("create category status = %d, body %s", rr.Code, rr.Body.String())
	}
	return decodeBody(t, rr)["id"].(string)
}

func TestTransactionLifecycle(t *testing.T) {
	env := newTestEnv(t)
	catID := createCategory(t, env, "tok-u1", "Groceries", "expense")

	rr := env.doJSON(t, "POST", "/api/transactions", "tok-u1",
		fmt.Sprintf(`{"type":"expense","categoryId":%q,"categoryName":"Spoofed","amount":50,"date":"2024-03-01"}`, catID))
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rr.Code, rr.Body.String())
	}
	created := decodeBody(t, rr)
	if created["id"] == "" {
		t.Fatal("expected assigned id")
	}
	// The registry name wins over the client hint.
	if created["categoryName"] != "Groceries" {
		t.Fatalf("categoryName = %v, want Groceries", created["categoryName"])
	}
	if created["amount"] != float64(50) {
		t.Fatalf("amount = %v, want 50", created["amount"])
	}

	rr = env.doJSON(t, "GET", "/api/transactions?userId=u1", "tok-u1", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("list status = %d", rr.Code)
	}
	var items []map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &items); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("list len = %d, want 1", len(items))
	}

	id := created["id"].(string)
	rr = env.doJSON(t, "DELETE", "/api/transactions/"+id, "tok-u1", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rr.Code)
	}
	if decodeBody(t, rr)["ok"] != true {
		t.Fatalf("delete body = %s", rr.Body.String())
	}

	rr = env.doJSON(t, "DELETE", "/api/transactions/"+id, "tok-u1", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("second delete status = %d, want 404", rr.Code)
	}
}

func TestTransactionValidationErrors(t *testing.T) {
	env := newTestEnv(t)

	rr := env.doJSON(t, "POST", "/api/transactions", "tok-u1",
		`{"type":"transfer","amount":-5,"date":""}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
	body := decodeBody(t, rr)
	if body["message"] != "Validation failed" {
		t.Fatalf("message = %v", body["message"])
	}
	fieldErrors, _ := body["fieldErrors"].(map[string]any)
	for _, field := range []string{"type", "categoryId", "amount", "date"} {
		if _, ok := fieldErrors[field]; !ok {
			t.Errorf("missing fieldErrors.%s in %v", field, fieldErrors)
		}
	}

	rr = env.doJSON(t, "POST", "/api/transactions", "tok-u1", `not json`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("malformed body status = %d, want 400", rr.Code)
	}
}

func TestListsReturnEmptyArrays(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/api/transactions?userId=u1", "/api/categories"} {
		rr := env.doJSON(t, "GET", path, "tok-u1", "")
		if rr.Code != http.StatusOK {
			t.Fatalf("GET %s status = %d", path, rr.Code)
		}
		if body := strings.TrimSpace(rr.Body.String()); body != "[]" {
			t.Errorf("GET %s body = %q, want []", path, body)
		}
	}
}

func TestMultipartCreateStoresReceipt(t *testing.T) {
	env := newTestEnv(t)
	catID := createCategory(t, env, "tok-u1", "Travel", "expense")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for field, value := range map[string]string{
		"type":       "expense",
		"categoryId": catID,
		"amount":     "19.99",
		"date":       "2024-04-02",
	} {
		if err := mw.WriteField(field, value); err != nil {
			t.Fatalf("write field %s: %v", field, err)
		}
	}
	part, err := mw.CreateFormFile("receipt", "ticket.pdf")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte("pdf-bytes")); err != nil {
		t.Fatalf("write file: %v", err)
	}
	mw.Close()

	rr := env.do(t, "POST", "/api/transactions", "tok-u1", &buf, mw.FormDataContentType())
	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	created := decodeBody(t, rr)
	url, _ := created["receiptUrl"].(string)
	if !strings.Contains(url, "users/u1/receipts/") || !strings.HasSuffix(url, "-ticket.pdf") {
		t.Fatalf("receiptUrl = %q", url)
	}
	if env.receipts.Count() != 1 {
		t.Fatalf("stored receipts = %d, want 1", env.receipts.Count())
	}
	if created["amount"] != 19.99 {
		t.Fatalf("amount = %v, want 19.99", created["amount"])
	}
}

func TestBalanceRoundTrip(t *testing.T) {
	env := newTestEnv(t)

	rr := env.doJSON(t, "GET", "/api/balance", "tok-u1", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("get status = %d", rr.Code)
	}
	if got := decodeBody(t, rr)["initialBalance"]; got != float64(0) {
		t.Fatalf("default initialBalance = %v, want 0", got)
	}

	rr = env.doJSON(t, "PUT", "/api/balance", "tok-u1", `{"initialBalance":100}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("put status = %d, body %s", rr.Code, rr.Body.String())
	}

	rr = env.doJSON(t, "GET", "/api/balance", "tok-u1", "")
	if got := decodeBody(t, rr)["initialBalance"]; got != float64(100) {
		t.Fatalf("initialBalance = %v, want 100", got)
	}

	rr = env.doJSON(t, "PUT", "/api/balance", "tok-u1", `{"initialBalance":-1}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("negative balance status = %d, want 400", rr.Code)
	}
}

func TestProfileRoundTrip(t *testing.T) {
	env := newTestEnv(t)

	rr := env.doJSON(t, "GET", "/api/profile", "tok-u1", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("get status = %d", rr.Code)
	}
	if got := decodeBody(t, rr)["userId"]; got != "u1" {
		t.Fatalf("userId = %v, want u1", got)
	}

	rr = env.doJSON(t, "PUT", "/api/profile", "tok-u1",
		`{"displayName":"User One","currency":"EUR","preferences":{"theme":"dark","dateFormat":"yyyy-MM-dd","notifications":true}}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("put status = %d, body %s", rr.Code, rr.Body.String())
	}
	body := decodeBody(t, rr)
	if body["currency"] != "EUR" || body["displayName"] != "User One" {
		t.Fatalf("merged profile = %v", body)
	}
	prefs, _ := body["preferences"].(map[string]any)
	if prefs["theme"] != "dark" || prefs["notifications"] != true {
		t.Fatalf("preferences = %v", prefs)
	}

	// The settings write must not disturb the stored balance.
	env.doJSON(t, "PUT", "/api/balance", "tok-u1", `{"initialBalance":100}`)
	rr = env.doJSON(t, "PUT", "/api/profile", "tok-u1", `{"currency":"USD"}`)
	if got := decodeBody(t, rr)["initialBalance"]; got != float64(100) {
		t.Fatalf("initialBalance after settings write = %v, want 100", got)
	}

	rr = env.doJSON(t, "PUT", "/api/profile", "tok-u1", `{"currency":"euros"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("bad currency status = %d, want 400", rr.Code)
	}
	if _, ok := decodeBody(t, rr)["fieldErrors"].(map[string]any)["currency"]; !ok {
		t.Fatalf("expected fieldErrors.currency, got %s", rr.Body.String())
	}
}

func TestCreateRejectsOversizedBody(t *testing.T) {
	env := newTestEnv(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("receipt", "huge.bin")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(bytes.Repeat([]byte("x"), maxUploadBytes+1)); err != nil {
		t.Fatalf("write file: %v", err)
	}
	mw.Close()

	rr := env.do(t, "POST", "/api/transactions", "tok-u1", &buf, mw.FormDataContentType())
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("oversized body status = %d, want 400", rr.Code)
	}
	if env.receipts.Count() != 0 {
		t.Fatalf("oversized upload reached the blob store: %d writes", env.receipts.Count())
	}
}

func TestSummary(t *testing.T) {
	env := newTestEnv(t)
	salary := createCategory(t, env, "tok-u1", "Salary", "income")
	groceries := createCategory(t, env, "tok-u1", "Groceries", "expense")

	env.doJSON(t, "PUT", "/api/balance", "tok-u1", `{"initialBalance":100}`)
	env.doJSON(t, "POST", "/api/transactions", "tok-u1",
		fmt.Sprintf(`{"type":"income","categoryId":%q,"amount":1000,"date":"2024-03-01"}`, salary))
	env.doJSON(t, "POST", "/api/transactions", "tok-u1",
		fmt.Sprintf(`{"type":"expense","categoryId":%q,"amount":50,"date":"2024-03-02"}`, groceries))

	rr := env.doJSON(t, "GET", "/api/summary", "tok-u1", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("summary status = %d, body %s", rr.Code, rr.Body.String())
	}
	body := decodeBody(t, rr)
	checks := map[string]float64{
		"income":           1000,
		"expenses":         50,
		"balance":          950,
		"initialBalance":   100,
		"totalWithInitial": 1050,
	}
	for field, want := range checks {
		if body[field] != want {
			t.Errorf("%s = %v, want %v", field, body[field], want)
		}
	}
	byCategory, _ := body["byCategory"].(map[string]any)
	if byCategory["Groceries"] != float64(50) {
		t.Errorf("byCategory.Groceries = %v, want 50", byCategory["Groceries"])
	}

	// A write invalidates the cached aggregate.
	env.doJSON(t, "POST", "/api/transactions", "tok-u1",
		fmt.Sprintf(`{"type":"expense","categoryId":%q,"amount":25,"date":"2024-03-03"}`, groceries))
	rr = env.doJSON(t, "GET", "/api/summary", "tok-u1", "")
	if got := decodeBody(t, rr)["expenses"]; got != float64(75) {
		t.Fatalf("expenses after second write = %v, want 75", got)
	}
}

func TestSummaryScopedPerUser(t *testing.T) {
	env := newTestEnv(t)
	catID := createCategory(t, env, "tok-u1", "Groceries", "expense")
	env.doJSON(t, "POST", "/api/transactions", "tok-u1",
		fmt.Sprintf(`{"type":"expense","categoryId":%q,"amount":50,"date":"2024-03-01"}`, catID))

	rr := env.doJSON(t, "GET", "/api/summary", "tok-u2", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("summary status = %d", rr.Code)
	}
	if got := decodeBody(t, rr)["expenses"]; got != float64(0) {
		t.Fatalf("other user's expenses = %v, want 0", got)
	}
}

func TestHealthEndpoints(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, "GET", "/healthz", "", nil, "")
	if rr.Code != http.StatusOK || rr.Body.String() != "ok" {
		t.Fatalf("healthz = %d %q", rr.Code, rr.Body.String())
	}

	rr = env.do(t, "GET", "/readyz", "", nil, "")
	if rr.Code != http.StatusOK || rr.Body.String() != "ready" {
		t.Fatalf("readyz = %d %q", rr.Code, rr.Body.String())
	}
}

func TestSecurityHeadersApplied(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, "GET", "/healthz", "", nil, "")
	if got := rr.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Fatalf("X-Content-Type-Options = %q", got)
	}
	if got := rr.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Fatalf("X-Frame-Options = %q", got)
	}
}
