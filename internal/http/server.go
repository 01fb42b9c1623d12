// Package http exposes the ledger as a JSON API behind a cookie session
// gate.
package http

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/DiogoMatos10/myfinance/internal/cache"
	"github.com/DiogoMatos10/myfinance/internal/core"
	"github.com/DiogoMatos10/myfinance/internal/identity"
	"github.com/DiogoMatos10/myfinance/internal/middleware/ratelimit"
	"github.com/DiogoMatos10/myfinance/internal/middleware/security"
	"github.com/DiogoMatos10/myfinance/internal/middleware/trace"
	"github.com/DiogoMatos10/myfinance/internal/services"
)

// Deps bundles everything the server needs. All fields except ReceiptsDir
// are required.
type Deps struct {
	Transactions *services.TransactionService
	Categories   *services.CategoryRegistry
	Balance      *services.BalanceService
	Profile      *services.ProfileService
	Verifier     identity.Verifier

	SessionTTL    time.Duration
	SecureCookies bool

	// ReceiptsDir, when set, is served read-only under /receipts/.
	ReceiptsDir string
}

type Server struct {
	http.Server

	transactions *services.TransactionService
	categories   *services.CategoryRegistry
	balance      *services.BalanceService
	profile      *services.ProfileService
	verifier     identity.Verifier

	sessionTTL    time.Duration
	secureCookies bool

	summaryCache *cache.LRUCache[core.Summary]
	cacheManager *cache.Manager
	rateLimiter  *ratelimit.Limiter

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(addr string, deps Deps) *Server {
	mux := http.NewServeMux()

	s := &Server{
		transactions:  deps.Transactions,
		categories:    deps.Categories,
		balance:       deps.Balance,
		profile:       deps.Profile,
		verifier:      deps.Verifier,
		sessionTTL:    deps.SessionTTL,
		secureCookies: deps.SecureCookies,
		summaryCache:  cache.NewLRUCache[core.Summary](500, 5*time.Minute),
		cacheManager:  cache.NewManager(),
		rateLimiter:   ratelimit.NewLimiter(ratelimit.DefaultConfig()),
	}
	if s.sessionTTL <= 0 {
		s.sessionTTL = 7 * 24 * time.Hour
	}

	s.cacheManager.Register(s.summaryCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("POST /api/session", s.limitWrites(s.handleCreateSession))
	mux.HandleFunc("DELETE /api/session", s.handleDeleteSession)

	mux.HandleFunc("GET /api/transactions", s.withSession(s.handleListTransactions))
	mux.HandleFunc("POST /api/transactions", s.limitWrites(s.withSession(s.handleCreateTransaction)))
	mux.HandleFunc("DELETE /api/transactions/{id}", s.limitWrites(s.withSession(s.handleDeleteTransaction)))

	mux.HandleFunc("GET /api/categories", s.withSession(s.handleListCategories))
	mux.HandleFunc("POST /api/categories", s.limitWrites(s.withSession(s.handleCreateCategory)))

	mux.HandleFunc("GET /api/balance", s.withSession(s.handleGetBalance))
	mux.HandleFunc("PUT /api/balance", s.limitWrites(s.withSession(s.handleSetBalance)))

	mux.HandleFunc("GET /api/profile", s.withSession(s.handleGetProfile))
	mux.HandleFunc("PUT /api/profile", s.limitWrites(s.withSession(s.handleUpdateProfile)))

	mux.HandleFunc("GET /api/summary", s.withSession(s.handleSummary))

	// Receipt files for the local blob store. Session-gated, and each user
	// can only reach their own subtree.
	if deps.ReceiptsDir != "" {
		files := http.StripPrefix("/receipts/", http.FileServer(http.Dir(deps.ReceiptsDir)))
		mux.Handle("GET /receipts/", s.withSession(func(w http.ResponseWriter, r *http.Request) {
			if !strings.HasPrefix(r.URL.Path, "/receipts/users/"+UserID(r.Context())+"/") {
				writeError(w, r, core.ErrNotFound)
				return
			}
			w.Header().Set("Cache-Control", "private, max-age=3600")
			files.ServeHTTP(w, r)
		}))
	}

	resolver := security.NewClientIPResolver()
	traceMw := trace.NewMiddleware(resolver.ExtractClientIP)
	headersMw := security.NewHeadersMiddleware(security.DefaultHeadersConfig())

	s.Server = http.Server{
		Addr:              addr,
		Handler:           headersMw.Middleware(traceMw.Middleware(mux)),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// limitWrites applies the per-client rate limit to a mutating endpoint.
func (s *Server) limitWrites(next http.HandlerFunc) http.HandlerFunc {
	resolver := security.NewClientIPResolver()
	limited := s.rateLimiter.Middleware(resolver.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "60")
		writeJSON(w, http.StatusTooManyRequests, errorBody{Message: "Too many requests"})
	})(next)
	return limited.ServeHTTP
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReady probes the ledger store with a throwaway read.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if _, err := s.transactions.List(ctx, "readyz-probe"); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
