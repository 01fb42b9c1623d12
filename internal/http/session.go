package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/DiogoMatos10/myfinance/internal/core"
)

const sessionCookieName = "session"

type contextKey string

const userIDKey contextKey = "user_id"

// UserID returns the authenticated user for the request, empty when the
// request did not pass the session gate.
func UserID(ctx context.Context) string {
	if id, ok := ctx.Value(userIDKey).(string); ok {
		return id
	}
	return ""
}

// handleCreateSession verifies the supplied identity token and, on success,
// stores it in an httpOnly cookie. The token itself is the cookie value;
// every later request re-verifies it, so revocation at the provider takes
// effect immediately.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || strings.TrimSpace(body.Token) == "" {
		verr := core.NewValidationError()
		verr.Add("token", "token is required")
		writeError(w, r, verr)
		return
	}

	userID, err := s.verifier.Verify(r.Context(), body.Token)
	if err != nil {
		slog.WarnContext(r.Context(), "Session token rejected", "error", err)
		writeError(w, r, core.ErrUnauthorized)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    body.Token,
		Path:     "/",
		MaxAge:   int(s.sessionTTL / time.Second),
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})

	slog.InfoContext(r.Context(), "Session created", "user_id", userID)
	writeJSON(w, http.StatusOK, map[string]string{"userId": userID})
}

// handleDeleteSession clears the cookie unconditionally. No verification:
// tearing down a session must always succeed.
func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// withSession re-verifies the session cookie on every request and rejects
// userId parameters that do not belong to the session user. Handlers always
// read the user from the context, never from the request.
func (s *Server) withSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookieName)
		if err != nil || cookie.Value == "" {
			writeError(w, r, core.ErrUnauthorized)
			return
		}

		userID, err := s.verifier.Verify(r.Context(), cookie.Value)
		if err != nil {
			if !errors.Is(err, core.ErrUnauthorized) {
				slog.ErrorContext(r.Context(), "Session verification failed", "error", err)
			}
			writeError(w, r, core.ErrUnauthorized)
			return
		}

		// A userId query or form value naming another user is an attempt to
		// read someone else's ledger.
		if claimed := r.URL.Query().Get("userId"); claimed != "" && claimed != userID {
			slog.WarnContext(r.Context(), "userId mismatch rejected",
				"session_user", userID, "claimed_user", claimed)
			writeError(w, r, core.ErrUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next(w, r.WithContext(ctx))
	}
}
