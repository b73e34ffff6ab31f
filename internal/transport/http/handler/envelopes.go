package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-otp-auth/internal/domain"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message    string `json:"message,omitempty"`
	Error      string `json:"error,omitempty"`
	RetryAfter int    `json:"retry_after,omitempty"` // seconds, on 429 responses
}

// AuthEnvelope wraps verify-otp/signin responses.
type AuthEnvelope struct {
	Bearer       string       `json:"bearer,omitempty"`
	RefreshToken string       `json:"refresh_token,omitempty"`
	Session      *SafeSession `json:"session,omitempty"`
	Message      string       `json:"message,omitempty"`
	Error        string       `json:"error,omitempty"`
}

// SafeAccount is the outward account shape. Password hashes and lockout
// counters never leave the service.
type SafeAccount struct {
	ID      string               `json:"id"`
	Email   string               `json:"email"`
	Status  domain.AccountStatus `json:"status"`
	Created time.Time            `json:"created"`
}

// SafeSession is the outward session shape.
type SafeSession struct {
	ID      string       `json:"id"`
	Created time.Time    `json:"created"`
	Account *SafeAccount `json:"account,omitempty"`
}

func toSafeAccount(a *domain.Account) *SafeAccount {
	if a == nil {
		return nil
	}
	return &SafeAccount{ID: a.AccountID, Email: a.Email, Status: a.Status, Created: a.CreatedAt}
}

func toSafeSession(s *domain.Session) *SafeSession {
	if s == nil {
		return nil
	}
	return &SafeSession{ID: s.SessionID, Created: s.CreatedAt, Account: toSafeAccount(s.Account)}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}

// writeServiceError maps domain errors to HTTP statuses. Unknown errors are
// reported as a plain 500 without echoing internals.
func writeServiceError(w http.ResponseWriter, err error) {
	var rl *domain.RateLimitError
	switch {
	case errors.As(err, &rl):
		writeJSON(w, http.StatusTooManyRequests, MessageEnvelope{
			Error:      rl.Error(),
			RetryAfter: int(rl.RetryAfter.Round(time.Second).Seconds()),
		})
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrBadRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
