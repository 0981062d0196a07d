// Package auth resolves bearer session tokens to user ids.
package auth

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"walletfolio/internal/errs"
)

// SessionProvider resolves a session token to the owning user id.
type SessionProvider interface {
	UserIDFromToken(ctx context.Context, token string) (string, error)
}

// SessionRepository is the sqlite-backed SessionProvider.
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// UserIDFromToken looks up a non-expired session. An unknown or expired
// token is an authentication failure, not a database error.
func (r *SessionRepository) UserIDFromToken(ctx context.Context, token string) (string, error) {
	var userID string
	err := r.db.QueryRowContext(ctx,
		"SELECT user_id FROM sessions WHERE token = ? AND expires_at > ?",
		token, time.Now().Unix(),
	).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", &errs.Unauthenticated{}
	}
	if err != nil {
		return "", &errs.Database{Operation: "session lookup", Cause: err}
	}
	return userID, nil
}

// Insert stores a session token. Used by tests and provisioning tooling;
// login flows live outside this service.
func (r *SessionRepository) Insert(ctx context.Context, token, userID string, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO sessions (token, user_id, expires_at) VALUES (?, ?, ?)",
		token, userID, expiresAt.Unix(),
	)
	if err != nil {
		return &errs.Database{Operation: "session insert", Cause: err}
	}
	return nil
}

type contextKey string

const userIDKey contextKey = "auth.userID"

// WithUserID returns a context carrying the authenticated user id.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserID reads the authenticated user id from the context. An empty id
// means the request never passed the auth middleware.
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

// Middleware extracts the bearer token, resolves it through the provider
// and stores the user id in the request context. Requests without a valid
// session are rejected with 401 before reaching the handler.
func Middleware(sessions SessionProvider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				writeAuthError(w)
				return
			}

			userID, err := sessions.UserIDFromToken(r.Context(), token)
			if err != nil {
				writeAuthError(w)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, prefix))
}

func writeAuthError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"tag":"UnauthenticatedError","message":"Not authenticated"}`))
}
