package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

type contextKey string

// userIDKey carries the authenticated user's UUID through the request context.
const userIDKey contextKey = "user_id"

// RequireUserID extracts the owning-user identifier from the X-User-ID
// header and stores it in the request context. Authentication itself is the
// reverse proxy / auth layer's job; this middleware only enforces that an
// identity was supplied and is a well-formed UUID.
//
// Requests without a valid header are rejected with 401 before reaching any
// handler.
func RequireUserID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(r.Header.Get("X-User-ID"))
		if err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":{"code":"unauthorized","message":"missing or invalid X-User-ID header"}}`))
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userIDKey, id)))
	})
}

// UserIDFrom returns the user ID stored by RequireUserID.
// ok is false when the middleware did not run for this request.
func UserIDFrom(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(userIDKey).(uuid.UUID)
	return id, ok
}
