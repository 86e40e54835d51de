package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/hashicorp/go-hclog"
	"gorm.io/gorm"

	"github.com/docuforge/docuvault/pkg/models"
)

type contextKey string

const userContextKey contextKey = "docuvault.user"

// UserFromContext returns the authenticated user stored by the
// middleware, or nil for an unauthenticated request.
func UserFromContext(ctx context.Context) *models.User {
	u, _ := ctx.Value(userContextKey).(*models.User)
	return u
}

// WithUser returns a context carrying the given user. Exposed for
// tests and internal callers.
func WithUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, userContextKey, u)
}

// Middleware validates the request's session token and attaches the
// resolved user to the request context. Requests without a token pass
// through unauthenticated; share and QR resolution work that way, and
// handlers that need a user reject the nil themselves.
func Middleware(sessions *Sessions, db *gorm.DB, log hclog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		email, err := sessions.Validate(token)
		if err != nil {
			log.Warn("invalid session token", "path", r.URL.Path, "error", err)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		u := models.User{EmailAddress: email}
		if err := u.GetByEmail(db, email); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				log.Warn("session for unknown user", "email", email)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			log.Error("error resolving session user", "error", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), &u)))
	})
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if h == "" {
		return ""
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
