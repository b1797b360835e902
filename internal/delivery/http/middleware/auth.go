package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"confcentral/internal/adapters/auth"
	"confcentral/internal/delivery/http/helpers"
	"confcentral/internal/domain"
	"confcentral/internal/services"
)

type contextKey string

const profileKey contextKey = "profile"

// SetProfile returns a context carrying the acting profile. Used by the
// auth middleware.
func SetProfile(ctx context.Context, p *domain.Profile) context.Context {
	return context.WithValue(ctx, profileKey, p)
}

// ProfileFromContext returns the acting profile from the context, if
// present.
func ProfileFromContext(ctx context.Context) (*domain.Profile, bool) {
	p, ok := ctx.Value(profileKey).(*domain.Profile)
	return p, ok
}

// RequireProfile returns a wrapper that validates the Bearer token,
// resolves (lazily creating) the caller's profile, and stores it in the
// request context. If the token is missing or invalid, it responds with
// 401 and does not call next.
func RequireProfile(verifier *auth.JWT, profiles *services.ProfileService, logger *slog.Logger) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "missing authorization header")
				return
			}
			const prefix = "Bearer "
			if !strings.HasPrefix(header, prefix) {
				helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "invalid authorization format")
				return
			}
			token := strings.TrimSpace(header[len(prefix):])
			if token == "" {
				helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "missing token")
				return
			}
			id, err := verifier.Verify(token)
			if err != nil {
				helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "invalid or expired token")
				return
			}
			prof, err := profiles.GetOrCreateProfile(r.Context(), id.Email, id.Name)
			if err != nil {
				logger.ErrorContext(r.Context(), "profile resolution failed", "err", err)
				helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, "could not resolve profile")
				return
			}
			next(w, r.WithContext(SetProfile(r.Context(), prof)))
		}
	}
}
