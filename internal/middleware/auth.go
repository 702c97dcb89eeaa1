package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/horeca-backoffice/apps/api/internal/store"
)

type TokenVerifier interface {
	Verify(token string) (uuid.UUID, error)
}

type TenantResolver interface {
	CompanyIDForUser(ctx context.Context, userID uuid.UUID) (uuid.UUID, error)
}

type AuthMiddleware struct {
	Verifier TokenVerifier
	Tenants  TenantResolver
}

// RequireTenant accepts a bearer token and resolves the caller's company.
// A missing or invalid token is 401; a user without a company is 403.
func (m AuthMiddleware) RequireTenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r.Header.Get("Authorization"))
		if token == "" {
			writeError(w, r, http.StatusUnauthorized, "unauthorized", "Authorization required")
			return
		}

		userID, err := m.Verifier.Verify(token)
		if err != nil {
			writeError(w, r, http.StatusUnauthorized, "unauthorized", "Invalid token")
			return
		}

		companyID, err := m.Tenants.CompanyIDForUser(r.Context(), userID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				writeError(w, r, http.StatusForbidden, "no_tenant", "No company associated with this user")
				return
			}
			writeError(w, r, http.StatusInternalServerError, "internal_error", "Failed to resolve company")
			return
		}

		annotateCompany(r.Context(), companyID)
		ctx := WithPrincipal(r.Context(), Principal{UserID: userID, CompanyID: companyID})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
