package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"trainerbook/backend/internal/domain"
)

// Identity arrives from the upstream auth gateway as trusted headers.
// Session handling and role resolution happen there, not here.
const (
	UserIDHeader   = "X-User-Id"
	UserRoleHeader = "X-User-Role"
)

type ctxKey int

const ctxKeyRequester ctxKey = iota

func RequesterFromContext(ctx context.Context) (domain.Requester, bool) {
	req, ok := ctx.Value(ctxKeyRequester).(domain.Requester)
	return req, ok
}

func RequireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(strings.TrimSpace(r.Header.Get(UserIDHeader)))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		role, ok := domain.ParseRole(strings.TrimSpace(r.Header.Get(UserRoleHeader)))
		if !ok {
			writeError(w, http.StatusUnauthorized, "Authentication required")
			return
		}

		ctx := context.WithValue(r.Context(), ctxKeyRequester, domain.Requester{ID: id, Role: role})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
