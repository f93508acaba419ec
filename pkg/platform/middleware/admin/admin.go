package admin

import (
	"log/slog"
	"net/http"
	"strings"

	"driverdesk/pkg/platform/httputil"
	"driverdesk/pkg/requestcontext"

	dErrors "driverdesk/pkg/domain-errors"
)

// HeaderAdminID names the acting administrator. It attributes writes; it is
// not an authentication credential.
const HeaderAdminID = "X-Admin-ID"

// Identify copies X-Admin-ID into the request context when present.
func Identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := strings.TrimSpace(r.Header.Get(HeaderAdminID)); id != "" {
			r = r.WithContext(requestcontext.WithAdminID(r.Context(), id))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireActor rejects requests that do not name an administrator. Mount it
// on routes whose writes must be attributable.
func RequireActor(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if requestcontext.AdminID(ctx) == "" {
				logger.WarnContext(ctx, "write without acting admin",
					"path", r.URL.Path,
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "X-Admin-ID header required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
