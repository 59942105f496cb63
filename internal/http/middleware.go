package http

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/example/attendance-tracker/internal/auth"
)

// gateExemptPrefixes lists paths reachable without a session so the
// login flow itself and static assets never loop through the gate.
var gateExemptPrefixes = []string{
	"/auth",
	"/assets",
	"/static",
	"/favicon.ico",
	"/docs",
	"/openapi.json",
}

// SessionGate blocks unauthenticated requests once authentication is
// switched on. API paths receive a 401 JSON body; browser paths are
// redirected to the login page with the original path preserved.
func SessionGate(settings *auth.Settings, codec *auth.SessionCodec, logger *slog.Logger) func(http.Handler) http.Handler {
	responder := newResponder(logger)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if settings == nil || !settings.AuthEnabled() {
				next.ServeHTTP(w, r)
				return
			}

			if gateExempt(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			session, ok := codec.ReadSession(r)
			if !ok {
				if isAPIPath(r.URL.Path) {
					responder.writeJSON(r.Context(), w, http.StatusUnauthorized, errorResponse{
						ErrorCode: "AUTH_REQUIRED",
						Message:   "認証が必要です。再度ログインしてください。",
					})
					return
				}
				target := "/auth/login?next=" + url.QueryEscape(r.URL.RequestURI()) + "&reason=reauth"
				http.Redirect(w, r, target, http.StatusTemporaryRedirect)
				return
			}

			ctx := ContextWithSession(r.Context(), session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func gateExempt(path string) bool {
	for _, prefix := range gateExemptPrefixes {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}

func isAPIPath(path string) bool {
	return path == "/api" || strings.HasPrefix(path, "/api/")
}

func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	if base == nil {
		base = slog.Default()
	}
	var counter atomic.Uint64

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := counter.Add(1)
			logger := base.With(
				"request_id", id,
				"method", r.Method,
				"path", r.URL.Path,
			)

			ctx := ContextWithLogger(r.Context(), logger)
			start := time.Now()
			logger.InfoContext(ctx, "request started")
			next.ServeHTTP(w, r.WithContext(ctx))
			logger.InfoContext(ctx, "request completed", "duration", time.Since(start))
		})
	}
}
