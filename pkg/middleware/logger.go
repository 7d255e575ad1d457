package middleware

import (
	"context"
	"net/http"
	"time"

	"lab-booking/internal/authz"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Logger writes one line per request: 5xx at error level, 4xx at warn. The
// principal is read after the handler ran, once AuthSession set it.
func Logger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			// AuthSession replaces the request, so keep a handle on the context it fills
			holder := &principalHolder{}
			next.ServeHTTP(ww, r.WithContext(withPrincipalHolder(r.Context(), holder)))

			fields := []zap.Field{
				zap.String("request_id", chimw.GetReqID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("query", r.URL.RawQuery),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.String("user_agent", r.UserAgent()),
			}
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				fields = append(fields, zap.String("route", rctx.RoutePattern()))
			}
			if p := holder.principal; p != nil {
				fields = append(fields, zap.String("user_id", p.ID.String()), zap.String("role", string(p.Role)))
			}

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			fields = append(fields, zap.Int("status", status))

			switch {
			case status >= http.StatusInternalServerError:
				logger.Error("HTTP request", fields...)
			case status >= http.StatusBadRequest:
				logger.Warn("HTTP request", fields...)
			default:
				logger.Info("HTTP request", fields...)
			}
		})
	}
}

type principalHolder struct {
	principal *authz.Principal
}

type holderKey struct{}

func withPrincipalHolder(ctx context.Context, h *principalHolder) context.Context {
	return context.WithValue(ctx, holderKey{}, h)
}

// recordPrincipal lets the request logger see who made the call.
func recordPrincipal(ctx context.Context, p *authz.Principal) {
	if h, ok := ctx.Value(holderKey{}).(*principalHolder); ok {
		h.principal = p
	}
}
