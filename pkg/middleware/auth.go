package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"lab-booking/internal/authz"
	"lab-booking/pkg/utils"

	"go.uber.org/zap"
)

// Authenticator turns a bearer token into a principal plus the session token
// it is bound to. Token failures wrap authz.ErrUnauthenticated; anything else
// is treated as an internal error.
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*authz.Principal, string, error)
}

// AuthSession validates the bearer token and stores the principal and the
// session token in the request context.
func AuthSession(auth Authenticator, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				respondDenied(w, authz.Decision{Reason: authz.ReasonUnauthenticated, Fallback: authz.FallbackLogin}, "Missing authorization token")
				return
			}

			scheme, token, ok := strings.Cut(authHeader, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
				respondDenied(w, authz.Decision{Reason: authz.ReasonUnauthenticated, Fallback: authz.FallbackLogin}, "Invalid token format. Use: Bearer <token>")
				return
			}

			principal, session, err := auth.Authenticate(r.Context(), strings.TrimSpace(token))
			if err != nil {
				if errors.Is(err, authz.ErrUnauthenticated) {
					logger.Warn("Invalid or expired session",
						zap.String("path", r.URL.Path),
						zap.Error(err))
					respondDenied(w, authz.Decision{Reason: authz.ReasonUnauthenticated, Fallback: authz.FallbackLogin}, "Invalid or expired session")
					return
				}
				logger.Error("Failed to validate session", zap.Error(err))
				utils.ResponseInternalError(w, "Internal server error")
				return
			}

			recordPrincipal(r.Context(), principal)
			ctx := utils.SetPrincipal(r.Context(), principal)
			ctx = utils.SetTokenContext(ctx, session)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Require gates a route on a capability. Resource scoping happens later in
// the services, where the booking or lab is known.
func Require(capability authz.Capability, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := utils.GetPrincipal(r.Context())

			decision := authz.Authorize(principal, capability, authz.Resource{})
			if !decision.Granted {
				fields := []zap.Field{
					zap.String("capability", string(capability)),
					zap.String("reason", string(decision.Reason)),
					zap.String("path", r.URL.Path),
				}
				if principal != nil {
					fields = append(fields, zap.String("user_id", principal.ID.String()), zap.String("role", string(principal.Role)))
				}
				logger.Warn("Access denied", fields...)
				respondDenied(w, decision, "")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAny passes when any of the capabilities is granted. Used for routes
// shared by several roles, e.g. operators of every kind.
func RequireAny(logger *zap.Logger, capabilities ...authz.Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := utils.GetPrincipal(r.Context())

			var last authz.Decision
			for _, c := range capabilities {
				last = authz.Authorize(principal, c, authz.Resource{})
				if last.Granted {
					next.ServeHTTP(w, r)
					return
				}
			}

			logger.Warn("Access denied",
				zap.String("reason", string(last.Reason)),
				zap.String("path", r.URL.Path))
			respondDenied(w, last, "")
		})
	}
}

func respondDenied(w http.ResponseWriter, d authz.Decision, message string) {
	data := map[string]string{"reason": string(d.Reason), "fallback": d.Fallback}

	if d.Reason == authz.ReasonUnauthenticated {
		if message == "" {
			message = "Authentication required"
		}
		utils.ResponseJSON(w, http.StatusUnauthorized, false, message, data, nil)
		return
	}

	if message == "" {
		message = "You do not have access to this resource"
	}
	utils.ResponseJSON(w, http.StatusForbidden, false, message, data, nil)
}
