package wire

import (
	"net/http"

	"lab-booking/internal/adaptor"
	"lab-booking/internal/authz"
	"lab-booking/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// wireUser configures profile and user management routes
func wireUser(r chi.Router, userHandler *adaptor.UserHandler, authn func(http.Handler) http.Handler, log *zap.Logger) {
	r.With(authn).Get("/api/profile", userHandler.GetProfile)

	// ==================== ADMIN ROUTES ====================
	r.With(
		authn,
		middleware.Require(authz.CapabilityAdmin, log),
	).Route("/api/admin/users", func(r chi.Router) {
		r.Get("/", userHandler.GetAllUsers)         // GET /api/admin/users?page=1&per_page=10
		r.Put("/{id}/role", userHandler.AssignRole) // PUT /api/admin/users/{id}/role
		r.Delete("/{id}", userHandler.DeleteUser)   // DELETE /api/admin/users/{id}
	})
}
