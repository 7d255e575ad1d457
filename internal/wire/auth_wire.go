package wire

import (
	"net/http"

	"lab-booking/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wireAuth(r chi.Router, authHandler *adaptor.AuthHandler, authn func(http.Handler) http.Handler) {
	// public
	r.Post("/api/register", authHandler.Register)
	r.Post("/api/login", authHandler.Login)

	// protected
	r.With(authn).Post("/api/logout", authHandler.Logout)
}
