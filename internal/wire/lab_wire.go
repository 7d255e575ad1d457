package wire

import (
	"net/http"

	"lab-booking/internal/adaptor"
	"lab-booking/internal/authz"
	"lab-booking/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireLab(r chi.Router, labHandler *adaptor.LabHandler, authn func(http.Handler) http.Handler, log *zap.Logger) {
	// ==================== PUBLIC ROUTES ====================
	r.Get("/api/labs", labHandler.ListLabs)
	r.Get("/api/labs/{labID}", labHandler.GetLab)

	// ==================== PROTECTED ROUTES ====================
	// lab scope is checked by the service once the lab is known
	r.With(
		authn,
		middleware.RequireAny(log, authz.CapabilityAdmin, authz.CapabilityLocalAdmin),
	).Post("/api/labs/{labID}/catalog", labHandler.AddCatalogItem)

	r.With(
		authn,
		middleware.Require(authz.CapabilityAdmin, log),
	).Post("/api/admin/labs", labHandler.CreateLab)
}
