package wire

import (
	"net/http"

	"lab-booking/internal/adaptor"
	"lab-booking/internal/authz"
	"lab-booking/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireBooking(r chi.Router, bookingHandler *adaptor.BookingHandler, authn func(http.Handler) http.Handler, log *zap.Logger) {
	// ==================== PATIENT ROUTES ====================
	r.Route("/api/bookings", func(r chi.Router) {
		r.Use(authn)

		r.With(middleware.Require(authz.CapabilityUser, log)).Post("/", bookingHandler.CreateBooking)
		r.With(middleware.Require(authz.CapabilityUser, log)).Get("/", bookingHandler.GetUserBookings)

		// owner or operator, resolved per booking
		r.Get("/{id}", bookingHandler.GetBooking)
		r.Get("/{id}/report", bookingHandler.DownloadReport)
	})

	// ==================== OPERATOR ROUTES ====================
	// admins, the staff family and lab-scoped local admins
	r.Route("/api/staff", func(r chi.Router) {
		r.Use(authn)
		r.Use(middleware.RequireAny(log, authz.CapabilityAdmin, authz.CapabilityStaff, authz.CapabilityLocalAdmin))

		r.Get("/labs/{labID}/bookings", bookingHandler.ListLabBookings)

		r.Patch("/bookings/{id}/status", bookingHandler.UpdateStatus)
		r.Post("/bookings/{id}/report", bookingHandler.UploadReport)
		r.Post("/bookings/{id}/results", bookingHandler.SubmitResults)
		r.Patch("/bookings/{id}/payment", bookingHandler.UpdatePayment)
	})
}
