package adaptor

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"lab-booking/internal/dto/request"
	"lab-booking/internal/usecase"
	"lab-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// multipart overhead allowed on top of the report itself
const formOverhead = 1 << 20

type BookingHandler struct {
	service        usecase.BookingService
	maxUploadBytes int64
	log            *zap.Logger
}

func NewBookingHandler(service usecase.BookingService, maxUploadBytes int64, log *zap.Logger) *BookingHandler {
	return &BookingHandler{
		service:        service,
		maxUploadBytes: maxUploadBytes,
		log:            log.With(zap.String("handler", "booking")),
	}
}

// CreateBooking handles POST /api/bookings (user)
func (h *BookingHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req request.CreateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	booking, err := h.service.CreateBooking(r.Context(), utils.GetPrincipal(r.Context()), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "create booking")
		return
	}

	utils.ResponseCreated(w, "Booking created", booking)
}

// GetUserBookings handles GET /api/bookings?page=1&per_page=10 (user)
func (h *BookingHandler) GetUserBookings(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req := &request.PaginatedRequest{
		Page:    utils.ParseInt(query.Get("page"), 1),
		PerPage: min(utils.ParseInt(query.Get("per_page"), 10), 100),
	}

	bookings, err := h.service.GetUserBookings(r.Context(), utils.GetPrincipal(r.Context()), req)
	if err != nil {
		handleServiceError(w, h.log, err, "get user bookings")
		return
	}

	utils.ResponseSuccess(w, "success", bookings)
}

// GetBooking handles GET /api/bookings/{id} (owner or operator)
func (h *BookingHandler) GetBooking(w http.ResponseWriter, r *http.Request) {
	booking, err := h.service.GetBooking(r.Context(), utils.GetPrincipal(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.log, err, "get booking")
		return
	}

	utils.ResponseSuccess(w, "success", booking)
}

// DownloadReport handles GET /api/bookings/{id}/report
func (h *BookingHandler) DownloadReport(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "id")

	rc, contentType, err := h.service.OpenReport(r.Context(), utils.GetPrincipal(r.Context()), bookingID)
	if err != nil {
		handleServiceError(w, h.log, err, "download report")
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "report-"+bookingID))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		h.log.Warn("Report download interrupted", zap.Error(err), zap.String("booking_id", bookingID))
	}
}

// ListLabBookings handles GET /api/staff/labs/{labID}/bookings?status=...
func (h *BookingHandler) ListLabBookings(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req := &request.LabBookingsRequest{
		PaginatedRequest: request.PaginatedRequest{
			Page:    utils.ParseInt(query.Get("page"), 1),
			PerPage: min(utils.ParseInt(query.Get("per_page"), 10), 100),
		},
	}
	if status := query.Get("status"); status != "" {
		req.Status = &status
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	bookings, err := h.service.ListLabBookings(r.Context(), utils.GetPrincipal(r.Context()), chi.URLParam(r, "labID"), req)
	if err != nil {
		handleServiceError(w, h.log, err, "list lab bookings")
		return
	}

	utils.ResponseSuccess(w, "success", bookings)
}

// UpdateStatus handles PATCH /api/staff/bookings/{id}/status
func (h *BookingHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req request.UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	booking, err := h.service.UpdateStatus(r.Context(), utils.GetPrincipal(r.Context()), chi.URLParam(r, "id"), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "update booking status")
		return
	}

	utils.ResponseSuccess(w, "Booking status updated", booking)
}

// UploadReport handles POST /api/staff/bookings/{id}/report (multipart, field "report")
func (h *BookingHandler) UploadReport(w http.ResponseWriter, r *http.Request) {
	if h.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+formOverhead)
	}

	if err := r.ParseMultipartForm(formOverhead); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			utils.ResponseJSON(w, http.StatusRequestEntityTooLarge, false, "Report file too large", nil, nil)
			return
		}
		utils.ResponseBadRequest(w, "Invalid multipart form", nil)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("report")
	if err != nil {
		utils.ResponseBadRequest(w, "Report file is required", map[string]string{"report": "This field is required"})
		return
	}
	defer file.Close()

	booking, err := h.service.UploadReport(r.Context(), utils.GetPrincipal(r.Context()), chi.URLParam(r, "id"), header.Filename, file)
	if err != nil {
		handleServiceError(w, h.log, err, "upload report")
		return
	}

	utils.ResponseSuccess(w, "Report uploaded", booking)
}

// SubmitResults handles POST /api/staff/bookings/{id}/results
func (h *BookingHandler) SubmitResults(w http.ResponseWriter, r *http.Request) {
	var req request.SubmitResultsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	booking, err := h.service.SubmitResults(r.Context(), utils.GetPrincipal(r.Context()), chi.URLParam(r, "id"), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "submit results")
		return
	}

	utils.ResponseSuccess(w, "Results submitted", booking)
}

// UpdatePayment handles PATCH /api/staff/bookings/{id}/payment
func (h *BookingHandler) UpdatePayment(w http.ResponseWriter, r *http.Request) {
	var req request.UpdatePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	booking, err := h.service.UpdatePayment(r.Context(), utils.GetPrincipal(r.Context()), chi.URLParam(r, "id"), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "update payment")
		return
	}

	utils.ResponseSuccess(w, "Payment updated", booking)
}
