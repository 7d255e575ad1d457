package adaptor

import (
	"encoding/json"
	"net/http"

	"lab-booking/internal/dto/request"
	"lab-booking/internal/usecase"
	"lab-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type LabHandler struct {
	service usecase.LabService
	log     *zap.Logger
}

func NewLabHandler(service usecase.LabService, log *zap.Logger) *LabHandler {
	return &LabHandler{
		service: service,
		log:     log.With(zap.String("handler", "lab")),
	}
}

// ListLabs handles GET /api/labs?page=1&per_page=10&name=... (public)
func (h *LabHandler) ListLabs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req := &request.LabFilterRequest{
		PaginatedRequest: request.PaginatedRequest{
			Page:    utils.ParseInt(query.Get("page"), 1),
			PerPage: utils.ParseInt(query.Get("per_page"), 10),
		},
	}
	if name := query.Get("name"); name != "" {
		req.Name = &name
	}

	labs, err := h.service.ListLabs(r.Context(), req)
	if err != nil {
		handleServiceError(w, h.log, err, "list labs")
		return
	}

	utils.ResponseSuccess(w, "success", labs)
}

// GetLab handles GET /api/labs/{labID} (public)
func (h *LabHandler) GetLab(w http.ResponseWriter, r *http.Request) {
	lab, err := h.service.GetLab(r.Context(), chi.URLParam(r, "labID"))
	if err != nil {
		handleServiceError(w, h.log, err, "get lab")
		return
	}

	utils.ResponseSuccess(w, "success", lab)
}

// CreateLab handles POST /api/admin/labs (admin only)
func (h *LabHandler) CreateLab(w http.ResponseWriter, r *http.Request) {
	var req request.CreateLabRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	lab, err := h.service.CreateLab(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "create lab")
		return
	}

	utils.ResponseCreated(w, "Lab created", lab)
}

// AddCatalogItem handles POST /api/labs/{labID}/catalog (admin or the lab's local admin)
func (h *LabHandler) AddCatalogItem(w http.ResponseWriter, r *http.Request) {
	var req request.CreateCatalogItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	item, err := h.service.AddCatalogItem(r.Context(), utils.GetPrincipal(r.Context()), chi.URLParam(r, "labID"), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "add catalog item")
		return
	}

	utils.ResponseCreated(w, "Catalog item added", item)
}
