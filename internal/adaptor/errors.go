package adaptor

import (
	"errors"
	"net/http"

	"lab-booking/internal/authz"
	"lab-booking/internal/storage"
	"lab-booking/internal/usecase"
	"lab-booking/internal/workflow"
	"lab-booking/pkg/utils"

	"go.uber.org/zap"
)

// handleServiceError maps service errors onto the JSON envelope. Denials carry
// the reason and fallback so a client can route the user.
func handleServiceError(w http.ResponseWriter, log *zap.Logger, err error, operation string) {
	var (
		denial    *authz.DenialError
		rejection *workflow.RejectionError
	)

	switch {
	case errors.As(err, &denial):
		log.Warn(operation+" denied", zap.String("reason", string(denial.Reason)))
		data := map[string]string{"reason": string(denial.Reason), "fallback": denial.Fallback}
		code := http.StatusForbidden
		if denial.Reason == authz.ReasonUnauthenticated {
			code = http.StatusUnauthorized
		}
		utils.ResponseJSON(w, code, false, denial.Error(), data, nil)

	case errors.As(err, &rejection):
		log.Warn(operation+" rejected by workflow", zap.Error(err))
		utils.ResponseUnprocessable(w, rejection.Error(), map[string]string{
			"kind": string(rejection.Kind),
			"from": rejection.From,
			"to":   rejection.To,
		})

	case errors.Is(err, usecase.ErrConcurrencyConflict):
		log.Warn(operation+" failed - concurrent update", zap.Error(err))
		utils.ResponseConflict(w, usecase.ErrConcurrencyConflict.Error())

	case errors.Is(err, usecase.ErrNotFound):
		log.Warn(operation+" failed - not found", zap.Error(err))
		utils.ResponseNotFound(w, err.Error())

	case errors.Is(err, usecase.ErrValidation):
		log.Warn(operation+" validation failed", zap.Error(err))
		utils.ResponseBadRequest(w, err.Error(), nil)

	case errors.Is(err, usecase.ErrAlreadyExists):
		log.Warn(operation+" failed - already exists", zap.Error(err))
		utils.ResponseConflict(w, err.Error())

	case errors.Is(err, usecase.ErrInvalidCredentials), errors.Is(err, authz.ErrUnauthenticated):
		log.Warn(operation+" failed - unauthenticated", zap.Error(err))
		utils.ResponseUnauthorized(w, err.Error())

	case errors.Is(err, usecase.ErrAccountInactive):
		log.Warn(operation+" failed - account deactivated", zap.Error(err))
		utils.ResponseForbidden(w, err.Error())

	case errors.Is(err, storage.ErrUnsupportedType), errors.Is(err, storage.ErrEmptyFile):
		log.Warn(operation+" failed - bad upload", zap.Error(err))
		utils.ResponseJSON(w, http.StatusUnsupportedMediaType, false, err.Error(), nil, nil)

	case errors.Is(err, storage.ErrTooLarge):
		log.Warn(operation+" failed - upload too large", zap.Error(err))
		utils.ResponseJSON(w, http.StatusRequestEntityTooLarge, false, err.Error(), nil, nil)

	default:
		log.Error("Failed to "+operation, zap.Error(err), zap.String("operation", operation))
		utils.ResponseInternalError(w, "Internal server error")
	}
}
