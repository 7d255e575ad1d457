package adaptor

import (
	"lab-booking/internal/usecase"

	"go.uber.org/zap"
)

type Handler struct {
	Auth    *AuthHandler
	User    *UserHandler
	Lab     *LabHandler
	Booking *BookingHandler
}

func NewHandler(service *usecase.Service, maxUploadBytes int64, log *zap.Logger) *Handler {
	return &Handler{
		Auth:    NewAuthHandler(service.Auth, log),
		User:    NewUserHandler(service.User, log),
		Lab:     NewLabHandler(service.Lab, log),
		Booking: NewBookingHandler(service.Booking, maxUploadBytes, log),
	}
}
