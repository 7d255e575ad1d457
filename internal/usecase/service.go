package usecase

import (
	"lab-booking/internal/data/repository"
	"lab-booking/pkg/utils"

	"go.uber.org/zap"
)

type Service struct {
	Auth    AuthService
	User    UserService
	Lab     LabService
	Booking BookingService
}

func NewService(repo *repository.Repository, config *utils.Config, store ArtifactStore, notifier Notifier, log *zap.Logger) *Service {
	return &Service{
		Auth:    NewAuthService(repo, config, log),
		User:    NewUserService(repo, log),
		Lab:     NewLabService(repo, log),
		Booking: NewBookingService(repo, store, notifier, config.Workflow, log),
	}
}
