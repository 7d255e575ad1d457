package wire

import (
	"net/http"

	"lab-booking/internal/adaptor"
	"lab-booking/internal/data/repository"
	"lab-booking/internal/usecase"
	"lab-booking/pkg/middleware"
	"lab-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// App holds the wired router.
type App struct {
	Router  *chi.Mux
	Service *usecase.Service
}

// Wiring builds services, handlers and routes.
func Wiring(
	repo *repository.Repository,
	config *utils.Config,
	store usecase.ArtifactStore,
	notifier usecase.Notifier,
	logger *zap.Logger,
) *App {
	service := usecase.NewService(repo, config, store, notifier, logger)
	handler := adaptor.NewHandler(service, config.Storage.MaxUploadBytes, logger)

	return &App{
		Router:  NewRouter(handler, service.Auth, config, logger),
		Service: service,
	}
}

// NewRouter mounts every route group on a chi router. auth resolves bearer
// tokens for the protected groups.
func NewRouter(
	handler *adaptor.Handler,
	auth middleware.Authenticator,
	config *utils.Config,
	logger *zap.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recover(logger))
	r.Use(middleware.CORS(middleware.CORSOptions{AllowedOrigins: config.App.AllowedOrigins}))

	authn := middleware.AuthSession(auth, logger)

	wireAuth(r, handler.Auth, authn)
	wireUser(r, handler.User, authn, logger)
	wireLab(r, handler.Lab, authn, logger)
	wireBooking(r, handler.Booking, authn, logger)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return r
}
