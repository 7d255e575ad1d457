package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lab-booking/cmd"
	"lab-booking/internal/data/repository"
	"lab-booking/internal/notify"
	"lab-booking/internal/storage"
	"lab-booking/internal/wire"
	"lab-booking/pkg/database"
	"lab-booking/pkg/utils"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

func main() {
	flags := utils.NewFlagSet("lab-booking")
	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		log.Fatalf("Failed to parse flags: %v", err)
	}

	config, err := utils.LoadConfig(flags)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := utils.InitLogger(config.App)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using standard log.", err)
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("app", config.App.Name),
		zap.String("port", config.App.Port),
		zap.Bool("debug", config.App.Debug),
	)

	if err := database.Migrate(config.Database); err != nil {
		logger.Fatal("Failed to apply migrations", zap.Error(err))
	}
	if migrateOnly, _ := flags.GetBool("migrate-only"); migrateOnly {
		logger.Info("Migrations applied")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.InitDB(ctx, config.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	logger.Info("Database connected successfully")

	repos := repository.NewRepository(db, logger)

	store, err := storage.NewDiskStore(config.Storage.ReportDir, config.Storage.MaxUploadBytes, logger)
	if err != nil {
		logger.Fatal("Failed to prepare report storage", zap.Error(err))
	}
	notifier := notify.NewLogNotifier(repos.User, logger)

	app := wire.Wiring(repos, config, store, notifier, logger)

	go cmd.SessionJanitor(ctx, app.Service.Auth, time.Hour, logger)

	if err := cmd.APIServer(ctx, app.Router, config.App.Port, logger); err != nil {
		logger.Error("Server stopped with error", zap.Error(err))
	}

	drainCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := app.Service.Booking.Drain(drainCtx); err != nil {
		logger.Warn("Pending notifications dropped", zap.Error(err))
	}
}
