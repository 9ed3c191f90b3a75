package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"

	"github.com/Sundram11/backend01/config"
	"github.com/Sundram11/backend01/db"
	"github.com/Sundram11/backend01/internal/auth/handler"
	repo "github.com/Sundram11/backend01/internal/auth/repository/postgres"
	"github.com/Sundram11/backend01/internal/auth/service"
	"github.com/Sundram11/backend01/internal/auth/uploader"
	"github.com/Sundram11/backend01/internal/logging"
)

func main() {
	ctx := context.Background()
	log := logging.NewJSONLogger()
	cfg := config.Load()

	if err := db.RunMigrations(ctx, cfg.DBURL); err != nil {
		log.Error(ctx, "migrations failed", "error", err)
		os.Exit(1)
	}

	dbPool, err := db.NewPostgresPool(ctx, cfg.DBURL)
	if err != nil {
		log.Error(ctx, "db init failed", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()

	mediaUploader, err := uploader.NewS3Uploader(ctx, cfg, log)
	if err != nil {
		log.Error(ctx, "uploader init failed", "error", err)
		os.Exit(1)
	}

	userRepo := repo.NewPostgresUserRepository(dbPool)
	tokenService := service.NewTokenService(cfg.AccessTokenSecret, cfg.RefreshTokenSecret,
		cfg.AccessExpiry(), cfg.RefreshExpiry())
	userService := service.NewUserService(userRepo, tokenService, mediaUploader, cfg, log)
	authHandler := handler.NewAuthHandler(userService, tokenService, log)

	app := fiber.New()
	handler.RegisterRoutes(app, authHandler)

	go func() {
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
		<-sigs
		log.Info(ctx, "shutting down")
		_ = app.Shutdown()
	}()

	log.Info(ctx, "starting server", "port", cfg.Port, "env", cfg.Env)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Error(ctx, "server stopped", "error", err)
		os.Exit(1)
	}
}
