// Package main is the entry point for the API server.
// It initializes all dependencies, sets up the HTTP server,
// and starts the application.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"insurecow/internal/config"
	"insurecow/internal/repositories"
	"insurecow/internal/routes"
	"insurecow/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// main initializes and starts the HTTP server.
// It performs the following setup:
// - Loads configuration
// - Connects to postgres and redis and migrates the schema
// - Seeds the well-known roles
// - Configures middleware and routes
// - Serves until interrupted
func main() {
	cfg := config.Load()
	configureLogging(cfg)

	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET must be set")
	}

	db, err := repositories.InitDB(cfg)
	if err != nil {
		log.WithError(err).Fatal("database initialisation failed")
	}
	defer repositories.Close(db)

	ctx := context.Background()
	cacheSvc := repositories.InitCache(ctx, cfg)
	defer func() {
		if err := cacheSvc.Close(); err != nil {
			log.WithError(err).Warn("failed to close redis connection")
		}
	}()

	if err := repositories.New(db, cacheSvc).SeedRoles(ctx); err != nil {
		log.WithError(err).Fatal("failed to seed roles")
	}

	// Periodic connection pool stats
	go func() {
		sqlDB, err := db.DB()
		if err != nil {
			return
		}
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			stats := sqlDB.Stats()
			log.WithFields(log.Fields{
				"open":          stats.OpenConnections,
				"idle":          stats.Idle,
				"in_use":        stats.InUse,
				"wait_count":    stats.WaitCount,
				"wait_duration": stats.WaitDuration.String(),
			}).Debug("db pool stats")
		}
	}()

	app := fiber.New(fiber.Config{
		ErrorHandler: utils.ErrorHandler,
		AppName:      "insurecow-api",
	})

	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{
		Generator: uuid.NewString,
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET,POST,HEAD,PUT,DELETE,PATCH",
		AllowCredentials: true,
	}))
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
	}))

	routes.SetupRoutes(app, db, cacheSvc, cfg)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Info("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.WithError(err).Warn("graceful shutdown failed")
		}
	}()

	log.WithField("port", cfg.Port).Info("server starting")
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.WithError(err).Error("server stopped")
	}
}

func configureLogging(cfg *config.Config) {
	if cfg.IsProduction() {
		log.SetFormatter(&log.JSONFormatter{})
		log.SetLevel(log.InfoLevel)
		return
	}
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetLevel(log.DebugLevel)
}
