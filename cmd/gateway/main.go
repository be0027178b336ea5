package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/tello-teleop/gateway/pkg/api"
	"github.com/tello-teleop/gateway/pkg/config"
	"github.com/tello-teleop/gateway/pkg/drone"
	customlog "github.com/tello-teleop/gateway/pkg/log"
	"github.com/tello-teleop/gateway/pkg/tello"
)

func main() {
	configDir := os.Getenv("GATEWAY_CONFIG_DIR")
	if configDir == "" {
		configDir = "config"
	}

	cfg, err := config.LoadConfig(configDir)
	if err != nil {
		log.Fatalf("Failed to load gateway config: %v\n", err)
	}

	appLogger, err := customlog.NewLogrusLogger(cfg.Logging.Level, cfg.Logging.LogPath)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v\n", err)
	}

	app := fiber.New(fiber.Config{
		AppName:      "Tello Teleop Gateway",
		ErrorHandler: customErrorHandler,
	})

	app.Use(logger.New())
	app.Use(recover.New())

	registry := drone.NewRegistry(tello.Factory(cfg.Tello, appLogger), appLogger)
	dispatcher := drone.NewDispatcher(registry, appLogger)

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "online",
			"service": "tello teleop gateway",
		})
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "healthy"})
	})

	api.RegisterTelloRoutes(app, dispatcher, cfg.Commands.HTTP, appLogger)
	api.RegisterTelloWebSocket(app, dispatcher, cfg.Commands.Socket, appLogger)

	go func() {
		appLogger.Infof("Server starting on port %d", cfg.Server.HTTPPort)
		if err := app.Listen(fmt.Sprintf(":%d", cfg.Server.HTTPPort)); err != nil {
			appLogger.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Infof("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		appLogger.Fatalf("Server forced to shutdown: %v", err)
	}

	appLogger.Infof("Server exited properly")
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
	})
}
