// Package internal contains core application functionality
package internal

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/gofiber/fiber/v2"

	"github.com/stape-io/awin-conversion-api-tag/internal/audit"
	"github.com/stape-io/awin-conversion-api-tag/internal/awin"
	"github.com/stape-io/awin-conversion-api-tag/internal/config"
	"github.com/stape-io/awin-conversion-api-tag/internal/database"
	"github.com/stape-io/awin-conversion-api-tag/internal/jobs"
	"github.com/stape-io/awin-conversion-api-tag/internal/pipeline"
	"github.com/stape-io/awin-conversion-api-tag/internal/version"
)

// Application wires the HTTP server, the pipeline and the audit sinks.
type Application struct {
	cfg       *config.Config
	logger    *slog.Logger
	fiber     *fiber.App
	pipeline  *pipeline.Pipeline
	dbManager *database.Manager
	scheduler *jobs.Scheduler
}

// NewApp creates the application from the singleton configuration.
func NewApp() (*Application, error) {
	return NewAppWithConfig(config.GetConfig())
}

// NewAppWithConfig creates the application with the provided configuration.
func NewAppWithConfig(cfg *config.Config) (*Application, error) {
	logger := NewLogger(cfg)

	dbManager := database.NewManager(cfg, logger)
	db, err := dbManager.Connect()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize warehouse sink: %w", err)
	}

	consoleSink := audit.NewConsoleSink(cfg)
	auditLogger := audit.NewLogger(consoleSink, audit.NewWarehouseSink(db, logger), cfg.IsDebug())

	p := pipeline.New(awin.NewClient(), auditLogger, logger, cfg.ContainerID)

	app := &Application{
		cfg:       cfg,
		logger:    logger,
		pipeline:  p,
		dbManager: dbManager,
		scheduler: jobs.NewScheduler(db, logger, cfg),
		fiber: fiber.New(fiber.Config{
			AppName:               cfg.AppName,
			DisableStartupMessage: true,
		}),
	}
	app.mountRoutes()
	return app, nil
}

// NewLogger builds the application logger at the configured level.
func NewLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.LogLevel {
	case config.LogLevelDebug:
		level = slog.LevelDebug
	case config.LogLevelWarn:
		level = slog.LevelWarn
	case config.LogLevelError:
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}

// Start launches the background jobs and blocks serving HTTP on the
// configured port.
func (a *Application) Start() error {
	a.scheduler.Start()
	a.logger.Info("Starting server",
		slog.String("port", a.cfg.AppPort),
		slog.String("version", version.Version))
	return a.fiber.Listen(":" + a.cfg.AppPort)
}

// Shutdown stops accepting requests, waits for in-flight optimistic
// dispatches to finish and releases the warehouse connection.
func (a *Application) Shutdown(ctx context.Context) error {
	if err := a.fiber.ShutdownWithContext(ctx); err != nil {
		return err
	}
	a.pipeline.Drain()
	a.scheduler.Stop()
	return a.dbManager.Close()
}

// Fiber exposes the underlying server for tests.
func (a *Application) Fiber() *fiber.App {
	return a.fiber
}
