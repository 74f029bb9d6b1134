package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"message-service/internal/config"
	"message-service/internal/db"
	"message-service/internal/events"
	"message-service/internal/health"
	"message-service/internal/logger"
	"message-service/internal/message"
	"message-service/internal/telemetry"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/uptrace/bun"
)

type App struct {
	config    *config.Config
	router    chi.Router
	server    *http.Server
	logger    *slog.Logger
	db        *bun.DB
	publisher events.Publisher
	telemetry *telemetry.Telemetry
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	slogLogger := logger.NewWithServiceContext(ServiceName, Version, cfg.Env)

	// Set as default logger so slog.Info() uses the same handler
	slog.SetDefault(slogLogger)

	slogLogger.Info("initializing application",
		"env", cfg.Env,
		"git_commit", GitCommit,
		"build_time", BuildTime,
	)

	tel, err := telemetry.Init(ctx, cfg.Telemetry, ServiceName, Version, cfg.Env, slogLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	m := tel.Metrics

	database, err := db.New(ctx, cfg.Database)
	if err != nil {
		_ = tel.Shutdown(ctx, slogLogger)
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := m.Database.RegisterDB(database.DB, m.Meter()); err != nil {
		slogLogger.Warn("failed to register database pool metrics", "error", err)
	}
	if err := m.Health.RegisterDependencies(m.Meter(), "postgres"); err != nil {
		slogLogger.Warn("failed to register dependency metrics", "error", err)
	}

	if err := db.RunMigrations(ctx, database, (*message.Message)(nil)); err != nil {
		_ = db.Close(database)
		_ = tel.Shutdown(ctx, slogLogger)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	publisher, err := events.New(cfg.Events, m.Messaging, slogLogger)
	if err != nil {
		_ = db.Close(database)
		_ = tel.Shutdown(ctx, slogLogger)
		return nil, err
	}
	slogLogger.Info("event publisher initialized", "driver", cfg.Events.Driver)

	app := &App{
		config:    cfg,
		router:    chi.NewRouter(),
		logger:    slogLogger,
		db:        database,
		publisher: publisher,
		telemetry: tel,
	}

	app.router.Use(middleware.RequestID)
	app.router.Use(middleware.RealIP)
	app.router.Use(middleware.Recoverer)
	app.router.Use(m.HTTP.Middleware)

	healthHandler := health.NewHandler(database, slogLogger, m)
	healthHandler.RegisterRoutes(app.router)

	messageRepo := message.NewRepository(database, m)
	messageService := message.NewService(messageRepo, publisher, slogLogger)
	messageHandler := message.NewHandler(messageService, slogLogger, m)
	messageHandler.RegisterRoutes(app.router)

	slogLogger.Info("application initialized successfully")

	return app, nil
}

func (a *App) Run() error {
	a.server = &http.Server{
		Addr:         fmt.Sprintf(":%s", a.config.Server.Port),
		Handler:      a.router,
		ReadTimeout:  time.Duration(a.config.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(a.config.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(a.config.Server.IdleTimeout) * time.Second,
	}

	a.logger.Info("server starting", "port", a.config.Server.Port)
	if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests, then releases the publisher, telemetry and database.
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down server")

	var errs []error
	if a.server != nil {
		if err := a.server.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("server shutdown: %w", err))
		}
	}

	if err := a.publisher.Close(); err != nil {
		a.logger.Error("event publisher close error", "error", err)
		errs = append(errs, err)
	}

	if err := a.telemetry.Shutdown(ctx, a.logger); err != nil {
		a.logger.Error("telemetry shutdown error", "error", err)
		errs = append(errs, err)
	}

	if err := db.Close(a.db); err != nil {
		errs = append(errs, fmt.Errorf("database close: %w", err))
	}

	return errors.Join(errs...)
}
