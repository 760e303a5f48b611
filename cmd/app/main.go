package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"artfactory/api"
	"artfactory/cmd"
	httpin "artfactory/internal/adapters/in/http"
	"artfactory/internal/adapters/out/events"
	"artfactory/internal/adapters/out/postgres"
	"artfactory/internal/adapters/out/postgres/migrations"
	"artfactory/internal/core/ports"
	"artfactory/internal/jobs"

	"github.com/labstack/gommon/log"
)

func main() {
	configs, err := cmd.LoadConfig(".env")
	if err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := newLogger(configs.LogLevel)
	slog.SetDefault(logger)

	if err = run(configs, logger); err != nil {
		logger.Error("Application stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(configs cmd.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	applied, err := migrations.Up(configs.DatabaseURL())
	if err != nil {
		return err
	}
	logger.InfoContext(ctx, "Database schema is up to date", "applied", applied)

	gormDB, err := postgres.Open(configs.DatabaseURL(), postgres.PoolConfig{
		MaxOpenConns:    20,
		MaxIdleConns:    5,
		ConnMaxLifetime: 30 * time.Minute,
	}, logger)
	if err != nil {
		return err
	}
	if sqlDB, err := gormDB.DB(); err == nil {
		defer sqlDB.Close()
	}

	heartbeats, closeHeartbeats, err := cmd.NewHeartbeatStore(ctx, configs, logger)
	if err != nil {
		return err
	}
	defer closeHeartbeats()

	publisher := newPublisher(configs, logger)
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Warn("Failed to close event publisher", "error", err)
		}
	}()

	app := cmd.NewCompositionRoot(configs, gormDB, publisher, heartbeats, logger)
	logger.InfoContext(ctx, "Factory machines configured", "providers", app.Providers().Providers())

	if watcher := app.CatalogWatcher(); watcher != nil {
		if _, err = watcher.Sync(ctx); err != nil {
			return err
		}
		go func() {
			if err := watcher.Watch(ctx); err != nil {
				logger.Error("Machine catalog watcher stopped", "error", err)
			}
		}()
	}

	hostname, err := os.Hostname()
	if err != nil || hostname == "" {
		hostname = "worker"
	}
	jobManager := jobs.NewJobManager(logger, app.Jobs(hostname)...)
	if err = jobManager.StartAll(); err != nil {
		return err
	}
	defer jobManager.StopAll()

	return startWebServer(ctx, app, configs, logger)
}

func startWebServer(ctx context.Context, app cmd.CompositionRoot, configs cmd.Config, logger *slog.Logger) error {
	doc, err := api.Load(ctx)
	if err != nil {
		return err
	}

	e, err := httpin.NewRouter(httpin.RouterConfig{
		Doc:       doc,
		JWTSecret: configs.AuthJWTSecret,
		Logger:    logger,
		LogLevel:  echoLogLevel(configs.LogLevel),
	}, httpin.NewServer(app.UseCases(), logger))
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- e.Start(net.JoinHostPort("0.0.0.0", configs.HTTPPort))
	}()

	select {
	case err = <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func newPublisher(configs cmd.Config, logger *slog.Logger) interface {
	ports.EventPublisher
	Close() error
} {
	if len(configs.KafkaBrokers) == 0 {
		logger.Warn("KAFKA_BROKERS is not set, order events are dropped")
		return events.NoopPublisher{}
	}
	return events.NewKafkaPublisher(events.KafkaConfig{
		Brokers:      configs.KafkaBrokers,
		Topic:        configs.KafkaOrderChangedTopic,
		WriteTimeout: 10 * time.Second,
	})
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

func echoLogLevel(level string) log.Lvl {
	switch strings.ToLower(level) {
	case "debug":
		return log.DEBUG
	case "warn", "warning":
		return log.WARN
	case "error":
		return log.ERROR
	default:
		return log.INFO
	}
}
