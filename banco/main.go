package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "net/http/pprof"

	healthgo "github.com/hellofresh/health-go/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo-contrib/pprof"
	"github.com/labstack/echo/v4"

	"github.com/forchetta/giovedi/farina/telemetry"
)

func main() {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()
	retcode := 0
	defer func() {
		os.Exit(retcode)
	}()

	slog.InfoContext(ctx, "Launching banco")

	slog.InfoContext(ctx, "Loading config")
	settings, err := LoadConfig()
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", slog.Any("err", err))
		retcode = 1
		return
	}

	slog.InfoContext(ctx, "Setting up opentelemetry")
	otelShutdown, err := telemetry.SetupOTelSDK(ctx, settings.App, settings.OpenTelemetry)
	if err != nil {
		slog.Error("failed to setup telemetry", slog.Any("err", err))
		retcode = 1
		return
	}

	defer func() {
		err = errors.Join(err, otelShutdown(context.Background()))
		if err != nil {
			slog.ErrorContext(
				ctx,
				"failed to shutdown opentelemetry providers",
				slog.Any("err", err),
			)
			retcode = 1
		}
	}()

	lockTimeout := time.Duration(settings.Store.LockTimeoutInMs) * time.Millisecond

	slog.InfoContext(ctx, "Opening order store", slog.String("driver", settings.Store.Driver))
	var store OrderStore
	var storeCheck healthgo.Config
	switch settings.Store.Driver {
	case "postgres":
		pool, err := pgxpool.New(ctx, settings.Postgres.DSN())
		if err != nil {
			slog.ErrorContext(ctx, "failed to create postgres pool", slog.Any("err", err))
			retcode = 1
			return
		}
		defer pool.Close()

		pgStore, err := NewPostgresStore(ctx, pool, lockTimeout)
		if err != nil {
			slog.ErrorContext(ctx, "failed to initialize postgres store", slog.Any("err", err))
			retcode = 1
			return
		}
		store = pgStore
		storeCheck = healthgo.Config{
			Name:  "postgres",
			Check: pool.Ping,
		}
	default:
		fileStore := NewFileStore(settings.Store.Path, lockTimeout)
		store = fileStore
		storeCheck = healthgo.Config{
			Name:  "order-log",
			Check: fileStore.Check,
		}
	}

	slog.InfoContext(ctx, "Setting up health checker")
	health, err := healthgo.New(
		healthgo.WithComponent(healthgo.Component{
			Name:    settings.App.Name,
			Version: settings.App.Version,
		}),
		healthgo.WithChecks(storeCheck),
	)
	if err != nil {
		slog.ErrorContext(ctx, "failed to create health checker", slog.Any("err", err))
		retcode = 1
		return
	}

	service, err := NewOrderService(store)
	if err != nil {
		slog.ErrorContext(ctx, "failed to create order service", slog.Any("err", err))
		retcode = 1
		return
	}

	errChan := make(chan error)
	server := echo.New()
	server.HideBanner = true

	NewMainHandler(server, settings, service, health)
	pprof.Register(server)

	go func() {
		slog.InfoContext(ctx, "listening for requests", slog.String("ip", settings.HTTP.IP), slog.String("port", settings.HTTP.Port))
		errChan <- server.Start(fmt.Sprintf("%s:%s", settings.HTTP.IP, settings.HTTP.Port))
	}()

	select {
	case err = <-errChan:
		slog.ErrorContext(ctx, "error when running server", slog.Any("err", err))
		retcode = 1
		return
	case <-ctx.Done():
		// Wait for first Signal arrives
	}

	err = server.Shutdown(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to shutdown gracefully the server", slog.Any("err", err))
	}
}
