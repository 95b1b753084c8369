package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"taskdesk/internal/app"
	"taskdesk/internal/server"
)

func main() {
	logger := app.NewLogger()
	logger.Info().Msg("starting task desk service")

	if err := run(logger, os.Args[1:]); err != nil {
		logger.Fatal().
			Err(err).
			Msg("service stopped with error")
	}
	logger.Info().Msg("service stopped")
}

func run(logger zerolog.Logger, args []string) error {
	cfg, err := server.ReadConfig(args, logger)
	if err != nil {
		return err
	}
	logger, err = app.ConfigureLogger(logger, cfg.Env)
	if err != nil {
		return err
	}

	ctx := context.Background()
	store, closeStore, err := app.OpenStore(ctx, cfg, logger, cfg.AllowMemoryStore)
	if err != nil {
		return err
	}
	defer closeStore()

	dispatcher := app.NewDispatcher(cfg, logger)
	svc := app.NewServices(cfg, store, dispatcher, logger)
	if err := app.BootstrapAdmin(ctx, cfg, store, svc.Users, logger); err != nil {
		return err
	}

	api := server.NewTaskAPI(cfg, svc, logger)
	if api == nil {
		return errors.New("failed to initialize api")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		if err := api.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case sig := <-sigChan:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutting down")
	case err := <-serverErr:
		logger.Error().
			Err(err).
			Msg("http server failed")
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout.Std())
	defer cancel()

	if err := api.Shutdown(shutdownCtx); err != nil {
		logger.Error().
			Err(err).
			Msg("failed to shut down http server")
	}
	if err := dispatcher.Close(shutdownCtx); err != nil {
		logger.Warn().
			Err(err).
			Msg("notification queue not drained")
	}
	return nil
}
