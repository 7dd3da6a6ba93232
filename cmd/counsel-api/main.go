package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	httpadapter "github.com/PabloGalante/counsel-agent/internal/adapters/http"
	"github.com/PabloGalante/counsel-agent/internal/bootstrap"
	"github.com/PabloGalante/counsel-agent/internal/config"
	"github.com/PabloGalante/counsel-agent/internal/observability"
)

const shutdownTimeout = 10 * time.Second

func main() {
	bootLog := observability.Logger()

	cfg, err := config.Load()
	if err != nil {
		bootLog.Fatal().Err(err).Msg("load config")
	}

	log, err := observability.New(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	if err != nil {
		bootLog.Fatal().Err(err).Msg("init logger")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Error().Err(err).Msg("server stopped")
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	log := observability.Logger()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("create application: %w", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Error().Err(err).Msg("close application")
		}
	}()

	if err := app.Sessions.Load(ctx); err != nil {
		return fmt.Errorf("load session: %w", err)
	}

	srv := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: httpadapter.NewServer(httpadapter.Deps{
			Sessions:       app.Sessions,
			Evaluator:      app.Evaluator,
			Recognizer:     app.Recognizer,
			MaxUploadBytes: cfg.UploadMaxBytes,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		log.Info().Str("addr", srv.Addr).Str("mode", string(cfg.Mode)).Msg("Counsel API listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	eg.Go(func() error {
		<-egCtx.Done()
		log.Info().Msg("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)

		// background submissions finalize their placeholders before the store closes
		app.Sessions.Wait()
		return err
	})

	return eg.Wait()
}
