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

	"pill-tracker/internal/adapters/auth/idp"
	"pill-tracker/internal/adapters/auth/jwtverifier"
	"pill-tracker/internal/adapters/prediction/modelserver"
	"pill-tracker/internal/adapters/prediction/openaivision"
	mem "pill-tracker/internal/adapters/storage/memory"
	pg "pill-tracker/internal/adapters/storage/postgres"
	"pill-tracker/internal/adapters/storage/sqlite"
	"pill-tracker/internal/domain/pills"
	"pill-tracker/internal/platform/config"
	"pill-tracker/internal/platform/logger"
	"pill-tracker/internal/platform/scheduler"
	"pill-tracker/internal/ports/auth"
	"pill-tracker/internal/ports/docstore"
	"pill-tracker/internal/ports/identity"
	"pill-tracker/internal/ports/prediction"
	"pill-tracker/internal/router"
)

// @title Pill Tracker API
// @version 1.0
// @description API de seguimiento de medicación: catálogo de pills, schedules con progreso, perfiles y scans de imágenes.
// @BasePath /
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.LogLevel),
		Format: logger.ParseFormat(cfg.LogFormat),
		App:    cfg.AppName,
	})

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", map[string]any{"error": err})
		os.Exit(1)
	}
}

func run(cfg *config.AppConfig, log logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	verifier, directory, err := buildAuth(cfg)
	if err != nil {
		return err
	}

	predictor, err := buildPredictor(cfg)
	if err != nil {
		return err
	}

	app := router.Build(router.Options{
		AuthVerifier:  verifier,
		Store:         store,
		Identity:      directory,
		Predictor:     predictor,
		Logger:        log,
		AppName:       cfg.AppName,
		Environment:   cfg.Environment,
		HomePillCount: cfg.HomePillCount,
		ScanMaxBytes:  cfg.ScanMaxBytes,
	})

	if cfg.CatalogSeedFile != "" {
		catalog, err := pills.LoadCatalogFile(cfg.CatalogSeedFile)
		if err != nil {
			return err
		}
		n, err := app.Pills.Seed(ctx, catalog)
		if err != nil {
			return fmt.Errorf("seed catalog: %w", err)
		}
		log.Info("catalog seeded", map[string]any{"file": cfg.CatalogSeedFile, "pills": n})
	}

	jobs := scheduler.New(log, time.UTC)
	err = jobs.Add("scan-retention", cfg.ScanPurgeCron, func(ctx context.Context) error {
		n, err := app.Scans.Purge(ctx, cfg.ScanRetention)
		if err != nil {
			return err
		}
		log.Info("old scans purged", map[string]any{"deleted": n, "retention": cfg.ScanRetention.String()})
		return nil
	})
	if err != nil {
		return err
	}
	jobs.Start()
	defer jobs.Stop()

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      app.Handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", map[string]any{
			"addr":      srv.Addr,
			"storage":   cfg.StorageDriver,
			"auth":      cfg.AuthMode,
			"predictor": cfg.Predictor,
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openStore(ctx context.Context, cfg *config.AppConfig) (docstore.Store, error) {
	switch cfg.StorageDriver {
	case config.StoragePostgres:
		db, err := pg.Open(cfg.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		if err := pg.EnsureSchema(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
		return pg.NewStore(db), nil
	case config.StorageSQLite:
		db, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return sqlite.NewStore(db), nil
	default:
		return mem.NewStore(), nil
	}
}

// buildAuth devuelve verifier nil en modo dev (header X-Debug-User-ID).
func buildAuth(cfg *config.AppConfig) (auth.AuthVerifier, identity.Directory, error) {
	switch cfg.AuthMode {
	case config.AuthModeJWT:
		v, err := jwtverifier.New(cfg.JWTSecret, cfg.JWTIssuer)
		if err != nil {
			return nil, nil, err
		}
		return v, identity.NopDirectory{}, nil
	case config.AuthModeIDP:
		client, err := idp.NewClient(idp.Config{
			BaseURL: cfg.IDPBaseURL,
			APIKey:  cfg.IDPAPIKey,
			Timeout: 10 * time.Second,
		})
		if err != nil {
			return nil, nil, err
		}
		return client, client, nil
	default:
		return nil, identity.NopDirectory{}, nil
	}
}

func buildPredictor(cfg *config.AppConfig) (prediction.Predictor, error) {
	switch cfg.Predictor {
	case config.PredictorModelServer:
		return modelserver.NewClient(modelserver.Config{
			BaseURL:        cfg.ModelServerURL,
			APIKey:         cfg.ModelServerAPIKey,
			LabelPath:      cfg.ModelLabelPath,
			ConfidencePath: cfg.ModelConfidencePath,
			Timeout:        20 * time.Second,
		})
	case config.PredictorOpenAI:
		return openaivision.New(openaivision.Config{
			APIKey:  cfg.OpenAIAPIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.OpenAIModel,
		})
	default:
		return prediction.Unavailable{}, nil
	}
}
