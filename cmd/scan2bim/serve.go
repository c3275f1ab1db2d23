package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/banshee-data/scan2bim/internal/api"
	"github.com/banshee-data/scan2bim/internal/bim/pipeline"
	"github.com/banshee-data/scan2bim/internal/db"
	"github.com/banshee-data/scan2bim/internal/fsutil"
	"github.com/banshee-data/scan2bim/internal/jobs"
	"github.com/banshee-data/scan2bim/internal/monitoring"
	"github.com/banshee-data/scan2bim/internal/version"
)

func runServe(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	listen := fs.String("listen", ":8080", "HTTP listen address")
	grpcListen := fs.String("grpc-listen", "", "gRPC health service address (disabled when empty)")
	dataDir := fs.String("data", "data", "Directory for uploaded scans and cached exports")
	if err := fs.Parse(args); err != nil {
		return err
	}

	tuning, err := loadTuning(*configPath)
	if err != nil {
		return err
	}

	var health *healthService
	if *grpcListen != "" {
		health, err = startHealth(*grpcListen)
		if err != nil {
			return err
		}
		defer health.Stop()
	}

	d, err := db.NewDB(*dbFile)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer d.Close()

	store := jobs.NewStore(d, nil)
	if n, err := store.RecoverInterrupted(ctx); err != nil {
		return err
	} else if n > 0 {
		monitoring.Logf("marked %d interrupted jobs as failed", n)
	}

	if err := os.MkdirAll(*dataDir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	artifacts := fsutil.NewArtifacts(fsutil.OSFileSystem{}, *dataDir)

	runner := jobs.NewRunner(store, artifacts.FS, jobs.RunnerConfig{
		Workers: tuning.GetWorkers(),
		Timeout: tuning.GetJobTimeout(),
		Options: pipeline.OptionsFromTuning(tuning),
	})
	runner.Start(ctx)
	defer runner.Stop()

	server := api.NewServer(api.Config{
		Store:          store,
		Runner:         runner,
		Artifacts:      artifacts,
		DB:             d,
		MaxUploadBytes: tuning.GetMaxUploadBytes(),
		Export:         pipeline.ExportOptions{MeshCells: tuning.GetMeshCells()},
	})
	httpServer := &http.Server{
		Addr:              *listen,
		Handler:           api.LoggingMiddleware(server.ServeMux()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		monitoring.Logf("%s listening on %s", version.Get(), *listen)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()
	if health != nil {
		health.SetServing(true)
	}

	select {
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
	case <-ctx.Done():
	}
	monitoring.Logf("shutting down HTTP server...")
	if health != nil {
		health.SetServing(false)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		monitoring.Logf("HTTP server shutdown error: %v", err)
		if err := httpServer.Close(); err != nil {
			monitoring.Logf("HTTP server force close error: %v", err)
		}
	}
	monitoring.Logf("graceful shutdown complete")
	return nil
}
