package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/CloudAIX/healthcare-rag-system/internal/api"
	"github.com/CloudAIX/healthcare-rag-system/internal/app"
	"github.com/CloudAIX/healthcare-rag-system/internal/config"
	"github.com/CloudAIX/healthcare-rag-system/internal/pipeline"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		log.Error("load configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.ValidateServe(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize components.
	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Error("initialise", "error", err)
		os.Exit(1)
	}

	// Initialize pipeline.
	orch := pipeline.NewOrchestrator(a.NewWorker(), pipeline.OrchestratorOptions{
		Workers:   cfg.WorkerCount,
		QueueSize: cfg.MaxQueueSize,
		JobTTL:    cfg.JobTTL,
	}, log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(api.Deps{
		Jobs:      orch,
		Retriever: a.Retriever,
		Generator: a.Generator,
		Store:     a.Store,
		Stats:     a.Stats,
	}, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	done := make(chan struct{})
	go func() {
		defer close(done)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		orch.Stop()
		a.Close()
	}()

	log.Info("starting healthcare rag server",
		"port", cfg.Port,
		"collection", a.Store.Name(),
		"collection_size", a.Store.Count(),
		"model", cfg.AnthropicModel,
	)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	<-done
	log.Info("stopped")
}
