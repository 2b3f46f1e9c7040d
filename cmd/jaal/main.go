package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/antoniostano/jaal/internal/callback"
	"github.com/antoniostano/jaal/internal/classify"
	"github.com/antoniostano/jaal/internal/config"
	"github.com/antoniostano/jaal/internal/engage"
	"github.com/antoniostano/jaal/internal/engine"
	"github.com/antoniostano/jaal/internal/httpapi"
	"github.com/antoniostano/jaal/internal/intelwire"
	"github.com/antoniostano/jaal/internal/observability"
	"github.com/antoniostano/jaal/internal/report"
	"github.com/antoniostano/jaal/internal/session"
	"github.com/antoniostano/jaal/internal/store"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("config error", "error", err)
		os.Exit(1)
	}

	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	ctx := context.Background()
	sessionStore, err := store.New(ctx, cfg.SessionStoreURL, cfg.SessionTTL)
	if err != nil {
		logger.Error("session store init failed", "error", err, "url", cfg.SessionStoreURL)
		os.Exit(1)
	}
	defer sessionStore.Close()

	archive, err := report.NewArchive(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("report archive init failed", "error", err)
		os.Exit(1)
	}
	defer archive.Close()

	pack, err := engage.LoadPack(cfg.TemplatePackPath)
	if err != nil {
		logger.Error("template pack load failed", "error", err, "path", cfg.TemplatePackPath)
		os.Exit(1)
	}

	var wire intelwire.Publisher = intelwire.NopPublisher{}
	if cfg.NATSURL != "" {
		natsWire, err := intelwire.NewNATSPublisher(cfg.NATSURL, cfg.NATSToken, logger)
		if err != nil {
			logger.Error("intel wire init failed", "error", err, "url", cfg.NATSURL)
			os.Exit(1)
		}
		wire = natsWire
	}
	defer wire.Close()

	notifier := callback.NewNotifier(cfg.CallbackURL, cfg.CallbackAPIKey, logger)
	if notifier != nil {
		notifier.OnOutcome = func(outcome string) {
			metrics.Callbacks.WithLabelValues(outcome).Inc()
		}
	}

	sessions := session.NewManager(sessionStore, cfg.SessionIdleTimeout, logger)
	eng := engine.New(
		sessions,
		classify.New(cfg.Classifier),
		engage.NewGenerator(pack),
		archive,
		notifier,
		wire,
		metrics,
		logger,
	)

	api := httpapi.New(cfg, eng, archive, metrics)
	httpServer := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: api.Router(),
	}

	runCtx, runCancel := context.WithCancel(context.Background())
	defer runCancel()
	sessions.StartJanitor(runCtx, cfg.JanitorInterval)

	go func() {
		logger.Info("server listening", "addr", cfg.BindAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("listen error", "error", err)
			os.Exit(1)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Info("shutdown signal received")

	runCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
		_ = httpServer.Close()
	}

	logger.Info("shutdown complete")
}
