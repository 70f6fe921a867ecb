package main

import (
	"context"
	"errors"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/vbonduro/listsync/internal/auth"
	"github.com/vbonduro/listsync/internal/cloud"
	"github.com/vbonduro/listsync/internal/cloud/memory"
	"github.com/vbonduro/listsync/internal/cloud/postgres"
	"github.com/vbonduro/listsync/internal/config"
	"github.com/vbonduro/listsync/internal/coordinator"
	"github.com/vbonduro/listsync/internal/db"
	"github.com/vbonduro/listsync/internal/logging"
	"github.com/vbonduro/listsync/internal/metrics"
	"github.com/vbonduro/listsync/internal/notify"
	"github.com/vbonduro/listsync/internal/realtime"
	"github.com/vbonduro/listsync/internal/realtime/pgfeed"
	"github.com/vbonduro/listsync/internal/realtime/redisfeed"
	"github.com/vbonduro/listsync/internal/service"
	"github.com/vbonduro/listsync/internal/storage"
	"github.com/vbonduro/listsync/internal/storage/local"
	"github.com/vbonduro/listsync/internal/store"
	"github.com/vbonduro/listsync/internal/suggest"
	claudesuggest "github.com/vbonduro/listsync/internal/suggest/claude"
	ollamasuggest "github.com/vbonduro/listsync/internal/suggest/ollama"
	"github.com/vbonduro/listsync/internal/web"
)

func main() {
	cfg := config.Load()

	logger, cleanup, err := logging.New(cfg.LogLevel, cfg.LogFormat, cfg.LogFile)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer cleanup()

	if err := run(cfg, logger); err != nil {
		logger.Error("listsync stopped", "error", err)
		cleanup()
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var closers []io.Closer
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i].Close(); err != nil {
				logger.Error("failed to close resource", "error", err)
			}
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	blobs, closer, err := newBlobs(cfg)
	if err != nil {
		return err
	}
	if closer != nil {
		closers = append(closers, closer)
	}

	remote, cs, err := newRemoteFactory(ctx, cfg, logger, m)
	if err != nil {
		return err
	}
	closers = append(closers, cs...)

	coord := coordinator.New(local.NewStore(blobs, logger), remote, logger, m)

	var verifier *auth.Verifier
	if cfg.AuthSigningKey != "" {
		verifier = auth.NewVerifier(cfg.AuthSigningKey, cfg.AuthIssuer)
	}
	coord.SetIdentity(ctx, initialIdentity(cfg, verifier, logger))

	queue := notify.NewQueue(notify.DefaultCapacity)
	app := service.NewListApp(coord, local.NewRouteStore(blobs, logger), queue, logger, service.WithMetrics(m))
	if err := app.Start(ctx); err != nil {
		return err
	}
	defer app.Close()

	opts := []web.Option{web.WithMetrics(m)}
	if verifier != nil {
		opts = append(opts, web.WithVerifier(verifier))
	}
	if s := newSuggester(cfg, logger); s != nil {
		opts = append(opts, web.WithSuggester(s))
	}
	srv := web.NewServer(app, coord, queue, logger, opts...).NewHTTPServer(cfg.ListenAddr)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", cfg.ListenAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newBlobs(cfg *config.Config) (local.Blobs, io.Closer, error) {
	if cfg.LocalBackend == "file" {
		fs, err := store.NewFileBlobStore(cfg.LocalDataDir)
		return fs, nil, err
	}
	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return nil, nil, err
	}
	return store.NewBlobStore(database), database, nil
}

// newRemoteFactory builds the cloud backend and change feed. It returns a
// nil factory when cloud sync is disabled.
func newRemoteFactory(ctx context.Context, cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) (coordinator.RemoteFactory, []io.Closer, error) {
	var (
		closers []io.Closer
		backend cloud.Backend
		feed    realtime.Feed
	)

	switch cfg.CloudBackend {
	case "none":
		logger.Info("cloud sync disabled")
		return nil, nil, nil
	case "postgres":
		pg, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, pg)
		backend = pg
	default:
		backend = memory.New()
	}

	switch {
	case cfg.RealtimeBackend == "redis":
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, closers, err
		}
		client := redis.NewClient(opts)
		closers = append(closers, client)
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, closers, err
		}
		rf := redisfeed.New(client, logger)
		backend = cloud.NewPublishingBackend(backend, rf, logger)
		feed = rf
	case cfg.CloudBackend == "postgres":
		// Database triggers publish every change.
		feed = pgfeed.New(cfg.DatabaseURL, logger)
	default:
		hub := realtime.NewHub()
		backend = cloud.NewPublishingBackend(backend, hub, logger)
		feed = hub
	}

	logger.Info("cloud sync enabled", "backend", cfg.CloudBackend, "realtime", cfg.RealtimeBackend)
	return func(userID string) storage.Provider {
		return cloud.NewStore(userID, backend, feed, logger, m)
	}, closers, nil
}

func initialIdentity(cfg *config.Config, verifier *auth.Verifier, logger *slog.Logger) coordinator.Identity {
	if cfg.SessionToken == "" || verifier == nil {
		return coordinator.SignedOut()
	}
	userID, err := verifier.Verify(cfg.SessionToken)
	if err != nil {
		logger.Warn("ignoring SESSION_TOKEN", "error", err)
		return coordinator.SignedOut()
	}
	return coordinator.SignedIn(userID)
}

func newSuggester(cfg *config.Config, logger *slog.Logger) suggest.Suggester {
	switch cfg.SuggestBackend {
	case "claude":
		logger.Info("using Claude suggestion backend", "model", cfg.ClaudeModel)
		return claudesuggest.NewClaudeSuggester(cfg.ClaudeAPIKey, cfg.ClaudeModel, cfg.ClaudeBaseURL)
	case "ollama":
		logger.Info("using Ollama suggestion backend", "model", cfg.OllamaModel)
		return ollamasuggest.NewOllamaSuggester(cfg.OllamaHost, cfg.OllamaModel)
	default:
		return nil
	}
}
