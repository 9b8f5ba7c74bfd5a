// Package main wires together the crawl log analyser binary.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/openwa/crawl-log-analyser/internal/api"
	"github.com/openwa/crawl-log-analyser/internal/config"
	"github.com/openwa/crawl-log-analyser/internal/docstore"
	"github.com/openwa/crawl-log-analyser/internal/id/uuid"
	"github.com/openwa/crawl-log-analyser/internal/logging"
	"github.com/openwa/crawl-log-analyser/internal/metrics"
	"github.com/openwa/crawl-log-analyser/internal/pipeline"
	"github.com/openwa/crawl-log-analyser/internal/publisher"
	pubsubpublisher "github.com/openwa/crawl-log-analyser/internal/publisher/pubsub"
	"github.com/openwa/crawl-log-analyser/internal/storage"
	gcsstorage "github.com/openwa/crawl-log-analyser/internal/storage/gcs"
	localstorage "github.com/openwa/crawl-log-analyser/internal/storage/local"
	memorystorage "github.com/openwa/crawl-log-analyser/internal/storage/memory"
	"github.com/openwa/crawl-log-analyser/internal/surt"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("analysis failed", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.Init()

	store, cleanup, err := buildStorage(ctx, cfg)
	if err != nil {
		return fmt.Errorf("storage init: %w", err)
	}
	defer cleanup()

	launchID := cfg.LaunchID
	if launchID == "" {
		launchID, err = uuid.New().NewID()
		if err != nil {
			return fmt.Errorf("generate launch id: %w", err)
		}
		logger.Info("generated launch id", zap.String("launch_id", launchID))
	}

	var pub publisher.Publisher
	if cfg.PubSub.ProjectID != "" && cfg.PubSub.TopicName != "" {
		p, err := pubsubpublisher.New(ctx, cfg.PubSub.ProjectID, cfg.PubSub.TopicName)
		if err != nil {
			return fmt.Errorf("pubsub init: %w", err)
		}
		defer func() {
			if cerr := p.Close(); cerr != nil {
				logger.Warn("pubsub close failed", zap.Error(cerr))
			}
		}()
		pub = p
	}

	var sink pipeline.DocumentSink
	if cfg.DB.DSN != "" {
		st, err := docstore.New(ctx, cfg.DB.DSN)
		if err != nil {
			return fmt.Errorf("docstore init: %w", err)
		}
		defer st.Close()
		sink = st
	}

	if cfg.Server.Enabled {
		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:           api.NewServer(logger.Named("api")).Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Info("status server started", zap.Int("port", cfg.Server.Port))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("status server error", zap.Error(err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("status server shutdown error", zap.Error(err))
			}
		}()
	}

	analysis := pipeline.New(pipeline.Config{
		Job:          cfg.Job,
		LaunchID:     launchID,
		LogPath:      cfg.LogPath,
		TargetsPath:  cfg.TargetsPath,
		OutputPrefix: cfg.OutputPrefix,
		Concurrency:  cfg.Mapper.Concurrency,
	}, store, surt.New(), pub, sink, logger.Named("pipeline"))

	if err := analysis.Run(ctx); err != nil {
		return err
	}
	logger.Info("analysis complete", zap.String("output", analysis.OutputPath()))
	return nil
}

func buildStorage(ctx context.Context, cfg config.Config) (storage.Provider, func(), error) {
	switch cfg.Storage.Backend {
	case "local":
		p, err := localstorage.New(localstorage.Config{BaseDir: cfg.Storage.BaseDir})
		if err != nil {
			return nil, nil, err
		}
		return p, func() {}, nil
	case "gcs":
		p, err := gcsstorage.New(ctx, cfg.Storage.GCSBucket)
		if err != nil {
			return nil, nil, err
		}
		return p, func() { _ = p.Close() }, nil
	case "memory":
		return memorystorage.New(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}
