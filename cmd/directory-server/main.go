package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gartstein/directory/internal/directory/config"
	"github.com/gartstein/directory/internal/directory/controller"
	"github.com/gartstein/directory/internal/directory/db"
	"github.com/gartstein/directory/internal/directory/events"
	"github.com/gartstein/directory/internal/directory/handlers"
	"github.com/gartstein/directory/internal/directory/store"
	"github.com/gartstein/directory/internal/directory/watcher"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// producer is the event sink shared by the service and the file watcher.
type producer interface {
	Produce(event events.Event)
	Close()
}

func main() {
	configPath := flag.String("config", filepath.Join("internal", "directory", "config", "config.yaml"), "path to the YAML config file")
	flag.Parse()

	if err := config.LoadDotEnv(); err != nil {
		zap.NewExample().Fatal("failed to load .env", zap.Error(err))
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		zap.NewExample().Fatal("failed to load config", zap.Error(err))
	}

	logger := initLogger(cfg.LogLevel)
	defer func(logger *zap.Logger) {
		err := logger.Sync()
		if err != nil {
			logger.Error("failed to sync logger", zap.Error(err))
		}
	}(logger)

	repo, err := initRepository(cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize store", zap.Error(err))
	}
	defer repo.Close()

	prod := initProducer(cfg, logger)
	defer prod.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.WatchDataFile {
		fw, err := watcher.New(cfg.DataFile, prod, 0, logger)
		if err != nil {
			logger.Fatal("failed to create file watcher", zap.Error(err))
		}
		if err := fw.Start(ctx); err != nil {
			logger.Fatal("failed to start file watcher", zap.Error(err))
		}
		defer fw.Stop()
	}

	directorySvc := controller.NewDirectoryService(repo, prod, logger)

	server := handlers.NewServer(cfg.GRPCPort, cfg.HTTPPort, logger)
	server.RegisterGRPCHandler(handlers.NewCompanyHandler(directorySvc, logger))
	if err := server.RegisterHTTPRoutes(handlers.NewRESTHandler(directorySvc, logger)); err != nil {
		logger.Fatal("Failed to register HTTP routes", zap.Error(err))
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	waitForShutdown(server, errCh, logger)
}

// initLogger initializes a Zap production logger at level.
func initLogger(level string) *zap.Logger {
	cfg := zap.NewProductionConfig()
	if lvl, err := zapcore.ParseLevel(level); err == nil {
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	logger, err := cfg.Build()
	if err != nil {
		logger, _ = zap.NewProduction()
	}
	return logger
}

// initRepository opens the configured store. The SQL stores can be seeded
// from the data file on startup.
func initRepository(cfg *config.Config, logger *zap.Logger) (controller.Repository, error) {
	if cfg.StoreDriver == config.DriverFile {
		logger.Info("serving data file", zap.String("path", cfg.DataFile))
		return store.NewFileStore(cfg.DataFile).WithLogger(logger), nil
	}

	repo, err := db.NewRepository(&db.Config{
		Driver:     cfg.StoreDriver,
		SQLitePath: cfg.SQLitePath,
		Host:       cfg.DBHost,
		Port:       cfg.DBPort,
		User:       cfg.DBUser,
		Password:   cfg.DBPassword,
		DBName:     cfg.DBName,
		SSLMode:    cfg.DBSSLMode,
	}, logger)
	if err != nil {
		return nil, err
	}

	if cfg.SeedFromFile {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		companies, err := store.NewFileStore(cfg.DataFile).WithLogger(logger).ListCompanies(ctx)
		if err != nil {
			logger.Warn("seed skipped, data file unavailable", zap.Error(err))
			return repo, nil
		}
		res, err := repo.ReplaceCompanies(ctx, companies)
		if err != nil {
			_ = repo.Close()
			return nil, err
		}
		logger.Info("seeded store from data file",
			zap.Int("imported", res.Imported),
			zap.Int64s("duplicates", res.Duplicates),
			zap.Int64s("invalid", res.Invalid),
		)
	}
	return repo, nil
}

// initProducer connects the change feed, or returns a no-op producer when no
// brokers are configured.
func initProducer(cfg *config.Config, logger *zap.Logger) producer {
	if len(cfg.KafkaBrokers) == 0 {
		logger.Info("no Kafka brokers configured, events disabled")
		return events.NopProducer{}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := events.EnsureTopic(ctx, cfg.KafkaBrokers, cfg.Topic, 30*time.Second, logger); err != nil {
		logger.Warn("could not ensure Kafka topic", zap.String("topic", cfg.Topic), zap.Error(err))
	}
	return events.NewProducer(cfg.KafkaBrokers, logger, cfg.Topic)
}

// waitForShutdown blocks until an interrupt, SIGTERM or a server failure,
// then shuts down servers.
func waitForShutdown(server *handlers.Server, errCh <-chan error, logger *zap.Logger) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case <-stop:
	case err := <-errCh:
		if err != nil {
			logger.Error("server failed", zap.Error(err))
		}
	}

	server.Stop()
	logger.Info("Servers stopped properly")
}
