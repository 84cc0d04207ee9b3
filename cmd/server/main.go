package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/plunderhq/plunder-server/internal/config"
	"github.com/plunderhq/plunder-server/internal/engine"
	"github.com/plunderhq/plunder-server/internal/ledger"
	"github.com/plunderhq/plunder-server/internal/poker"
	"github.com/plunderhq/plunder-server/internal/random"
	"github.com/plunderhq/plunder-server/internal/repository"
	"github.com/plunderhq/plunder-server/internal/server"
)

var (
	configPath = flag.String("config", "config/config.yaml", "path to configuration file")
	version    = "dev" // set via ldflags during build
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := initLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting plunder server",
		zap.String("version", version),
		zap.String("config", *configPath),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	rules, err := config.NewGameConfigProvider(cfg.Game)
	if err != nil {
		logger.Fatal("invalid game configuration", zap.Error(err))
	}
	logger.Info("game rules loaded", zap.Int("active_version", cfg.Game.ActiveVersion))

	rng, err := newRandomSource(cfg.Random)
	if err != nil {
		logger.Fatal("failed to initialize random source", zap.Error(err))
	}

	cards := ledger.NewCardLedger(logger)
	players := ledger.NewPlayerLedger(logger)
	rewards := ledger.NewRewardLedger(logger)

	eng := engine.New(rules, cards, players, rewards, rng, poker.NewEvaluator(), logger)

	if cfg.Database.Enabled {
		db, err := repository.NewDB(ctx, cfg.Database, logger)
		if err != nil {
			logger.Fatal("failed to connect to database", zap.Error(err))
		}
		defer db.Close()

		stats := db.Stat()
		logger.Info("database connection pool initialized",
			zap.Int32("total_conns", stats.TotalConns()),
			zap.Int32("idle_conns", stats.IdleConns()),
		)

		attackRepo := repository.NewAttackRepository(db, logger)
		if err := attackRepo.EnsureSchema(ctx); err != nil {
			logger.Fatal("failed to create archive schema", zap.Error(err))
		}

		archiver := repository.NewArchiver(attackRepo, eng, logger)
		eng.Observations().Subscribe(archiver.Observe)
		go archiver.Run(ctx)
		logger.Info("attack archiver running")
	} else {
		logger.Info("database disabled, attacks will not be archived")
	}

	gateway := server.NewGateway(cfg.Server.HTTP, eng, cards, rewards, logger)

	errChan := make(chan error, 1)
	go func() {
		errChan <- gateway.Start(ctx)
	}()

	logger.Info("plunder server initialized",
		zap.String("version", version),
		zap.String("http_address", cfg.Server.HTTP.Address),
	)

	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
	case err := <-errChan:
		if err != nil {
			logger.Error("gateway error", zap.Error(err))
		}
	}

	logger.Info("shutting down gracefully...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.HTTP.ShutdownTimeout)
	defer shutdownCancel()
	if err := gateway.Shutdown(shutdownCtx); err != nil {
		logger.Error("gateway shutdown error", zap.Error(err))
	}

	logger.Info("plunder server stopped")
}

// newRandomSource builds the draw source from the configured seed, or
// generates a fresh one when no seed is committed.
func newRandomSource(cfg config.RandomConfig) (*random.SeedSource, error) {
	if cfg.Seed == "" {
		return random.NewCryptoSeedSource()
	}
	return random.NewSeedSource([]byte(cfg.Seed))
}

// initLogger initializes the zap logger based on configuration
func initLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
