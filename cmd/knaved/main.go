// Package main runs the derive daemon: the gRPC derive service, backed by the
// snapshot store when the database is enabled.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/knave/internal/config"
	"github.com/cory-johannsen/knave/internal/derivesvc"
	"github.com/cory-johannsen/knave/internal/game/derive"
	"github.com/cory-johannsen/knave/internal/game/progression"
	"github.com/cory-johannsen/knave/internal/observability"
	"github.com/cory-johannsen/knave/internal/scripting"
	"github.com/cory-johannsen/knave/internal/server"
	"github.com/cory-johannsen/knave/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting derive daemon",
		zap.String("grpc_addr", cfg.GRPC.Addr()),
		zap.Bool("store_enabled", cfg.Database.Enabled),
	)

	tables := progression.DefaultTables()
	if cfg.Content.TablesFile != "" {
		tables, err = progression.LoadTables(cfg.Content.TablesFile)
		if err != nil {
			logger.Fatal("loading tables", zap.Error(err))
		}
		logger.Info("tables loaded", zap.String("path", cfg.Content.TablesFile))
	}

	lc := server.NewLifecycle(logger, cfg.GRPC.ShutdownTimeout)

	var opts []derivesvc.Option
	if cfg.Scripting.DropOrderScript != "" {
		order, err := scripting.LoadDropOrder(cfg.Scripting.DropOrderScript, cfg.Scripting.InstructionLimit, logger)
		if err != nil {
			logger.Fatal("loading drop-order script", zap.Error(err))
		}
		lc.OnShutdown("drop-order", order.Close)
		opts = append(opts, derivesvc.WithDropOrder(order))
	}

	if cfg.Database.Enabled {
		dbStart := time.Now()
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			logger.Fatal("connecting to database", zap.Error(err))
		}
		if err := pool.Health(ctx, 5*time.Second); err != nil {
			logger.Fatal("database health check", zap.Error(err))
		}
		logger.Info("database connected",
			zap.String("host", cfg.Database.Host),
			zap.Duration("elapsed", time.Since(dbStart)),
		)
		lc.OnShutdown("database", pool.Close)
		opts = append(opts, derivesvc.WithStore(pool.Snapshots()))
	}

	svc := derivesvc.NewService(derive.NewComposer(tables), cfg.Rules, logger, opts...)
	srv, err := derivesvc.NewServer(cfg.GRPC.Addr(), svc, cfg.GRPC.ShutdownTimeout, logger)
	if err != nil {
		logger.Fatal("creating gRPC server", zap.Error(err))
	}
	lc.Add("grpc", srv)

	logger.Info("derive daemon initialized", zap.Duration("startup", time.Since(start)))
	if err := lc.Run(ctx); err != nil {
		logger.Error("derive daemon exited", zap.Error(err))
	}
}
