// Package main runs one world's agent process: it holds the world's
// broker connection, the in-memory character-slot allocator, and answers
// login's CHAR_RESERVE/CHAR_CREATE/CHAR_DELETE requests (spec §4.10).
// Startup sequence grounded on the teacher's cmd/l1jgo/main.go run()
// (config -> logger -> database+migrations -> dependencies -> signal-
// driven shutdown), trimmed to this process's much smaller dependency set.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/ixfflogin/server/internal/broker"
	"github.com/ixfflogin/server/internal/config"
	"github.com/ixfflogin/server/internal/logging"
	"github.com/ixfflogin/server/internal/store"
	"github.com/ixfflogin/server/internal/worldagent"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfgPath := "config/worldagent.toml"
	if p := os.Getenv("IXFFLOGIN_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.LoadWorld(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()
	log = log.With(zap.Uint32("world_id", cfg.World.WorldID), zap.String("world", cfg.World.WorldName))

	dbCtx, dbCancel := context.WithTimeout(context.Background(), 30*time.Second)
	db, err := store.NewDB(dbCtx, cfg.DB)
	dbCancel()
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer db.Close()
	log.Info("postgresql connected")

	migrateCtx, migrateCancel := context.WithTimeout(context.Background(), 30*time.Second)
	err = store.RunMigrations(migrateCtx, db.Pool)
	migrateCancel()
	if err != nil {
		return fmt.Errorf("migrations: %w", err)
	}

	characters := store.NewCharacterRepo(db)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	brokerCtx, brokerCancel := context.WithTimeout(ctx, 30*time.Second)
	conn, err := broker.Connect(brokerCtx, broker.Options{
		WorldID:  cfg.World.WorldID,
		URL:      cfg.MQ.URL(),
		VHost:    cfg.MQ.VHost,
		Exchange: cfg.MQ.Exchange,
		RouteKey: cfg.MQ.RouteKey,
	}, log)
	brokerCancel()
	if err != nil {
		return fmt.Errorf("broker connect: %w", err)
	}
	defer conn.Close()
	log.Info("broker connected")

	alloc := worldagent.New(cfg.World.WorldID, cfg.MQ.ReservationTTL, characters)
	charHandler := worldagent.NewHandler(alloc, conn, log)
	conn.RegisterHandler(charHandler.Handle)

	runErrCh := make(chan error, 1)
	go func() { runErrCh <- conn.Run(ctx) }()

	log.Info("worldagent ready")

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-shutdownCh:
		log.Info("shutdown signal received", zap.String("signal", sig.String()))
		cancel()
		<-runErrCh
		return nil
	case err := <-runErrCh:
		if err != nil {
			return fmt.Errorf("broker run: %w", err)
		}
		return nil
	}
}
