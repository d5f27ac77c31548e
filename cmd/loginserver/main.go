// Package main runs the login tier: the auth, data and view listeners
// plus the account/content/character repositories and session registry
// they share. Startup sequence grounded on the teacher's cmd/l1jgo/main.go
// run() (config -> logger -> database+migrations -> repositories ->
// network listeners -> signal-driven shutdown), trimmed of the teacher's
// game-world data loading (YAML tables, ECS, Lua) since this tier has no
// game simulation of its own.
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/ixfflogin/server/internal/charrouter"
	"github.com/ixfflogin/server/internal/config"
	"github.com/ixfflogin/server/internal/connlimit"
	"github.com/ixfflogin/server/internal/handler"
	"github.com/ixfflogin/server/internal/handler/view"
	"github.com/ixfflogin/server/internal/logging"
	"github.com/ixfflogin/server/internal/session"
	"github.com/ixfflogin/server/internal/store"
	"github.com/ixfflogin/server/internal/worldreg"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfgPath := "config/loginserver.toml"
	if p := os.Getenv("IXFFLOGIN_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.LoadLogin(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	db, err := store.NewDB(ctx, cfg.DB)
	cancel()
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
	log.Info("migrations applied")

	limiter := connlimit.New(connlimit.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	defer limiter.Close()
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	err = limiter.Ping(pingCtx)
	pingCancel()
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	log.Info("redis connected")

	accounts := store.NewAccountRepo(db)
	contents := store.NewContentRepo(db)
	characters := store.NewCharacterRepo(db)
	worldRows, err := store.NewWorldRepo(db).ListActive(context.Background())
	if err != nil {
		return fmt.Errorf("load worlds: %w", err)
	}

	worldCtx, worldCancel := context.WithTimeout(context.Background(), 30*time.Second)
	worlds, err := worldreg.Load(worldCtx, worldRows, log)
	worldCancel()
	if err != nil {
		return fmt.Errorf("world registry: %w", err)
	}
	defer worlds.Close()
	log.Info("world brokers connected", zap.Int("count", len(worlds.List(false))))

	sessions := session.NewRegistry()

	// Every world's broker connection routes its acks/CHAR_UPDATE traffic
	// back into the session registry through one charrouter.Router each
	// (spec §4.8).
	for _, w := range worlds.List(false) {
		router := charrouter.New(w.ID, sessions, characters, log)
		w.RegisterHandler(router.Handle)
	}

	deps := &handler.Deps{
		Accounts:   accounts,
		Contents:   contents,
		Characters: characters,
		Sessions:   sessions,
		Worlds:     worlds,
		Limiter:    limiter,
		Config:     cfg,
		Log:        log,
	}

	ctx, cancel = context.WithCancel(context.Background())
	defer cancel()

	authLn, err := net.Listen("tcp", fmt.Sprintf("%s:%d", cfg.Listen.LoginIP, cfg.Listen.AuthPort))
	if err != nil {
		return fmt.Errorf("listen auth port: %w", err)
	}
	defer authLn.Close()
	go handler.ServeAuth(ctx, authLn, deps)

	dataLn, err := net.Listen("tcp", fmt.Sprintf("%s:%d", cfg.Listen.LoginIP, cfg.Listen.DataPort))
	if err != nil {
		return fmt.Errorf("listen data port: %w", err)
	}
	defer dataLn.Close()
	go handler.ServeData(ctx, dataLn, deps)

	viewLn, err := net.Listen("tcp", fmt.Sprintf("%s:%d", cfg.Listen.LoginIP, cfg.Listen.ViewPort))
	if err != nil {
		return fmt.Errorf("listen view port: %w", err)
	}
	defer viewLn.Close()
	go view.Serve(ctx, viewLn, deps)

	go worlds.Run(ctx)

	log.Info("loginserver ready",
		zap.String("auth_addr", authLn.Addr().String()),
		zap.String("data_addr", dataLn.Addr().String()),
		zap.String("view_addr", viewLn.Addr().String()))

	sweepTicker := time.NewTicker(30 * time.Second)
	defer sweepTicker.Stop()

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-sweepTicker.C:
			expired := sessions.SweepExpired(time.Now())
			if len(expired) > 0 {
				log.Info("swept expired sessions", zap.Int("count", len(expired)))
			}
		case sig := <-shutdownCh:
			log.Info("shutdown signal received", zap.String("signal", sig.String()))
			cancel()
			return nil
		}
	}
}
