package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadp "smart-loan-recovery/internal/adapter/http"
	"smart-loan-recovery/internal/adapter/middleware"
	"smart-loan-recovery/internal/adapter/repository/gormsql"
	"smart-loan-recovery/internal/config"
	"smart-loan-recovery/internal/infrastructure/cache"
	"smart-loan-recovery/internal/infrastructure/db"
	"smart-loan-recovery/internal/infrastructure/events"
	"smart-loan-recovery/internal/infrastructure/logging"
	"smart-loan-recovery/internal/infrastructure/scheduler"
	"smart-loan-recovery/internal/usecase/loan"
	"smart-loan-recovery/internal/usecase/recovery"
	"smart-loan-recovery/internal/usecase/snapshot"
	"smart-loan-recovery/internal/usecase/user"
)

func main() {
	if err := run(); err != nil {
		slog.Error("api stopped", "err", err)
		os.Exit(1)
	}
}

// run returns instead of exiting so every deferred close runs on failure.
func run() error {

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logger := logging.New(cfg.LogLevel)
	slog.SetDefault(logger)
	if cfg.UsingDevSecret() {
		logger.Warn("SESSION_SECRET not set, using the built-in development secret")
	}

	gdb, err := db.OpenGorm(cfg.StoreDriver, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}
	defer db.Close(gdb)
	if err := gormsql.AutoMigrate(gdb); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	rdb, err := cache.OpenRedis(cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	var revoker middleware.Revoker
	if rdb != nil {
		defer rdb.Close()
		revoker = middleware.NewRedisRevoker(rdb)
	} else {
		logger.Info("REDIS_ADDR not set, idempotency and logout revocation disabled")
	}

	pub := events.New(cfg.AMQPURL, logger)
	defer pub.Close()

	users := gormsql.NewUserRepository(gdb)
	loans := gormsql.NewLoanRepository(gdb)
	tx := gormsql.NewGormUoW(gdb)

	loanUC := loan.NewUsecase(loans, users, tx, pub, cfg.DefaultAfterMissed, logger)

	e := httpadp.NewRouter(httpadp.Deps{
		Users:          user.NewUsecase(users),
		Loans:          loanUC,
		Recovery:       recovery.NewUsecase(loans),
		Snapshot:       snapshot.NewUsecase(users, loans, tx),
		Sessions:       middleware.NewSessions(cfg.SessionSecret, cfg.SessionTTL, cfg.CookieSecure, revoker, logger),
		Redis:          rdb,
		IdempotencyTTL: cfg.IdempotencyTTL(),
		Log:            logger,
	})

	sched := scheduler.New(cfg.OverdueSweepSchedule, loanUC.Sweep, logger)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("scheduler: %w", err)
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.ServerAddr(), "store", cfg.StoreDriver)
		if err := e.Start(cfg.ServerAddr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	var runErr error
	select {
	case <-quit:
		logger.Info("shutting down")
	case err := <-serveErr:
		runErr = fmt.Errorf("server: %w", err)
	}

	<-sched.Stop().Done()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Error("shutdown", "err", err)
	}
	return runErr
}
