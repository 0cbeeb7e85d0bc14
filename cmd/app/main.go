package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"floorguard/internal/app"
	"floorguard/internal/engine"
	"floorguard/internal/event"
	"floorguard/internal/execution"
	"floorguard/internal/infra"
	"floorguard/internal/infra/deepbook"
	"floorguard/internal/service"

	_ "net/http/pprof" // For pprof profiling
)

func main() {
	// 1. Pprof Server (for performance profiling)
	go func() {
		// Localhost only for security
		slog.Info("🕵️ Pprof server started on localhost:6060")
		if err := http.ListenAndServe("localhost:6060", nil); err != nil {
			slog.Error("Pprof server failed", slog.Any("error", err))
		}
	}()

	// 2. System Bootstrapping
	bootstrap := app.NewBootstrap()
	if err := bootstrap.Initialize(); err != nil {
		slog.Error("❌ Bootstrapping failed", slog.Any("error", err))
		os.Exit(1)
	}
	cfg := bootstrap.Config

	// 3. Graceful Shutdown Context
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 4. Metrics Endpoint
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", infra.MetricsHandler())
		slog.Info("📈 Metrics server started on :9090")
		if err := http.ListenAndServe(":9090", mux); err != nil {
			slog.Error("Metrics server failed", slog.Any("error", err))
		}
	}()

	// 5. Core State: registry + order cache. Binding changes write through
	// to storage so policy and counters survive a restart.
	registry := service.NewPersistentPoolRegistry(bootstrap.Storage)
	cache := service.NewOrderCache()
	cache.StartSweeper(ctx,
		time.Duration(cfg.Cache.SweepIntervalSec)*time.Second,
		time.Duration(cfg.Cache.MaxAgeSec)*time.Second)

	if err := bootstrap.RestoreBindings(registry); err != nil {
		slog.Error("Failed to restore pool bindings", slog.Any("error", err))
	}

	// 6. Exchange Client + Executor + Listener
	client := deepbook.NewClient(cfg.API.DeepBook.RestURL, bootstrap.Credential)

	executor := execution.NewExecutor(registry, client, bootstrap.Credential, bootstrap.Storage, execution.Options{
		Enabled:              cfg.Buyback.Enabled,
		DryRun:               cfg.Buyback.DryRun,
		GlobalMinAmount:      cfg.Buyback.MinAmount,
		GlobalBalanceManager: cfg.Buyback.BalanceManager,
	})
	go executor.Run(ctx)

	listener := engine.NewListener(cfg.Listener.InboxSize, registry, cache, client, executor)
	if cfg.Buyback.AutoStart {
		listener.Start(ctx)
		defer listener.Stop()
	}

	// 7. Event Stream Worker
	nextSeq := uint64(0)
	watched := listener.WatchedPoolIDs()
	if len(watched) > 0 {
		event.Warmup()
		worker := deepbook.NewWorker(cfg.API.DeepBook.WSURL, watched, listener.Inbox(), &nextSeq)
		if err := worker.Connect(ctx); err != nil {
			slog.Error("Failed to connect DeepBook stream", slog.Any("error", err))
		}
		defer worker.Disconnect()
		slog.InfoContext(ctx, "✅ DeepBook stream worker started", slog.Int("pools", len(watched)))
	} else {
		slog.Warn("No pools to watch, event stream not started")
	}

	slog.InfoContext(ctx, "✨ floorguard fully operational. Press Ctrl+C to exit.")

	// Wait for shutdown signal
	<-ctx.Done()

	slog.InfoContext(ctx, "👋 Shutting down gracefully...")
}
