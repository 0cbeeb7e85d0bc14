package app

import (
	"log/slog"

	"floorguard/internal/domain"
	"floorguard/internal/infra"
	"floorguard/internal/infra/deepbook"
	"floorguard/internal/infra/storage"
	"floorguard/internal/service"
)

// Bootstrap orchestrates the application startup sequence
type Bootstrap struct {
	Config     *infra.Config
	Storage    *storage.Storage
	Credential domain.Credential // nil when no key is configured
}

// NewBootstrap creates a new Bootstrap instance
func NewBootstrap() *Bootstrap {
	return &Bootstrap{}
}

// Initialize performs core system initialization (config, logger, DB, key).
func (b *Bootstrap) Initialize() error {
	slog.Info("🚀 Bootstrapping floorguard...")

	// 1. Load Config
	cfg, err := infra.LoadConfig("configs/config.yaml")
	if err != nil {
		return err // Let main handle the error
	}
	b.Config = cfg

	// 2. Setup Logger
	logger := infra.NewLogger(cfg)
	slog.SetDefault(logger)

	// 3. Initialize Storage (DB)
	store, err := storage.NewStorage()
	if err != nil {
		return err
	}
	b.Storage = store
	slog.Info("✅ Database initialized")

	// 4. Load signing credential. A missing or malformed key is not fatal:
	// the executor rejects every trigger until one is loaded.
	if cfg.Buyback.PrivateKey != "" {
		kp, err := deepbook.ParseKeypair(cfg.Buyback.PrivateKey)
		if err != nil {
			slog.Warn("Failed to parse signing credential, buyback disabled", slog.Any("error", err))
		} else {
			b.Credential = kp
			slog.Info("✅ Signing credential loaded", slog.String("address", kp.Address()))
		}
	} else {
		slog.Warn("No signing credential configured, buyback disabled")
	}

	return nil
}

// RestoreBindings loads persisted pool bindings into the registry so policy
// survives a restart.
func (b *Bootstrap) RestoreBindings(registry *service.PoolRegistry) error {
	bindings, err := b.Storage.GetAllPools()
	if err != nil {
		return err
	}

	restored := 0
	for i := range bindings {
		binding := bindings[i]
		if _, err := registry.RegisterPool(&binding); err != nil {
			slog.Warn("Skipping persisted binding", slog.String("pool", binding.PoolID), slog.Any("error", err))
			continue
		}
		// RegisterPool resets first-time counters; push the persisted ones
		// back so history survives the restart.
		if binding.BuybackCount > 0 || binding.TotalBuybackMicros > 0 {
			registry.RestoreCounters(binding.PoolID, binding.BuybackCount, binding.TotalBuybackMicros, binding.LastTradePrice)
		}
		restored++
	}

	if restored > 0 {
		slog.Info("✅ Pool bindings restored", slog.Int("count", restored))
	}
	return nil
}
