package infra

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Config holds the full application configuration. LoadConfig reads the yaml
// file, then environment variables override the sensitive values: the signing
// credential is never read from the file.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	API struct {
		DeepBook struct {
			Network string `yaml:"network"` // mainnet, testnet
			RestURL string `yaml:"rest_url"`
			WSURL   string `yaml:"ws_url"`
		} `yaml:"deepbook"`
	} `yaml:"api"`

	Buyback struct {
		Enabled        bool            `yaml:"enabled"`
		DryRun         bool            `yaml:"dry_run"`
		AutoStart      bool            `yaml:"auto_start"`
		MinAmount      decimal.Decimal `yaml:"min_amount"`      // global minimum notional, quote units
		BalanceManager string          `yaml:"balance_manager"` // global fallback sub-account
		PrivateKey     string          `yaml:"-"`               // env only
	} `yaml:"buyback"`

	Cache struct {
		SweepIntervalSec int `yaml:"sweep_interval_sec"`
		MaxAgeSec        int `yaml:"max_age_sec"`
	} `yaml:"cache"`

	Listener struct {
		InboxSize int `yaml:"inbox_size"`
	} `yaml:"listener"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// LoadConfig reads and parses the configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	overrideWithEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks configuration validity
func (c *Config) Validate() error {
	switch c.API.DeepBook.Network {
	case "mainnet", "testnet":
	default:
		return fmt.Errorf("invalid network: %q", c.API.DeepBook.Network)
	}

	if c.API.DeepBook.RestURL == "" || (!hasPrefix(c.API.DeepBook.RestURL, "http://") && !hasPrefix(c.API.DeepBook.RestURL, "https://")) {
		return fmt.Errorf("invalid DeepBook REST URL: %s", c.API.DeepBook.RestURL)
	}
	if c.API.DeepBook.WSURL == "" || (!hasPrefix(c.API.DeepBook.WSURL, "ws://") && !hasPrefix(c.API.DeepBook.WSURL, "wss://")) {
		return fmt.Errorf("invalid DeepBook WS URL: %s", c.API.DeepBook.WSURL)
	}

	if c.Buyback.MinAmount.IsNegative() {
		return fmt.Errorf("minimum buyback amount must not be negative")
	}

	if c.Listener.InboxSize <= 0 {
		return fmt.Errorf("listener inbox size must be positive")
	}
	if c.Cache.SweepIntervalSec <= 0 || c.Cache.MaxAgeSec <= 0 {
		return fmt.Errorf("cache sweep interval and max age must be positive")
	}

	return nil
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[0:len(prefix)] == prefix
}

// overrideWithEnv applies environment overrides for sensitive values.
func overrideWithEnv(cfg *Config) {
	if key := os.Getenv("FLOORGUARD_PRIVATE_KEY"); key != "" {
		cfg.Buyback.PrivateKey = key
	}
	if mgr := os.Getenv("FLOORGUARD_BALANCE_MANAGER"); mgr != "" {
		cfg.Buyback.BalanceManager = mgr
	}
	if network := os.Getenv("FLOORGUARD_NETWORK"); network != "" {
		cfg.API.DeepBook.Network = network
	}
	if enabled := os.Getenv("FLOORGUARD_BUYBACK_ENABLED"); enabled != "" {
		cfg.Buyback.Enabled = enabled == "true" || enabled == "1"
	}
}
