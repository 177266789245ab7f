package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Server struct {
		Addr       string `yaml:"addr"`
		AdminToken string `yaml:"admin_token"`
	} `yaml:"server"`
	Accounts struct {
		Admin string `yaml:"admin"`
		Vault string `yaml:"vault"`
	} `yaml:"accounts"`
	Vault struct {
		StateFile    string `yaml:"state_file"`
		MinHealthBps int64  `yaml:"min_health_bps"`
	} `yaml:"vault"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Cache struct {
		RedisAddr string `yaml:"redis_addr"`
		TTLSecs   int64  `yaml:"ttl_secs"`
	} `yaml:"cache"`
	Schedule struct {
		RenewCron    string `yaml:"renew_cron"`
		HealthCron   string `yaml:"health_cron"`
		SnapshotCron string `yaml:"snapshot_cron"`
	} `yaml:"schedule"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	RateLimit struct {
		Requests   int   `yaml:"requests"`
		WindowSecs int64 `yaml:"window_secs"`
	} `yaml:"rate_limit"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("VAULTD_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("VAULTD_ADMIN_TOKEN"); v != "" {
		cfg.Server.AdminToken = v
	}
	if v := os.Getenv("VAULTD_ADMIN_ACCOUNT"); v != "" {
		cfg.Accounts.Admin = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Cache.RedisAddr = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("MIN_HEALTH_BPS"); v != "" {
		if bps, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Vault.MinHealthBps = bps
		}
	}

	// Defaults
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Accounts.Admin == "" {
		cfg.Accounts.Admin = "operator"
	}
	if cfg.Accounts.Vault == "" {
		cfg.Accounts.Vault = "termvault"
	}
	if cfg.Vault.StateFile == "" {
		cfg.Vault.StateFile = "data/vault_state.json"
	}
	if cfg.Vault.MinHealthBps == 0 {
		cfg.Vault.MinHealthBps = 12000 // 120% coverage
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/termvault.db"
	}
	if cfg.Cache.TTLSecs == 0 {
		cfg.Cache.TTLSecs = 60
	}
	if cfg.Schedule.RenewCron == "" {
		cfg.Schedule.RenewCron = "0 0 1 * * *" // daily 01:00
	}
	if cfg.Schedule.HealthCron == "" {
		cfg.Schedule.HealthCron = "0 0 * * * *" // hourly
	}
	if cfg.Schedule.SnapshotCron == "" {
		cfg.Schedule.SnapshotCron = "0 0 0 * * *" // daily midnight
	}
	if cfg.RateLimit.Requests == 0 {
		cfg.RateLimit.Requests = 30
	}
	if cfg.RateLimit.WindowSecs == 0 {
		cfg.RateLimit.WindowSecs = 60
	}

	return cfg, nil
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if c.Server.AdminToken == "" {
		return fmt.Errorf("server.admin_token is required")
	}
	if c.Accounts.Admin == "" || c.Accounts.Vault == "" {
		return fmt.Errorf("accounts.admin and accounts.vault are required")
	}
	if c.Accounts.Admin == c.Accounts.Vault {
		return fmt.Errorf("accounts.admin and accounts.vault must differ")
	}
	if c.Vault.MinHealthBps < 0 {
		return fmt.Errorf("vault.min_health_bps must not be negative")
	}
	return nil
}
