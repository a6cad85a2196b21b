package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"Stardust/internal/model"
)

// GameConfig holds the tunable economy constants.
type GameConfig struct {
	MaxEnergy           float64       `yaml:"max_energy" toml:"max_energy"`
	EnergyRefill        time.Duration `yaml:"energy_refill" toml:"energy_refill"`
	TickEarnFactor      float64       `yaml:"tick_earn_factor" toml:"tick_earn_factor"`
	EnergyDrainPerTick  float64       `yaml:"energy_drain_per_tick" toml:"energy_drain_per_tick"`
	HoldTick            time.Duration `yaml:"hold_tick" toml:"hold_tick"`
	OfflineMin          time.Duration `yaml:"offline_min" toml:"offline_min"`
	WithdrawalCooldown  time.Duration `yaml:"withdrawal_cooldown" toml:"withdrawal_cooldown"`
	AdCooldown          time.Duration `yaml:"ad_cooldown" toml:"ad_cooldown"`
	DailyRewardInterval time.Duration `yaml:"daily_reward_interval" toml:"daily_reward_interval"`
	DefaultBoostTTL     time.Duration `yaml:"default_boost_ttl" toml:"default_boost_ttl"`
	PersistDebounce     time.Duration `yaml:"persist_debounce" toml:"persist_debounce"`
}

// Config holds all application configuration.
type Config struct {
	Player struct {
		ID          string `yaml:"id" toml:"id"`
		DisplayName string `yaml:"display_name" toml:"display_name"`
	} `yaml:"player" toml:"player"`
	Game     GameConfig `yaml:"game" toml:"game"`
	Schedule struct {
		Update   string `yaml:"update" toml:"update"`
		Persist  string `yaml:"persist" toml:"persist"`
		DayCheck string `yaml:"day_check" toml:"day_check"`
		Midnight string `yaml:"midnight" toml:"midnight"`
	} `yaml:"schedule" toml:"schedule"`
	Database struct {
		// Backend is "sqlite" or "file".
		Backend     string `yaml:"backend" toml:"backend"`
		SQLitePath  string `yaml:"sqlite_path" toml:"sqlite_path"`
		JournalPath string `yaml:"journal_path" toml:"journal_path"`
		SnapshotDir string `yaml:"snapshot_dir" toml:"snapshot_dir"`
	} `yaml:"database" toml:"database"`
	Telegram struct {
		BotToken string `yaml:"bot_token" toml:"bot_token"`
		ChatID   string `yaml:"chat_id" toml:"chat_id"`
		Polling  bool   `yaml:"polling" toml:"polling"`
	} `yaml:"telegram" toml:"telegram"`
	Catalog struct {
		URL    string `yaml:"url" toml:"url"`
		APIKey string `yaml:"api_key" toml:"api_key"`
	} `yaml:"catalog" toml:"catalog"`
	Push struct {
		// URL of a hub to subscribe to; empty disables the subscriber.
		URL string `yaml:"url" toml:"url"`
	} `yaml:"push" toml:"push"`
	API struct {
		Addr    string `yaml:"addr" toml:"addr"`
		Metrics bool   `yaml:"metrics" toml:"metrics"`
	} `yaml:"api" toml:"api"`
	Proxy string `yaml:"proxy" toml:"proxy"`
}

// Load reads config from a YAML (or .toml) file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if strings.HasSuffix(strings.ToLower(path), ".toml") {
			err = toml.Unmarshal(data, cfg)
		} else {
			err = yaml.Unmarshal(data, cfg)
		}
		if err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)
	applyDefaults(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("STARDUST_PLAYER_ID"); v != "" {
		cfg.Player.ID = v
	}
	if v := os.Getenv("STARDUST_DISPLAY_NAME"); v != "" {
		cfg.Player.DisplayName = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("STARDUST_CATALOG_URL"); v != "" {
		cfg.Catalog.URL = v
	}
	if v := os.Getenv("STARDUST_CATALOG_API_KEY"); v != "" {
		cfg.Catalog.APIKey = v
	}
	if v := os.Getenv("STARDUST_PUSH_URL"); v != "" {
		cfg.Push.URL = v
	}
	if v := os.Getenv("STARDUST_API_ADDR"); v != "" {
		cfg.API.Addr = v
	}
	if v := os.Getenv("STARDUST_DB_BACKEND"); v != "" {
		cfg.Database.Backend = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("STARDUST_SNAPSHOT_DIR"); v != "" {
		cfg.Database.SnapshotDir = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("STARDUST_MAX_ENERGY"); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Game.MaxEnergy = n
		}
	}
	if v := os.Getenv("STARDUST_OFFLINE_MIN"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Game.OfflineMin = d
		}
	}
}

func applyDefaults(cfg *Config) {
	rules := model.DefaultRules()
	g := &cfg.Game
	if g.MaxEnergy == 0 {
		g.MaxEnergy = model.DefaultMaxEnergy
	}
	if g.EnergyRefill == 0 {
		g.EnergyRefill = rules.EnergyRefill
	}
	if g.TickEarnFactor == 0 {
		g.TickEarnFactor = rules.TickEarnFactor
	}
	if g.EnergyDrainPerTick == 0 {
		g.EnergyDrainPerTick = rules.EnergyDrainPerTick
	}
	if g.HoldTick == 0 {
		g.HoldTick = rules.HoldTick
	}
	if g.OfflineMin == 0 {
		g.OfflineMin = rules.OfflineMin
	}
	if g.WithdrawalCooldown == 0 {
		g.WithdrawalCooldown = rules.WithdrawalCooldown
	}
	if g.AdCooldown == 0 {
		g.AdCooldown = rules.AdCooldown
	}
	if g.DailyRewardInterval == 0 {
		g.DailyRewardInterval = rules.DailyRewardInterval
	}
	if g.DefaultBoostTTL == 0 {
		g.DefaultBoostTTL = rules.DefaultBoostTTL
	}
	if g.PersistDebounce == 0 {
		g.PersistDebounce = 500 * time.Millisecond
	}

	if cfg.Player.DisplayName == "" {
		cfg.Player.DisplayName = "Stargazer"
	}
	if cfg.Schedule.Update == "" {
		cfg.Schedule.Update = "@every 1s"
	}
	if cfg.Schedule.Persist == "" {
		cfg.Schedule.Persist = "@every 5s"
	}
	if cfg.Schedule.DayCheck == "" {
		cfg.Schedule.DayCheck = "@every 60s"
	}
	if cfg.Schedule.Midnight == "" {
		cfg.Schedule.Midnight = "0 0 0 * * *"
	}
	if cfg.Database.Backend == "" {
		cfg.Database.Backend = "sqlite"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/stardust.db"
	}
	if cfg.Database.JournalPath == "" {
		cfg.Database.JournalPath = "data/journal.db"
	}
	if cfg.Database.SnapshotDir == "" {
		cfg.Database.SnapshotDir = "data/players"
	}
	if cfg.API.Addr == "" {
		cfg.API.Addr = ":8080"
	}
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if c.Player.ID == "" {
		return fmt.Errorf("player.id is required")
	}
	g := c.Game
	if g.MaxEnergy <= 0 {
		return fmt.Errorf("game.max_energy must be positive")
	}
	if g.EnergyRefill <= 0 {
		return fmt.Errorf("game.energy_refill must be positive")
	}
	if g.TickEarnFactor < 0 {
		return fmt.Errorf("game.tick_earn_factor must not be negative")
	}
	if g.EnergyDrainPerTick <= 0 {
		return fmt.Errorf("game.energy_drain_per_tick must be positive")
	}
	if g.HoldTick <= 0 {
		return fmt.Errorf("game.hold_tick must be positive")
	}
	if g.OfflineMin < 0 {
		return fmt.Errorf("game.offline_min must not be negative")
	}
	switch c.Database.Backend {
	case "sqlite", "file":
	default:
		return fmt.Errorf("database.backend must be sqlite or file, got %q", c.Database.Backend)
	}
	if c.Telegram.BotToken != "" && c.Telegram.ChatID == "" {
		return fmt.Errorf("telegram.chat_id is required when bot_token is set")
	}
	return nil
}

// Rules converts the game section into reducer rules.
func (c *Config) Rules() model.Rules {
	g := c.Game
	return model.Rules{
		EnergyRefill:        g.EnergyRefill,
		TickEarnFactor:      g.TickEarnFactor,
		EnergyDrainPerTick:  g.EnergyDrainPerTick,
		HoldTick:            g.HoldTick,
		WithdrawalCooldown:  g.WithdrawalCooldown,
		AdCooldown:          g.AdCooldown,
		DailyRewardInterval: g.DailyRewardInterval,
		OfflineMin:          g.OfflineMin,
		DefaultBoostTTL:     g.DefaultBoostTTL,
	}
}
