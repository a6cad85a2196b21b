package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"Stardust/internal/model"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if got := cfg.Rules(); got != model.DefaultRules() {
		t.Errorf("default rules mismatch:\n got %+v\nwant %+v", got, model.DefaultRules())
	}
	if cfg.Game.MaxEnergy != 1000 || cfg.Schedule.Midnight != "0 0 0 * * *" || cfg.Database.Backend != "sqlite" {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error without player.id")
	}
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "config.yaml", `
player:
  id: "1001"
  display_name: Nova
game:
  max_energy: 1500
  offline_min: 2m
  hold_tick: 50ms
database:
  backend: file
  snapshot_dir: /tmp/players
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	if cfg.Player.ID != "1001" || cfg.Game.MaxEnergy != 1500 {
		t.Errorf("unexpected config %+v", cfg)
	}
	r := cfg.Rules()
	if r.OfflineMin != 2*time.Minute || r.HoldTick != 50*time.Millisecond {
		t.Errorf("durations not parsed: %+v", r)
	}
	if r.EnergyRefill != 30*time.Minute {
		t.Errorf("missing field should default, got %v", r.EnergyRefill)
	}
}

func TestLoadTOML(t *testing.T) {
	path := writeFile(t, "config.toml", `
[player]
id = "42"

[game]
energy_refill = "10m"
tick_earn_factor = 0.5

[api]
addr = ":9090"
metrics = true
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Player.ID != "42" || cfg.API.Addr != ":9090" || !cfg.API.Metrics {
		t.Errorf("unexpected config %+v", cfg)
	}
	if cfg.Game.EnergyRefill != 10*time.Minute || cfg.Game.TickEarnFactor != 0.5 {
		t.Errorf("game section not parsed: %+v", cfg.Game)
	}
}

func TestEnvOverrides(t *testing.T) {
	path := writeFile(t, "config.yaml", "player:\n  id: file-id\n")
	t.Setenv("STARDUST_PLAYER_ID", "env-id")
	t.Setenv("SQLITE_PATH", "/var/lib/stardust.db")
	t.Setenv("STARDUST_MAX_ENERGY", "2000")
	t.Setenv("TELEGRAM_BOT_TOKEN", "token")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Player.ID != "env-id" || cfg.Database.SQLitePath != "/var/lib/stardust.db" || cfg.Game.MaxEnergy != 2000 {
		t.Errorf("env overrides not applied: %+v", cfg)
	}
	if err := cfg.Validate(); err == nil {
		t.Error("bot token without chat id should fail validation")
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"negative earn factor", func(c *Config) { c.Game.TickEarnFactor = -1 }},
		{"zero hold tick", func(c *Config) { c.Game.HoldTick = 0 }},
		{"unknown backend", func(c *Config) { c.Database.Backend = "redis" }},
		{"negative offline min", func(c *Config) { c.Game.OfflineMin = -time.Second }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			cfg.Player.ID = "p"
			applyDefaults(cfg)
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	path := writeFile(t, "config.yaml", "player: [")
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}
