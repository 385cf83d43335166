package config

import (
	"os"
	"path/filepath"
	"testing"

	"wellmeet/internal/models"
)

func TestLoadConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	t.Setenv("WELLMEET_TEST_TOKEN", "test_token")

	yamlContent := `
telegram:
  bot_token: "${WELLMEET_TEST_TOKEN}"
upstream:
  base_url: "http://localhost:8080/api"
dialog:
  mode: free_text
booking:
  lunch_slots: ["11:30", "12:00"]
  dinner_slots: ["18:00"]
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Telegram.BotToken != "test_token" {
		t.Errorf("expected bot_token test_token, got %s", cfg.Telegram.BotToken)
	}
	if cfg.Dialog.Mode != models.DialogModeFreeText {
		t.Errorf("expected free_text mode, got %s", cfg.Dialog.Mode)
	}
	if len(cfg.Booking.LunchSlots) != 2 || len(cfg.Booking.DinnerSlots) != 1 {
		t.Errorf("expected configured slots to be kept, got %v / %v", cfg.Booking.LunchSlots, cfg.Booking.DinnerSlots)
	}
	if cfg.Booking.Backend != BackendRemote {
		t.Errorf("expected remote backend by default, got %s", cfg.Booking.Backend)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestValidateConfig(t *testing.T) {
	valid := func() Config {
		cfg := Config{Upstream: UpstreamConfig{BaseURL: "http://upstream"}}
		cfg.applyDefaults()
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid config", mutate: func(c *Config) {}},
		{name: "unknown mode", mutate: func(c *Config) { c.Dialog.Mode = "voice" }, wantErr: true},
		{name: "remote without base url", mutate: func(c *Config) { c.Upstream.BaseURL = "" }, wantErr: true},
		{
			name: "local without database path",
			mutate: func(c *Config) {
				c.Booking.Backend = BackendLocal
				c.Database.Path = ""
			},
			wantErr: true,
		},
		{
			name: "local with database path",
			mutate: func(c *Config) {
				c.Booking.Backend = BackendLocal
				c.Database.Path = "data/wellmeet.db"
			},
		},
		{name: "zero adult price", mutate: func(c *Config) { c.Booking.AdultPrice = 0 }, wantErr: true},
		{name: "overlapping grids", mutate: func(c *Config) { c.Booking.DinnerSlots = []string{"12:00"} }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.applyDefaults()

	if cfg.Dialog.ThinkingDelayMs != models.DefaultThinkingDelayMs {
		t.Errorf("expected default thinking delay %d, got %d", models.DefaultThinkingDelayMs, cfg.Dialog.ThinkingDelayMs)
	}
	if cfg.Booking.AdultPrice != 150000 || cfg.Booking.ChildPrice != 75000 {
		t.Errorf("unexpected default prices %d/%d", cfg.Booking.AdultPrice, cfg.Booking.ChildPrice)
	}
	if len(cfg.Booking.LunchSlots) != len(models.DefaultLunchSlots) {
		t.Errorf("expected default lunch slots, got %v", cfg.Booking.LunchSlots)
	}
	if cfg.Upstream.MemberID != "1" {
		t.Errorf("expected default member id 1, got %s", cfg.Upstream.MemberID)
	}
	if cfg.Bot.RateLimitMessages != models.RateLimitMessages {
		t.Errorf("expected default rate limit messages %d, got %d", models.RateLimitMessages, cfg.Bot.RateLimitMessages)
	}
}

func TestValidateSlots(t *testing.T) {
	tests := []struct {
		name    string
		lunch   []string
		dinner  []string
		wantErr bool
	}{
		{name: "Valid grids", lunch: []string{"11:30", "12:00"}, dinner: []string{"18:00"}},
		{name: "Bad format", lunch: []string{"11h30"}, wantErr: true},
		{name: "Out of range", dinner: []string{"24:00"}, wantErr: true},
		{name: "Shared slot", lunch: []string{"13:00"}, dinner: []string{"13:00"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSlots(tt.lunch, tt.dinner)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSlots() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
