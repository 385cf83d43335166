package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"wellmeet/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Telegram   TelegramConfig   `yaml:"telegram"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
	Upstream   UpstreamConfig   `yaml:"upstream"`
	Dialog     DialogConfig     `yaml:"dialog"`
	Booking    BookingConfig    `yaml:"booking"`
	Bot        BotConfig        `yaml:"bot"`
	Server     ServerConfig     `yaml:"server"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type TelegramConfig struct {
	BotToken string `yaml:"bot_token"`
	Debug    bool   `yaml:"debug"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

// UpstreamConfig points at the restaurant/reservation/notification services.
type UpstreamConfig struct {
	BaseURL         string  `yaml:"base_url"`
	APIKey          string  `yaml:"api_key"`
	APIExtra        string  `yaml:"api_extra"`
	MemberID        string  `yaml:"member_id"`
	TimeoutSeconds  int     `yaml:"timeout_seconds"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
	RPS             float64 `yaml:"rps"`
	Burst           int     `yaml:"burst"`
}

type DialogConfig struct {
	Mode            string `yaml:"mode"`
	ThinkingDelayMs int    `yaml:"thinking_delay_ms"`
}

type BookingConfig struct {
	Backend                    string   `yaml:"backend"`
	AdultPrice                 int64    `yaml:"adult_price"`
	ChildPrice                 int64    `yaml:"child_price"`
	LunchSlots                 []string `yaml:"lunch_slots"`
	DinnerSlots                []string `yaml:"dinner_slots"`
	QuickReservationTTLMinutes int      `yaml:"quick_reservation_ttl_minutes"`
}

type BotConfig struct {
	RateLimitMessages int `yaml:"rate_limit_messages"`
	RateLimitWindow   int `yaml:"rate_limit_window"`
	SessionTTLHours   int `yaml:"session_ttl_hours"`
}

// ServerConfig configures the local upstream server used with the local backend.
type ServerConfig struct {
	Port    int            `yaml:"port"`
	APIKeys []APIClientKey `yaml:"api_keys"`
	RPS     float64        `yaml:"rps"`
	Burst   int            `yaml:"burst"`
}

type APIClientKey struct {
	Name  string `yaml:"name"`
	Key   string `yaml:"key"`
	Extra string `yaml:"extra"`
}

const (
	BackendRemote = "remote"
	BackendLocal  = "local"
)

var slotPattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

func Load(configPath string) (*Config, error) {
	// .env is optional; a missing file is not an error.
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	switch c.Dialog.Mode {
	case models.DialogModeFixed, models.DialogModeFreeText:
	default:
		return fmt.Errorf("unknown dialog mode %q", c.Dialog.Mode)
	}

	switch c.Booking.Backend {
	case BackendRemote:
		if strings.TrimSpace(c.Upstream.BaseURL) == "" {
			return errors.New("upstream base_url is required for remote booking backend")
		}
	case BackendLocal:
		if c.Database.Path == "" {
			return errors.New("database path is required for local booking backend")
		}
	default:
		return fmt.Errorf("unknown booking backend %q", c.Booking.Backend)
	}

	if c.Booking.AdultPrice <= 0 || c.Booking.ChildPrice < 0 {
		return errors.New("booking prices must be positive")
	}

	return ValidateSlots(c.Booking.LunchSlots, c.Booking.DinnerSlots)
}

// ValidateSlots checks HH:MM format and that the lunch and dinner grids are disjoint.
func ValidateSlots(lunch, dinner []string) error {
	seen := make(map[string]bool)
	for _, slot := range append(append([]string(nil), lunch...), dinner...) {
		if !slotPattern.MatchString(slot) {
			return fmt.Errorf("invalid time slot %q", slot)
		}
		if seen[slot] {
			return fmt.Errorf("duplicate time slot %q", slot)
		}
		seen[slot] = true
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "wellmeet"
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}

	if c.Upstream.MemberID == "" {
		c.Upstream.MemberID = "1"
	}
	if c.Upstream.TimeoutSeconds == 0 {
		c.Upstream.TimeoutSeconds = 10
	}
	if c.Upstream.RPS == 0 {
		c.Upstream.RPS = 10
	}
	if c.Upstream.Burst == 0 {
		c.Upstream.Burst = 5
	}

	if c.Dialog.Mode == "" {
		c.Dialog.Mode = models.DialogModeFixed
	}
	if c.Dialog.ThinkingDelayMs == 0 {
		c.Dialog.ThinkingDelayMs = models.DefaultThinkingDelayMs
	}

	if c.Booking.Backend == "" {
		c.Booking.Backend = BackendRemote
	}
	if c.Booking.AdultPrice == 0 {
		c.Booking.AdultPrice = models.DefaultAdultPrice
	}
	if c.Booking.ChildPrice == 0 {
		c.Booking.ChildPrice = models.DefaultChildPrice
	}
	if len(c.Booking.LunchSlots) == 0 {
		c.Booking.LunchSlots = append([]string(nil), models.DefaultLunchSlots...)
	}
	if len(c.Booking.DinnerSlots) == 0 {
		c.Booking.DinnerSlots = append([]string(nil), models.DefaultDinnerSlots...)
	}
	if c.Booking.QuickReservationTTLMinutes == 0 {
		c.Booking.QuickReservationTTLMinutes = models.QuickReservationTTLMinutes
	}

	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}

	if c.Bot.RateLimitMessages == 0 {
		c.Bot.RateLimitMessages = models.RateLimitMessages
	}
	if c.Bot.RateLimitWindow == 0 {
		c.Bot.RateLimitWindow = models.RateLimitWindow
	}
	if c.Bot.SessionTTLHours == 0 {
		c.Bot.SessionTTLHours = models.SessionTTLHours
	}
}
