package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Slack      SlackConfig      `yaml:"slack"`
	Attendance AttendanceConfig `yaml:"attendance"`
	Ledger     LedgerConfig     `yaml:"ledger"`
	Database   DatabaseConfig   `yaml:"database"`
}

// ServerConfig holds the HTTP server configuration.
type ServerConfig struct {
	Enabled         bool          `yaml:"enabled"`
	Port            int           `yaml:"port"`
	RateLimitPerSec float64       `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int           `yaml:"rate_limit_burst"`
	CacheTTLSeconds int           `yaml:"cache_ttl_seconds"`
	CacheTTL        time.Duration `yaml:"-"`
}

// SlackConfig holds the Socket Mode credentials and reply throttling.
type SlackConfig struct {
	Enabled             bool          `yaml:"enabled"`
	BotToken            string        `yaml:"bot_token"`
	AppToken            string        `yaml:"app_token"`
	DirectoryTTLSeconds int           `yaml:"directory_ttl_seconds"`
	DirectoryTTL        time.Duration `yaml:"-"`
	ReplyRatePerSec     float64       `yaml:"reply_rate_per_sec"`
	ReplyBurst          int           `yaml:"reply_burst"`
	Debug               bool          `yaml:"debug"`
}

// AttendanceConfig holds the rules of the attendance core.
type AttendanceConfig struct {
	Channel        string `yaml:"channel"`
	Timezone       string `yaml:"timezone"`
	MatchThreshold int    `yaml:"match_threshold"`
	QueueSize      int    `yaml:"queue_size"`
	// ConfirmSuccess controls whether applied commands get a reply.
	ConfirmSuccess *bool `yaml:"confirm_success"`
}

// LedgerConfig selects the durable ledger backend.
type LedgerConfig struct {
	Backend string `yaml:"backend"` // csv, xlsx or sql
	Path    string `yaml:"path"`
}

// DatabaseConfig holds the database connection configuration for the sql ledger backend.
type DatabaseConfig struct {
	Driver                 string `yaml:"driver"` // sqlite or postgres
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
	LogQueries             bool   `yaml:"log_queries"`
}

// Load reads the configuration from the given path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	cfg.ApplyDefaults()
	return &cfg, nil
}

// ApplyDefaults fills unset values and pulls Slack tokens from the environment.
func (cfg *Config) ApplyDefaults() {
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 5
	}
	cfg.Server.CacheTTL = time.Duration(cfg.Server.CacheTTLSeconds) * time.Second

	if token := os.Getenv("SLACK_BOT_TOKEN"); token != "" {
		cfg.Slack.BotToken = token
	}
	if token := os.Getenv("SLACK_APP_TOKEN"); token != "" {
		cfg.Slack.AppToken = token
	}
	if cfg.Slack.DirectoryTTLSeconds <= 0 {
		cfg.Slack.DirectoryTTLSeconds = 600
	}
	cfg.Slack.DirectoryTTL = time.Duration(cfg.Slack.DirectoryTTLSeconds) * time.Second
	if cfg.Slack.ReplyRatePerSec <= 0 {
		cfg.Slack.ReplyRatePerSec = 1
	}
	if cfg.Slack.ReplyBurst <= 0 {
		cfg.Slack.ReplyBurst = 3
	}

	if cfg.Attendance.Channel == "" {
		cfg.Attendance.Channel = "main"
	}
	if cfg.Attendance.Timezone == "" {
		cfg.Attendance.Timezone = "Asia/Karachi"
	}
	if cfg.Attendance.MatchThreshold <= 0 {
		cfg.Attendance.MatchThreshold = 80
	}
	if cfg.Attendance.QueueSize <= 0 {
		log.Printf("attendance.queue_size is not set or invalid; defaulting to 64")
		cfg.Attendance.QueueSize = 64
	}
	if cfg.Attendance.ConfirmSuccess == nil {
		confirm := true
		cfg.Attendance.ConfirmSuccess = &confirm
	}

	if cfg.Ledger.Backend == "" {
		cfg.Ledger.Backend = "csv"
	}
	if cfg.Ledger.Path == "" {
		switch cfg.Ledger.Backend {
		case "xlsx":
			cfg.Ledger.Path = "attendance_data.xlsx"
		default:
			cfg.Ledger.Path = "attendance_data.csv"
		}
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Database.DSN == "" && cfg.Database.Driver == "sqlite" {
		cfg.Database.DSN = "attendance.db"
	}
}

// ShouldConfirm reports whether applied commands are acknowledged in the channel.
func (a AttendanceConfig) ShouldConfirm() bool {
	return a.ConfirmSuccess == nil || *a.ConfirmSuccess
}
