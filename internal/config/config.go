package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Address         string   `yaml:"address"`
		AllowedOrigins  []string `yaml:"allowed_origins"`
		RateLimitPerSec float64  `yaml:"rate_limit_per_sec"`
		RateLimitBurst  int      `yaml:"rate_limit_burst"`
		HeartbeatSec    int      `yaml:"heartbeat_seconds"`
	} `yaml:"server"`

	Store struct {
		Seed bool `yaml:"seed"`
	} `yaml:"store"`

	Rooms struct {
		CatalogPath      string `yaml:"catalog_path"`
		WatchIntervalSec int    `yaml:"watch_interval_seconds"`
	} `yaml:"rooms"`

	Telegram struct {
		Enabled  bool    `yaml:"enabled"`
		BotToken string  `yaml:"bot_token"`
		Debug    bool    `yaml:"debug"`
		Admins   []int64 `yaml:"admins"`
	} `yaml:"telegram"`

	Journal struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"journal"`

	Backup struct {
		Enabled       bool   `yaml:"enabled"`
		IntervalHours int    `yaml:"interval_hours"`
		Path          string `yaml:"path"`
		RetentionDays int    `yaml:"retention_days"`
	} `yaml:"backup"`

	Audit struct {
		Enabled       bool   `yaml:"enabled"`
		ExportDir     string `yaml:"export_dir"`
		RetentionDays int    `yaml:"retention_days"`
	} `yaml:"audit"`

	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Address  string `yaml:"address"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Channel  string `yaml:"channel"`
	} `yaml:"redis"`

	Google struct {
		Enabled         bool   `yaml:"enabled"`
		CredentialsFile string `yaml:"credentials_file"`
		SpreadsheetID   string `yaml:"spreadsheet_id"`
		SheetName       string `yaml:"sheet_name"`
		GridSheetName   string `yaml:"grid_sheet_name"`
		GridDays        int    `yaml:"grid_days"`
		SyncIntervalSec int    `yaml:"sync_interval_seconds"`
	} `yaml:"google"`

	Reminders struct {
		Enabled       bool `yaml:"enabled"`
		LeadMinutes   int  `yaml:"lead_minutes"`
		IntervalSec   int  `yaml:"interval_seconds"`
		RatePerSecond int  `yaml:"rate_per_second"`

		DigestEnabled  bool   `yaml:"digest_enabled"`
		DigestHour     int    `yaml:"digest_hour"`
		DigestMinute   int    `yaml:"digest_minute"`
		DigestTimezone string `yaml:"digest_timezone"`
	} `yaml:"reminders"`

	Monitoring struct {
		HealthCheckPort   int  `yaml:"health_check_port"`
		GRPCHealthPort    int  `yaml:"grpc_health_port"`
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

func Load(path string) (*Config, error) {
	if path == "" {
		path = "configs/config.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Support ${ENV_VAR} placeholders in YAML config.
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()

	if cfg.Journal.Enabled {
		if err = os.MkdirAll(filepath.Dir(cfg.Journal.Path), 0o755); err != nil {
			return nil, err
		}
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Address == "" {
		c.Server.Address = ":8080"
	}
	if c.Server.RateLimitPerSec <= 0 {
		c.Server.RateLimitPerSec = 20
	}
	if c.Server.RateLimitBurst <= 0 {
		c.Server.RateLimitBurst = 40
	}
	if c.Rooms.CatalogPath == "" {
		c.Rooms.CatalogPath = "configs/rooms.yaml"
	}
	if c.Journal.Path == "" {
		c.Journal.Path = "data/roombook_journal.db"
	}
	if c.Backup.Path == "" {
		c.Backup.Path = "data/backups"
	}
	if c.Audit.ExportDir == "" {
		c.Audit.ExportDir = "data/exports"
	}
	if c.Redis.Channel == "" {
		c.Redis.Channel = "roombook:events"
	}
	if c.Google.SheetName == "" {
		c.Google.SheetName = "Schedule"
	}
	if c.Google.GridSheetName == "" {
		c.Google.GridSheetName = "Grid"
	}
	if c.Google.GridDays <= 0 {
		c.Google.GridDays = 7
	}
	if c.Reminders.DigestTimezone == "" {
		c.Reminders.DigestTimezone = "UTC"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// Heartbeat is the live stream keep-alive period.
func (c *Config) Heartbeat() time.Duration {
	if c.Server.HeartbeatSec <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.Server.HeartbeatSec) * time.Second
}

func (c *Config) RoomsWatchInterval() time.Duration {
	if c.Rooms.WatchIntervalSec <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.Rooms.WatchIntervalSec) * time.Second
}

func (c *Config) BackupInterval() time.Duration {
	if c.Backup.IntervalHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.Backup.IntervalHours) * time.Hour
}

func (c *Config) ReminderLead() time.Duration {
	if c.Reminders.LeadMinutes <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(c.Reminders.LeadMinutes) * time.Minute
}

func (c *Config) ReminderInterval() time.Duration {
	if c.Reminders.IntervalSec <= 0 {
		return time.Minute
	}
	return time.Duration(c.Reminders.IntervalSec) * time.Second
}

func (c *Config) SheetsSyncInterval() time.Duration {
	if c.Google.SyncIntervalSec <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.Google.SyncIntervalSec) * time.Second
}
