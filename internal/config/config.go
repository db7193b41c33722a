// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/adhocore/gronx"
	"gopkg.in/yaml.v3"

	"telegram-media-relay/internal/domain/model"
)

type RuntimeConfig struct {
	Dev bool
}

type BotConfig struct {
	Token           string `yaml:"token"`
	BroadcastChatID int64  `yaml:"broadcast_chat_id"` // scheduled posts go here
	ModeratorChatID int64  `yaml:"moderator_chat_id"` // submissions and feedback go here
	Workers         int    `yaml:"workers"`           // update workers; 1 keeps updates strictly ordered
	PollTimeout     int    `yaml:"poll_timeout"`      // long-poll timeout in seconds
	Debug           bool   `yaml:"debug"`
	DryRun          bool   `yaml:"dry_run"` // log outbound calls instead of talking to Telegram
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type AdminConfig struct {
	Port      int           `yaml:"port"` // 0 disables the admin server
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	MaxConns int32  `yaml:"max_conns"`
}

type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type LedgerConfig struct {
	Driver string `yaml:"driver"` // json|sqlite|postgres
	Path   string `yaml:"path"`   // json file or sqlite database file
}

type StateConfig struct {
	Driver        string        `yaml:"driver"` // memory|redis
	TTL           time.Duration `yaml:"ttl"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

type MediaConfig struct {
	VideoFolder string `yaml:"video_folder"`
	ImageFolder string `yaml:"image_folder"`
}

type SchedulerConfig struct {
	Timezone     string                `yaml:"timezone"`
	PollInterval time.Duration         `yaml:"poll_interval"`
	JobTimeout   time.Duration         `yaml:"job_timeout"`
	Entries      []model.ScheduleEntry `yaml:"entries"`
}

type RelayConfig struct {
	ArchiveDir     string `yaml:"archive_dir"` // empty disables archiving
	ArchiveWorkers int    `yaml:"archive_workers"`
}

type Config struct {
	Bot       BotConfig       `yaml:"bot"`
	Log       LogConfig       `yaml:"log"`
	Admin     AdminConfig     `yaml:"admin"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Ledger    LedgerConfig    `yaml:"ledger"`
	State     StateConfig     `yaml:"state"`
	Media     MediaConfig     `yaml:"media"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Relay     RelayConfig     `yaml:"relay"`

	Runtime RuntimeConfig `yaml:"-"`
}

const (
	DefaultVideoFolder = "path/to/your/video/folder"
	DefaultImageFolder = "path/to/your/image/folder"
)

// Option adjusts the loaded config before validation, e.g. from command-line flags.
type Option func(*Config)

// WithDryRun forces dry-run mode on when enabled; it never turns it off.
func WithDryRun(enabled bool) Option {
	return func(c *Config) {
		if enabled {
			c.Bot.DryRun = true
		}
	}
}

// LoadConfig reads the YAML file at path (a missing file is allowed), applies
// environment overrides and defaults, then validates the result.
func LoadConfig(path string, dev bool, opts ...Option) (*Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
		// environment-only deployment
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	cfg.Runtime.Dev = dev
	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) error {
	setStr := func(dst *string, key string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
	setInt64 := func(dst *int64, key string) error {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			return nil
		}
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("env %s: %w", key, err)
		}
		*dst = n
		return nil
	}

	setStr(&cfg.Bot.Token, "BOT_TOKEN")
	if err := setInt64(&cfg.Bot.BroadcastChatID, "CHAT_ID"); err != nil {
		return err
	}
	if err := setInt64(&cfg.Bot.ModeratorChatID, "MOD_CHAT_ID"); err != nil {
		return err
	}
	setStr(&cfg.Media.VideoFolder, "VIDEO_FOLDER")
	setStr(&cfg.Media.ImageFolder, "IMAGE_FOLDER")
	setStr(&cfg.Ledger.Path, "LEDGER_PATH")
	setStr(&cfg.Database.URL, "DATABASE_URL")
	setStr(&cfg.Redis.URL, "REDIS_URL")
	setStr(&cfg.Admin.JWTSecret, "ADMIN_JWT_SECRET")
	if v := strings.TrimSpace(os.Getenv("DRY_RUN")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("env DRY_RUN: %w", err)
		}
		cfg.Bot.DryRun = b
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Bot.Workers <= 0 {
		cfg.Bot.Workers = 1
	}
	if cfg.Bot.PollTimeout <= 0 {
		cfg.Bot.PollTimeout = 60
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Admin.TokenTTL <= 0 {
		cfg.Admin.TokenTTL = 24 * time.Hour
	}
	if cfg.Database.MaxConns <= 0 {
		cfg.Database.MaxConns = 4
	}
	cfg.Ledger.Driver = strings.ToLower(strings.TrimSpace(cfg.Ledger.Driver))
	if cfg.Ledger.Driver == "" {
		cfg.Ledger.Driver = "json"
	}
	if cfg.Ledger.Path == "" {
		if cfg.Ledger.Driver == "sqlite" {
			cfg.Ledger.Path = "sent_files.db"
		} else {
			cfg.Ledger.Path = "sent_files.json"
		}
	}
	cfg.State.Driver = strings.ToLower(strings.TrimSpace(cfg.State.Driver))
	if cfg.State.Driver == "" {
		cfg.State.Driver = "memory"
	}
	if cfg.State.TTL <= 0 {
		cfg.State.TTL = 15 * time.Minute
	}
	if cfg.State.SweepInterval <= 0 {
		cfg.State.SweepInterval = time.Minute
	}
	if cfg.Media.VideoFolder == "" {
		cfg.Media.VideoFolder = DefaultVideoFolder
	}
	if cfg.Media.ImageFolder == "" {
		cfg.Media.ImageFolder = DefaultImageFolder
	}
	if cfg.Scheduler.PollInterval <= 0 {
		cfg.Scheduler.PollInterval = time.Second
	}
	if cfg.Scheduler.JobTimeout <= 0 {
		cfg.Scheduler.JobTimeout = 5 * time.Minute
	}
	if len(cfg.Scheduler.Entries) == 0 {
		cfg.Scheduler.Entries = []model.ScheduleEntry{
			{Name: "weekly-video", Cron: "0 10 * * 1", Folder: cfg.Media.VideoFolder},
			{Name: "weekly-image", Cron: "0 10 * * 5", Folder: cfg.Media.ImageFolder},
		}
	}
	if cfg.Relay.ArchiveWorkers <= 0 {
		cfg.Relay.ArchiveWorkers = 2
	}
}

// Validate performs the minimal checks needed before anything is wired.
func (c *Config) Validate() error {
	if c.Bot.Token == "" && !c.Bot.DryRun {
		return errors.New("bot.token (BOT_TOKEN) is required")
	}
	if c.Bot.BroadcastChatID == 0 {
		return errors.New("bot.broadcast_chat_id (CHAT_ID) is required")
	}
	if c.Bot.ModeratorChatID == 0 {
		return errors.New("bot.moderator_chat_id (MOD_CHAT_ID) is required")
	}

	switch c.Ledger.Driver {
	case "json", "sqlite":
	case "postgres":
		if c.Database.URL == "" {
			return errors.New("database.url is required for the postgres ledger")
		}
	default:
		return fmt.Errorf("unknown ledger.driver %q", c.Ledger.Driver)
	}

	switch c.State.Driver {
	case "memory":
	case "redis":
		if c.Redis.URL == "" {
			return errors.New("redis.url is required for the redis state store")
		}
	default:
		return fmt.Errorf("unknown state.driver %q", c.State.Driver)
	}

	if _, err := c.Location(); err != nil {
		return err
	}

	gron := gronx.New()
	seen := make(map[string]struct{}, len(c.Scheduler.Entries))
	for _, e := range c.Scheduler.Entries {
		if _, err := model.NewScheduleEntry(e.Name, e.Cron, e.Folder); err != nil {
			return err
		}
		if !gron.IsValid(e.Cron) {
			return fmt.Errorf("schedule %q: invalid cron expression %q", e.Name, e.Cron)
		}
		if _, dup := seen[e.Name]; dup {
			return fmt.Errorf("schedule %q is defined twice", e.Name)
		}
		seen[e.Name] = struct{}{}
	}
	return nil
}

// Location resolves scheduler.timezone; empty means the process local zone.
func (c *Config) Location() (*time.Location, error) {
	if c.Scheduler.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Scheduler.Timezone)
	if err != nil {
		return nil, fmt.Errorf("scheduler.timezone: %w", err)
	}
	return loc, nil
}
