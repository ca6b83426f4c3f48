package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/spf13/viper"

	"github.com/PabloGalante/taskbot/internal/domain"
)

type StorageBackend string

const (
	StorageMemory    StorageBackend = "memory"
	StorageJSON      StorageBackend = "json"
	StorageBadger    StorageBackend = "badger"
	StorageSQLite    StorageBackend = "sqlite"
	StorageFirestore StorageBackend = "firestore"
)

type Config struct {
	Discord  DiscordConfig  `mapstructure:"discord"`
	Timezone string         `mapstructure:"timezone"`
	Storage  StorageConfig  `mapstructure:"storage"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Daily    DailyConfig    `mapstructure:"daily"`
	Timeouts TimeoutsConfig `mapstructure:"timeouts"`
	Log      LogConfig      `mapstructure:"log"`

	location *time.Location
	dailyAt  domain.TimeOfDay
}

type DiscordConfig struct {
	Token   string `mapstructure:"token"`
	GuildID string `mapstructure:"guild_id"` // empty registers commands globally
}

type StorageConfig struct {
	Backend    StorageBackend `mapstructure:"backend"`
	Path       string         `mapstructure:"path"`
	GCPProject string         `mapstructure:"gcp_project"`
}

type HTTPConfig struct {
	Addr string `mapstructure:"addr"` // empty disables the status API
}

type DailyConfig struct {
	At string `mapstructure:"at"`
}

type TimeoutsConfig struct {
	Form      time.Duration `mapstructure:"form"`
	Picker    time.Duration `mapstructure:"picker"`
	Details   time.Duration `mapstructure:"details"`
	PanelView time.Duration `mapstructure:"panel_view"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("discord.token", "")
	v.SetDefault("discord.guild_id", "")
	v.SetDefault("timezone", "Asia/Tokyo")
	v.SetDefault("storage.backend", string(StorageJSON))
	v.SetDefault("storage.path", "data.json")
	v.SetDefault("storage.gcp_project", "")
	v.SetDefault("http.addr", "")
	v.SetDefault("daily.at", "12:00")
	v.SetDefault("timeouts.form", 30*time.Minute)
	v.SetDefault("timeouts.picker", 30*time.Minute)
	v.SetDefault("timeouts.details", 30*time.Minute)
	v.SetDefault("timeouts.panel_view", 30*time.Minute)
	v.SetDefault("log.level", "info")
}

// Load reads the optional YAML file at path, then TASKBOT_* env vars, and builds the config.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("TASKBOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			v.SetConfigType("yaml")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("stat config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return fmt.Errorf("timezone: %w", err)
	}
	c.location = loc

	at, err := domain.ParseTimeOfDay(c.Daily.At)
	if err != nil {
		return fmt.Errorf("daily.at: %w", err)
	}
	c.dailyAt = at

	switch c.Storage.Backend {
	case StorageMemory:
	case StorageJSON, StorageBadger, StorageSQLite:
		if c.Storage.Path == "" {
			return fmt.Errorf("storage.path is required for the %s backend", c.Storage.Backend)
		}
	case StorageFirestore:
		if c.Storage.GCPProject == "" {
			return errors.New("storage.gcp_project is required for the firestore backend")
		}
	default:
		return fmt.Errorf("storage.backend: unknown backend %q", c.Storage.Backend)
	}

	for name, d := range map[string]time.Duration{
		"timeouts.form":       c.Timeouts.Form,
		"timeouts.picker":     c.Timeouts.Picker,
		"timeouts.details":    c.Timeouts.Details,
		"timeouts.panel_view": c.Timeouts.PanelView,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	return nil
}

// Location is the fixed zone every task is expressed in.
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.Local
	}
	return c.location
}

// DailyAt is the local time the reminder sweep runs.
func (c *Config) DailyAt() domain.TimeOfDay {
	return c.dailyAt
}
