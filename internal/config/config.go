// Package config loads server settings from an optional TOML file and
// QUESTPET_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/dukerupert/questpet/internal/pet"
)

const envPrefix = "QUESTPET_"

type Config struct {
	Server ServerConfig `toml:"server"`
	DB     DBConfig     `toml:"db"`
	Log    LogConfig    `toml:"log"`
	Game   GameConfig   `toml:"game"`
	Backup BackupConfig `toml:"backup"`
}

type ServerConfig struct {
	Port          string `toml:"port"`
	SessionTTL    string `toml:"session_ttl"`
	SecureCookies bool   `toml:"secure_cookies"`
}

type DBConfig struct {
	Path string `toml:"path"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type GameConfig struct {
	Timezone string `toml:"timezone"`
	// DecayScale divides the per-hour decay rates. 1 applies them as
	// written; 1000 slows the pet down to milli-points per hour.
	DecayScale float64 `toml:"decay_scale"`
}

// BackupConfig points at S3-compatible storage for encrypted snapshots.
// Backups stay off until bucket, keys and passphrase are all set.
type BackupConfig struct {
	Endpoint   string `toml:"endpoint"`
	Bucket     string `toml:"bucket"`
	Region     string `toml:"region"`
	AccessKey  string `toml:"access_key"`
	SecretKey  string `toml:"secret_key"`
	Prefix     string `toml:"prefix"`
	Passphrase string `toml:"passphrase"`
	Interval   string `toml:"interval"`
	Retention  string `toml:"retention"`
}

func Default() Config {
	return Config{
		Server: ServerConfig{Port: "8080", SessionTTL: "720h"},
		DB:     DBConfig{Path: "questpet.db"},
		Log:    LogConfig{Level: "info", Format: "text"},
		Game:   GameConfig{Timezone: "UTC", DecayScale: pet.DefaultScale},
		Backup: BackupConfig{Region: "auto", Interval: "24h", Retention: "720h"},
	}
}

// Load starts from Default, decodes path over it if the file exists, then
// applies environment overrides. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("read config: %w", err)
		default:
			if err := toml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("decode config %s: %w", path, err)
			}
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(envPrefix + key); ok && v != "" {
			*dst = v
		}
	}
	str("PORT", &c.Server.Port)
	str("SESSION_TTL", &c.Server.SessionTTL)
	str("DB_PATH", &c.DB.Path)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)
	str("TIMEZONE", &c.Game.Timezone)
	str("S3_ENDPOINT", &c.Backup.Endpoint)
	str("S3_BUCKET", &c.Backup.Bucket)
	str("S3_REGION", &c.Backup.Region)
	str("S3_ACCESS_KEY", &c.Backup.AccessKey)
	str("S3_SECRET_KEY", &c.Backup.SecretKey)
	str("S3_PREFIX", &c.Backup.Prefix)
	str("BACKUP_PASSPHRASE", &c.Backup.Passphrase)
	str("BACKUP_INTERVAL", &c.Backup.Interval)
	str("BACKUP_RETENTION", &c.Backup.Retention)

	if v, ok := lookup(envPrefix + "SECURE_COOKIES"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sSECURE_COOKIES: %w", envPrefix, err)
		}
		c.Server.SecureCookies = b
	}
	if v, ok := lookup(envPrefix + "DECAY_SCALE"); ok && v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%sDECAY_SCALE: %w", envPrefix, err)
		}
		c.Game.DecayScale = f
	}
	return nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Server.Port) == "" {
		return errors.New("server port is required")
	}
	if c.DB.Path == "" {
		return errors.New("db path is required")
	}
	if _, err := c.SessionDuration(); err != nil {
		return err
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.Game.DecayScale <= 0 {
		return fmt.Errorf("decay scale must be positive, got %v", c.Game.DecayScale)
	}
	if _, _, err := c.BackupSchedule(); err != nil {
		return err
	}
	return nil
}

// BackupSchedule parses how often to back up and how long to keep
// snapshots.
func (c Config) BackupSchedule() (interval, retention time.Duration, err error) {
	interval, err = time.ParseDuration(c.Backup.Interval)
	if err != nil || interval <= 0 {
		return 0, 0, fmt.Errorf("backup interval %q: must be a positive duration", c.Backup.Interval)
	}
	retention, err = time.ParseDuration(c.Backup.Retention)
	if err != nil || retention < 0 {
		return 0, 0, fmt.Errorf("backup retention %q: must be a duration", c.Backup.Retention)
	}
	return interval, retention, nil
}

func (c Config) SessionDuration() (time.Duration, error) {
	d, err := time.ParseDuration(c.Server.SessionTTL)
	if err != nil {
		return 0, fmt.Errorf("session ttl: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("session ttl must be positive, got %s", d)
	}
	return d, nil
}

// Location resolves the canonical timezone all due dates are expressed in.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Game.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Game.Timezone, err)
	}
	return loc, nil
}
