// Package config loads and validates the stashd YAML configuration.
// The config is loaded once at startup and distributed as an immutable
// handle; nothing mutates it afterwards.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// DBConfig holds database settings.
type DBConfig struct {
	Path string `yaml:"path" validate:"required"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Bind        string `yaml:"bind"`
	Port        int    `yaml:"port" validate:"min=1,max=65535"`
	MaxUploadMB int    `yaml:"max_upload_mb" validate:"min=1,max=102400"`
}

// SessionConfig holds session lifetime settings.
type SessionConfig struct {
	TTLHours int `yaml:"ttl_hours" validate:"min=1,max=720"`
}

// MailConfig holds SMTP settings for outbound notifications. Password is
// intentionally absent: it is read from the STASHD_SMTP_PASSWORD environment
// variable so that credentials never live in the config file.
type MailConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port" validate:"omitempty,min=1,max=65535"`
	Username string `yaml:"username"`
	From     string `yaml:"from" validate:"omitempty,email"`
	Support  string `yaml:"support" validate:"omitempty,email"`
	Domain   string `yaml:"domain"`
}

// Config mirrors the stashd.yaml schema.
type Config struct {
	Log     LogConfig     `yaml:"log"`
	DB      DBConfig      `yaml:"db"`
	Storage StorageConfig `yaml:"storage"`
	HTTP    HTTPConfig    `yaml:"http"`
	Session SessionConfig `yaml:"session"`
	Mail    MailConfig    `yaml:"mail"`
}

// StorageConfig holds the storage tree settings.
type StorageConfig struct {
	Root string `yaml:"root" validate:"required"`
}

// SessionTTL returns the configured session lifetime.
func (c Config) SessionTTL() time.Duration {
	return time.Duration(c.Session.TTLHours) * time.Hour
}

// MaxUploadBytes returns the upload limit in bytes.
func (c Config) MaxUploadBytes() int64 {
	return int64(c.HTTP.MaxUploadMB) << 20
}

var structValidator = validator.New()

// Load reads a YAML config file, applies defaults, and validates it.
// Relative db/storage paths are resolved against the config file directory.
func Load(path string) (Config, error) {
	var c Config
	if path == "" {
		return c, errors.New("config path is required")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return c, err
	}
	applyDefaults(&c)

	base := filepath.Dir(path)
	c.DB.Path = resolvePath(base, c.DB.Path)
	c.Storage.Root = resolvePath(base, c.Storage.Root)

	if err := validate(&c); err != nil {
		return Config{}, err
	}
	return c, nil
}

// applyDefaults populates zero-values with sane defaults.
func applyDefaults(c *Config) {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.DB.Path == "" {
		c.DB.Path = "./data/stashd.db"
	}
	if c.Storage.Root == "" {
		c.Storage.Root = "./data/storage"
	}
	if c.HTTP.Bind == "" {
		c.HTTP.Bind = "127.0.0.1"
	}
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 5140
	}
	if c.HTTP.MaxUploadMB == 0 {
		c.HTTP.MaxUploadMB = 512
	}
	if c.Session.TTLHours == 0 {
		c.Session.TTLHours = 12
	}
	if c.Mail.Port == 0 {
		c.Mail.Port = 587
	}
}

// validate runs declarative struct-tag validation plus the rules that cannot
// be expressed in tags.
func validate(c *Config) error {
	if err := structValidator.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			e := verrs[0]
			return fmt.Errorf("config: %s fails %q validation", e.Namespace(), e.Tag())
		}
		return err
	}
	if _, err := parseLevelName(c.Log.Level); err != nil {
		return fmt.Errorf("config: log.level: %w", err)
	}
	// Mail settings are optional as a group but incomplete groups are a
	// misconfiguration, not a disabled mailer.
	set := c.Mail.Host != ""
	if set && (c.Mail.From == "" || c.Mail.Domain == "") {
		return errors.New("config: mail.from and mail.domain are required when mail.host is set")
	}
	return nil
}

func parseLevelName(s string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug", "info", "warn", "warning", "error", "err":
		return s, nil
	default:
		return "", errors.New("invalid log level")
	}
}

func resolvePath(baseDir, p string) string {
	p = strings.TrimSpace(p)
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(baseDir, p)
}
