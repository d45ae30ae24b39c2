// Package config loads runtime configuration from defaults, an optional YAML
// file and environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
	_ "time/tzdata"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"weightduel/internal/domain"
)

// Storage backends.
const (
	BackendFile     = "file"
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendBadger   = "badger"
)

// DefaultReminderText is sent to every participant by the daily reminder.
const DefaultReminderText = "Доброе утро! 🌅\n" +
	"Пора отправить вес натощак. Нажмите «Внести вес» и введите число (например, 82.4)."

// Config is the full runtime configuration.
type Config struct {
	BotToken string        `yaml:"bot_token"`
	Timezone string        `yaml:"timezone" validate:"required,timezone"`
	Roles    []domain.Role `yaml:"roles" validate:"required,min=1,unique=Key,dive"`
	MealsDir string        `yaml:"meals_dir" validate:"required"`

	Storage    StorageConfig    `yaml:"storage"`
	HTTP       HTTPConfig       `yaml:"http"`
	Log        LogConfig        `yaml:"log"`
	Reminder   ReminderConfig   `yaml:"reminder"`
	Telegram   TelegramConfig   `yaml:"telegram"`
	Supervisor SupervisorConfig `yaml:"supervisor"`
}

// StorageConfig selects and configures the document persister.
type StorageConfig struct {
	Backend     string `yaml:"backend" validate:"oneof=file memory postgres badger"`
	DataPath    string `yaml:"data_path" validate:"required_if=Backend file"`
	DatabaseURL string `yaml:"database_url" validate:"required_if=Backend postgres"`
	BadgerPath  string `yaml:"badger_path" validate:"required_if=Backend badger"`
}

// HTTPConfig configures the API server. An empty Addr disables it.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
	// APITokenHash is a bcrypt hash of the bearer token guarding /api.
	// Empty leaves the API open.
	APITokenHash string `yaml:"api_token_hash"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `yaml:"level" validate:"oneof=debug info warn error"`
	File  string `yaml:"file"`
}

// ReminderConfig configures the daily reminder.
type ReminderConfig struct {
	Spec string `yaml:"spec" validate:"required,cronspec"`
	Text string `yaml:"text" validate:"required"`
}

// TelegramConfig configures outbound sends.
type TelegramConfig struct {
	SendRate  float64 `yaml:"send_rate" validate:"gt=0"`
	SendBurst int     `yaml:"send_burst" validate:"gte=1"`
}

// SupervisorConfig configures the restart loop.
type SupervisorConfig struct {
	NotifyRole string        `yaml:"notify_role"`
	MinBackoff time.Duration `yaml:"min_backoff" validate:"gt=0"`
	MaxBackoff time.Duration `yaml:"max_backoff" validate:"gtefield=MinBackoff"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Timezone: "Europe/Moscow",
		Roles: []domain.Role{
			{Key: "semen", Name: "Семён"},
			{Key: "sergeant", Name: "Сержант"},
		},
		MealsDir: "meals",
		Storage: StorageConfig{
			Backend:    BackendFile,
			DataPath:   "data/data.json",
			BadgerPath: "data/badger",
		},
		Log:      LogConfig{Level: "info"},
		Reminder: ReminderConfig{Spec: "0 8 * * *", Text: DefaultReminderText},
		Telegram: TelegramConfig{SendRate: 25, SendBurst: 5},
		Supervisor: SupervisorConfig{
			NotifyRole: "sergeant",
			MinBackoff: 2 * time.Second,
			MaxBackoff: 60 * time.Second,
		},
	}
}

var validate *validator.Validate

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("cronspec", validateCronSpec)
}

func validateCronSpec(fl validator.FieldLevel) bool {
	_, err := cron.ParseStandard(fl.Field().String())
	return err == nil
}

// Load builds the configuration. path may be empty; CONFIG_FILE is consulted
// then. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	if err := loadEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func loadEnv(cfg *Config) error {
	cfg.BotToken = env("BOT_TOKEN", cfg.BotToken)
	cfg.Timezone = env("TZ", cfg.Timezone)
	cfg.MealsDir = env("MEALS_DIR", cfg.MealsDir)
	cfg.Storage.Backend = env("STORAGE_BACKEND", cfg.Storage.Backend)
	cfg.Storage.DataPath = env("DATA_PATH", cfg.Storage.DataPath)
	cfg.Storage.DatabaseURL = env("DATABASE_URL", cfg.Storage.DatabaseURL)
	cfg.Storage.BadgerPath = env("BADGER_PATH", cfg.Storage.BadgerPath)
	cfg.HTTP.Addr = env("HTTP_ADDR", cfg.HTTP.Addr)
	cfg.HTTP.APITokenHash = env("API_TOKEN_HASH", cfg.HTTP.APITokenHash)
	cfg.Log.Level = env("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.File = env("LOG_FILE", cfg.Log.File)
	cfg.Reminder.Spec = env("REMINDER_SPEC", cfg.Reminder.Spec)
	cfg.Supervisor.NotifyRole = env("SUPERVISOR_NOTIFY_ROLE", cfg.Supervisor.NotifyRole)

	if v := os.Getenv("SEND_RATE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("SEND_RATE: %w", err)
		}
		cfg.Telegram.SendRate = f
	}
	return nil
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Validate checks field constraints and cross-field rules.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Supervisor.NotifyRole != "" && !c.HasRole(c.Supervisor.NotifyRole) {
		return fmt.Errorf("invalid config: supervisor notify role %q is not configured", c.Supervisor.NotifyRole)
	}
	return nil
}

// HasRole reports whether key is a configured role.
func (c Config) HasRole(key string) bool {
	for _, r := range c.Roles {
		if r.Key == key {
			return true
		}
	}
	return false
}

// Location resolves Timezone.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// RequireBot reports an error when no bot token is configured.
func (c Config) RequireBot() error {
	if c.BotToken == "" {
		return errors.New("BOT_TOKEN is required")
	}
	return nil
}
