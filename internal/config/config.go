// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	Filename string `yaml:"filename"`
}

type EmailConfig struct {
	Region string `yaml:"region"`
	Sender string `yaml:"sender"`
	// Loaded from environment
	AccessKeyID     string `yaml:"-"`
	SecretAccessKey string `yaml:"-"`
}

type BookingConfig struct {
	ReservationTTLMinutes int    `yaml:"reservation_ttl_minutes"`
	WaitlistExpiryHours   int    `yaml:"waitlist_expiry_hours"`
	PhoneRegion           string `yaml:"phone_region"`
}

type SchedulerConfig struct {
	ReservationPurgeCron string `yaml:"reservation_purge_cron"`
	CompletionSweepCron  string `yaml:"completion_sweep_cron"`
	WaitlistExpiryCron   string `yaml:"waitlist_expiry_cron"`
}

type Config struct {
	App struct {
		Name        string `yaml:"name"`
		Environment string `yaml:"environment"`
		Port        int    `yaml:"port"`
		BaseURL     string `yaml:"base_url"`
	} `yaml:"app"`

	Database  DatabaseConfig  `yaml:"database"`
	Email     EmailConfig     `yaml:"email"`
	Booking   BookingConfig   `yaml:"booking"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

// Load loads both .env and yaml configuration
func Load(configPath string) (*Config, error) {
	// Load .env file if it exists
	envPath := filepath.Join(filepath.Dir(configPath), ".env")
	if err := godotenv.Load(envPath); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	// Load sensitive values from environment
	cfg.Email.AccessKeyID = os.Getenv("AWS_ACCESS_KEY_ID")
	cfg.Email.SecretAccessKey = os.Getenv("AWS_SECRET_ACCESS_KEY")

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Booking.ReservationTTLMinutes == 0 {
		c.Booking.ReservationTTLMinutes = 5
	}
	if c.Booking.WaitlistExpiryHours == 0 {
		c.Booking.WaitlistExpiryHours = 24
	}
	if c.Booking.PhoneRegion == "" {
		c.Booking.PhoneRegion = "US"
	}
	if c.Scheduler.ReservationPurgeCron == "" {
		c.Scheduler.ReservationPurgeCron = "*/10 * * * *"
	}
	if c.Scheduler.CompletionSweepCron == "" {
		c.Scheduler.CompletionSweepCron = "*/15 * * * *"
	}
	if c.Scheduler.WaitlistExpiryCron == "" {
		c.Scheduler.WaitlistExpiryCron = "0 * * * *"
	}
}

func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("app name is required")
	}
	if c.App.Port == 0 {
		return fmt.Errorf("app port is required")
	}
	if c.Database.Driver == "" {
		return fmt.Errorf("database driver is required")
	}

	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Filename == "" {
			return fmt.Errorf("database filename is required for sqlite")
		}
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}

	if c.Booking.ReservationTTLMinutes < 0 {
		return fmt.Errorf("reservation_ttl_minutes must not be negative")
	}

	return nil
}
