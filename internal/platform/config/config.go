// Package config loads process configuration from the environment so main
// stays lean.
package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds every tunable the server reads at startup.
type Config struct {
	Addr string `envconfig:"PAPERVIEW_ADDR" default:":8080"`

	// Storage selects the store backend: "memory" or "postgres".
	Storage string `envconfig:"PAPERVIEW_STORAGE" default:"memory"`

	DBHost     string `envconfig:"DB_HOST" default:"localhost"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"paperview"`
	DBPassword string `envconfig:"DB_PASSWORD"`
	DBName     string `envconfig:"DB_NAME" default:"paperview"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`

	// SweepSchedule drives the phase auto-close sweep (cron syntax).
	SweepSchedule string `envconfig:"PAPERVIEW_SWEEP_SCHEDULE" default:"*/5 * * * *"`

	ShutdownTimeoutSeconds int `envconfig:"PAPERVIEW_SHUTDOWN_TIMEOUT" default:"10"`
}

// DSN returns the data source name for the PostgreSQL connection.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode)
}

// Load reads configuration from the environment, honoring a local .env file
// when present.
func Load() (*Config, error) {
	_ = godotenv.Load()
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return nil, err
	}
	return &c, nil
}
