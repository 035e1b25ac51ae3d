// Package config loads the directory server settings from a YAML file and
// lets environment variables (optionally from a .env file) override them.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Store drivers.
const (
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config struct for YAML configuration
type Config struct {
	HTTPPort      int      `yaml:"HTTP_PORT"`
	GRPCPort      int      `yaml:"GRPC_PORT"`
	DataFile      string   `yaml:"DATA_FILE"`
	StoreDriver   string   `yaml:"STORE_DRIVER"`
	SQLitePath    string   `yaml:"SQLITE_PATH"`
	DBHost        string   `yaml:"DB_HOST"`
	DBPort        int      `yaml:"DB_PORT"`
	DBUser        string   `yaml:"DB_USER"`
	DBPassword    string   `yaml:"DB_PASSWORD"`
	DBName        string   `yaml:"DB_NAME"`
	DBSSLMode     string   `yaml:"DB_SSLMODE"`
	SeedFromFile  bool     `yaml:"SEED_FROM_FILE"`
	WatchDataFile bool     `yaml:"WATCH_DATA_FILE"`
	KafkaBrokers  []string `yaml:"KAFKA_BROKERS"`
	Topic         string   `yaml:"TOPIC"`
	LogLevel      string   `yaml:"LOG_LEVEL"`
}

// Default returns the settings used when neither the file nor the
// environment says otherwise.
func Default() *Config {
	return &Config{
		HTTPPort:    5000,
		GRPCPort:    5001,
		DataFile:    "db.json",
		StoreDriver: DriverFile,
		SQLitePath:  "directory.db",
		DBPort:      5432,
		DBSSLMode:   "disable",
		Topic:       "directory.events",
		LogLevel:    "info",
	}
}

// Load reads path on top of Default and then applies environment overrides.
// A missing file is not an error; the server runs on defaults and env.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		file, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(file, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDotEnv loads .env files into the process environment without
// overriding variables that are already set. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// Validate checks settings that would otherwise fail late.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case DriverFile, DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.HTTPPort <= 0 || c.GRPCPort <= 0 {
		return fmt.Errorf("ports must be positive")
	}
	if c.HTTPPort == c.GRPCPort {
		return fmt.Errorf("HTTP_PORT and GRPC_PORT must differ")
	}
	if c.DataFile == "" {
		return fmt.Errorf("DATA_FILE is required")
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if v, ok := os.LookupEnv("PORT"); ok {
		// PORT is the conventional name for the listen port.
		if err := setInt(&cfg.HTTPPort, "PORT", v); err != nil {
			return err
		}
	}

	ints := map[string]*int{
		"HTTP_PORT": &cfg.HTTPPort,
		"GRPC_PORT": &cfg.GRPCPort,
		"DB_PORT":   &cfg.DBPort,
	}
	for key, dst := range ints {
		if v, ok := os.LookupEnv(key); ok {
			if err := setInt(dst, key, v); err != nil {
				return err
			}
		}
	}

	strs := map[string]*string{
		"DATA_FILE":    &cfg.DataFile,
		"STORE_DRIVER": &cfg.StoreDriver,
		"SQLITE_PATH":  &cfg.SQLitePath,
		"DB_HOST":      &cfg.DBHost,
		"DB_USER":      &cfg.DBUser,
		"DB_PASSWORD":  &cfg.DBPassword,
		"DB_NAME":      &cfg.DBName,
		"DB_SSLMODE":   &cfg.DBSSLMode,
		"TOPIC":        &cfg.Topic,
		"LOG_LEVEL":    &cfg.LogLevel,
	}
	for key, dst := range strs {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}

	bools := map[string]*bool{
		"SEED_FROM_FILE":  &cfg.SeedFromFile,
		"WATCH_DATA_FILE": &cfg.WatchDataFile,
	}
	for key, dst := range bools {
		if v, ok := os.LookupEnv(key); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", key, err)
			}
			*dst = b
		}
	}

	if v, ok := os.LookupEnv("KAFKA_BROKERS"); ok {
		cfg.KafkaBrokers = splitList(v)
	}
	return nil
}

func setInt(dst *int, key, v string) error {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = n
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
