// Package config reads the service settings from the environment.
//
// Environment variables:
//   - RECEIPTS_DB_PATH: SQLite database file (default: ./data/receipts.db)
//   - PORT: HTTP port of cmd/server (default: 8080)
//   - LOG_LEVEL: debug, info, warn or error (default: info)
//   - RECEIPTS_UPLOADS_PATH: receipt text files (default: "uploads" next to the database)
//   - RECEIPTS_DUPLICATE_POLICY: reject or overwrite (default: reject)
//   - RECEIPTS_UNRECOGNIZED_POLICY: skip or fail (default: skip)
//   - RECEIPTS_BRAND_RULES: JSON brand rule file replacing the built-in table
//   - RECEIPTS_TIMEZONE: IANA zone the printed times are in (default: Local)
//   - RECEIPTS_WORKER_POLL: job queue poll interval (default: 2s)
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"grocerybooks/internal/ingest"
	"grocerybooks/internal/naming"
	"grocerybooks/internal/parser"
)

type Config struct {
	DBPath       string
	Port         string
	LogLevel     string
	UploadsPath  string
	Duplicates   ingest.DuplicatePolicy
	Unrecognized parser.UnrecognizedPolicy
	BrandRules   string
	Location     *time.Location
	PollInterval time.Duration
}

// Load reads the process environment
func Load() (Config, error) {
	return LoadFrom(os.Getenv)
}

// LoadFrom reads the settings through getenv. Every invalid value is
// reported, not only the first.
func LoadFrom(getenv func(string) string) (Config, error) {
	cfg := Config{
		DBPath:   valueOr(getenv("RECEIPTS_DB_PATH"), "./data/receipts.db"),
		Port:     valueOr(getenv("PORT"), "8080"),
		LogLevel: getenv("LOG_LEVEL"),
	}
	cfg.UploadsPath = valueOr(getenv("RECEIPTS_UPLOADS_PATH"), filepath.Join(filepath.Dir(cfg.DBPath), "uploads"))
	cfg.BrandRules = getenv("RECEIPTS_BRAND_RULES")

	var errs []error
	var err error
	if cfg.Duplicates, err = ingest.ParseDuplicatePolicy(getenv("RECEIPTS_DUPLICATE_POLICY")); err != nil {
		errs = append(errs, fmt.Errorf("RECEIPTS_DUPLICATE_POLICY: %w", err))
	}
	if cfg.Unrecognized, err = parser.ParsePolicy(getenv("RECEIPTS_UNRECOGNIZED_POLICY")); err != nil {
		errs = append(errs, fmt.Errorf("RECEIPTS_UNRECOGNIZED_POLICY: %w", err))
	}
	if cfg.Location, err = time.LoadLocation(valueOr(getenv("RECEIPTS_TIMEZONE"), "Local")); err != nil {
		errs = append(errs, fmt.Errorf("RECEIPTS_TIMEZONE: %w", err))
	}
	cfg.PollInterval = 2 * time.Second
	if v := getenv("RECEIPTS_WORKER_POLL"); v != "" {
		d, err := time.ParseDuration(v)
		if err == nil && d <= 0 {
			err = errors.New("must be positive")
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("RECEIPTS_WORKER_POLL: %w", err))
		}
		cfg.PollInterval = d
	}
	if _, err := strconv.ParseUint(cfg.Port, 10, 16); err != nil {
		errs = append(errs, fmt.Errorf("PORT: invalid port %q", cfg.Port))
	}

	if len(errs) > 0 {
		return Config{}, fmt.Errorf("load config: %w", errors.Join(errs...))
	}
	return cfg, nil
}

// ParserOptions returns the receipt parser settings
func (c Config) ParserOptions() parser.Options {
	return parser.Options{Location: c.Location, Unrecognized: c.Unrecognized}
}

// Brands loads the configured brand rule file, or returns nil for the
// built-in table
func (c Config) Brands() (*naming.BrandExtractor, error) {
	if c.BrandRules == "" {
		return nil, nil
	}
	f, err := os.Open(c.BrandRules)
	if err != nil {
		return nil, fmt.Errorf("open brand rules: %w", err)
	}
	defer f.Close()
	return naming.LoadBrandRules(f)
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
