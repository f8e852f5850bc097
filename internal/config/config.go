// Package config loads examprep settings from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/abhisek/examprep/internal/questiongen"
	"github.com/abhisek/examprep/internal/store"
)

// Storage drivers.
const (
	DriverSQLite = "sqlite"
	DriverMongo  = "mongo"
)

// Config holds process-wide settings. LLM providers are configured
// separately by llm.ConfigFromEnv.
type Config struct {
	Driver        string
	DBPath        string
	MongoURI      string
	MongoDatabase string

	// RedisAddr enables the Redis leaderboard when set.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	HTTPAddr        string
	ShutdownTimeout time.Duration

	MaxGenerationAttempts int
	MinQuestions          int
	MaxQuestions          int

	// TimeZone decides the calendar day of an attempt for streaks.
	TimeZone      string
	AsyncAnalysis bool

	LogLevel string
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	// An unresolvable default path is left empty and reported by Validate.
	dbPath, _ := store.DefaultDBPath()
	return Config{
		Driver:                DriverSQLite,
		DBPath:                dbPath,
		MongoDatabase:         "examprep",
		HTTPAddr:              ":8080",
		ShutdownTimeout:       10 * time.Second,
		MaxGenerationAttempts: questiongen.DefaultMaxAttempts,
		MinQuestions:          1,
		MaxQuestions:          50,
		TimeZone:              "UTC",
		AsyncAnalysis:         true,
		LogLevel:              "info",
	}
}

// Load reads envFiles (default ".env") into the environment without
// overriding variables already set, then builds a Config from EXAMPREP_*
// variables. Missing env files are ignored.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return FromEnv()
}

// FromEnv builds a Config from EXAMPREP_* variables over Default.
func FromEnv() (Config, error) {
	cfg := Default()

	setString(&cfg.Driver, "EXAMPREP_STORAGE")
	setString(&cfg.DBPath, "EXAMPREP_DB")
	setString(&cfg.MongoURI, "EXAMPREP_MONGO_URI")
	setString(&cfg.MongoDatabase, "EXAMPREP_MONGO_DATABASE")
	setString(&cfg.RedisAddr, "EXAMPREP_REDIS_ADDR")
	setString(&cfg.RedisPassword, "EXAMPREP_REDIS_PASSWORD")
	setString(&cfg.HTTPAddr, "EXAMPREP_HTTP_ADDR")
	setString(&cfg.TimeZone, "EXAMPREP_TZ")
	setString(&cfg.LogLevel, "EXAMPREP_LOG_LEVEL")

	var errs []error
	errs = append(errs,
		setInt(&cfg.RedisDB, "EXAMPREP_REDIS_DB"),
		setInt(&cfg.MaxGenerationAttempts, "EXAMPREP_MAX_GENERATION_ATTEMPTS"),
		setInt(&cfg.MinQuestions, "EXAMPREP_MIN_QUESTIONS"),
		setInt(&cfg.MaxQuestions, "EXAMPREP_MAX_QUESTIONS"),
		setBool(&cfg.AsyncAnalysis, "EXAMPREP_ASYNC_ANALYSIS"),
		setDuration(&cfg.ShutdownTimeout, "EXAMPREP_SHUTDOWN_TIMEOUT"),
	)
	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// Validate checks value ranges and cross-field requirements.
func (c Config) Validate() error {
	switch c.Driver {
	case DriverSQLite:
		if c.DBPath == "" {
			return fmt.Errorf("EXAMPREP_DB is required for the sqlite storage")
		}
	case DriverMongo:
		if c.MongoURI == "" {
			return fmt.Errorf("EXAMPREP_MONGO_URI is required for the mongo storage")
		}
	default:
		return fmt.Errorf("unknown storage %q (want %s or %s)", c.Driver, DriverSQLite, DriverMongo)
	}
	if c.MaxGenerationAttempts < 1 {
		return fmt.Errorf("EXAMPREP_MAX_GENERATION_ATTEMPTS must be at least 1, got %d", c.MaxGenerationAttempts)
	}
	if c.MinQuestions < 1 || c.MaxQuestions < c.MinQuestions {
		return fmt.Errorf("invalid question count bounds [%d, %d]", c.MinQuestions, c.MaxQuestions)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// Location resolves TimeZone.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("EXAMPREP_TZ: %w", err)
	}
	return loc, nil
}

// ParseLevel maps debug, info, warn and error to slog levels.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("invalid log level %q", s)
	}
	return l, nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}

func setBool(dst *bool, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = b
	return nil
}

func setDuration(dst *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}
