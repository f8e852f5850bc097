package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv("EXAMPREP_DB", filepath.Join(t.TempDir(), "examprep.db"))

	cfg, err := FromEnv()
	require.NoError(t, err)
	require.Equal(t, DriverSQLite, cfg.Driver)
	require.Equal(t, ":8080", cfg.HTTPAddr)
	require.Equal(t, 5, cfg.MaxGenerationAttempts)
	require.True(t, cfg.AsyncAnalysis)
	require.Empty(t, cfg.RedisAddr)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("EXAMPREP_STORAGE", "mongo")
	t.Setenv("EXAMPREP_MONGO_URI", "mongodb://localhost:27017")
	t.Setenv("EXAMPREP_REDIS_ADDR", "localhost:6379")
	t.Setenv("EXAMPREP_REDIS_DB", "2")
	t.Setenv("EXAMPREP_MAX_GENERATION_ATTEMPTS", "3")
	t.Setenv("EXAMPREP_ASYNC_ANALYSIS", "false")
	t.Setenv("EXAMPREP_TZ", "Asia/Kolkata")
	t.Setenv("EXAMPREP_SHUTDOWN_TIMEOUT", "3s")
	t.Setenv("EXAMPREP_LOG_LEVEL", "debug")

	cfg, err := FromEnv()
	require.NoError(t, err)
	require.Equal(t, DriverMongo, cfg.Driver)
	require.Equal(t, 2, cfg.RedisDB)
	require.Equal(t, 3, cfg.MaxGenerationAttempts)
	require.False(t, cfg.AsyncAnalysis)
	require.Equal(t, 3*time.Second, cfg.ShutdownTimeout)

	loc, err := cfg.Location()
	require.NoError(t, err)
	require.Equal(t, "Asia/Kolkata", loc.String())

	lvl, err := ParseLevel(cfg.LogLevel)
	require.NoError(t, err)
	require.Equal(t, slog.LevelDebug, lvl)
}

func TestFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		name, key, value string
	}{
		{"bad int", "EXAMPREP_MAX_QUESTIONS", "many"},
		{"bad bool", "EXAMPREP_ASYNC_ANALYSIS", "sometimes"},
		{"zero attempts", "EXAMPREP_MAX_GENERATION_ATTEMPTS", "0"},
		{"unknown storage", "EXAMPREP_STORAGE", "postgres"},
		{"mongo without uri", "EXAMPREP_STORAGE", "mongo"},
		{"bad zone", "EXAMPREP_TZ", "Mars/Olympus"},
		{"bad level", "EXAMPREP_LOG_LEVEL", "loud"},
		{"inverted bounds", "EXAMPREP_MIN_QUESTIONS", "60"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := FromEnv()
			require.Error(t, err)
		})
	}
}

func TestLoad_EnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(path, []byte("EXAMPREP_HTTP_ADDR=:9191\nEXAMPREP_MAX_QUESTIONS=20\n"), 0o600))

	// Variables already set win over the file.
	t.Setenv("EXAMPREP_MAX_QUESTIONS", "30")
	t.Setenv("EXAMPREP_HTTP_ADDR", "")
	os.Unsetenv("EXAMPREP_HTTP_ADDR")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, ":9191", cfg.HTTPAddr)
	require.Equal(t, 30, cfg.MaxQuestions)
}

func TestLoad_MissingFileIgnored(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.env"))
	require.NoError(t, err)
}
