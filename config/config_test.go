package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NJonasFigge/fadable-calendar/calendar"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "127.0.0.1:8080", cfg.Listen)
	assert.Equal(t, "UTC", cfg.Timezone)
	assert.Equal(t, 0, cfg.StartOfWeek)
	assert.Equal(t, "week", cfg.PeriodType)
	assert.Equal(t, 4, cfg.Lookback)
	assert.Equal(t, "*/15 * * * *", cfg.RefreshCron)
	assert.NotNil(t, cfg.Sources)
	require.NoError(t, cfg.Validate())
}

func TestNormalize(t *testing.T) {
	cfg := &Config{PeriodType: "fortnight", Lookback: -2}
	cfg.Normalize()
	assert.Equal(t, "127.0.0.1:8080", cfg.Listen)
	assert.Equal(t, "UTC", cfg.Timezone)
	assert.Equal(t, "week", cfg.PeriodType)
	assert.Equal(t, 4, cfg.Lookback)
	assert.Equal(t, "*/15 * * * *", cfg.RefreshCron)
	assert.NotNil(t, cfg.Sources)
}

func TestValidate_StartOfWeek(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StartOfWeek = 7
	err := cfg.Validate()
	require.Error(t, err)
	var calErr *calendar.Error
	require.True(t, errors.As(err, &calErr))
	assert.Equal(t, calendar.ErrInvalidDateRange, calErr.Type)

	cfg.StartOfWeek = -1
	assert.Error(t, cfg.Validate())
	cfg.StartOfWeek = 6
	assert.NoError(t, cfg.Validate())
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := DefaultConfig()
	cfg.Timezone = "Europe/Berlin"
	cfg.StartOfWeek = 6
	cfg.Sources = []SourceConfig{
		{ID: "work", Name: "Work", URL: "https://example.com/work.ics", Color: "#336699"},
	}
	require.NoError(t, Save(path, cfg))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Timezone, loaded.Timezone)
	assert.Equal(t, cfg.StartOfWeek, loaded.StartOfWeek)
	require.Len(t, loaded.Sources, 1)
	assert.Equal(t, cfg.Sources[0], loaded.Sources[0])
}

func TestLoad_MissingFileCreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestLoad_PartialFileNormalized(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("timezone: Europe/Berlin\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", cfg.Timezone)
	assert.Equal(t, "week", cfg.PeriodType)
	assert.Equal(t, 4, cfg.Lookback)
}

func TestLoad_InvalidStartOfWeek(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("start_of_week: 9\n"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestSave_NilConfig(t *testing.T) {
	assert.Error(t, Save(filepath.Join(t.TempDir(), "c.yaml"), nil))
	assert.Error(t, Save("", DefaultConfig()))
}
