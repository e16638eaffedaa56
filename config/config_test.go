package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kinodata/geocode"
)

// inTempDir runs the test from an empty directory so no stray .env is loaded.
func inTempDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func TestLoadDefaults(t *testing.T) {
	inTempDir(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, int64(geocode.DefaultMinPopulationCutoff), cfg.Gazetteer.MinPopulationCutoff)
	assert.Equal(t, int64(geocode.DefaultLargeCityPopulationCutoff), cfg.Gazetteer.LargeCityPopulationCutoff)
	assert.Equal(t, "./geonames-cache/geonames.gob", cfg.Gazetteer.IndexPath)
	assert.Empty(t, cfg.Gazetteer.AllowedLocationTypes)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, "", cfg.Redis.Addr)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadYAMLWithEnvOverride(t *testing.T) {
	dir := inTempDir(t)
	path := filepath.Join(dir, "config.yaml")
	yaml := `gazetteer:
  geonames_index_path: /var/lib/geocode/index.gob
  min_population_cutoff: 1000
  allowed_location_types: [city, country]
database:
  host: db.internal
log:
  format: json
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0644))
	t.Setenv("PGHOST", "override.internal")
	t.Setenv("PGPASSWORD", "secret")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/geocode/index.gob", cfg.Gazetteer.IndexPath)
	assert.Equal(t, int64(1000), cfg.Gazetteer.MinPopulationCutoff)
	assert.Equal(t, int64(200000), cfg.Gazetteer.LargeCityPopulationCutoff)
	assert.Equal(t, "override.internal", cfg.Database.Host)
	assert.Equal(t, "secret", cfg.Database.Postgres().Password)
	assert.Equal(t, "json", cfg.Log.Format)

	types, err := cfg.Gazetteer.LocationTypes()
	require.NoError(t, err)
	assert.Equal(t, []geocode.LocationType{geocode.LocationCity, geocode.LocationCountry}, types)
}

func TestLoadDotEnv(t *testing.T) {
	dir := inTempDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("REDIS_ADDR=cache:6379\n"), 0644))
	// Setenv restores the variable afterwards; godotenv only fills unset ones.
	t.Setenv("REDIS_ADDR", "")
	os.Unsetenv("REDIS_ADDR")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "cache:6379", cfg.Redis.Addr)
}

func TestLoadRejectsUnknownLocationType(t *testing.T) {
	inTempDir(t)
	t.Setenv("ALLOWED_LOCATION_TYPES", "city,village")

	_, err := Load("")
	assert.ErrorIs(t, err, geocode.ErrUnknownLocationType)
}

func TestBuildOptions(t *testing.T) {
	g := GazetteerConfig{MinPopulationCutoff: 5, LargeCityPopulationCutoff: 10}
	opts, err := g.BuildOptions()
	require.NoError(t, err)
	assert.Len(t, opts, 3)

	g.AllowedLocationTypes = []string{"hamlet"}
	_, err = g.BuildOptions()
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	for _, format := range []string{"", "console", "json"} {
		logger, err := NewLogger(LogConfig{Level: "debug", Format: format})
		require.NoError(t, err, "format %q", format)
		assert.NotNil(t, logger)
	}
}

func TestNewLoggerWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "geocode.log")
	logger, err := NewLogger(LogConfig{Level: "info", Format: "json", File: path, MaxSizeMB: 1})
	require.NoError(t, err)

	logger.Info("Index written")
	logger.Debug("not written at info level")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"Index written"`)
	assert.NotContains(t, string(data), "not written")
}

func TestNewLoggerRejects(t *testing.T) {
	_, err := NewLogger(LogConfig{Level: "loud"})
	assert.Error(t, err)
	_, err = NewLogger(LogConfig{Level: "info", Format: "xml"})
	assert.Error(t, err)
}
