// Package config loads the settings shared by the geocode commands.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	"github.com/kinodata/geocode"
	"github.com/kinodata/geocode/locations/postgres"
)

// Config holds all configuration. Values come from an optional YAML file;
// environment variables override them, and a .env file in the working
// directory is loaded into the environment first.
type Config struct {
	Gazetteer GazetteerConfig `yaml:"gazetteer"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Log       LogConfig       `yaml:"log"`
}

// GazetteerConfig controls the gazetteer build and where its index lives.
type GazetteerConfig struct {
	DataDir   string `yaml:"data_dir" env:"GEONAMES_DATA_DIR" env-default:"./geonames-data"`
	IndexPath string `yaml:"geonames_index_path" env:"GEONAMES_INDEX_PATH" env-default:"./geonames-cache/geonames.gob"`

	MinPopulationCutoff       int64 `yaml:"min_population_cutoff" env:"MIN_POPULATION_CUTOFF" env-default:"30000"`
	LargeCityPopulationCutoff int64 `yaml:"large_city_population_cutoff" env:"LARGE_CITY_POPULATION_CUTOFF" env-default:"200000"`

	// AllowedLocationTypes restricts the built index. Empty means all types.
	AllowedLocationTypes []string `yaml:"allowed_location_types" env:"ALLOWED_LOCATION_TYPES" env-separator:","`
}

// DatabaseConfig holds PostgreSQL settings for the location sink.
type DatabaseConfig struct {
	Host     string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port     string `yaml:"port" env:"PGPORT" env-default:"5432"`
	User     string `yaml:"user" env:"PGUSER" env-default:"postgres"`
	Password string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database string `yaml:"database" env:"PGDATABASE" env-default:"kino"`
	SSLMode  string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
}

// RedisConfig holds the optional shared memo settings. An empty Addr
// disables Redis.
type RedisConfig struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR" env-default:""`
	Password string `yaml:"-" env:"REDIS_PASS"`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
	Key      string `yaml:"key" env:"REDIS_KEY" env-default:"geocode:locations"`
}

// LogConfig selects the log level and format ("json" or "console"), and an
// optional rotated log file.
type LogConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"console"`

	File       string `yaml:"file" env:"LOG_FILE"`
	MaxSizeMB  int    `yaml:"max_size_mb" env:"LOG_MAX_SIZE_MB" env-default:"100"`
	MaxBackups int    `yaml:"max_backups" env:"LOG_MAX_BACKUPS" env-default:"3"`
}

// Load reads configuration from path (skipped when empty or missing) with
// environment overrides.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	cfg := &Config{}
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := cleanenv.ReadConfig(path, cfg); err != nil {
				return nil, fmt.Errorf("failed to read %s: %w", path, err)
			}
			return cfg, cfg.validate()
		}
	}
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	return cfg, cfg.validate()
}

func (c *Config) validate() error {
	if _, err := c.Gazetteer.LocationTypes(); err != nil {
		return err
	}
	if c.Gazetteer.MinPopulationCutoff < 0 || c.Gazetteer.LargeCityPopulationCutoff < 0 {
		return fmt.Errorf("population cutoffs must not be negative")
	}
	return nil
}

// LocationTypes parses AllowedLocationTypes. An empty list yields nil.
func (g GazetteerConfig) LocationTypes() ([]geocode.LocationType, error) {
	var types []geocode.LocationType
	for _, s := range g.AllowedLocationTypes {
		lt, err := geocode.ParseLocationType(s)
		if err != nil {
			return nil, err
		}
		types = append(types, lt)
	}
	return types, nil
}

// BuildOptions translates the gazetteer settings into build options.
func (g GazetteerConfig) BuildOptions() ([]geocode.BuildOption, error) {
	types, err := g.LocationTypes()
	if err != nil {
		return nil, err
	}
	return []geocode.BuildOption{
		geocode.WithMinPopulation(g.MinPopulationCutoff),
		geocode.WithLargeCityPopulation(g.LargeCityPopulationCutoff),
		geocode.WithLocationTypes(types...),
	}, nil
}

// Postgres returns the sink connection settings.
func (d DatabaseConfig) Postgres() postgres.Config {
	return postgres.Config{
		Host:     d.Host,
		Port:     d.Port,
		User:     d.User,
		Password: d.Password,
		DBName:   d.Database,
		SSLMode:  d.SSLMode,
	}
}
