package geocode

import "go.uber.org/zap"

// Defaults for BuildConfig.
const (
	DefaultMinPopulationCutoff       = 30000
	DefaultLargeCityPopulationCutoff = 200000
)

// BuildConfig contains the knobs of the gazetteer build.
type BuildConfig struct {
	// MinPopulationCutoff drops places with population <= cutoff.
	// Continents and regions are exempt.
	MinPopulationCutoff int64
	// LargeCityPopulationCutoff separates "city" from "place" and grants
	// priority 1 to non-altname places above it.
	LargeCityPopulationCutoff int64
	// AllowedLocationTypes restricts the labels kept in the output.
	AllowedLocationTypes []LocationType
	// Flags maps flag symbols to the geoname_id of the country they name.
	Flags  map[string]int64
	Logger *zap.Logger
}

// BuildOption is a functional option for configuring Build.
type BuildOption func(*BuildConfig)

// WithMinPopulation sets the minimum population cutoff.
func WithMinPopulation(n int64) BuildOption {
	return func(c *BuildConfig) {
		c.MinPopulationCutoff = n
	}
}

// WithLargeCityPopulation sets the population above which a place is a city.
func WithLargeCityPopulation(n int64) BuildOption {
	return func(c *BuildConfig) {
		c.LargeCityPopulationCutoff = n
	}
}

// WithLocationTypes restricts the output to the given labels. An empty list
// keeps the default of all labels.
func WithLocationTypes(types ...LocationType) BuildOption {
	return func(c *BuildConfig) {
		if len(types) > 0 {
			c.AllowedLocationTypes = types
		}
	}
}

// WithFlags replaces the built-in flag mapping.
func WithFlags(flags map[string]int64) BuildOption {
	return func(c *BuildConfig) {
		c.Flags = flags
	}
}

// WithLogger sets the logger used for build progress.
func WithLogger(l *zap.Logger) BuildOption {
	return func(c *BuildConfig) {
		if l != nil {
			c.Logger = l
		}
	}
}

// defaultBuildConfig returns the default configuration.
func defaultBuildConfig() *BuildConfig {
	return &BuildConfig{
		MinPopulationCutoff:       DefaultMinPopulationCutoff,
		LargeCityPopulationCutoff: DefaultLargeCityPopulationCutoff,
		AllowedLocationTypes:      AllLocationTypes,
		Logger:                    zap.NewNop(),
	}
}
