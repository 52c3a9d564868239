package config

import (
	"os"
	"runtime"
	"strconv"

	"github.com/joho/godotenv"

	"gofit/internal/errors"
)

// Config represents the complete library configuration
type Config struct {
	Transform TransformConfig
	Series    SeriesConfig
	KS        KSConfig
	CvM       CvMConfig
	AD        ADConfig
	Runtime   RuntimeConfig
}

// TransformConfig holds reference-CDF validation settings
type TransformConfig struct {
	CDFTolerance float64
}

// SeriesConfig holds the shared stopping rule for infinite series
type SeriesConfig struct {
	Tolerance float64
	MaxTerms  int
}

// KSConfig holds Kolmogorov-Smirnov engine regime boundaries
type KSConfig struct {
	ExactThreshold     int
	DurbinMaxSamples   int
	TailLambda         float64
	CrossoverTolerance float64
}

// CvMConfig holds Cramer-von Mises engine settings
type CvMConfig struct {
	FirstOrderCorrection bool
}

// ADConfig holds Anderson-Darling engine settings
type ADConfig struct {
	TailStart float64
}

// RuntimeConfig holds cache, concurrency and diagnostics settings
type RuntimeConfig struct {
	CacheSize       int
	MaxConcurrency  int
	ValidateEngines bool
	LogLevel        string
}

type lookupFunc func(key string) string

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	return load(os.Getenv)
}

// LoadFile reads configuration from the given .env files. Variables already
// set in the process environment take precedence over file values.
func LoadFile(paths ...string) (*Config, error) {
	values, err := godotenv.Read(paths...)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read env files %v", paths)
	}
	return load(func(key string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return values[key]
	})
}

// Default returns the built-in configuration without consulting the environment
func Default() *Config {
	cfg, _ := load(func(string) string { return "" })
	return cfg
}

func load(lookup lookupFunc) (*Config, error) {
	env := envReader{lookup: lookup}

	config := &Config{
		Transform: TransformConfig{
			CDFTolerance: env.floatOrDefault("GOF_CDF_TOLERANCE", 1e-9),
		},
		Series: SeriesConfig{
			Tolerance: env.floatOrDefault("GOF_SERIES_TOLERANCE", 1e-10),
			MaxTerms:  env.intOrDefault("GOF_SERIES_MAX_TERMS", 100),
		},
		KS: KSConfig{
			ExactThreshold:     env.intOrDefault("GOF_KS_EXACT_THRESHOLD", 150),
			DurbinMaxSamples:   env.intOrDefault("GOF_KS_DURBIN_MAX_SAMPLES", 100000),
			TailLambda:         env.floatOrDefault("GOF_KS_TAIL_LAMBDA", 1.5),
			CrossoverTolerance: env.floatOrDefault("GOF_KS_CROSSOVER_TOLERANCE", 1e-3),
		},
		CvM: CvMConfig{
			FirstOrderCorrection: env.boolOrDefault("GOF_CVM_FIRST_ORDER", true),
		},
		AD: ADConfig{
			TailStart: env.floatOrDefault("GOF_AD_TAIL_START", 20),
		},
		Runtime: RuntimeConfig{
			CacheSize:       env.intOrDefault("GOF_CACHE_SIZE", 128),
			MaxConcurrency:  env.intOrDefault("GOF_MAX_CONCURRENCY", runtime.GOMAXPROCS(0)),
			ValidateEngines: env.boolOrDefault("GOF_VALIDATE_ENGINES", false),
			LogLevel:        env.stringOrDefault("GOF_LOG_LEVEL", env.stringOrDefault("LOG_LEVEL", "INFO")),
		},
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func validateConfig(config *Config) error {
	if !(config.Transform.CDFTolerance >= 0 && config.Transform.CDFTolerance < 0.5) {
		return errors.ConfigInvalidf("GOF_CDF_TOLERANCE must be in [0, 0.5), got %g", config.Transform.CDFTolerance)
	}
	if !(config.Series.Tolerance > 0 && config.Series.Tolerance < 1) {
		return errors.ConfigInvalidf("GOF_SERIES_TOLERANCE must be in (0, 1), got %g", config.Series.Tolerance)
	}
	if config.Series.MaxTerms < 2 {
		return errors.ConfigInvalidf("GOF_SERIES_MAX_TERMS must be at least 2, got %d", config.Series.MaxTerms)
	}
	if config.KS.ExactThreshold < 1 {
		return errors.ConfigInvalidf("GOF_KS_EXACT_THRESHOLD must be positive, got %d", config.KS.ExactThreshold)
	}
	if config.KS.DurbinMaxSamples < config.KS.ExactThreshold {
		return errors.ConfigInvalidf("GOF_KS_DURBIN_MAX_SAMPLES (%d) must not be below GOF_KS_EXACT_THRESHOLD (%d)",
			config.KS.DurbinMaxSamples, config.KS.ExactThreshold)
	}
	if !(config.KS.TailLambda >= 1 && config.KS.TailLambda <= 3) {
		return errors.ConfigInvalidf("GOF_KS_TAIL_LAMBDA must be in [1, 3], got %g", config.KS.TailLambda)
	}
	if !(config.KS.CrossoverTolerance > 0) {
		return errors.ConfigInvalidf("GOF_KS_CROSSOVER_TOLERANCE must be positive, got %g", config.KS.CrossoverTolerance)
	}
	if !(config.AD.TailStart >= 8 && config.AD.TailStart <= 22) {
		return errors.ConfigInvalidf("GOF_AD_TAIL_START must be in [8, 22], got %g", config.AD.TailStart)
	}
	if config.Runtime.CacheSize < 1 {
		return errors.ConfigInvalidf("GOF_CACHE_SIZE must be positive, got %d", config.Runtime.CacheSize)
	}
	if config.Runtime.MaxConcurrency < 1 {
		return errors.ConfigInvalidf("GOF_MAX_CONCURRENCY must be positive, got %d", config.Runtime.MaxConcurrency)
	}
	return nil
}

// Helper functions for environment variable parsing
type envReader struct {
	lookup lookupFunc
}

func (e envReader) stringOrDefault(key, defaultValue string) string {
	if value := e.lookup(key); value != "" {
		return value
	}
	return defaultValue
}

func (e envReader) intOrDefault(key string, defaultValue int) int {
	if value := e.lookup(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func (e envReader) floatOrDefault(key string, defaultValue float64) float64 {
	if value := e.lookup(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func (e envReader) boolOrDefault(key string, defaultValue bool) bool {
	if value := e.lookup(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
