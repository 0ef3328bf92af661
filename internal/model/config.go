package model

import (
	"runtime"
	"time"
)

// Config holds every tunable of a verification run
type Config struct {
	Prover      ProverConfig      `json:"prover" yaml:"prover" mapstructure:"prover"`
	Run         RunConfig         `json:"run" yaml:"run" mapstructure:"run"`
	Concurrency ConcurrencyConfig `json:"concurrency" yaml:"concurrency" mapstructure:"concurrency"`
	Cache       CacheConfig       `json:"cache" yaml:"cache" mapstructure:"cache"`
	Output      OutputConfig      `json:"output" yaml:"output" mapstructure:"output"`
	Logging     LoggingConfig     `json:"logging" yaml:"logging" mapstructure:"logging"`
	Metrics     MetricsConfig     `json:"metrics" yaml:"metrics" mapstructure:"metrics"`
}

// ProverConfig configures the symbolic prover
type ProverConfig struct {
	Timeout         time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`                            // Per-statement simplification budget
	MaxTerms        int           `json:"max_terms" yaml:"max_terms" mapstructure:"max_terms"`                      // Largest intermediate polynomial
	NumericFallback bool          `json:"numeric_fallback" yaml:"numeric_fallback" mapstructure:"numeric_fallback"` // Tag inconclusive results by sampling
	NumericSamples  int           `json:"numeric_samples" yaml:"numeric_samples" mapstructure:"numeric_samples"`
	DefaultDomain   Domain        `json:"default_domain" yaml:"default_domain" mapstructure:"default_domain"` // Domain of undeclared symbols
}

// RunConfig bounds a whole run
type RunConfig struct {
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
}

// ConcurrencyConfig sizes the worker pools
type ConcurrencyConfig struct {
	Workers  int `json:"workers" yaml:"workers" mapstructure:"workers"`    // Statements proved in parallel
	Catalogs int `json:"catalogs" yaml:"catalogs" mapstructure:"catalogs"` // Catalogs verified in parallel (batch)
}

// CacheConfig configures the in-process result cache
type CacheConfig struct {
	Enabled bool          `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	TTL     time.Duration `json:"ttl" yaml:"ttl" mapstructure:"ttl"`
}

// OutputConfig configures report rendering
type OutputConfig struct {
	Verbose       bool `json:"verbose" yaml:"verbose" mapstructure:"verbose"`
	IncludeFooter bool `json:"include_footer" yaml:"include_footer" mapstructure:"include_footer"`
}

// LoggingConfig configures structured logging
type LoggingConfig struct {
	Level  string `json:"level" yaml:"level" mapstructure:"level"`    // debug, info, warn, error
	Format string `json:"format" yaml:"format" mapstructure:"format"` // text or json (stderr handler)
	File   string `json:"file" yaml:"file" mapstructure:"file"`       // Optional JSON log file
}

// MetricsConfig configures the Prometheus textfile output
type MetricsConfig struct {
	File string `json:"file" yaml:"file" mapstructure:"file"`
}

// DefaultConfig returns the configuration used when nothing is overridden
func DefaultConfig() *Config {
	return &Config{
		Prover: ProverConfig{
			Timeout:         5 * time.Second,
			MaxTerms:        20000,
			NumericFallback: true,
			NumericSamples:  6,
			DefaultDomain:   DomainComplex,
		},
		Run: RunConfig{
			Timeout: 10 * time.Minute,
		},
		Concurrency: ConcurrencyConfig{
			Workers:  runtime.NumCPU(),
			Catalogs: 2,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     time.Hour,
		},
		Output: OutputConfig{
			Verbose:       false,
			IncludeFooter: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
