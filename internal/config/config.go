// Package config loads the application configuration from YAML.
// Every knob has a code default, so a missing file yields a fully
// working configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dpaoloni/fundscan/internal/model"
)

// Config is the complete application configuration.
type Config struct {
	Sources   SourcesConfig   `yaml:"sources"`
	Cache     CacheConfig     `yaml:"cache"`
	Quality   QualityConfig   `yaml:"quality"`
	Benchmark BenchmarkConfig `yaml:"benchmark"`
	Compare   CompareConfig   `yaml:"compare"`
}

// SourcesConfig covers the scraper layer.
type SourcesConfig struct {
	// Priority orders sources for merge conflict resolution,
	// highest first.
	Priority []string `yaml:"priority"`

	// MaxWorkers bounds concurrent per-source searches.
	MaxWorkers int `yaml:"max_workers"`

	// SearchTimeoutSecs bounds one source's search call.
	SearchTimeoutSecs int `yaml:"search_timeout_secs"`

	PerSource map[string]SourceConfig `yaml:"per_source"`
}

// SourceConfig tunes one scraper.
type SourceConfig struct {
	Enabled         bool    `yaml:"enabled"`
	MinIntervalSecs float64 `yaml:"min_interval_secs"` // Seconds between requests
	TimeoutSecs     int     `yaml:"timeout_secs"`      // Per-request HTTP timeout
}

// CacheConfig tunes the benchmark cache.
type CacheConfig struct {
	TTLHours int `yaml:"ttl_hours"`
}

// QualityConfig parameterizes the merge quality score. The numbers
// are heuristics; only monotonicity (more data, more sources, higher
// score) is guaranteed.
type QualityConfig struct {
	CompletenessWeight float64 `yaml:"completeness_weight"`
	PerSourceBonus     float64 `yaml:"per_source_bonus"`
	MaxSourceBonus     float64 `yaml:"max_source_bonus"`
}

// BenchmarkConfig parameterizes benchmark ETF selection.
type BenchmarkConfig struct {
	PeriodWeights map[string]float64 `yaml:"period_weights"`
	QualityScale  float64            `yaml:"quality_scale"`
}

// CompareConfig tunes comparison runs.
type CompareConfig struct {
	ReferencePeriod string `yaml:"reference_period"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Sources: SourcesConfig{
			Priority:          []string{"morningstar", "justetf", "investing"},
			MaxWorkers:        3,
			SearchTimeoutSecs: 120,
			PerSource: map[string]SourceConfig{
				"justetf":     {Enabled: true, MinIntervalSecs: 2, TimeoutSecs: 60},
				"morningstar": {Enabled: true, MinIntervalSecs: 2, TimeoutSecs: 30},
				"investing":   {Enabled: true, MinIntervalSecs: 2, TimeoutSecs: 30},
			},
		},
		Cache: CacheConfig{TTLHours: 24},
		Quality: QualityConfig{
			CompletenessWeight: 70,
			PerSourceBonus:     10,
			MaxSourceBonus:     30,
		},
		Benchmark: BenchmarkConfig{
			PeriodWeights: map[string]float64{
				"1m": 1, "3m": 1, "6m": 1, "ytd": 2, "1y": 3,
				"3y": 5, "5y": 5, "7y": 3, "9y": 2, "10y": 3,
			},
			QualityScale: 0.1,
		},
		Compare: CompareConfig{ReferencePeriod: "3y"},
	}
}

// Load reads the configuration from path, layering the file over the
// defaults. An empty path returns the defaults untouched.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate ensures the configuration is consistent.
func (c *Config) Validate() error {
	if len(c.Sources.Priority) == 0 {
		return fmt.Errorf("sources.priority cannot be empty")
	}
	if c.Sources.MaxWorkers <= 0 {
		return fmt.Errorf("sources.max_workers must be positive, got %d", c.Sources.MaxWorkers)
	}
	if c.Sources.SearchTimeoutSecs <= 0 {
		return fmt.Errorf("sources.search_timeout_secs must be positive, got %d", c.Sources.SearchTimeoutSecs)
	}
	for name, src := range c.Sources.PerSource {
		if src.MinIntervalSecs < 0 {
			return fmt.Errorf("source %s: min_interval_secs cannot be negative", name)
		}
	}
	if c.Cache.TTLHours <= 0 {
		return fmt.Errorf("cache.ttl_hours must be positive, got %d", c.Cache.TTLHours)
	}
	if c.Quality.CompletenessWeight < 0 || c.Quality.PerSourceBonus < 0 || c.Quality.MaxSourceBonus < 0 {
		return fmt.Errorf("quality weights cannot be negative")
	}
	if ref := model.Period(c.Compare.ReferencePeriod); !validPeriod(ref) {
		return fmt.Errorf("compare.reference_period %q is not a known period", c.Compare.ReferencePeriod)
	}
	return nil
}

// SourcePriority converts the configured priority to source tags.
func (c *Config) SourcePriority() []model.Source {
	priority := make([]model.Source, 0, len(c.Sources.Priority))
	for _, name := range c.Sources.Priority {
		priority = append(priority, model.Source(name))
	}
	return priority
}

// RateIntervals returns the per-source minimum request intervals.
func (c *Config) RateIntervals() map[model.Source]time.Duration {
	intervals := make(map[model.Source]time.Duration, len(c.Sources.PerSource))
	for name, src := range c.Sources.PerSource {
		intervals[model.Source(name)] = time.Duration(src.MinIntervalSecs * float64(time.Second))
	}
	return intervals
}

// SourceTimeout returns the HTTP timeout for a source.
func (c *Config) SourceTimeout(name model.Source) time.Duration {
	if src, ok := c.Sources.PerSource[string(name)]; ok && src.TimeoutSecs > 0 {
		return time.Duration(src.TimeoutSecs) * time.Second
	}
	return 30 * time.Second
}

// SourceEnabled reports whether a source is switched on. Sources not
// in the file default to enabled.
func (c *Config) SourceEnabled(name model.Source) bool {
	src, ok := c.Sources.PerSource[string(name)]
	if !ok {
		return true
	}
	return src.Enabled
}

// SearchTimeout returns the per-source search timeout.
func (c *Config) SearchTimeout() time.Duration {
	return time.Duration(c.Sources.SearchTimeoutSecs) * time.Second
}

// CacheTTL returns the benchmark cache TTL.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLHours) * time.Hour
}

// SelectionWeights converts the benchmark section into the period
// weight map used by the comparison engine.
func (c *Config) SelectionWeights() map[model.Period]float64 {
	weights := make(map[model.Period]float64, len(c.Benchmark.PeriodWeights))
	for name, w := range c.Benchmark.PeriodWeights {
		if validPeriod(model.Period(name)) {
			weights[model.Period(name)] = w
		}
	}
	return weights
}

func validPeriod(p model.Period) bool {
	for _, known := range model.AllPeriods {
		if p == known {
			return true
		}
	}
	return false
}
