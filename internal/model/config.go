package model

import "time"

// Config holds all cardmark settings
type Config struct {
	Render       RenderConfig       `yaml:"render" mapstructure:"render"`
	Cache        CacheConfig        `yaml:"cache" mapstructure:"cache"`
	HTTP         HTTPConfig         `yaml:"http" mapstructure:"http"`
	Concurrency  ConcurrencyConfig  `yaml:"concurrency" mapstructure:"concurrency"`
	RateLimiting RateLimitingConfig `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Output       OutputConfig       `yaml:"output" mapstructure:"output"`
}

// RenderConfig controls extraction and rehydration
type RenderConfig struct {
	MaxDepth           int      `yaml:"max_depth" mapstructure:"max_depth"`                       // Nesting guard for highlights and re-runs
	Extensions         []string `yaml:"extensions" mapstructure:"extensions"`                     // goldmark extensions by name
	HardWraps          bool     `yaml:"hard_wraps" mapstructure:"hard_wraps"`                     // Soft line breaks become hard breaks
	StripAdjacentSpace bool     `yaml:"strip_adjacent_space" mapstructure:"strip_adjacent_space"` // Trim one space next to annotations
}

// CacheConfig controls extraction memoization
type CacheConfig struct {
	Enabled         bool          `yaml:"enabled" mapstructure:"enabled"`
	MemoryTTL       time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	CleanupInterval time.Duration `yaml:"cleanup_interval" mapstructure:"cleanup_interval"`
	Disk            bool          `yaml:"disk" mapstructure:"disk"`
	DiskDir         string        `yaml:"disk_dir" mapstructure:"disk_dir"`
	DiskTTL         time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// HTTPConfig controls fetching of remote sources
type HTTPConfig struct {
	Timeout       time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent     string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes  int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	RespectRobots bool          `yaml:"respect_robots" mapstructure:"respect_robots"`
	InsecureTLS   bool          `yaml:"insecure_tls" mapstructure:"insecure_tls"`
	HTTPProxy     string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy    string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy       string        `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// ConcurrencyConfig controls batch rendering
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// RateLimitingConfig throttles remote sources per host
type RateLimitingConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
}

// OutputConfig controls presentation
type OutputConfig struct {
	Format  string `yaml:"format" mapstructure:"format"` // html, json, text
	Verbose bool   `yaml:"verbose" mapstructure:"verbose"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Render: RenderConfig{
			MaxDepth:           32,
			Extensions:         []string{"gfm"},
			StripAdjacentSpace: true,
		},
		Cache: CacheConfig{
			Enabled:         true,
			MemoryTTL:       30 * time.Minute,
			CleanupInterval: 10 * time.Minute,
			Disk:            false,
			DiskDir:         ".cardmark-cache",
			DiskTTL:         24 * time.Hour,
		},
		HTTP: HTTPConfig{
			Timeout:       30 * time.Second,
			UserAgent:     "cardmark/0.1 (+https://github.com/ppiankov/cardmark)",
			MaxBodyBytes:  2_000_000,
			RespectRobots: true,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		RateLimiting: RateLimitingConfig{
			RequestsPerSecond: 2,
			BurstSize:         5,
		},
		Output: OutputConfig{
			Format: "html",
		},
	}
}
