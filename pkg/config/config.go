// Package config provides configuration loading and validation for riskfeed.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/StrathCole/riskfeed/pkg/server/aggregator"
	"github.com/StrathCole/riskfeed/pkg/server/anomaly"
)

const (
	DefaultCacheDurationSeconds     = 300
	DefaultAuditCacheDurationHours  = 24
	DefaultOracleTimeoutSeconds     = 10
	DefaultAuditTimeoutSeconds      = 10
	DefaultMonitoringIntervalSecond = 60
	DefaultFallbackStrategy         = "last_known_price"
)

// FallbackStrategies lists the accepted fallback_strategy values.
var FallbackStrategies = []string{
	"last_known_price",
	"median",
	"weighted_average",
	"most_reliable_oracle",
	"disable_trading",
}

// Load loads configuration from YAML file and environment variables.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	absPath, err := filepath.Abs(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("invalid config path: %w", err)
	}

	data, err := os.ReadFile(absPath) // #nosec G304 -- Path sanitized with filepath.Clean and filepath.Abs
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse decodes YAML with ${VAR} expansion and applies defaults.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyDefaults(&cfg)

	return &cfg, nil
}

// Default returns a configuration with every default applied and no oracles.
func Default() *Config {
	var cfg Config
	applyDefaults(&cfg)
	return &cfg
}

// applyDefaults sets default values for optional fields.
func applyDefaults(cfg *Config) {
	for i := range cfg.Oracles {
		o := &cfg.Oracles[i]
		o.Type = o.Type.Normalize()
		if o.TimeoutSeconds <= 0 {
			o.TimeoutSeconds = DefaultOracleTimeoutSeconds
		}
		// an unset weight counts fully
		if o.Weight == 0 {
			o.Weight = 1.0
		}
	}

	if cfg.AggregationMethod == "" {
		cfg.AggregationMethod = string(aggregator.MethodWeightedAverage)
	}
	cfg.AggregationMethod = string(aggregator.ParseMethod(cfg.AggregationMethod))

	if cfg.FallbackStrategy == "" {
		cfg.FallbackStrategy = DefaultFallbackStrategy
	}
	cfg.FallbackStrategy = normalizeName(cfg.FallbackStrategy)

	if cfg.CacheDurationSeconds <= 0 {
		cfg.CacheDurationSeconds = DefaultCacheDurationSeconds
	}

	// Anomaly detection defaults
	ad := &cfg.AnomalyDetection
	if ad.PriceDeviationThreshold == 0 {
		ad.PriceDeviationThreshold = anomaly.DefaultPriceDeviationThreshold
	}
	if ad.VolumeSpikeThreshold == 0 {
		ad.VolumeSpikeThreshold = anomaly.DefaultVolumeSpikeThreshold
	}
	if ad.TimeWindowMinutes <= 0 {
		ad.TimeWindowMinutes = anomaly.DefaultTimeWindowMinutes
	}
	if ad.ConfidenceThreshold == 0 {
		ad.ConfidenceThreshold = anomaly.DefaultConfidenceThreshold
	}

	// Audit defaults
	if cfg.AuditDatabases.CacheDurationHours <= 0 {
		cfg.AuditDatabases.CacheDurationHours = DefaultAuditCacheDurationHours
	}
	for i := range cfg.AuditDatabases.Databases {
		if cfg.AuditDatabases.Databases[i].TimeoutSeconds <= 0 {
			cfg.AuditDatabases.Databases[i].TimeoutSeconds = DefaultAuditTimeoutSeconds
		}
	}

	if cfg.Monitoring.IntervalSeconds <= 0 {
		cfg.Monitoring.IntervalSeconds = DefaultMonitoringIntervalSecond
	}

	// Server defaults
	if cfg.Server.HTTP.Addr == "" {
		cfg.Server.HTTP.Addr = ":8080"
	}
	if cfg.Server.WebSocket.Enabled && cfg.Server.WebSocket.Addr == "" {
		cfg.Server.WebSocket.Addr = ":8081"
	}

	// Metrics defaults
	if cfg.Metrics.Enabled && cfg.Metrics.Addr == "" {
		cfg.Metrics.Addr = ":9091"
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}
}

// Method returns the configured aggregation method.
func (c *Config) Method() aggregator.Method {
	return aggregator.Method(c.AggregationMethod)
}

func normalizeName(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
}
