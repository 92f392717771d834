package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/StrathCole/riskfeed/pkg/server/anomaly"
	"github.com/StrathCole/riskfeed/pkg/server/audit"
	"github.com/StrathCole/riskfeed/pkg/server/sources"
)

// Validate checks configuration for errors
func Validate(cfg *Config) error {
	if len(cfg.Oracles) == 0 {
		return ErrNoOraclesConfigured
	}
	if len(cfg.EnabledOracles()) == 0 {
		return ErrNoOraclesEnabled
	}
	for i := range cfg.Oracles {
		if err := validateOracleConfig(&cfg.Oracles[i]); err != nil {
			return fmt.Errorf("oracle %d (%s): %w", i, cfg.Oracles[i].Type, err)
		}
	}

	if !cfg.Method().IsKnown() {
		return fmt.Errorf("%w: %s", ErrInvalidAggregationMethod, cfg.AggregationMethod)
	}
	if !slices.Contains(FallbackStrategies, cfg.FallbackStrategy) {
		return fmt.Errorf("%w: %s (must be one of: %s)",
			ErrInvalidFallbackStrategy, cfg.FallbackStrategy, strings.Join(FallbackStrategies, ", "))
	}

	if err := validateAnomalyConfig(&cfg.AnomalyDetection); err != nil {
		return fmt.Errorf("anomaly_detection: %w", err)
	}

	for i := range cfg.AuditDatabases.Databases {
		if err := validateDatabaseConfig(&cfg.AuditDatabases.Databases[i]); err != nil {
			return fmt.Errorf("audit database %d (%s): %w", i, cfg.AuditDatabases.Databases[i].Name, err)
		}
	}

	if cfg.Monitoring.Enabled && len(cfg.Monitoring.Assets) == 0 {
		return ErrMonitoringAssetsRequired
	}

	if err := validateLoggingConfig(&cfg.Logging); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

func validateOracleConfig(cfg *sources.OracleConfig) error {
	if !cfg.Type.IsKnown() {
		return fmt.Errorf("%w: %s", ErrUnknownOracleType, cfg.Type)
	}
	if cfg.Endpoint == "" {
		return ErrEndpointRequired
	}
	if cfg.Weight < 0 || cfg.Weight > 1 {
		return fmt.Errorf("%w: %v", ErrInvalidWeight, cfg.Weight)
	}
	if cfg.TimeoutSeconds <= 0 {
		return ErrInvalidTimeout
	}
	if cfg.RateLimit < 0 {
		return ErrInvalidRateLimit
	}
	return nil
}

func validateAnomalyConfig(cfg *anomaly.Config) error {
	if cfg.PriceDeviationThreshold < 0 {
		return fmt.Errorf("%w: price_deviation_threshold must be >= 0", ErrInvalidAnomalyConfig)
	}
	if cfg.ConfidenceThreshold < 0 || cfg.ConfidenceThreshold > 1 {
		return fmt.Errorf("%w: confidence_threshold must be between 0 and 1", ErrInvalidAnomalyConfig)
	}
	return nil
}

func validateDatabaseConfig(cfg *audit.DatabaseConfig) error {
	if cfg.Name == "" {
		return ErrDatabaseNameRequired
	}
	if cfg.Endpoint == "" {
		return ErrEndpointRequired
	}
	if cfg.TimeoutSeconds <= 0 {
		return ErrInvalidTimeout
	}
	return nil
}

func validateLoggingConfig(cfg *LoggingConfig) error {
	validLevels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(validLevels, strings.ToLower(cfg.Level)) {
		return fmt.Errorf("%w: %s (must be one of: %s)", ErrInvalidLogLevel, cfg.Level, strings.Join(validLevels, ", "))
	}

	format := strings.ToLower(cfg.Format)
	if format != "json" && format != "text" {
		return fmt.Errorf("%w: %s (must be 'json' or 'text')", ErrInvalidLogFormat, cfg.Format)
	}

	return nil
}
