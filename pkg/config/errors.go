package config

import "errors"

var (
	// ErrNoOraclesConfigured indicates that no oracle is configured.
	ErrNoOraclesConfigured = errors.New("at least one oracle must be configured")
	// ErrNoOraclesEnabled indicates that every configured oracle is disabled.
	ErrNoOraclesEnabled = errors.New("no oracles enabled")
	// ErrUnknownOracleType indicates that the oracle type is unknown.
	ErrUnknownOracleType = errors.New("unknown oracle type")
	// ErrEndpointRequired indicates that an endpoint must be specified.
	ErrEndpointRequired = errors.New("endpoint must be specified")
	// ErrInvalidWeight indicates that an oracle weight is outside [0, 1].
	ErrInvalidWeight = errors.New("weight must be between 0 and 1")
	// ErrInvalidTimeout indicates a non-positive timeout.
	ErrInvalidTimeout = errors.New("timeout_seconds must be > 0")
	// ErrInvalidRateLimit indicates a negative rate limit.
	ErrInvalidRateLimit = errors.New("rate_limit must be >= 0")
	// ErrInvalidAggregationMethod indicates that the aggregation method is invalid.
	ErrInvalidAggregationMethod = errors.New("invalid aggregation_method")
	// ErrInvalidFallbackStrategy indicates that the fallback strategy is invalid.
	ErrInvalidFallbackStrategy = errors.New("invalid fallback_strategy")
	// ErrInvalidAnomalyConfig indicates an out-of-range anomaly detection setting.
	ErrInvalidAnomalyConfig = errors.New("invalid anomaly_detection")
	// ErrDatabaseNameRequired indicates that an audit database has no name.
	ErrDatabaseNameRequired = errors.New("audit database name must be specified")
	// ErrMonitoringAssetsRequired indicates that monitoring is enabled without assets.
	ErrMonitoringAssetsRequired = errors.New("monitoring.assets must be specified when monitoring is enabled")
	// ErrInvalidLogLevel indicates that the log level is invalid.
	ErrInvalidLogLevel = errors.New("invalid log level")
	// ErrInvalidLogFormat indicates that the log format is invalid.
	ErrInvalidLogFormat = errors.New("invalid log format")
)
