package config

import (
	"time"

	"github.com/StrathCole/riskfeed/pkg/server/anomaly"
	"github.com/StrathCole/riskfeed/pkg/server/audit"
	"github.com/StrathCole/riskfeed/pkg/server/sources"
)

// Config is the root configuration structure
type Config struct {
	Oracles              []sources.OracleConfig `yaml:"oracles"`
	FallbackStrategy     string                 `yaml:"fallback_strategy"`
	AggregationMethod    string                 `yaml:"aggregation_method"`
	CacheDurationSeconds int                    `yaml:"cache_duration_seconds"`
	AnomalyDetection     anomaly.Config         `yaml:"anomaly_detection"`
	AuditDatabases       AuditDatabasesConfig   `yaml:"audit_databases"`
	Monitoring           MonitoringConfig       `yaml:"monitoring"`
	Server               ServerConfig           `yaml:"server"`
	Metrics              MetricsConfig          `yaml:"metrics"`
	Logging              LoggingConfig          `yaml:"logging"`
}

// AuditDatabasesConfig lists the audit databases and their cache lifetime.
// EnableAutoSync and SyncIntervalHours are accepted but not acted upon.
type AuditDatabasesConfig struct {
	Databases          []audit.DatabaseConfig `yaml:"databases"`
	CacheDurationHours int                    `yaml:"cache_duration_hours"`
	EnableAutoSync     bool                   `yaml:"enable_auto_sync"`
	SyncIntervalHours  int                    `yaml:"sync_interval_hours"`
}

// MonitoringConfig drives the periodic price refresh of the serve command
type MonitoringConfig struct {
	Enabled         bool     `yaml:"enabled"`
	IntervalSeconds int      `yaml:"interval_seconds"`
	Assets          []string `yaml:"assets"`
}

// ServerConfig configures the API surface
type ServerConfig struct {
	HTTP      HTTPConfig `yaml:"http"`
	WebSocket WSConfig   `yaml:"websocket"`
}

// HTTPConfig configures the HTTP server
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// WSConfig configures the WebSocket server
type WSConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// MetricsConfig configures Prometheus metrics
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
	Path    string `yaml:"path"`
}

// LoggingConfig configures logging
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// CacheDuration returns the price cache lifetime.
func (c *Config) CacheDuration() time.Duration {
	return time.Duration(c.CacheDurationSeconds) * time.Second
}

// AuditCacheDuration returns the audit cache lifetime.
func (c *Config) AuditCacheDuration() time.Duration {
	return time.Duration(c.AuditDatabases.CacheDurationHours) * time.Hour
}

// MonitoringInterval returns the refresh period of the monitoring loop.
func (c *Config) MonitoringInterval() time.Duration {
	return time.Duration(c.Monitoring.IntervalSeconds) * time.Second
}

// EnabledOracles returns the oracle configs with Enabled set, in file order.
func (c *Config) EnabledOracles() []sources.OracleConfig {
	out := make([]sources.OracleConfig, 0, len(c.Oracles))
	for _, o := range c.Oracles {
		if o.Enabled {
			out = append(out, o)
		}
	}
	return out
}

// EnabledAuditDatabases returns the audit database configs with Enabled set, in file order.
func (c *Config) EnabledAuditDatabases() []audit.DatabaseConfig {
	out := make([]audit.DatabaseConfig, 0, len(c.AuditDatabases.Databases))
	for _, d := range c.AuditDatabases.Databases {
		if d.Enabled {
			out = append(out, d)
		}
	}
	return out
}
