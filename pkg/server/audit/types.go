// Package audit collects vulnerability and audit findings from audit databases.
package audit

import (
	"context"
	"strings"
	"time"
)

// Severity of a finding.
type Severity string

const (
	SeverityCritical      Severity = "critical"
	SeverityHigh          Severity = "high"
	SeverityMedium        Severity = "medium"
	SeverityLow           Severity = "low"
	SeverityInformational Severity = "informational"
)

// ParseSeverity maps a database impact label to a Severity. Unrecognized
// labels are informational.
func ParseSeverity(s string) Severity {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "critical":
		return SeverityCritical
	case "high":
		return SeverityHigh
	case "medium", "moderate":
		return SeverityMedium
	case "low":
		return SeverityLow
	default:
		return SeverityInformational
	}
}

// Category of a finding.
type Category string

const (
	CategoryReentrancy         Category = "reentrancy"
	CategoryAccessControl      Category = "access-control"
	CategoryOracleManipulation Category = "oracle-manipulation"
	CategoryArithmetic         Category = "arithmetic"
	CategoryLogic              Category = "logic"
	CategoryOther              Category = "other"
)

// ParseCategory normalizes a category label. Unrecognized labels map to other.
func ParseCategory(s string) Category {
	c := Category(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-"))
	switch c {
	case CategoryReentrancy, CategoryAccessControl, CategoryOracleManipulation,
		CategoryArithmetic, CategoryLogic:
		return c
	default:
		return CategoryOther
	}
}

// Status of a finding.
type Status string

const (
	StatusOpen         Status = "open"
	StatusAcknowledged Status = "acknowledged"
	StatusFixed        Status = "fixed"
	StatusUnknown      Status = "unknown"
)

// ParseStatus normalizes a status label.
func ParseStatus(s string) Status {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "open":
		return StatusOpen
	case "acknowledged":
		return StatusAcknowledged
	case "fixed", "resolved":
		return StatusFixed
	default:
		return StatusUnknown
	}
}

// Entry is one finding reported by an audit database.
type Entry struct {
	ID          string    `json:"id"`
	Protocol    string    `json:"protocol"`
	AuditFirm   string    `json:"audit_firm"`
	AuditDate   time.Time `json:"audit_date"`
	Severity    Severity  `json:"severity"`
	Category    Category  `json:"category"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      Status    `json:"status"`
	Remediation string    `json:"remediation,omitempty"`
	CVEID       string    `json:"cve_id,omitempty"`
	References  []string  `json:"references"`
}

// DatabaseConfig identifies one audit database.
type DatabaseConfig struct {
	Name           string `yaml:"name"`
	Endpoint       string `yaml:"endpoint"`
	APIKey         string `yaml:"api_key"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	Enabled        bool   `yaml:"enabled"`
}

// Timeout returns the request timeout, DefaultTimeout when unset.
func (c DatabaseConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return DefaultTimeout
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Provider queries one audit database. Failures are reported as empty lists.
type Provider interface {
	GetAudits(ctx context.Context, protocol string) []Entry
	GetAuditsBySeverity(ctx context.Context, protocol string, severity Severity) []Entry
	GetAuditsByCategory(ctx context.Context, protocol string, category Category) []Entry
	Name() string
}
