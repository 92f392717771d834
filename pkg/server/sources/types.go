// Package sources defines the oracle provider contract and the HTTP plumbing
// shared by every oracle variant.
package sources

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// OracleType identifies the kind of an oracle source.
type OracleType string

const (
	OracleTypeChainlink OracleType = "chainlink"
	OracleTypePyth      OracleType = "pyth"
	OracleTypeBand      OracleType = "band"
	OracleTypeCustom    OracleType = "custom"
)

// KnownOracleTypes lists every oracle type a provider can be built for.
var KnownOracleTypes = []OracleType{
	OracleTypeChainlink,
	OracleTypePyth,
	OracleTypeBand,
	OracleTypeCustom,
}

// IsKnown reports whether t is one of KnownOracleTypes.
func (t OracleType) IsKnown() bool {
	for _, k := range KnownOracleTypes {
		if t == k {
			return true
		}
	}
	return false
}

// Normalize lower-cases and trims t.
func (t OracleType) Normalize() OracleType {
	return OracleType(strings.ToLower(strings.TrimSpace(string(t))))
}

// OracleConfig identifies one configured oracle source. It is not modified
// after the provider has been constructed.
type OracleConfig struct {
	Type           OracleType `yaml:"type"`
	Endpoint       string     `yaml:"endpoint"`
	APIKey         string     `yaml:"api_key"`
	TimeoutSeconds int        `yaml:"timeout_seconds"`
	RetryAttempts  int        `yaml:"retry_attempts"` // accepted, not acted upon
	Weight         float64    `yaml:"weight"`
	Enabled        bool       `yaml:"enabled"`

	// RateLimit caps outgoing requests per second. 0 disables throttling.
	RateLimit float64 `yaml:"rate_limit"`
	// PricePath and ConfidencePath are gjson paths into the payload.
	PricePath      string `yaml:"price_path"`
	ConfidencePath string `yaml:"confidence_path"`
}

// Timeout returns the request timeout, falling back to DefaultTimeout.
func (c OracleConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return DefaultTimeout
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// OracleResponse is the outcome of one query to one oracle for one asset.
// Transport and HTTP failures are reported with Success=false, never as an error.
type OracleResponse struct {
	OracleType   OracleType      `json:"oracle_type"`
	Asset        string          `json:"asset"`
	Price        decimal.Decimal `json:"price"`
	Timestamp    time.Time       `json:"timestamp"`
	Confidence   float64         `json:"confidence"`
	ResponseTime time.Duration   `json:"response_time"`
	Success      bool            `json:"success"`
	Error        string          `json:"error,omitempty"`
	RawData      json.RawMessage `json:"raw_data,omitempty"`
}

// Provider fetches quotes for assets from one external oracle.
type Provider interface {
	// GetPrice issues one bounded request for asset. The error is reserved for
	// failures that prevent building a response at all.
	GetPrice(ctx context.Context, asset string) (*OracleResponse, error)

	// GetPrices queries every asset independently.
	GetPrices(ctx context.Context, assets []string) (map[string]*OracleResponse, error)

	// OracleType returns the kind of this provider.
	OracleType() OracleType
}
