// Package anomaly flags oracle price samples that stray from the recent
// history of the same oracle.
package anomaly

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/StrathCole/riskfeed/pkg/server/sources"
)

const (
	DefaultPriceDeviationThreshold = 0.05
	DefaultVolumeSpikeThreshold    = 2.0
	DefaultTimeWindowMinutes       = 60
	DefaultConfidenceThreshold     = 0.8
)

// Config tunes the detector. VolumeSpikeThreshold, ConfidenceThreshold and
// EnableMachineLearning are accepted but not consulted.
type Config struct {
	PriceDeviationThreshold float64 `yaml:"price_deviation_threshold"`
	VolumeSpikeThreshold    float64 `yaml:"volume_spike_threshold"`
	TimeWindowMinutes       int     `yaml:"time_window_minutes"`
	ConfidenceThreshold     float64 `yaml:"confidence_threshold"`
	EnableMachineLearning   bool    `yaml:"enable_machine_learning"`
}

// DefaultConfig returns the stock detector settings.
func DefaultConfig() Config {
	return Config{
		PriceDeviationThreshold: DefaultPriceDeviationThreshold,
		VolumeSpikeThreshold:    DefaultVolumeSpikeThreshold,
		TimeWindowMinutes:       DefaultTimeWindowMinutes,
		ConfidenceThreshold:     DefaultConfidenceThreshold,
	}
}

// Window returns the retention window as a duration.
func (c Config) Window() time.Duration {
	return time.Duration(c.TimeWindowMinutes) * time.Minute
}

// EnhancedPriceData is one observed sample. Volume is optional.
type EnhancedPriceData struct {
	OracleType sources.OracleType `json:"oracle_type"`
	Asset      string             `json:"asset"`
	Price      decimal.Decimal    `json:"price"`
	Confidence float64            `json:"confidence"`
	Volume     *decimal.Decimal   `json:"volume,omitempty"`
	Timestamp  time.Time          `json:"timestamp"`
}

// SampleFromResponse converts a successful oracle response into a sample.
func SampleFromResponse(r *sources.OracleResponse) EnhancedPriceData {
	return EnhancedPriceData{
		OracleType: r.OracleType,
		Asset:      r.Asset,
		Price:      r.Price,
		Confidence: r.Confidence,
		Timestamp:  r.Timestamp,
	}
}
