package oracle

import (
	"fmt"

	"github.com/StrathCole/riskfeed/pkg/logging"
	"github.com/StrathCole/riskfeed/pkg/server/sources"
)

const customDefaultConfidence = 0.70

// CustomProvider queries any JSON endpoint. The asset is passed through
// unchanged and the price/confidence locations come from price_path and
// confidence_path in the oracle config.
type CustomProvider struct {
	*sources.BaseProvider
}

var _ sources.Provider = (*CustomProvider)(nil)

// NewCustomProvider creates a generically configured provider from cfg.
func NewCustomProvider(cfg sources.OracleConfig, logger *logging.Logger) (sources.Provider, error) {
	if cfg.Type != sources.OracleTypeCustom {
		return nil, fmt.Errorf("%w: got %s, want %s", ErrWrongOracleType, cfg.Type, sources.OracleTypeCustom)
	}

	base, err := sources.NewBaseProvider(cfg, customDefaultConfidence, logger)
	if err != nil {
		return nil, fmt.Errorf("custom provider: %w", err)
	}

	base.Logger().Debug("Custom oracle configured", "endpoint", cfg.Endpoint, "price_path", cfg.PricePath)
	return &CustomProvider{BaseProvider: base}, nil
}
