package oracle

import (
	"github.com/StrathCole/riskfeed/pkg/server/sources"
)

func init() {
	sources.Register(sources.OracleTypeChainlink, NewChainlinkProvider)
	sources.Register(sources.OracleTypePyth, NewPythProvider)
	sources.Register(sources.OracleTypeBand, NewBandProvider)
	sources.Register(sources.OracleTypeCustom, NewCustomProvider)
}
