package sources

import (
	"errors"
	"strings"
	"testing"
)

func TestFormatAsset(t *testing.T) {
	tests := []struct {
		oracle   OracleType
		asset    string
		expected string
	}{
		{OracleTypeChainlink, "ETH/USD", "eth-usd"},
		{OracleTypeChainlink, "WBTC/USDC", "btc-usd"},
		{OracleTypePyth, "btc/usdt", "Crypto.BTC/USD"},
		{OracleTypePyth, "LINK", "Crypto.LINK/USD"},
		{OracleTypeBand, "ETH/EUR", "ETH"},
		{OracleTypeCustom, "stETH-pool-7", "stETH-pool-7"},
	}

	for _, tt := range tests {
		t.Run(string(tt.oracle)+"_"+tt.asset, func(t *testing.T) {
			if got := FormatAsset(tt.oracle, tt.asset); got != tt.expected {
				t.Errorf("FormatAsset(%s, %s) = %s, want %s", tt.oracle, tt.asset, got, tt.expected)
			}
		})
	}
}

func TestSplitAsset(t *testing.T) {
	tests := map[string][2]string{
		"LUNC/USDT": {"LUNC", "USD"},
		"WETH/DAI":  {"ETH", "USD"},
		"eth/eur":   {"ETH", "EUR"},
		"SOL":       {"SOL", "USD"},
	}

	for input, expected := range tests {
		base, quote := SplitAsset(input)
		if base != expected[0] || quote != expected[1] {
			t.Errorf("SplitAsset(%s) = %s, %s, want %s, %s", input, base, quote, expected[0], expected[1])
		}
	}
}

func TestOracleTypeIsKnown(t *testing.T) {
	for _, k := range KnownOracleTypes {
		if !k.IsKnown() {
			t.Errorf("%s should be known", k)
		}
	}
	if OracleType("api3").IsKnown() {
		t.Error("api3 should not be known")
	}
}

func TestValidateAsset(t *testing.T) {
	valid := []string{"ETH/USD", "WBTC/USDT", "LINK", "usdc-curve-3pool", "Crypto.BTC/USD"}
	for _, a := range valid {
		if err := ValidateAsset(a); err != nil {
			t.Errorf("ValidateAsset(%q) = %v, want nil", a, err)
		}
	}

	invalid := []string{"", "   ", "ETH/", "/USD", "ETH/USD/EUR", "ETH USD", "ETH\n", strings.Repeat("A", 65)}
	for _, a := range invalid {
		if err := ValidateAsset(a); !errors.Is(err, ErrInvalidAsset) {
			t.Errorf("ValidateAsset(%q) = %v, want ErrInvalidAsset", a, err)
		}
	}
}
