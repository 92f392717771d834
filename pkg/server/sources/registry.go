package sources

import (
	"fmt"
	"sort"
	"sync"

	"github.com/StrathCole/riskfeed/pkg/logging"
)

// ProviderFactory builds a provider for one oracle configuration.
type ProviderFactory func(cfg OracleConfig, logger *logging.Logger) (Provider, error)

var (
	registry = make(map[OracleType]ProviderFactory)
	mu       sync.RWMutex
)

// Register adds a provider factory to the registry
func Register(t OracleType, factory ProviderFactory) {
	mu.Lock()
	defer mu.Unlock()
	registry[t] = factory
}

// Create builds the provider registered for cfg.Type.
func Create(cfg OracleConfig, logger *logging.Logger) (Provider, error) {
	mu.RLock()
	factory, ok := registry[cfg.Type]
	mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownOracleType, cfg.Type)
	}
	if logger == nil {
		logger = logging.NewNoopLogger()
	}

	return factory(cfg, logger)
}

// List returns all registered oracle types in sorted order.
func List() []OracleType {
	mu.RLock()
	defer mu.RUnlock()

	types := make([]OracleType, 0, len(registry))
	for t := range registry {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}
