package strategy

import (
	coreerrors "github.com/sirily11/argo-backtest-core/pkg/errors"
)

// Factory constructs a fresh, unconfigured Strategy instance. The
// orchestrator calls a Factory once per parameter-sweep point so every
// run gets independent strategy state.
type Factory func() Strategy

// Registry maps strategy names to factories, supporting register/get/list
// by name.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a named factory. Registering a name that already exists
// is an error.
func (r *Registry) Register(name string, factory Factory) error {
	if _, exists := r.factories[name]; exists {
		return coreerrors.Newf(coreerrors.ErrCodeInvalidConfig, "strategy %q already registered", name)
	}

	r.factories[name] = factory

	return nil
}

// New constructs a fresh strategy instance for the named factory.
func (r *Registry) New(name string) (Strategy, error) {
	factory, exists := r.factories[name]
	if !exists {
		return nil, coreerrors.Newf(coreerrors.ErrCodeInvalidConfig, "strategy %q not registered", name)
	}

	return factory(), nil
}

// Names lists all registered strategy names.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}

	return names
}

// NewBuiltinRegistry returns a Registry preloaded with the five built-in
// reference strategies.
func NewBuiltinRegistry() *Registry {
	r := NewRegistry()

	_ = r.Register("dual_ma_crossover", func() Strategy { return NewDualMACrossover() })
	_ = r.Register("donchian_breakout", func() Strategy { return NewDonchianBreakout() })
	_ = r.Register("bollinger_mean_reversion", func() Strategy { return NewBollingerMeanReversion() })
	_ = r.Register("rsi_mean_reversion", func() Strategy { return NewRSIMeanReversion() })
	_ = r.Register("zscore_mean_reversion", func() Strategy { return NewZScoreMeanReversion() })

	return r
}
