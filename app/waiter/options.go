package waiter

import (
	"os"
)

type Option func(*waiterCfg)

// WithSignals replaces the default SIGINT/SIGTERM set that stops the waiter.
func WithSignals(signals ...os.Signal) Option {
	return func(cfg *waiterCfg) {
		if len(signals) > 0 {
			cfg.signals = signals
		}
	}
}
