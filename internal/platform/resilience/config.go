package resilience

import (
	"fmt"
	"time"
)

// Defaults for one provider circuit. A provider call may span many polls,
// so a handful of settled failures is already a long outage.
const (
	DefaultFailureThreshold = 5
	DefaultOpenTimeout      = 15 * time.Second
	DefaultHalfOpenMaxReq   = 2
)

// CircuitBreakerConfig is loaded per provider from <PREFIX>_CIRCUIT_*.
type CircuitBreakerConfig struct {
	Enabled          bool
	FailureThreshold int
	OpenTimeout      time.Duration
	HalfOpenMaxReq   int
}

func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Enabled:          true,
		FailureThreshold: DefaultFailureThreshold,
		OpenTimeout:      DefaultOpenTimeout,
		HalfOpenMaxReq:   DefaultHalfOpenMaxReq,
	}
}

// NormalizeCircuitBreakerConfig fills unset or invalid fields with defaults.
// Enabled is kept as given.
func NormalizeCircuitBreakerConfig(cfg CircuitBreakerConfig) CircuitBreakerConfig {
	if cfg.FailureThreshold < 1 {
		cfg.FailureThreshold = DefaultFailureThreshold
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = DefaultOpenTimeout
	}
	if cfg.HalfOpenMaxReq < 1 {
		cfg.HalfOpenMaxReq = DefaultHalfOpenMaxReq
	}
	return cfg
}

// Validate rejects explicit values a breaker cannot run with. name prefixes
// the error, e.g. "DISCOVERY_CIRCUIT".
func (c CircuitBreakerConfig) Validate(name string) error {
	switch {
	case c.FailureThreshold < 1:
		return fmt.Errorf("%s_FAILURE_COUNT must be >= 1", name)
	case c.OpenTimeout <= 0:
		return fmt.Errorf("%s_OPEN_TIMEOUT must be > 0", name)
	case c.HalfOpenMaxReq < 1:
		return fmt.Errorf("%s_HALF_OPEN_MAX_REQ must be >= 1", name)
	}
	return nil
}
