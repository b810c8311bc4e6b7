// Package resolver resolves effective replenishment parameters (MOQ, lead
// time, safety buffer) per (client, product) through the override hierarchy.
// It is a pure function over already-loaded override records; no I/O happens
// here, which keeps resolution deterministic and unit-testable.
package resolver

import (
	"github.com/andresuchdata/replenish-engine/internal/config"
	"github.com/andresuchdata/replenish-engine/internal/domain"
)

// Defaults are the system-wide values that terminate every chain. A nil
// field is a setup defect and surfaces as ConfigurationError.
type Defaults struct {
	MOQ              *int
	LeadTimeDays     *int
	SafetyBufferDays *float64
}

// DefaultsFromConfig builds resolver defaults from the engine configuration.
func DefaultsFromConfig(cfg config.EngineConfig) Defaults {
	moq := cfg.DefaultMOQ
	lead := cfg.DefaultLeadTimeDays
	buffer := cfg.DefaultSafetyBufferDays
	return Defaults{
		MOQ:              &moq,
		LeadTimeDays:     &lead,
		SafetyBufferDays: &buffer,
	}
}

// Resolver resolves effective replenishment parameters against the
// configured system defaults.
type Resolver struct {
	defaults Defaults
}

func New(defaults Defaults) *Resolver {
	return &Resolver{defaults: defaults}
}

// intLevel is one step of an integer resolution chain.
type intLevel func() *int

// floatLevel is one step of a float resolution chain.
type floatLevel func() *float64

// Resolve returns the effective parameters for one (client, product) pair.
// Each parameter resolves independently, first non-nil level wins.
func (r *Resolver) Resolve(clientID int64, ov domain.ProductOverrides) (domain.ReplenishmentParameters, error) {
	var params domain.ReplenishmentParameters

	moq, err := resolveInt("moq", []intLevel{
		func() *int {
			if ov.Condition == nil {
				return nil
			}
			return ov.Condition.MOQ
		},
		func() *int {
			if ov.Supplier == nil {
				return nil
			}
			return ov.Supplier.DefaultMOQ
		},
	}, r.defaults.MOQ)
	if err != nil {
		return params, err
	}

	leadTime, err := resolveInt("lead_time_days", []intLevel{
		func() *int {
			if ov.Condition == nil {
				return nil
			}
			return ov.Condition.LeadTimeDays
		},
		func() *int {
			if ov.Supplier == nil {
				return nil
			}
			return ov.Supplier.DefaultLeadTimeDays
		},
	}, r.defaults.LeadTimeDays)
	if err != nil {
		return params, err
	}

	buffer, err := resolveFloat("safety_buffer_days", []floatLevel{
		func() *float64 { return ov.Product.SafetyBufferDays },
		func() *float64 {
			if ov.Settings == nil {
				return nil
			}
			return ov.Settings.SafetyBufferDays
		},
	}, r.defaults.SafetyBufferDays)
	if err != nil {
		return params, err
	}

	params.MOQ = moq
	params.LeadTimeDays = leadTime
	params.SafetyBufferDays = buffer

	return params, nil
}

func resolveInt(name string, levels []intLevel, fallback *int) (int, error) {
	for _, level := range levels {
		if v := level(); v != nil {
			return *v, nil
		}
	}
	if fallback == nil {
		return 0, &domain.ConfigurationError{Parameter: name}
	}
	return *fallback, nil
}

func resolveFloat(name string, levels []floatLevel, fallback *float64) (float64, error) {
	for _, level := range levels {
		if v := level(); v != nil {
			return *v, nil
		}
	}
	if fallback == nil {
		return 0, &domain.ConfigurationError{Parameter: name}
	}
	return *fallback, nil
}
