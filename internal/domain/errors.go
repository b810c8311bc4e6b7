package domain

import "fmt"

// ConfigurationError reports a resolution chain that terminated without a
// system default. This is a setup defect, not a runtime/user error.
type ConfigurationError struct {
	Parameter string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("no system default configured for parameter %q", e.Parameter)
}

// InvalidInputError reports malformed caller input, e.g. a non-chronological
// demand series or a non-positive lead time.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// StateError reports an order-lifecycle operation that violates the
// simulator's ownership invariant (an order from a different instance).
type StateError struct {
	Op     string
	Reason string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}
