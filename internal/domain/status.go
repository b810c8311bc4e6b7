package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// OrderStatus is the lifecycle state of a purchase order in the simulator.
// Transitions are linear: Pending -> Arrived -> Received.
type OrderStatus int

const (
	OrderPending OrderStatus = iota
	OrderArrived
	OrderReceived
)

var orderStatusLabels = map[OrderStatus]string{
	OrderPending:  "Pending",
	OrderArrived:  "Arrived",
	OrderReceived: "Received",
}

var orderStatusCodes = map[string]OrderStatus{
	"pending":  OrderPending,
	"arrived":  OrderArrived,
	"received": OrderReceived,
}

// String returns a human-readable label for an order status.
func (s OrderStatus) String() string {
	if label, ok := orderStatusLabels[s]; ok {
		return label
	}

	return "Unknown"
}

// ParseOrderStatus returns the status for a given label (case-insensitive).
func ParseOrderStatus(label string) (OrderStatus, bool) {
	status, ok := orderStatusCodes[strings.ToLower(label)]

	return status, ok
}

// MarshalJSON renders the status as its lowercase label so order payloads
// read "pending"/"arrived"/"received" instead of bare codes.
func (s OrderStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(strings.ToLower(s.String()))
}

func (s *OrderStatus) UnmarshalJSON(data []byte) error {
	var label string
	if err := json.Unmarshal(data, &label); err != nil {
		return err
	}

	status, ok := ParseOrderStatus(label)
	if !ok {
		return &InvalidInputError{
			Field:  "status",
			Reason: fmt.Sprintf("unknown order status %q", label),
		}
	}

	*s = status
	return nil
}

// ABCClass ranks a SKU by cumulative value contribution (Pareto tiers).
type ABCClass string

const (
	ABCClassA ABCClass = "A"
	ABCClassB ABCClass = "B"
	ABCClassC ABCClass = "C"
)

// XYZClass ranks a SKU by demand variability (coefficient of variation).
type XYZClass string

const (
	XYZClassX XYZClass = "X"
	XYZClassY XYZClass = "Y"
	XYZClassZ XYZClass = "Z"
)

// Pattern is the demand pattern label. Exactly one per SKU.
type Pattern string

const (
	PatternSmooth       Pattern = "smooth"
	PatternIntermittent Pattern = "intermittent"
	PatternErratic      Pattern = "erratic"
	PatternLumpy        Pattern = "lumpy"
)

// Stock condition buckets for InventoryMetricsSnapshot rows.
const (
	StockUnderstocked = "understocked"
	StockHealthy      = "healthy"
	StockOverstocked  = "overstocked"
	StockDead         = "dead_stock"
	StockNoDemand     = "no_demand"
)

// StockConditions lists every valid stock condition bucket.
func StockConditions() []string {
	return []string{
		StockUnderstocked,
		StockHealthy,
		StockOverstocked,
		StockDead,
		StockNoDemand,
	}
}
