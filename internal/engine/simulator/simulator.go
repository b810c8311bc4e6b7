// Package simulator tracks the discrete-event lifecycle of simulated
// purchase orders: placement -> arrival -> receipt. It has no notion of
// stock levels or demand consumption; a calling simulation loop owns that.
// A Simulator instance is not safe for concurrent use and is intended to be
// owned by exactly one simulation run.
package simulator

import (
	"time"

	"github.com/andresuchdata/replenish-engine/internal/domain"
)

// Simulator holds the orders of one simulation run in placement order.
type Simulator struct {
	orders []*domain.Order
	byID   map[int64]*domain.Order
	nextID int64
}

func New() *Simulator {
	return &Simulator{
		byID:   make(map[int64]*domain.Order),
		nextID: 1,
	}
}

// PlaceOrder creates a new PENDING order. The effective quantity is floored
// to minOrderQty, so a non-positive requested quantity is raised rather than
// rejected. Arrival is pure calendar addition: orderDate + leadTimeDays.
func (s *Simulator) PlaceOrder(itemID int64, quantity int, orderDate time.Time, leadTimeDays, minOrderQty int) (*domain.Order, error) {
	if leadTimeDays <= 0 {
		return nil, &domain.InvalidInputError{
			Field:  "lead_time_days",
			Reason: "must be positive",
		}
	}

	if quantity < minOrderQty {
		quantity = minOrderQty
	}

	day := dateOnly(orderDate)
	order := &domain.Order{
		ID:           s.nextID,
		ItemID:       itemID,
		Quantity:     quantity,
		OrderDate:    day,
		LeadTimeDays: leadTimeDays,
		ArrivalDate:  day.AddDate(0, 0, leadTimeDays),
		Status:       domain.OrderPending,
	}
	s.nextID++
	s.orders = append(s.orders, order)
	s.byID[order.ID] = order

	return order, nil
}

// OrdersArriving returns all non-received orders whose arrival date equals
// asOf, in original placement order. Orders already received are excluded
// even when their arrival date matches: receipt is consumed regardless of
// calendar date. The query does not mutate order state; callers observe the
// ARRIVED stage through Order.StatusOn.
func (s *Simulator) OrdersArriving(asOf time.Time) []*domain.Order {
	day := dateOnly(asOf)

	arriving := make([]*domain.Order, 0)
	for _, order := range s.orders {
		if order.Status == domain.OrderReceived {
			continue
		}
		if !order.ArrivalDate.Equal(day) {
			continue
		}
		arriving = append(arriving, order)
	}

	return arriving
}

// MarkReceived transitions the order to RECEIVED. Marking an order that is
// already received is a no-op, not an error. An order owned by a different
// simulator instance is a StateError.
func (s *Simulator) MarkReceived(order *domain.Order) error {
	if order == nil {
		return &domain.StateError{Op: "mark_order_received", Reason: "nil order"}
	}
	owned, ok := s.byID[order.ID]
	if !ok || owned != order {
		return &domain.StateError{
			Op:     "mark_order_received",
			Reason: "order is not owned by this simulator instance",
		}
	}

	order.Status = domain.OrderReceived
	return nil
}

// TotalPlaced returns the count of all orders ever placed in this instance,
// regardless of state.
func (s *Simulator) TotalPlaced() int {
	return len(s.orders)
}

// Reset clears all orders and the id counter back to a fresh simulator.
// Intended between simulation runs, not during a live run.
func (s *Simulator) Reset() {
	s.orders = nil
	s.byID = make(map[int64]*domain.Order)
	s.nextID = 1
}

// dateOnly truncates a timestamp to a UTC calendar day so arrival lookups
// compare by date, not time of day.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
