package domain

import "time"

// Order is one simulated purchase order. Created by the simulator's
// PlaceOrder and mutated only by MarkReceived; never deleted.
// ArrivalDate is always derived from OrderDate + LeadTimeDays.
type Order struct {
	ID           int64       `json:"id"`
	ItemID       int64       `json:"item_id"`
	Quantity     int         `json:"quantity"`
	OrderDate    time.Time   `json:"order_date"`
	LeadTimeDays int         `json:"lead_time_days"`
	ArrivalDate  time.Time   `json:"arrival_date"`
	Status       OrderStatus `json:"status"`
}

// StatusOn reports the order's lifecycle stage as observed on the given
// date: a pending order whose arrival date has been reached but that has
// not been acknowledged as received reads as Arrived.
func (o *Order) StatusOn(asOf time.Time) OrderStatus {
	if o.Status == OrderPending && !o.ArrivalDate.After(asOf) {
		return OrderArrived
	}
	return o.Status
}
