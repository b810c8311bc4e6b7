package simulator

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/replenish-engine/internal/domain"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestPlaceOrder_QuantityFlooredToMOQ(t *testing.T) {
	s := New()

	order, err := s.PlaceOrder(1, 0, day(2024, 1, 1), 5, 3)
	require.NoError(t, err)

	assert.Equal(t, 3, order.Quantity)
	assert.Equal(t, domain.OrderPending, order.Status)
}

func TestPlaceOrder_ArrivalIsCalendarAddition(t *testing.T) {
	s := New()

	order, err := s.PlaceOrder(1, 10, day(2024, 1, 1), 5, 0)
	require.NoError(t, err)

	assert.Equal(t, day(2024, 1, 6), order.ArrivalDate)
}

func TestPlaceOrder_NonPositiveLeadTimeRejected(t *testing.T) {
	s := New()

	_, err := s.PlaceOrder(1, 10, day(2024, 1, 1), 0, 0)
	require.Error(t, err)

	var inputErr *domain.InvalidInputError
	assert.True(t, errors.As(err, &inputErr))
}

func TestPlaceOrder_SequentialIDsAndPlacementOrder(t *testing.T) {
	s := New()

	first, err := s.PlaceOrder(1, 10, day(2024, 1, 1), 5, 0)
	require.NoError(t, err)
	second, err := s.PlaceOrder(2, 20, day(2024, 1, 1), 5, 0)
	require.NoError(t, err)

	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, int64(2), second.ID)
	assert.Equal(t, 2, s.TotalPlaced())

	arriving := s.OrdersArriving(day(2024, 1, 6))
	require.Len(t, arriving, 2)
	assert.Equal(t, first.ID, arriving[0].ID)
	assert.Equal(t, second.ID, arriving[1].ID)
}

func TestOrdersArriving_ExcludesReceivedEvenOnArrivalDate(t *testing.T) {
	s := New()

	order, err := s.PlaceOrder(1, 10, day(2024, 1, 1), 5, 0)
	require.NoError(t, err)
	require.NoError(t, s.MarkReceived(order))

	assert.Empty(t, s.OrdersArriving(day(2024, 1, 6)))
}

func TestOrdersArriving_MatchesByDateOnly(t *testing.T) {
	s := New()

	_, err := s.PlaceOrder(1, 10, day(2024, 1, 1), 5, 0)
	require.NoError(t, err)

	assert.Empty(t, s.OrdersArriving(day(2024, 1, 5)))
	assert.Len(t, s.OrdersArriving(time.Date(2024, 1, 6, 17, 30, 0, 0, time.UTC)), 1)
	assert.Empty(t, s.OrdersArriving(day(2024, 1, 7)))
}

func TestMarkReceived_Idempotent(t *testing.T) {
	s := New()

	order, err := s.PlaceOrder(1, 10, day(2024, 1, 1), 5, 0)
	require.NoError(t, err)

	require.NoError(t, s.MarkReceived(order))
	require.NoError(t, s.MarkReceived(order))

	assert.Equal(t, domain.OrderReceived, order.Status)
}

func TestMarkReceived_ForeignOrderIsStateError(t *testing.T) {
	a := New()
	b := New()

	order, err := a.PlaceOrder(1, 10, day(2024, 1, 1), 5, 0)
	require.NoError(t, err)

	err = b.MarkReceived(order)
	require.Error(t, err)

	var stateErr *domain.StateError
	assert.True(t, errors.As(err, &stateErr))
	// The owning simulator is unaffected.
	assert.Equal(t, domain.OrderPending, order.Status)
}

func TestReset_ClearsAllState(t *testing.T) {
	s := New()

	_, err := s.PlaceOrder(1, 10, day(2024, 1, 1), 5, 0)
	require.NoError(t, err)
	s.Reset()

	assert.Equal(t, 0, s.TotalPlaced())
	assert.Empty(t, s.OrdersArriving(day(2024, 1, 6)))

	// Fresh counter after reset.
	order, err := s.PlaceOrder(2, 10, day(2024, 2, 1), 3, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), order.ID)
}

func TestStatusOn_ReportsArrivedStage(t *testing.T) {
	s := New()

	order, err := s.PlaceOrder(1, 10, day(2024, 1, 1), 5, 0)
	require.NoError(t, err)

	assert.Equal(t, domain.OrderPending, order.StatusOn(day(2024, 1, 5)))
	assert.Equal(t, domain.OrderArrived, order.StatusOn(day(2024, 1, 6)))

	require.NoError(t, s.MarkReceived(order))
	assert.Equal(t, domain.OrderReceived, order.StatusOn(day(2024, 1, 6)))
}
