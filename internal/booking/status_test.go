package booking_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/property-booking/internal/booking"
	"github.com/iliyamo/property-booking/internal/model"
)

func TestCanTransition(t *testing.T) {
	all := []model.BookingStatus{
		model.StatusPendingPayment, model.StatusPaymentUploaded, model.StatusConfirmed,
		model.StatusRejected, model.StatusExpired, model.StatusCompleted, model.StatusCancelled,
	}
	allowed := map[[2]model.BookingStatus]bool{
		{model.StatusPendingPayment, model.StatusPaymentUploaded}: true,
		{model.StatusPendingPayment, model.StatusExpired}:         true,
		{model.StatusPendingPayment, model.StatusCancelled}:       true,
		{model.StatusPaymentUploaded, model.StatusConfirmed}:      true,
		{model.StatusPaymentUploaded, model.StatusRejected}:       true,
		{model.StatusConfirmed, model.StatusCompleted}:            true,
	}
	for _, from := range all {
		for _, to := range all {
			assert.Equal(t, allowed[[2]model.BookingStatus{from, to}], booking.CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestTerminalStatuses(t *testing.T) {
	for _, s := range []model.BookingStatus{model.StatusRejected, model.StatusExpired, model.StatusCompleted, model.StatusCancelled} {
		assert.True(t, booking.IsTerminal(s), s)
	}
	for _, s := range []model.BookingStatus{model.StatusPendingPayment, model.StatusPaymentUploaded, model.StatusConfirmed} {
		assert.False(t, booking.IsTerminal(s), s)
	}
}

func TestIsKnownStatus(t *testing.T) {
	assert.True(t, booking.IsKnownStatus(model.StatusCancelled))
	assert.False(t, booking.IsKnownStatus("PAID"))
	assert.False(t, booking.IsKnownStatus(""))
}
