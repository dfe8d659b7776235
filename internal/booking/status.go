package booking

import "github.com/iliyamo/property-booking/internal/model"

var validNext = map[model.BookingStatus]map[model.BookingStatus]bool{
	model.StatusPendingPayment: {
		model.StatusPaymentUploaded: true,
		model.StatusExpired:         true,
		model.StatusCancelled:       true,
	},
	model.StatusPaymentUploaded: {
		model.StatusConfirmed: true,
		model.StatusRejected:  true,
	},
	model.StatusConfirmed: {
		model.StatusCompleted: true,
	},
}

// CanTransition reports whether a booking may move from one status to another.
func CanTransition(from, to model.BookingStatus) bool {
	return validNext[from][to]
}

// IsTerminal reports whether no further transition leaves the status.
func IsTerminal(s model.BookingStatus) bool {
	return len(validNext[s]) == 0
}

// IsLive reports whether a booking in this status still occupies its room.
func IsLive(s model.BookingStatus) bool {
	switch s {
	case model.StatusPendingPayment, model.StatusPaymentUploaded, model.StatusConfirmed, model.StatusCompleted:
		return true
	}
	return false
}

// LiveStatuses lists the statuses that block availability.
func LiveStatuses() []model.BookingStatus {
	return []model.BookingStatus{
		model.StatusPendingPayment,
		model.StatusPaymentUploaded,
		model.StatusConfirmed,
		model.StatusCompleted,
	}
}

// IsKnownStatus reports whether s is one of the lifecycle statuses.
func IsKnownStatus(s model.BookingStatus) bool {
	switch s {
	case model.StatusPendingPayment, model.StatusPaymentUploaded, model.StatusConfirmed,
		model.StatusRejected, model.StatusExpired, model.StatusCompleted, model.StatusCancelled:
		return true
	}
	return false
}
