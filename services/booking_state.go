package services

import "hotel-booking-engine/models"

var bookingTransitions = map[models.BookingStatus][]models.BookingStatus{
	models.BookingPending:   {models.BookingConfirmed, models.BookingCancelled},
	models.BookingConfirmed: {models.BookingCancelled, models.BookingCompleted},
}

// CanTransition reports whether a booking may move from one status to
// another. Cancelled and completed are terminal.
func CanTransition(from, to models.BookingStatus) bool {
	for _, next := range bookingTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// releasesInventory is true only for the edge into cancelled from a status
// that still holds units.
func releasesInventory(from, to models.BookingStatus) bool {
	return to == models.BookingCancelled &&
		(from == models.BookingPending || from == models.BookingConfirmed)
}
