package services

import (
	"fmt"
	"time"
)

// MaxStayNights bounds a single stay.
const MaxStayNights = 365

// NormalizeDateUTC returns midnight UTC of t's UTC calendar day.
func NormalizeDateUTC(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// EnumerateDates lists the nights of a stay: every UTC day d with
// checkIn <= d < checkOut. The check-out day is not occupied. Ranges longer
// than MaxStayNights fail with ErrStayTooLong.
func EnumerateDates(checkIn, checkOut time.Time) ([]time.Time, error) {
	start := NormalizeDateUTC(checkIn)
	end := NormalizeDateUTC(checkOut)
	if !end.After(start) {
		return nil, ErrInvalidDateRange
	}
	if nights := int(end.Sub(start).Hours() / 24); nights > MaxStayNights {
		return nil, fmt.Errorf("%w: %d nights, at most %d", ErrStayTooLong, nights, MaxStayNights)
	}

	var dates []time.Time
	for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}
	return dates, nil
}
