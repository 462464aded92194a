package quote

import (
	"errors"
	"math"
	"time"

	"havenhub/internal/models"
)

// Bookings are priced per hour: the daily room price divided by 24,
// times the ceiling of the interval in hours, with a one hour minimum.

var (
	ErrMissingField = errors.New("both start and end are required")
	ErrInverted     = errors.New("end must be after start")
	ErrTooShort     = errors.New("minimum booking duration is 1 hour")
)

// Quote is a transient priced view of a proposed interval. Never
// persisted; recomputed on every input change.
type Quote struct {
	DurationUnits int64
	UnitRate      float64
	TotalPrice    float64
	IsValid       bool
}

// Compute prices the interval against the room's rate. No I/O.
// end <= start yields zero units and an invalid quote; duration and
// price are never negative.
func Compute(room models.Room, start, end time.Time) Quote {
	// The total is derived from the displayed per-hour rate, so the
	// two never disagree by a cent on non-terminating rates.
	rate := roundCents(room.HourlyRate())
	q := Quote{UnitRate: rate}

	if start.IsZero() || end.IsZero() || !end.After(start) {
		return q
	}

	q.DurationUnits = int64(math.Ceil(end.Sub(start).Hours()))
	q.TotalPrice = roundCents(float64(q.DurationUnits) * rate)
	q.IsValid = q.DurationUnits >= models.MinBookingHours
	return q
}

// ValidateInterval enforces presence, ordering and minimum length.
func ValidateInterval(start, end time.Time, minUnits int64) error {
	if start.IsZero() || end.IsZero() {
		return ErrMissingField
	}
	if !end.After(start) {
		return ErrInverted
	}
	if int64(math.Ceil(end.Sub(start).Hours())) < minUnits {
		return ErrTooShort
	}
	return nil
}

// IsRoomBookable is the advisory client-side pre-check: the room
// must be AVAILABLE and carry no pending or approved booking. The
// server remains authoritative; a true here can still be rejected
// at submission.
func IsRoomBookable(room models.Room, bookings []models.Booking) bool {
	if room.Status != models.RoomAvailable {
		return false
	}
	for _, b := range bookings {
		if b.RoomID == room.ID && b.Status.IsActive() {
			return false
		}
	}
	return true
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
