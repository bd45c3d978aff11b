package sessionRepo

import (
	"context"
	"time"

	"fisiocare/models"
)

// SessionRepository defines data access for sessions. Transition methods are
// compare-and-swap writes: the filter encodes the allowed pre-state and the
// boolean result reports whether the transition actually happened.
type SessionRepository interface {
	GetByID(ctx context.Context, id string) (*models.Session, error)
	ListByBooking(ctx context.Context, bookingID string) ([]models.Session, error)

	// CountUnfinished returns the total number of sessions for the booking
	// and how many are not yet terminal-finished.
	CountUnfinished(ctx context.Context, bookingID string) (total int64, unfinished int64, err error)

	// HasOverlap reports whether the therapist already has another SCHEDULED
	// session within the visit window around `at`.
	HasOverlap(ctx context.Context, therapistID string, at time.Time, window time.Duration, excludeID string) (bool, error)

	// ListScheduledByTherapist returns the therapist's SCHEDULED sessions
	// within [from, to), ordered by scheduledAt.
	ListScheduledByTherapist(ctx context.Context, therapistID string, from, to time.Time) ([]models.Session, error)

	CASSchedule(ctx context.Context, id string, at time.Time) (bool, error)
	CASComplete(ctx context.Context, id string, notes, photoURL string, now time.Time) (bool, error)
	CASForfeit(ctx context.Context, id string, actor models.CancelActor, reason string, now time.Time) (bool, error)
	CASRelease(ctx context.Context, id string, actor models.CancelActor, reason string, now time.Time) (bool, error)
	CASCancel(ctx context.Context, id string, actor models.CancelActor, reason string, now time.Time) (bool, error)

	// StaleScheduledBookingIDs lists bookings owning SCHEDULED sessions whose
	// scheduledAt is at or before the cutoff; ExpireStale then sweeps them.
	StaleScheduledBookingIDs(ctx context.Context, cutoff time.Time) ([]string, error)
	ExpireStale(ctx context.Context, cutoff time.Time) (int64, error)
}
