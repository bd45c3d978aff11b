package session

import (
	"context"
	"time"

	"fisiocare/models"
)

// StateMachineService drives the per-visit lifecycle:
//
//	PENDING_SCHEDULING → SCHEDULED → {COMPLETED | FORFEITED}
//	PENDING_SCHEDULING/SCHEDULED → CANCELLED (administrative)
//	SCHEDULED → EXPIRED (sweep)
//
// Completion and forfeiture post the session's pro-rata fee through the
// wallet ledger in the same transaction as the status change.
type StateMachineService interface {
	Schedule(ctx context.Context, sessionID string, at time.Time) (*models.Session, error)
	Complete(ctx context.Context, sessionID, therapistID, notes, photoURL string) (*models.Session, error)
	Cancel(ctx context.Context, sessionID string, actor models.CancelActor, reason string) (*models.Session, error)

	// Terminate is the administrative cancellation into the terminal
	// CANCELLED state. No compensation is posted.
	Terminate(ctx context.Context, sessionID string, actor models.CancelActor, reason string) (*models.Session, error)

	// ExpireStale sweeps SCHEDULED sessions whose visit time is long past
	// into EXPIRED and recomputes the affected bookings.
	ExpireStale(ctx context.Context) (int64, error)

	GetByID(ctx context.Context, sessionID string) (*models.Session, error)
	ListByBooking(ctx context.Context, bookingID string) ([]models.Session, error)

	// BusySlots returns the therapist's scheduled visit times within
	// [from, to), for the patient-facing availability calendar.
	BusySlots(ctx context.Context, therapistID string, from, to time.Time) ([]time.Time, error)
}
