package bookingRepo

import (
	"context"
	"time"

	"fisiocare/models"
)

// BookingRepository defines the data access contract for bookings. All
// state-changing methods are conditional writes: the filter encodes the
// exact pre-state so concurrent callers serialize instead of interleaving.
type BookingRepository interface {
	// Create inserts the booking and its sessions. Callers run it inside a
	// transaction scope so either both land or neither does.
	Create(ctx context.Context, booking *models.Booking, sessions []*models.Session) error
	GetByID(ctx context.Context, id string) (*models.Booking, error)
	GetByOrderID(ctx context.Context, orderID string) (*models.Booking, error)
	ListByPatient(ctx context.Context, patientID string) ([]models.Booking, error)
	ListByTherapist(ctx context.Context, therapistID string) ([]models.Booking, error)

	// Accept records therapist acceptance iff the booking is PAID,
	// unaccepted, and the response deadline has not passed.
	Accept(ctx context.Context, id string, now time.Time) (bool, error)

	// ExpireUnaccepted cancels every PAID, unaccepted booking whose response
	// deadline has passed, marking the refund pending and locking chat.
	// Returns how many bookings transitioned.
	ExpireUnaccepted(ctx context.Context, now time.Time) (int64, error)

	// SetPaymentStatus moves paymentStatus to `to` iff the current value is
	// one of `from`.
	SetPaymentStatus(ctx context.Context, id string, from []models.PaymentStatus, to models.PaymentStatus) (bool, error)

	// CASStatus moves status from→to; closeChat additionally locks chat in
	// the same write so the transition fires chat-lock exactly once.
	CASStatus(ctx context.Context, id string, from, to models.BookingStatus, closeChat bool, now time.Time) (bool, error)

	// CloseChat locks chat iff it is still active, so repeated aggregate
	// recomputes cannot fire chat-lock twice.
	CloseChat(ctx context.Context, id string, now time.Time) (bool, error)

	// SetStatus force-sets status unconditionally (admin path, audited).
	SetStatus(ctx context.Context, id string, to models.BookingStatus, closeChat bool, now time.Time) error

	// MarkRefund updates refund bookkeeping fields.
	MarkRefund(ctx context.Context, id string, status models.RefundStatus, reference, note string, now time.Time) (bool, error)
}
