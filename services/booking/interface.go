package booking

import (
	"context"
	"time"

	"fisiocare/models"
)

// CreateBookingInput carries everything a patient submits when purchasing a
// package. The address and coordinates are frozen onto the booking.
type CreateBookingInput struct {
	PatientID       string
	TherapistID     string
	PackageID       string
	Address         string
	Latitude        float64
	Longitude       float64
	ScheduledAtHint *time.Time
	BookingType     models.BookingType
	Consent         models.Consent
}

// LifecycleService orchestrates booking creation, pricing, the therapist
// response deadline, and the aggregate status derived from sessions.
type LifecycleService interface {
	Create(ctx context.Context, input CreateBookingInput) (*models.Booking, error)
	Accept(ctx context.Context, bookingID, therapistID string) (*models.Booking, error)

	// AutoExpireUnaccepted is the sweep cancelling PAID bookings whose
	// response deadline passed without acceptance. Returns how many expired.
	AutoExpireUnaccepted(ctx context.Context) (int64, error)

	// RecomputeAggregateStatus promotes the booking to COMPLETED once every
	// session is terminal-finished. Idempotent; chat-lock fires only on the
	// actual transition.
	RecomputeAggregateStatus(ctx context.Context, bookingID string) error

	CloseChat(ctx context.Context, bookingID string) error

	GetByID(ctx context.Context, bookingID string) (*models.Booking, error)
	ListByPatient(ctx context.Context, patientID string) ([]models.Booking, error)
	ListByTherapist(ctx context.Context, therapistID string) ([]models.Booking, error)

	// Admin paths, always audited.
	ForceStatus(ctx context.Context, bookingID string, to models.BookingStatus, adminID, note string) error
	MarkRefund(ctx context.Context, bookingID string, status models.RefundStatus, reference, note, adminID string) error
}
