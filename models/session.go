package models

import "time"

// SessionStatus is the per-visit lifecycle status.
type SessionStatus string

const (
	SessionPendingScheduling SessionStatus = "PENDING_SCHEDULING"
	SessionScheduled         SessionStatus = "SCHEDULED"
	SessionCompleted         SessionStatus = "COMPLETED"
	SessionForfeited         SessionStatus = "FORFEITED"
	SessionExpired           SessionStatus = "EXPIRED"
	SessionCancelled         SessionStatus = "CANCELLED"
)

func (s SessionStatus) Valid() bool {
	switch s {
	case SessionPendingScheduling, SessionScheduled, SessionCompleted,
		SessionForfeited, SessionExpired, SessionCancelled:
		return true
	}
	return false
}

// Terminal reports whether the session can no longer transition.
func (s SessionStatus) Terminal() bool {
	switch s {
	case SessionCompleted, SessionForfeited, SessionExpired, SessionCancelled:
		return true
	}
	return false
}

// TerminalFinished reports whether the session counts toward booking
// completion. CANCELLED is terminal but not finished.
func (s SessionStatus) TerminalFinished() bool {
	switch s {
	case SessionCompleted, SessionForfeited, SessionExpired:
		return true
	}
	return false
}

// CancelActor identifies who cancelled a session.
type CancelActor string

const (
	CancelledByPatient   CancelActor = "PATIENT"
	CancelledByTherapist CancelActor = "THERAPIST"
	CancelledBySystem    CancelActor = "SYSTEM"
)

func (a CancelActor) Valid() bool {
	return a == CancelledByPatient || a == CancelledByTherapist || a == CancelledBySystem
}

// Session is one scheduled home visit within a Booking.
type Session struct {
	ID            string        `bson:"id" json:"id"`
	BookingID     string        `bson:"booking_id" json:"bookingId"`
	TherapistID   string        `bson:"therapist_id" json:"therapistId"`
	SequenceOrder int           `bson:"sequence_order" json:"sequenceOrder"`
	ScheduledAt   *time.Time    `bson:"scheduled_at,omitempty" json:"scheduledAt,omitempty"`
	Status        SessionStatus `bson:"status" json:"status"`

	// IsPayoutDistributed flips exactly once, in the same transaction as the
	// wallet credit it reports.
	IsPayoutDistributed bool `bson:"is_payout_distributed" json:"isPayoutDistributed"`

	TherapistNotes     string `bson:"therapist_notes,omitempty" json:"therapistNotes,omitempty"`
	CompletionPhotoURL string `bson:"completion_photo_url,omitempty" json:"completionPhotoUrl,omitempty"`

	CancellationReason string      `bson:"cancellation_reason,omitempty" json:"cancellationReason,omitempty"`
	CancelledAt        *time.Time  `bson:"cancelled_at,omitempty" json:"cancelledAt,omitempty"`
	CancelledBy        CancelActor `bson:"cancelled_by,omitempty" json:"cancelledBy,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
}
