package models

import "time"

// BookingType distinguishes regular bookings from instant ones, which carry
// a much shorter therapist response window.
type BookingType string

const (
	BookingRegular BookingType = "REGULAR"
	BookingInstant BookingType = "INSTANT"
)

func (t BookingType) Valid() bool {
	return t == BookingRegular || t == BookingInstant
}

// BookingStatus is the aggregate lifecycle status of a booking.
type BookingStatus string

const (
	BookingPending   BookingStatus = "PENDING"
	BookingPaid      BookingStatus = "PAID"
	BookingCompleted BookingStatus = "COMPLETED"
	BookingCancelled BookingStatus = "CANCELLED"
)

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingPending, BookingPaid, BookingCompleted, BookingCancelled:
		return true
	}
	return false
}

// PaymentStatus tracks the gateway-side payment state. Once PAID it is
// monotonic; stale webhooks must never regress it.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentPaid      PaymentStatus = "PAID"
	PaymentCancelled PaymentStatus = "CANCELLED"
	PaymentExpired   PaymentStatus = "EXPIRED"
	PaymentFailed    PaymentStatus = "FAILED"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentPaid, PaymentCancelled, PaymentExpired, PaymentFailed:
		return true
	}
	return false
}

// RefundStatus tracks refund bookkeeping. The transfer itself is performed
// by an external collaborator; the core only records state.
type RefundStatus string

const (
	RefundNone      RefundStatus = "NONE"
	RefundPending   RefundStatus = "PENDING"
	RefundCompleted RefundStatus = "COMPLETED"
	RefundFailed    RefundStatus = "FAILED"
)

// Consent captures the patient's agreement flags frozen at purchase time.
type Consent struct {
	TermsAccepted   bool      `bson:"terms_accepted" json:"termsAccepted"`
	PrivacyAccepted bool      `bson:"privacy_accepted" json:"privacyAccepted"`
	MedicalAccepted bool      `bson:"medical_accepted" json:"medicalAccepted"`
	Version         string    `bson:"version" json:"version"`
	ConsentedAt     time.Time `bson:"consented_at" json:"consentedAt"`
}

// All reports whether every consent flag was given.
func (c Consent) All() bool {
	return c.TermsAccepted && c.PrivacyAccepted && c.MedicalAccepted
}

// Booking is a purchase of one Package by one Patient from one Therapist.
// Monetary fields are int64 minor units; arithmetic runs on decimals.
type Booking struct {
	ID          string `bson:"id" json:"id"`
	PatientID   string `bson:"patient_id" json:"patientId"`
	TherapistID string `bson:"therapist_id" json:"therapistId"`
	PackageID   string `bson:"package_id,omitempty" json:"packageId,omitempty"`

	// Address and coordinates are immutable snapshots taken at purchase.
	LockedAddress string  `bson:"locked_address" json:"lockedAddress"`
	Latitude      float64 `bson:"latitude" json:"latitude"`
	Longitude     float64 `bson:"longitude" json:"longitude"`

	TotalPrice        int64 `bson:"total_price" json:"totalPrice"`
	AdminFeeAmount    int64 `bson:"admin_fee_amount" json:"adminFeeAmount"`
	TherapistNetTotal int64 `bson:"therapist_net_total" json:"therapistNetTotal"`
	SessionCount      int   `bson:"session_count" json:"sessionCount"`

	BookingType   BookingType   `bson:"booking_type" json:"bookingType"`
	Status        BookingStatus `bson:"status" json:"status"`
	PaymentStatus PaymentStatus `bson:"payment_status" json:"paymentStatus"`

	PaymentProvider    string     `bson:"payment_provider,omitempty" json:"paymentProvider,omitempty"`
	PaymentOrderID     string     `bson:"payment_order_id" json:"paymentOrderId"`
	PaymentToken       string     `bson:"payment_token,omitempty" json:"paymentToken,omitempty"`
	PaymentRedirectURL string     `bson:"payment_redirect_url,omitempty" json:"paymentRedirectUrl,omitempty"`
	PaymentInstruction string     `bson:"payment_instruction,omitempty" json:"paymentInstruction,omitempty"`
	PaymentExpiryTime  *time.Time `bson:"payment_expiry_time,omitempty" json:"paymentExpiryTime,omitempty"`

	TherapistRespondBy  time.Time  `bson:"therapist_respond_by" json:"therapistRespondBy"`
	TherapistAcceptedAt *time.Time `bson:"therapist_accepted_at,omitempty" json:"therapistAcceptedAt,omitempty"`

	RefundStatus    RefundStatus `bson:"refund_status" json:"refundStatus"`
	RefundReference string       `bson:"refund_reference,omitempty" json:"refundReference,omitempty"`
	RefundNote      string       `bson:"refund_note,omitempty" json:"refundNote,omitempty"`
	RefundedAt      *time.Time   `bson:"refunded_at,omitempty" json:"refundedAt,omitempty"`

	IsChatActive bool       `bson:"is_chat_active" json:"isChatActive"`
	ChatLockedAt *time.Time `bson:"chat_locked_at,omitempty" json:"chatLockedAt,omitempty"`

	Consent   Consent   `bson:"consent" json:"consent"`
	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
}
