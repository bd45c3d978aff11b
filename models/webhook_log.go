package models

import "time"

// WebhookLog is an append-only record of every inbound payment webhook,
// kept even for duplicates and unmatched orders so the audit trail is
// complete and replays stay observable.
type WebhookLog struct {
	ID                string        `bson:"id" json:"id"`
	OrderID           string        `bson:"order_id" json:"orderId"`
	BookingID         string        `bson:"booking_id,omitempty" json:"bookingId,omitempty"` // empty if unmatched
	PaymentStatus     PaymentStatus `bson:"payment_status,omitempty" json:"paymentStatus,omitempty"`
	TransactionStatus string        `bson:"transaction_status" json:"transactionStatus"` // raw gateway vocabulary
	RawPayload        string        `bson:"raw_payload" json:"rawPayload"`
	SignatureValid    bool          `bson:"signature_valid" json:"signatureValid"`
	CreatedAt         time.Time     `bson:"created_at" json:"createdAt"`
}
