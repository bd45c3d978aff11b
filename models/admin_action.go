package models

import "time"

// AdminActionLog is a write-only audit row for every privileged mutation.
type AdminActionLog struct {
	ID         string            `bson:"id" json:"id"`
	AdminID    string            `bson:"admin_id,omitempty" json:"adminId,omitempty"`
	Action     string            `bson:"action" json:"action"`
	TargetType string            `bson:"target_type" json:"targetType"`
	TargetID   string            `bson:"target_id" json:"targetId"`
	Meta       map[string]string `bson:"meta,omitempty" json:"meta,omitempty"`
	CreatedAt  time.Time         `bson:"created_at" json:"createdAt"`
}

// Admin action names recorded in the audit trail.
const (
	ActionWalletAdjust      = "wallet.adjust"
	ActionWalletTopup       = "wallet.topup"
	ActionForceBookingState = "booking.force_status"
	ActionMarkRefund        = "booking.mark_refund"
)
