package booking

import (
	"context"
	"time"

	"fisiocare/models"
	"fisiocare/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ForceStatus sets the booking status unconditionally. Admin only; every
// call lands in the audit trail.
func (s *DefaultLifecycleService) ForceStatus(ctx context.Context, bookingID string, to models.BookingStatus, adminID, note string) error {
	if !to.Valid() {
		return utils.NewValidationError("invalid booking status")
	}
	if note == "" {
		return utils.NewValidationError("note is required for forced status changes")
	}

	now := time.Now()
	closeChat := to == models.BookingCompleted || to == models.BookingCancelled
	if err := s.Txn.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.Bookings.SetStatus(ctx, bookingID, to, closeChat, now); err != nil {
			return err
		}
		return s.Audit.Record(ctx, &models.AdminActionLog{
			ID:         uuid.New().String(),
			AdminID:    adminID,
			Action:     models.ActionForceBookingState,
			TargetType: "booking",
			TargetID:   bookingID,
			Meta:       map[string]string{"status": string(to), "note": note},
			CreatedAt:  now,
		})
	}); err != nil {
		return err
	}

	s.Logger.Warn("booking status forced",
		zap.String("bookingId", bookingID),
		zap.String("status", string(to)),
		zap.String("adminId", adminID),
	)
	return nil
}

// MarkRefund updates refund bookkeeping. The transfer itself happens at an
// external collaborator; this only records the outcome.
func (s *DefaultLifecycleService) MarkRefund(ctx context.Context, bookingID string, status models.RefundStatus, reference, note, adminID string) error {
	switch status {
	case models.RefundPending, models.RefundCompleted, models.RefundFailed:
	default:
		return utils.NewValidationError("invalid refund status")
	}

	now := time.Now()
	if err := s.Txn.WithTransaction(ctx, func(ctx context.Context) error {
		matched, err := s.Bookings.MarkRefund(ctx, bookingID, status, reference, note, now)
		if err != nil {
			return err
		}
		if !matched {
			return &utils.NotFoundError{Entity: "booking", ID: bookingID}
		}
		return s.Audit.Record(ctx, &models.AdminActionLog{
			ID:         uuid.New().String(),
			AdminID:    adminID,
			Action:     models.ActionMarkRefund,
			TargetType: "booking",
			TargetID:   bookingID,
			Meta:       map[string]string{"refundStatus": string(status), "reference": reference, "note": note},
			CreatedAt:  now,
		})
	}); err != nil {
		return err
	}

	s.Logger.Info("refund state recorded",
		zap.String("bookingId", bookingID),
		zap.String("refundStatus", string(status)),
		zap.String("adminId", adminID),
	)
	return nil
}
