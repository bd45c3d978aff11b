package payment

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"fisiocare/database"
	bookingRepo "fisiocare/database/repository/booking"
	webhookLogRepo "fisiocare/database/repository/webhooklog"
	"fisiocare/models"
	"fisiocare/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Reconciler applies gateway payment notifications to bookings exactly once.
type Reconciler interface {
	ProcessPaymentWebhook(ctx context.Context, payload WebhookPayload) error
}

// DefaultReconciler implements Reconciler.
type DefaultReconciler struct {
	Gateway  Gateway
	Bookings bookingRepo.BookingRepository
	Logs     webhookLogRepo.WebhookLogRepository
	Txn      database.TxnRunner
	Logger   *zap.Logger
}

// ParseWebhookPayload decodes a raw notification body, keeping the raw bytes
// for the audit log.
func ParseWebhookPayload(raw []byte) (WebhookPayload, error) {
	var payload WebhookPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return WebhookPayload{}, utils.NewValidationError("malformed webhook payload")
	}
	if payload.OrderID == "" {
		return WebhookPayload{}, utils.NewValidationError("webhook payload missing order_id")
	}
	payload.Raw = raw
	return payload, nil
}

// mapTransactionStatus translates the gateway vocabulary into the internal
// payment disposition. Unknown statuses are ignored (logged only).
func mapTransactionStatus(transactionStatus string) (models.PaymentStatus, bool) {
	switch transactionStatus {
	case "settlement", "capture":
		return models.PaymentPaid, true
	case "expire":
		return models.PaymentExpired, true
	case "cancel", "deny":
		return models.PaymentCancelled, true
	case "pending":
		return models.PaymentPending, true
	default:
		return "", false
	}
}

// ProcessPaymentWebhook verifies, logs, and applies one gateway notification.
// The log append is deliberately outside the reconciliation transaction: the
// audit trail must survive reconciliation failures. Steps 3-5 of the
// reconciliation run as one atomic unit per booking, and paymentStatus is
// monotonic once PAID.
func (r *DefaultReconciler) ProcessPaymentWebhook(ctx context.Context, payload WebhookPayload) error {
	if err := r.Gateway.VerifySignature(payload); err != nil {
		// Keep an invalid-marked entry for audit, then reject.
		_ = r.Logs.Append(ctx, &models.WebhookLog{
			ID:                uuid.New().String(),
			OrderID:           payload.OrderID,
			TransactionStatus: payload.TransactionStatus,
			RawPayload:        string(payload.Raw),
			SignatureValid:    false,
			CreatedAt:         time.Now(),
		})
		r.Logger.Warn("webhook signature rejected", zap.String("orderId", payload.OrderID))
		return err
	}

	logEntry := &models.WebhookLog{
		ID:                uuid.New().String(),
		OrderID:           payload.OrderID,
		TransactionStatus: payload.TransactionStatus,
		RawPayload:        string(payload.Raw),
		SignatureValid:    true,
		CreatedAt:         time.Now(),
	}

	booking, err := r.Bookings.GetByOrderID(ctx, payload.OrderID)
	if err != nil {
		var notFound *utils.NotFoundError
		if errors.As(err, &notFound) {
			// Unmatched order: log it and stop. The gateway expects a 200 to
			// halt retries; the mismatch stays observable via the log.
			if appendErr := r.Logs.Append(ctx, logEntry); appendErr != nil {
				return appendErr
			}
			r.Logger.Warn("webhook for unknown order", zap.String("orderId", payload.OrderID))
			return nil
		}
		return err
	}

	logEntry.BookingID = booking.ID

	disposition, known := mapTransactionStatus(payload.TransactionStatus)
	if !known {
		if appendErr := r.Logs.Append(ctx, logEntry); appendErr != nil {
			return appendErr
		}
		r.Logger.Warn("webhook with unhandled transaction status",
			zap.String("orderId", payload.OrderID),
			zap.String("transactionStatus", payload.TransactionStatus),
		)
		return nil
	}
	logEntry.PaymentStatus = disposition

	if err := r.Logs.Append(ctx, logEntry); err != nil {
		return err
	}

	return r.Txn.WithTransaction(ctx, func(ctx context.Context) error {
		now := time.Now()
		switch disposition {
		case models.PaymentPaid:
			moved, err := r.Bookings.SetPaymentStatus(ctx, booking.ID,
				[]models.PaymentStatus{models.PaymentPending, models.PaymentFailed},
				models.PaymentPaid)
			if err != nil {
				return err
			}
			if moved {
				if _, err := r.Bookings.CASStatus(ctx, booking.ID, models.BookingPending, models.BookingPaid, false, now); err != nil {
					return err
				}
				r.Logger.Info("booking paid",
					zap.String("bookingId", booking.ID),
					zap.String("orderId", payload.OrderID),
				)
			}

		case models.PaymentExpired, models.PaymentCancelled, models.PaymentFailed:
			moved, err := r.Bookings.SetPaymentStatus(ctx, booking.ID,
				[]models.PaymentStatus{models.PaymentPending},
				disposition)
			if err != nil {
				return err
			}
			if moved {
				if _, err := r.Bookings.CASStatus(ctx, booking.ID, models.BookingPending, models.BookingCancelled, true, now); err != nil {
					return err
				}
				r.Logger.Info("booking payment closed without settlement",
					zap.String("bookingId", booking.ID),
					zap.String("disposition", string(disposition)),
				)
			}

		case models.PaymentPending:
			// Monotonicity: never regress a PAID booking from a stale or
			// out-of-order pending notification.
			if _, err := r.Bookings.SetPaymentStatus(ctx, booking.ID,
				[]models.PaymentStatus{models.PaymentPending},
				models.PaymentPending); err != nil {
				return err
			}
		}
		return nil
	})
}
