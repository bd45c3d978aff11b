package session

import (
	"context"
	"time"

	"fisiocare/config"
	"fisiocare/database"
	bookingRepo "fisiocare/database/repository/booking"
	sessionRepo "fisiocare/database/repository/session"
	"fisiocare/models"
	"fisiocare/services/booking"
	"fisiocare/services/wallet"
	"fisiocare/utils"

	"go.uber.org/zap"
)

// visitDuration is the assumed length of one home visit, used for the
// therapist busy-slot overlap check.
const visitDuration = time.Hour

// DefaultStateMachineService implements StateMachineService.
type DefaultStateMachineService struct {
	Sessions  sessionRepo.SessionRepository
	Bookings  bookingRepo.BookingRepository
	Ledger    wallet.LedgerService
	Lifecycle booking.LifecycleService
	Txn       database.TxnRunner
	Logger    *zap.Logger
}

func (s *DefaultStateMachineService) Schedule(ctx context.Context, sessionID string, at time.Time) (*models.Session, error) {
	sess, err := s.Sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Status != models.SessionPendingScheduling {
		return nil, utils.NewConflictError("session is not awaiting scheduling")
	}
	if !at.After(time.Now()) {
		return nil, utils.NewValidationError("scheduled time must be in the future")
	}

	busy, err := s.Sessions.HasOverlap(ctx, sess.TherapistID, at, visitDuration, sessionID)
	if err != nil {
		return nil, err
	}
	if busy {
		return nil, utils.NewValidationError("therapist already has a visit at that time")
	}

	var scheduled bool
	if err := s.Txn.WithTransaction(ctx, func(ctx context.Context) error {
		ok, err := s.Sessions.CASSchedule(ctx, sessionID, at)
		if err != nil {
			return err
		}
		scheduled = ok
		return nil
	}); err != nil {
		return nil, err
	}
	if !scheduled {
		return nil, utils.NewConflictError("session state changed, please retry")
	}

	s.Logger.Info("session scheduled",
		zap.String("sessionId", sessionID),
		zap.Time("scheduledAt", at),
	)
	sess.Status = models.SessionScheduled
	sess.ScheduledAt = &at
	return sess, nil
}

func (s *DefaultStateMachineService) Complete(ctx context.Context, sessionID, therapistID, notes, photoURL string) (*models.Session, error) {
	sess, err := s.Sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.TherapistID != therapistID {
		return nil, utils.NewConflictError("session belongs to another therapist")
	}
	switch sess.Status {
	case models.SessionScheduled:
	case models.SessionCompleted:
		return nil, utils.NewConflictError("session already completed")
	default:
		return nil, utils.NewConflictError("only a scheduled session can be completed")
	}
	if notes == "" {
		return nil, utils.NewValidationError("therapist notes are required to complete a visit")
	}

	bk, err := s.Bookings.GetByID(ctx, sess.BookingID)
	if err != nil {
		return nil, err
	}
	fee := booking.ProRataFee(bk.TherapistNetTotal, bk.SessionCount, sess.SequenceOrder)

	now := time.Now()
	if err := s.Txn.WithTransaction(ctx, func(ctx context.Context) error {
		ok, err := s.Sessions.CASComplete(ctx, sessionID, notes, photoURL, now)
		if err != nil {
			return err
		}
		if !ok {
			return utils.NewConflictError("session state changed, please retry")
		}
		if err := s.postPayout(ctx, bk.TherapistID, fee, models.CategorySessionFee, sessionID); err != nil {
			return err
		}
		return s.Lifecycle.RecomputeAggregateStatus(ctx, sess.BookingID)
	}); err != nil {
		return nil, err
	}

	s.Logger.Info("session completed",
		zap.String("sessionId", sessionID),
		zap.String("bookingId", sess.BookingID),
		zap.Int64("payout", fee),
	)
	sess.Status = models.SessionCompleted
	sess.TherapistNotes = notes
	sess.CompletionPhotoURL = photoURL
	sess.IsPayoutDistributed = true
	return sess, nil
}

func (s *DefaultStateMachineService) Cancel(ctx context.Context, sessionID string, actor models.CancelActor, reason string) (*models.Session, error) {
	if !actor.Valid() {
		return nil, utils.NewValidationError("invalid cancellation actor")
	}

	sess, err := s.Sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	switch sess.Status {
	case models.SessionScheduled:
		// Inside the forfeiture window the therapist is compensated despite
		// the missed visit.
		if sess.ScheduledAt != nil && sess.ScheduledAt.Sub(now) < config.ForfeitWindow() {
			return s.forfeit(ctx, sess, actor, reason, now)
		}
		return s.release(ctx, sess, actor, reason, now)
	case models.SessionPendingScheduling:
		return s.release(ctx, sess, actor, reason, now)
	default:
		return nil, utils.NewConflictError("session can no longer be cancelled")
	}
}

func (s *DefaultStateMachineService) forfeit(ctx context.Context, sess *models.Session, actor models.CancelActor, reason string, now time.Time) (*models.Session, error) {
	bk, err := s.Bookings.GetByID(ctx, sess.BookingID)
	if err != nil {
		return nil, err
	}
	fee := booking.ProRataFee(bk.TherapistNetTotal, bk.SessionCount, sess.SequenceOrder)

	if err := s.Txn.WithTransaction(ctx, func(ctx context.Context) error {
		ok, err := s.Sessions.CASForfeit(ctx, sess.ID, actor, reason, now)
		if err != nil {
			return err
		}
		if !ok {
			return utils.NewConflictError("session state changed, please retry")
		}
		if err := s.postPayout(ctx, bk.TherapistID, fee, models.CategoryForfeitComp, sess.ID); err != nil {
			return err
		}
		return s.Lifecycle.RecomputeAggregateStatus(ctx, sess.BookingID)
	}); err != nil {
		return nil, err
	}

	s.Logger.Info("session forfeited",
		zap.String("sessionId", sess.ID),
		zap.String("actor", string(actor)),
		zap.Int64("compensation", fee),
	)
	sess.Status = models.SessionForfeited
	sess.CancelledBy = actor
	sess.CancellationReason = reason
	sess.CancelledAt = &now
	sess.IsPayoutDistributed = true
	return sess, nil
}

func (s *DefaultStateMachineService) release(ctx context.Context, sess *models.Session, actor models.CancelActor, reason string, now time.Time) (*models.Session, error) {
	if err := s.Txn.WithTransaction(ctx, func(ctx context.Context) error {
		ok, err := s.Sessions.CASRelease(ctx, sess.ID, actor, reason, now)
		if err != nil {
			return err
		}
		if !ok {
			return utils.NewConflictError("session state changed, please retry")
		}
		return s.Lifecycle.RecomputeAggregateStatus(ctx, sess.BookingID)
	}); err != nil {
		return nil, err
	}

	s.Logger.Info("session released for rescheduling",
		zap.String("sessionId", sess.ID),
		zap.String("actor", string(actor)),
	)
	sess.Status = models.SessionPendingScheduling
	sess.ScheduledAt = nil
	sess.CancelledBy = actor
	sess.CancellationReason = reason
	sess.CancelledAt = &now
	return sess, nil
}

func (s *DefaultStateMachineService) Terminate(ctx context.Context, sessionID string, actor models.CancelActor, reason string) (*models.Session, error) {
	sess, err := s.Sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if err := s.Txn.WithTransaction(ctx, func(ctx context.Context) error {
		ok, err := s.Sessions.CASCancel(ctx, sessionID, actor, reason, now)
		if err != nil {
			return err
		}
		if !ok {
			return utils.NewConflictError("session can no longer be cancelled")
		}
		return s.Lifecycle.RecomputeAggregateStatus(ctx, sess.BookingID)
	}); err != nil {
		return nil, err
	}

	s.Logger.Warn("session cancelled administratively",
		zap.String("sessionId", sessionID),
		zap.String("actor", string(actor)),
	)
	sess.Status = models.SessionCancelled
	sess.CancelledBy = actor
	sess.CancellationReason = reason
	sess.CancelledAt = &now
	return sess, nil
}

func (s *DefaultStateMachineService) ExpireStale(ctx context.Context) (int64, error) {
	cutoff := time.Now().Add(-config.SessionStaleAge())

	bookingIDs, err := s.Sessions.StaleScheduledBookingIDs(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if len(bookingIDs) == 0 {
		return 0, nil
	}

	var expired int64
	if err := s.Txn.WithTransaction(ctx, func(ctx context.Context) error {
		n, err := s.Sessions.ExpireStale(ctx, cutoff)
		if err != nil {
			return err
		}
		expired = n
		for _, id := range bookingIDs {
			if err := s.Lifecycle.RecomputeAggregateStatus(ctx, id); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return 0, err
	}

	if expired > 0 {
		s.Logger.Info("expired stale sessions", zap.Int64("count", expired))
	}
	return expired, nil
}

func (s *DefaultStateMachineService) GetByID(ctx context.Context, sessionID string) (*models.Session, error) {
	return s.Sessions.GetByID(ctx, sessionID)
}

func (s *DefaultStateMachineService) ListByBooking(ctx context.Context, bookingID string) ([]models.Session, error) {
	return s.Sessions.ListByBooking(ctx, bookingID)
}

func (s *DefaultStateMachineService) BusySlots(ctx context.Context, therapistID string, from, to time.Time) ([]time.Time, error) {
	if !to.After(from) {
		return nil, utils.NewValidationError("invalid time range")
	}
	sessions, err := s.Sessions.ListScheduledByTherapist(ctx, therapistID, from, to)
	if err != nil {
		return nil, err
	}
	slots := make([]time.Time, 0, len(sessions))
	for _, sess := range sessions {
		if sess.ScheduledAt != nil {
			slots = append(slots, *sess.ScheduledAt)
		}
	}
	return slots, nil
}

// postPayout credits the therapist's wallet with the session's pro-rata
// share. A zero fee (free package) posts nothing.
func (s *DefaultStateMachineService) postPayout(ctx context.Context, therapistID string, fee int64, category models.TransactionCategory, sessionID string) error {
	if fee <= 0 {
		return nil
	}
	w, err := s.Ledger.GetByTherapist(ctx, therapistID)
	if err != nil {
		return err
	}
	_, err = s.Ledger.Credit(ctx, w.ID, fee, category, sessionID, "")
	return err
}
