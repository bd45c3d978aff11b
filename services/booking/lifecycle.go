package booking

import (
	"context"
	"time"

	"fisiocare/config"
	"fisiocare/database"
	auditLogRepo "fisiocare/database/repository/auditlog"
	bookingRepo "fisiocare/database/repository/booking"
	catalogRepo "fisiocare/database/repository/catalog"
	sessionRepo "fisiocare/database/repository/session"
	"fisiocare/models"
	"fisiocare/services/payment"
	"fisiocare/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultLifecycleService implements LifecycleService.
type DefaultLifecycleService struct {
	Bookings bookingRepo.BookingRepository
	Sessions sessionRepo.SessionRepository
	Catalog  catalogRepo.CatalogRepository
	Audit    auditLogRepo.AuditLogRepository
	Gateway  payment.Gateway
	Txn      database.TxnRunner
	Logger   *zap.Logger
}

func (s *DefaultLifecycleService) Create(ctx context.Context, input CreateBookingInput) (*models.Booking, error) {
	if !input.Consent.All() {
		return nil, utils.NewValidationError("all consent flags are required")
	}
	if !input.BookingType.Valid() {
		return nil, utils.NewValidationError("invalid booking type")
	}
	if input.Address == "" {
		return nil, utils.NewValidationError("address is required")
	}

	therapist, err := s.Catalog.GetTherapist(ctx, input.TherapistID)
	if err != nil {
		return nil, err
	}
	if !therapist.IsActive {
		return nil, utils.NewValidationError("therapist is not active")
	}

	pkg, err := s.Catalog.GetPackage(ctx, input.PackageID)
	if err != nil {
		return nil, err
	}
	if !pkg.IsActive {
		return nil, utils.NewValidationError("package is not active")
	}
	if pkg.TherapistID != input.TherapistID {
		return nil, utils.NewValidationError("package does not belong to this therapist")
	}
	if pkg.SessionCount < 1 {
		return nil, utils.NewValidationError("package has no sessions")
	}

	net, fee, err := ComputePricing(pkg.Price, pkg.CommissionRate)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	booking := &models.Booking{
		ID:                 uuid.New().String(),
		PatientID:          input.PatientID,
		TherapistID:        input.TherapistID,
		PackageID:          pkg.ID,
		LockedAddress:      input.Address,
		Latitude:           input.Latitude,
		Longitude:          input.Longitude,
		TotalPrice:         pkg.Price,
		AdminFeeAmount:     fee,
		TherapistNetTotal:  net,
		SessionCount:       pkg.SessionCount,
		BookingType:        input.BookingType,
		Status:             models.BookingPending,
		PaymentStatus:      models.PaymentPending,
		PaymentOrderID:     uuid.New().String(),
		TherapistRespondBy: now.Add(config.RespondByWindow(input.BookingType == models.BookingInstant)),
		RefundStatus:       models.RefundNone,
		IsChatActive:       true,
		Consent:            input.Consent,
		CreatedAt:          now,
	}

	// Gateway first so the stored booking already carries the payment
	// instructions. A failed insert orphans the gateway order, which simply
	// expires on the gateway side.
	instructions, err := s.Gateway.RequestPaymentInstructions(ctx, booking)
	if err != nil {
		return nil, err
	}
	booking.PaymentProvider = instructions.Provider
	booking.PaymentToken = instructions.Token
	booking.PaymentRedirectURL = instructions.RedirectURL
	booking.PaymentInstruction = instructions.Instruction
	booking.PaymentExpiryTime = instructions.ExpiryTime

	sessions := make([]*models.Session, 0, pkg.SessionCount)
	for i := 1; i <= pkg.SessionCount; i++ {
		session := &models.Session{
			ID:            uuid.New().String(),
			BookingID:     booking.ID,
			TherapistID:   booking.TherapistID,
			SequenceOrder: i,
			Status:        models.SessionPendingScheduling,
			CreatedAt:     now,
		}
		if i == 1 && input.ScheduledAtHint != nil {
			// Advisory preference for the first visit; the patient still
			// schedules explicitly, so the status stays PENDING_SCHEDULING.
			session.ScheduledAt = input.ScheduledAtHint
		}
		sessions = append(sessions, session)
	}

	if err := s.Txn.WithTransaction(ctx, func(ctx context.Context) error {
		return s.Bookings.Create(ctx, booking, sessions)
	}); err != nil {
		return nil, err
	}

	s.Logger.Info("booking created",
		zap.String("bookingId", booking.ID),
		zap.String("patientId", booking.PatientID),
		zap.String("therapistId", booking.TherapistID),
		zap.Int64("totalPrice", booking.TotalPrice),
		zap.Int("sessions", pkg.SessionCount),
	)
	return booking, nil
}

func (s *DefaultLifecycleService) Accept(ctx context.Context, bookingID, therapistID string) (*models.Booking, error) {
	booking, err := s.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.TherapistID != therapistID {
		return nil, utils.NewConflictError("booking belongs to another therapist")
	}
	if booking.TherapistAcceptedAt != nil {
		return nil, utils.NewConflictError("booking already accepted")
	}

	now := time.Now()
	if now.After(booking.TherapistRespondBy) {
		// Deadline passed: expire lazily instead of accepting.
		if _, err := s.AutoExpireUnaccepted(ctx); err != nil {
			return nil, err
		}
		return nil, utils.NewConflictError("response deadline has passed")
	}
	if booking.PaymentStatus != models.PaymentPaid {
		return nil, utils.NewConflictError("booking is not paid yet")
	}

	var accepted bool
	if err := s.Txn.WithTransaction(ctx, func(ctx context.Context) error {
		ok, err := s.Bookings.Accept(ctx, bookingID, now)
		if err != nil {
			return err
		}
		accepted = ok
		return nil
	}); err != nil {
		return nil, err
	}
	if !accepted {
		// Lost the race against a concurrent sweep or duplicate accept.
		return nil, utils.NewConflictError("booking can no longer be accepted")
	}

	s.Logger.Info("booking accepted",
		zap.String("bookingId", bookingID),
		zap.String("therapistId", therapistID),
	)
	booking.TherapistAcceptedAt = &now
	return booking, nil
}

func (s *DefaultLifecycleService) AutoExpireUnaccepted(ctx context.Context) (int64, error) {
	var expired int64
	err := s.Txn.WithTransaction(ctx, func(ctx context.Context) error {
		n, err := s.Bookings.ExpireUnaccepted(ctx, time.Now())
		if err != nil {
			return err
		}
		expired = n
		return nil
	})
	if err != nil {
		return 0, err
	}
	if expired > 0 {
		s.Logger.Info("expired unaccepted bookings", zap.Int64("count", expired))
	}
	return expired, nil
}

func (s *DefaultLifecycleService) RecomputeAggregateStatus(ctx context.Context, bookingID string) error {
	total, unfinished, err := s.Sessions.CountUnfinished(ctx, bookingID)
	if err != nil {
		return err
	}
	if total == 0 || unfinished > 0 {
		return nil
	}

	// CAS from PAID guarantees the completion transition, and its chat-lock
	// side effect, happens at most once under concurrent recomputes.
	moved, err := s.Bookings.CASStatus(ctx, bookingID, models.BookingPaid, models.BookingCompleted, true, time.Now())
	if err != nil {
		return err
	}
	if moved {
		s.Logger.Info("booking completed", zap.String("bookingId", bookingID))
	}
	return nil
}

func (s *DefaultLifecycleService) CloseChat(ctx context.Context, bookingID string) error {
	booking, err := s.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		return err
	}
	if booking.Status != models.BookingCompleted && booking.Status != models.BookingCancelled {
		return utils.NewConflictError("chat can only be closed on a completed or cancelled booking")
	}
	if _, err := s.Bookings.CloseChat(ctx, bookingID, time.Now()); err != nil {
		return err
	}
	return nil
}

func (s *DefaultLifecycleService) GetByID(ctx context.Context, bookingID string) (*models.Booking, error) {
	return s.Bookings.GetByID(ctx, bookingID)
}

func (s *DefaultLifecycleService) ListByPatient(ctx context.Context, patientID string) ([]models.Booking, error) {
	return s.Bookings.ListByPatient(ctx, patientID)
}

func (s *DefaultLifecycleService) ListByTherapist(ctx context.Context, therapistID string) ([]models.Booking, error) {
	return s.Bookings.ListByTherapist(ctx, therapistID)
}
