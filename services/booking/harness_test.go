package booking

import (
	"context"
	"errors"
	"sync"
	"time"

	"fisiocare/models"
	"fisiocare/services/payment"
	"fisiocare/utils"

	"go.uber.org/zap"
)

// In-memory doubles mirroring the conditional-write semantics of the Mongo
// repositories, so lifecycle tests exercise the same race outcomes.

type memBookingRepo struct {
	mu       sync.Mutex
	bookings map[string]*models.Booking
	sessions *memSessionRepo
}

func newMemBookingRepo(sessions *memSessionRepo) *memBookingRepo {
	return &memBookingRepo{bookings: make(map[string]*models.Booking), sessions: sessions}
}

func (r *memBookingRepo) Create(ctx context.Context, booking *models.Booking, sessions []*models.Session) error {
	r.mu.Lock()
	r.bookings[booking.ID] = booking
	r.mu.Unlock()
	r.sessions.add(sessions...)
	return nil
}

func (r *memBookingRepo) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, &utils.NotFoundError{Entity: "booking", ID: id}
	}
	cp := *b
	return &cp, nil
}

func (r *memBookingRepo) GetByOrderID(ctx context.Context, orderID string) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.bookings {
		if b.PaymentOrderID == orderID {
			cp := *b
			return &cp, nil
		}
	}
	return nil, &utils.NotFoundError{Entity: "booking", ID: orderID}
}

func (r *memBookingRepo) ListByPatient(ctx context.Context, patientID string) ([]models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Booking
	for _, b := range r.bookings {
		if b.PatientID == patientID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (r *memBookingRepo) ListByTherapist(ctx context.Context, therapistID string) ([]models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Booking
	for _, b := range r.bookings {
		if b.TherapistID == therapistID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (r *memBookingRepo) Accept(ctx context.Context, id string, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok || b.PaymentStatus != models.PaymentPaid || b.TherapistAcceptedAt != nil || !b.TherapistRespondBy.After(now) {
		return false, nil
	}
	if b.Status != models.BookingPending && b.Status != models.BookingPaid {
		return false, nil
	}
	b.TherapistAcceptedAt = &now
	return true, nil
}

func (r *memBookingRepo) ExpireUnaccepted(ctx context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, b := range r.bookings {
		if b.PaymentStatus == models.PaymentPaid && b.Status == models.BookingPaid &&
			b.TherapistAcceptedAt == nil && !b.TherapistRespondBy.After(now) {
			b.Status = models.BookingCancelled
			b.RefundStatus = models.RefundPending
			b.IsChatActive = false
			b.ChatLockedAt = &now
			n++
		}
	}
	return n, nil
}

func (r *memBookingRepo) SetPaymentStatus(ctx context.Context, id string, from []models.PaymentStatus, to models.PaymentStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return false, nil
	}
	for _, f := range from {
		if b.PaymentStatus == f {
			b.PaymentStatus = to
			return true, nil
		}
	}
	return false, nil
}

func (r *memBookingRepo) CASStatus(ctx context.Context, id string, from, to models.BookingStatus, closeChat bool, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok || b.Status != from {
		return false, nil
	}
	b.Status = to
	if closeChat {
		b.IsChatActive = false
		b.ChatLockedAt = &now
	}
	return true, nil
}

func (r *memBookingRepo) CloseChat(ctx context.Context, id string, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok || !b.IsChatActive {
		return false, nil
	}
	b.IsChatActive = false
	b.ChatLockedAt = &now
	return true, nil
}

func (r *memBookingRepo) SetStatus(ctx context.Context, id string, to models.BookingStatus, closeChat bool, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return &utils.NotFoundError{Entity: "booking", ID: id}
	}
	b.Status = to
	if closeChat {
		b.IsChatActive = false
		b.ChatLockedAt = &now
	}
	return nil
}

func (r *memBookingRepo) MarkRefund(ctx context.Context, id string, status models.RefundStatus, reference, note string, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return false, nil
	}
	b.RefundStatus = status
	b.RefundReference = reference
	b.RefundNote = note
	if status == models.RefundCompleted {
		b.RefundedAt = &now
	}
	return true, nil
}

type memSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*models.Session
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{sessions: make(map[string]*models.Session)}
}

func (r *memSessionRepo) add(sessions ...*models.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range sessions {
		r.sessions[s.ID] = s
	}
}

func (r *memSessionRepo) GetByID(ctx context.Context, id string) (*models.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, &utils.NotFoundError{Entity: "session", ID: id}
	}
	cp := *s
	return &cp, nil
}

func (r *memSessionRepo) ListByBooking(ctx context.Context, bookingID string) ([]models.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Session
	for _, s := range r.sessions {
		if s.BookingID == bookingID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *memSessionRepo) CountUnfinished(ctx context.Context, bookingID string) (int64, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var total, unfinished int64
	for _, s := range r.sessions {
		if s.BookingID != bookingID {
			continue
		}
		total++
		if !s.Status.TerminalFinished() {
			unfinished++
		}
	}
	return total, unfinished, nil
}

func (r *memSessionRepo) HasOverlap(ctx context.Context, therapistID string, at time.Time, window time.Duration, excludeID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		if s.ID == excludeID || s.TherapistID != therapistID || s.Status != models.SessionScheduled || s.ScheduledAt == nil {
			continue
		}
		if s.ScheduledAt.After(at.Add(-window)) && s.ScheduledAt.Before(at.Add(window)) {
			return true, nil
		}
	}
	return false, nil
}

func (r *memSessionRepo) ListScheduledByTherapist(ctx context.Context, therapistID string, from, to time.Time) ([]models.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Session
	for _, s := range r.sessions {
		if s.TherapistID != therapistID || s.Status != models.SessionScheduled || s.ScheduledAt == nil {
			continue
		}
		if !s.ScheduledAt.Before(from) && s.ScheduledAt.Before(to) {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *memSessionRepo) CASSchedule(ctx context.Context, id string, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok || s.Status != models.SessionPendingScheduling {
		return false, nil
	}
	s.Status = models.SessionScheduled
	s.ScheduledAt = &at
	return true, nil
}

func (r *memSessionRepo) CASComplete(ctx context.Context, id string, notes, photoURL string, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok || s.Status != models.SessionScheduled || s.IsPayoutDistributed {
		return false, nil
	}
	s.Status = models.SessionCompleted
	s.TherapistNotes = notes
	s.CompletionPhotoURL = photoURL
	s.IsPayoutDistributed = true
	return true, nil
}

func (r *memSessionRepo) CASForfeit(ctx context.Context, id string, actor models.CancelActor, reason string, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok || s.Status != models.SessionScheduled || s.IsPayoutDistributed {
		return false, nil
	}
	s.Status = models.SessionForfeited
	s.CancelledBy = actor
	s.CancellationReason = reason
	s.CancelledAt = &now
	s.IsPayoutDistributed = true
	return true, nil
}

func (r *memSessionRepo) CASRelease(ctx context.Context, id string, actor models.CancelActor, reason string, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok || (s.Status != models.SessionScheduled && s.Status != models.SessionPendingScheduling) {
		return false, nil
	}
	s.Status = models.SessionPendingScheduling
	s.ScheduledAt = nil
	s.CancelledBy = actor
	s.CancellationReason = reason
	s.CancelledAt = &now
	return true, nil
}

func (r *memSessionRepo) CASCancel(ctx context.Context, id string, actor models.CancelActor, reason string, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok || (s.Status != models.SessionScheduled && s.Status != models.SessionPendingScheduling) {
		return false, nil
	}
	s.Status = models.SessionCancelled
	s.CancelledBy = actor
	s.CancellationReason = reason
	s.CancelledAt = &now
	return true, nil
}

func (r *memSessionRepo) StaleScheduledBookingIDs(ctx context.Context, cutoff time.Time) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := make(map[string]bool)
	var ids []string
	for _, s := range r.sessions {
		if s.Status == models.SessionScheduled && s.ScheduledAt != nil && !s.ScheduledAt.After(cutoff) && !seen[s.BookingID] {
			seen[s.BookingID] = true
			ids = append(ids, s.BookingID)
		}
	}
	return ids, nil
}

func (r *memSessionRepo) ExpireStale(ctx context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, s := range r.sessions {
		if s.Status == models.SessionScheduled && s.ScheduledAt != nil && !s.ScheduledAt.After(cutoff) {
			s.Status = models.SessionExpired
			n++
		}
	}
	return n, nil
}

type memCatalogRepo struct {
	packages   map[string]*models.Package
	therapists map[string]*models.Therapist
}

func (r *memCatalogRepo) GetPackage(ctx context.Context, id string) (*models.Package, error) {
	p, ok := r.packages[id]
	if !ok {
		return nil, &utils.NotFoundError{Entity: "package", ID: id}
	}
	return p, nil
}

func (r *memCatalogRepo) GetTherapist(ctx context.Context, id string) (*models.Therapist, error) {
	t, ok := r.therapists[id]
	if !ok {
		return nil, &utils.NotFoundError{Entity: "therapist", ID: id}
	}
	return t, nil
}

type memAuditRepo struct {
	mu      sync.Mutex
	records []models.AdminActionLog
}

func (r *memAuditRepo) Record(ctx context.Context, entry *models.AdminActionLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, *entry)
	return nil
}

func (r *memAuditRepo) List(ctx context.Context, limit int64) ([]models.AdminActionLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.AdminActionLog(nil), r.records...), nil
}

type stubGateway struct {
	fail bool
}

func (g *stubGateway) RequestPaymentInstructions(ctx context.Context, booking *models.Booking) (*payment.Instructions, error) {
	if g.fail {
		return nil, errors.New("gateway unreachable")
	}
	expiry := time.Now().Add(24 * time.Hour)
	return &payment.Instructions{
		OrderID:     booking.PaymentOrderID,
		Provider:    "midtrans",
		Token:       "tok-" + booking.PaymentOrderID,
		RedirectURL: "https://pay.example/" + booking.PaymentOrderID,
		Instruction: `{"token":"tok"}`,
		ExpiryTime:  &expiry,
	}, nil
}

func (g *stubGateway) VerifySignature(payload payment.WebhookPayload) error {
	return nil
}

type memTxnRunner struct{}

func (memTxnRunner) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type harness struct {
	bookings *memBookingRepo
	sessions *memSessionRepo
	catalog  *memCatalogRepo
	audit    *memAuditRepo
	gateway  *stubGateway
	svc      *DefaultLifecycleService
}

func newHarness() *harness {
	sessions := newMemSessionRepo()
	h := &harness{
		bookings: newMemBookingRepo(sessions),
		sessions: sessions,
		catalog: &memCatalogRepo{
			packages:   make(map[string]*models.Package),
			therapists: make(map[string]*models.Therapist),
		},
		audit:   &memAuditRepo{},
		gateway: &stubGateway{},
	}
	h.svc = &DefaultLifecycleService{
		Bookings: h.bookings,
		Sessions: h.sessions,
		Catalog:  h.catalog,
		Audit:    h.audit,
		Gateway:  h.gateway,
		Txn:      memTxnRunner{},
		Logger:   zap.NewNop(),
	}
	return h
}

func (h *harness) seedCatalog() {
	h.catalog.therapists["ther-1"] = &models.Therapist{ID: "ther-1", Name: "A. Pratama", IsActive: true}
	h.catalog.packages["pkg-1"] = &models.Package{
		ID:             "pkg-1",
		TherapistID:    "ther-1",
		Name:           "Home Rehab x3",
		Price:          300000,
		SessionCount:   3,
		CommissionRate: 30,
		IsActive:       true,
	}
}

func fullConsent() models.Consent {
	return models.Consent{
		TermsAccepted:   true,
		PrivacyAccepted: true,
		MedicalAccepted: true,
		Version:         "v2",
		ConsentedAt:     time.Now(),
	}
}

func validCreateInput() CreateBookingInput {
	return CreateBookingInput{
		PatientID:   "pat-1",
		TherapistID: "ther-1",
		PackageID:   "pkg-1",
		Address:     "Jl. Melati 12",
		Latitude:    -6.2,
		Longitude:   106.8,
		BookingType: models.BookingRegular,
		Consent:     fullConsent(),
	}
}
