package session

import (
	"context"
	"sync"
	"time"

	"fisiocare/models"
	booking "fisiocare/services/booking"
	wallet "fisiocare/services/wallet"
	"fisiocare/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// The harness wires the real state machine, lifecycle, and ledger services
// over in-memory stores, so a completed visit really moves money and really
// recomputes the booking aggregate.

type memSessionStore struct {
	mu       sync.Mutex
	sessions map[string]*models.Session
}

func newMemSessionStore() *memSessionStore {
	return &memSessionStore{sessions: make(map[string]*models.Session)}
}

func (r *memSessionStore) add(sessions ...*models.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range sessions {
		r.sessions[s.ID] = s
	}
}

func (r *memSessionStore) GetByID(ctx context.Context, id string) (*models.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, &utils.NotFoundError{Entity: "session", ID: id}
	}
	cp := *s
	return &cp, nil
}

func (r *memSessionStore) ListByBooking(ctx context.Context, bookingID string) ([]models.Session, error) {
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

func (r *memSessionStore) CountUnfinished(ctx context.Context, bookingID string) (int64, int64, error) {
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

func (r *memSessionStore) HasOverlap(ctx context.Context, therapistID string, at time.Time, window time.Duration, excludeID string) (bool, error) {
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

func (r *memSessionStore) ListScheduledByTherapist(ctx context.Context, therapistID string, from, to time.Time) ([]models.Session, error) {
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

func (r *memSessionStore) CASSchedule(ctx context.Context, id string, at time.Time) (bool, error) {
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

func (r *memSessionStore) CASComplete(ctx context.Context, id string, notes, photoURL string, now time.Time) (bool, error) {
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

func (r *memSessionStore) CASForfeit(ctx context.Context, id string, actor models.CancelActor, reason string, now time.Time) (bool, error) {
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

func (r *memSessionStore) CASRelease(ctx context.Context, id string, actor models.CancelActor, reason string, now time.Time) (bool, error) {
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

func (r *memSessionStore) CASCancel(ctx context.Context, id string, actor models.CancelActor, reason string, now time.Time) (bool, error) {
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

func (r *memSessionStore) StaleScheduledBookingIDs(ctx context.Context, cutoff time.Time) ([]string, error) {
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

func (r *memSessionStore) ExpireStale(ctx context.Context, cutoff time.Time) (int64, error) {
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

type memBookingStore struct {
	mu       sync.Mutex
	bookings map[string]*models.Booking
}

func newMemBookingStore() *memBookingStore {
	return &memBookingStore{bookings: make(map[string]*models.Booking)}
}

func (r *memBookingStore) Create(ctx context.Context, booking *models.Booking, sessions []*models.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bookings[booking.ID] = booking
	return nil
}

func (r *memBookingStore) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, &utils.NotFoundError{Entity: "booking", ID: id}
	}
	cp := *b
	return &cp, nil
}

func (r *memBookingStore) GetByOrderID(ctx context.Context, orderID string) (*models.Booking, error) {
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

func (r *memBookingStore) ListByPatient(ctx context.Context, patientID string) ([]models.Booking, error) {
	return nil, nil
}

func (r *memBookingStore) ListByTherapist(ctx context.Context, therapistID string) ([]models.Booking, error) {
	return nil, nil
}

func (r *memBookingStore) Accept(ctx context.Context, id string, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok || b.PaymentStatus != models.PaymentPaid || b.TherapistAcceptedAt != nil || !b.TherapistRespondBy.After(now) {
		return false, nil
	}
	b.TherapistAcceptedAt = &now
	return true, nil
}

func (r *memBookingStore) ExpireUnaccepted(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}

func (r *memBookingStore) SetPaymentStatus(ctx context.Context, id string, from []models.PaymentStatus, to models.PaymentStatus) (bool, error) {
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

func (r *memBookingStore) CASStatus(ctx context.Context, id string, from, to models.BookingStatus, closeChat bool, now time.Time) (bool, error) {
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

func (r *memBookingStore) CloseChat(ctx context.Context, id string, now time.Time) (bool, error) {
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

func (r *memBookingStore) SetStatus(ctx context.Context, id string, to models.BookingStatus, closeChat bool, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return &utils.NotFoundError{Entity: "booking", ID: id}
	}
	b.Status = to
	if closeChat {
		b.IsChatActive = false
	}
	return nil
}

func (r *memBookingStore) MarkRefund(ctx context.Context, id string, status models.RefundStatus, reference, note string, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return false, nil
	}
	b.RefundStatus = status
	return true, nil
}

type memWalletStore struct {
	mu      sync.Mutex
	wallets map[string]*models.Wallet
	entries map[string][]models.WalletTransaction
}

func newMemWalletStore() *memWalletStore {
	return &memWalletStore{
		wallets: make(map[string]*models.Wallet),
		entries: make(map[string][]models.WalletTransaction),
	}
}

func (r *memWalletStore) EnsureWallet(ctx context.Context, therapistID string) (*models.Wallet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, w := range r.wallets {
		if w.TherapistID == therapistID {
			return w, nil
		}
	}
	w := &models.Wallet{ID: uuid.New().String(), TherapistID: therapistID}
	r.wallets[w.ID] = w
	return w, nil
}

func (r *memWalletStore) GetByID(ctx context.Context, id string) (*models.Wallet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.wallets[id]
	if !ok {
		return nil, &utils.NotFoundError{Entity: "wallet", ID: id}
	}
	return w, nil
}

func (r *memWalletStore) GetByTherapist(ctx context.Context, therapistID string) (*models.Wallet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, w := range r.wallets {
		if w.TherapistID == therapistID {
			return w, nil
		}
	}
	return nil, &utils.NotFoundError{Entity: "wallet", ID: therapistID}
}

func (r *memWalletStore) ApplyCredit(ctx context.Context, walletID string, amount int64, entry *models.WalletTransaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.wallets[walletID]
	if !ok {
		return &utils.NotFoundError{Entity: "wallet", ID: walletID}
	}
	w.Balance += amount
	r.entries[walletID] = append(r.entries[walletID], *entry)
	return nil
}

func (r *memWalletStore) ApplyDebit(ctx context.Context, walletID string, amount int64, entry *models.WalletTransaction) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.wallets[walletID]
	if !ok || w.Balance < amount {
		return false, nil
	}
	w.Balance -= amount
	r.entries[walletID] = append(r.entries[walletID], *entry)
	return true, nil
}

func (r *memWalletStore) ListTransactions(ctx context.Context, walletID string, limit int64) ([]models.WalletTransaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entries := r.entries[walletID]
	if int64(len(entries)) > limit {
		entries = entries[:limit]
	}
	return append([]models.WalletTransaction(nil), entries...), nil
}

type memAuditStore struct {
	mu      sync.Mutex
	records []models.AdminActionLog
}

func (r *memAuditStore) Record(ctx context.Context, entry *models.AdminActionLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, *entry)
	return nil
}

func (r *memAuditStore) List(ctx context.Context, limit int64) ([]models.AdminActionLog, error) {
	return append([]models.AdminActionLog(nil), r.records...), nil
}

type memTxnRunner struct{}

func (memTxnRunner) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type harness struct {
	sessions *memSessionStore
	bookings *memBookingStore
	wallets  *memWalletStore
	svc      *DefaultStateMachineService
	ledger   *wallet.DefaultLedgerService
}

func newHarness() *harness {
	h := &harness{
		sessions: newMemSessionStore(),
		bookings: newMemBookingStore(),
		wallets:  newMemWalletStore(),
	}
	h.ledger = &wallet.DefaultLedgerService{
		Repo:   h.wallets,
		Audit:  &memAuditStore{},
		Txn:    memTxnRunner{},
		Logger: zap.NewNop(),
	}
	lifecycle := &booking.DefaultLifecycleService{
		Bookings: h.bookings,
		Sessions: h.sessions,
		Txn:      memTxnRunner{},
		Logger:   zap.NewNop(),
	}
	h.svc = &DefaultStateMachineService{
		Sessions:  h.sessions,
		Bookings:  h.bookings,
		Ledger:    h.ledger,
		Lifecycle: lifecycle,
		Txn:       memTxnRunner{},
		Logger:    zap.NewNop(),
	}
	return h
}

// seedPaidBooking installs a PAID three-session booking with a 210000 net
// total, so each session pays out 70000.
func (h *harness) seedPaidBooking() (*models.Booking, []*models.Session) {
	bk := &models.Booking{
		ID:                "bk-1",
		PatientID:         "pat-1",
		TherapistID:       "ther-1",
		PaymentOrderID:    "order-1",
		TotalPrice:        300000,
		AdminFeeAmount:    90000,
		TherapistNetTotal: 210000,
		SessionCount:      3,
		Status:            models.BookingPaid,
		PaymentStatus:     models.PaymentPaid,
		IsChatActive:      true,
	}
	h.bookings.bookings[bk.ID] = bk

	sessions := make([]*models.Session, 0, 3)
	for i := 1; i <= 3; i++ {
		s := &models.Session{
			ID:            "sess-" + string(rune('0'+i)),
			BookingID:     bk.ID,
			TherapistID:   bk.TherapistID,
			SequenceOrder: i,
			Status:        models.SessionPendingScheduling,
		}
		sessions = append(sessions, s)
	}
	h.sessions.add(sessions...)
	return bk, sessions
}

func (h *harness) schedule(id string, at time.Time) {
	h.sessions.mu.Lock()
	defer h.sessions.mu.Unlock()
	s := h.sessions.sessions[id]
	s.Status = models.SessionScheduled
	s.ScheduledAt = &at
}

func (h *harness) therapistBalance(therapistID string) int64 {
	w, err := h.wallets.GetByTherapist(context.Background(), therapistID)
	if err != nil {
		return 0
	}
	return w.Balance
}
