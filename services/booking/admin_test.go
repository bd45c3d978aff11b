package booking

import (
	"context"
	"testing"

	"fisiocare/models"
	"fisiocare/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForceStatus(t *testing.T) {
	h := newHarness()
	h.seedCatalog()
	bk := h.paidBooking(t)
	ctx := context.Background()

	err := h.svc.ForceStatus(ctx, bk.ID, models.BookingCancelled, "admin-1", "patient dispute")
	require.NoError(t, err)

	fresh, err := h.bookings.GetByID(ctx, bk.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingCancelled, fresh.Status)
	assert.False(t, fresh.IsChatActive)

	require.Len(t, h.audit.records, 1)
	rec := h.audit.records[0]
	assert.Equal(t, models.ActionForceBookingState, rec.Action)
	assert.Equal(t, bk.ID, rec.TargetID)
	assert.Equal(t, "admin-1", rec.AdminID)
	assert.Equal(t, "patient dispute", rec.Meta["note"])
}

func TestForceStatusValidation(t *testing.T) {
	h := newHarness()
	h.seedCatalog()
	bk := h.paidBooking(t)
	ctx := context.Background()

	var validation *utils.ValidationError
	err := h.svc.ForceStatus(ctx, bk.ID, models.BookingStatus("LIMBO"), "admin-1", "note")
	assert.ErrorAs(t, err, &validation)

	err = h.svc.ForceStatus(ctx, bk.ID, models.BookingCancelled, "admin-1", "")
	assert.ErrorAs(t, err, &validation)

	assert.Empty(t, h.audit.records)
}

func TestForceStatusKeepsChatForNonTerminal(t *testing.T) {
	h := newHarness()
	h.seedCatalog()
	bk := h.paidBooking(t)
	ctx := context.Background()

	require.NoError(t, h.svc.ForceStatus(ctx, bk.ID, models.BookingPaid, "admin-1", "restore after mistake"))

	fresh, err := h.bookings.GetByID(ctx, bk.ID)
	require.NoError(t, err)
	assert.True(t, fresh.IsChatActive)
}

func TestMarkRefund(t *testing.T) {
	h := newHarness()
	h.seedCatalog()
	bk := h.paidBooking(t)
	ctx := context.Background()

	err := h.svc.MarkRefund(ctx, bk.ID, models.RefundCompleted, "bank-ref-9", "manual transfer done", "admin-1")
	require.NoError(t, err)

	fresh, err := h.bookings.GetByID(ctx, bk.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RefundCompleted, fresh.RefundStatus)
	assert.Equal(t, "bank-ref-9", fresh.RefundReference)
	assert.NotNil(t, fresh.RefundedAt)

	require.Len(t, h.audit.records, 1)
	assert.Equal(t, models.ActionMarkRefund, h.audit.records[0].Action)
}

func TestMarkRefundRejectsNone(t *testing.T) {
	h := newHarness()
	h.seedCatalog()
	bk := h.paidBooking(t)

	var validation *utils.ValidationError
	err := h.svc.MarkRefund(context.Background(), bk.ID, models.RefundNone, "", "", "admin-1")
	assert.ErrorAs(t, err, &validation)
}

func TestMarkRefundUnknownBooking(t *testing.T) {
	h := newHarness()

	var notFound *utils.NotFoundError
	err := h.svc.MarkRefund(context.Background(), "bk-missing", models.RefundPending, "", "", "admin-1")
	assert.ErrorAs(t, err, &notFound)
}
