package earnings

import (
	"testing"

	"github.com/google/uuid"
	"github.com/pathway/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	de, ok := err.(*shared.DomainError)
	require.True(t, ok, "expected DomainError, got %T", err)
	assert.Equal(t, code, de.Code)
}

func TestNewAccrual(t *testing.T) {
	pdID, caseID := uuid.New(), uuid.New()
	e, err := NewAccrual(pdID, caseID, decimal.RequireFromString("120.005"), "gbp", "TRK-ABCDEFGH")
	require.NoError(t, err)
	assert.Equal(t, EntryKindAccrual, e.Kind)
	assert.Equal(t, EntryStatusPending, e.Status)
	assert.Equal(t, "GBP", e.Currency)
	assert.Equal(t, caseID, *e.CaseID)
	assert.Equal(t, "120.01", e.Amount.StringFixed(2))
	assert.Contains(t, e.Description, "TRK-ABCDEFGH")

	_, err = NewAccrual(pdID, uuid.Nil, decimal.NewFromInt(1), "GBP", "")
	requireCode(t, err, "INVALID_CASE")
	_, err = NewAccrual(uuid.Nil, caseID, decimal.NewFromInt(1), "GBP", "")
	requireCode(t, err, "INVALID_PD")
	_, err = NewAccrual(pdID, caseID, decimal.NewFromInt(-1), "GBP", "")
	requireCode(t, err, "INVALID_AMOUNT")
	_, err = NewAccrual(pdID, caseID, decimal.NewFromInt(1), "POUNDS", "")
	requireCode(t, err, "INVALID_CURRENCY")
}

func TestNewAdjustment(t *testing.T) {
	e, err := NewAdjustment(uuid.New(), decimal.NewFromInt(-25), "GBP", "duplicate accrual")
	require.NoError(t, err)
	assert.Equal(t, EntryKindAdjustment, e.Kind)
	assert.Nil(t, e.CaseID)
	assert.True(t, e.Amount.Equal(decimal.NewFromInt(-25)))

	_, err = NewAdjustment(uuid.New(), decimal.Zero, "GBP", "x")
	requireCode(t, err, "INVALID_AMOUNT")
	_, err = NewAdjustment(uuid.New(), decimal.NewFromInt(5), "GBP", " ")
	requireCode(t, err, "REASON_REQUIRED")
}

func TestLedgerEntry_Lifecycle(t *testing.T) {
	e, err := NewAccrual(uuid.New(), uuid.New(), decimal.NewFromInt(100), "GBP", "TRK-ABCDEFGH")
	require.NoError(t, err)

	requireCode(t, e.MarkPaid("BACS-1"), "INVALID_STATE")
	require.NoError(t, e.Approve(uuid.New()))
	assert.Equal(t, EntryStatusApproved, e.Status)
	assert.NotNil(t, e.ApprovedAt)
	requireCode(t, e.Approve(uuid.New()), "INVALID_STATE")

	requireCode(t, e.MarkPaid(""), "REFERENCE_REQUIRED")
	require.NoError(t, e.MarkPaid("BACS-1"))
	assert.Equal(t, EntryStatusPaid, e.Status)
	assert.Equal(t, "BACS-1", e.PayoutReference)

	requireCode(t, e.Void("too late"), "INVALID_STATE")
}

func TestLedgerEntry_Void(t *testing.T) {
	e, err := NewAccrual(uuid.New(), uuid.New(), decimal.NewFromInt(100), "GBP", "TRK-ABCDEFGH")
	require.NoError(t, err)
	requireCode(t, e.Void(""), "REASON_REQUIRED")
	require.NoError(t, e.Void("case reopened"))
	assert.Equal(t, EntryStatusVoid, e.Status)
	requireCode(t, e.Approve(uuid.New()), "INVALID_STATE")
}

func TestSummarize(t *testing.T) {
	pdID := uuid.New()
	mk := func(amount int64, status EntryStatus) LedgerEntry {
		return LedgerEntry{PDID: pdID, Amount: decimal.NewFromInt(amount), Currency: "GBP", Status: status}
	}
	s := Summarize(pdID, []LedgerEntry{
		mk(100, EntryStatusPending),
		mk(-20, EntryStatusPending),
		mk(100, EntryStatusApproved),
		mk(300, EntryStatusPaid),
		mk(999, EntryStatusVoid),
	})
	assert.Equal(t, "GBP", s.Currency)
	assert.True(t, s.Pending.Equal(decimal.NewFromInt(80)))
	assert.True(t, s.Approved.Equal(decimal.NewFromInt(100)))
	assert.True(t, s.Paid.Equal(decimal.NewFromInt(300)))
	assert.True(t, s.Lifetime.Equal(decimal.NewFromInt(480)))

	empty := Summarize(pdID, nil)
	assert.True(t, empty.Lifetime.IsZero())
}
