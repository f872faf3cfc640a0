package earnings

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"testing"

	"github.com/google/uuid"
	auditapp "github.com/pathway/backend/internal/application/audit"
	"github.com/pathway/backend/internal/domain/audit"
	"github.com/pathway/backend/internal/domain/casework"
	"github.com/pathway/backend/internal/domain/earnings"
	"github.com/pathway/backend/internal/domain/identity"
	"github.com/pathway/backend/internal/domain/shared"
	"github.com/pathway/backend/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixture struct {
	ledger *testutil.MockLedgerRepository
	pds    *testutil.MockPDRepository
	audits *testutil.MockAuditRepository
	events *testutil.RecordingPublisher
	tx     *testutil.FakeTxManager
}

func newFixture() *fixture {
	return &fixture{
		ledger: new(testutil.MockLedgerRepository),
		pds:    new(testutil.MockPDRepository),
		audits: new(testutil.MockAuditRepository),
		events: testutil.NewRecordingPublisher(),
		tx:     &testutil.FakeTxManager{},
	}
}

func (f *fixture) service() *Service {
	return NewService(f.ledger, f.pds, f.tx, f.events, auditapp.NewRecorder(f.audits), "GBP", zap.NewNop())
}

func (f *fixture) handler() *CaseCompletedHandler {
	return NewCaseCompletedHandler(f.ledger, f.pds, f.tx, auditapp.NewRecorder(f.audits), "GBP", zap.NewNop())
}

func (f *fixture) expectAudit(action string, times int) {
	f.audits.On("Create", mock.Anything, mock.MatchedBy(func(l *audit.Log) bool {
		return l.Action == action
	})).Return(nil).Times(times)
}

func newEntry(t *testing.T, amount int64) *earnings.LedgerEntry {
	t.Helper()
	e, err := earnings.NewAccrual(uuid.New(), uuid.New(), decimal.NewFromInt(amount), "GBP", "PW-TEST")
	require.NoError(t, err)
	e.ClearDomainEvents()
	return e
}

func approvedEntry(t *testing.T, amount int64) *earnings.LedgerEntry {
	t.Helper()
	e := newEntry(t, amount)
	require.NoError(t, e.Approve(uuid.New()))
	e.ClearDomainEvents()
	return e
}

func completedEvent(t *testing.T, pdID uuid.UUID) *casework.CaseCompletedEvent {
	t.Helper()
	c := testutil.NewAssignedCase(t, "Leeds", pdID)
	require.NoError(t, c.TransitionTo(casework.CaseStatusInProgress, ""))
	require.NoError(t, c.TransitionTo(casework.CaseStatusReferred, ""))
	require.NoError(t, c.TransitionTo(casework.CaseStatusCompleted, ""))
	return casework.NewCaseCompletedEvent(c)
}

func TestCaseCompletedHandler_AccruesFee(t *testing.T) {
	f := newFixture()
	pd := testutil.NewPD(t, "Leeds")
	event := completedEvent(t, pd.ID)

	f.ledger.On("ExistsAccrualForCase", mock.Anything, event.CaseID).Return(false, nil)
	f.pds.On("FindByID", mock.Anything, pd.ID).Return(pd, nil)
	f.ledger.On("Save", mock.Anything, mock.MatchedBy(func(e *earnings.LedgerEntry) bool {
		return e.Kind == earnings.EntryKindAccrual &&
			e.Amount.Equal(decimal.NewFromInt(150)) &&
			e.Status == earnings.EntryStatusPending &&
			e.CaseID != nil && *e.CaseID == event.CaseID
	})).Return(nil).Once()
	f.expectAudit(audit.ActionEarningsAccrued, 1)

	require.NoError(t, f.handler().Handle(context.Background(), event))
	f.ledger.AssertExpectations(t)
	f.audits.AssertExpectations(t)
}

func TestCaseCompletedHandler_SkipsExistingAccrual(t *testing.T) {
	f := newFixture()
	event := completedEvent(t, uuid.New())

	f.ledger.On("ExistsAccrualForCase", mock.Anything, event.CaseID).Return(true, nil)

	require.NoError(t, f.handler().Handle(context.Background(), event))
	f.ledger.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	f.pds.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}

func TestCaseCompletedHandler_WrongEventType(t *testing.T) {
	f := newFixture()
	c := testutil.NewCase(t, "Leeds")

	err := f.handler().Handle(context.Background(), casework.NewCaseSubmittedEvent(c))
	assert.Error(t, err)
}

func TestCaseCompletedHandler_SaveFailureIsReturned(t *testing.T) {
	f := newFixture()
	pd := testutil.NewPD(t, "Leeds")
	event := completedEvent(t, pd.ID)

	f.ledger.On("ExistsAccrualForCase", mock.Anything, event.CaseID).Return(false, nil)
	f.pds.On("FindByID", mock.Anything, pd.ID).Return(pd, nil)
	f.ledger.On("Save", mock.Anything, mock.Anything).Return(errors.New("db down"))

	err := f.handler().Handle(context.Background(), event)
	assert.ErrorContains(t, err, "db down")
}

func TestService_Approve(t *testing.T) {
	f := newFixture()
	svc := f.service()
	entry := newEntry(t, 150)
	actor := testutil.RoleActor(identity.RoleFinance)

	f.ledger.On("FindByID", mock.Anything, entry.ID).Return(entry, nil)
	f.ledger.On("Save", mock.Anything, entry).Return(nil)
	f.expectAudit(audit.ActionEarningsApproved, 1)

	resp, err := svc.Approve(context.Background(), actor, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, "approved", resp.Status)
	assert.Equal(t, actor.ID, resp.ApprovedBy)
	assert.Equal(t, []string{earnings.EventTypeEntryStatusChanged}, f.events.EventTypes())
}

func TestService_Approve_AlreadyPaid(t *testing.T) {
	f := newFixture()
	svc := f.service()
	entry := approvedEntry(t, 150)
	require.NoError(t, entry.MarkPaid("BATCH-1"))

	f.ledger.On("FindByID", mock.Anything, entry.ID).Return(entry, nil)

	_, err := svc.Approve(context.Background(), testutil.RoleActor(identity.RoleFinance), entry.ID)
	assert.Equal(t, "INVALID_STATE", shared.ErrorCode(err))
}

func TestService_Payout(t *testing.T) {
	f := newFixture()
	svc := f.service()
	a, b := approvedEntry(t, 100), approvedEntry(t, 50)

	f.ledger.On("FindByIDs", mock.Anything, []uuid.UUID{a.ID, b.ID}).Return([]earnings.LedgerEntry{*a, *b}, nil)
	f.ledger.On("Save", mock.Anything, mock.Anything).Return(nil).Twice()
	f.expectAudit(audit.ActionEarningsPaid, 2)

	resp, err := svc.Payout(context.Background(), testutil.RoleActor(identity.RoleFinance), PayoutRequest{
		EntryIDs:  []uuid.UUID{a.ID, b.ID, a.ID},
		Reference: "BACS-2024-07",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Count)
	assert.True(t, decimal.NewFromInt(150).Equal(resp.Total))
	for _, e := range resp.Entries {
		assert.Equal(t, "paid", e.Status)
		assert.Equal(t, "BACS-2024-07", e.PayoutReference)
	}
	assert.Equal(t, 1, f.tx.Calls())
}

func TestService_Payout_PendingEntryFailsWholeBatch(t *testing.T) {
	f := newFixture()
	svc := f.service()
	a, pending := approvedEntry(t, 100), newEntry(t, 50)

	f.ledger.On("FindByIDs", mock.Anything, []uuid.UUID{a.ID, pending.ID}).Return([]earnings.LedgerEntry{*a, *pending}, nil)

	_, err := svc.Payout(context.Background(), testutil.RoleActor(identity.RoleFinance), PayoutRequest{
		EntryIDs:  []uuid.UUID{a.ID, pending.ID},
		Reference: "BACS-1",
	})
	assert.Equal(t, "INVALID_STATE", shared.ErrorCode(err))
	f.ledger.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestService_Payout_MissingEntry(t *testing.T) {
	f := newFixture()
	svc := f.service()
	a := approvedEntry(t, 100)
	missing := uuid.New()

	f.ledger.On("FindByIDs", mock.Anything, []uuid.UUID{a.ID, missing}).Return([]earnings.LedgerEntry{*a}, nil)

	_, err := svc.Payout(context.Background(), testutil.RoleActor(identity.RoleFinance), PayoutRequest{
		EntryIDs:  []uuid.UUID{a.ID, missing},
		Reference: "BACS-1",
	})
	assert.True(t, shared.IsNotFound(err))
}

func TestService_Payout_Empty(t *testing.T) {
	svc := newFixture().service()
	_, err := svc.Payout(context.Background(), testutil.RoleActor(identity.RoleFinance), PayoutRequest{
		EntryIDs:  []uuid.UUID{uuid.Nil},
		Reference: "BACS-1",
	})
	assert.ErrorIs(t, err, ErrEmptyPayout)
}

func TestService_Adjust(t *testing.T) {
	f := newFixture()
	svc := f.service()
	pd := testutil.NewPD(t, "Leeds")

	f.pds.On("FindByID", mock.Anything, pd.ID).Return(pd, nil)
	f.ledger.On("Save", mock.Anything, mock.Anything).Return(nil)
	f.expectAudit(audit.ActionEarningsAdjusted, 1)

	resp, err := svc.Adjust(context.Background(), testutil.RoleActor(identity.RoleFinance), AdjustmentRequest{
		PDID:   pd.ID,
		Amount: decimal.NewFromFloat(-25.5),
		Reason: "Duplicate mileage claim",
	})
	require.NoError(t, err)
	assert.Equal(t, "adjustment", resp.Kind)
	assert.Equal(t, "pending", resp.Status)
	assert.True(t, decimal.NewFromFloat(-25.5).Equal(resp.Amount))
}

func TestService_Adjust_ZeroAmount(t *testing.T) {
	f := newFixture()
	svc := f.service()
	pd := testutil.NewPD(t, "Leeds")

	f.pds.On("FindByID", mock.Anything, pd.ID).Return(pd, nil)

	_, err := svc.Adjust(context.Background(), testutil.RoleActor(identity.RoleFinance), AdjustmentRequest{
		PDID: pd.ID, Amount: decimal.Zero, Reason: "x",
	})
	assert.Equal(t, "INVALID_AMOUNT", shared.ErrorCode(err))
}

func TestService_Void(t *testing.T) {
	f := newFixture()
	svc := f.service()
	entry := approvedEntry(t, 150)

	f.ledger.On("FindByID", mock.Anything, entry.ID).Return(entry, nil)
	f.ledger.On("Save", mock.Anything, entry).Return(nil)
	f.expectAudit(audit.ActionEarningsVoided, 1)

	resp, err := svc.Void(context.Background(), testutil.RoleActor(identity.RoleFinance), entry.ID, VoidRequest{Reason: "Case reopened"})
	require.NoError(t, err)
	assert.Equal(t, "void", resp.Status)
	assert.Equal(t, "Case reopened", resp.VoidReason)
}

func TestService_Summary(t *testing.T) {
	f := newFixture()
	svc := f.service()
	pdID := uuid.New()

	f.ledger.On("SumByStatus", mock.Anything, &pdID).Return(map[earnings.EntryStatus]decimal.Decimal{
		earnings.EntryStatusPending:  decimal.NewFromInt(100),
		earnings.EntryStatusApproved: decimal.NewFromInt(50),
		earnings.EntryStatusPaid:     decimal.NewFromInt(300),
	}, nil)

	summary, err := svc.Summary(context.Background(), &pdID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(100).Equal(summary.Pending))
	assert.True(t, decimal.NewFromInt(50).Equal(summary.Approved))
	assert.True(t, decimal.NewFromInt(300).Equal(summary.Paid))
	assert.True(t, decimal.NewFromInt(450).Equal(summary.Lifetime))
	assert.Equal(t, "GBP", summary.Currency)
}

func TestService_ListForPD_ForcesOwnLedger(t *testing.T) {
	f := newFixture()
	svc := f.service()
	pd := testutil.NewPD(t, "Leeds")

	f.ledger.On("FindAll", mock.Anything, mock.MatchedBy(func(filter shared.Filter) bool {
		return filter.Filters["pd_id"] == pd.ID.String()
	})).Return([]earnings.LedgerEntry{}, nil)
	f.ledger.On("Count", mock.Anything, mock.Anything).Return(int64(0), nil)

	_, _, err := svc.ListForPD(context.Background(), testutil.PDActor(pd), ListEntriesFilter{PDID: uuid.NewString()})
	require.NoError(t, err)
	f.ledger.AssertExpectations(t)
}

func TestService_SummaryForPD_RejectsAdmin(t *testing.T) {
	svc := newFixture().service()
	_, err := svc.SummaryForPD(context.Background(), testutil.RoleActor(identity.RoleAdmin))
	assert.ErrorIs(t, err, shared.ErrForbidden)
}

func TestService_Export(t *testing.T) {
	f := newFixture()
	svc := f.service()
	entry := newEntry(t, 150)

	f.ledger.On("FindAll", mock.Anything, mock.MatchedBy(func(filter shared.Filter) bool {
		return filter.Page == 1
	})).Return([]earnings.LedgerEntry{*entry}, nil)
	f.ledger.On("FindAll", mock.Anything, mock.Anything).Return([]earnings.LedgerEntry{}, nil)
	f.expectAudit(audit.ActionEarningsExported, 1)

	var buf bytes.Buffer
	rows, err := svc.Export(context.Background(), testutil.RoleActor(identity.RoleFinance), &buf, ListEntriesFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, rows)

	records, err := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(buf.Bytes(), []byte("\xef\xbb\xbf")))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "id", records[0][0])
	assert.Equal(t, entry.ID.String(), records[1][0])
}

func TestService_Export_RequiresPermission(t *testing.T) {
	svc := newFixture().service()
	var buf bytes.Buffer
	_, err := svc.Export(context.Background(), testutil.RoleActor(identity.RoleViewer), &buf, ListEntriesFilter{})
	assert.ErrorIs(t, err, shared.ErrForbidden)
	assert.Zero(t, buf.Len())
}
