package handler

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	auditapp "github.com/pathway/backend/internal/application/audit"
	caseworkapp "github.com/pathway/backend/internal/application/casework"
	earningsapp "github.com/pathway/backend/internal/application/earnings"
	"github.com/pathway/backend/internal/domain/casework"
	"github.com/pathway/backend/internal/domain/earnings"
	"github.com/pathway/backend/internal/domain/identity"
	"github.com/pathway/backend/internal/domain/partner"
	"github.com/pathway/backend/internal/domain/shared"
	"github.com/pathway/backend/internal/infrastructure/auth"
	"github.com/pathway/backend/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type portalFixture struct {
	*caseFixture
	ledger *testutil.MockLedgerRepository
	pd     *partner.PD
	router *gin.Engine
}

func newPortalFixture(t *testing.T) *portalFixture {
	f := &portalFixture{
		caseFixture: newCaseFixture(),
		ledger:      new(testutil.MockLedgerRepository),
		pd:          testutil.NewPD(t, "Leeds"),
	}
	f.audits.On("Create", mock.Anything, mock.Anything).Return(nil).Maybe()
	f.pds.On("FindByID", mock.Anything, f.pd.ID).Return(f.pd, nil).Maybe()

	earningsSvc := earningsapp.NewService(f.ledger, f.pds, &testutil.FakeTxManager{}, f.events,
		auditapp.NewRecorder(f.audits), "GBP", zap.NewNop())
	h := NewPortalHandler(caseworkapp.NewCaseService(f.deps), caseworkapp.NewContactService(f.deps), earningsSvc)

	f.router = gin.New()
	g := f.router.Group("", withSession(auth.SubjectPD, f.pd.ID, identity.PermPDPortal))
	g.GET("/cases", h.ListCases)
	g.GET("/cases/:id", h.GetCase)
	g.PATCH("/cases/:id/status", h.ChangeStatus)
	g.POST("/cases/:id/contacts", h.LogContact)
	g.GET("/pool", h.ListPool)
	g.POST("/pool/:caseId/claim", h.Claim)
	g.GET("/earnings", h.ListEarnings)
	g.GET("/earnings/summary", h.EarningsSummary)
	return f
}

func TestPortalHandler_GetCase_OwnCaseUnmasked(t *testing.T) {
	f := newPortalFixture(t)
	c := testutil.NewAssignedCase(t, "Leeds", f.pd.ID)
	f.cases.On("FindByID", mock.Anything, c.ID).Return(c, nil)
	f.escalations.On("FindByCase", mock.Anything, c.ID).Return([]casework.Escalation{}, nil)
	f.flags.On("FindByCase", mock.Anything, c.ID).Return([]casework.ComplianceFlag{}, nil)
	f.contacts.On("FindByCase", mock.Anything, c.ID, mock.Anything).Return([]casework.ContactLog{}, nil)

	w := perform(f.router, http.MethodGet, "/cases/"+c.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var detail caseworkapp.CaseDetailResponse
	decodeData(t, w, &detail)
	assert.False(t, detail.Patient.Masked)
}

func TestPortalHandler_OtherPDsCaseIsNotFound(t *testing.T) {
	f := newPortalFixture(t)
	c := testutil.NewAssignedCase(t, "Leeds", uuid.New())
	f.cases.On("FindByID", mock.Anything, c.ID).Return(c, nil)

	w := perform(f.router, http.MethodGet, "/cases/"+c.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = perform(f.router, http.MethodPost, "/cases/"+c.ID.String()+"/contacts",
		map[string]string{"method": "phone", "direction": "outbound", "outcome": "reached"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	f.contacts.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)

	w = perform(f.router, http.MethodPatch, "/cases/"+c.ID.String()+"/status", map[string]string{"status": "in_progress"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPortalHandler_ChangeStatus(t *testing.T) {
	f := newPortalFixture(t)
	c := testutil.NewAssignedCase(t, "Leeds", f.pd.ID)
	f.cases.On("FindByID", mock.Anything, c.ID).Return(c, nil)
	f.cases.On("SaveWithLock", mock.Anything, c).Return(nil)

	w := perform(f.router, http.MethodPatch, "/cases/"+c.ID.String()+"/status", map[string]string{"status": "in_progress"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp caseworkapp.CaseResponse
	decodeData(t, w, &resp)
	assert.Equal(t, "in_progress", resp.Status)
}

func TestPortalHandler_Claim(t *testing.T) {
	f := newPortalFixture(t)
	pool := testutil.NewPool(t, "Leeds")
	c := testutil.NewCase(t, "Leeds")
	require.NoError(t, c.RouteToPool(pool))
	c.ClearDomainEvents()

	f.cases.On("FindByID", mock.Anything, c.ID).Return(c, nil)
	f.pools.On("FindByID", mock.Anything, pool.ID).Return(pool, nil)
	f.cases.On("SaveWithLock", mock.Anything, c).Return(nil).Once()

	w := perform(f.router, http.MethodPost, "/pool/"+c.ID.String()+"/claim", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp caseworkapp.CaseResponse
	decodeData(t, w, &resp)
	assert.Equal(t, "assigned", resp.Status)
	require.NotNil(t, resp.PDID)
	assert.Equal(t, f.pd.ID, *resp.PDID)
}

func TestPortalHandler_Claim_LostRace(t *testing.T) {
	f := newPortalFixture(t)
	pool := testutil.NewPool(t, "Leeds")
	c := testutil.NewCase(t, "Leeds")
	require.NoError(t, c.RouteToPool(pool))
	c.ClearDomainEvents()

	f.cases.On("FindByID", mock.Anything, c.ID).Return(c, nil)
	f.pools.On("FindByID", mock.Anything, pool.ID).Return(pool, nil)
	f.cases.On("SaveWithLock", mock.Anything, c).Return(shared.ErrConcurrencyConflict)

	w := perform(f.router, http.MethodPost, "/pool/"+c.ID.String()+"/claim", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "CONCURRENT_MODIFICATION", errorCode(t, w))
}

func TestPortalHandler_ListPool_Masked(t *testing.T) {
	f := newPortalFixture(t)
	pool := testutil.NewPool(t, "Leeds")
	c := testutil.NewCase(t, "Leeds")
	require.NoError(t, c.RouteToPool(pool))

	f.pools.On("FindByCity", mock.Anything, "Leeds").Return(pool, nil)
	f.cases.On("FindAll", mock.Anything, mock.Anything).Return([]casework.Case{*c}, nil)
	f.cases.On("Count", mock.Anything, mock.Anything).Return(int64(1), nil)

	w := perform(f.router, http.MethodGet, "/pool", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var items []caseworkapp.CaseResponse
	decodeData(t, w, &items)
	require.Len(t, items, 1)
	assert.True(t, items[0].Patient.Masked)
}

func TestPortalHandler_EarningsScopedToPD(t *testing.T) {
	f := newPortalFixture(t)
	own := mock.MatchedBy(func(filter shared.Filter) bool {
		return filter.Filters["pd_id"] == f.pd.ID.String()
	})
	f.ledger.On("FindAll", mock.Anything, own).Return([]earnings.LedgerEntry{}, nil)
	f.ledger.On("Count", mock.Anything, own).Return(int64(0), nil)
	f.ledger.On("SumByStatus", mock.Anything, &f.pd.ID).Return(map[earnings.EntryStatus]decimal.Decimal{
		earnings.EntryStatusPending: decimal.NewFromInt(150),
	}, nil)

	// Another PD's id in the query is ignored
	w := perform(f.router, http.MethodGet, "/earnings?pd_id="+uuid.NewString(), nil)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = perform(f.router, http.MethodGet, "/earnings/summary", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var summary earningsapp.SummaryResponse
	decodeData(t, w, &summary)
	assert.True(t, decimal.NewFromInt(150).Equal(summary.Pending))
	assert.Equal(t, "GBP", summary.Currency)
	f.ledger.AssertExpectations(t)
}
