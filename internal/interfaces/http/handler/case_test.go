package handler

import (
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	auditapp "github.com/pathway/backend/internal/application/audit"
	caseworkapp "github.com/pathway/backend/internal/application/casework"
	"github.com/pathway/backend/internal/domain/audit"
	"github.com/pathway/backend/internal/domain/casework"
	"github.com/pathway/backend/internal/domain/identity"
	"github.com/pathway/backend/internal/domain/shared"
	"github.com/pathway/backend/internal/infrastructure/auth"
	"github.com/pathway/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type caseFixture struct {
	cases       *testutil.MockCaseRepository
	escalations *testutil.MockEscalationRepository
	flags       *testutil.MockComplianceFlagRepository
	contacts    *testutil.MockContactLogRepository
	pools       *testutil.MockPoolRepository
	pds         *testutil.MockPDRepository
	audits      *testutil.MockAuditRepository
	events      *testutil.RecordingPublisher
	deps        caseworkapp.Deps
}

func newCaseFixture() *caseFixture {
	f := &caseFixture{
		cases:       new(testutil.MockCaseRepository),
		escalations: new(testutil.MockEscalationRepository),
		flags:       new(testutil.MockComplianceFlagRepository),
		contacts:    new(testutil.MockContactLogRepository),
		pools:       new(testutil.MockPoolRepository),
		pds:         new(testutil.MockPDRepository),
		audits:      new(testutil.MockAuditRepository),
		events:      testutil.NewRecordingPublisher(),
	}
	f.deps = caseworkapp.Deps{
		Repos: caseworkapp.Repositories{
			Cases:       f.cases,
			Escalations: f.escalations,
			Flags:       f.flags,
			Contacts:    f.contacts,
			Pools:       f.pools,
			PDs:         f.pds,
			Channels:    new(testutil.MockChannelRepository),
			Providers:   new(testutil.MockProviderRepository),
		},
		Tx:       &testutil.FakeTxManager{},
		Events:   f.events,
		Recorder: auditapp.NewRecorder(f.audits),
		Logger:   zap.NewNop(),
	}
	return f
}

// adminRouter mounts the case routes for an admin holding perms
func (f *caseFixture) adminRouter(perms ...string) *gin.Engine {
	h := NewCaseHandler(
		caseworkapp.NewCaseService(f.deps),
		caseworkapp.NewContactService(f.deps),
		caseworkapp.NewEscalationService(f.deps),
		caseworkapp.NewComplianceService(f.deps),
	)
	r := gin.New()
	g := r.Group("", withSession(auth.SubjectAdmin, uuid.New(), perms...))
	g.GET("/cases", h.List)
	g.GET("/cases/export", h.Export)
	g.GET("/cases/:id", h.Get)
	g.PATCH("/cases/:id/status", h.ChangeStatus)
	g.POST("/cases/:id/assign", h.Assign)
	g.POST("/cases/:id/pool", h.RouteToPool)
	g.GET("/cases/:id/contacts", h.ListContacts)
	g.POST("/cases/:id/contacts", h.LogContact)
	g.GET("/pds/:id/cases", h.ListByPD)
	return r
}

func (f *caseFixture) expectAudit(action string) {
	f.audits.On("Create", mock.Anything, mock.MatchedBy(func(l *audit.Log) bool {
		return l.Action == action
	})).Return(nil).Once()
}

func TestCaseHandler_List_Masked(t *testing.T) {
	f := newCaseFixture()
	c := testutil.NewCase(t, "Leeds")
	f.cases.On("FindAll", mock.Anything, mock.Anything).Return([]casework.Case{*c}, nil)
	f.cases.On("Count", mock.Anything, mock.Anything).Return(int64(1), nil)

	w := perform(f.adminRouter(identity.PermCasesRead), http.MethodGet, "/cases?status=new&page=1&page_size=10", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var items []caseworkapp.CaseResponse
	decodeData(t, w, &items)
	require.Len(t, items, 1)
	assert.True(t, items[0].Patient.Masked)
	assert.NotContains(t, w.Body.String(), "jane.doe@example.com")

	env := decode(t, w)
	require.NotNil(t, env.Meta)
	assert.Equal(t, 10, env.Meta.PageSize)
}

func TestCaseHandler_List_InvalidFilter(t *testing.T) {
	f := newCaseFixture()

	w := perform(f.adminRouter(identity.PermCasesRead), http.MethodGet, "/cases?status=lost", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	env := decode(t, w)
	require.Len(t, env.Error.Details, 1)
	assert.Equal(t, "status", env.Error.Details[0].Field)
	f.cases.AssertNotCalled(t, "FindAll", mock.Anything, mock.Anything)
}

func TestCaseHandler_ListByPD(t *testing.T) {
	f := newCaseFixture()
	pdID := uuid.New()
	byPD := mock.MatchedBy(func(filter shared.Filter) bool {
		return filter.Filters["pd_id"] == pdID.String()
	})
	f.cases.On("FindAll", mock.Anything, byPD).Return([]casework.Case{}, nil)
	f.cases.On("Count", mock.Anything, byPD).Return(int64(0), nil)

	w := perform(f.adminRouter(identity.PermCasesRead), http.MethodGet, "/pds/"+pdID.String()+"/cases", nil)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	f.cases.AssertExpectations(t)
}

func TestCaseHandler_Get_NotFound(t *testing.T) {
	f := newCaseFixture()
	id := uuid.New()
	f.cases.On("FindByID", mock.Anything, id).Return(nil, shared.ErrNotFound)

	w := perform(f.adminRouter(identity.PermCasesRead), http.MethodGet, "/cases/"+id.String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", errorCode(t, w))
}

func TestCaseHandler_Get_UnmaskedForPIIHolder(t *testing.T) {
	f := newCaseFixture()
	c := testutil.NewCase(t, "Leeds")
	f.cases.On("FindByID", mock.Anything, c.ID).Return(c, nil)
	f.escalations.On("FindByCase", mock.Anything, c.ID).Return([]casework.Escalation{}, nil)
	f.flags.On("FindByCase", mock.Anything, c.ID).Return([]casework.ComplianceFlag{}, nil)
	f.contacts.On("FindByCase", mock.Anything, c.ID, mock.Anything).Return([]casework.ContactLog{}, nil)
	f.expectAudit(audit.ActionCasePIIViewed)

	w := perform(f.adminRouter(identity.PermCasesRead, identity.PermPIIUnmask), http.MethodGet, "/cases/"+c.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var detail caseworkapp.CaseDetailResponse
	decodeData(t, w, &detail)
	assert.False(t, detail.Patient.Masked)
	assert.Equal(t, "jane.doe@example.com", detail.Patient.Email)
	f.audits.AssertExpectations(t)
}

func TestCaseHandler_ChangeStatus(t *testing.T) {
	f := newCaseFixture()
	c := testutil.NewCase(t, "Leeds")
	f.cases.On("FindByID", mock.Anything, c.ID).Return(c, nil)
	f.cases.On("SaveWithLock", mock.Anything, c).Return(nil)
	f.expectAudit(audit.ActionCaseStatusChanged)

	w := perform(f.adminRouter(identity.PermCasesWrite), http.MethodPatch, "/cases/"+c.ID.String()+"/status",
		map[string]string{"status": "triage", "reason": "reviewed"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp caseworkapp.CaseResponse
	decodeData(t, w, &resp)
	assert.Equal(t, "triage", resp.Status)
	assert.Equal(t, []string{casework.EventTypeCaseStatusChanged}, f.events.EventTypes())
}

func TestCaseHandler_ChangeStatus_IllegalTransition(t *testing.T) {
	f := newCaseFixture()
	c := testutil.NewCase(t, "Leeds")
	f.cases.On("FindByID", mock.Anything, c.ID).Return(c, nil)

	w := perform(f.adminRouter(identity.PermCasesWrite), http.MethodPatch, "/cases/"+c.ID.String()+"/status",
		map[string]string{"status": "in_progress"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	f.cases.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
}

func TestCaseHandler_Assign_RequiresPD(t *testing.T) {
	f := newCaseFixture()

	w := perform(f.adminRouter(identity.PermCasesAssign), http.MethodPost, "/cases/"+uuid.NewString()+"/assign", map[string]string{})
	require.Equal(t, http.StatusBadRequest, w.Code)
	env := decode(t, w)
	require.NotEmpty(t, env.Error.Details)
	assert.Equal(t, "pd_id", env.Error.Details[0].Field)
}

func TestCaseHandler_RouteToPool_EmptyBodyUsesCityPool(t *testing.T) {
	f := newCaseFixture()
	c := testutil.NewCase(t, "Leeds")
	pool := testutil.NewPool(t, "Leeds")
	f.cases.On("FindByID", mock.Anything, c.ID).Return(c, nil)
	f.pools.On("FindByCity", mock.Anything, "Leeds").Return(pool, nil)
	f.cases.On("SaveWithLock", mock.Anything, c).Return(nil)
	f.audits.On("Create", mock.Anything, mock.Anything).Return(nil)

	w := perform(f.adminRouter(identity.PermCasesAssign), http.MethodPost, "/cases/"+c.ID.String()+"/pool", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp caseworkapp.CaseResponse
	decodeData(t, w, &resp)
	assert.Equal(t, "pooled", resp.Status)
	require.NotNil(t, resp.PoolID)
	assert.Equal(t, pool.ID, *resp.PoolID)
}

func TestCaseHandler_LogContact(t *testing.T) {
	f := newCaseFixture()
	c := testutil.NewCase(t, "Leeds")
	f.cases.On("FindByID", mock.Anything, c.ID).Return(c, nil)
	f.contacts.On("Create", mock.Anything, mock.AnythingOfType("*casework.ContactLog")).Return(nil)
	f.expectAudit(audit.ActionContactLogged)

	w := perform(f.adminRouter(identity.PermCasesWrite), http.MethodPost, "/cases/"+c.ID.String()+"/contacts",
		map[string]string{"method": "phone", "direction": "outbound", "outcome": "no_answer"})
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = perform(f.adminRouter(identity.PermCasesWrite), http.MethodPost, "/cases/"+c.ID.String()+"/contacts",
		map[string]string{"method": "pigeon", "direction": "outbound", "outcome": "reached"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCaseHandler_Export(t *testing.T) {
	t.Run("forbidden without export permission", func(t *testing.T) {
		f := newCaseFixture()

		w := perform(f.adminRouter(identity.PermCasesRead), http.MethodGet, "/cases/export", nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Empty(t, w.Header().Get("Content-Disposition"))
	})

	t.Run("masked csv", func(t *testing.T) {
		f := newCaseFixture()
		c := testutil.NewCase(t, "Leeds")
		f.cases.On("FindAll", mock.Anything, mock.Anything).Return([]casework.Case{*c}, nil).Once()
		f.expectAudit(audit.ActionCaseExported)

		w := perform(f.adminRouter(identity.PermCasesExport), http.MethodGet, "/cases/export?city=Leeds", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
		assert.True(t, strings.HasPrefix(w.Header().Get("Content-Disposition"), `attachment; filename="cases-`))

		body := w.Body.String()
		assert.Contains(t, body, "tracking_code")
		assert.Contains(t, body, c.TrackingCode)
		assert.NotContains(t, body, "jane.doe@example.com")
	})
}
