package handler

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	auditapp "github.com/pathway/backend/internal/application/audit"
	"github.com/pathway/backend/internal/application/intake"
	"github.com/pathway/backend/internal/domain/audit"
	"github.com/pathway/backend/internal/domain/shared"
	"github.com/pathway/backend/internal/infrastructure/cache"
	"github.com/pathway/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type intakeFixture struct {
	cases  *testutil.MockCaseRepository
	audits *testutil.MockAuditRepository
	router *gin.Engine
}

func newIntakeFixture(t *testing.T) *intakeFixture {
	t.Helper()
	f := &intakeFixture{
		cases:  new(testutil.MockCaseRepository),
		audits: new(testutil.MockAuditRepository),
	}
	store := cache.NewInMemoryIdempotencyStore()
	t.Cleanup(func() { _ = store.Close() })

	svc := intake.NewService(f.cases, new(testutil.MockPoolRepository), new(testutil.MockPDRepository),
		&testutil.FakeTxManager{}, testutil.NewRecordingPublisher(), auditapp.NewRecorder(f.audits),
		store, nil, zap.NewNop(), intake.Config{})
	h := NewIntakeHandler(svc)

	f.router = gin.New()
	f.router.POST("/intake", h.Submit)
	f.router.GET("/intake/track/:code", h.Track)
	f.cases.On("ExistsByTrackingCode", mock.Anything, mock.Anything).Return(false, nil)
	return f
}

func intakeForm() map[string]any {
	return map[string]any{
		"first_name":       "Jane",
		"last_name":        "Doe",
		"email":            "jane.doe@example.com",
		"phone":            "+44 7700 900123",
		"date_of_birth":    "1980-05-17",
		"city":             "Leeds",
		"postcode":         "LS1 4AP",
		"pathway":          "cardiology",
		"urgency":          "soon",
		"symptoms_summary": "breathless on stairs",
		"consent":          true,
	}
}

func TestIntakeHandler_Submit(t *testing.T) {
	f := newIntakeFixture(t)
	f.cases.On("Save", mock.Anything, mock.Anything).Return(nil).Once()
	f.audits.On("Create", mock.Anything, mock.MatchedBy(func(l *audit.Log) bool {
		return l.Action == audit.ActionCaseSubmitted && l.ActorType == shared.ActorTypePublic
	})).Return(nil).Once()

	w := perform(f.router, http.MethodPost, "/intake", intakeForm(), IdempotencyKeyHeader, "form-submit-0001")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var first intake.SubmitResponse
	decodeData(t, w, &first)
	assert.Regexp(t, `^TRK-[2-9A-Z]{8}$`, first.TrackingCode)
	assert.Equal(t, "new", first.Status)

	// A retry with the same key replays the stored response
	w = perform(f.router, http.MethodPost, "/intake", intakeForm(), IdempotencyKeyHeader, "form-submit-0001")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var second intake.SubmitResponse
	decodeData(t, w, &second)
	assert.Equal(t, first.TrackingCode, second.TrackingCode)
	assert.True(t, second.Replayed)

	f.cases.AssertNumberOfCalls(t, "Save", 1)
	f.audits.AssertExpectations(t)
}

func TestIntakeHandler_Submit_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(map[string]any)
		status int
		code   string
	}{
		{"missing consent", func(m map[string]any) { m["consent"] = false }, http.StatusBadRequest, "CONSENT_REQUIRED"},
		{"bad phone", func(m map[string]any) { m["phone"] = "ring me" }, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"bad date", func(m map[string]any) { m["date_of_birth"] = "17/05/1980" }, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"bad referral code", func(m map[string]any) { m["referral_code"] = "PD-1" }, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"unknown urgency", func(m map[string]any) { m["urgency"] = "yesterday" }, http.StatusBadRequest, "VALIDATION_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newIntakeFixture(t)
			form := intakeForm()
			tt.mutate(form)

			w := perform(f.router, http.MethodPost, "/intake", form)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.Equal(t, tt.code, errorCode(t, w))
			f.cases.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
		})
	}
}

func TestIntakeHandler_Submit_ShortIdempotencyKey(t *testing.T) {
	f := newIntakeFixture(t)

	w := perform(f.router, http.MethodPost, "/intake", intakeForm(), IdempotencyKeyHeader, "short")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_IDEMPOTENCY_KEY", errorCode(t, w))
}

func TestIntakeHandler_Track(t *testing.T) {
	f := newIntakeFixture(t)
	c := testutil.NewCase(t, "Leeds")
	f.cases.On("FindByTrackingCode", mock.Anything, c.TrackingCode).Return(c, nil)

	w := perform(f.router, http.MethodGet, "/intake/track/"+c.TrackingCode+"?email=JANE.DOE@example.com", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp intake.TrackResponse
	decodeData(t, w, &resp)
	assert.Equal(t, "new", resp.Status)
	assert.NotContains(t, w.Body.String(), "Jane")

	w = perform(f.router, http.MethodGet, "/intake/track/"+c.TrackingCode+"?email=other@example.com", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = perform(f.router, http.MethodGet, "/intake/track/"+c.TrackingCode, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
