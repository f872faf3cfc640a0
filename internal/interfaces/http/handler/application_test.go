package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	auditapp "github.com/pathway/backend/internal/application/audit"
	partnerapp "github.com/pathway/backend/internal/application/partner"
	"github.com/pathway/backend/internal/domain/partner"
	"github.com/pathway/backend/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubStorage struct{}

func (stubStorage) PresignUpload(_ context.Context, doc partnerapp.DocumentUpload, expiresIn time.Duration) (string, time.Time, error) {
	return "https://files.test/put/" + doc.Key, time.Now().Add(expiresIn), nil
}

func (stubStorage) PresignDownload(_ context.Context, key string, expiresIn time.Duration) (string, time.Time, error) {
	return "https://files.test/get/" + key, time.Now().Add(expiresIn), nil
}

type wizardFixture struct {
	applications *testutil.MockApplicationRepository
	router       *gin.Engine
}

func newWizardFixture() *wizardFixture {
	f := &wizardFixture{applications: new(testutil.MockApplicationRepository)}
	audits := new(testutil.MockAuditRepository)
	audits.On("Create", mock.Anything, mock.Anything).Return(nil).Maybe()

	svc := partnerapp.NewApplicationService(partnerapp.Deps{
		PDs:          new(testutil.MockPDRepository),
		Applications: f.applications,
		Channels:     new(testutil.MockChannelRepository),
		Providers:    new(testutil.MockProviderRepository),
		Tx:           &testutil.FakeTxManager{},
		Events:       testutil.NewRecordingPublisher(),
		Recorder:     auditapp.NewRecorder(audits),
		Logger:       zap.NewNop(),
	}, stubStorage{}, partnerapp.ApplicationConfig{DefaultFee: decimal.NewFromInt(120), MaxUploadSize: 1 << 20})
	h := NewApplicationHandler(svc)

	f.router = gin.New()
	f.router.POST("/application", h.Start)
	f.router.GET("/application/:id", h.Get)
	f.router.PUT("/application/:id/steps/:step", h.SaveStep)
	f.router.POST("/application/:id/documents", h.RequestDocumentUpload)
	f.router.POST("/application/:id/submit", h.Submit)
	return f
}

// draft stores a fresh application and returns it with its resume token
func (f *wizardFixture) draft(t *testing.T) (*partner.PDApplication, string) {
	t.Helper()
	app, token, err := partner.NewPDApplication("applicant@example.com")
	require.NoError(t, err)
	app.ClearDomainEvents()
	f.applications.On("FindByID", mock.Anything, app.ID).Return(app, nil)
	f.applications.On("Save", mock.Anything, app).Return(nil).Maybe()
	return app, token
}

func TestApplicationHandler_Start(t *testing.T) {
	f := newWizardFixture()
	f.applications.On("ExistsOpenByEmail", mock.Anything, "applicant@example.com").Return(false, nil)
	f.applications.On("Save", mock.Anything, mock.AnythingOfType("*partner.PDApplication")).Return(nil)

	w := perform(f.router, http.MethodPost, "/application", map[string]string{"email": "Applicant@Example.com"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp partnerapp.StartApplicationResponse
	decodeData(t, w, &resp)
	assert.NotEqual(t, uuid.Nil, resp.ID)
	assert.NotEmpty(t, resp.ResumeToken)
	assert.Equal(t, "personal", resp.CurrentStep)
}

func TestApplicationHandler_Start_OpenApplicationExists(t *testing.T) {
	f := newWizardFixture()
	f.applications.On("ExistsOpenByEmail", mock.Anything, "applicant@example.com").Return(true, nil)

	w := perform(f.router, http.MethodPost, "/application", map[string]string{"email": "applicant@example.com"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "APPLICATION_EXISTS", errorCode(t, w))
}

func TestApplicationHandler_ResumeToken(t *testing.T) {
	f := newWizardFixture()
	app, token := f.draft(t)
	path := "/application/" + app.ID.String()

	w := perform(f.router, http.MethodGet, path, nil, ResumeTokenHeader, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp partnerapp.ApplicationResponse
	decodeData(t, w, &resp)
	assert.Equal(t, "applicant@example.com", resp.Email)

	for name, header := range map[string]string{"missing": "", "wrong": "not-the-token"} {
		t.Run(name, func(t *testing.T) {
			w := perform(f.router, http.MethodGet, path, nil, ResumeTokenHeader, header)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, "INVALID_RESUME_TOKEN", errorCode(t, w))
		})
	}
}

func TestApplicationHandler_SaveStep(t *testing.T) {
	f := newWizardFixture()
	app, token := f.draft(t)
	base := "/application/" + app.ID.String() + "/steps/"

	w := perform(f.router, http.MethodPut, base+"personal", map[string]any{
		"first_name": "Sam", "last_name": "Carter", "phone": "+44 7700 900456", "city": "Leeds",
	}, ResumeTokenHeader, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp partnerapp.ApplicationResponse
	decodeData(t, w, &resp)
	assert.Equal(t, "Leeds", resp.City)
	assert.Contains(t, resp.CompletedSteps, "personal")

	w = perform(f.router, http.MethodPut, base+"personal", map[string]any{"phone": "call me"}, ResumeTokenHeader, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, w))

	w = perform(f.router, http.MethodPut, base+"hobbies", map[string]any{}, ResumeTokenHeader, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_STEP", errorCode(t, w))
}

func TestApplicationHandler_RequestDocumentUpload(t *testing.T) {
	f := newWizardFixture()
	app, token := f.draft(t)
	path := "/application/" + app.ID.String() + "/documents"

	w := perform(f.router, http.MethodPost, path, map[string]any{
		"file_name": "licence.pdf", "content_type": "application/pdf", "size": 2048,
	}, ResumeTokenHeader, token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp partnerapp.DocumentUploadResponse
	decodeData(t, w, &resp)
	assert.Contains(t, resp.UploadURL, "https://files.test/put/")

	w = perform(f.router, http.MethodPost, path, map[string]any{
		"file_name": "licence.pdf", "content_type": "application/pdf", "size": 5 << 20,
	}, ResumeTokenHeader, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "DOCUMENT_TOO_LARGE", errorCode(t, w))

	w = perform(f.router, http.MethodPost, path, map[string]any{
		"file_name": "run.exe", "content_type": "application/x-msdownload", "size": 10,
	}, ResumeTokenHeader, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestApplicationHandler_SubmitIncomplete(t *testing.T) {
	f := newWizardFixture()
	app, token := f.draft(t)

	w := perform(f.router, http.MethodPost, "/application/"+app.ID.String()+"/submit", nil, ResumeTokenHeader, token)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
}
