package partner

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	auditapp "github.com/pathway/backend/internal/application/audit"
	"github.com/pathway/backend/internal/domain/audit"
	"github.com/pathway/backend/internal/domain/identity"
	"github.com/pathway/backend/internal/domain/partner"
	"github.com/pathway/backend/internal/domain/shared"
	"github.com/pathway/backend/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeStorage struct {
	uploads   []string
	downloads []string
}

func (s *fakeStorage) PresignUpload(_ context.Context, doc DocumentUpload, expiresIn time.Duration) (string, time.Time, error) {
	s.uploads = append(s.uploads, doc.Key)
	return "https://files.test/put/" + doc.Key, time.Now().Add(expiresIn), nil
}

func (s *fakeStorage) PresignDownload(_ context.Context, key string, expiresIn time.Duration) (string, time.Time, error) {
	s.downloads = append(s.downloads, key)
	return "https://files.test/get/" + key, time.Now().Add(expiresIn), nil
}

type fakeRevoker struct {
	subjects []string
	err      error
}

func (r *fakeRevoker) RevokeSubject(_ context.Context, subject string, _ time.Duration) error {
	r.subjects = append(r.subjects, subject)
	return r.err
}

type fixture struct {
	pds          *testutil.MockPDRepository
	applications *testutil.MockApplicationRepository
	channels     *testutil.MockChannelRepository
	providers    *testutil.MockProviderRepository
	audits       *testutil.MockAuditRepository
	events       *testutil.RecordingPublisher
	storage      *fakeStorage
	revoker      *fakeRevoker
	deps         Deps
}

func newFixture() *fixture {
	f := &fixture{
		pds:          new(testutil.MockPDRepository),
		applications: new(testutil.MockApplicationRepository),
		channels:     new(testutil.MockChannelRepository),
		providers:    new(testutil.MockProviderRepository),
		audits:       new(testutil.MockAuditRepository),
		events:       testutil.NewRecordingPublisher(),
		storage:      &fakeStorage{},
		revoker:      &fakeRevoker{},
	}
	f.deps = Deps{
		PDs:          f.pds,
		Applications: f.applications,
		Channels:     f.channels,
		Providers:    f.providers,
		Tx:           &testutil.FakeTxManager{},
		Events:       f.events,
		Recorder:     auditapp.NewRecorder(f.audits),
		Logger:       zap.NewNop(),
	}
	return f
}

func (f *fixture) expectAudit(action string) {
	f.audits.On("Create", mock.Anything, mock.MatchedBy(func(l *audit.Log) bool {
		return l.Action == action
	})).Return(nil).Once()
}

func (f *fixture) applicationService() *ApplicationService {
	return NewApplicationService(f.deps, f.storage, ApplicationConfig{DefaultFee: decimal.NewFromInt(120)})
}

// completedApplication returns a draft with every step saved, plus its token
func completedApplication(t *testing.T) (*partner.PDApplication, string) {
	t.Helper()
	app, token, err := partner.NewPDApplication("alex@example.com")
	require.NoError(t, err)
	require.NoError(t, app.SavePersonal("Alex", "Morgan", "+44 7700 900123", "Leeds"))
	require.NoError(t, app.SaveExperience(4, "Rehab nursing", []string{"physio"}))
	require.NoError(t, app.SaveAvailability(20, nil))
	require.NoError(t, app.SaveAgreement(true))
	app.ClearDomainEvents()
	return app, token
}

func TestApplicationService_Start(t *testing.T) {
	f := newFixture()
	svc := f.applicationService()

	f.applications.On("ExistsOpenByEmail", mock.Anything, "alex@example.com").Return(false, nil)
	f.applications.On("Save", mock.Anything, mock.Anything).Return(nil)
	f.expectAudit(audit.ActionApplicationStarted)

	resp, err := svc.Start(context.Background(), shared.PublicActor("1.2.3.4", "ua", "req"), StartApplicationRequest{Email: " Alex@Example.com "})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.ResumeToken)
	assert.Equal(t, string(partner.StepPersonal), resp.CurrentStep)
	assert.Equal(t, []string{"application.started"}, f.events.EventTypes())
}

func TestApplicationService_Start_OpenApplicationExists(t *testing.T) {
	f := newFixture()
	svc := f.applicationService()

	f.applications.On("ExistsOpenByEmail", mock.Anything, "alex@example.com").Return(true, nil)

	_, err := svc.Start(context.Background(), shared.PublicActor("", "", ""), StartApplicationRequest{Email: "alex@example.com"})
	assert.ErrorIs(t, err, ErrOpenApplication)
	f.applications.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestApplicationService_Get_WrongToken(t *testing.T) {
	f := newFixture()
	svc := f.applicationService()
	app, _ := completedApplication(t)

	f.applications.On("FindByID", mock.Anything, app.ID).Return(app, nil)

	_, err := svc.Get(context.Background(), app.ID, "not-the-token")
	assert.ErrorIs(t, err, ErrInvalidResumeToken)
}

func TestApplicationService_Get_UnknownIDLooksLikeBadToken(t *testing.T) {
	f := newFixture()
	svc := f.applicationService()
	id := uuid.New()

	f.applications.On("FindByID", mock.Anything, id).Return(nil, shared.ErrNotFound)

	_, err := svc.Get(context.Background(), id, "anything")
	assert.ErrorIs(t, err, ErrInvalidResumeToken)
}

func TestApplicationService_SaveStep(t *testing.T) {
	f := newFixture()
	svc := f.applicationService()
	app, token, err := partner.NewPDApplication("alex@example.com")
	require.NoError(t, err)
	app.ClearDomainEvents()

	f.applications.On("FindByID", mock.Anything, app.ID).Return(app, nil)
	f.applications.On("Save", mock.Anything, app).Return(nil)
	f.expectAudit(audit.ActionApplicationStep)

	resp, err := svc.SaveStep(context.Background(), shared.PublicActor("", "", ""), app.ID, token, "personal", SaveStepRequest{
		FirstName: "Alex", LastName: "Morgan", Phone: "+44 7700 900123", City: "Leeds",
	})
	require.NoError(t, err)
	assert.Contains(t, resp.CompletedSteps, "personal")
	assert.Equal(t, "Leeds", resp.City)
}

func TestApplicationService_SaveStep_UnknownStep(t *testing.T) {
	f := newFixture()
	svc := f.applicationService()
	app, token := completedApplication(t)

	f.applications.On("FindByID", mock.Anything, app.ID).Return(app, nil)

	_, err := svc.SaveStep(context.Background(), shared.PublicActor("", "", ""), app.ID, token, "payment", SaveStepRequest{})
	assert.ErrorIs(t, err, ErrUnknownStep)
}

func TestApplicationService_RequestDocumentUpload(t *testing.T) {
	f := newFixture()
	svc := f.applicationService()
	app, token := completedApplication(t)

	f.applications.On("FindByID", mock.Anything, app.ID).Return(app, nil)
	f.applications.On("Save", mock.Anything, app).Return(nil)
	f.expectAudit(audit.ActionApplicationDocument)

	resp, err := svc.RequestDocumentUpload(context.Background(), shared.PublicActor("", "", ""), app.ID, token, DocumentUploadRequest{
		FileName: "../../My DBS Check.PDF", ContentType: "application/pdf", Size: 2048,
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(resp.Key, "applications/"+app.ID.String()+"/"))
	assert.True(t, strings.HasSuffix(resp.Key, ".pdf"))
	assert.NotContains(t, resp.Key, "DBS")
	assert.Equal(t, []string{resp.Key}, app.DocumentKeys)
	assert.Contains(t, resp.UploadURL, resp.Key)
}

func TestApplicationService_RequestDocumentUpload_TooLarge(t *testing.T) {
	f := newFixture()
	svc := f.applicationService()

	_, err := svc.RequestDocumentUpload(context.Background(), shared.PublicActor("", "", ""), uuid.New(), "tok", DocumentUploadRequest{
		FileName: "cv.pdf", ContentType: "application/pdf", Size: 50 << 20,
	})
	assert.ErrorIs(t, err, ErrDocumentTooLarge)
	assert.Empty(t, f.storage.uploads)
}

func TestApplicationService_Submit(t *testing.T) {
	f := newFixture()
	svc := f.applicationService()
	app, token := completedApplication(t)

	f.applications.On("FindByID", mock.Anything, app.ID).Return(app, nil)
	f.applications.On("Save", mock.Anything, app).Return(nil)
	f.expectAudit(audit.ActionApplicationSubmitted)

	resp, err := svc.Submit(context.Background(), shared.PublicActor("", "", ""), app.ID, token)
	require.NoError(t, err)
	assert.Equal(t, string(partner.ApplicationStatusSubmitted), resp.Status)
	assert.Equal(t, []string{"application.status_changed"}, f.events.EventTypes())
}

func TestApplicationService_Submit_Incomplete(t *testing.T) {
	f := newFixture()
	svc := f.applicationService()
	app, token, err := partner.NewPDApplication("alex@example.com")
	require.NoError(t, err)

	f.applications.On("FindByID", mock.Anything, app.ID).Return(app, nil)

	_, err = svc.Submit(context.Background(), shared.PublicActor("", "", ""), app.ID, token)
	assert.Equal(t, "APPLICATION_INCOMPLETE", shared.ErrorCode(err))
}

func TestApplicationService_Approve(t *testing.T) {
	f := newFixture()
	svc := f.applicationService()
	app, _ := completedApplication(t)
	require.NoError(t, app.Submit())
	app.ClearDomainEvents()

	f.applications.On("FindByID", mock.Anything, app.ID).Return(app, nil)
	f.pds.On("ExistsByEmail", mock.Anything, app.Email).Return(false, nil)
	f.pds.On("ExistsByCode", mock.Anything, mock.Anything).Return(false, nil)
	f.pds.On("Save", mock.Anything, mock.Anything).Return(nil)
	f.applications.On("Save", mock.Anything, app).Return(nil)
	f.expectAudit(audit.ActionApplicationApproved)

	resp, err := svc.Approve(context.Background(), testutil.RoleActor(identity.RoleAdmin), app.ID, ApproveApplicationRequest{Note: "Welcome"})
	require.NoError(t, err)

	assert.Equal(t, string(partner.ApplicationStatusApproved), resp.Application.Status)
	assert.True(t, decimal.NewFromInt(120).Equal(resp.PD.FeePerCase))
	assert.Equal(t, "Leeds", resp.PD.City)
	assert.Equal(t, &app.ID, resp.PD.ApplicationID)
	assert.NotEmpty(t, resp.TemporaryPassword)
	require.NotNil(t, app.PDID)
	assert.Equal(t, resp.PD.ID, *app.PDID)
	assert.ElementsMatch(t, []string{"application.status_changed", "pd.created"}, f.events.EventTypes())

	savedPD := f.pds.Calls[2].Arguments.Get(1).(*partner.PD)
	assert.True(t, savedPD.VerifyPassword(resp.TemporaryPassword))
}

func TestApplicationService_Approve_CustomFee(t *testing.T) {
	f := newFixture()
	svc := f.applicationService()
	app, _ := completedApplication(t)
	require.NoError(t, app.Submit())

	f.applications.On("FindByID", mock.Anything, app.ID).Return(app, nil)
	f.pds.On("ExistsByEmail", mock.Anything, app.Email).Return(false, nil)
	f.pds.On("ExistsByCode", mock.Anything, mock.Anything).Return(false, nil)
	f.pds.On("Save", mock.Anything, mock.Anything).Return(nil)
	f.applications.On("Save", mock.Anything, app).Return(nil)
	f.expectAudit(audit.ActionApplicationApproved)

	fee := decimal.NewFromInt(175)
	resp, err := svc.Approve(context.Background(), testutil.RoleActor(identity.RoleAdmin), app.ID, ApproveApplicationRequest{FeePerCase: &fee})
	require.NoError(t, err)
	assert.True(t, fee.Equal(resp.PD.FeePerCase))
}

func TestApplicationService_Approve_DraftRejected(t *testing.T) {
	f := newFixture()
	svc := f.applicationService()
	app, _ := completedApplication(t)

	f.applications.On("FindByID", mock.Anything, app.ID).Return(app, nil)

	_, err := svc.Approve(context.Background(), testutil.RoleActor(identity.RoleAdmin), app.ID, ApproveApplicationRequest{})
	assert.Equal(t, "INVALID_STATE", shared.ErrorCode(err))
	f.pds.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestApplicationService_Approve_EmailTaken(t *testing.T) {
	f := newFixture()
	svc := f.applicationService()
	app, _ := completedApplication(t)
	require.NoError(t, app.Submit())

	f.applications.On("FindByID", mock.Anything, app.ID).Return(app, nil)
	f.pds.On("ExistsByEmail", mock.Anything, app.Email).Return(true, nil)

	_, err := svc.Approve(context.Background(), testutil.RoleActor(identity.RoleAdmin), app.ID, ApproveApplicationRequest{})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestApplicationService_Reject_RequiresNote(t *testing.T) {
	f := newFixture()
	svc := f.applicationService()
	app, _ := completedApplication(t)
	require.NoError(t, app.Submit())

	f.applications.On("FindByID", mock.Anything, app.ID).Return(app, nil)

	_, err := svc.Reject(context.Background(), testutil.RoleActor(identity.RoleAdmin), app.ID, RejectApplicationRequest{Note: "  "})
	assert.Equal(t, "REVIEW_NOTE_REQUIRED", shared.ErrorCode(err))
}

func TestApplicationService_GetByID_PresignsDocuments(t *testing.T) {
	f := newFixture()
	svc := f.applicationService()
	app, _ := completedApplication(t)
	require.NoError(t, app.AddDocument("applications/a/1.pdf"))
	require.NoError(t, app.AddDocument("applications/a/2.png"))

	f.applications.On("FindByID", mock.Anything, app.ID).Return(app, nil)

	detail, err := svc.GetByID(context.Background(), app.ID)
	require.NoError(t, err)
	require.Len(t, detail.Documents, 2)
	assert.Equal(t, 2, detail.DocumentCount)
	assert.Equal(t, []string{"applications/a/1.pdf", "applications/a/2.png"}, f.storage.downloads)
}

func TestApplicationExpiryJob_WithdrawsStaleDrafts(t *testing.T) {
	f := newFixture()
	job := NewApplicationExpiryJob(f.deps, 72*time.Hour, 10)
	now := time.Now()
	job.now = func() time.Time { return now }

	stale, _, err := partner.NewPDApplication("old@example.com")
	require.NoError(t, err)
	stale.UpdatedAt = now.Add(-100 * time.Hour)
	fresh, _, err := partner.NewPDApplication("new@example.com")
	require.NoError(t, err)

	f.applications.On("FindStaleDrafts", mock.Anything, now.Add(-72*time.Hour), 10).
		Return([]partner.PDApplication{*stale, *fresh}, nil)
	f.applications.On("Save", mock.Anything, mock.Anything).Return(nil).Once()
	f.expectAudit(audit.ActionApplicationWithdrawn)

	n, err := job.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, ApplicationExpiryJobName, job.Name())

	saved := f.applications.Calls[1].Arguments.Get(1).(*partner.PDApplication)
	assert.Equal(t, partner.ApplicationStatusWithdrawn, saved.Status)
	assert.Equal(t, "old@example.com", saved.Email)
}

func TestApplicationExpiryJob_DisabledWindow(t *testing.T) {
	f := newFixture()
	job := NewApplicationExpiryJob(f.deps, 0, 10)

	n, err := job.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	f.applications.AssertNotCalled(t, "FindStaleDrafts", mock.Anything, mock.Anything, mock.Anything)
}

func TestPDService_Suspend_RevokesSessions(t *testing.T) {
	f := newFixture()
	svc := NewPDService(f.deps, f.revoker, time.Hour)
	pd := testutil.NewPD(t, "Leeds")

	f.pds.On("FindByID", mock.Anything, pd.ID).Return(pd, nil)
	f.pds.On("Save", mock.Anything, pd).Return(nil)
	f.expectAudit(audit.ActionPDStatusChanged)

	resp, err := svc.Suspend(context.Background(), testutil.RoleActor(identity.RoleAdmin), pd.ID, StatusReasonRequest{Reason: "Missed visits"})
	require.NoError(t, err)
	assert.Equal(t, string(partner.PDStatusSuspended), resp.Status)
	assert.Equal(t, []string{pd.ID.String()}, f.revoker.subjects)
}

func TestPDService_Suspend_RevokeFailureIsNotFatal(t *testing.T) {
	f := newFixture()
	f.revoker.err = errors.New("redis down")
	svc := NewPDService(f.deps, f.revoker, time.Hour)
	pd := testutil.NewPD(t, "Leeds")

	f.pds.On("FindByID", mock.Anything, pd.ID).Return(pd, nil)
	f.pds.On("Save", mock.Anything, pd).Return(nil)
	f.expectAudit(audit.ActionPDStatusChanged)

	_, err := svc.Suspend(context.Background(), testutil.RoleActor(identity.RoleAdmin), pd.ID, StatusReasonRequest{Reason: "Missed visits"})
	assert.NoError(t, err)
}

func TestPDService_Update_EmailTaken(t *testing.T) {
	f := newFixture()
	svc := NewPDService(f.deps, nil, time.Hour)
	pd := testutil.NewPD(t, "Leeds")

	f.pds.On("FindByID", mock.Anything, pd.ID).Return(pd, nil)
	f.pds.On("ExistsByEmail", mock.Anything, "taken@example.com").Return(true, nil)

	_, err := svc.Update(context.Background(), testutil.RoleActor(identity.RoleAdmin), pd.ID, UpdatePDRequest{
		FirstName: "Sam", LastName: "Carter", Email: "taken@example.com", City: "Leeds",
	})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestPDService_ResetPassword(t *testing.T) {
	f := newFixture()
	svc := NewPDService(f.deps, f.revoker, time.Hour)
	pd := testutil.NewPD(t, "Leeds")

	f.pds.On("FindByID", mock.Anything, pd.ID).Return(pd, nil)
	f.pds.On("Save", mock.Anything, pd).Return(nil)
	f.expectAudit(audit.ActionPDPasswordReset)

	resp, err := svc.ResetPassword(context.Background(), testutil.RoleActor(identity.RoleAdmin), pd.ID)
	require.NoError(t, err)
	assert.True(t, pd.VerifyPassword(resp.TemporaryPassword))
	assert.False(t, pd.VerifyPassword("Portal-Passw0rd!"))
	assert.Len(t, f.revoker.subjects, 1)
}

func TestChannelService_CreateChannel_DuplicateCode(t *testing.T) {
	f := newFixture()
	svc := NewChannelService(f.deps)

	f.channels.On("ExistsByCode", mock.Anything, "NHS-LEEDS").Return(true, nil)

	_, err := svc.CreateChannel(context.Background(), testutil.RoleActor(identity.RoleAdmin), CreateChannelRequest{
		Code: "nhs-leeds", Name: "NHS Leeds", Kind: "nhs",
	})
	assert.ErrorIs(t, err, ErrChannelCodeTaken)
}

func TestChannelService_CreateProvider_UnknownChannel(t *testing.T) {
	f := newFixture()
	svc := NewChannelService(f.deps)
	channelID := uuid.New()

	f.channels.On("FindByID", mock.Anything, channelID).Return(nil, shared.ErrNotFound)

	_, err := svc.CreateProvider(context.Background(), testutil.RoleActor(identity.RoleAdmin), CreateProviderRequest{
		ChannelID: channelID, Name: "Leeds Physio", City: "Leeds",
	})
	assert.True(t, shared.IsNotFound(err))
	f.providers.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestChannelService_SetChannelActive(t *testing.T) {
	f := newFixture()
	svc := NewChannelService(f.deps)
	channel, err := partner.NewClinicalChannel("PRIV-1", "Private One", partner.ChannelKindPrivate, "")
	require.NoError(t, err)

	f.channels.On("FindByID", mock.Anything, channel.ID).Return(channel, nil)
	f.channels.On("Save", mock.Anything, channel).Return(nil)
	f.expectAudit(audit.ActionChannelDeactivated)

	resp, err := svc.SetChannelActive(context.Background(), testutil.RoleActor(identity.RoleAdmin), channel.ID, false)
	require.NoError(t, err)
	assert.False(t, resp.Active)
}
