package partner

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApplication(t *testing.T) (*PDApplication, string) {
	t.Helper()
	app, token, err := NewPDApplication("Applicant@Example.com")
	require.NoError(t, err)
	return app, token
}

func fillAllSteps(t *testing.T, app *PDApplication) {
	t.Helper()
	require.NoError(t, app.SavePersonal("Alex", "Jones", "07700 900111", "york"))
	require.NoError(t, app.SaveExperience(6, "Physio assistant", []string{"msk", " msk ", "", "sports"}))
	require.NoError(t, app.SaveAvailability(20, nil))
	require.NoError(t, app.SaveAgreement(true))
}

func TestNewPDApplication(t *testing.T) {
	app, token := newTestApplication(t)
	assert.Equal(t, "applicant@example.com", app.Email)
	assert.Equal(t, ApplicationStatusDraft, app.Status)
	assert.Equal(t, StepPersonal, app.CurrentStep)
	assert.Len(t, token, 64)
	assert.NotEqual(t, token, app.ResumeTokenHash)

	assert.True(t, app.VerifyToken(token))
	assert.False(t, app.VerifyToken(""))
	assert.False(t, app.VerifyToken(token+"x"))

	_, _, err := NewPDApplication("nope")
	requireCode(t, err, "INVALID_EMAIL")
}

func TestPDApplication_Steps(t *testing.T) {
	app, _ := newTestApplication(t)

	require.NoError(t, app.SavePersonal("Alex", "Jones", "07700 900111", "york"))
	assert.Equal(t, StepExperience, app.CurrentStep)
	assert.Equal(t, "York", app.City)

	requireCode(t, app.SaveExperience(-1, "x", nil), "INVALID_EXPERIENCE")
	requireCode(t, app.SaveExperience(2, " ", nil), "INVALID_BACKGROUND")
	require.NoError(t, app.SaveExperience(6, "Physio assistant", []string{"msk", " msk ", "", "sports"}))
	assert.Equal(t, []string{"msk", "sports"}, app.Specialties)

	requireCode(t, app.SaveAvailability(0, nil), "INVALID_AVAILABILITY")
	start := time.Now().AddDate(0, 1, 0)
	require.NoError(t, app.SaveAvailability(20, &start))

	requireCode(t, app.SaveAgreement(false), "AGREEMENT_REQUIRED")
	require.NoError(t, app.SaveAgreement(true))
	assert.Equal(t, StepAgreement, app.CurrentStep)
	assert.NotNil(t, app.AgreedAt)

	// Revisiting an earlier step keeps progress
	require.NoError(t, app.SavePersonal("Alex", "Jones-Smith", "07700 900111", "york"))
	assert.Equal(t, StepAgreement, app.CurrentStep)
	assert.Len(t, app.CompletedSteps, 4)
}

func TestPDApplication_Submit(t *testing.T) {
	t.Run("requires every step", func(t *testing.T) {
		app, _ := newTestApplication(t)
		require.NoError(t, app.SavePersonal("Alex", "Jones", "1", "York"))
		requireCode(t, app.Submit(), "APPLICATION_INCOMPLETE")
		assert.Equal(t, ApplicationStatusDraft, app.Status)
	})

	t.Run("submits and locks editing", func(t *testing.T) {
		app, _ := newTestApplication(t)
		fillAllSteps(t, app)
		require.NoError(t, app.Submit())
		assert.Equal(t, ApplicationStatusSubmitted, app.Status)
		assert.NotNil(t, app.SubmittedAt)

		requireCode(t, app.SavePersonal("A", "B", "1", "York"), "INVALID_STATE")
		requireCode(t, app.AddDocument("k"), "INVALID_STATE")
		requireCode(t, app.Submit(), "INVALID_STATE")
	})
}

func TestPDApplication_Review(t *testing.T) {
	t.Run("approve links PD", func(t *testing.T) {
		app, _ := newTestApplication(t)
		requireCode(t, app.Approve(uuid.New(), uuid.New(), ""), "INVALID_STATE")

		fillAllSteps(t, app)
		require.NoError(t, app.Submit())
		pdID := uuid.New()
		require.NoError(t, app.Approve(uuid.New(), pdID, "welcome"))
		assert.Equal(t, ApplicationStatusApproved, app.Status)
		assert.Equal(t, pdID, *app.PDID)
		assert.False(t, app.Status.IsOpen())
		requireCode(t, app.Withdraw(), "INVALID_STATE")
	})

	t.Run("reject needs note", func(t *testing.T) {
		app, _ := newTestApplication(t)
		fillAllSteps(t, app)
		require.NoError(t, app.Submit())
		requireCode(t, app.Reject(uuid.New(), " "), "REVIEW_NOTE_REQUIRED")
		require.NoError(t, app.Reject(uuid.New(), "not enough experience"))
		assert.Equal(t, ApplicationStatusRejected, app.Status)
		assert.Equal(t, "not enough experience", app.ReviewNote)
	})
}

func TestPDApplication_Documents(t *testing.T) {
	app, _ := newTestApplication(t)
	for i := 0; i < MaxApplicationDocuments; i++ {
		require.NoError(t, app.AddDocument("applications/x/doc"))
	}
	requireCode(t, app.AddDocument("one-more"), "TOO_MANY_DOCUMENTS")
}

func TestPDApplication_IsStale(t *testing.T) {
	app, _ := newTestApplication(t)
	now := time.Now()
	assert.False(t, app.IsStale(time.Hour, now))
	assert.True(t, app.IsStale(time.Hour, now.Add(2*time.Hour)))
	assert.False(t, app.IsStale(0, now.Add(2*time.Hour)))

	require.NoError(t, app.Withdraw())
	assert.False(t, app.IsStale(time.Hour, now.Add(2*time.Hour)))
}

func TestApplicationStep_Next(t *testing.T) {
	assert.Equal(t, StepExperience, StepPersonal.Next())
	assert.Equal(t, StepAgreement, StepAvailability.Next())
	assert.Equal(t, StepAgreement, StepAgreement.Next())
	assert.False(t, ApplicationStep("payment").IsValid())
}
