package partner

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"net/mail"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pathway/backend/internal/domain/shared"
)

// ApplicationStep names one page of the PD application wizard
type ApplicationStep string

const (
	StepPersonal     ApplicationStep = "personal"
	StepExperience   ApplicationStep = "experience"
	StepAvailability ApplicationStep = "availability"
	StepAgreement    ApplicationStep = "agreement"
)

// ApplicationSteps returns the steps in wizard order
func ApplicationSteps() []ApplicationStep {
	return []ApplicationStep{StepPersonal, StepExperience, StepAvailability, StepAgreement}
}

// IsValid checks if the step is known
func (s ApplicationStep) IsValid() bool {
	return slices.Contains(ApplicationSteps(), s)
}

// Next returns the step after s, or s itself for the last step
func (s ApplicationStep) Next() ApplicationStep {
	steps := ApplicationSteps()
	i := slices.Index(steps, s)
	if i < 0 || i == len(steps)-1 {
		return s
	}
	return steps[i+1]
}

// ApplicationStatus represents the status of a PD application
type ApplicationStatus string

const (
	ApplicationStatusDraft     ApplicationStatus = "draft"
	ApplicationStatusSubmitted ApplicationStatus = "submitted"
	ApplicationStatusApproved  ApplicationStatus = "approved"
	ApplicationStatusRejected  ApplicationStatus = "rejected"
	ApplicationStatusWithdrawn ApplicationStatus = "withdrawn"
)

// IsValid checks if the status is valid
func (s ApplicationStatus) IsValid() bool {
	switch s {
	case ApplicationStatusDraft, ApplicationStatusSubmitted, ApplicationStatusApproved,
		ApplicationStatusRejected, ApplicationStatusWithdrawn:
		return true
	}
	return false
}

// IsOpen reports whether the application is still in flight
func (s ApplicationStatus) IsOpen() bool {
	return s == ApplicationStatusDraft || s == ApplicationStatusSubmitted
}

// MaxApplicationDocuments caps uploads per application
const MaxApplicationDocuments = 10

// PDApplication is a prospective PD's application, filled in over several
// steps and then reviewed by an admin.
type PDApplication struct {
	shared.BaseAggregateRoot
	Email             string
	FirstName         string
	LastName          string
	Phone             string
	City              string
	ResumeTokenHash   string
	CurrentStep       ApplicationStep
	CompletedSteps    []ApplicationStep
	YearsExperience   int
	Background        string
	Specialties       []string
	HoursPerWeek      int
	StartDate         *time.Time
	AgreementAccepted bool
	AgreedAt          *time.Time
	DocumentKeys      []string
	Status            ApplicationStatus
	SubmittedAt       *time.Time
	ReviewNote        string
	ReviewedBy        *uuid.UUID
	ReviewedAt        *time.Time
	PDID              *uuid.UUID
}

// NewPDApplication starts a draft application. The returned resume token
// is shown to the applicant once; only its hash is kept.
func NewPDApplication(email string) (*PDApplication, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, "", shared.NewDomainError("INVALID_EMAIL", "Email is not valid")
	}
	token, err := newResumeToken()
	if err != nil {
		return nil, "", err
	}
	app := &PDApplication{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Email:             email,
		ResumeTokenHash:   hashToken(token),
		CurrentStep:       StepPersonal,
		CompletedSteps:    make([]ApplicationStep, 0, 4),
		Specialties:       make([]string, 0),
		DocumentKeys:      make([]string, 0),
		Status:            ApplicationStatusDraft,
	}
	app.AddDomainEvent(NewApplicationStartedEvent(app))
	return app, token, nil
}

func newResumeToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate resume token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// VerifyToken checks the applicant's resume token
func (a *PDApplication) VerifyToken(token string) bool {
	if token == "" || a.ResumeTokenHash == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(hashToken(token)), []byte(a.ResumeTokenHash)) == 1
}

func (a *PDApplication) ensureDraft() error {
	if a.Status != ApplicationStatusDraft {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot edit a %s application", a.Status))
	}
	return nil
}

func (a *PDApplication) completeStep(step ApplicationStep) {
	if !slices.Contains(a.CompletedSteps, step) {
		a.CompletedSteps = append(a.CompletedSteps, step)
	}
	if a.CurrentStep == step {
		a.CurrentStep = step.Next()
	}
	a.Touch()
}

// IsStepComplete reports whether step has been saved
func (a *PDApplication) IsStepComplete(step ApplicationStep) bool {
	return slices.Contains(a.CompletedSteps, step)
}

// SavePersonal saves the personal details step
func (a *PDApplication) SavePersonal(firstName, lastName, phone, city string) error {
	if err := a.ensureDraft(); err != nil {
		return err
	}
	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)
	if firstName == "" || lastName == "" {
		return shared.NewDomainError("INVALID_NAME", "First and last name are required")
	}
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return shared.NewDomainError("INVALID_PHONE", "Phone is required")
	}
	city = shared.NormalizeCity(city)
	if city == "" {
		return shared.NewDomainError("INVALID_CITY", "City is required")
	}
	a.FirstName, a.LastName, a.Phone, a.City = firstName, lastName, phone, city
	a.completeStep(StepPersonal)
	return nil
}

// SaveExperience saves the experience step
func (a *PDApplication) SaveExperience(years int, background string, specialties []string) error {
	if err := a.ensureDraft(); err != nil {
		return err
	}
	if years < 0 || years > 60 {
		return shared.NewDomainError("INVALID_EXPERIENCE", "Years of experience must be between 0 and 60")
	}
	background = strings.TrimSpace(background)
	if background == "" {
		return shared.NewDomainError("INVALID_BACKGROUND", "Background is required")
	}
	cleaned := make([]string, 0, len(specialties))
	for _, s := range specialties {
		s = strings.TrimSpace(s)
		if s != "" && !slices.Contains(cleaned, s) {
			cleaned = append(cleaned, s)
		}
	}
	a.YearsExperience = years
	a.Background = background
	a.Specialties = cleaned
	a.completeStep(StepExperience)
	return nil
}

// SaveAvailability saves the availability step
func (a *PDApplication) SaveAvailability(hoursPerWeek int, startDate *time.Time) error {
	if err := a.ensureDraft(); err != nil {
		return err
	}
	if hoursPerWeek < 1 || hoursPerWeek > 80 {
		return shared.NewDomainError("INVALID_AVAILABILITY", "Hours per week must be between 1 and 80")
	}
	a.HoursPerWeek = hoursPerWeek
	a.StartDate = startDate
	a.completeStep(StepAvailability)
	return nil
}

// SaveAgreement records the applicant's acceptance of the partner agreement
func (a *PDApplication) SaveAgreement(accepted bool) error {
	if err := a.ensureDraft(); err != nil {
		return err
	}
	if !accepted {
		return shared.NewDomainError("AGREEMENT_REQUIRED", "The partner agreement must be accepted")
	}
	now := time.Now()
	a.AgreementAccepted = true
	a.AgreedAt = &now
	a.completeStep(StepAgreement)
	return nil
}

// AddDocument records an uploaded object key
func (a *PDApplication) AddDocument(key string) error {
	if err := a.ensureDraft(); err != nil {
		return err
	}
	if len(a.DocumentKeys) >= MaxApplicationDocuments {
		return shared.NewDomainError("TOO_MANY_DOCUMENTS", fmt.Sprintf("At most %d documents may be uploaded", MaxApplicationDocuments))
	}
	a.DocumentKeys = append(a.DocumentKeys, key)
	a.Touch()
	return nil
}

// Submit sends the application for review
func (a *PDApplication) Submit() error {
	if err := a.ensureDraft(); err != nil {
		return err
	}
	for _, step := range ApplicationSteps() {
		if !a.IsStepComplete(step) {
			return shared.NewDomainError("APPLICATION_INCOMPLETE", fmt.Sprintf("Step %s is not complete", step))
		}
	}
	if !a.AgreementAccepted {
		return shared.NewDomainError("AGREEMENT_REQUIRED", "The partner agreement must be accepted")
	}
	now := time.Now()
	a.Status = ApplicationStatusSubmitted
	a.SubmittedAt = &now
	a.Touch()
	a.AddDomainEvent(NewApplicationStatusChangedEvent(a, ApplicationStatusDraft))
	return nil
}

// Approve marks the application approved and links the created PD
func (a *PDApplication) Approve(by, pdID uuid.UUID, note string) error {
	if a.Status != ApplicationStatusSubmitted {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot approve a %s application", a.Status))
	}
	a.review(by, note)
	a.Status = ApplicationStatusApproved
	a.PDID = &pdID
	a.AddDomainEvent(NewApplicationStatusChangedEvent(a, ApplicationStatusSubmitted))
	return nil
}

// Reject declines the application. A note is required.
func (a *PDApplication) Reject(by uuid.UUID, note string) error {
	if a.Status != ApplicationStatusSubmitted {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot reject a %s application", a.Status))
	}
	if strings.TrimSpace(note) == "" {
		return shared.NewDomainError("REVIEW_NOTE_REQUIRED", "A note is required to reject an application")
	}
	a.review(by, note)
	a.Status = ApplicationStatusRejected
	a.AddDomainEvent(NewApplicationStatusChangedEvent(a, ApplicationStatusSubmitted))
	return nil
}

func (a *PDApplication) review(by uuid.UUID, note string) {
	now := time.Now()
	a.ReviewNote = strings.TrimSpace(note)
	a.ReviewedBy = &by
	a.ReviewedAt = &now
	a.Touch()
}

// Withdraw closes an open application on behalf of the applicant or the
// expiry job.
func (a *PDApplication) Withdraw() error {
	if !a.Status.IsOpen() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot withdraw a %s application", a.Status))
	}
	from := a.Status
	a.Status = ApplicationStatusWithdrawn
	a.Touch()
	a.AddDomainEvent(NewApplicationStatusChangedEvent(a, from))
	return nil
}

// IsStale reports whether a draft has been untouched for longer than window
func (a *PDApplication) IsStale(window time.Duration, now time.Time) bool {
	return a.Status == ApplicationStatusDraft && window > 0 && now.Sub(a.UpdatedAt) > window
}
