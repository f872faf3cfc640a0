package partner

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pathway/backend/internal/domain/audit"
	"github.com/pathway/backend/internal/domain/partner"
	"github.com/pathway/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Application errors
var (
	ErrInvalidResumeToken = shared.NewDomainError("INVALID_RESUME_TOKEN", "The application token is invalid")
	ErrOpenApplication    = shared.NewDomainError("APPLICATION_EXISTS", "An open application already exists for this email")
	ErrDocumentTooLarge   = shared.NewDomainError("DOCUMENT_TOO_LARGE", "The document exceeds the upload size limit")
	ErrUnknownStep        = shared.NewDomainError("INVALID_STEP", "Unknown application step")
)

// ApplicationConfig holds onboarding settings
type ApplicationConfig struct {
	DefaultFee    decimal.Decimal
	PresignExpiry time.Duration
	MaxUploadSize int64
}

// ApplicationService runs the PD application wizard and its review
type ApplicationService struct {
	Deps
	storage DocumentStorage
	config  ApplicationConfig
}

// NewApplicationService creates a new application service
func NewApplicationService(deps Deps, storage DocumentStorage, config ApplicationConfig) *ApplicationService {
	if config.PresignExpiry <= 0 {
		config.PresignExpiry = 15 * time.Minute
	}
	if config.MaxUploadSize <= 0 {
		config.MaxUploadSize = 10 << 20
	}
	return &ApplicationService{Deps: deps, storage: storage, config: config}
}

// =============================================================================
// Applicant flow
// =============================================================================

// Start opens a draft application for email and returns its resume token
func (s *ApplicationService) Start(ctx context.Context, actor shared.Actor, req StartApplicationRequest) (*StartApplicationResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	open, err := s.Applications.ExistsOpenByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if open {
		return nil, ErrOpenApplication
	}

	app, token, err := partner.NewPDApplication(email)
	if err != nil {
		return nil, err
	}
	if err := s.save(ctx, actor, app, audit.ActionApplicationStarted, nil); err != nil {
		return nil, err
	}
	s.Logger.Info("PD application started", zap.String("application_id", app.ID.String()))

	return &StartApplicationResponse{
		ID:          app.ID,
		ResumeToken: token,
		CurrentStep: string(app.CurrentStep),
	}, nil
}

// Get returns the applicant's own application
func (s *ApplicationService) Get(ctx context.Context, id uuid.UUID, token string) (*ApplicationResponse, error) {
	app, err := s.load(ctx, id, token)
	if err != nil {
		return nil, err
	}
	resp := ToApplicationResponse(app)
	return &resp, nil
}

// SaveStep stores one wizard step
func (s *ApplicationService) SaveStep(ctx context.Context, actor shared.Actor, id uuid.UUID, token, step string, req SaveStepRequest) (*ApplicationResponse, error) {
	app, err := s.load(ctx, id, token)
	if err != nil {
		return nil, err
	}

	switch partner.ApplicationStep(step) {
	case partner.StepPersonal:
		err = app.SavePersonal(req.FirstName, req.LastName, req.Phone, req.City)
	case partner.StepExperience:
		err = app.SaveExperience(req.YearsExperience, req.Background, req.Specialties)
	case partner.StepAvailability:
		err = app.SaveAvailability(req.HoursPerWeek, req.StartDate)
	case partner.StepAgreement:
		err = app.SaveAgreement(req.AgreementAccepted)
	default:
		return nil, ErrUnknownStep
	}
	if err != nil {
		return nil, err
	}

	if err := s.save(ctx, actor, app, audit.ActionApplicationStep, audit.After(map[string]any{"step": step})); err != nil {
		return nil, err
	}
	resp := ToApplicationResponse(app)
	return &resp, nil
}

// RequestDocumentUpload records a new document key and returns a presigned
// URL the applicant uploads the file to.
func (s *ApplicationService) RequestDocumentUpload(ctx context.Context, actor shared.Actor, id uuid.UUID, token string, req DocumentUploadRequest) (*DocumentUploadResponse, error) {
	if req.Size > s.config.MaxUploadSize {
		return nil, ErrDocumentTooLarge
	}
	app, err := s.load(ctx, id, token)
	if err != nil {
		return nil, err
	}

	key := documentKey(app.ID, req.FileName)
	if err := app.AddDocument(key); err != nil {
		return nil, err
	}
	url, expiresAt, err := s.storage.PresignUpload(ctx, DocumentUpload{
		Key:         key,
		ContentType: req.ContentType,
		Size:        req.Size,
	}, s.config.PresignExpiry)
	if err != nil {
		return nil, fmt.Errorf("failed to presign document upload: %w", err)
	}
	changes := audit.After(map[string]any{"key": key, "content_type": req.ContentType, "size": req.Size})
	if err := s.save(ctx, actor, app, audit.ActionApplicationDocument, changes); err != nil {
		return nil, err
	}

	return &DocumentUploadResponse{Key: key, UploadURL: url, ExpiresAt: expiresAt}, nil
}

// documentKey builds an object key that keeps the file extension but not
// the applicant's file name.
func documentKey(appID uuid.UUID, fileName string) string {
	ext := strings.ToLower(path.Ext(path.Base(strings.ReplaceAll(fileName, "\\", "/"))))
	if len(ext) > 10 {
		ext = ""
	}
	return fmt.Sprintf("applications/%s/%s%s", appID, uuid.NewString(), ext)
}

// Submit sends the application for review
func (s *ApplicationService) Submit(ctx context.Context, actor shared.Actor, id uuid.UUID, token string) (*ApplicationResponse, error) {
	app, err := s.load(ctx, id, token)
	if err != nil {
		return nil, err
	}
	if err := app.Submit(); err != nil {
		return nil, err
	}
	if err := s.save(ctx, actor, app, audit.ActionApplicationSubmitted,
		audit.Diff("status", partner.ApplicationStatusDraft, app.Status)); err != nil {
		return nil, err
	}
	s.Logger.Info("PD application submitted", zap.String("application_id", app.ID.String()))

	resp := ToApplicationResponse(app)
	return &resp, nil
}

// Withdraw closes the applicant's open application
func (s *ApplicationService) Withdraw(ctx context.Context, actor shared.Actor, id uuid.UUID, token string) (*ApplicationResponse, error) {
	app, err := s.load(ctx, id, token)
	if err != nil {
		return nil, err
	}
	from := app.Status
	if err := app.Withdraw(); err != nil {
		return nil, err
	}
	if err := s.save(ctx, actor, app, audit.ActionApplicationWithdrawn, audit.Diff("status", from, app.Status)); err != nil {
		return nil, err
	}
	resp := ToApplicationResponse(app)
	return &resp, nil
}

// load fetches the application and checks the resume token. A wrong token
// and an unknown ID look the same to the caller.
func (s *ApplicationService) load(ctx context.Context, id uuid.UUID, token string) (*partner.PDApplication, error) {
	app, err := s.Applications.FindByID(ctx, id)
	if shared.IsNotFound(err) {
		return nil, ErrInvalidResumeToken
	}
	if err != nil {
		return nil, err
	}
	if !app.VerifyToken(token) {
		return nil, ErrInvalidResumeToken
	}
	return app, nil
}

// =============================================================================
// Admin review
// =============================================================================

// List retrieves a page of applications
func (s *ApplicationService) List(ctx context.Context, filter ListApplicationsFilter) ([]ApplicationResponse, int64, error) {
	f := filter.ToFilter()
	apps, err := s.Applications.FindAll(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.Applications.Count(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	out := make([]ApplicationResponse, len(apps))
	for i := range apps {
		out[i] = ToApplicationResponse(&apps[i])
	}
	return out, total, nil
}

// GetByID retrieves an application for review with download links for its
// documents.
func (s *ApplicationService) GetByID(ctx context.Context, id uuid.UUID) (*ApplicationDetailResponse, error) {
	app, err := s.Applications.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	detail := &ApplicationDetailResponse{
		ApplicationResponse: ToApplicationResponse(app),
		Documents:           make([]DocumentLink, 0, len(app.DocumentKeys)),
	}
	for _, key := range app.DocumentKeys {
		url, expiresAt, err := s.storage.PresignDownload(ctx, key, s.config.PresignExpiry)
		if err != nil {
			return nil, fmt.Errorf("failed to presign document download: %w", err)
		}
		detail.Documents = append(detail.Documents, DocumentLink{Key: key, DownloadURL: url, ExpiresAt: expiresAt})
	}
	return detail, nil
}

// Approve creates an active PD from a submitted application. The PD's
// one-time password is returned to the reviewer and never stored in clear.
func (s *ApplicationService) Approve(ctx context.Context, actor shared.Actor, id uuid.UUID, req ApproveApplicationRequest) (*ApproveApplicationResponse, error) {
	reviewer, err := actorID(actor)
	if err != nil {
		return nil, err
	}
	app, err := s.Applications.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if app.Status != partner.ApplicationStatusSubmitted {
		return nil, shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot approve a %s application", app.Status))
	}
	taken, err := s.PDs.ExistsByEmail(ctx, app.Email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrEmailTaken
	}

	fee := s.config.DefaultFee
	if req.FeePerCase != nil {
		fee = *req.FeePerCase
	}
	code, err := s.newPDCode(ctx)
	if err != nil {
		return nil, err
	}
	pd, err := partner.NewPD(code, app.FirstName, app.LastName, app.Email, app.Phone, app.City, fee)
	if err != nil {
		return nil, err
	}
	pd.ApplicationID = &app.ID
	temp, err := pd.ResetPassword()
	if err != nil {
		return nil, err
	}
	if err := app.Approve(reviewer, pd.ID, req.Note); err != nil {
		return nil, err
	}

	err = s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.PDs.Save(ctx, pd); err != nil {
			return err
		}
		if err := s.Applications.Save(ctx, app); err != nil {
			return err
		}
		if err := s.Recorder.Record(ctx, actor, audit.ActionApplicationApproved, audit.EntityApplication, app.ID,
			audit.After(map[string]any{"pd_id": pd.ID.String(), "pd_code": pd.Code, "fee_per_case": fee.String()})); err != nil {
			return err
		}
		events := append(app.GetDomainEvents(), pd.GetDomainEvents()...)
		return s.Events.Publish(ctx, events...)
	})
	if err != nil {
		return nil, err
	}
	app.ClearDomainEvents()
	pd.ClearDomainEvents()
	s.Logger.Info("PD application approved",
		zap.String("application_id", app.ID.String()),
		zap.String("pd_code", pd.Code))

	return &ApproveApplicationResponse{
		Application:       ToApplicationResponse(app),
		PD:                ToPDResponse(pd),
		TemporaryPassword: temp,
	}, nil
}

// Reject declines a submitted application with a note
func (s *ApplicationService) Reject(ctx context.Context, actor shared.Actor, id uuid.UUID, req RejectApplicationRequest) (*ApplicationResponse, error) {
	reviewer, err := actorID(actor)
	if err != nil {
		return nil, err
	}
	app, err := s.Applications.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := app.Reject(reviewer, req.Note); err != nil {
		return nil, err
	}
	if err := s.save(ctx, actor, app, audit.ActionApplicationRejected,
		audit.After(map[string]any{"status": app.Status, "note": app.ReviewNote})); err != nil {
		return nil, err
	}
	resp := ToApplicationResponse(app)
	return &resp, nil
}

func (s *ApplicationService) newPDCode(ctx context.Context) (string, error) {
	const attempts = 5
	for i := 0; i < attempts; i++ {
		code, err := partner.NewPDCode()
		if err != nil {
			return "", err
		}
		exists, err := s.PDs.ExistsByCode(ctx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
	return "", fmt.Errorf("failed to allocate a unique PD code after %d attempts", attempts)
}

func (s *ApplicationService) save(ctx context.Context, actor shared.Actor, app *partner.PDApplication, action string, changes *audit.Changes) error {
	err := s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.Applications.Save(ctx, app); err != nil {
			return err
		}
		if err := s.Recorder.Record(ctx, actor, action, audit.EntityApplication, app.ID, changes); err != nil {
			return err
		}
		return s.Events.Publish(ctx, app.GetDomainEvents()...)
	})
	if err != nil {
		return err
	}
	app.ClearDomainEvents()
	return nil
}
