package partner

import (
	"time"

	"github.com/google/uuid"
	"github.com/pathway/backend/internal/domain/partner"
	"github.com/pathway/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

func setString(filters map[string]any, key, value string) {
	if value != "" {
		filters[key] = value
	}
}

// =============================================================================
// PD DTOs
// =============================================================================

// ListPDsFilter represents filter options for listing PDs
type ListPDsFilter struct {
	Status   string `form:"status" binding:"omitempty,oneof=active suspended offboarded"`
	City     string `form:"city" binding:"omitempty,max=100"`
	Search   string `form:"search" binding:"omitempty,max=100"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by" binding:"omitempty,oneof=created_at updated_at code last_name city status"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ToFilter converts the request filter to a repository filter
func (f ListPDsFilter) ToFilter() shared.Filter {
	filter := shared.DefaultFilter()
	filter.Page = f.Page
	filter.PageSize = f.PageSize
	filter.OrderBy = f.OrderBy
	filter.OrderDir = f.OrderDir
	filter.Search = f.Search
	setString(filter.Filters, "status", f.Status)
	setString(filter.Filters, "city", f.City)
	return filter.Normalize()
}

// PDResponse represents a PD in API responses
type PDResponse struct {
	ID            uuid.UUID       `json:"id"`
	Code          string          `json:"code"`
	FirstName     string          `json:"first_name"`
	LastName      string          `json:"last_name"`
	Email         string          `json:"email"`
	Phone         string          `json:"phone"`
	City          string          `json:"city"`
	Status        string          `json:"status"`
	StatusReason  string          `json:"status_reason,omitempty"`
	FeePerCase    decimal.Decimal `json:"fee_per_case"`
	ApplicationID *uuid.UUID      `json:"application_id,omitempty"`
	LastLoginAt   *time.Time      `json:"last_login_at,omitempty"`
	Version       int             `json:"version"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// ToPDResponse converts a domain PD to a response
func ToPDResponse(pd *partner.PD) PDResponse {
	return PDResponse{
		ID:            pd.ID,
		Code:          pd.Code,
		FirstName:     pd.FirstName,
		LastName:      pd.LastName,
		Email:         pd.Email,
		Phone:         pd.Phone,
		City:          pd.City,
		Status:        string(pd.Status),
		StatusReason:  pd.StatusReason,
		FeePerCase:    pd.FeePerCase,
		ApplicationID: pd.ApplicationID,
		LastLoginAt:   pd.LastLoginAt,
		Version:       pd.Version,
		CreatedAt:     pd.CreatedAt,
		UpdatedAt:     pd.UpdatedAt,
	}
}

// UpdatePDRequest replaces a PD's profile. A nil fee leaves it unchanged.
type UpdatePDRequest struct {
	FirstName  string           `json:"first_name" binding:"required,min=1,max=100"`
	LastName   string           `json:"last_name" binding:"required,min=1,max=100"`
	Email      string           `json:"email" binding:"required,email,max=254"`
	Phone      string           `json:"phone" binding:"omitempty,phone"`
	City       string           `json:"city" binding:"required,min=1,max=100"`
	FeePerCase *decimal.Decimal `json:"fee_per_case"`
}

// StatusReasonRequest carries the reason for a suspension or offboarding
type StatusReasonRequest struct {
	Reason string `json:"reason" binding:"max=1000"`
}

// PasswordResetResponse carries a one-time password. It is shown once.
type PasswordResetResponse struct {
	TemporaryPassword string `json:"temporary_password"`
}

// =============================================================================
// Application DTOs
// =============================================================================

// StartApplicationRequest opens a new PD application
type StartApplicationRequest struct {
	Email string `json:"email" binding:"required,email,max=254"`
}

// StartApplicationResponse returns the resume token. It is never shown again.
type StartApplicationResponse struct {
	ID          uuid.UUID `json:"id"`
	ResumeToken string    `json:"resume_token"`
	CurrentStep string    `json:"current_step"`
}

// SaveStepRequest carries the fields of any wizard step. Only the fields of
// the step being saved are read.
type SaveStepRequest struct {
	FirstName string `json:"first_name" binding:"max=100"`
	LastName  string `json:"last_name" binding:"max=100"`
	Phone     string `json:"phone" binding:"omitempty,phone"`
	City      string `json:"city" binding:"max=100"`

	YearsExperience int      `json:"years_experience" binding:"min=0,max=60"`
	Background      string   `json:"background" binding:"max=4000"`
	Specialties     []string `json:"specialties" binding:"max=20,dive,max=100"`

	HoursPerWeek int        `json:"hours_per_week" binding:"min=0,max=80"`
	StartDate    *time.Time `json:"start_date"`

	AgreementAccepted bool `json:"agreement_accepted"`
}

// DocumentUploadRequest asks for a presigned upload URL
type DocumentUploadRequest struct {
	FileName    string `json:"file_name" binding:"required,min=1,max=200"`
	ContentType string `json:"content_type" binding:"required,oneof=application/pdf image/jpeg image/png"`
	Size        int64  `json:"size" binding:"required,min=1"`
}

// DocumentUploadResponse tells the applicant where to PUT the file
type DocumentUploadResponse struct {
	Key       string    `json:"key"`
	UploadURL string    `json:"upload_url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ApplicationResponse represents a PD application in API responses
type ApplicationResponse struct {
	ID                uuid.UUID  `json:"id"`
	Email             string     `json:"email"`
	FirstName         string     `json:"first_name"`
	LastName          string     `json:"last_name"`
	Phone             string     `json:"phone"`
	City              string     `json:"city"`
	CurrentStep       string     `json:"current_step"`
	CompletedSteps    []string   `json:"completed_steps"`
	YearsExperience   int        `json:"years_experience"`
	Background        string     `json:"background"`
	Specialties       []string   `json:"specialties"`
	HoursPerWeek      int        `json:"hours_per_week"`
	StartDate         *time.Time `json:"start_date,omitempty"`
	AgreementAccepted bool       `json:"agreement_accepted"`
	AgreedAt          *time.Time `json:"agreed_at,omitempty"`
	DocumentCount     int        `json:"document_count"`
	Status            string     `json:"status"`
	SubmittedAt       *time.Time `json:"submitted_at,omitempty"`
	ReviewNote        string     `json:"review_note,omitempty"`
	ReviewedBy        *uuid.UUID `json:"reviewed_by,omitempty"`
	ReviewedAt        *time.Time `json:"reviewed_at,omitempty"`
	PDID              *uuid.UUID `json:"pd_id,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// ToApplicationResponse converts a domain application to a response
func ToApplicationResponse(a *partner.PDApplication) ApplicationResponse {
	steps := make([]string, len(a.CompletedSteps))
	for i, s := range a.CompletedSteps {
		steps[i] = string(s)
	}
	return ApplicationResponse{
		ID:                a.ID,
		Email:             a.Email,
		FirstName:         a.FirstName,
		LastName:          a.LastName,
		Phone:             a.Phone,
		City:              a.City,
		CurrentStep:       string(a.CurrentStep),
		CompletedSteps:    steps,
		YearsExperience:   a.YearsExperience,
		Background:        a.Background,
		Specialties:       a.Specialties,
		HoursPerWeek:      a.HoursPerWeek,
		StartDate:         a.StartDate,
		AgreementAccepted: a.AgreementAccepted,
		AgreedAt:          a.AgreedAt,
		DocumentCount:     len(a.DocumentKeys),
		Status:            string(a.Status),
		SubmittedAt:       a.SubmittedAt,
		ReviewNote:        a.ReviewNote,
		ReviewedBy:        a.ReviewedBy,
		ReviewedAt:        a.ReviewedAt,
		PDID:              a.PDID,
		CreatedAt:         a.CreatedAt,
		UpdatedAt:         a.UpdatedAt,
	}
}

// ApplicationDetailResponse adds short-lived document download links for
// reviewers.
type ApplicationDetailResponse struct {
	ApplicationResponse
	Documents []DocumentLink `json:"documents"`
}

// DocumentLink is a presigned download URL for one uploaded document
type DocumentLink struct {
	Key         string    `json:"key"`
	DownloadURL string    `json:"download_url"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// ListApplicationsFilter represents filter options for listing applications
type ListApplicationsFilter struct {
	Status   string `form:"status" binding:"omitempty,oneof=draft submitted approved rejected withdrawn"`
	City     string `form:"city" binding:"omitempty,max=100"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// ToFilter converts the request filter to a repository filter
func (f ListApplicationsFilter) ToFilter() shared.Filter {
	filter := shared.DefaultFilter()
	filter.Page = f.Page
	filter.PageSize = f.PageSize
	setString(filter.Filters, "status", f.Status)
	setString(filter.Filters, "city", f.City)
	return filter.Normalize()
}

// ApproveApplicationRequest approves an application. Without a fee the
// configured default applies.
type ApproveApplicationRequest struct {
	Note       string           `json:"note" binding:"max=2000"`
	FeePerCase *decimal.Decimal `json:"fee_per_case"`
}

// ApproveApplicationResponse returns the new PD and its one-time password
type ApproveApplicationResponse struct {
	Application       ApplicationResponse `json:"application"`
	PD                PDResponse          `json:"pd"`
	TemporaryPassword string              `json:"temporary_password"`
}

// RejectApplicationRequest carries the mandatory review note
type RejectApplicationRequest struct {
	Note string `json:"note" binding:"required,min=1,max=2000"`
}

// =============================================================================
// Channel and provider DTOs
// =============================================================================

// CreateChannelRequest represents a request to create a clinical channel
type CreateChannelRequest struct {
	Code        string `json:"code" binding:"required,min=2,max=32"`
	Name        string `json:"name" binding:"required,min=1,max=200"`
	Kind        string `json:"kind" binding:"required,oneof=nhs private insurance self_pay"`
	Description string `json:"description" binding:"max=2000"`
}

// UpdateChannelRequest represents a request to update a clinical channel
type UpdateChannelRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=200"`
	Kind        string `json:"kind" binding:"required,oneof=nhs private insurance self_pay"`
	Description string `json:"description" binding:"max=2000"`
}

// ListChannelsFilter represents filter options for listing channels
type ListChannelsFilter struct {
	Kind     string `form:"kind" binding:"omitempty,oneof=nhs private insurance self_pay"`
	Active   *bool  `form:"active"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// ToFilter converts the request filter to a repository filter
func (f ListChannelsFilter) ToFilter() shared.Filter {
	filter := shared.DefaultFilter()
	filter.Page = f.Page
	filter.PageSize = f.PageSize
	filter.OrderBy = "name"
	filter.OrderDir = "asc"
	setString(filter.Filters, "kind", f.Kind)
	if f.Active != nil {
		filter.Filters["active"] = *f.Active
	}
	return filter.Normalize()
}

// ChannelResponse represents a clinical channel in API responses
type ChannelResponse struct {
	ID          uuid.UUID `json:"id"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	Kind        string    `json:"kind"`
	Description string    `json:"description,omitempty"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ToChannelResponse converts a domain channel to a response
func ToChannelResponse(c *partner.ClinicalChannel) ChannelResponse {
	return ChannelResponse{
		ID:          c.ID,
		Code:        c.Code,
		Name:        c.Name,
		Kind:        string(c.Kind),
		Description: c.Description,
		Active:      c.Active,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

// CreateProviderRequest represents a request to create a provider
type CreateProviderRequest struct {
	ChannelID uuid.UUID `json:"channel_id" binding:"required"`
	Name      string    `json:"name" binding:"required,min=1,max=200"`
	City      string    `json:"city" binding:"required,min=1,max=100"`
	Email     string    `json:"email" binding:"omitempty,email,max=254"`
	Phone     string    `json:"phone" binding:"omitempty,phone"`
}

// UpdateProviderRequest represents a request to update a provider
type UpdateProviderRequest struct {
	Name  string `json:"name" binding:"required,min=1,max=200"`
	City  string `json:"city" binding:"required,min=1,max=100"`
	Email string `json:"email" binding:"omitempty,email,max=254"`
	Phone string `json:"phone" binding:"omitempty,phone"`
}

// ListProvidersFilter represents filter options for listing providers
type ListProvidersFilter struct {
	ChannelID string `form:"channel_id" binding:"omitempty,uuid"`
	City      string `form:"city" binding:"omitempty,max=100"`
	Active    *bool  `form:"active"`
	Page      int    `form:"page" binding:"omitempty,min=1"`
	PageSize  int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// ToFilter converts the request filter to a repository filter
func (f ListProvidersFilter) ToFilter() shared.Filter {
	filter := shared.DefaultFilter()
	filter.Page = f.Page
	filter.PageSize = f.PageSize
	filter.OrderBy = "name"
	filter.OrderDir = "asc"
	setString(filter.Filters, "channel_id", f.ChannelID)
	setString(filter.Filters, "city", f.City)
	if f.Active != nil {
		filter.Filters["active"] = *f.Active
	}
	return filter.Normalize()
}

// ProviderResponse represents a provider in API responses
type ProviderResponse struct {
	ID        uuid.UUID `json:"id"`
	ChannelID uuid.UUID `json:"channel_id"`
	Name      string    `json:"name"`
	City      string    `json:"city"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ToProviderResponse converts a domain provider to a response
func ToProviderResponse(p *partner.Provider) ProviderResponse {
	return ProviderResponse{
		ID:        p.ID,
		ChannelID: p.ChannelID,
		Name:      p.Name,
		City:      p.City,
		Email:     p.Email,
		Phone:     p.Phone,
		Active:    p.Active,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}
