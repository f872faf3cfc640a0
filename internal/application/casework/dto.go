package casework

import (
	"time"

	"github.com/google/uuid"
	"github.com/pathway/backend/internal/domain/casework"
	"github.com/pathway/backend/internal/domain/shared"
	"github.com/pathway/backend/internal/domain/shared/pii"
)

// =============================================================================
// Case DTOs
// =============================================================================

// ListCasesFilter represents filter options for listing cases
type ListCasesFilter struct {
	Status    string     `form:"status" binding:"omitempty,oneof=new triage pooled assigned in_progress on_hold referred completed cancelled"`
	City      string     `form:"city" binding:"omitempty,max=100"`
	Urgency   string     `form:"urgency" binding:"omitempty,oneof=routine soon urgent"`
	PDID      string     `form:"pd_id" binding:"omitempty,uuid"`
	PoolID    string     `form:"pool_id" binding:"omitempty,uuid"`
	ChannelID string     `form:"channel_id" binding:"omitempty,uuid"`
	Search    string     `form:"search" binding:"omitempty,max=100"`
	StartDate *time.Time `form:"start_date" time_format:"2006-01-02"`
	EndDate   *time.Time `form:"end_date" time_format:"2006-01-02"`
	Page      int        `form:"page" binding:"omitempty,min=1"`
	PageSize  int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy   string     `form:"order_by" binding:"omitempty,oneof=created_at updated_at status_changed_at tracking_code status urgency"`
	OrderDir  string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`

	// SearchPII widens Search to the patient's last name and email. Set by
	// the service for callers allowed to see them.
	SearchPII bool `form:"-"`
}

// ToFilter converts the request filter to a repository filter
func (f ListCasesFilter) ToFilter() shared.Filter {
	filter := shared.DefaultFilter()
	filter.Page = f.Page
	filter.PageSize = f.PageSize
	filter.OrderBy = f.OrderBy
	filter.OrderDir = f.OrderDir
	filter.Search = f.Search
	setString(filter.Filters, "status", f.Status)
	setString(filter.Filters, "city", f.City)
	setString(filter.Filters, "urgency", f.Urgency)
	setString(filter.Filters, "pd_id", f.PDID)
	setString(filter.Filters, "pool_id", f.PoolID)
	setString(filter.Filters, "channel_id", f.ChannelID)
	if f.SearchPII {
		filter.Filters["search_pii"] = true
	}
	if f.StartDate != nil {
		filter.Filters["start_date"] = *f.StartDate
	}
	if f.EndDate != nil {
		filter.Filters["end_date"] = *f.EndDate
	}
	return filter.Normalize()
}

func setString(filters map[string]any, key, value string) {
	if value != "" {
		filters[key] = value
	}
}

// PatientResponse is the patient block of a case. Masked reports whether
// identifying fields were redacted for the caller.
type PatientResponse struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	DateOfBirth string `json:"date_of_birth"`
	City        string `json:"city"`
	Postcode    string `json:"postcode"`
	Masked      bool   `json:"masked"`
}

// CaseResponse represents a case in API responses
type CaseResponse struct {
	ID                 uuid.UUID       `json:"id"`
	TrackingCode       string          `json:"tracking_code"`
	Patient            PatientResponse `json:"patient"`
	Pathway            string          `json:"pathway"`
	Urgency            string          `json:"urgency"`
	SymptomsSummary    string          `json:"symptoms_summary"`
	ConsentGiven       bool            `json:"consent_given"`
	ConsentAt          time.Time       `json:"consent_at"`
	ReferralCode       string          `json:"referral_code,omitempty"`
	ChannelID          *uuid.UUID      `json:"channel_id,omitempty"`
	ProviderID         *uuid.UUID      `json:"provider_id,omitempty"`
	PDID               *uuid.UUID      `json:"pd_id,omitempty"`
	PoolID             *uuid.UUID      `json:"pool_id,omitempty"`
	AssignmentMode     string          `json:"assignment_mode,omitempty"`
	AssignedAt         *time.Time      `json:"assigned_at,omitempty"`
	PooledAt           *time.Time      `json:"pooled_at,omitempty"`
	Status             string          `json:"status"`
	StatusChangedAt    time.Time       `json:"status_changed_at"`
	HoldReason         string          `json:"on_hold_reason,omitempty"`
	CancelReason       string          `json:"cancel_reason,omitempty"`
	CompletedAt        *time.Time      `json:"completed_at,omitempty"`
	CancelledAt        *time.Time      `json:"cancelled_at,omitempty"`
	AllowedTransitions []string        `json:"allowed_transitions"`
	Version            int             `json:"version"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// CaseDetailResponse is a case with its escalations, flags and contacts
type CaseDetailResponse struct {
	CaseResponse
	Escalations     []EscalationResponse     `json:"escalations"`
	ComplianceFlags []ComplianceFlagResponse `json:"compliance_flags"`
	Contacts        []ContactResponse        `json:"contacts"`
}

// ToCaseResponse converts a domain case to a response, masking PII unless
// canUnmask is set.
func ToCaseResponse(c *casework.Case, canUnmask bool) CaseResponse {
	view := c.Patient.View(canUnmask)
	symptoms := c.SymptomsSummary
	if !canUnmask {
		symptoms = pii.MaskFreeText(symptoms)
	}
	allowed := c.Status.AllowedTransitions()
	transitions := make([]string, len(allowed))
	for i, s := range allowed {
		transitions[i] = string(s)
	}
	return CaseResponse{
		ID:           c.ID,
		TrackingCode: c.TrackingCode,
		Patient: PatientResponse{
			FirstName:   view.FirstName,
			LastName:    view.LastName,
			Email:       view.Email,
			Phone:       view.Phone,
			DateOfBirth: view.DateOfBirth,
			City:        view.City,
			Postcode:    view.Postcode,
			Masked:      !canUnmask,
		},
		Pathway:            c.Pathway,
		Urgency:            string(c.Urgency),
		SymptomsSummary:    symptoms,
		ConsentGiven:       c.ConsentGiven,
		ConsentAt:          c.ConsentAt,
		ReferralCode:       c.ReferralCode,
		ChannelID:          c.ChannelID,
		ProviderID:         c.ProviderID,
		PDID:               c.PDID,
		PoolID:             c.PoolID,
		AssignmentMode:     string(c.AssignmentMode),
		AssignedAt:         c.AssignedAt,
		PooledAt:           c.PooledAt,
		Status:             string(c.Status),
		StatusChangedAt:    c.StatusChangedAt,
		HoldReason:         c.HoldReason,
		CancelReason:       c.CancelReason,
		CompletedAt:        c.CompletedAt,
		CancelledAt:        c.CancelledAt,
		AllowedTransitions: transitions,
		Version:            c.Version,
		CreatedAt:          c.CreatedAt,
		UpdatedAt:          c.UpdatedAt,
	}
}

// ToCaseResponses converts a slice of cases
func ToCaseResponses(cases []casework.Case, canUnmask bool) []CaseResponse {
	responses := make([]CaseResponse, len(cases))
	for i := range cases {
		responses[i] = ToCaseResponse(&cases[i], canUnmask)
	}
	return responses
}

// ChangeStatusRequest represents a status change request
type ChangeStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=new triage pooled assigned in_progress on_hold referred completed cancelled"`
	Reason string `json:"reason" binding:"max=1000"`
}

// AssignRequest represents a manual assignment request
type AssignRequest struct {
	PDID uuid.UUID `json:"pd_id" binding:"required"`
}

// UnassignRequest represents a request to release a case from its PD
type UnassignRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=1000"`
}

// RouteToPoolRequest represents a request to place a case in a pool.
// Without PoolID the pool of the patient's city is used.
type RouteToPoolRequest struct {
	PoolID *uuid.UUID `json:"pool_id"`
}

// RoutingRequest sets the clinical channel and provider of a case
type RoutingRequest struct {
	ChannelID  *uuid.UUID `json:"channel_id"`
	ProviderID *uuid.UUID `json:"provider_id"`
}

// =============================================================================
// Contact DTOs
// =============================================================================

// LogContactRequest represents a request to record a contact attempt
type LogContactRequest struct {
	Method      string     `json:"method" binding:"required,oneof=phone email sms in_person"`
	Direction   string     `json:"direction" binding:"required,oneof=inbound outbound"`
	Outcome     string     `json:"outcome" binding:"required,oneof=reached no_answer left_message bounced other"`
	Note        string     `json:"note" binding:"max=2000"`
	ContactedAt *time.Time `json:"contacted_at"`
}

// ContactResponse represents a contact log entry in API responses
type ContactResponse struct {
	ID          uuid.UUID  `json:"id"`
	CaseID      uuid.UUID  `json:"case_id"`
	ActorID     *uuid.UUID `json:"actor_id,omitempty"`
	ActorType   string     `json:"actor_type"`
	Method      string     `json:"method"`
	Direction   string     `json:"direction"`
	Outcome     string     `json:"outcome"`
	Note        string     `json:"note,omitempty"`
	ContactedAt time.Time  `json:"contacted_at"`
	CreatedAt   time.Time  `json:"created_at"`
}

// ToContactResponse converts a domain contact log to a response. The note is
// free text and is redacted unless canUnmask is set.
func ToContactResponse(l *casework.ContactLog, canUnmask bool) ContactResponse {
	note := l.Note
	if !canUnmask {
		note = pii.MaskFreeText(note)
	}
	return ContactResponse{
		ID:          l.ID,
		CaseID:      l.CaseID,
		ActorID:     l.ActorID,
		ActorType:   string(l.ActorType),
		Method:      string(l.Method),
		Direction:   string(l.Direction),
		Outcome:     string(l.Outcome),
		Note:        note,
		ContactedAt: l.ContactedAt,
		CreatedAt:   l.CreatedAt,
	}
}

// =============================================================================
// Escalation DTOs
// =============================================================================

// RaiseEscalationRequest represents a request to escalate a case
type RaiseEscalationRequest struct {
	Reason   string `json:"reason" binding:"required,min=1,max=2000"`
	Priority string `json:"priority" binding:"required,oneof=low medium high critical"`
}

// ResolveEscalationRequest carries the mandatory resolution note
type ResolveEscalationRequest struct {
	Note string `json:"note" binding:"required,min=1,max=2000"`
}

// ListEscalationsFilter represents filter options for listing escalations
type ListEscalationsFilter struct {
	Status   string `form:"status" binding:"omitempty,oneof=open acknowledged resolved"`
	Priority string `form:"priority" binding:"omitempty,oneof=low medium high critical"`
	CaseID   string `form:"case_id" binding:"omitempty,uuid"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// ToFilter converts the request filter to a repository filter
func (f ListEscalationsFilter) ToFilter() shared.Filter {
	filter := shared.DefaultFilter()
	filter.Page = f.Page
	filter.PageSize = f.PageSize
	setString(filter.Filters, "status", f.Status)
	setString(filter.Filters, "priority", f.Priority)
	setString(filter.Filters, "case_id", f.CaseID)
	return filter.Normalize()
}

// EscalationResponse represents an escalation in API responses
type EscalationResponse struct {
	ID             uuid.UUID  `json:"id"`
	CaseID         uuid.UUID  `json:"case_id"`
	RaisedByID     *uuid.UUID `json:"raised_by_id,omitempty"`
	RaisedByType   string     `json:"raised_by_type"`
	Reason         string     `json:"reason"`
	Priority       string     `json:"priority"`
	Status         string     `json:"status"`
	AcknowledgedBy *uuid.UUID `json:"acknowledged_by,omitempty"`
	AcknowledgedAt *time.Time `json:"acknowledged_at,omitempty"`
	ResolutionNote string     `json:"resolution_note,omitempty"`
	ResolvedBy     *uuid.UUID `json:"resolved_by,omitempty"`
	ResolvedAt     *time.Time `json:"resolved_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// ToEscalationResponse converts a domain escalation to a response
func ToEscalationResponse(e *casework.Escalation) EscalationResponse {
	return EscalationResponse{
		ID:             e.ID,
		CaseID:         e.CaseID,
		RaisedByID:     e.RaisedByID,
		RaisedByType:   string(e.RaisedByType),
		Reason:         e.Reason,
		Priority:       string(e.Priority),
		Status:         string(e.Status),
		AcknowledgedBy: e.AcknowledgedBy,
		AcknowledgedAt: e.AcknowledgedAt,
		ResolutionNote: e.ResolutionNote,
		ResolvedBy:     e.ResolvedBy,
		ResolvedAt:     e.ResolvedAt,
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      e.UpdatedAt,
	}
}

// =============================================================================
// Compliance flag DTOs
// =============================================================================

// RaiseFlagRequest represents a request to raise a compliance flag
type RaiseFlagRequest struct {
	Type        string     `json:"type" binding:"required,oneof=consent_missing identity_mismatch conduct documentation other"`
	Severity    string     `json:"severity" binding:"required,oneof=low medium high"`
	Description string     `json:"description" binding:"required,min=1,max=2000"`
	PDID        *uuid.UUID `json:"pd_id"`
}

// ClearFlagRequest carries the mandatory clearance note
type ClearFlagRequest struct {
	Note string `json:"note" binding:"required,min=1,max=2000"`
}

// ListFlagsFilter represents filter options for listing compliance flags
type ListFlagsFilter struct {
	Status   string `form:"status" binding:"omitempty,oneof=open cleared"`
	Severity string `form:"severity" binding:"omitempty,oneof=low medium high"`
	Type     string `form:"type" binding:"omitempty,oneof=consent_missing identity_mismatch conduct documentation other"`
	CaseID   string `form:"case_id" binding:"omitempty,uuid"`
	PDID     string `form:"pd_id" binding:"omitempty,uuid"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// ToFilter converts the request filter to a repository filter
func (f ListFlagsFilter) ToFilter() shared.Filter {
	filter := shared.DefaultFilter()
	filter.Page = f.Page
	filter.PageSize = f.PageSize
	setString(filter.Filters, "status", f.Status)
	setString(filter.Filters, "severity", f.Severity)
	setString(filter.Filters, "type", f.Type)
	setString(filter.Filters, "case_id", f.CaseID)
	setString(filter.Filters, "pd_id", f.PDID)
	return filter.Normalize()
}

// ComplianceFlagResponse represents a compliance flag in API responses
type ComplianceFlagResponse struct {
	ID            uuid.UUID  `json:"id"`
	CaseID        uuid.UUID  `json:"case_id"`
	PDID          *uuid.UUID `json:"pd_id,omitempty"`
	Type          string     `json:"type"`
	Severity      string     `json:"severity"`
	Description   string     `json:"description"`
	Status        string     `json:"status"`
	Blocking      bool       `json:"blocking"`
	RaisedBy      *uuid.UUID `json:"raised_by,omitempty"`
	ClearedBy     *uuid.UUID `json:"cleared_by,omitempty"`
	ClearedAt     *time.Time `json:"cleared_at,omitempty"`
	ClearanceNote string     `json:"clearance_note,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// ToComplianceFlagResponse converts a domain flag to a response
func ToComplianceFlagResponse(f *casework.ComplianceFlag) ComplianceFlagResponse {
	return ComplianceFlagResponse{
		ID:            f.ID,
		CaseID:        f.CaseID,
		PDID:          f.PDID,
		Type:          string(f.Type),
		Severity:      string(f.Severity),
		Description:   f.Description,
		Status:        string(f.Status),
		Blocking:      f.IsBlocking(),
		RaisedBy:      f.RaisedBy,
		ClearedBy:     f.ClearedBy,
		ClearedAt:     f.ClearedAt,
		ClearanceNote: f.ClearanceNote,
		CreatedAt:     f.CreatedAt,
	}
}

// =============================================================================
// Pool DTOs
// =============================================================================

// CreatePoolRequest represents a request to create a pool
type CreatePoolRequest struct {
	Name     string `json:"name" binding:"required,min=1,max=100"`
	City     string `json:"city" binding:"required,min=1,max=100"`
	SLAHours int    `json:"sla_hours" binding:"omitempty,min=1,max=720"`
}

// UpdatePoolRequest represents a request to update a pool
type UpdatePoolRequest struct {
	Name     string `json:"name" binding:"required,min=1,max=100"`
	City     string `json:"city" binding:"required,min=1,max=100"`
	SLAHours int    `json:"sla_hours" binding:"omitempty,min=1,max=720"`
}

// ListPoolsFilter represents filter options for listing pools
type ListPoolsFilter struct {
	Active   *bool  `form:"active"`
	City     string `form:"city" binding:"omitempty,max=100"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// ToFilter converts the request filter to a repository filter
func (f ListPoolsFilter) ToFilter() shared.Filter {
	filter := shared.DefaultFilter()
	filter.Page = f.Page
	filter.PageSize = f.PageSize
	filter.OrderBy = "city"
	filter.OrderDir = "asc"
	if f.Active != nil {
		filter.Filters["active"] = *f.Active
	}
	setString(filter.Filters, "city", f.City)
	return filter.Normalize()
}

// PoolResponse represents a pool in API responses
type PoolResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	City      string    `json:"city"`
	Active    bool      `json:"active"`
	SLAHours  int       `json:"sla_hours"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ToPoolResponse converts a domain pool to a response
func ToPoolResponse(p *casework.Pool) PoolResponse {
	return PoolResponse{
		ID:        p.ID,
		Name:      p.Name,
		City:      p.City,
		Active:    p.Active,
		SLAHours:  p.SLAHours,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}
