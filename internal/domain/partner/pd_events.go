package partner

import (
	"github.com/google/uuid"
	"github.com/pathway/backend/internal/domain/shared"
)

// Aggregate type constants
const (
	AggregateTypePD          = "PD"
	AggregateTypeApplication = "PDApplication"
)

// Event type constants
const (
	EventTypePDCreated                = "pd.created"
	EventTypePDStatusChanged          = "pd.status_changed"
	EventTypeApplicationStarted       = "application.started"
	EventTypeApplicationStatusChanged = "application.status_changed"
)

// PDCreatedEvent is raised when a PD is onboarded
type PDCreatedEvent struct {
	shared.BaseDomainEvent
	PDID uuid.UUID `json:"pd_id"`
	Code string    `json:"code"`
	City string    `json:"city"`
}

// NewPDCreatedEvent creates a new PDCreatedEvent
func NewPDCreatedEvent(pd *PD) *PDCreatedEvent {
	return &PDCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePDCreated, AggregateTypePD, pd.ID),
		PDID:            pd.ID,
		Code:            pd.Code,
		City:            pd.City,
	}
}

// PDStatusChangedEvent is raised on suspend, reactivate and offboard
type PDStatusChangedEvent struct {
	shared.BaseDomainEvent
	PDID       uuid.UUID `json:"pd_id"`
	FromStatus PDStatus  `json:"from_status"`
	ToStatus   PDStatus  `json:"to_status"`
	Reason     string    `json:"reason,omitempty"`
}

// NewPDStatusChangedEvent creates a new PDStatusChangedEvent
func NewPDStatusChangedEvent(pd *PD, from PDStatus) *PDStatusChangedEvent {
	return &PDStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePDStatusChanged, AggregateTypePD, pd.ID),
		PDID:            pd.ID,
		FromStatus:      from,
		ToStatus:        pd.Status,
		Reason:          pd.StatusReason,
	}
}

// ApplicationStartedEvent is raised when an applicant starts the wizard
type ApplicationStartedEvent struct {
	shared.BaseDomainEvent
	ApplicationID uuid.UUID `json:"application_id"`
}

// NewApplicationStartedEvent creates a new ApplicationStartedEvent
func NewApplicationStartedEvent(app *PDApplication) *ApplicationStartedEvent {
	return &ApplicationStartedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeApplicationStarted, AggregateTypeApplication, app.ID),
		ApplicationID:   app.ID,
	}
}

// ApplicationStatusChangedEvent is raised on submit, review and withdrawal
type ApplicationStatusChangedEvent struct {
	shared.BaseDomainEvent
	ApplicationID uuid.UUID         `json:"application_id"`
	FromStatus    ApplicationStatus `json:"from_status"`
	ToStatus      ApplicationStatus `json:"to_status"`
	PDID          *uuid.UUID        `json:"pd_id,omitempty"`
}

// NewApplicationStatusChangedEvent creates a new ApplicationStatusChangedEvent
func NewApplicationStatusChangedEvent(app *PDApplication, from ApplicationStatus) *ApplicationStatusChangedEvent {
	return &ApplicationStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeApplicationStatusChanged, AggregateTypeApplication, app.ID),
		ApplicationID:   app.ID,
		FromStatus:      from,
		ToStatus:        app.Status,
		PDID:            app.PDID,
	}
}
