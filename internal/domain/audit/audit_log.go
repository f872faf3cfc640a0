// Package audit records who changed what. Entries are append-only.
package audit

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pathway/backend/internal/domain/shared"
)

// Entity types written to audit logs
const (
	EntityCase           = "case"
	EntityEscalation     = "escalation"
	EntityComplianceFlag = "compliance_flag"
	EntityContactLog     = "contact_log"
	EntityPool           = "pool"
	EntityPD             = "pd"
	EntityApplication    = "pd_application"
	EntityChannel        = "clinical_channel"
	EntityProvider       = "provider"
	EntityLedgerEntry    = "ledger_entry"
	EntityAdminUser      = "admin_user"
	EntityAuditLog       = "audit_log"
	EntityOutboxEntry    = "outbox_entry"
)

// Action names used across the system
const (
	ActionCaseSubmitted        = "case.submitted"
	ActionCaseStatusChanged    = "case.status_changed"
	ActionCaseAssigned         = "case.assigned"
	ActionCaseUnassigned       = "case.unassigned"
	ActionCasePooled           = "case.pooled"
	ActionCaseClaimed          = "case.claimed"
	ActionCaseRoutingChanged   = "case.routing_changed"
	ActionCasePIIViewed        = "case.pii_viewed"
	ActionCaseExported         = "case.exported"
	ActionContactLogged        = "contact.logged"
	ActionEscalationRaised     = "escalation.raised"
	ActionEscalationAcked      = "escalation.acknowledged"
	ActionEscalationResolved   = "escalation.resolved"
	ActionFlagRaised           = "compliance_flag.raised"
	ActionFlagCleared          = "compliance_flag.cleared"
	ActionPoolCreated          = "pool.created"
	ActionPoolUpdated          = "pool.updated"
	ActionPoolActivated        = "pool.activated"
	ActionPoolDeactivated      = "pool.deactivated"
	ActionPDUpdated            = "pd.updated"
	ActionPDStatusChanged      = "pd.status_changed"
	ActionPDPasswordReset      = "pd.password_reset"
	ActionPDLogin              = "pd.login"
	ActionApplicationStarted   = "application.started"
	ActionApplicationStep      = "application.step_saved"
	ActionApplicationDocument  = "application.document_added"
	ActionApplicationSubmitted = "application.submitted"
	ActionApplicationApproved  = "application.approved"
	ActionApplicationRejected  = "application.rejected"
	ActionApplicationWithdrawn = "application.withdrawn"
	ActionChannelCreated       = "channel.created"
	ActionChannelUpdated       = "channel.updated"
	ActionChannelActivated     = "channel.activated"
	ActionChannelDeactivated   = "channel.deactivated"
	ActionProviderCreated      = "provider.created"
	ActionProviderUpdated      = "provider.updated"
	ActionProviderActivated    = "provider.activated"
	ActionProviderDeactivated  = "provider.deactivated"
	ActionEarningsAccrued      = "earnings.accrued"
	ActionEarningsApproved     = "earnings.approved"
	ActionEarningsPaid         = "earnings.paid"
	ActionEarningsVoided       = "earnings.voided"
	ActionEarningsAdjusted     = "earnings.adjusted"
	ActionEarningsExported     = "earnings.exported"
	ActionUserCreated          = "user.created"
	ActionUserRoleChanged      = "user.role_changed"
	ActionUserDisabled         = "user.disabled"
	ActionUserEnabled          = "user.enabled"
	ActionUserPasswordReset    = "user.password_reset"
	ActionUserPasswordChanged  = "user.password_changed"
	ActionUserLogin            = "user.login"
	ActionAuditExported        = "audit.exported"
	ActionOutboxRequeued       = "outbox.requeued"
)

// Changes holds the before and after state of a mutation
type Changes struct {
	Before map[string]any `json:"before,omitempty"`
	After  map[string]any `json:"after,omitempty"`
}

// Log is a single audit record
type Log struct {
	ID         uuid.UUID
	ActorID    *uuid.UUID
	ActorType  shared.ActorType
	ActorEmail string
	Action     string
	EntityType string
	EntityID   uuid.UUID
	Changes    *Changes
	IPAddress  string
	UserAgent  string
	RequestID  string
	CreatedAt  time.Time
}

// NewLog builds an audit record for an action performed by actor
func NewLog(actor shared.Actor, action, entityType string, entityID uuid.UUID, changes *Changes) (*Log, error) {
	action = strings.TrimSpace(action)
	if action == "" {
		return nil, shared.NewDomainError("INVALID_ACTION", "Audit action is required")
	}
	if entityType == "" {
		return nil, shared.NewDomainError("INVALID_ENTITY", "Audit entity type is required")
	}
	actorType := actor.Type
	if !actorType.IsValid() {
		actorType = shared.ActorTypeSystem
	}
	return &Log{
		ID:         uuid.New(),
		ActorID:    actor.ID,
		ActorType:  actorType,
		ActorEmail: actor.Email,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Changes:    changes,
		IPAddress:  actor.IPAddress,
		UserAgent:  actor.UserAgent,
		RequestID:  actor.RequestID,
		CreatedAt:  time.Now(),
	}, nil
}

// Diff records a single field transition
func Diff(field string, before, after any) *Changes {
	return &Changes{
		Before: map[string]any{field: before},
		After:  map[string]any{field: after},
	}
}

// After records only the resulting values, for creations
func After(values map[string]any) *Changes {
	return &Changes{After: values}
}

// ChangesJSON renders the changes for storage or export
func (l *Log) ChangesJSON() string {
	if l.Changes == nil {
		return ""
	}
	b, err := json.Marshal(l.Changes)
	if err != nil {
		return ""
	}
	return string(b)
}

// Repository defines audit log persistence. There is no update or delete.
type Repository interface {
	// Create appends an entry
	Create(ctx context.Context, log *Log) error

	// FindAll finds entries matching the filter.
	// Supported filter keys: actor_id, actor_type, entity_type, entity_id,
	// action, start_date, end_date
	FindAll(ctx context.Context, filter shared.Filter) ([]Log, error)

	Count(ctx context.Context, filter shared.Filter) (int64, error)
}
