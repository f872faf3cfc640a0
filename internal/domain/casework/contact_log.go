package casework

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pathway/backend/internal/domain/shared"
)

// ContactMethod is the channel used to reach the patient
type ContactMethod string

const (
	ContactMethodPhone    ContactMethod = "phone"
	ContactMethodEmail    ContactMethod = "email"
	ContactMethodSMS      ContactMethod = "sms"
	ContactMethodInPerson ContactMethod = "in_person"
)

// IsValid checks if the method is valid
func (m ContactMethod) IsValid() bool {
	switch m {
	case ContactMethodPhone, ContactMethodEmail, ContactMethodSMS, ContactMethodInPerson:
		return true
	}
	return false
}

// ContactDirection tells who initiated the contact
type ContactDirection string

const (
	ContactDirectionInbound  ContactDirection = "inbound"
	ContactDirectionOutbound ContactDirection = "outbound"
)

// IsValid checks if the direction is valid
func (d ContactDirection) IsValid() bool {
	return d == ContactDirectionInbound || d == ContactDirectionOutbound
}

// ContactOutcome records what happened
type ContactOutcome string

const (
	ContactOutcomeReached     ContactOutcome = "reached"
	ContactOutcomeNoAnswer    ContactOutcome = "no_answer"
	ContactOutcomeLeftMessage ContactOutcome = "left_message"
	ContactOutcomeBounced     ContactOutcome = "bounced"
	ContactOutcomeOther       ContactOutcome = "other"
)

// IsValid checks if the outcome is valid
func (o ContactOutcome) IsValid() bool {
	switch o {
	case ContactOutcomeReached, ContactOutcomeNoAnswer, ContactOutcomeLeftMessage, ContactOutcomeBounced, ContactOutcomeOther:
		return true
	}
	return false
}

// clockSkew tolerates small differences between client and server clocks
const clockSkew = 5 * time.Minute

// ContactLog is an append-only record of a contact attempt with the patient
type ContactLog struct {
	shared.BaseEntity
	CaseID      uuid.UUID
	ActorID     *uuid.UUID
	ActorType   shared.ActorType
	Method      ContactMethod
	Direction   ContactDirection
	Outcome     ContactOutcome
	Note        string
	ContactedAt time.Time
}

// NewContactLog validates and creates a contact log entry. A zero
// contactedAt means now.
func NewContactLog(caseID uuid.UUID, actor shared.Actor, method ContactMethod, direction ContactDirection, outcome ContactOutcome, note string, contactedAt time.Time) (*ContactLog, error) {
	if caseID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CASE", "Case ID cannot be empty")
	}
	if !method.IsValid() {
		return nil, shared.NewDomainError("INVALID_CONTACT_METHOD", "Unknown contact method")
	}
	if !direction.IsValid() {
		return nil, shared.NewDomainError("INVALID_CONTACT_DIRECTION", "Unknown contact direction")
	}
	if !outcome.IsValid() {
		return nil, shared.NewDomainError("INVALID_CONTACT_OUTCOME", "Unknown contact outcome")
	}
	now := time.Now()
	if contactedAt.IsZero() {
		contactedAt = now
	}
	if contactedAt.After(now.Add(clockSkew)) {
		return nil, shared.NewDomainError("INVALID_CONTACT_TIME", "Contact time cannot be in the future")
	}
	return &ContactLog{
		BaseEntity:  shared.NewBaseEntity(),
		CaseID:      caseID,
		ActorID:     actor.ID,
		ActorType:   actor.Type,
		Method:      method,
		Direction:   direction,
		Outcome:     outcome,
		Note:        strings.TrimSpace(note),
		ContactedAt: contactedAt,
	}, nil
}
