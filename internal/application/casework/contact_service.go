package casework

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pathway/backend/internal/domain/audit"
	"github.com/pathway/backend/internal/domain/casework"
	"github.com/pathway/backend/internal/domain/identity"
	"github.com/pathway/backend/internal/domain/shared"
)

// ContactService records contact attempts with patients
type ContactService struct {
	Deps
}

// NewContactService creates a new contact service
func NewContactService(deps Deps) *ContactService {
	return &ContactService{Deps: deps}
}

// Log appends a contact attempt to a case. PDs may only log against their
// own cases.
func (s *ContactService) Log(ctx context.Context, actor shared.Actor, caseID uuid.UUID, req LogContactRequest) (*ContactResponse, error) {
	c, err := s.loadCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if actor.Type == shared.ActorTypePD && !c.IsAssignedTo(actor.IDOrNil()) {
		return nil, shared.ErrNotFound
	}

	var contactedAt time.Time
	if req.ContactedAt != nil {
		contactedAt = *req.ContactedAt
	}
	entry, err := casework.NewContactLog(c.ID, actor, casework.ContactMethod(req.Method),
		casework.ContactDirection(req.Direction), casework.ContactOutcome(req.Outcome), req.Note, contactedAt)
	if err != nil {
		return nil, err
	}

	err = s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.Repos.Contacts.Create(ctx, entry); err != nil {
			return err
		}
		return s.Recorder.Record(ctx, actor, audit.ActionContactLogged, audit.EntityContactLog, entry.ID,
			audit.After(map[string]any{
				"case_id":   c.ID.String(),
				"method":    entry.Method,
				"direction": entry.Direction,
				"outcome":   entry.Outcome,
			}))
	})
	if err != nil {
		return nil, err
	}

	resp := ToContactResponse(entry, canUnmaskContacts(actor))
	return &resp, nil
}

// ListByCase retrieves the contact history of a case, newest first. Notes
// are redacted for actors without pii:unmask.
func (s *ContactService) ListByCase(ctx context.Context, actor shared.Actor, caseID uuid.UUID, page, pageSize int) ([]ContactResponse, int64, error) {
	if _, err := s.loadCase(ctx, caseID); err != nil {
		return nil, 0, err
	}
	f := shared.Filter{Page: page, PageSize: pageSize, OrderBy: "contacted_at"}.Normalize()
	items, err := s.Repos.Contacts.FindByCase(ctx, caseID, f)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.Repos.Contacts.CountByCase(ctx, caseID)
	if err != nil {
		return nil, 0, err
	}
	canUnmask := canUnmaskContacts(actor)
	out := make([]ContactResponse, len(items))
	for i := range items {
		out[i] = ToContactResponse(&items[i], canUnmask)
	}
	return out, total, nil
}

func canUnmaskContacts(actor shared.Actor) bool {
	return actor.Type == shared.ActorTypePD || actor.HasPermission(identity.PermPIIUnmask)
}
