// Package audit provides the audit trail used by every mutating use case
// and the admin queries over it.
package audit

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/pathway/backend/internal/domain/audit"
	"github.com/pathway/backend/internal/domain/shared"
)

// Recorder appends audit entries. Call it with the ctx of the unit of work
// so the entry commits or rolls back with the change it describes.
type Recorder struct {
	repo audit.Repository
}

// NewRecorder creates a new audit recorder
func NewRecorder(repo audit.Repository) *Recorder {
	return &Recorder{repo: repo}
}

// Record writes one audit entry for actor
func (r *Recorder) Record(ctx context.Context, actor shared.Actor, action, entityType string, entityID uuid.UUID, changes *audit.Changes) error {
	entry, err := audit.NewLog(actor, action, entityType, entityID, changes)
	if err != nil {
		return err
	}
	if err := r.repo.Create(ctx, entry); err != nil {
		return fmt.Errorf("failed to write audit log %s: %w", action, err)
	}
	return nil
}
