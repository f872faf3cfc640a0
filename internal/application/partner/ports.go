// Package partner implements PD onboarding and management, the PD
// application wizard, and the clinical channel directory.
package partner

import (
	"context"
	"time"

	"github.com/google/uuid"
	auditapp "github.com/pathway/backend/internal/application/audit"
	"github.com/pathway/backend/internal/domain/partner"
	"github.com/pathway/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// DocumentUpload is one file an applicant is about to send. Size and
// ContentType are bound into the presigned request.
type DocumentUpload struct {
	Key         string
	ContentType string
	Size        int64
}

// DocumentStorage issues presigned URLs for application documents. Uploads
// go straight from the applicant's browser to object storage.
type DocumentStorage interface {
	PresignUpload(ctx context.Context, doc DocumentUpload, expiresIn time.Duration) (string, time.Time, error)
	PresignDownload(ctx context.Context, key string, expiresIn time.Duration) (string, time.Time, error)
}

// SessionRevoker ends every live session of a subject
type SessionRevoker interface {
	RevokeSubject(ctx context.Context, subject string, ttl time.Duration) error
}

// Deps carries the collaborators shared by the partner services
type Deps struct {
	PDs          partner.PDRepository
	Applications partner.ApplicationRepository
	Channels     partner.ChannelRepository
	Providers    partner.ProviderRepository
	Tx           shared.TxManager
	Events       shared.EventPublisher
	Recorder     *auditapp.Recorder
	Logger       *zap.Logger
}

func actorID(actor shared.Actor) (uuid.UUID, error) {
	if actor.ID == nil {
		return uuid.Nil, shared.ErrUnauthorized
	}
	return *actor.ID, nil
}
