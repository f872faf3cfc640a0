package partner

import (
	"context"

	"github.com/google/uuid"
	"github.com/pathway/backend/internal/domain/audit"
	"github.com/pathway/backend/internal/domain/partner"
	"github.com/pathway/backend/internal/domain/shared"
)

// ErrChannelCodeTaken is returned when the channel code is already in use
var ErrChannelCodeTaken = shared.NewDomainError("CHANNEL_CODE_EXISTS", "A channel with this code already exists")

// ChannelService manages clinical channels and their providers
type ChannelService struct {
	Deps
}

// NewChannelService creates a new channel service
func NewChannelService(deps Deps) *ChannelService {
	return &ChannelService{Deps: deps}
}

// ListChannels retrieves a page of channels ordered by name
func (s *ChannelService) ListChannels(ctx context.Context, filter ListChannelsFilter) ([]ChannelResponse, int64, error) {
	f := filter.ToFilter()
	channels, err := s.Channels.FindAll(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.Channels.Count(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	out := make([]ChannelResponse, len(channels))
	for i := range channels {
		out[i] = ToChannelResponse(&channels[i])
	}
	return out, total, nil
}

// CreateChannel adds an active channel with a unique code
func (s *ChannelService) CreateChannel(ctx context.Context, actor shared.Actor, req CreateChannelRequest) (*ChannelResponse, error) {
	channel, err := partner.NewClinicalChannel(req.Code, req.Name, partner.ChannelKind(req.Kind), req.Description)
	if err != nil {
		return nil, err
	}
	exists, err := s.Channels.ExistsByCode(ctx, channel.Code)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrChannelCodeTaken
	}
	changes := audit.After(map[string]any{"code": channel.Code, "name": channel.Name, "kind": channel.Kind})
	if err := s.saveChannel(ctx, actor, channel, audit.ActionChannelCreated, changes); err != nil {
		return nil, err
	}
	resp := ToChannelResponse(channel)
	return &resp, nil
}

// UpdateChannel changes a channel's name, kind and description
func (s *ChannelService) UpdateChannel(ctx context.Context, actor shared.Actor, id uuid.UUID, req UpdateChannelRequest) (*ChannelResponse, error) {
	channel, err := s.Channels.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	before := map[string]any{"name": channel.Name, "kind": channel.Kind, "description": channel.Description}
	if err := channel.Update(req.Name, partner.ChannelKind(req.Kind), req.Description); err != nil {
		return nil, err
	}
	changes := &audit.Changes{
		Before: before,
		After:  map[string]any{"name": channel.Name, "kind": channel.Kind, "description": channel.Description},
	}
	if err := s.saveChannel(ctx, actor, channel, audit.ActionChannelUpdated, changes); err != nil {
		return nil, err
	}
	resp := ToChannelResponse(channel)
	return &resp, nil
}

// SetChannelActive activates or deactivates a channel
func (s *ChannelService) SetChannelActive(ctx context.Context, actor shared.Actor, id uuid.UUID, active bool) (*ChannelResponse, error) {
	channel, err := s.Channels.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	action := audit.ActionChannelActivated
	if active {
		err = channel.Activate()
	} else {
		action = audit.ActionChannelDeactivated
		err = channel.Deactivate()
	}
	if err != nil {
		return nil, err
	}
	if err := s.saveChannel(ctx, actor, channel, action, audit.Diff("active", !active, active)); err != nil {
		return nil, err
	}
	resp := ToChannelResponse(channel)
	return &resp, nil
}

func (s *ChannelService) saveChannel(ctx context.Context, actor shared.Actor, channel *partner.ClinicalChannel, action string, changes *audit.Changes) error {
	return s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.Channels.Save(ctx, channel); err != nil {
			return err
		}
		return s.Recorder.Record(ctx, actor, action, audit.EntityChannel, channel.ID, changes)
	})
}

// ListProviders retrieves a page of providers ordered by name
func (s *ChannelService) ListProviders(ctx context.Context, filter ListProvidersFilter) ([]ProviderResponse, int64, error) {
	f := filter.ToFilter()
	providers, err := s.Providers.FindAll(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.Providers.Count(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	out := make([]ProviderResponse, len(providers))
	for i := range providers {
		out[i] = ToProviderResponse(&providers[i])
	}
	return out, total, nil
}

// CreateProvider adds an active provider to an existing channel
func (s *ChannelService) CreateProvider(ctx context.Context, actor shared.Actor, req CreateProviderRequest) (*ProviderResponse, error) {
	if _, err := s.Channels.FindByID(ctx, req.ChannelID); err != nil {
		return nil, err
	}
	provider, err := partner.NewProvider(req.ChannelID, req.Name, req.City, req.Email, req.Phone)
	if err != nil {
		return nil, err
	}
	changes := audit.After(map[string]any{"channel_id": provider.ChannelID.String(), "name": provider.Name, "city": provider.City})
	if err := s.saveProvider(ctx, actor, provider, audit.ActionProviderCreated, changes); err != nil {
		return nil, err
	}
	resp := ToProviderResponse(provider)
	return &resp, nil
}

// UpdateProvider changes a provider's details
func (s *ChannelService) UpdateProvider(ctx context.Context, actor shared.Actor, id uuid.UUID, req UpdateProviderRequest) (*ProviderResponse, error) {
	provider, err := s.Providers.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	before := map[string]any{"name": provider.Name, "city": provider.City, "email": provider.Email, "phone": provider.Phone}
	if err := provider.Update(req.Name, req.City, req.Email, req.Phone); err != nil {
		return nil, err
	}
	changes := &audit.Changes{
		Before: before,
		After:  map[string]any{"name": provider.Name, "city": provider.City, "email": provider.Email, "phone": provider.Phone},
	}
	if err := s.saveProvider(ctx, actor, provider, audit.ActionProviderUpdated, changes); err != nil {
		return nil, err
	}
	resp := ToProviderResponse(provider)
	return &resp, nil
}

// SetProviderActive activates or deactivates a provider
func (s *ChannelService) SetProviderActive(ctx context.Context, actor shared.Actor, id uuid.UUID, active bool) (*ProviderResponse, error) {
	provider, err := s.Providers.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	action := audit.ActionProviderActivated
	if active {
		err = provider.Activate()
	} else {
		action = audit.ActionProviderDeactivated
		err = provider.Deactivate()
	}
	if err != nil {
		return nil, err
	}
	if err := s.saveProvider(ctx, actor, provider, action, audit.Diff("active", !active, active)); err != nil {
		return nil, err
	}
	resp := ToProviderResponse(provider)
	return &resp, nil
}

func (s *ChannelService) saveProvider(ctx context.Context, actor shared.Actor, provider *partner.Provider, action string, changes *audit.Changes) error {
	return s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.Providers.Save(ctx, provider); err != nil {
			return err
		}
		return s.Recorder.Record(ctx, actor, action, audit.EntityProvider, provider.ID, changes)
	})
}
