package partner

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/pathway/backend/internal/domain/shared"
)

// ChannelKind classifies how a clinical channel is funded
type ChannelKind string

const (
	ChannelKindNHS       ChannelKind = "nhs"
	ChannelKindPrivate   ChannelKind = "private"
	ChannelKindInsurance ChannelKind = "insurance"
	ChannelKindSelfPay   ChannelKind = "self_pay"
)

// IsValid checks if the kind is valid
func (k ChannelKind) IsValid() bool {
	switch k {
	case ChannelKindNHS, ChannelKindPrivate, ChannelKindInsurance, ChannelKindSelfPay:
		return true
	}
	return false
}

var channelCodePattern = regexp.MustCompile(`^[A-Z0-9][A-Z0-9_-]{1,31}$`)

// ClinicalChannel is a route into care that cases can be referred through
type ClinicalChannel struct {
	shared.BaseEntity
	Code        string
	Name        string
	Kind        ChannelKind
	Description string
	Active      bool
}

// NewClinicalChannel creates an active channel
func NewClinicalChannel(code, name string, kind ChannelKind, description string) (*ClinicalChannel, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if !channelCodePattern.MatchString(code) {
		return nil, shared.NewDomainError("INVALID_CHANNEL_CODE", "Channel code must be 2-32 letters, digits, dashes or underscores")
	}
	ch := &ClinicalChannel{
		BaseEntity: shared.NewBaseEntity(),
		Code:       code,
		Active:     true,
	}
	if err := ch.Update(name, kind, description); err != nil {
		return nil, err
	}
	return ch, nil
}

// Update changes the channel's descriptive fields
func (c *ClinicalChannel) Update(name string, kind ChannelKind, description string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Channel name is required")
	}
	if !kind.IsValid() {
		return shared.NewDomainError("INVALID_CHANNEL_KIND", fmt.Sprintf("Unknown channel kind %q", kind))
	}
	c.Name = name
	c.Kind = kind
	c.Description = strings.TrimSpace(description)
	c.Touch()
	return nil
}

// Activate enables the channel
func (c *ClinicalChannel) Activate() error {
	if c.Active {
		return shared.NewDomainError("INVALID_STATE", "Channel is already active")
	}
	c.Active = true
	c.Touch()
	return nil
}

// Deactivate disables the channel
func (c *ClinicalChannel) Deactivate() error {
	if !c.Active {
		return shared.NewDomainError("INVALID_STATE", "Channel is already inactive")
	}
	c.Active = false
	c.Touch()
	return nil
}

// Provider is a clinic or practitioner reachable through a channel
type Provider struct {
	shared.BaseEntity
	ChannelID uuid.UUID
	Name      string
	City      string
	Email     string
	Phone     string
	Active    bool
}

// NewProvider creates an active provider in a channel
func NewProvider(channelID uuid.UUID, name, city, email, phone string) (*Provider, error) {
	if channelID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CHANNEL", "Channel ID cannot be empty")
	}
	p := &Provider{
		BaseEntity: shared.NewBaseEntity(),
		ChannelID:  channelID,
		Active:     true,
	}
	if err := p.Update(name, city, email, phone); err != nil {
		return nil, err
	}
	return p, nil
}

// Update changes the provider's details
func (p *Provider) Update(name, city, email, phone string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Provider name is required")
	}
	city = shared.NormalizeCity(city)
	if city == "" {
		return shared.NewDomainError("INVALID_CITY", "Provider city is required")
	}
	p.Name = name
	p.City = city
	p.Email = strings.ToLower(strings.TrimSpace(email))
	p.Phone = strings.TrimSpace(phone)
	p.Touch()
	return nil
}

// Activate enables the provider
func (p *Provider) Activate() error {
	if p.Active {
		return shared.NewDomainError("INVALID_STATE", "Provider is already active")
	}
	p.Active = true
	p.Touch()
	return nil
}

// Deactivate disables the provider
func (p *Provider) Deactivate() error {
	if !p.Active {
		return shared.NewDomainError("INVALID_STATE", "Provider is already inactive")
	}
	p.Active = false
	p.Touch()
	return nil
}

// CanServe reports whether the provider may be set on a case routed to
// channelID. A nil channelID accepts any active provider.
func (p *Provider) CanServe(channelID *uuid.UUID) error {
	if !p.Active {
		return shared.NewDomainError("PROVIDER_INACTIVE", "Provider is not active")
	}
	if channelID != nil && *channelID != p.ChannelID {
		return shared.NewDomainError("PROVIDER_CHANNEL_MISMATCH", "Provider does not belong to the case's channel")
	}
	return nil
}
