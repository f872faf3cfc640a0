package shared

import "github.com/google/uuid"

// ActorType identifies who performed an action
type ActorType string

const (
	ActorTypeAdmin  ActorType = "admin"
	ActorTypePD     ActorType = "pd"
	ActorTypePublic ActorType = "public"
	ActorTypeSystem ActorType = "system"
)

// IsValid checks if the actor type is valid
func (t ActorType) IsValid() bool {
	switch t {
	case ActorTypeAdmin, ActorTypePD, ActorTypePublic, ActorTypeSystem:
		return true
	}
	return false
}

// Actor is the authenticated principal behind a request, or the system
// itself for scheduled work.
type Actor struct {
	ID          *uuid.UUID
	Type        ActorType
	Email       string
	Permissions []string
	IPAddress   string
	UserAgent   string
	RequestID   string
}

// SystemActor returns the actor used by background jobs
func SystemActor() Actor {
	return Actor{Type: ActorTypeSystem, Email: "system"}
}

// PublicActor returns the actor for unauthenticated requests
func PublicActor(ip, userAgent, requestID string) Actor {
	return Actor{Type: ActorTypePublic, IPAddress: ip, UserAgent: userAgent, RequestID: requestID}
}

// HasPermission reports whether the actor holds the permission code
func (a Actor) HasPermission(code string) bool {
	for _, p := range a.Permissions {
		if p == code {
			return true
		}
	}
	return false
}

// IDOrNil returns the actor ID or uuid.Nil
func (a Actor) IDOrNil() uuid.UUID {
	if a.ID == nil {
		return uuid.Nil
	}
	return *a.ID
}
