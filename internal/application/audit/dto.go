package audit

import (
	"time"

	"github.com/google/uuid"
	"github.com/pathway/backend/internal/domain/audit"
	"github.com/pathway/backend/internal/domain/shared"
)

// ListLogsFilter represents filter options for the audit trail
type ListLogsFilter struct {
	ActorID    string     `form:"actor_id" binding:"omitempty,uuid"`
	ActorType  string     `form:"actor_type" binding:"omitempty,oneof=admin pd public system"`
	EntityType string     `form:"entity_type" binding:"omitempty,max=50"`
	EntityID   string     `form:"entity_id" binding:"omitempty,uuid"`
	Action     string     `form:"action" binding:"omitempty,max=100"`
	StartDate  *time.Time `form:"start_date" time_format:"2006-01-02"`
	EndDate    *time.Time `form:"end_date" time_format:"2006-01-02"`
	Page       int        `form:"page" binding:"omitempty,min=1"`
	PageSize   int        `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// ToFilter converts the request filter to a repository filter
func (f ListLogsFilter) ToFilter() shared.Filter {
	filter := shared.DefaultFilter()
	filter.Page = f.Page
	filter.PageSize = f.PageSize
	if f.ActorID != "" {
		filter.Filters["actor_id"] = f.ActorID
	}
	if f.ActorType != "" {
		filter.Filters["actor_type"] = f.ActorType
	}
	if f.EntityType != "" {
		filter.Filters["entity_type"] = f.EntityType
	}
	if f.EntityID != "" {
		filter.Filters["entity_id"] = f.EntityID
	}
	if f.Action != "" {
		filter.Filters["action"] = f.Action
	}
	if f.StartDate != nil {
		filter.Filters["start_date"] = *f.StartDate
	}
	if f.EndDate != nil {
		filter.Filters["end_date"] = *f.EndDate
	}
	return filter.Normalize()
}

// LogResponse represents an audit entry in API responses
type LogResponse struct {
	ID         uuid.UUID      `json:"id"`
	ActorID    *uuid.UUID     `json:"actor_id,omitempty"`
	ActorType  string         `json:"actor_type"`
	ActorEmail string         `json:"actor_email,omitempty"`
	Action     string         `json:"action"`
	EntityType string         `json:"entity_type"`
	EntityID   uuid.UUID      `json:"entity_id"`
	Changes    *audit.Changes `json:"changes,omitempty"`
	IPAddress  string         `json:"ip_address,omitempty"`
	UserAgent  string         `json:"user_agent,omitempty"`
	RequestID  string         `json:"request_id,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// ToLogResponse converts a domain audit entry to a response
func ToLogResponse(l *audit.Log) LogResponse {
	return LogResponse{
		ID:         l.ID,
		ActorID:    l.ActorID,
		ActorType:  string(l.ActorType),
		ActorEmail: l.ActorEmail,
		Action:     l.Action,
		EntityType: l.EntityType,
		EntityID:   l.EntityID,
		Changes:    l.Changes,
		IPAddress:  l.IPAddress,
		UserAgent:  l.UserAgent,
		RequestID:  l.RequestID,
		CreatedAt:  l.CreatedAt,
	}
}
