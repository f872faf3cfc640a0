package persistence

import (
	"strings"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// CaseSortFields contains allowed sort fields for cases
var CaseSortFields = map[string]bool{
	"created_at":        true,
	"updated_at":        true,
	"tracking_code":     true,
	"status":            true,
	"status_changed_at": true,
	"urgency":           true,
	"city":              true,
	"pathway":           true,
	"assigned_at":       true,
	"pooled_at":         true,
	"completed_at":      true,
}

// EscalationSortFields contains allowed sort fields for escalations
var EscalationSortFields = map[string]bool{
	"created_at":  true,
	"updated_at":  true,
	"priority":    true,
	"status":      true,
	"resolved_at": true,
}

// ComplianceFlagSortFields contains allowed sort fields for compliance flags
var ComplianceFlagSortFields = map[string]bool{
	"created_at": true,
	"updated_at": true,
	"severity":   true,
	"status":     true,
	"type":       true,
	"cleared_at": true,
}

// ContactLogSortFields contains allowed sort fields for contact logs
var ContactLogSortFields = map[string]bool{
	"created_at":   true,
	"contacted_at": true,
	"method":       true,
	"outcome":      true,
}

// PoolSortFields contains allowed sort fields for pools
var PoolSortFields = map[string]bool{
	"created_at": true,
	"updated_at": true,
	"name":       true,
	"city":       true,
	"sla_hours":  true,
}

// PDSortFields contains allowed sort fields for PDs
var PDSortFields = map[string]bool{
	"created_at":    true,
	"updated_at":    true,
	"code":          true,
	"last_name":     true,
	"email":         true,
	"city":          true,
	"status":        true,
	"fee_per_case":  true,
	"last_login_at": true,
}

// ApplicationSortFields contains allowed sort fields for PD applications
var ApplicationSortFields = map[string]bool{
	"created_at":   true,
	"updated_at":   true,
	"email":        true,
	"status":       true,
	"submitted_at": true,
	"reviewed_at":  true,
}

// ChannelSortFields contains allowed sort fields for clinical channels
var ChannelSortFields = map[string]bool{
	"created_at": true,
	"updated_at": true,
	"code":       true,
	"name":       true,
	"kind":       true,
}

// ProviderSortFields contains allowed sort fields for providers
var ProviderSortFields = map[string]bool{
	"created_at": true,
	"updated_at": true,
	"name":       true,
	"city":       true,
}

// LedgerSortFields contains allowed sort fields for earnings ledger entries
var LedgerSortFields = map[string]bool{
	"created_at":  true,
	"updated_at":  true,
	"amount":      true,
	"status":      true,
	"kind":        true,
	"approved_at": true,
	"paid_at":     true,
}

// AdminUserSortFields contains allowed sort fields for admin users
var AdminUserSortFields = map[string]bool{
	"created_at":    true,
	"updated_at":    true,
	"email":         true,
	"name":          true,
	"role":          true,
	"status":        true,
	"last_login_at": true,
}

// AuditLogSortFields contains allowed sort fields for audit logs
var AuditLogSortFields = map[string]bool{
	"created_at":  true,
	"action":      true,
	"entity_type": true,
	"actor_type":  true,
}
