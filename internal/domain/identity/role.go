package identity

import (
	"fmt"
	"slices"
	"strings"

	"github.com/pathway/backend/internal/domain/shared"
)

// Permission codes follow the resource:action pattern
const (
	PermCasesRead          = "cases:read"
	PermCasesWrite         = "cases:write"
	PermCasesAssign        = "cases:assign"
	PermCasesExport        = "cases:export"
	PermPIIUnmask          = "pii:unmask"
	PermPDsRead            = "pds:read"
	PermPDsWrite           = "pds:write"
	PermApplicationsReview = "applications:review"
	PermChannelsRead       = "channels:read"
	PermChannelsWrite      = "channels:write"
	PermPoolsWrite         = "pools:write"
	PermEarningsRead       = "earnings:read"
	PermEarningsWrite      = "earnings:write"
	PermEarningsExport     = "earnings:export"
	PermEscalationsWrite   = "escalations:write"
	PermComplianceWrite    = "compliance:write"
	PermAuditRead          = "audit:read"
	PermAuditExport        = "audit:export"
	PermUsersManage        = "users:manage"

	// PermPDPortal is the only permission carried by PD sessions
	PermPDPortal = "pd:portal"
)

// AllPermissions returns every admin permission code
func AllPermissions() []string {
	return []string{
		PermCasesRead, PermCasesWrite, PermCasesAssign, PermCasesExport,
		PermPIIUnmask,
		PermPDsRead, PermPDsWrite, PermApplicationsReview,
		PermChannelsRead, PermChannelsWrite, PermPoolsWrite,
		PermEarningsRead, PermEarningsWrite, PermEarningsExport,
		PermEscalationsWrite, PermComplianceWrite,
		PermAuditRead, PermAuditExport,
		PermUsersManage,
	}
}

// Role is a fixed admin role
type Role string

const (
	RoleSuperAdmin  Role = "super_admin"
	RoleAdmin       Role = "admin"
	RoleCaseManager Role = "case_manager"
	RoleFinance     Role = "finance"
	RoleCompliance  Role = "compliance"
	RoleViewer      Role = "viewer"
)

var rolePermissions = map[Role][]string{
	RoleSuperAdmin: AllPermissions(),
	RoleAdmin: {
		PermCasesRead, PermCasesWrite, PermCasesAssign, PermCasesExport,
		PermPIIUnmask,
		PermPDsRead, PermPDsWrite, PermApplicationsReview,
		PermChannelsRead, PermChannelsWrite, PermPoolsWrite,
		PermEarningsRead, PermEarningsWrite, PermEarningsExport,
		PermEscalationsWrite, PermComplianceWrite,
		PermAuditRead,
	},
	RoleCaseManager: {
		PermCasesRead, PermCasesWrite, PermCasesAssign,
		PermPIIUnmask,
		PermPDsRead, PermChannelsRead,
		PermEscalationsWrite,
	},
	RoleFinance: {
		PermCasesRead,
		PermPDsRead,
		PermEarningsRead, PermEarningsWrite, PermEarningsExport,
	},
	RoleCompliance: {
		PermCasesRead, PermCasesExport,
		PermPIIUnmask,
		PermPDsRead, PermApplicationsReview, PermChannelsRead,
		PermEscalationsWrite, PermComplianceWrite,
		PermAuditRead, PermAuditExport,
	},
	RoleViewer: {
		PermCasesRead, PermPDsRead, PermChannelsRead, PermEarningsRead,
	},
}

// AllRoles returns the roles in descending order of privilege
func AllRoles() []Role {
	return []Role{RoleSuperAdmin, RoleAdmin, RoleCaseManager, RoleFinance, RoleCompliance, RoleViewer}
}

// ParseRole validates a role name
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.IsValid() {
		return "", shared.NewDomainError("INVALID_ROLE", fmt.Sprintf("Unknown role %q", s))
	}
	return r, nil
}

// IsValid checks if the role is known
func (r Role) IsValid() bool {
	_, ok := rolePermissions[r]
	return ok
}

// String returns the string representation
func (r Role) String() string {
	return string(r)
}

// Permissions returns a copy of the role's permission codes
func (r Role) Permissions() []string {
	return slices.Clone(rolePermissions[r])
}

// Has reports whether the role grants the permission
func (r Role) Has(code string) bool {
	return slices.Contains(rolePermissions[r], code)
}
