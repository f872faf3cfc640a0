package export

import (
	"strconv"

	"github.com/pathway/backend/internal/domain/audit"
	"github.com/pathway/backend/internal/domain/casework"
	"github.com/pathway/backend/internal/domain/earnings"
	"github.com/pathway/backend/internal/domain/shared/pii"
)

// CaseColumns returns the case export layout. Patient identifiers and the
// symptoms summary are masked unless canUnmask is set.
func CaseColumns(canUnmask bool) []Column[*casework.Case] {
	view := func(c *casework.Case) casework.PatientView {
		return c.Patient.View(canUnmask)
	}
	symptoms := func(c *casework.Case) string {
		if canUnmask {
			return c.SymptomsSummary
		}
		return pii.MaskFreeText(c.SymptomsSummary)
	}

	return []Column[*casework.Case]{
		{"tracking_code", func(c *casework.Case) string { return c.TrackingCode }},
		{"status", func(c *casework.Case) string { return string(c.Status) }},
		{"pathway", func(c *casework.Case) string { return c.Pathway }},
		{"urgency", func(c *casework.Case) string { return string(c.Urgency) }},
		{"first_name", func(c *casework.Case) string { return view(c).FirstName }},
		{"last_name", func(c *casework.Case) string { return view(c).LastName }},
		{"email", func(c *casework.Case) string { return view(c).Email }},
		{"phone", func(c *casework.Case) string { return view(c).Phone }},
		{"date_of_birth", func(c *casework.Case) string { return view(c).DateOfBirth }},
		{"city", func(c *casework.Case) string { return c.Patient.City }},
		{"postcode", func(c *casework.Case) string { return view(c).Postcode }},
		{"symptoms_summary", symptoms},
		{"consent_given", func(c *casework.Case) string { return strconv.FormatBool(c.ConsentGiven) }},
		{"referral_code", func(c *casework.Case) string { return c.ReferralCode }},
		{"assignment_mode", func(c *casework.Case) string { return string(c.AssignmentMode) }},
		{"pd_id", func(c *casework.Case) string { return formatUUIDPtr(c.PDID) }},
		{"pool_id", func(c *casework.Case) string { return formatUUIDPtr(c.PoolID) }},
		{"channel_id", func(c *casework.Case) string { return formatUUIDPtr(c.ChannelID) }},
		{"provider_id", func(c *casework.Case) string { return formatUUIDPtr(c.ProviderID) }},
		{"created_at", func(c *casework.Case) string { return formatTime(c.CreatedAt) }},
		{"status_changed_at", func(c *casework.Case) string { return formatTime(c.StatusChangedAt) }},
		{"completed_at", func(c *casework.Case) string { return formatTimePtr(c.CompletedAt) }},
	}
}

// LedgerColumns returns the earnings export layout
func LedgerColumns() []Column[*earnings.LedgerEntry] {
	return []Column[*earnings.LedgerEntry]{
		{"id", func(e *earnings.LedgerEntry) string { return e.ID.String() }},
		{"pd_id", func(e *earnings.LedgerEntry) string { return e.PDID.String() }},
		{"case_id", func(e *earnings.LedgerEntry) string { return formatUUIDPtr(e.CaseID) }},
		{"kind", func(e *earnings.LedgerEntry) string { return string(e.Kind) }},
		{"amount", func(e *earnings.LedgerEntry) string { return e.Amount.StringFixed(2) }},
		{"currency", func(e *earnings.LedgerEntry) string { return e.Currency }},
		{"status", func(e *earnings.LedgerEntry) string { return string(e.Status) }},
		{"description", func(e *earnings.LedgerEntry) string { return e.Description }},
		{"approved_at", func(e *earnings.LedgerEntry) string { return formatTimePtr(e.ApprovedAt) }},
		{"paid_at", func(e *earnings.LedgerEntry) string { return formatTimePtr(e.PaidAt) }},
		{"payout_reference", func(e *earnings.LedgerEntry) string { return e.PayoutReference }},
		{"void_reason", func(e *earnings.LedgerEntry) string { return e.VoidReason }},
		{"created_at", func(e *earnings.LedgerEntry) string { return formatTime(e.CreatedAt) }},
	}
}

// AuditColumns returns the audit log export layout
func AuditColumns() []Column[*audit.Log] {
	return []Column[*audit.Log]{
		{"id", func(l *audit.Log) string { return l.ID.String() }},
		{"created_at", func(l *audit.Log) string { return formatTime(l.CreatedAt) }},
		{"actor_type", func(l *audit.Log) string { return string(l.ActorType) }},
		{"actor_id", func(l *audit.Log) string { return formatUUIDPtr(l.ActorID) }},
		{"actor_email", func(l *audit.Log) string { return l.ActorEmail }},
		{"action", func(l *audit.Log) string { return l.Action }},
		{"entity_type", func(l *audit.Log) string { return l.EntityType }},
		{"entity_id", func(l *audit.Log) string { return l.EntityID.String() }},
		{"changes", func(l *audit.Log) string { return l.ChangesJSON() }},
		{"ip_address", func(l *audit.Log) string { return l.IPAddress }},
		{"request_id", func(l *audit.Log) string { return l.RequestID }},
	}
}
