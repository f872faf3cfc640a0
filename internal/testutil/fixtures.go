package testutil

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pathway/backend/internal/domain/casework"
	"github.com/pathway/backend/internal/domain/identity"
	"github.com/pathway/backend/internal/domain/partner"
	"github.com/pathway/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// NewCase builds a new case for a patient living in city
func NewCase(t *testing.T, city string) *casework.Case {
	t.Helper()
	patient, err := casework.NewPatient("Jane", "Doe", "jane.doe@example.com", "+44 7700 900123",
		time.Date(1980, 5, 17, 0, 0, 0, 0, time.UTC), city, "ls1 4ap")
	require.NoError(t, err)
	code, err := casework.NewTrackingCode()
	require.NoError(t, err)
	c, err := casework.NewCase(code, patient, "cardiology", casework.UrgencyRoutine, "intermittent chest pain", true, "")
	require.NoError(t, err)
	c.ClearDomainEvents()
	return c
}

// NewAssignedCase builds a case already assigned to pdID
func NewAssignedCase(t *testing.T, city string, pdID uuid.UUID) *casework.Case {
	t.Helper()
	c := NewCase(t, city)
	require.NoError(t, c.AssignManually(pdID))
	c.ClearDomainEvents()
	return c
}

// NewPool builds an active pool for city
func NewPool(t *testing.T, city string) *casework.Pool {
	t.Helper()
	p, err := casework.NewPool(city+" pool", city, 24)
	require.NoError(t, err)
	return p
}

// NewPD builds an active PD based in city with a login password
func NewPD(t *testing.T, city string) *partner.PD {
	t.Helper()
	code, err := partner.NewPDCode()
	require.NoError(t, err)
	pd, err := partner.NewPD(code, "Sam", "Carter", "sam."+code+"@example.com", "+44 7700 900456", city, decimal.NewFromInt(150))
	require.NoError(t, err)
	require.NoError(t, pd.SetPassword("Portal-Passw0rd!"))
	pd.ClearDomainEvents()
	return pd
}

// NewAdminUser builds an active admin user with the given role
func NewAdminUser(t *testing.T, email string, role identity.Role) *identity.AdminUser {
	t.Helper()
	u, err := identity.NewAdminUser(email, "Test Admin", role, "Admin-Passw0rd!")
	require.NoError(t, err)
	return u
}

// AdminActor returns an admin actor holding the given permissions
func AdminActor(permissions ...string) shared.Actor {
	id := uuid.New()
	return shared.Actor{
		ID:          &id,
		Type:        shared.ActorTypeAdmin,
		Email:       "admin@example.com",
		Permissions: permissions,
		IPAddress:   "10.0.0.1",
		UserAgent:   "testutil",
		RequestID:   "req-test",
	}
}

// RoleActor returns an admin actor carrying the permissions of role
func RoleActor(role identity.Role) shared.Actor {
	return AdminActor(role.Permissions()...)
}

// PDActor returns the actor for a PD portal session
func PDActor(pd *partner.PD) shared.Actor {
	id := pd.ID
	return shared.Actor{
		ID:          &id,
		Type:        shared.ActorTypePD,
		Email:       pd.Email,
		Permissions: []string{identity.PermPDPortal},
		RequestID:   "req-test",
	}
}
