package partner

import (
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pathway/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// PDCodePrefix is prepended to every PD referral code
const PDCodePrefix = "PD"

// PDCodeLength is the number of random symbols after the prefix
const PDCodeLength = 6

// NewPDCode generates a referral code such as PD-7KQ2M9
func NewPDCode() (string, error) {
	return shared.NewCode(PDCodePrefix, PDCodeLength)
}

// IsPDCode reports whether s is shaped like a PD referral code
func IsPDCode(s string) bool {
	return shared.IsCode(strings.ToUpper(strings.TrimSpace(s)), PDCodePrefix, PDCodeLength)
}

// PDStatus represents the status of a Pathway Developer
type PDStatus string

const (
	PDStatusActive     PDStatus = "active"
	PDStatusSuspended  PDStatus = "suspended"
	PDStatusOffboarded PDStatus = "offboarded"
)

// IsValid checks if the status is valid
func (s PDStatus) IsValid() bool {
	switch s {
	case PDStatusActive, PDStatusSuspended, PDStatusOffboarded:
		return true
	}
	return false
}

// String returns the string representation
func (s PDStatus) String() string {
	return string(s)
}

// PD is a Pathway Developer: an independent partner who refers patients and
// works the cases assigned to them.
type PD struct {
	shared.BaseAggregateRoot
	shared.Credential
	Code          string
	FirstName     string
	LastName      string
	Email         string
	Phone         string
	City          string
	Status        PDStatus
	FeePerCase    decimal.Decimal
	StatusReason  string
	ApplicationID *uuid.UUID
}

// NewPD creates an active PD
func NewPD(code, firstName, lastName, email, phone, city string, fee decimal.Decimal) (*PD, error) {
	if !IsPDCode(code) {
		return nil, shared.NewDomainError("INVALID_PD_CODE", "PD code is malformed")
	}
	pd := &PD{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              strings.ToUpper(code),
		Status:            PDStatusActive,
	}
	if err := pd.UpdateProfile(firstName, lastName, email, phone, city); err != nil {
		return nil, err
	}
	if err := pd.SetFee(fee); err != nil {
		return nil, err
	}
	pd.AddDomainEvent(NewPDCreatedEvent(pd))
	return pd, nil
}

// FullName returns first and last name
func (p *PD) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// UpdateProfile replaces the PD's contact details
func (p *PD) UpdateProfile(firstName, lastName, email, phone, city string) error {
	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)
	if firstName == "" || lastName == "" {
		return shared.NewDomainError("INVALID_NAME", "First and last name are required")
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return shared.NewDomainError("INVALID_EMAIL", "Email is not valid")
	}
	city = shared.NormalizeCity(city)
	if city == "" {
		return shared.NewDomainError("INVALID_CITY", "City is required")
	}
	p.FirstName = firstName
	p.LastName = lastName
	p.Email = email
	p.Phone = strings.TrimSpace(phone)
	p.City = city
	p.Touch()
	return nil
}

// SetFee sets the fee accrued per completed case
func (p *PD) SetFee(fee decimal.Decimal) error {
	if fee.IsNegative() {
		return shared.NewDomainError("INVALID_FEE", "Fee per case cannot be negative")
	}
	p.FeePerCase = fee
	p.Touch()
	return nil
}

// Suspend stops the PD from taking new work
func (p *PD) Suspend(reason string) error {
	if p.Status != PDStatusActive {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot suspend a %s PD", p.Status))
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return shared.NewDomainError("REASON_REQUIRED", "A reason is required to suspend a PD")
	}
	return p.changeStatus(PDStatusSuspended, reason)
}

// Reactivate returns a suspended PD to active
func (p *PD) Reactivate() error {
	if p.Status != PDStatusSuspended {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot reactivate a %s PD", p.Status))
	}
	return p.changeStatus(PDStatusActive, "")
}

// Offboard ends the partnership. It is terminal.
func (p *PD) Offboard(reason string) error {
	if p.Status == PDStatusOffboarded {
		return shared.NewDomainError("INVALID_STATE", "PD is already offboarded")
	}
	return p.changeStatus(PDStatusOffboarded, strings.TrimSpace(reason))
}

func (p *PD) changeStatus(to PDStatus, reason string) error {
	from := p.Status
	p.Status = to
	p.StatusReason = reason
	p.Touch()
	p.AddDomainEvent(NewPDStatusChangedEvent(p, from))
	return nil
}

// IsActive reports whether the PD may be assigned, claim or log in
func (p *PD) IsActive() bool {
	return p.Status == PDStatusActive
}

// EnsureActive returns PD_NOT_ACTIVE unless the PD is active
func (p *PD) EnsureActive() error {
	if !p.IsActive() {
		return shared.NewDomainError("PD_NOT_ACTIVE", fmt.Sprintf("PD %s is %s", p.Code, p.Status))
	}
	return nil
}

// CanClaimIn reports whether the PD may claim from a pool in city
func (p *PD) CanClaimIn(city string) bool {
	return p.IsActive() && shared.SameCity(p.City, city)
}

// ResetPassword sets a generated one-time password and returns it
func (p *PD) ResetPassword() (string, error) {
	temp, err := shared.NewTemporaryPassword()
	if err != nil {
		return "", err
	}
	if err := p.SetPassword(temp); err != nil {
		return "", err
	}
	p.Unlock()
	p.Touch()
	return temp, nil
}

// LoginAllowed checks status and lockout before a password is verified
func (p *PD) LoginAllowed(now time.Time) error {
	if p.IsLocked(now) {
		return shared.NewDomainError("ACCOUNT_LOCKED", "Account is temporarily locked")
	}
	if !p.IsActive() {
		return shared.NewDomainError("PD_NOT_ACTIVE", "PD account is not active")
	}
	return nil
}
