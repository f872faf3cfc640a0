package casework

import (
	"net/mail"
	"strings"
	"time"

	"github.com/pathway/backend/internal/domain/shared"
	"github.com/pathway/backend/internal/domain/shared/pii"
)

// Patient holds the identifying details captured at intake
type Patient struct {
	FirstName   string
	LastName    string
	Email       string
	Phone       string
	DateOfBirth time.Time
	City        string
	Postcode    string
}

// NewPatient validates and normalises patient details
func NewPatient(firstName, lastName, email, phone string, dob time.Time, city, postcode string) (Patient, error) {
	p := Patient{
		FirstName:   strings.TrimSpace(firstName),
		LastName:    strings.TrimSpace(lastName),
		Email:       strings.ToLower(strings.TrimSpace(email)),
		Phone:       strings.TrimSpace(phone),
		DateOfBirth: dob,
		City:        shared.NormalizeCity(city),
		Postcode:    strings.ToUpper(strings.TrimSpace(postcode)),
	}
	if p.FirstName == "" || p.LastName == "" {
		return Patient{}, shared.NewDomainError("INVALID_PATIENT_NAME", "Patient first and last name are required")
	}
	if _, err := mail.ParseAddress(p.Email); err != nil {
		return Patient{}, shared.NewDomainError("INVALID_EMAIL", "Patient email is not valid")
	}
	if p.Phone == "" {
		return Patient{}, shared.NewDomainError("INVALID_PHONE", "Patient phone is required")
	}
	if p.City == "" {
		return Patient{}, shared.NewDomainError("INVALID_CITY", "Patient city is required")
	}
	if dob.IsZero() || dob.After(time.Now()) {
		return Patient{}, shared.NewDomainError("INVALID_DATE_OF_BIRTH", "Date of birth must be in the past")
	}
	return p, nil
}

// FullName returns first and last name
func (p Patient) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// Masked returns a copy with identifiers masked. City is kept because pool
// routing is city-scoped and a city alone does not identify a patient.
func (p Patient) Masked() PatientView {
	return PatientView{
		FirstName:   pii.MaskName(p.FirstName),
		LastName:    pii.MaskName(p.LastName),
		Email:       pii.MaskEmail(p.Email),
		Phone:       pii.MaskPhone(p.Phone),
		DateOfBirth: pii.MaskDate(p.DateOfBirth),
		City:        p.City,
		Postcode:    pii.MaskPostcode(p.Postcode),
	}
}

// PatientView is the presentation form of Patient, masked or not
type PatientView struct {
	FirstName   string
	LastName    string
	Email       string
	Phone       string
	DateOfBirth string
	City        string
	Postcode    string
}

// Unmasked renders the patient as a PatientView
func (p Patient) Unmasked() PatientView {
	dob := ""
	if !p.DateOfBirth.IsZero() {
		dob = p.DateOfBirth.Format("2006-01-02")
	}
	return PatientView{
		FirstName:   p.FirstName,
		LastName:    p.LastName,
		Email:       p.Email,
		Phone:       p.Phone,
		DateOfBirth: dob,
		City:        p.City,
		Postcode:    p.Postcode,
	}
}

// View returns the unmasked or masked rendering depending on canUnmask
func (p Patient) View(canUnmask bool) PatientView {
	if canUnmask {
		return p.Unmasked()
	}
	return p.Masked()
}
