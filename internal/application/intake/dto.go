package intake

import "time"

// SubmitRequest is the public intake form
type SubmitRequest struct {
	FirstName       string `json:"first_name" binding:"required,min=1,max=100"`
	LastName        string `json:"last_name" binding:"required,min=1,max=100"`
	Email           string `json:"email" binding:"required,email,max=254"`
	Phone           string `json:"phone" binding:"required,phone"`
	DateOfBirth     string `json:"date_of_birth" binding:"required,datetime=2006-01-02"`
	City            string `json:"city" binding:"required,min=1,max=100"`
	Postcode        string `json:"postcode" binding:"required,min=2,max=16"`
	Pathway         string `json:"pathway" binding:"required,min=1,max=100"`
	Urgency         string `json:"urgency" binding:"omitempty,oneof=routine soon urgent"`
	SymptomsSummary string `json:"symptoms_summary" binding:"max=4000"`
	Consent         bool   `json:"consent"`
	ReferralCode    string `json:"referral_code" binding:"omitempty,pdcode"`
}

// SubmitResponse is returned to the patient after intake
type SubmitResponse struct {
	TrackingCode string    `json:"tracking_code"`
	Status       string    `json:"status"`
	SubmittedAt  time.Time `json:"submitted_at"`
	Replayed     bool      `json:"replayed,omitempty"`
}

// TrackRequest carries the email used to prove ownership of a tracking code
type TrackRequest struct {
	Email string `form:"email" binding:"required,email"`
}

// TrackResponse is the public status of a case. It carries no PII.
type TrackResponse struct {
	TrackingCode string    `json:"tracking_code"`
	Status       string    `json:"status"`
	Pathway      string    `json:"pathway"`
	LastUpdated  time.Time `json:"last_updated"`
}
