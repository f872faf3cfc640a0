package middleware

import (
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type validationPatient struct {
	Email string `json:"email" binding:"required,email"`
	Phone string `json:"phone" binding:"required,phone"`
}

type validationRequest struct {
	Patient      validationPatient `json:"patient"`
	ReferralCode string            `json:"referral_code" binding:"omitempty,pdcode"`
	TrackingCode string            `form:"code" binding:"omitempty,trk"`
	Notes        string            `json:"notes" binding:"max=5"`
}

func TestSetupValidator_CustomTags(t *testing.T) {
	require.NoError(t, SetupValidator())
	require.NoError(t, SetupValidator())

	valid := validationRequest{
		Patient:      validationPatient{Email: "jo@example.com", Phone: "+44 7700 900123"},
		ReferralCode: "PD-7KQ2M9",
		TrackingCode: "TRK-7KQ2M9XD",
	}
	assert.NoError(t, binding.Validator.ValidateStruct(&valid))

	tests := []struct {
		name  string
		edit  func(*validationRequest)
		field string
		tag   string
	}{
		{"bad phone", func(r *validationRequest) { r.Patient.Phone = "call me" }, "patient.phone", "phone"},
		{"bad referral code", func(r *validationRequest) { r.ReferralCode = "PD-0000" }, "referral_code", "pdcode"},
		{"bad tracking code", func(r *validationRequest) { r.TrackingCode = "TRK-123" }, "code", "trk"},
		{"missing email", func(r *validationRequest) { r.Patient.Email = "" }, "patient.email", "required"},
		{"too long", func(r *validationRequest) { r.Notes = "toolong" }, "notes", "max"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.edit(&req)
			details := ValidationDetails(binding.Validator.ValidateStruct(&req))
			require.Len(t, details, 1)
			assert.Equal(t, tt.field, details[0].Field)
			assert.Equal(t, tt.tag, details[0].Tag)
			assert.NotEmpty(t, details[0].Message)
		})
	}
}

func TestValidationDetails_NonValidationError(t *testing.T) {
	assert.Nil(t, ValidationDetails(assert.AnError))
	assert.Nil(t, ValidationDetails(nil))
}

func TestValidationMessages(t *testing.T) {
	require.NoError(t, SetupValidator())
	type sized struct {
		Name  string `json:"name" binding:"min=3"`
		Count int    `json:"count" binding:"min=3"`
	}
	details := ValidationDetails(binding.Validator.ValidateStruct(&sized{Name: "ab", Count: 1}))
	require.Len(t, details, 2)
	assert.Equal(t, "Must be at least 3 characters", details[0].Message)
	assert.Equal(t, "Must be at least 3", details[1].Message)
}
