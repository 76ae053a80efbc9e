package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/newscoin/newscoin/pkg/api"
)

func TestStruct_RegisterRequest(t *testing.T) {
	tests := []struct {
		name    string
		errMsg  string
		req     api.RegisterRequest
		wantErr bool
	}{
		{
			name: "valid without referral",
			req:  api.RegisterRequest{FullName: "Reader", Email: "reader@example.com", Password: "secret1"},
		},
		{
			name: "valid with referral",
			req:  api.RegisterRequest{FullName: "Reader", Email: "reader@example.com", Password: "secret1", ReferredByCode: "ABCD1234"},
		},
		{
			name:    "missing name",
			req:     api.RegisterRequest{Email: "reader@example.com", Password: "secret1"},
			wantErr: true,
			errMsg:  "fullName is required",
		},
		{
			name:    "bad email",
			req:     api.RegisterRequest{FullName: "Reader", Email: "reader.example.com", Password: "secret1"},
			wantErr: true,
			errMsg:  "email must be a valid email address",
		},
		{
			name:    "short password",
			req:     api.RegisterRequest{FullName: "Reader", Email: "reader@example.com", Password: "12345"},
			wantErr: true,
			errMsg:  "password must be at least 6 characters",
		},
		{
			name:    "referral wrong length",
			req:     api.RegisterRequest{FullName: "Reader", Email: "reader@example.com", Password: "secret1", ReferredByCode: "ABC"},
			wantErr: true,
			errMsg:  "referredByCode must be exactly 8 characters",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(tt.req)
			if tt.wantErr {
				assert.EqualError(t, err, tt.errMsg)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestStruct_VerifyEmailOTP(t *testing.T) {
	assert.NoError(t, Struct(api.VerifyEmailRequest{Email: "a@b.co", OTP: "123456"}))
	assert.EqualError(t, Struct(api.VerifyEmailRequest{Email: "a@b.co", OTP: "12345"}), "otp must be exactly 6 characters")
	assert.EqualError(t, Struct(api.VerifyEmailRequest{Email: "a@b.co", OTP: "12a456"}), "otp must contain only digits")
}

func TestVar(t *testing.T) {
	assert.NoError(t, Var("deliveryEmail", "gift@example.com", "required,email"))
	assert.EqualError(t, Var("deliveryEmail", "gift", "required,email"), "deliveryEmail must be a valid email address")
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "reader@example.com", NormalizeEmail("  Reader@Example.COM "))
	assert.Equal(t, "ABCD1234", NormalizeReferralCode(" abcd1234 "))
}
