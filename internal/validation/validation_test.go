package validation

import (
	"testing"

	apperrors "insurecow/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasSpecialChar(t *testing.T) {
	assert.True(t, HasSpecialChar("abc!"))
	assert.True(t, HasSpecialChar("p@ss"))
	assert.False(t, HasSpecialChar("abcdef12"))
	assert.False(t, HasSpecialChar(""))
}

func TestMobile(t *testing.T) {
	tests := []struct {
		mobile string
		valid  bool
	}{
		{"01712345678", true},
		{"+8801712345678", true},
		{"1234567", true},
		{"123456", false},
		{"1234567890123456", false},
		{"123456789012345", true},
		{"+12345678901234", true},
		{"+123456789012345", false},
		{"+123456", false},
		{"0171-234567", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.mobile, func(t *testing.T) {
			assert.Equal(t, tt.valid, IsMobile(tt.mobile))
		})
	}
}

func TestValidatorPassword(t *testing.T) {
	v := New()
	v.Password("password", "short!")
	assert.Equal(t, "must be at least 8 characters long", v.Errors["password"])

	v = New()
	v.Password("password", "longenough")
	assert.Equal(t, "must contain at least one special character", v.Errors["password"])

	v = New()
	v.Password("password", "Secret123!")
	assert.NoError(t, v.Err())
}

func TestValidatorErr(t *testing.T) {
	v := New()
	v.Required("mobile_number", "  ")
	v.Mobile("mobile_number", "x")

	err := v.Err()
	require.Error(t, err)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
	assert.Equal(t, "this field is required", apperrors.As(err).Fields["mobile_number"])
}

type signupInput struct {
	Mobile   string `json:"mobile_number" validate:"required,mobile"`
	Password string `json:"password" validate:"required,password"`
	RoleID   uint   `json:"role_id" validate:"required"`
}

func TestStruct(t *testing.T) {
	require.NoError(t, Struct(signupInput{Mobile: "01712345678", Password: "Secret123!", RoleID: 1}))

	err := Struct(signupInput{Mobile: "abc", Password: "weak"})
	require.Error(t, err)
	fields := apperrors.As(err).Fields
	assert.Equal(t, "must be a valid mobile number", fields["mobile_number"])
	assert.Contains(t, fields["password"], "special character")
	assert.Equal(t, "this field is required", fields["role_id"])
}

func TestStructAmount(t *testing.T) {
	type claim struct {
		Amount float64 `json:"amount_claimed" validate:"gt=0"`
	}
	require.NoError(t, Struct(claim{Amount: 1}))
	err := Struct(claim{})
	require.Error(t, err)
	assert.Equal(t, "must be greater than 0", apperrors.As(err).Fields["amount_claimed"])
}
