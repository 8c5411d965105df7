package models

import "time"

// OTPCategory is the business purpose an OTP was issued for.
type OTPCategory string

const (
	OTPCategoryRegistration  OTPCategory = "registration"
	OTPCategoryPasswordReset OTPCategory = "password_reset"
	OTPCategoryLogin         OTPCategory = "login"
)

// Valid reports whether c is one of the known categories.
func (c OTPCategory) Valid() bool {
	switch c {
	case OTPCategoryRegistration, OTPCategoryPasswordReset, OTPCategoryLogin:
		return true
	}
	return false
}

// OTPLimit configures how many codes a mobile may request per category within TimeWindow minutes.
type OTPLimit struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	Category    OTPCategory `gorm:"size:20;uniqueIndex;not null" json:"category"`
	MaxAttempts int         `gorm:"not null;default:5" json:"max_attempts"`
	TimeWindow  int         `gorm:"not null;default:5" json:"time_window"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// Window returns TimeWindow as a duration.
func (l OTPLimit) Window() time.Duration {
	return time.Duration(l.TimeWindow) * time.Minute
}

// Used when a category has no OTPLimit row.
const (
	DefaultOTPMaxAttempts = 5
	DefaultOTPTimeWindow  = 5
)

// DefaultOTPLimits are seeded by admin_seed.
func DefaultOTPLimits() []OTPLimit {
	return []OTPLimit{
		{Category: OTPCategoryRegistration, MaxAttempts: DefaultOTPMaxAttempts, TimeWindow: DefaultOTPTimeWindow},
		{Category: OTPCategoryPasswordReset, MaxAttempts: DefaultOTPMaxAttempts, TimeWindow: DefaultOTPTimeWindow},
		{Category: OTPCategoryLogin, MaxAttempts: DefaultOTPMaxAttempts, TimeWindow: DefaultOTPTimeWindow},
	}
}

// OTPRequestLog is the append-only audit trail of issued codes.
type OTPRequestLog struct {
	ID           uint        `gorm:"primaryKey" json:"id"`
	MobileNumber string      `gorm:"size:15;not null;index:idx_otp_log_mobile_category" json:"mobile_number"`
	OTPCode      string      `gorm:"size:6;not null" json:"-"`
	Category     OTPCategory `gorm:"size:20;not null;index:idx_otp_log_mobile_category" json:"category"`
	IPAddress    string      `gorm:"size:45" json:"ip_address"`
	UserAgent    string      `json:"user_agent"`
	CreatedAt    time.Time   `gorm:"index" json:"created_at"`
}

// OTPVerification tracks whether the code of one OTPRequestLog row has been used.
type OTPVerification struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	OTPRequestLogID uint           `gorm:"uniqueIndex;not null" json:"otp_request_log_id"`
	OTPRequestLog   *OTPRequestLog `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	IsVerified      bool           `gorm:"default:false" json:"is_verified"`
	VerifiedAt      *time.Time     `json:"verified_at"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// PendingRegistration holds an unconfirmed signup until it is promoted to a Credential.
type PendingRegistration struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	MobileNumber    string    `gorm:"size:15;uniqueIndex;not null" json:"mobile_number"`
	RoleID          *uint     `json:"role_id"`
	Role            *Role     `gorm:"foreignKey:RoleID;constraint:OnDelete:SET NULL" json:"-"`
	OTP             string    `gorm:"size:6;not null" json:"-"`
	OTPRequestCount int       `gorm:"not null;default:0" json:"otp_request_count"`
	IsVerified      bool      `gorm:"default:false" json:"is_verified"`
	Latitude        *float64  `json:"latitude,omitempty"`
	Longitude       *float64  `json:"longitude,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
