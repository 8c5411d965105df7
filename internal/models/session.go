package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Session is the single access/refresh token pair owned by a Credential.
type Session struct {
	ID           uint        `gorm:"primaryKey" json:"id"`
	CredentialID uint        `gorm:"uniqueIndex;not null" json:"credential_id"`
	Credential   *Credential `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	AccessToken  string      `gorm:"type:text" json:"-"`
	RefreshToken string      `gorm:"type:text" json:"-"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// Token types carried in SessionClaims.TokenType.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

type SessionClaims struct {
	jwt.RegisteredClaims
	UserID    uint   `json:"user_id"`
	Mobile    string `json:"mobile_number"`
	Role      string `json:"role,omitempty"`
	TokenType string `json:"token_type"`
}
