package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Session is a browser session backed by a hosted-backend sign-in.
// Backend tokens are stored encrypted; the cookie only carries Token.
type Session struct {
	ID        string    `gorm:"primarykey;type:varchar(36)" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserID    string `gorm:"type:varchar(36);not null;index" json:"user_id"` // Backend identity id
	Email     string `gorm:"type:varchar(255)" json:"email"`
	Token     string `gorm:"uniqueIndex;not null;type:varchar(128)" json:"-"`
	IPAddress string `gorm:"type:varchar(45)" json:"ip_address"`
	UserAgent string `gorm:"type:text" json:"user_agent"`

	AccessTokenEnc  string    `gorm:"type:text;not null" json:"-"`
	RefreshTokenEnc string    `gorm:"type:text" json:"-"`
	AccessExpiresAt time.Time `json:"access_expires_at"`
	ExpiresAt       time.Time `gorm:"not null;index" json:"expires_at"`
}

// TableName specifies the table name for Session model
func (Session) TableName() string {
	return "sessions"
}

// BeforeCreate generates UUID
func (s *Session) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	return nil
}

// IsExpired checks if the session has expired
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// AccessTokenStale reports whether the backend access token should be refreshed.
// A small skew avoids sending a token that expires in flight.
func (s *Session) AccessTokenStale(now time.Time) bool {
	return !s.AccessExpiresAt.IsZero() && now.Add(30*time.Second).After(s.AccessExpiresAt)
}
