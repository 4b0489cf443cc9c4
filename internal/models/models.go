package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"      json:"id"`
	Name         string    `gorm:"size:50;not null"          json:"name"`
	Email        string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"not null"                  json:"-"`
	Admin        bool      `gorm:"not null;default:false"    json:"admin"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// Session rows never hold the raw token, only its sha256.
type Session struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"   json:"id"`
	TokenHash string    `gorm:"uniqueIndex;not null"   json:"-"`
	UserID    uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`
	CreatedAt time.Time `gorm:"not null"               json:"created_at"`
	ExpiresAt time.Time `gorm:"index;not null"         json:"expires_at"`
	IPAddress string    `json:"ip_address"`
	UserAgent string    `json:"user_agent"`
}

type Micropost struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"      json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;index;not null"  json:"user_id"`
	Content   string    `gorm:"size:140;not null"         json:"content"`
	CreatedAt time.Time `gorm:"index"                     json:"created_at"`
}

func (m *Micropost) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

func All() []any {
	return []any{&User{}, &Session{}, &Micropost{}}
}
