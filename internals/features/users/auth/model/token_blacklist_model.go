package model

import (
	"time"

	"gorm.io/gorm"
)

// TokenBlacklistModel holds HMAC'd access tokens revoked before expiry.
type TokenBlacklistModel struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Token     string         `gorm:"type:text;not null;unique" json:"-"`
	ExpiredAt time.Time      `gorm:"not null;index" json:"expired_at"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (TokenBlacklistModel) TableName() string {
	return "token_blacklist"
}
