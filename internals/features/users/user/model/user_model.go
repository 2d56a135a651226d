package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

const (
	RoleAdmin      = "admin"
	RoleInstructor = "instructor"
	RoleClient     = "client"
)

// UserModel is a login account. Clients get a linked ClientModel; staff carry
// a sede scope (empty = every sede).
type UserModel struct {
	ID       uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserName string    `gorm:"size:50;not null" json:"user_name"`
	Email    string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Password string    `gorm:"not null" json:"-"`
	GoogleID *string   `gorm:"size:255;uniqueIndex" json:"google_id,omitempty"`
	Role     string    `gorm:"type:varchar(20);not null;default:'client'" json:"role"`

	ClientID *uuid.UUID     `gorm:"type:uuid;index" json:"client_id,omitempty"`
	SedeIDs  pq.StringArray `gorm:"type:text[]" json:"sede_ids"`

	IsActive  bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (UserModel) TableName() string {
	return "users"
}

func (u *UserModel) SetDefaultValues() {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if u.Role == "" {
		u.Role = RoleClient
	}
}

func (u UserModel) IsStaff() bool {
	return u.Role == RoleAdmin || u.Role == RoleInstructor
}

// SedeUUIDs parses the stored scope, skipping malformed entries.
func (u UserModel) SedeUUIDs() []uuid.UUID {
	out := make([]uuid.UUID, 0, len(u.SedeIDs))
	for _, s := range u.SedeIDs {
		if id, err := uuid.Parse(strings.TrimSpace(s)); err == nil {
			out = append(out, id)
		}
	}
	return out
}
