package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SedeModel is a physical studio location.
type SedeModel struct {
	SedeID       uuid.UUID `gorm:"column:sede_id;type:uuid;default:gen_random_uuid();primaryKey" json:"sede_id"`
	SedeName     string    `gorm:"column:sede_name;size:120;not null" json:"sede_name"`
	SedeAddress  *string   `gorm:"column:sede_address" json:"sede_address,omitempty"`
	SedePhone    *string   `gorm:"column:sede_phone;size:32" json:"sede_phone,omitempty"`
	SedeTimezone *string   `gorm:"column:sede_timezone;size:64" json:"sede_timezone,omitempty"`
	SedeIsActive bool      `gorm:"column:sede_is_active;not null;default:true" json:"sede_is_active"`

	SedeCreatedAt time.Time      `gorm:"column:sede_created_at;autoCreateTime" json:"sede_created_at"`
	SedeUpdatedAt time.Time      `gorm:"column:sede_updated_at;autoUpdateTime" json:"sede_updated_at"`
	SedeDeletedAt gorm.DeletedAt `gorm:"column:sede_deleted_at;index" json:"-"`
}

func (SedeModel) TableName() string { return "sedes" }
