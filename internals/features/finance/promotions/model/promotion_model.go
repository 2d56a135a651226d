package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PromotionModel grants a fixed class quota per client over a date window.
type PromotionModel struct {
	PromotionID               uuid.UUID  `gorm:"column:promotion_id;type:uuid;default:gen_random_uuid();primaryKey" json:"promotion_id"`
	PromotionName             string     `gorm:"column:promotion_name;size:120;not null" json:"promotion_name"`
	PromotionDescription      *string    `gorm:"column:promotion_description" json:"promotion_description,omitempty"`
	PromotionClassesPerClient int        `gorm:"column:promotion_classes_per_client;not null" json:"promotion_classes_per_client"`
	PromotionPrice            int64      `gorm:"column:promotion_price;not null;default:0" json:"promotion_price"`
	PromotionSedeID           *uuid.UUID `gorm:"column:promotion_sede_id;type:uuid" json:"promotion_sede_id,omitempty"`
	PromotionStartDate        time.Time  `gorm:"column:promotion_start_date;type:date;not null" json:"promotion_start_date"`
	PromotionEndDate          time.Time  `gorm:"column:promotion_end_date;type:date;not null" json:"promotion_end_date"`
	PromotionIsActive         bool       `gorm:"column:promotion_is_active;not null;default:true" json:"promotion_is_active"`

	PromotionCreatedAt time.Time      `gorm:"column:promotion_created_at;autoCreateTime" json:"promotion_created_at"`
	PromotionUpdatedAt time.Time      `gorm:"column:promotion_updated_at;autoUpdateTime" json:"promotion_updated_at"`
	PromotionDeletedAt gorm.DeletedAt `gorm:"column:promotion_deleted_at;index" json:"-"`
}

func (PromotionModel) TableName() string { return "promotions" }

// PromotionInstanceModel is one run of a promotion for a set of clients.
type PromotionInstanceModel struct {
	PromotionInstanceID          uuid.UUID `gorm:"column:promotion_instance_id;type:uuid;default:gen_random_uuid();primaryKey" json:"promotion_instance_id"`
	PromotionInstancePromotionID uuid.UUID `gorm:"column:promotion_instance_promotion_id;type:uuid;not null;index" json:"promotion_instance_promotion_id"`
	PromotionInstanceStartDate   time.Time `gorm:"column:promotion_instance_start_date;type:date;not null" json:"promotion_instance_start_date"`
	PromotionInstanceEndDate     time.Time `gorm:"column:promotion_instance_end_date;type:date;not null" json:"promotion_instance_end_date"`
	PromotionInstanceNotes       *string   `gorm:"column:promotion_instance_notes" json:"promotion_instance_notes,omitempty"`

	PromotionInstanceCreatedAt time.Time      `gorm:"column:promotion_instance_created_at;autoCreateTime" json:"promotion_instance_created_at"`
	PromotionInstanceUpdatedAt time.Time      `gorm:"column:promotion_instance_updated_at;autoUpdateTime" json:"promotion_instance_updated_at"`
	PromotionInstanceDeletedAt gorm.DeletedAt `gorm:"column:promotion_instance_deleted_at;index" json:"-"`
}

func (PromotionInstanceModel) TableName() string { return "promotion_instances" }

// ActiveOn: start_date <= day <= end_date.
func (m PromotionInstanceModel) ActiveOn(day time.Time) bool {
	return !day.Before(m.PromotionInstanceStartDate) && !day.After(m.PromotionInstanceEndDate)
}

// PromotionInstanceClientModel links clients to an instance.
type PromotionInstanceClientModel struct {
	PromotionInstanceClientInstanceID uuid.UUID `gorm:"column:promotion_instance_client_instance_id;type:uuid;primaryKey" json:"promotion_instance_id"`
	PromotionInstanceClientClientID   uuid.UUID `gorm:"column:promotion_instance_client_client_id;type:uuid;primaryKey;index" json:"client_id"`
	PromotionInstanceClientCreatedAt  time.Time `gorm:"column:promotion_instance_client_created_at;autoCreateTime" json:"created_at"`
}

func (PromotionInstanceClientModel) TableName() string { return "promotion_instance_clients" }
