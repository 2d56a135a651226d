package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ClientStatus string

const (
	ClientStatusActive   ClientStatus = "active"
	ClientStatusInactive ClientStatus = "inactive"
)

// ClientModel is a person receiving services. trial_used only ever goes
// false -> true; current_membership caches the plan of the latest active payment.
type ClientModel struct {
	ClientID         uuid.UUID  `gorm:"column:client_id;type:uuid;default:gen_random_uuid();primaryKey" json:"client_id"`
	ClientSedeID     *uuid.UUID `gorm:"column:client_sede_id;type:uuid;index" json:"client_sede_id,omitempty"`
	ClientFirstName  string     `gorm:"column:client_first_name;size:80;not null" json:"client_first_name"`
	ClientLastName   string     `gorm:"column:client_last_name;size:80" json:"client_last_name"`
	ClientEmail      *string    `gorm:"column:client_email;size:255;uniqueIndex:uq_clients_email,where:client_deleted_at IS NULL" json:"client_email,omitempty"`
	ClientPhone      *string    `gorm:"column:client_phone;size:32" json:"client_phone,omitempty"`
	ClientNationalID *string    `gorm:"column:client_national_id;size:32" json:"client_national_id,omitempty"`
	ClientBirthDate  *time.Time `gorm:"column:client_birth_date;type:date" json:"client_birth_date,omitempty"`
	ClientNotes      *string    `gorm:"column:client_notes" json:"client_notes,omitempty"`
	ClientAvatarURL  *string    `gorm:"column:client_avatar_url" json:"client_avatar_url,omitempty"`

	ClientStatus              ClientStatus `gorm:"column:client_status;type:varchar(16);not null;default:'inactive'" json:"client_status"`
	ClientTrialUsed           bool         `gorm:"column:client_trial_used;not null;default:false" json:"client_trial_used"`
	ClientCurrentMembershipID *uuid.UUID   `gorm:"column:client_current_membership_id;type:uuid" json:"client_current_membership_id,omitempty"`

	ClientCreatedAt time.Time      `gorm:"column:client_created_at;autoCreateTime" json:"client_created_at"`
	ClientUpdatedAt time.Time      `gorm:"column:client_updated_at;autoUpdateTime" json:"client_updated_at"`
	ClientDeletedAt gorm.DeletedAt `gorm:"column:client_deleted_at;index" json:"-"`
}

func (ClientModel) TableName() string { return "clients" }

func (m ClientModel) FullName() string {
	return strings.TrimSpace(m.ClientFirstName + " " + m.ClientLastName)
}

func (m ClientModel) EmailOrEmpty() string {
	if m.ClientEmail == nil {
		return ""
	}
	return *m.ClientEmail
}
