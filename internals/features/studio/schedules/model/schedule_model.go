package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"studioku_backend/internals/helpers/dbtime"
)

type ClassType string

const (
	ClassTypeReformer   ClassType = "reformer"
	ClassTypeMat        ClassType = "mat"
	ClassTypeBarre      ClassType = "barre"
	ClassTypeTower      ClassType = "tower"
	ClassTypeIndividual ClassType = "individual"
)

// ScheduleModel is a recurring weekly slot; a booking instantiates it on a date.
type ScheduleModel struct {
	ScheduleID              uuid.UUID  `gorm:"column:schedule_id;type:uuid;default:gen_random_uuid();primaryKey" json:"schedule_id"`
	ScheduleSedeID          uuid.UUID  `gorm:"column:schedule_sede_id;type:uuid;not null;index:idx_schedules_sede_day,priority:1" json:"schedule_sede_id"`
	ScheduleDayOfWeek       int        `gorm:"column:schedule_day_of_week;not null;index:idx_schedules_sede_day,priority:2" json:"schedule_day_of_week"` // ISO 1=Mon..7=Sun
	ScheduleStartTime       dbtime.Tod `gorm:"column:schedule_start_time;type:time;not null" json:"schedule_start_time"`
	ScheduleDurationMinutes int        `gorm:"column:schedule_duration_minutes;not null;default:50" json:"schedule_duration_minutes"`
	ScheduleClassType       ClassType  `gorm:"column:schedule_class_type;type:varchar(32);not null" json:"schedule_class_type"`
	ScheduleCapacity        int        `gorm:"column:schedule_capacity;not null" json:"schedule_capacity"`
	ScheduleInstructorID    *uuid.UUID `gorm:"column:schedule_instructor_id;type:uuid" json:"schedule_instructor_id,omitempty"`
	ScheduleIsActive        bool       `gorm:"column:schedule_is_active;not null;default:true" json:"schedule_is_active"`

	ScheduleCreatedAt time.Time      `gorm:"column:schedule_created_at;autoCreateTime" json:"schedule_created_at"`
	ScheduleUpdatedAt time.Time      `gorm:"column:schedule_updated_at;autoUpdateTime" json:"schedule_updated_at"`
	ScheduleDeletedAt gorm.DeletedAt `gorm:"column:schedule_deleted_at;index" json:"-"`
}

func (ScheduleModel) TableName() string { return "schedules" }

func (m ScheduleModel) IsIndividual() bool {
	return m.ScheduleClassType == ClassTypeIndividual
}

// NormalizeCapacity forces individual classes to a single seat.
func NormalizeCapacity(classType ClassType, capacity int) int {
	if classType == ClassTypeIndividual {
		return 1
	}
	return capacity
}

// Normalize applies NormalizeCapacity in place; call before create/update.
func (m *ScheduleModel) Normalize() {
	m.ScheduleCapacity = NormalizeCapacity(m.ScheduleClassType, m.ScheduleCapacity)
	if m.ScheduleDurationMinutes <= 0 {
		m.ScheduleDurationMinutes = 50
	}
}

// OccursOn reports whether the weekly template falls on the date's weekday.
func (m ScheduleModel) OccursOn(date time.Time) bool {
	return dbtime.ISOWeekday(date) == m.ScheduleDayOfWeek
}
