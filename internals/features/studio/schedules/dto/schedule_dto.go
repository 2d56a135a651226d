package dto

import (
	"github.com/google/uuid"

	"studioku_backend/internals/features/studio/schedules/model"
	"studioku_backend/internals/helpers/dbtime"
)

type CreateScheduleRequest struct {
	ScheduleSedeID          uuid.UUID  `json:"schedule_sede_id" validate:"required"`
	ScheduleDayOfWeek       int        `json:"schedule_day_of_week" validate:"required,min=1,max=7"`
	ScheduleStartTime       string     `json:"schedule_start_time" validate:"required,datetime=15:04"`
	ScheduleDurationMinutes int        `json:"schedule_duration_minutes" validate:"omitempty,min=10,max=240"`
	ScheduleClassType       string     `json:"schedule_class_type" validate:"required,oneof=reformer mat barre tower individual"`
	ScheduleCapacity        int        `json:"schedule_capacity" validate:"required,min=1,max=200"`
	ScheduleInstructorID    *uuid.UUID `json:"schedule_instructor_id"`
}

type UpdateScheduleRequest struct {
	ScheduleDayOfWeek       *int       `json:"schedule_day_of_week" validate:"omitempty,min=1,max=7"`
	ScheduleStartTime       *string    `json:"schedule_start_time" validate:"omitempty,datetime=15:04"`
	ScheduleDurationMinutes *int       `json:"schedule_duration_minutes" validate:"omitempty,min=10,max=240"`
	ScheduleClassType       *string    `json:"schedule_class_type" validate:"omitempty,oneof=reformer mat barre tower individual"`
	ScheduleCapacity        *int       `json:"schedule_capacity" validate:"omitempty,min=1,max=200"`
	ScheduleInstructorID    *uuid.UUID `json:"schedule_instructor_id"`
	ScheduleIsActive        *bool      `json:"schedule_is_active"`
}

func (r CreateScheduleRequest) ToModel() (model.ScheduleModel, error) {
	start, err := dbtime.ParseTod(r.ScheduleStartTime)
	if err != nil {
		return model.ScheduleModel{}, err
	}
	m := model.ScheduleModel{
		ScheduleSedeID:          r.ScheduleSedeID,
		ScheduleDayOfWeek:       r.ScheduleDayOfWeek,
		ScheduleStartTime:       start,
		ScheduleDurationMinutes: r.ScheduleDurationMinutes,
		ScheduleClassType:       model.ClassType(r.ScheduleClassType),
		ScheduleCapacity:        r.ScheduleCapacity,
		ScheduleInstructorID:    r.ScheduleInstructorID,
		ScheduleIsActive:        true,
	}
	m.Normalize()
	return m, nil
}

func (r UpdateScheduleRequest) Apply(m *model.ScheduleModel) error {
	if r.ScheduleStartTime != nil {
		start, err := dbtime.ParseTod(*r.ScheduleStartTime)
		if err != nil {
			return err
		}
		m.ScheduleStartTime = start
	}
	if r.ScheduleDayOfWeek != nil {
		m.ScheduleDayOfWeek = *r.ScheduleDayOfWeek
	}
	if r.ScheduleDurationMinutes != nil {
		m.ScheduleDurationMinutes = *r.ScheduleDurationMinutes
	}
	if r.ScheduleClassType != nil {
		m.ScheduleClassType = model.ClassType(*r.ScheduleClassType)
	}
	if r.ScheduleCapacity != nil {
		m.ScheduleCapacity = *r.ScheduleCapacity
	}
	if r.ScheduleInstructorID != nil {
		m.ScheduleInstructorID = r.ScheduleInstructorID
	}
	if r.ScheduleIsActive != nil {
		m.ScheduleIsActive = *r.ScheduleIsActive
	}
	m.Normalize()
	return nil
}

// ScheduleResponse carries seat counts when the listing is for a date.
type ScheduleResponse struct {
	model.ScheduleModel
	ClassDate *string `json:"class_date,omitempty"`
	EndTime   string  `json:"schedule_end_time"`
	Occupied  *int    `json:"occupied,omitempty"`
	Remaining *int    `json:"remaining,omitempty"`
}

func FromModel(m model.ScheduleModel) ScheduleResponse {
	return ScheduleResponse{
		ScheduleModel: m,
		EndTime:       m.ScheduleStartTime.AddMinutes(m.ScheduleDurationMinutes).String(),
	}
}
