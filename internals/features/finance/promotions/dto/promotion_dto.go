package dto

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"studioku_backend/internals/features/finance/promotions/model"
	"studioku_backend/internals/helpers/dbtime"
)

var ErrDateRange = errors.New("end_date must not be before start_date")

/* ---------- Promotion ---------- */

type CreatePromotionRequest struct {
	PromotionName             string     `json:"promotion_name" validate:"required,min=2,max=120"`
	PromotionDescription      *string    `json:"promotion_description" validate:"omitempty,max=2000"`
	PromotionClassesPerClient int        `json:"promotion_classes_per_client" validate:"required,min=1,max=100"`
	PromotionPrice            int64      `json:"promotion_price" validate:"min=0"`
	PromotionSedeID           *uuid.UUID `json:"promotion_sede_id"`
	PromotionStartDate        string     `json:"promotion_start_date" validate:"required,datetime=2006-01-02"`
	PromotionEndDate          string     `json:"promotion_end_date" validate:"required,datetime=2006-01-02"`
}

type UpdatePromotionRequest struct {
	PromotionName             *string    `json:"promotion_name" validate:"omitempty,min=2,max=120"`
	PromotionDescription      *string    `json:"promotion_description" validate:"omitempty,max=2000"`
	PromotionClassesPerClient *int       `json:"promotion_classes_per_client" validate:"omitempty,min=1,max=100"`
	PromotionPrice            *int64     `json:"promotion_price" validate:"omitempty,min=0"`
	PromotionSedeID           *uuid.UUID `json:"promotion_sede_id"`
	PromotionStartDate        *string    `json:"promotion_start_date" validate:"omitempty,datetime=2006-01-02"`
	PromotionEndDate          *string    `json:"promotion_end_date" validate:"omitempty,datetime=2006-01-02"`
	PromotionIsActive         *bool      `json:"promotion_is_active"`
}

func (r CreatePromotionRequest) ToModel() (model.PromotionModel, error) {
	start, end, err := parseRange(r.PromotionStartDate, r.PromotionEndDate)
	if err != nil {
		return model.PromotionModel{}, err
	}
	return model.PromotionModel{
		PromotionName:             strings.TrimSpace(r.PromotionName),
		PromotionDescription:      r.PromotionDescription,
		PromotionClassesPerClient: r.PromotionClassesPerClient,
		PromotionPrice:            r.PromotionPrice,
		PromotionSedeID:           r.PromotionSedeID,
		PromotionStartDate:        start,
		PromotionEndDate:          end,
		PromotionIsActive:         true,
	}, nil
}

func (r UpdatePromotionRequest) Apply(m *model.PromotionModel) error {
	start, end, err := mergeRange(m.PromotionStartDate, m.PromotionEndDate, r.PromotionStartDate, r.PromotionEndDate)
	if err != nil {
		return err
	}
	m.PromotionStartDate, m.PromotionEndDate = start, end
	if r.PromotionName != nil {
		m.PromotionName = strings.TrimSpace(*r.PromotionName)
	}
	if r.PromotionDescription != nil {
		m.PromotionDescription = r.PromotionDescription
	}
	if r.PromotionClassesPerClient != nil {
		m.PromotionClassesPerClient = *r.PromotionClassesPerClient
	}
	if r.PromotionPrice != nil {
		m.PromotionPrice = *r.PromotionPrice
	}
	if r.PromotionSedeID != nil {
		m.PromotionSedeID = r.PromotionSedeID
	}
	if r.PromotionIsActive != nil {
		m.PromotionIsActive = *r.PromotionIsActive
	}
	return nil
}

/* ---------- Instance ---------- */

type CreateInstanceRequest struct {
	StartDate string      `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string      `json:"end_date" validate:"required,datetime=2006-01-02"`
	Notes     *string     `json:"notes" validate:"omitempty,max=2000"`
	ClientIDs []uuid.UUID `json:"client_ids" validate:"omitempty,max=500"`
}

type UpdateInstanceRequest struct {
	StartDate *string `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate   *string `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
	Notes     *string `json:"notes" validate:"omitempty,max=2000"`
}

type InstanceClientsRequest struct {
	ClientIDs []uuid.UUID `json:"client_ids" validate:"required,min=1,max=500"`
}

func (r CreateInstanceRequest) ToModel(promotionID uuid.UUID) (model.PromotionInstanceModel, error) {
	start, end, err := parseRange(r.StartDate, r.EndDate)
	if err != nil {
		return model.PromotionInstanceModel{}, err
	}
	return model.PromotionInstanceModel{
		PromotionInstancePromotionID: promotionID,
		PromotionInstanceStartDate:   start,
		PromotionInstanceEndDate:     end,
		PromotionInstanceNotes:       r.Notes,
	}, nil
}

func (r UpdateInstanceRequest) Apply(m *model.PromotionInstanceModel) error {
	start, end, err := mergeRange(m.PromotionInstanceStartDate, m.PromotionInstanceEndDate, r.StartDate, r.EndDate)
	if err != nil {
		return err
	}
	m.PromotionInstanceStartDate, m.PromotionInstanceEndDate = start, end
	if r.Notes != nil {
		m.PromotionInstanceNotes = r.Notes
	}
	return nil
}

type InstanceDetail struct {
	model.PromotionInstanceModel
	ClientIDs []uuid.UUID `json:"client_ids"`
}

/* ---------- dates ---------- */

func parseRange(from, to string) (time.Time, time.Time, error) {
	start, err := dbtime.ParseDate(from)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := dbtime.ParseDate(to)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, ErrDateRange
	}
	return start, end, nil
}

func mergeRange(curStart, curEnd time.Time, from, to *string) (time.Time, time.Time, error) {
	s, e := dbtime.FormatDate(curStart), dbtime.FormatDate(curEnd)
	if from != nil {
		s = *from
	}
	if to != nil {
		e = *to
	}
	return parseRange(s, e)
}
