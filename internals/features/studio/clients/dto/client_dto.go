package dto

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"studioku_backend/internals/features/studio/clients/model"
	"studioku_backend/internals/features/studio/clients/service"
	"studioku_backend/internals/helpers/dbtime"
)

type CreateClientRequest struct {
	ClientSedeID     *uuid.UUID `json:"client_sede_id"`
	ClientFirstName  string     `json:"client_first_name" validate:"required,min=1,max=80"`
	ClientLastName   string     `json:"client_last_name" validate:"max=80"`
	ClientEmail      *string    `json:"client_email" validate:"omitempty,max=255"`
	ClientPhone      *string    `json:"client_phone" validate:"omitempty,max=32"`
	ClientNationalID *string    `json:"client_national_id" validate:"omitempty,max=32"`
	ClientBirthDate  *string    `json:"client_birth_date" validate:"omitempty,datetime=2006-01-02"`
	ClientNotes      *string    `json:"client_notes" validate:"omitempty,max=2000"`
}

// UpdateClientRequest is a partial update; nil fields stay untouched.
type UpdateClientRequest struct {
	ClientSedeID     *uuid.UUID `json:"client_sede_id"`
	ClientFirstName  *string    `json:"client_first_name" validate:"omitempty,min=1,max=80"`
	ClientLastName   *string    `json:"client_last_name" validate:"omitempty,max=80"`
	ClientEmail      *string    `json:"client_email" validate:"omitempty,max=255"`
	ClientPhone      *string    `json:"client_phone" validate:"omitempty,max=32"`
	ClientNationalID *string    `json:"client_national_id" validate:"omitempty,max=32"`
	ClientBirthDate  *string    `json:"client_birth_date" validate:"omitempty,datetime=2006-01-02"`
	ClientNotes      *string    `json:"client_notes" validate:"omitempty,max=2000"`
}

func (r CreateClientRequest) ToModel() (model.ClientModel, error) {
	email, err := service.NormalizePtr(r.ClientEmail, service.NormalizeEmail)
	if err != nil {
		return model.ClientModel{}, err
	}
	phone, err := service.NormalizePtr(r.ClientPhone, service.NormalizePhone)
	if err != nil {
		return model.ClientModel{}, err
	}
	birth, err := parseDatePtr(r.ClientBirthDate)
	if err != nil {
		return model.ClientModel{}, err
	}
	return model.ClientModel{
		ClientSedeID:     r.ClientSedeID,
		ClientFirstName:  strings.TrimSpace(r.ClientFirstName),
		ClientLastName:   strings.TrimSpace(r.ClientLastName),
		ClientEmail:      email,
		ClientPhone:      phone,
		ClientNationalID: trimPtr(r.ClientNationalID),
		ClientBirthDate:  birth,
		ClientNotes:      trimPtr(r.ClientNotes),
		ClientStatus:     model.ClientStatusInactive,
	}, nil
}

func (r UpdateClientRequest) Apply(m *model.ClientModel) error {
	if r.ClientEmail != nil {
		email, err := service.NormalizePtr(r.ClientEmail, service.NormalizeEmail)
		if err != nil {
			return err
		}
		m.ClientEmail = email
	}
	if r.ClientPhone != nil {
		phone, err := service.NormalizePtr(r.ClientPhone, service.NormalizePhone)
		if err != nil {
			return err
		}
		m.ClientPhone = phone
	}
	if r.ClientBirthDate != nil {
		birth, err := parseDatePtr(r.ClientBirthDate)
		if err != nil {
			return err
		}
		m.ClientBirthDate = birth
	}
	if r.ClientSedeID != nil {
		m.ClientSedeID = r.ClientSedeID
	}
	if r.ClientFirstName != nil {
		m.ClientFirstName = strings.TrimSpace(*r.ClientFirstName)
	}
	if r.ClientLastName != nil {
		m.ClientLastName = strings.TrimSpace(*r.ClientLastName)
	}
	if r.ClientNationalID != nil {
		m.ClientNationalID = trimPtr(r.ClientNationalID)
	}
	if r.ClientNotes != nil {
		m.ClientNotes = trimPtr(r.ClientNotes)
	}
	return nil
}

func parseDatePtr(s *string) (*time.Time, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}
	t, err := dbtime.ParseDate(strings.TrimSpace(*s))
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
