package dto

import (
	"strings"

	"studioku_backend/internals/features/studio/sedes/model"
)

// ====================
// Request DTO
// ====================

type CreateSedeRequest struct {
	SedeName     string  `json:"sede_name" validate:"required,min=2,max=120"`
	SedeAddress  *string `json:"sede_address" validate:"omitempty,max=500"`
	SedePhone    *string `json:"sede_phone" validate:"omitempty,max=32"`
	SedeTimezone *string `json:"sede_timezone" validate:"omitempty,timezone"`
}

// UpdateSedeRequest is a partial update; nil fields stay untouched.
type UpdateSedeRequest struct {
	SedeName     *string `json:"sede_name" validate:"omitempty,min=2,max=120"`
	SedeAddress  *string `json:"sede_address" validate:"omitempty,max=500"`
	SedePhone    *string `json:"sede_phone" validate:"omitempty,max=32"`
	SedeTimezone *string `json:"sede_timezone" validate:"omitempty,timezone"`
	SedeIsActive *bool   `json:"sede_is_active"`
}

// ====================
// Converter: Request → Model
// ====================

func (r CreateSedeRequest) ToModel() model.SedeModel {
	return model.SedeModel{
		SedeName:     strings.TrimSpace(r.SedeName),
		SedeAddress:  trimPtr(r.SedeAddress),
		SedePhone:    trimPtr(r.SedePhone),
		SedeTimezone: trimPtr(r.SedeTimezone),
		SedeIsActive: true,
	}
}

func (r UpdateSedeRequest) Apply(m *model.SedeModel) {
	if r.SedeName != nil {
		m.SedeName = strings.TrimSpace(*r.SedeName)
	}
	if r.SedeAddress != nil {
		m.SedeAddress = trimPtr(r.SedeAddress)
	}
	if r.SedePhone != nil {
		m.SedePhone = trimPtr(r.SedePhone)
	}
	if r.SedeTimezone != nil {
		m.SedeTimezone = trimPtr(r.SedeTimezone)
	}
	if r.SedeIsActive != nil {
		m.SedeIsActive = *r.SedeIsActive
	}
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
