package dto

import (
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"studioku_backend/internals/features/users/user/model"
)

// CreateStaffRequest: admin creates instructor/admin accounts.
type CreateStaffRequest struct {
	UserName string      `json:"user_name" validate:"required,min=2,max=50"`
	Email    string      `json:"email" validate:"required,email,max=255"`
	Password string      `json:"password" validate:"required,min=8,max=72"`
	Role     string      `json:"role" validate:"required,oneof=admin instructor"`
	SedeIDs  []uuid.UUID `json:"sede_ids" validate:"omitempty,max=50"`
}

type UpdateUserRequest struct {
	UserName *string      `json:"user_name" validate:"omitempty,min=2,max=50"`
	Role     *string      `json:"role" validate:"omitempty,oneof=admin instructor client"`
	SedeIDs  *[]uuid.UUID `json:"sede_ids"`
	IsActive *bool        `json:"is_active"`
}

func (r CreateStaffRequest) ToModel(passwordHash string) model.UserModel {
	return model.UserModel{
		UserName: strings.TrimSpace(r.UserName),
		Email:    strings.ToLower(strings.TrimSpace(r.Email)),
		Password: passwordHash,
		Role:     r.Role,
		SedeIDs:  toStringArray(r.SedeIDs),
		IsActive: true,
	}
}

func (r UpdateUserRequest) Apply(m *model.UserModel) {
	if r.UserName != nil {
		m.UserName = strings.TrimSpace(*r.UserName)
	}
	if r.Role != nil {
		m.Role = *r.Role
	}
	if r.SedeIDs != nil {
		m.SedeIDs = toStringArray(*r.SedeIDs)
	}
	if r.IsActive != nil {
		m.IsActive = *r.IsActive
	}
}

// toStringArray dedupes; empty means every sede.
func toStringArray(ids []uuid.UUID) pq.StringArray {
	out := pq.StringArray{}
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id.String())
	}
	return out
}
