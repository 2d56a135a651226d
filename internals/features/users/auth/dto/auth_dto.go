package dto

import (
	"github.com/google/uuid"

	clientModel "studioku_backend/internals/features/studio/clients/model"
	userModel "studioku_backend/internals/features/users/user/model"
)

type RegisterRequest struct {
	FirstName string     `json:"first_name" validate:"required,min=1,max=80"`
	LastName  string     `json:"last_name" validate:"max=80"`
	Email     string     `json:"email" validate:"required,email,max=255"`
	Password  string     `json:"password" validate:"required,min=8,max=72"`
	Phone     *string    `json:"phone" validate:"omitempty,max=32"`
	SedeID    *uuid.UUID `json:"sede_id"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type GoogleLoginRequest struct {
	IDToken string `json:"id_token" validate:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=72"`
}

type UserResponse struct {
	ID       uuid.UUID  `json:"id"`
	UserName string     `json:"user_name"`
	Email    string     `json:"email"`
	Role     string     `json:"role"`
	ClientID *uuid.UUID `json:"client_id,omitempty"`
	SedeIDs  []string   `json:"sede_ids"`
}

func FromUser(u userModel.UserModel) UserResponse {
	sedes := []string(u.SedeIDs)
	if sedes == nil {
		sedes = []string{}
	}
	return UserResponse{
		ID:       u.ID,
		UserName: u.UserName,
		Email:    u.Email,
		Role:     u.Role,
		ClientID: u.ClientID,
		SedeIDs:  sedes,
	}
}

type MeResponse struct {
	User   UserResponse             `json:"user"`
	Client *clientModel.ClientModel `json:"client,omitempty"`
}
