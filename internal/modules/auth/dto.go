package auth

import "parkservices/internal/domain"

type LoginRequest struct {
	Phone    string `json:"phone" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RegisterRequest struct {
	Name            string `json:"name" validate:"required"`
	Phone           string `json:"phone" validate:"required"`
	Password        string `json:"password" validate:"required"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
	Role            string `json:"role" validate:"required,oneof=researcher admin service"`
	Department      string `json:"department,omitempty"`
}

type SessionResponse struct {
	User     *domain.User `json:"user"`
	Token    string       `json:"token"`
	NextPage string       `json:"next_page"`
}
