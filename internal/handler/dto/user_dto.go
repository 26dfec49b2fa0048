package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/readshelf/library-api/internal/domain/user"
)

type UserResponse struct {
	ID          uuid.UUID `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	DisplayName *string   `json:"display_name,omitempty"`
	Role        string    `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func NewUserResponse(u *user.User) *UserResponse {
	resp := &UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
	if u.DisplayName.Valid {
		resp.DisplayName = &u.DisplayName.String
	}
	return resp
}

type UpdateProfileRequest struct {
	Email           *string `json:"email" binding:"omitempty,email"`
	DisplayName     *string `json:"display_name" binding:"omitempty,max=128"`
	CurrentPassword string  `json:"current_password" binding:"required_with=NewPassword"`
	NewPassword     string  `json:"new_password" binding:"omitempty,min=8,max=72"`
}
