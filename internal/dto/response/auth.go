package response

import (
	"lab-booking/internal/data/entity"
	"time"
)

type AuthResponse struct {
	UserID      string          `json:"user_id"`
	Token       string          `json:"token"`
	ExpiresAt   time.Time       `json:"expires_at"`
	Email       string          `json:"email"`
	Username    string          `json:"username"`
	Role        entity.UserRole `json:"role"`
	AssignedLab *string         `json:"assigned_lab,omitempty"`
}

type UserResponse struct {
	ID          string          `json:"id"`
	Username    string          `json:"username"`
	Email       string          `json:"email"`
	Phone       *string         `json:"phone,omitempty"`
	Role        entity.UserRole `json:"role"`
	AssignedLab *string         `json:"assigned_lab,omitempty"`
	IsActive    bool            `json:"is_active"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Helper converters
func UserToResponse(user *entity.User) UserResponse {
	return UserResponse{
		ID:          user.ID.String(),
		Username:    user.Username,
		Email:       user.Email,
		Phone:       user.Phone,
		Role:        user.Role,
		AssignedLab: labString(user),
		IsActive:    user.IsActive,
		CreatedAt:   user.CreatedAt,
	}
}

func AuthToResponse(user *entity.User, token string, expiresAt time.Time) AuthResponse {
	return AuthResponse{
		UserID:      user.ID.String(),
		Token:       token,
		ExpiresAt:   expiresAt,
		Email:       user.Email,
		Username:    user.Username,
		Role:        user.Role,
		AssignedLab: labString(user),
	}
}

func labString(user *entity.User) *string {
	if user.AssignedLab == nil {
		return nil
	}
	s := user.AssignedLab.String()
	return &s
}
