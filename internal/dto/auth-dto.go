package dto

import (
	"time"

	"property-billing/internal/entities"
)

type LoginDTO struct {
	Username string `json:"username" validate:"required,max=50"`
	Password string `json:"password" validate:"required,max=100"`
}

type UserProfileDTO struct {
	ID              uint64 `json:"id"`
	Username        string `json:"username"`
	RealName        string `json:"real_name"`
	Community       string `json:"community"`
	CommunityNumber int    `json:"community_num"`
	Role            string `json:"role"`
	RoleTitle       string `json:"role_title"`
	CanEdit         bool   `json:"can_edit"`
	CanRead         bool   `json:"can_read"`
	CanReport       bool   `json:"can_report"`
}

type LoginResponseDTO struct {
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expires_at"`
	User      UserProfileDTO `json:"user"`
}

type UpdateDisplayNameDTO struct {
	RealName string `json:"real_name" validate:"required,min=1,max=50"`
}

func NewUserProfileDTO(u *entities.User) UserProfileDTO {
	return UserProfileDTO{
		ID:              u.ID,
		Username:        u.Username,
		RealName:        u.RealName,
		Community:       u.CommunityName,
		CommunityNumber: u.CommunityNumber,
		Role:            string(u.Role),
		RoleTitle:       u.Role.Title(),
		CanEdit:         u.CanEdit,
		CanRead:         u.CanRead,
		CanReport:       u.CanReport,
	}
}
