// Файл: internal/entities/user-entity.go
package entities

import (
	"property-billing/pkg/types"
)

type Role string

const (
	RoleAdministrator    Role = "administrator"
	RoleCommunityManager Role = "community_manager"
	RoleOperator         Role = "operator"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdministrator, RoleCommunityManager, RoleOperator:
		return true
	}
	return false
}

func (r Role) Title() string {
	switch r {
	case RoleAdministrator:
		return "系统管理员"
	case RoleCommunityManager:
		return "小区经理"
	case RoleOperator:
		return "操作员"
	}
	return string(r)
}

type User struct {
	ID       uint64 `json:"id" db:"id"`
	Username string `json:"username" db:"username"`
	Password string `json:"-" db:"password_hash"`
	RealName string `json:"real_name" db:"real_name"`

	CommunityName   string `json:"community" db:"community_name"`
	CommunityNumber int    `json:"community_num" db:"community_number"`

	Role      Role `json:"role" db:"role"`
	CanEdit   bool `json:"can_edit" db:"can_edit"`
	CanRead   bool `json:"can_read" db:"can_read"`
	CanReport bool `json:"can_report" db:"can_report"`

	types.BaseEntity
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdministrator
}

// DisplayName: имя для журналов и квитанций.
func (u *User) DisplayName() string {
	if u.RealName != "" {
		return u.RealName
	}
	return u.Username
}
