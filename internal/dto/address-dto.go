package dto

import (
	"github.com/aarondl/null/v8"

	"property-billing/internal/entities"
)

type AddressDTO struct {
	ID              uint64 `json:"id"`
	CommunityNumber int    `json:"community_num"`
	Building        string `json:"building"`
	Room            string `json:"room"`
	ResidentName    string `json:"name"`
	ResidentPhone   string `json:"phone"`
}

// UpdateResidentDTO: пустая строка означает «не менять».
type UpdateResidentDTO struct {
	ResidentName  null.String `json:"name" validate:"omitempty,resident_name"`
	ResidentPhone null.String `json:"phone" validate:"omitempty,resident_phone"`
}

func NewAddressDTO(a *entities.Address) AddressDTO {
	d := AddressDTO{
		ID:              a.ID,
		CommunityNumber: a.CommunityNumber,
		Building:        a.Building,
		Room:            a.Room,
	}
	if a.ResidentName != nil {
		d.ResidentName = *a.ResidentName
	}
	if a.ResidentPhone != nil {
		d.ResidentPhone = *a.ResidentPhone
	}
	return d
}

func NewAddressDTOs(list []entities.Address) []AddressDTO {
	result := make([]AddressDTO, 0, len(list))
	for i := range list {
		result = append(result, NewAddressDTO(&list[i]))
	}
	return result
}
