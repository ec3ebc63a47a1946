package entities

type Address struct {
	ID              uint64  `json:"id" db:"id"`
	CommunityNumber int     `json:"community_num" db:"community_number"`
	Building        string  `json:"building" db:"building"`
	Room            string  `json:"room" db:"room"`
	ResidentName    *string `json:"resident_name" db:"resident_name"`
	ResidentPhone   *string `json:"resident_phone" db:"resident_phone"`
}

// ResidentUpdate: изменения данных жильца; nil означает «не менять».
type ResidentUpdate struct {
	Name  *string
	Phone *string
}

func (u ResidentUpdate) Empty() bool {
	return u.Name == nil && u.Phone == nil
}
