package entities

// Community: реестр жилых комплексов; на него ссылаются пользователи, адреса и тарифы.
type Community struct {
	Number int    `json:"number" db:"number"`
	Name   string `json:"name" db:"name"`
}
