package services

import (
	"property-billing/internal/entities"
)

// Caller: пользователь запроса и данные клиента для журнала операций.
// Передаётся в каждый вызов сервиса явно.
type Caller struct {
	User      *entities.User
	IP        string
	Hostname  string
	UserAgent string
	Method    string
	URL       string
}
