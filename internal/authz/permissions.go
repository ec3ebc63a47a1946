// internal/authz/permissions.go
package authz

// --- СПИСОК ВСЕХ ПЕРМИШЕНОВ В СИСТЕМЕ ---

const (
	// Глобальные
	Superuser = "superuser"

	// Заказы
	OrdersCreate = "orders:create"
	OrdersView   = "orders:view"
	OrdersDelete = "orders:delete"

	// Отчёты
	ReportsView = "reports:view"

	// Тарифы
	PricesManage    = "prices:manage"
	PricesUpdateOwn = "prices:update:own"

	// Адреса
	AddressesView   = "addresses:view"
	AddressesUpdate = "addresses:update"

	// Администрирование
	LogsView    = "logs:view"
	UsersUpdate = "users:update"

	// Модификаторы Области (Scopes)
	ScopeCommunity = "scope:community"
	ScopeAll       = "scope:all"
)
