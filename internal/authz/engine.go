package authz

import (
	"property-billing/internal/entities"
)

// PermissionsFor выводит набор прав из роли и флагов пользователя.
// Флаги читаются из живой записи, поэтому изменения действуют без перевыпуска токена.
func PermissionsFor(u *entities.User) map[string]bool {
	perms := map[string]bool{}
	if u == nil {
		return perms
	}

	if u.IsAdmin() {
		for _, p := range []string{
			Superuser, ScopeAll,
			OrdersCreate, OrdersView, OrdersDelete, ReportsView,
			PricesManage, PricesUpdateOwn, AddressesView, AddressesUpdate,
			LogsView, UsersUpdate,
		} {
			perms[p] = true
		}
		return perms
	}

	perms[ScopeCommunity] = true
	perms[AddressesView] = true
	perms[AddressesUpdate] = true
	perms[OrdersDelete] = true

	if u.CanRead {
		perms[OrdersView] = true
	}
	if u.CanEdit {
		perms[OrdersCreate] = true
	}
	if u.CanEdit || u.Role == entities.RoleCommunityManager {
		perms[PricesUpdateOwn] = true
	}
	if u.CanReport {
		perms[ReportsView] = true
	}
	return perms
}

// CommunityScope: nil для администратора (все комплексы), иначе номер комплекса пользователя.
func CommunityScope(u *entities.User) *int {
	if u.IsAdmin() {
		return nil
	}
	n := u.CommunityNumber
	return &n
}

// CanAccessCommunity: администратор видит всё, остальные только свой комплекс.
func CanAccessCommunity(u *entities.User, communityNumber int) bool {
	if u == nil {
		return false
	}
	return u.IsAdmin() || u.CommunityNumber == communityNumber
}
