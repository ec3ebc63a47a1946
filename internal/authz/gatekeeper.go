package authz

import (
	"property-billing/internal/entities"
)

// Can проверяет право и, если задан target, область видимости.
func Can(actor *entities.User, permission string, target interface{}) bool {
	perms := PermissionsFor(actor)

	if perms[Superuser] {
		return true
	}
	if !perms[permission] {
		return false
	}
	if target == nil {
		return true
	}

	switch t := target.(type) {
	case *entities.Order:
		return CanAccessCommunity(actor, t.CommunityID)
	case *entities.Address:
		return CanAccessCommunity(actor, t.CommunityNumber)
	case *entities.FeePrice:
		return CanAccessCommunity(actor, t.CommunityNumber)
	}
	return false
}
