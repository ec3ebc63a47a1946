package routes

import (
	"github.com/labstack/echo/v4"

	"property-billing/internal/controllers"
)

func runAddressRouter(secureGroup *echo.Group, addressCtrl *controllers.AddressController) {
	addresses := secureGroup.Group("/addresses")

	addresses.GET("", addressCtrl.GetAddresses)
	addresses.GET("/:id", addressCtrl.GetAddress)
	addresses.PUT("/:id", addressCtrl.UpdateResident)
}
