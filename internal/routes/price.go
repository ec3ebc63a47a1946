package routes

import (
	"github.com/labstack/echo/v4"

	"property-billing/internal/authz"
	"property-billing/internal/controllers"
	"property-billing/pkg/middleware"
)

func runPriceRouter(
	secureGroup *echo.Group,
	adminGroup *echo.Group,
	priceCtrl *controllers.PriceController,
	authMW *middleware.AuthMiddleware,
) {
	// Касса: тарифы своего комплекса
	secureGroup.GET("/fee-prices", priceCtrl.GetPrices)
	secureGroup.PUT("/fee-prices", priceCtrl.UpdateOwnPrices, authMW.AuthorizeAny(authz.PricesUpdateOwn))
	secureGroup.GET("/communities", priceCtrl.ListCommunities)

	// Администрирование тарифов всех комплексов
	prices := adminGroup.Group("/fee-prices", authMW.AuthorizeAny(authz.PricesManage))
	prices.GET("", priceCtrl.ListPriceTables)
	prices.POST("", priceCtrl.CreatePriceTable)
	prices.GET("/export", priceCtrl.ExportAll)
	prices.GET("/template", priceCtrl.Template)
	prices.POST("/import", priceCtrl.ImportAll)
	prices.PUT("/:communityNumber", priceCtrl.UpdatePrices)
	prices.DELETE("/:communityNumber", priceCtrl.DeletePriceTable)
}
