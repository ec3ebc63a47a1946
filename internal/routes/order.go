package routes

import (
	"github.com/labstack/echo/v4"

	"property-billing/internal/controllers"
)

func runOrderRouter(secureGroup *echo.Group, orderCtrl *controllers.OrderController) {
	orders := secureGroup.Group("/orders")

	// Статические пути объявлены до /:id
	orders.GET("/recent", orderCtrl.RecentOrders)
	orders.GET("/today-total", orderCtrl.TodayTotal)
	orders.GET("/history", orderCtrl.PaymentHistory)
	orders.GET("/detailed", orderCtrl.DetailedOrders)
	orders.GET("/detailed/export", orderCtrl.ExportDetailed)

	orders.POST("", orderCtrl.CreateOrder)
	orders.GET("", orderCtrl.ListOrders)
	orders.GET("/:id", orderCtrl.GetOrder)
	orders.DELETE("/:id", orderCtrl.DeleteOrder)

	// Старый клиент кассы
	secureGroup.GET("/v1/orders/query", orderCtrl.QueryOrders)
}
