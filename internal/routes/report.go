package routes

import (
	"github.com/labstack/echo/v4"

	"property-billing/internal/controllers"
)

// Права на отчёты проверяет сервис: администратор или флаг can-report.
func runReportRouter(secureGroup *echo.Group, reportCtrl *controllers.ReportController) {
	reports := secureGroup.Group("/reports")

	reports.GET("/overview", reportCtrl.Overview)
	reports.GET("/time-stats", reportCtrl.TimeStats)
	reports.GET("/payment-stats", reportCtrl.PaymentStats)
	reports.GET("/fee-type-stats", reportCtrl.FeeTypeStats)
}
