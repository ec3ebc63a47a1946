package routes

import (
	"github.com/labstack/echo/v4"

	"property-billing/internal/authz"
	"property-billing/internal/controllers"
	"property-billing/pkg/middleware"
)

func runOperationLogRouter(adminGroup *echo.Group, logCtrl *controllers.OperationLogController, authMW *middleware.AuthMiddleware) {
	adminGroup.GET("/operation-logs", logCtrl.ListLogs, authMW.AuthorizeAny(authz.LogsView))
}

func runUserRouter(adminGroup *echo.Group, userCtrl *controllers.UserController, authMW *middleware.AuthMiddleware) {
	adminGroup.PUT("/users/:id/name", userCtrl.UpdateDisplayName, authMW.AuthorizeAny(authz.UsersUpdate))
}
