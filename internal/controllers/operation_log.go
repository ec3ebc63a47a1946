package controllers

import (
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"property-billing/internal/dto"
	"property-billing/internal/entities"
	"property-billing/internal/services"
	"property-billing/pkg/api"
	apperrors "property-billing/pkg/errors"
	"property-billing/pkg/utils"
)

const defaultLogPerPage = 50

type OperationLogController struct {
	auditService services.AuditServiceInterface
	location     *time.Location
	logger       *zap.Logger
}

func NewOperationLogController(auditService services.AuditServiceInterface, location *time.Location, logger *zap.Logger) *OperationLogController {
	return &OperationLogController{auditService: auditService, location: location, logger: logger}
}

func (c *OperationLogController) ListLogs(ctx echo.Context) error {
	var query dto.OperationLogQueryDTO
	if err := (&echo.DefaultBinder{}).BindQueryParams(ctx, &query); err != nil {
		return api.ErrorResponse(ctx, apperrors.NewBadRequestError("查询参数不正确"), c.logger)
	}

	filter := entities.OperationLogFilter{
		Username:      query.Username,
		OperationType: query.OperationType,
	}
	var err error
	if filter.StartDate, err = utils.ParseDate(query.StartDate, c.location); err != nil {
		return api.ErrorResponse(ctx, apperrors.NewBadRequestError("开始日期格式不正确"), c.logger)
	}
	if filter.EndBefore, err = utils.ParseEndDate(query.EndDate, c.location); err != nil {
		return api.ErrorResponse(ctx, apperrors.NewBadRequestError("结束日期格式不正确"), c.logger)
	}

	page := utils.ParsePage(ctx.QueryParams(), defaultLogPerPage)
	logs, total, err := c.auditService.ListLogs(ctx.Request().Context(), callerFrom(ctx), filter, page)
	if err != nil {
		return api.ErrorResponse(ctx, err, c.logger)
	}
	return api.SuccessList(ctx, "", logs, total, page.Number, page.PerPage)
}
