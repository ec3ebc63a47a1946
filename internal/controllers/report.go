package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"property-billing/internal/dto"
	"property-billing/internal/services"
	"property-billing/pkg/api"
	apperrors "property-billing/pkg/errors"
)

type ReportController struct {
	reportService services.ReportServiceInterface
	logger        *zap.Logger
}

func NewReportController(reportService services.ReportServiceInterface, logger *zap.Logger) *ReportController {
	return &ReportController{reportService: reportService, logger: logger}
}

func (c *ReportController) bindQuery(ctx echo.Context) (dto.ReportQueryDTO, error) {
	var query dto.ReportQueryDTO
	if err := (&echo.DefaultBinder{}).BindQueryParams(ctx, &query); err != nil {
		return query, apperrors.NewBadRequestError("查询参数不正确")
	}
	return query, nil
}

func (c *ReportController) Overview(ctx echo.Context) error {
	query, err := c.bindQuery(ctx)
	if err != nil {
		return api.ErrorResponse(ctx, err, c.logger)
	}
	res, err := c.reportService.Overview(ctx.Request().Context(), callerFrom(ctx), query)
	if err != nil {
		return api.ErrorResponse(ctx, err, c.logger)
	}
	return api.SuccessOne(ctx, http.StatusOK, "", res)
}

func (c *ReportController) TimeStats(ctx echo.Context) error {
	query, err := c.bindQuery(ctx)
	if err != nil {
		return api.ErrorResponse(ctx, err, c.logger)
	}
	res, err := c.reportService.TimeSeries(ctx.Request().Context(), callerFrom(ctx), query)
	if err != nil {
		return api.ErrorResponse(ctx, err, c.logger)
	}
	return api.SuccessOne(ctx, http.StatusOK, "", res)
}

func (c *ReportController) PaymentStats(ctx echo.Context) error {
	query, err := c.bindQuery(ctx)
	if err != nil {
		return api.ErrorResponse(ctx, err, c.logger)
	}
	res, err := c.reportService.PaymentStats(ctx.Request().Context(), callerFrom(ctx), query)
	if err != nil {
		return api.ErrorResponse(ctx, err, c.logger)
	}
	if res == nil {
		res = make([]dto.PaymentStatDTO, 0)
	}
	return api.SuccessOne(ctx, http.StatusOK, "", res)
}

func (c *ReportController) FeeTypeStats(ctx echo.Context) error {
	query, err := c.bindQuery(ctx)
	if err != nil {
		return api.ErrorResponse(ctx, err, c.logger)
	}
	res, err := c.reportService.FeeTypeStats(ctx.Request().Context(), callerFrom(ctx), query)
	if err != nil {
		return api.ErrorResponse(ctx, err, c.logger)
	}
	if res == nil {
		res = make([]dto.FeeTypeStatDTO, 0)
	}
	return api.SuccessOne(ctx, http.StatusOK, "", res)
}
