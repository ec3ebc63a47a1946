package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"property-billing/internal/dto"
	"property-billing/internal/services"
	"property-billing/pkg/api"
	apperrors "property-billing/pkg/errors"
	"property-billing/pkg/utils"
)

const (
	defaultOrderPerPage = 20
	defaultQueryPerPage = 10
)

type OrderController struct {
	orderService  services.OrderServiceInterface
	reportService services.ReportServiceInterface
	logger        *zap.Logger
}

func NewOrderController(
	orderService services.OrderServiceInterface,
	reportService services.ReportServiceInterface,
	logger *zap.Logger,
) *OrderController {
	return &OrderController{
		orderService:  orderService,
		reportService: reportService,
		logger:        logger,
	}
}

func (c *OrderController) CreateOrder(ctx echo.Context) error {
	var payload dto.CreateOrderDTO
	if err := ctx.Bind(&payload); err != nil {
		c.logger.Debug("Не удалось разобрать заказ", zap.Error(err))
		return api.ErrorResponse(ctx, apperrors.NewValidationError("订单数据格式不正确"), c.logger)
	}

	res, err := c.orderService.CreateOrder(ctx.Request().Context(), callerFrom(ctx), payload)
	if err != nil {
		return api.ErrorResponse(ctx, err, c.logger)
	}
	return api.SuccessOne(ctx, http.StatusCreated, "收费成功", res)
}

func (c *OrderController) ListOrders(ctx echo.Context) error {
	var query dto.OrderListQueryDTO
	if err := (&echo.DefaultBinder{}).BindQueryParams(ctx, &query); err != nil {
		return api.ErrorResponse(ctx, apperrors.NewBadRequestError("查询参数不正确"), c.logger)
	}
	page := utils.ParsePage(ctx.QueryParams(), defaultOrderPerPage)

	list, total, err := c.orderService.ListOrders(ctx.Request().Context(), callerFrom(ctx), query, page)
	if err != nil {
		return api.ErrorResponse(ctx, err, c.logger)
	}
	return api.SuccessList(ctx, "", list, total, page.Number, page.PerPage)
}

func (c *OrderController) GetOrder(ctx echo.Context) error {
	id, err := parseIDParam(ctx, "id", "订单ID格式不正确")
	if err != nil {
		return api.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.orderService.GetOrder(ctx.Request().Context(), callerFrom(ctx), id)
	if err != nil {
		return api.ErrorResponse(ctx, err, c.logger)
	}
	return api.SuccessOne(ctx, http.StatusOK, "", res)
}

func (c *OrderController) DeleteOrder(ctx echo.Context) error {
	id, err := parseIDParam(ctx, "id", "订单ID格式不正确")
	if err != nil {
		return api.ErrorResponse(ctx, err, c.logger)
	}

	if err := c.orderService.DeleteOrder(ctx.Request().Context(), callerFrom(ctx), id); err != nil {
		return api.ErrorResponse(ctx, err, c.logger)
	}
	return api.SuccessOne[any](ctx, http.StatusOK, "订单已删除", nil)
}

func (c *OrderController) RecentOrders(ctx echo.Context) error {
	res, err := c.orderService.RecentOrders(ctx.Request().Context(), callerFrom(ctx))
	if err != nil {
		return api.ErrorResponse(ctx, err, c.logger)
	}
	return api.SuccessOne(ctx, http.StatusOK, "", res)
}

func (c *OrderController) TodayTotal(ctx echo.Context) error {
	res, err := c.orderService.TodayTotal(ctx.Request().Context(), callerFrom(ctx))
	if err != nil {
		return api.ErrorResponse(ctx, err, c.logger)
	}
	return api.SuccessOne(ctx, http.StatusOK, "", res)
}

func (c *OrderController) PaymentHistory(ctx echo.Context) error {
	var query dto.PaymentHistoryQueryDTO
	if err := (&echo.DefaultBinder{}).BindQueryParams(ctx, &query); err != nil {
		return api.ErrorResponse(ctx, apperrors.NewBadRequestError("查询参数不正确"), c.logger)
	}

	list, err := c.orderService.PaymentHistory(ctx.Request().Context(), callerFrom(ctx), query)
	if err != nil {
		return api.ErrorResponse(ctx, err, c.logger)
	}
	if list == nil {
		list = make([]dto.OrderListItemDTO, 0)
	}
	return api.SuccessOne(ctx, http.StatusOK, "", list)
}

func (c *OrderController) QueryOrders(ctx echo.Context) error {
	var query dto.OrderSearchDTO
	if err := (&echo.DefaultBinder{}).BindQueryParams(ctx, &query); err != nil {
		return api.ErrorResponse(ctx, apperrors.NewBadRequestError("查询参数不正确"), c.logger)
	}
	page := utils.ParsePage(ctx.QueryParams(), defaultQueryPerPage)

	list, total, err := c.orderService.QueryOrders(ctx.Request().Context(), callerFrom(ctx), query, page)
	if err != nil {
		return api.ErrorResponse(ctx, err, c.logger)
	}
	return api.SuccessList(ctx, "", list, total, page.Number, page.PerPage)
}

func (c *OrderController) DetailedOrders(ctx echo.Context) error {
	var query dto.DetailedOrderQueryDTO
	if err := (&echo.DefaultBinder{}).BindQueryParams(ctx, &query); err != nil {
		return api.ErrorResponse(ctx, apperrors.NewBadRequestError("查询参数不正确"), c.logger)
	}
	page := utils.ParsePage(ctx.QueryParams(), defaultOrderPerPage)

	list, total, err := c.reportService.DetailedOrders(ctx.Request().Context(), callerFrom(ctx), query, page)
	if err != nil {
		return api.ErrorResponse(ctx, err, c.logger)
	}
	return api.SuccessList(ctx, "", list, total, page.Number, page.PerPage)
}

func (c *OrderController) ExportDetailed(ctx echo.Context) error {
	var query dto.DetailedOrderQueryDTO
	if err := (&echo.DefaultBinder{}).BindQueryParams(ctx, &query); err != nil {
		return api.ErrorResponse(ctx, apperrors.NewBadRequestError("查询参数不正确"), c.logger)
	}

	file, err := c.reportService.ExportDetailed(ctx.Request().Context(), callerFrom(ctx), query)
	if err != nil {
		return api.ErrorResponse(ctx, err, c.logger)
	}
	return sendXLSX(ctx, file.Name, file.Content.Bytes())
}
