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

const (
	stepBuildings = "buildings"
	stepRooms     = "rooms"
)

var residentFieldMessages = map[string]string{
	"ResidentName":  "姓名格式不正确（2-10个中英文字符）",
	"ResidentPhone": "手机号格式不正确（11位数字，1开头）",
}

type AddressController struct {
	directoryService services.DirectoryServiceInterface
	logger           *zap.Logger
}

func NewAddressController(directoryService services.DirectoryServiceInterface, logger *zap.Logger) *AddressController {
	return &AddressController{directoryService: directoryService, logger: logger}
}

// GetAddresses отдаёт корпуса (step=buildings) или квартиры корпуса (step=rooms).
func (c *AddressController) GetAddresses(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	caller := callerFrom(ctx)

	switch ctx.QueryParam("step") {
	case stepBuildings, "":
		buildings, err := c.directoryService.ListBuildings(reqCtx, caller)
		if err != nil {
			return api.ErrorResponse(ctx, err, c.logger)
		}
		if buildings == nil {
			buildings = make([]string, 0)
		}
		return api.SuccessOne(ctx, http.StatusOK, "", buildings)
	case stepRooms:
		rooms, err := c.directoryService.ListRooms(reqCtx, caller, ctx.QueryParam("building"))
		if err != nil {
			return api.ErrorResponse(ctx, err, c.logger)
		}
		if rooms == nil {
			rooms = make([]dto.AddressDTO, 0)
		}
		return api.SuccessOne(ctx, http.StatusOK, "", rooms)
	default:
		return api.ErrorResponse(ctx, apperrors.NewBadRequestError("未知的查询步骤"), c.logger)
	}
}

func (c *AddressController) GetAddress(ctx echo.Context) error {
	id, err := parseIDParam(ctx, "id", "地址ID格式不正确")
	if err != nil {
		return api.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.directoryService.GetAddress(ctx.Request().Context(), callerFrom(ctx), id)
	if err != nil {
		return api.ErrorResponse(ctx, err, c.logger)
	}
	return api.SuccessOne(ctx, http.StatusOK, "", res)
}

func (c *AddressController) UpdateResident(ctx echo.Context) error {
	id, err := parseIDParam(ctx, "id", "地址ID格式不正确")
	if err != nil {
		return api.ErrorResponse(ctx, err, c.logger)
	}

	var payload dto.UpdateResidentDTO
	if err := ctx.Bind(&payload); err != nil {
		return api.ErrorResponse(ctx, apperrors.NewBadRequestError("请求格式不正确"), c.logger)
	}
	if err := ctx.Validate(&payload); err != nil {
		return api.ErrorResponse(ctx, validationError(err, residentFieldMessages, "住户信息格式不正确"), c.logger)
	}

	res, err := c.directoryService.UpdateResident(ctx.Request().Context(), callerFrom(ctx), id, payload)
	if err != nil {
		return api.ErrorResponse(ctx, err, c.logger)
	}
	return api.SuccessOne(ctx, http.StatusOK, "住户信息已更新", res)
}
