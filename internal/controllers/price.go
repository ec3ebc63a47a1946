package controllers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"property-billing/internal/dto"
	"property-billing/internal/services"
	"property-billing/pkg/api"
	apperrors "property-billing/pkg/errors"
	"property-billing/pkg/utils"
	"property-billing/pkg/validation"
)

const (
	defaultPricePerPage = 20
	priceUploadField    = "file"
)

type PriceController struct {
	priceService services.PriceServiceInterface
	location     *time.Location
	logger       *zap.Logger
}

func NewPriceController(priceService services.PriceServiceInterface, location *time.Location, logger *zap.Logger) *PriceController {
	return &PriceController{priceService: priceService, location: location, logger: logger}
}

func (c *PriceController) communityNumberParam(ctx echo.Context) (int, error) {
	n, err := strconv.Atoi(ctx.Param("communityNumber"))
	if err != nil || n <= 0 {
		return 0, apperrors.NewBadRequestError("小区编号格式不正确")
	}
	return n, nil
}

// bindPrices: нечисловое значение тарифа ломает разбор decimal, это ошибка валидации.
func (c *PriceController) bindPrices(ctx echo.Context, payload interface{}) error {
	if err := ctx.Bind(payload); err != nil {
		c.logger.Debug("Не удалось разобрать тарифы", zap.Error(err))
		return apperrors.NewValidationError("价格必须为数字")
	}
	return nil
}

func (c *PriceController) GetPrices(ctx echo.Context) error {
	res, message, err := c.priceService.GetPrices(ctx.Request().Context(), callerFrom(ctx))
	if err != nil {
		return api.ErrorResponse(ctx, err, c.logger)
	}
	return api.SuccessOne(ctx, http.StatusOK, message, res)
}

func (c *PriceController) UpdateOwnPrices(ctx echo.Context) error {
	var payload dto.UpdatePricesDTO
	if err := c.bindPrices(ctx, &payload); err != nil {
		return api.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.priceService.UpdateOwnPrices(ctx.Request().Context(), callerFrom(ctx), payload)
	if err != nil {
		return api.ErrorResponse(ctx, err, c.logger)
	}
	return api.SuccessOne(ctx, http.StatusOK, "价格已更新", res)
}

func (c *PriceController) UpdatePrices(ctx echo.Context) error {
	number, err := c.communityNumberParam(ctx)
	if err != nil {
		return api.ErrorResponse(ctx, err, c.logger)
	}

	var payload dto.UpdatePricesDTO
	if err := c.bindPrices(ctx, &payload); err != nil {
		return api.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.priceService.UpdatePrices(ctx.Request().Context(), callerFrom(ctx), number, payload)
	if err != nil {
		return api.ErrorResponse(ctx, err, c.logger)
	}
	return api.SuccessOne(ctx, http.StatusOK, "价格已更新", res)
}

func (c *PriceController) CreatePriceTable(ctx echo.Context) error {
	var payload dto.CreatePriceTableDTO
	if err := c.bindPrices(ctx, &payload); err != nil {
		return api.ErrorResponse(ctx, err, c.logger)
	}
	if err := ctx.Validate(&payload); err != nil {
		return api.ErrorResponse(ctx, validationError(err, map[string]string{
			"Community":       "小区名称不能为空",
			"CommunityNumber": "小区编号必须为正整数",
		}, "参数不正确"), c.logger)
	}

	res, err := c.priceService.CreatePriceTable(ctx.Request().Context(), callerFrom(ctx), payload)
	if err != nil {
		return api.ErrorResponse(ctx, err, c.logger)
	}
	return api.SuccessOne(ctx, http.StatusCreated, "价格表已创建", res)
}

func (c *PriceController) DeletePriceTable(ctx echo.Context) error {
	number, err := c.communityNumberParam(ctx)
	if err != nil {
		return api.ErrorResponse(ctx, err, c.logger)
	}

	if err := c.priceService.DeletePriceTable(ctx.Request().Context(), callerFrom(ctx), number); err != nil {
		return api.ErrorResponse(ctx, err, c.logger)
	}
	return api.SuccessOne[any](ctx, http.StatusOK, "价格表已删除", nil)
}

func (c *PriceController) ListPriceTables(ctx echo.Context) error {
	page := utils.ParsePage(ctx.QueryParams(), defaultPricePerPage)

	list, total, err := c.priceService.ListPriceTables(ctx.Request().Context(), callerFrom(ctx), ctx.QueryParam("community"), page)
	if err != nil {
		return api.ErrorResponse(ctx, err, c.logger)
	}
	return api.SuccessList(ctx, "", list, total, page.Number, page.PerPage)
}

func (c *PriceController) ListCommunities(ctx echo.Context) error {
	list, err := c.priceService.ListCommunities(ctx.Request().Context(), callerFrom(ctx))
	if err != nil {
		return api.ErrorResponse(ctx, err, c.logger)
	}
	if list == nil {
		list = make([]string, 0)
	}
	return api.SuccessOne(ctx, http.StatusOK, "", list)
}

func (c *PriceController) ExportAll(ctx echo.Context) error {
	buf, err := c.priceService.ExportAll(ctx.Request().Context(), callerFrom(ctx))
	if err != nil {
		return api.ErrorResponse(ctx, err, c.logger)
	}
	name := fmt.Sprintf("收费价格表_%s.xlsx", time.Now().In(c.location).Format("20060102_150405"))
	return sendXLSX(ctx, name, buf.Bytes())
}

func (c *PriceController) Template(ctx echo.Context) error {
	buf, err := c.priceService.Template(ctx.Request().Context(), callerFrom(ctx))
	if err != nil {
		return api.ErrorResponse(ctx, err, c.logger)
	}
	return sendXLSX(ctx, "收费价格导入模板.xlsx", buf.Bytes())
}

func (c *PriceController) ImportAll(ctx echo.Context) error {
	fileHeader, err := ctx.FormFile(priceUploadField)
	if err != nil {
		return api.ErrorResponse(ctx, apperrors.NewBadRequestError("请选择要导入的文件"), c.logger)
	}

	file, err := fileHeader.Open()
	if err != nil {
		return api.ErrorResponse(ctx, apperrors.NewBadRequestError("读取文件失败"), c.logger)
	}
	defer file.Close()

	if err := validation.ValidateSpreadsheet(fileHeader, file); err != nil {
		return api.ErrorResponse(ctx, apperrors.NewValidationError(err.Error()), c.logger)
	}

	res, err := c.priceService.ImportAll(ctx.Request().Context(), callerFrom(ctx), file)
	if err != nil {
		return api.ErrorResponse(ctx, err, c.logger)
	}
	return api.SuccessOne(ctx, http.StatusOK, fmt.Sprintf("导入完成：成功%d条，失败%d条", res.SuccessCount, res.ErrorCount), res)
}
