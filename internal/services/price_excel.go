package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"property-billing/internal/authz"
	"property-billing/internal/dto"
	"property-billing/internal/entities"
	apperrors "property-billing/pkg/errors"
	"property-billing/pkg/utils"
)

const (
	priceSheet         = "收费标准"
	colCommunityName   = "小区名称"
	colCommunityNumber = "小区编号"
	maxImportErrors    = 10
)

// priceColumns: обязательные колонки тарифов в порядке выгрузки.
var priceColumns = []struct {
	Header   string
	Category entities.FeeCategory
}{
	{"电费单价(元/度)", entities.FeeElectricity},
	{"冷水费单价(元/吨)", entities.FeeColdWater},
	{"热水费单价(元/吨)", entities.FeeHotWater},
	{"网费单价(元/月)", entities.FeeNetwork},
	{"停车费单价(元/月)", entities.FeeParking},
	{"房租单价(元/月)", entities.FeeRent},
	{"管理费单价(元/月)", entities.FeeManagement},
}

func priceHeaders(withNumber bool) []interface{} {
	headers := []interface{}{colCommunityName}
	if withNumber {
		headers = append(headers, colCommunityNumber)
	}
	for _, c := range priceColumns {
		headers = append(headers, c.Header)
	}
	return headers
}

func newPriceWorkbook(headers []interface{}) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", priceSheet); err != nil {
		return nil, err
	}
	if err := f.SetSheetRow(priceSheet, "A1", &headers); err != nil {
		return nil, err
	}
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	lastCol, _ := excelize.ColumnNumberToName(len(headers))
	_ = f.SetCellStyle(priceSheet, "A1", lastCol+"1", style)
	_ = f.SetColWidth(priceSheet, "A", lastCol, 18)
	return f, nil
}

func (s *PriceService) ExportAll(ctx context.Context, caller Caller) (*bytes.Buffer, error) {
	if !authz.Can(caller.User, authz.PricesManage, nil) {
		return nil, apperrors.NewForbiddenError("需要管理员权限")
	}
	prices, err := s.priceRepo.ListAll(ctx)
	if err != nil {
		s.logger.Error("Ошибка выгрузки тарифов", zap.Error(err))
		return nil, apperrors.NewDatabaseError(err)
	}

	headers := append(priceHeaders(true), "创建时间", "更新时间")
	f, err := newPriceWorkbook(headers)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания книги тарифов: %w", err)
	}
	defer f.Close()

	for i, p := range prices {
		row := []interface{}{p.CommunityName, p.CommunityNumber}
		for _, c := range priceColumns {
			row = append(row, p.Price(c.Category).InexactFloat64())
		}
		row = append(row, formatTimePtr(p.CreatedAt, utils.DateTimeLayout), formatTimePtr(p.UpdatedAt, utils.DateTimeLayout))
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, fmt.Errorf("ошибка адреса ячейки тарифов: %w", err)
		}
		if err := f.SetSheetRow(priceSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("ошибка записи строки тарифов: %w", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("ошибка сохранения книги тарифов: %w", err)
	}
	return buf, nil
}

func (s *PriceService) Template(ctx context.Context, caller Caller) (*bytes.Buffer, error) {
	if !authz.Can(caller.User, authz.PricesManage, nil) {
		return nil, apperrors.NewForbiddenError("需要管理员权限")
	}
	f, err := newPriceWorkbook(priceHeaders(true))
	if err != nil {
		return nil, fmt.Errorf("ошибка создания шаблона: %w", err)
	}
	defer f.Close()

	samples := [][]interface{}{
		{"示例小区1", 1, 0.85, 3.50, 25.00, 80.00, 150.00, 1200.00, 2.50},
		{"示例小区2", 2, 0.90, 3.80, 28.00, 90.00, 180.00, 1500.00, 2.80},
	}
	for i, row := range samples {
		row := row
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, fmt.Errorf("ошибка адреса ячейки шаблона: %w", err)
		}
		if err := f.SetSheetRow(priceSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("ошибка записи шаблона: %w", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("ошибка сохранения шаблона: %w", err)
	}
	return buf, nil
}

// ImportAll: отсутствие обязательной колонки прерывает импорт до обработки строк.
// Каждая строка применяется в своей транзакции, ошибки строк копятся в результате.
func (s *PriceService) ImportAll(ctx context.Context, caller Caller, file io.Reader) (*dto.ImportResultDTO, error) {
	if !authz.Can(caller.User, authz.PricesManage, nil) {
		return nil, apperrors.NewForbiddenError("需要管理员权限")
	}

	f, err := excelize.OpenReader(file)
	if err != nil {
		return nil, apperrors.NewBadRequestError("只支持Excel格式（.xlsx）")
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, apperrors.NewBadRequestError("文件中没有工作表")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, apperrors.NewBadRequestError("无法读取工作表")
	}
	if len(rows) == 0 {
		return nil, apperrors.NewBadRequestError(fmt.Sprintf("缺少必要列: %s", colCommunityName))
	}

	index := map[string]int{}
	for i, h := range rows[0] {
		index[strings.TrimSpace(h)] = i
	}
	required := []string{colCommunityName}
	for _, c := range priceColumns {
		required = append(required, c.Header)
	}
	for _, h := range required {
		if _, ok := index[h]; !ok {
			return nil, apperrors.NewBadRequestError(fmt.Sprintf("缺少必要列: %s", h))
		}
	}
	numberIdx, hasNumber := index[colCommunityNumber]

	result := &dto.ImportResultDTO{Errors: []string{}}
	var touched []int
	for i, row := range rows[1:] {
		lineNum := i + 2
		name := cellAt(row, index[colCommunityName])
		if name == "" {
			continue
		}

		price, err := parsePriceRow(row, index)
		var number *int
		if hasNumber && err == nil {
			number, err = parseOptionalInt(cellAt(row, numberIdx), colCommunityNumber)
		}
		if err == nil {
			var communityNumber int
			communityNumber, err = s.importRow(ctx, name, number, price)
			if err == nil {
				touched = append(touched, communityNumber)
			}
		}

		if err != nil {
			result.ErrorCount++
			if len(result.Errors) < maxImportErrors {
				result.Errors = append(result.Errors, fmt.Sprintf("第%d行: %s", lineNum, apperrors.PublicMessage(err)))
			}
			s.logger.Warn("Ошибка импорта строки тарифов", zap.Int("line", lineNum), zap.String("community", name), zap.Error(err))
			continue
		}
		result.SuccessCount++
	}
	s.invalidate(ctx, touched...)

	s.auditService.Record(ctx, caller, AuditRecord{
		OperationType: AuditImportPrices,
		Module:        "fee_prices",
		Details:       fmt.Sprintf("导入收费标准，成功%d条，失败%d条", result.SuccessCount, result.ErrorCount),
		TargetType:    "fee_price",
	})
	return result, nil
}

func (s *PriceService) importRow(ctx context.Context, name string, number *int, price entities.FeePrice) (int, error) {
	var communityNumber int
	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		community, err := s.communityRepo.FindByName(ctx, tx, name)
		switch {
		case err == nil:
		case errors.Is(err, apperrors.ErrNotFound) && number != nil:
			community, err = s.resolveCommunity(ctx, tx, name, number)
			if err != nil {
				return err
			}
		case errors.Is(err, apperrors.ErrNotFound):
			return apperrors.NewValidationError(fmt.Sprintf("小区 [%s] 未登记", name))
		default:
			return err
		}

		price.CommunityNumber = community.Number
		price.CommunityName = community.Name
		communityNumber = community.Number
		_, err = s.priceRepo.Upsert(ctx, tx, price)
		return err
	})
	return communityNumber, err
}

func parsePriceRow(row []string, index map[string]int) (entities.FeePrice, error) {
	var price entities.FeePrice
	for _, c := range priceColumns {
		raw := cellAt(row, index[c.Header])
		if raw == "" {
			price.SetPrice(c.Category, decimal.Zero)
			continue
		}
		v, err := decimal.NewFromString(raw)
		if err != nil {
			return price, apperrors.NewValidationError(fmt.Sprintf("%s 不是有效数字: %s", c.Header, raw))
		}
		if v.IsNegative() {
			return price, apperrors.NewValidationError(fmt.Sprintf("%s 不能为负数", c.Header))
		}
		price.SetPrice(c.Category, v)
	}
	return price, nil
}

func parseOptionalInt(raw, header string) (*int, error) {
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return nil, apperrors.NewValidationError(fmt.Sprintf("%s 不是有效编号: %s", header, raw))
	}
	return &n, nil
}

func cellAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
