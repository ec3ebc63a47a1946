package services

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"property-billing/internal/dto"
	"property-billing/internal/entities"
	apperrors "property-billing/pkg/errors"
	"property-billing/pkg/types"
	"property-billing/pkg/utils"
)

const detailedSheet = "详细订单查询"

// ExportFile: готовая выгрузка и имя файла для Content-Disposition.
type ExportFile struct {
	Name    string
	Content *bytes.Buffer
}

// exportFeeColumns: порядок пар «количество/сумма» в выгрузке.
var exportFeeColumns = []struct {
	Category      entities.FeeCategory
	QuantityTitle string
	AmountTitle   string
}{
	{entities.FeeElectricity, "电费度数", "电费金额"},
	{entities.FeeHotWater, "热水吨数", "热水金额"},
	{entities.FeeColdWater, "冷水吨数", "冷水金额"},
	{entities.FeeNetwork, "网费月数", "网费金额"},
	{entities.FeeRent, "房租月数", "房租金额"},
	{entities.FeeManagement, "管理费月数", "管理费金额"},
	{entities.FeeParking, "停车费月数", "停车费金额"},
}

func detailedHeaders() []interface{} {
	headers := []interface{}{"序号", "小区", "订单号", "收费日期", "楼栋号", "房号", "姓名", "电话", "收费金额", "收款方式"}
	for _, c := range exportFeeColumns {
		headers = append(headers, c.QuantityTitle, c.AmountTitle)
	}
	return append(headers, "车牌号", "停车开始日期", "停车结束日期", "备注")
}

func quantityCell(v decimal.Decimal) interface{} {
	if v.IsZero() {
		return ""
	}
	return v.InexactFloat64()
}

func (s *ReportService) detailedRow(idx int, r *entities.DetailedOrderRow) []interface{} {
	row := []interface{}{
		idx,
		r.CommunityName,
		r.BillNumber,
		r.EntryTime.In(s.location).Format(utils.DateTimeLayout),
		r.Building,
		r.Room,
		r.ResidentName,
		r.ResidentPhone,
		r.TotalAmount.Round(2).InexactFloat64(),
		r.PaymentMethod,
	}
	for _, c := range exportFeeColumns {
		line := r.Fee(c.Category)
		row = append(row, quantityCell(line.Quantity), line.Amount.Round(2).InexactFloat64())
	}
	return append(row,
		r.ParkingInfo.CarPlate,
		formatTimePtr(r.ParkingInfo.StartDate, utils.DateLayout),
		formatTimePtr(r.ParkingInfo.EndDate, utils.DateLayout),
		r.Remark,
	)
}

func exportFailed(err error) error {
	return apperrors.NewHttpError(http.StatusInternalServerError, "导出失败", err, nil)
}

func (s *ReportService) ExportDetailed(ctx context.Context, caller Caller, query dto.DetailedOrderQueryDTO) (*ExportFile, error) {
	filter, err := s.detailedFilter(caller, query)
	if err != nil {
		return nil, err
	}
	rows, _, err := s.reportRepo.Detailed(ctx, filter, types.Page{Number: 1})
	if err != nil {
		s.logger.Error("Ошибка выборки для выгрузки", zap.Error(err))
		return nil, exportFailed(err)
	}

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", detailedSheet); err != nil {
		return nil, exportFailed(err)
	}
	headers := detailedHeaders()
	if err := f.SetSheetRow(detailedSheet, "A1", &headers); err != nil {
		return nil, exportFailed(err)
	}
	style, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	lastCol, _ := excelize.ColumnNumberToName(len(headers))
	_ = f.SetCellStyle(detailedSheet, "A1", lastCol+"1", style)
	_ = f.SetColWidth(detailedSheet, "C", "D", 22)

	for i := range rows {
		row := s.detailedRow(i+1, &rows[i])
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			s.logger.Error("Ошибка адреса ячейки выгрузки", zap.Int("row", i+2), zap.Error(err))
			return nil, exportFailed(err)
		}
		if err := f.SetSheetRow(detailedSheet, cell, &row); err != nil {
			s.logger.Error("Ошибка записи строки выгрузки", zap.Int("row", i+2), zap.Error(err))
			return nil, exportFailed(err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		s.logger.Error("Ошибка сохранения выгрузки", zap.Error(err))
		return nil, exportFailed(err)
	}

	s.auditService.Record(ctx, caller, AuditRecord{
		OperationType: AuditExportOrders,
		Module:        "orders",
		Details:       fmt.Sprintf("导出了%d条详细订单数据", len(rows)),
		TargetType:    "order",
	})

	return &ExportFile{
		Name:    fmt.Sprintf("详细订单查询_%s.xlsx", s.now().In(s.location).Format("20060102_150405")),
		Content: buf,
	}, nil
}
