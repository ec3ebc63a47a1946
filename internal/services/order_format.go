package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"property-billing/internal/dto"
	"property-billing/internal/entities"
	"property-billing/pkg/utils"
)

const parkingDateLayout = "2006/01/02"

func formatTimePtr(t *time.Time, layout string) string {
	if t == nil {
		return ""
	}
	return t.Format(layout)
}

func formatMoney(v decimal.Decimal) string {
	return v.StringFixed(2)
}

// feeItemLine: строка вида «电费 | 50度 | ¥42.50»; для парковки добавляются период и номер машины.
func feeItemLine(o *entities.Order, c entities.FeeCategory) string {
	line := o.Fee(c)
	unit := c.Unit()
	if unit == "月" {
		unit = "个月"
	}
	text := fmt.Sprintf("%s | %s%s | ¥%s", c.Title(), line.Quantity.String(), unit, formatMoney(line.Amount))
	if c != entities.FeeParking {
		return text
	}

	dateRange := ""
	if o.ParkingInfo.StartDate != nil && o.ParkingInfo.EndDate != nil {
		dateRange = o.ParkingInfo.StartDate.Format(parkingDateLayout) + "-" + o.ParkingInfo.EndDate.Format(parkingDateLayout)
	}
	return fmt.Sprintf("%s | %s| %s", text, dateRange, o.ParkingInfo.CarPlate)
}

// FeeItemsSummary перечисляет ненулевые платежи заказа построчно.
func FeeItemsSummary(o *entities.Order) string {
	var lines []string
	for _, c := range entities.AllFeeCategories {
		if o.Fee(c).Amount.IsZero() {
			continue
		}
		lines = append(lines, feeItemLine(o, c))
	}
	return strings.Join(lines, "\n")
}

func feeBreakdown(o *entities.Order) []dto.FeeBreakdownDTO {
	items := []dto.FeeBreakdownDTO{}
	for _, c := range entities.AllFeeCategories {
		line := o.Fee(c)
		if line.Amount.IsZero() {
			continue
		}
		item := dto.FeeBreakdownDTO{
			Category:  c.Code(),
			Name:      c.Title(),
			Quantity:  line.Quantity,
			Unit:      c.Unit(),
			UnitPrice: line.UnitPrice().Round(2),
			Amount:    line.Amount,
		}
		if c == entities.FeeParking {
			item.CarPlate = o.ParkingInfo.CarPlate
			item.StartDate = formatTimePtr(o.ParkingInfo.StartDate, utils.DateLayout)
			item.EndDate = formatTimePtr(o.ParkingInfo.EndDate, utils.DateLayout)
		}
		items = append(items, item)
	}
	return items
}

func newOrderListItem(o *entities.Order, loc *time.Location) dto.OrderListItemDTO {
	return dto.OrderListItemDTO{
		OrderID:       o.ID,
		BillNumber:    o.BillNumber,
		AddressID:     o.AddressID,
		OperatorID:    o.OperatorID,
		CommunityID:   o.CommunityID,
		EntryTime:     o.EntryTime.In(loc).Format(utils.DateTimeLayout),
		TotalAmount:   o.TotalAmount,
		PaymentMethod: o.PaymentMethod,
		FeeItems:      FeeItemsSummary(o),
		Remark:        o.Remark,
		RedReverse:    o.ReversalFlag,
	}
}

func newRecentOrder(r *entities.DetailedOrderRow, loc *time.Location) dto.RecentOrderDTO {
	return dto.RecentOrderDTO{
		OrderID:       r.ID,
		BillNumber:    r.BillNumber,
		AddressID:     r.AddressID,
		EntryTime:     r.EntryTime.In(loc).Format(utils.DateTimeLayout),
		Community:     r.CommunityName,
		Building:      r.Building,
		Room:          r.Room,
		ResidentName:  r.ResidentName,
		ResidentPhone: r.ResidentPhone,
		Operator:      r.OperatorName,
		FeeItems:      FeeItemsSummary(&r.Order),
		TotalAmount:   r.TotalAmount,
		PaymentMethod: r.PaymentMethod,
		Remark:        r.Remark,
		RedReverse:    r.ReversalFlag,
	}
}
