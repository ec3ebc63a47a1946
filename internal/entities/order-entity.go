package entities

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ReversalMarker дописывается в примечание сторнированного заказа.
const ReversalMarker = "【已被红冲】"

// FeeLine: количество и сумма по одному виду платежа.
type FeeLine struct {
	Quantity decimal.Decimal `json:"quantity"`
	Amount   decimal.Decimal `json:"amount"`
}

func (l FeeLine) IsZero() bool {
	return l.Quantity.IsZero() && l.Amount.IsZero()
}

// UnitPrice вычисляется, в базе не хранится.
func (l FeeLine) UnitPrice() decimal.Decimal {
	if l.Quantity.GreaterThan(decimal.Zero) {
		return l.Amount.Div(l.Quantity)
	}
	return decimal.Zero
}

type ParkingInfo struct {
	CarPlate  string     `json:"car_plate"`
	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
}

type Order struct {
	ID            uint64          `json:"id" db:"id"`
	BillNumber    string          `json:"bill_number" db:"bill_number"`
	AddressID     uint64          `json:"address_id" db:"address_id"`
	OperatorID    uint64          `json:"operator_id" db:"operator_id"`
	CommunityID   int             `json:"community_id" db:"community_id"`
	EntryTime     time.Time       `json:"entry_time" db:"entry_time"`
	TotalAmount   decimal.Decimal `json:"total_amount" db:"total_amount"`
	RefundAmount  decimal.Decimal `json:"refund_amount" db:"refund_amount"`
	PaymentMethod string          `json:"payment_method" db:"payment_method"`

	Electricity FeeLine     `json:"electricity"`
	HotWater    FeeLine     `json:"hot_water"`
	ColdWater   FeeLine     `json:"cold_water"`
	Network     FeeLine     `json:"network"`
	Parking     FeeLine     `json:"parking"`
	Rent        FeeLine     `json:"rent"`
	Management  FeeLine     `json:"management"`
	ParkingInfo ParkingInfo `json:"parking_info"`

	Remark       string `json:"remark" db:"remark"`
	ReversalFlag int    `json:"reversal_flag" db:"reversal_flag"`
}

func (o *Order) Fee(c FeeCategory) FeeLine {
	switch c {
	case FeeElectricity:
		return o.Electricity
	case FeeHotWater:
		return o.HotWater
	case FeeColdWater:
		return o.ColdWater
	case FeeNetwork:
		return o.Network
	case FeeParking:
		return o.Parking
	case FeeRent:
		return o.Rent
	case FeeManagement:
		return o.Management
	}
	return FeeLine{}
}

func (o *Order) SetFee(c FeeCategory, line FeeLine) {
	switch c {
	case FeeElectricity:
		o.Electricity = line
	case FeeHotWater:
		o.HotWater = line
	case FeeColdWater:
		o.ColdWater = line
	case FeeNetwork:
		o.Network = line
	case FeeParking:
		o.Parking = line
	case FeeRent:
		o.Rent = line
	case FeeManagement:
		o.Management = line
	}
}

func (o *Order) IsReversed() bool {
	return strings.Contains(o.Remark, ReversalMarker)
}

// MarkReversed дописывает маркер сторно один раз. Возвращает false, если маркер уже был.
func (o *Order) MarkReversed() bool {
	o.ReversalFlag = 1
	if o.IsReversed() {
		return false
	}
	o.Remark += ReversalMarker
	return true
}

// OrderDetail: заказ вместе с адресом и оператором.
type OrderDetail struct {
	Order
	Address       Address `json:"address"`
	OperatorName  string  `json:"operator_name"`
	CommunityName string  `json:"community_name"`
}

// OrderFilter: фильтры списка заказов.
type OrderFilter struct {
	CommunityID *int
	BillNumber  string
	AddressID   *uint64
	StartDate   *time.Time
	// EndBefore: исключающая граница (следующий день после endDate).
	EndBefore *time.Time
}

// OrderQuery: расширенный поиск по интервалу времени и адресу.
type OrderQuery struct {
	CommunityID *int
	Start       *time.Time
	End         *time.Time
	Building    string
	Room        string
	SortField   string
	SortDesc    bool
}
