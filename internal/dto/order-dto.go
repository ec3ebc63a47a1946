package dto

import (
	"github.com/shopspring/decimal"
)

// OrderItemDTO описывает одну строку оплаты. Type содержит код вида платежа (electricity, hotWater, ...).
type OrderItemDTO struct {
	Type      string          `json:"type"`
	Quantity  decimal.Decimal `json:"quantity"`
	Amount    decimal.Decimal `json:"amount"`
	CarPlate  string          `json:"carPlate,omitempty"`
	StartDate string          `json:"startDate,omitempty"`
	EndDate   string          `json:"endDate,omitempty"`
}

// CreateOrderDTO: обязательность addressId, paymentMethod, totalAmount, items проверяет сервис,
// чтобы назвать отсутствующее поле.
type CreateOrderDTO struct {
	AddressID       *uint64          `json:"addressId"`
	PaymentMethod   *string          `json:"paymentMethod"`
	TotalAmount     *decimal.Decimal `json:"totalAmount"`
	Items           []OrderItemDTO   `json:"items"`
	OriginalOrderID *uint64          `json:"originalOrderId"`
	EntryTime       string           `json:"entryTime"`
	Remark          string           `json:"remark"`
	ResidentName    *string          `json:"residentName"`
	ResidentPhone   *string          `json:"residentPhone"`

	RentMonths       *decimal.Decimal `json:"rentMonths"`
	RentAmount       *decimal.Decimal `json:"rentAmount"`
	ManagementMonths *decimal.Decimal `json:"managementMonths"`
	ManagementAmount *decimal.Decimal `json:"managementAmount"`
}

type CreateOrderResponseDTO struct {
	OrderID     uint64          `json:"orderId"`
	BillNumber  string          `json:"billNumber"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
}

type OrderListItemDTO struct {
	OrderID       uint64          `json:"orderId"`
	BillNumber    string          `json:"billNumber"`
	AddressID     uint64          `json:"addressId"`
	OperatorID    uint64          `json:"operatorId"`
	CommunityID   int             `json:"communityId"`
	EntryTime     string          `json:"entryTime"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	PaymentMethod string          `json:"paymentMethod"`
	FeeItems      string          `json:"feeItems"`
	Remark        string          `json:"remark"`
	RedReverse    int             `json:"redReverse"`
}

type FeeBreakdownDTO struct {
	Category  string          `json:"type"`
	Name      string          `json:"name"`
	Quantity  decimal.Decimal `json:"quantity"`
	Unit      string          `json:"unit"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Amount    decimal.Decimal `json:"amount"`
	CarPlate  string          `json:"carPlate,omitempty"`
	StartDate string          `json:"startDate,omitempty"`
	EndDate   string          `json:"endDate,omitempty"`
}

type OrderDetailDTO struct {
	OrderID       uint64            `json:"orderId"`
	BillNumber    string            `json:"billNumber"`
	EntryTime     string            `json:"entryTime"`
	TotalAmount   decimal.Decimal   `json:"totalAmount"`
	PaymentMethod string            `json:"paymentMethod"`
	Remark        string            `json:"remark"`
	RedReverse    int               `json:"redReverse"`
	Operator      string            `json:"operator"`
	Community     string            `json:"community"`
	AddressID     uint64            `json:"addressId"`
	Building      string            `json:"building"`
	Room          string            `json:"room"`
	ResidentName  string            `json:"residentName"`
	ResidentPhone string            `json:"residentPhone"`
	Items         []FeeBreakdownDTO `json:"items"`
}

// RecentOrderDTO: строка журнала кассы и расширенного поиска.
type RecentOrderDTO struct {
	OrderID       uint64          `json:"orderId"`
	BillNumber    string          `json:"billNumber"`
	AddressID     uint64          `json:"addressId"`
	EntryTime     string          `json:"entryTime"`
	Community     string          `json:"community"`
	Building      string          `json:"building"`
	Room          string          `json:"room"`
	ResidentName  string          `json:"residentName"`
	ResidentPhone string          `json:"residentPhone"`
	Operator      string          `json:"operator"`
	FeeItems      string          `json:"feeItems"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	PaymentMethod string          `json:"paymentMethod"`
	Remark        string          `json:"remark"`
	RedReverse    int             `json:"redReverse"`
}

type RecentOrdersDTO struct {
	Orders     []RecentOrderDTO `json:"orders"`
	TodayTotal decimal.Decimal  `json:"todayTotal"`
}

type TodayTotalDTO struct {
	TodayTotal decimal.Decimal `json:"todayTotal"`
	Count      int             `json:"count"`
}

// OrderListQueryDTO: параметры GET /api/orders.
type OrderListQueryDTO struct {
	BillNumber string `query:"billNumber"`
	AddressID  uint64 `query:"addressId"`
	StartDate  string `query:"startDate"`
	EndDate    string `query:"endDate"`
}

// OrderSearchDTO: параметры GET /api/v1/orders/query.
type OrderSearchDTO struct {
	StartTime  string `query:"startTime"`
	EndTime    string `query:"endTime"`
	BuildingID string `query:"buildingId"`
	RoomID     string `query:"roomId"`
	SortField  string `query:"sort"`
	SortOrder  string `query:"order"`
}

type PaymentHistoryQueryDTO struct {
	AddressID uint64 `query:"address_id"`
	Limit     uint64 `query:"limit"`
}
