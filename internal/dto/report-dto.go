package dto

import (
	"github.com/shopspring/decimal"
)

// ReportQueryDTO содержит общие параметры отчётов. Community это название комплекса.
type ReportQueryDTO struct {
	StartDate string `query:"start_date"`
	EndDate   string `query:"end_date"`
	Community string `query:"community"`
	Dimension string `query:"dimension"`
}

type OverviewDTO struct {
	TotalCount   uint64          `json:"totalCount"`
	TotalAmount  decimal.Decimal `json:"totalAmount"`
	AvgAmount    decimal.Decimal `json:"avgAmount"`
	MaxAmount    decimal.Decimal `json:"maxAmount"`
	CountChange  float64         `json:"countChange"`
	AmountChange float64         `json:"amountChange"`
}

type TimeSeriesDTO struct {
	Labels  []string          `json:"labels"`
	Counts  []uint64          `json:"counts"`
	Amounts []decimal.Decimal `json:"amounts"`
}

type PaymentStatDTO struct {
	Method string          `json:"name"`
	Count  uint64          `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}

type FeeTypeStatDTO struct {
	Type   string          `json:"type"`
	Name   string          `json:"name"`
	Count  uint64          `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}

// DetailedOrderQueryDTO: фильтры подробного реестра и его выгрузки.
type DetailedOrderQueryDTO struct {
	Community     string `query:"community"`
	OrderID       string `query:"orderId"`
	Building      string `query:"building"`
	Room          string `query:"room"`
	FeeType       string `query:"feeType"`
	PaymentMethod string `query:"paymentMethod"`
	StartDate     string `query:"startDate"`
	EndDate       string `query:"endDate"`
}

type DetailedOrderDTO struct {
	OrderID          uint64          `json:"orderId"`
	BillNumber       string          `json:"billNumber"`
	Community        string          `json:"community"`
	EntryTime        string          `json:"entryTime"`
	Building         string          `json:"building"`
	Room             string          `json:"room"`
	ResidentName     string          `json:"residentName"`
	ResidentPhone    string          `json:"residentPhone"`
	TotalAmount      decimal.Decimal `json:"totalAmount"`
	PaymentMethod    string          `json:"paymentMethod"`
	Operator         string          `json:"operator"`
	FeeItems         string          `json:"feeItems"`
	CarPlate         string          `json:"carPlate"`
	ParkingStartDate string          `json:"parkingStartDate"`
	ParkingEndDate   string          `json:"parkingEndDate"`
	Remark           string          `json:"remark"`
	RedReverse       int             `json:"redReverse"`
}
