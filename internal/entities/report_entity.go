package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReportScope: какие заказы видит отчёт.
type ReportScope struct {
	// CommunityID == nil: все комплексы (только для администратора).
	CommunityID   *int
	CommunityName string
}

type ReportFilter struct {
	ReportScope
	Start     time.Time
	EndBefore time.Time
}

type OrderTotals struct {
	Count uint64
	Total decimal.Decimal
	Max   decimal.Decimal
}

// OrderPoint: минимальные данные заказа для построения рядов.
type OrderPoint struct {
	EntryTime   time.Time
	TotalAmount decimal.Decimal
}

// TimeBucket: интервал ряда. Key упорядочивает интервалы, Label выводится клиенту.
type TimeBucket struct {
	Key    string
	Label  string
	Count  uint64
	Amount decimal.Decimal
}

type PaymentStat struct {
	Method string
	Count  uint64
	Amount decimal.Decimal
}

type FeeTypeStat struct {
	Category FeeCategory
	Count    uint64
	Amount   decimal.Decimal
}

// DetailedOrderFilter: фильтры подробного реестра заказов.
type DetailedOrderFilter struct {
	ReportScope
	BillNumber    string
	Building      string
	Room          string
	FeeType       *FeeCategory
	PaymentMethod string
	StartDate     *time.Time
	EndBefore     *time.Time
}

// DetailedOrderRow объединяет заказ с адресом и оператором.
type DetailedOrderRow struct {
	Order
	CommunityName string
	Building      string
	Room          string
	ResidentName  string
	ResidentPhone string
	OperatorName  string
}
