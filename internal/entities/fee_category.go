package entities

import "fmt"

// FeeCategory: фиксированный набор видов платежей.
type FeeCategory int

const (
	FeeElectricity FeeCategory = iota + 1
	FeeHotWater
	FeeColdWater
	FeeNetwork
	FeeParking
	FeeRent
	FeeManagement
)

// AllFeeCategories в порядке вывода в отчётах и выгрузках.
var AllFeeCategories = []FeeCategory{
	FeeElectricity,
	FeeHotWater,
	FeeColdWater,
	FeeNetwork,
	FeeParking,
	FeeRent,
	FeeManagement,
}

// Code: идентификатор вида платежа в JSON.
func (c FeeCategory) Code() string {
	switch c {
	case FeeElectricity:
		return "electricity"
	case FeeHotWater:
		return "hotWater"
	case FeeColdWater:
		return "coldWater"
	case FeeNetwork:
		return "network"
	case FeeParking:
		return "parking"
	case FeeRent:
		return "rent"
	case FeeManagement:
		return "management"
	}
	return fmt.Sprintf("FeeCategory(%d)", int(c))
}

// Title: название для квитанций и отчётов.
func (c FeeCategory) Title() string {
	switch c {
	case FeeElectricity:
		return "电费"
	case FeeHotWater:
		return "热水费"
	case FeeColdWater:
		return "冷水费"
	case FeeNetwork:
		return "网费"
	case FeeParking:
		return "停车费"
	case FeeRent:
		return "房租"
	case FeeManagement:
		return "管理费"
	}
	return c.Code()
}

// Unit: единица количества.
func (c FeeCategory) Unit() string {
	switch c {
	case FeeElectricity:
		return "度"
	case FeeHotWater, FeeColdWater:
		return "吨"
	case FeeNetwork, FeeParking, FeeRent, FeeManagement:
		return "月"
	}
	return ""
}

// Column: префикс пары колонок (<col>_qty, <col>_amount) в таблице orders.
func (c FeeCategory) Column() string {
	switch c {
	case FeeElectricity:
		return "electricity"
	case FeeHotWater:
		return "hot_water"
	case FeeColdWater:
		return "cold_water"
	case FeeNetwork:
		return "network"
	case FeeParking:
		return "parking"
	case FeeRent:
		return "rent"
	case FeeManagement:
		return "management"
	}
	return ""
}

func (c FeeCategory) QuantityColumn() string { return c.Column() + "_qty" }
func (c FeeCategory) AmountColumn() string   { return c.Column() + "_amount" }

func (c FeeCategory) Valid() bool {
	return c >= FeeElectricity && c <= FeeManagement
}

func ParseFeeCategory(code string) (FeeCategory, bool) {
	for _, c := range AllFeeCategories {
		if c.Code() == code {
			return c, true
		}
	}
	return 0, false
}
