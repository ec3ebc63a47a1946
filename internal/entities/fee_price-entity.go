package entities

import (
	"github.com/shopspring/decimal"

	"property-billing/pkg/types"
)

// FeePrice: тарифы одного жилого комплекса.
type FeePrice struct {
	ID              uint64 `json:"id" db:"id"`
	CommunityNumber int    `json:"community_num" db:"community_number"`
	CommunityName   string `json:"community" db:"community_name"`

	Electricity decimal.Decimal `json:"electricity" db:"electricity"`
	ColdWater   decimal.Decimal `json:"cold_water" db:"cold_water"`
	HotWater    decimal.Decimal `json:"hot_water" db:"hot_water"`
	Network     decimal.Decimal `json:"network" db:"network"`
	Parking     decimal.Decimal `json:"parking" db:"parking"`
	Rent        decimal.Decimal `json:"rent" db:"rent"`
	Management  decimal.Decimal `json:"management" db:"management"`

	types.BaseEntity
}

func (p *FeePrice) Price(c FeeCategory) decimal.Decimal {
	switch c {
	case FeeElectricity:
		return p.Electricity
	case FeeHotWater:
		return p.HotWater
	case FeeColdWater:
		return p.ColdWater
	case FeeNetwork:
		return p.Network
	case FeeParking:
		return p.Parking
	case FeeRent:
		return p.Rent
	case FeeManagement:
		return p.Management
	}
	return decimal.Zero
}

func (p *FeePrice) SetPrice(c FeeCategory, v decimal.Decimal) {
	switch c {
	case FeeElectricity:
		p.Electricity = v
	case FeeHotWater:
		p.HotWater = v
	case FeeColdWater:
		p.ColdWater = v
	case FeeNetwork:
		p.Network = v
	case FeeParking:
		p.Parking = v
	case FeeRent:
		p.Rent = v
	case FeeManagement:
		p.Management = v
	}
}

// PriceChanges: частичное обновление тарифов.
type PriceChanges map[FeeCategory]decimal.Decimal
