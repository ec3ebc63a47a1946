package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"property-billing/internal/entities"
)

// PriceSetDTO: тарифы в формате, который ожидает касса.
type PriceSetDTO struct {
	Electricity decimal.Decimal `json:"electricity"`
	ColdWater   decimal.Decimal `json:"coldWater"`
	HotWater    decimal.Decimal `json:"hotWater"`
	Network     decimal.Decimal `json:"network"`
	Parking     decimal.Decimal `json:"parking"`
	RentFee     decimal.Decimal `json:"rent_fee"`
	ManageFee   decimal.Decimal `json:"manage_fee"`
}

type PricesResponseDTO struct {
	PriceSetDTO
	Configured bool `json:"configured"`
}

// PriceFieldsDTO: частичный набор тарифов; nil означает «не менять».
type PriceFieldsDTO struct {
	Electricity *decimal.Decimal `json:"electricity"`
	ColdWater   *decimal.Decimal `json:"coldWater"`
	HotWater    *decimal.Decimal `json:"hotWater"`
	Network     *decimal.Decimal `json:"network"`
	Parking     *decimal.Decimal `json:"parking"`
	RentFee     *decimal.Decimal `json:"rent_fee"`
	ManageFee   *decimal.Decimal `json:"manage_fee"`
}

type UpdatePricesDTO struct {
	PriceFieldsDTO
}

type CreatePriceTableDTO struct {
	Community       string `json:"community" validate:"required,max=100"`
	CommunityNumber *int   `json:"community_num" validate:"omitempty,gt=0"`
	PriceFieldsDTO
}

type FeePriceDTO struct {
	ID              uint64 `json:"id"`
	CommunityNumber int    `json:"community_num"`
	Community       string `json:"community"`
	PriceSetDTO
	CreatedAt *time.Time `json:"created_at,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

type ImportResultDTO struct {
	SuccessCount int      `json:"successCount"`
	ErrorCount   int      `json:"errorCount"`
	Errors       []string `json:"errors"`
}

// Changes возвращает только переданные поля.
func (d PriceFieldsDTO) Changes() entities.PriceChanges {
	changes := entities.PriceChanges{}
	set := func(c entities.FeeCategory, v *decimal.Decimal) {
		if v != nil {
			changes[c] = *v
		}
	}
	set(entities.FeeElectricity, d.Electricity)
	set(entities.FeeColdWater, d.ColdWater)
	set(entities.FeeHotWater, d.HotWater)
	set(entities.FeeNetwork, d.Network)
	set(entities.FeeParking, d.Parking)
	set(entities.FeeRent, d.RentFee)
	set(entities.FeeManagement, d.ManageFee)
	return changes
}

func NewPriceSetDTO(p *entities.FeePrice) PriceSetDTO {
	return PriceSetDTO{
		Electricity: p.Electricity,
		ColdWater:   p.ColdWater,
		HotWater:    p.HotWater,
		Network:     p.Network,
		Parking:     p.Parking,
		RentFee:     p.Rent,
		ManageFee:   p.Management,
	}
}

func NewFeePriceDTO(p *entities.FeePrice) FeePriceDTO {
	return FeePriceDTO{
		ID:              p.ID,
		CommunityNumber: p.CommunityNumber,
		Community:       p.CommunityName,
		PriceSetDTO:     NewPriceSetDTO(p),
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}
