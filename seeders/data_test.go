package seeders

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestSeedDataConsistent(t *testing.T) {
	known := map[int]bool{}
	for _, c := range communitiesData {
		assert.False(t, known[c.Number], "номер %d повторяется", c.Number)
		known[c.Number] = true
	}
	assert.True(t, known[HeadquartersNumber])

	for _, p := range pricesData {
		assert.True(t, known[p.CommunityNumber], "тарифы для неизвестного комплекса %d", p.CommunityNumber)
		for _, v := range []string{p.Electricity, p.ColdWater, p.HotWater, p.Network, p.Parking, p.Rent, p.Management} {
			d, err := decimal.NewFromString(v)
			if assert.NoError(t, err) {
				assert.False(t, d.IsNegative())
			}
		}
	}

	for _, a := range addressesData {
		assert.True(t, known[a.CommunityNumber])
		assert.NotEmpty(t, a.Rooms)
	}
}
