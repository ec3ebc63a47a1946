package seeders

import "github.com/shopspring/decimal"

// HeadquartersNumber: комплекс, к которому привязан администратор.
const HeadquartersNumber = 1

type communitySeed struct {
	Number int
	Name   string
}

type priceSeed struct {
	CommunityNumber int
	Electricity     string
	ColdWater       string
	HotWater        string
	Network         string
	Parking         string
	Rent            string
	Management      string
}

type addressSeed struct {
	CommunityNumber int
	Building        string
	Rooms           []string
}

var communitiesData = []communitySeed{
	{Number: HeadquartersNumber, Name: "总部"},
	{Number: 2, Name: "阳光花园"},
	{Number: 3, Name: "翠湖苑"},
}

var pricesData = []priceSeed{
	{CommunityNumber: 2, Electricity: "0.85", ColdWater: "3.5", HotWater: "25", Network: "50", Parking: "150", Rent: "1200", Management: "80"},
	{CommunityNumber: 3, Electricity: "0.62", ColdWater: "3.2", HotWater: "22", Network: "40", Parking: "120", Rent: "0", Management: "65"},
}

var addressesData = []addressSeed{
	{CommunityNumber: 2, Building: "1号楼", Rooms: []string{"101", "102", "201", "202"}},
	{CommunityNumber: 2, Building: "2号楼", Rooms: []string{"101", "102A"}},
	{CommunityNumber: 2, Building: "商铺", Rooms: []string{"S1", "S2"}},
	{CommunityNumber: 3, Building: "A座", Rooms: []string{"1", "2", "10"}},
}

func mustDecimal(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
