package services

import (
	"bytes"
	"context"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"property-billing/internal/dto"
	"property-billing/internal/entities"
	apperrors "property-billing/pkg/errors"
	"property-billing/pkg/types"
	"property-billing/pkg/utils"
)

type priceFixture struct {
	service     PriceServiceInterface
	prices      *fakePriceRepo
	communities *fakeCommunityRepo
	cache       *fakeCache
	audit       *fakeAudit
}

func newPriceFixture(prices ...*entities.FeePrice) *priceFixture {
	f := &priceFixture{
		prices:      newFakePriceRepo(prices...),
		communities: newFakeCommunityRepo(entities.Community{Number: 5, Name: "小区5"}),
		cache:       newFakeCache(),
		audit:       &fakeAudit{},
	}
	f.service = NewPriceService(&fakeTxManager{}, f.prices, f.communities, f.cache, f.audit, 0, zap.NewNop())
	return f
}

func community5Prices() *entities.FeePrice {
	return &entities.FeePrice{ID: 1, CommunityNumber: 5, CommunityName: "小区5",
		Electricity: decimal.RequireFromString("0.85"), Network: decimal.NewFromInt(80)}
}

func TestGetPricesNotConfigured(t *testing.T) {
	f := newPriceFixture()

	prices, message, err := f.service.GetPrices(context.Background(), Caller{User: operatorUser(5)})

	require.NoError(t, err)
	assert.False(t, prices.Configured)
	assert.True(t, prices.Electricity.IsZero())
	assert.Equal(t, "未找到编号为 5 的收费标准，请联系管理员配置", message)
}

func TestGetPricesUsesCache(t *testing.T) {
	f := newPriceFixture(community5Prices())
	caller := Caller{User: operatorUser(5)}

	first, _, err := f.service.GetPrices(context.Background(), caller)
	require.NoError(t, err)
	second, _, err := f.service.GetPrices(context.Background(), caller)
	require.NoError(t, err)

	assert.True(t, first.Configured)
	assert.True(t, second.Electricity.Equal(decimal.RequireFromString("0.85")))
	assert.Equal(t, 1, f.prices.finds)
	assert.Contains(t, f.cache.data, priceCacheKey(5))
}

func TestUpdatePricesInvalidatesCache(t *testing.T) {
	f := newPriceFixture(community5Prices())
	caller := Caller{User: operatorUser(5)}
	_, _, err := f.service.GetPrices(context.Background(), caller)
	require.NoError(t, err)

	newPrice := decimal.RequireFromString("1.20")
	updated, err := f.service.UpdateOwnPrices(context.Background(), caller,
		dto.UpdatePricesDTO{PriceFieldsDTO: dto.PriceFieldsDTO{Electricity: &newPrice}})
	require.NoError(t, err)

	assert.True(t, updated.Electricity.Equal(newPrice))
	assert.True(t, updated.Network.Equal(decimal.NewFromInt(80)))
	assert.Contains(t, f.cache.dels, priceCacheKey(5))

	prices, _, err := f.service.GetPrices(context.Background(), caller)
	require.NoError(t, err)
	assert.True(t, prices.Electricity.Equal(newPrice))
	assert.Equal(t, []string{AuditUpdatePrices}, f.audit.operations())
}

func TestUpdatePricesValidation(t *testing.T) {
	f := newPriceFixture(community5Prices())
	negative := decimal.NewFromInt(-1)

	_, err := f.service.UpdateOwnPrices(context.Background(), Caller{User: operatorUser(5)},
		dto.UpdatePricesDTO{PriceFieldsDTO: dto.PriceFieldsDTO{Parking: &negative}})
	assert.Equal(t, http.StatusBadRequest, apperrors.StatusCode(err))
	assert.Equal(t, "停车费单价不能为负数", apperrors.PublicMessage(err))

	_, err = f.service.UpdatePrices(context.Background(), Caller{User: operatorUser(5)}, 5, dto.UpdatePricesDTO{})
	assert.Equal(t, http.StatusForbidden, apperrors.StatusCode(err))

	_, err = f.service.UpdatePrices(context.Background(), Caller{User: adminUser()}, 42, dto.UpdatePricesDTO{})
	assert.Equal(t, http.StatusNotFound, apperrors.StatusCode(err))
}

func TestCreatePriceTable(t *testing.T) {
	f := newPriceFixture(community5Prices())
	admin := Caller{User: adminUser()}
	price := decimal.RequireFromString("0.95")

	_, err := f.service.CreatePriceTable(context.Background(), admin, dto.CreatePriceTableDTO{Community: "新小区"})
	assert.Equal(t, http.StatusBadRequest, apperrors.StatusCode(err))

	created, err := f.service.CreatePriceTable(context.Background(), admin, dto.CreatePriceTableDTO{
		Community:       "新小区",
		CommunityNumber: utils.ToPtr(9),
		PriceFieldsDTO:  dto.PriceFieldsDTO{Electricity: &price},
	})
	require.NoError(t, err)
	assert.Equal(t, 9, created.CommunityNumber)
	assert.True(t, created.Electricity.Equal(price))
	assert.Equal(t, []entities.Community{{Number: 9, Name: "新小区"}}, f.communities.registered)

	_, err = f.service.CreatePriceTable(context.Background(), admin, dto.CreatePriceTableDTO{Community: "小区5"})
	assert.Equal(t, http.StatusConflict, apperrors.StatusCode(err))

	_, err = f.service.CreatePriceTable(context.Background(), admin, dto.CreatePriceTableDTO{Community: "另一个", CommunityNumber: utils.ToPtr(5)})
	assert.Equal(t, http.StatusConflict, apperrors.StatusCode(err))
}

func TestDeletePriceTable(t *testing.T) {
	f := newPriceFixture(community5Prices())
	admin := Caller{User: adminUser()}

	require.NoError(t, f.service.DeletePriceTable(context.Background(), admin, 5))
	assert.Contains(t, f.cache.dels, priceCacheKey(5))

	err := f.service.DeletePriceTable(context.Background(), admin, 5)
	assert.Equal(t, http.StatusNotFound, apperrors.StatusCode(err))
}

func TestListCommunities(t *testing.T) {
	f := newPriceFixture()
	f.communities.byName["甲小区"] = entities.Community{Number: 7, Name: "甲小区"}

	names, err := f.service.ListCommunities(context.Background(), Caller{User: operatorUser(5)})
	require.NoError(t, err)
	assert.Equal(t, []string{"小区5"}, names)

	names, err = f.service.ListCommunities(context.Background(), Caller{User: adminUser()})
	require.NoError(t, err)
	assert.Len(t, names, 2)
}

func TestListPriceTablesAdminOnly(t *testing.T) {
	f := newPriceFixture(community5Prices())

	_, _, err := f.service.ListPriceTables(context.Background(), Caller{User: operatorUser(5)}, "", types.Page{Number: 1, PerPage: 10})
	assert.Equal(t, http.StatusForbidden, apperrors.StatusCode(err))

	list, total, err := f.service.ListPriceTables(context.Background(), Caller{User: adminUser()}, "小区", types.Page{Number: 1, PerPage: 10})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), total)
	assert.Equal(t, "小区5", list[0].Community)
}

func workbook(t *testing.T, rows [][]interface{}) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		row := row
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestImportFailsFastOnMissingColumn(t *testing.T) {
	f := newPriceFixture()
	buf := workbook(t, [][]interface{}{
		{"小区名称", "电费单价(元/度)", "冷水费单价(元/吨)", "热水费单价(元/吨)", "网费单价(元/月)", "停车费单价(元/月)", "房租单价(元/月)"},
		{"小区5", 1, 2, 3, 4, 5, 6},
	})

	_, err := f.service.ImportAll(context.Background(), Caller{User: adminUser()}, buf)

	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, apperrors.StatusCode(err))
	assert.Equal(t, "缺少必要列: 管理费单价(元/月)", apperrors.PublicMessage(err))
	assert.Empty(t, f.prices.upserts)
}

func TestImportReportsRowErrors(t *testing.T) {
	f := newPriceFixture()
	header := priceHeaders(false)
	buf := workbook(t, [][]interface{}{
		header,
		{"小区5", 0.85, 3.5, 25, 80, 150, 1200, 2.5},
		{"小区5", "abc", 3.5, 25, 80, 150, 1200, 2.5},
		{"未知小区", 1, 1, 1, 1, 1, 1, 1},
		{"小区5", -1, 3.5, 25, 80, 150, 1200, 2.5},
		{"", 1, 1, 1, 1, 1, 1, 1},
	})

	result, err := f.service.ImportAll(context.Background(), Caller{User: adminUser()}, buf)
	require.NoError(t, err)

	assert.Equal(t, 1, result.SuccessCount)
	assert.Equal(t, 3, result.ErrorCount)
	require.Len(t, result.Errors, 3)
	assert.Contains(t, result.Errors[0], "第3行")
	assert.Contains(t, result.Errors[1], "第4行")
	assert.Contains(t, result.Errors[1], "未登记")
	assert.Contains(t, result.Errors[2], "第5行")

	require.Len(t, f.prices.upserts, 1)
	assert.True(t, f.prices.upserts[0].Electricity.Equal(decimal.RequireFromString("0.85")))
	assert.True(t, f.prices.upserts[0].Management.Equal(decimal.RequireFromString("2.5")))
	assert.Contains(t, f.cache.dels, priceCacheKey(5))
	assert.Equal(t, []string{AuditImportPrices}, f.audit.operations())
}

func TestImportCapsErrorList(t *testing.T) {
	f := newPriceFixture()
	rows := [][]interface{}{priceHeaders(false)}
	for i := 0; i < 15; i++ {
		rows = append(rows, []interface{}{"未知小区", 1, 1, 1, 1, 1, 1, 1})
	}

	result, err := f.service.ImportAll(context.Background(), Caller{User: adminUser()}, workbook(t, rows))
	require.NoError(t, err)
	assert.Equal(t, 15, result.ErrorCount)
	assert.Len(t, result.Errors, maxImportErrors)
}

func TestTemplateImportRoundTrip(t *testing.T) {
	f := newPriceFixture()
	admin := Caller{User: adminUser()}

	tmpl, err := f.service.Template(context.Background(), admin)
	require.NoError(t, err)

	result, err := f.service.ImportAll(context.Background(), admin, tmpl)
	require.NoError(t, err)
	assert.Equal(t, 2, result.SuccessCount)
	assert.Len(t, f.communities.registered, 2)
	require.Contains(t, f.prices.prices, 2)
	assert.True(t, f.prices.prices[2].Rent.Equal(decimal.NewFromInt(1500)))
	for _, p := range f.prices.upserts {
		assert.NotEmpty(t, p.CommunityName, "community %d", p.CommunityNumber)
	}

	export, err := f.service.ExportAll(context.Background(), admin)
	require.NoError(t, err)
	book, err := excelize.OpenReader(export)
	require.NoError(t, err)
	defer book.Close()
	rows, err := book.GetRows(priceSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, colCommunityNumber, rows[0][1])
	assert.Equal(t, "示例小区1", rows[1][0])
}

func TestImportRejectsNonExcel(t *testing.T) {
	f := newPriceFixture()
	_, err := f.service.ImportAll(context.Background(), Caller{User: adminUser()}, bytes.NewBufferString("a,b,c"))
	assert.Equal(t, http.StatusBadRequest, apperrors.StatusCode(err))
}
