package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"property-billing/internal/dto"
	"property-billing/internal/entities"
	"property-billing/internal/services"
	"property-billing/pkg/config"
	apperrors "property-billing/pkg/errors"
	"property-billing/pkg/logger"
	"property-billing/pkg/metrics"
	"property-billing/pkg/middleware"
	"property-billing/pkg/types"
	"property-billing/pkg/validation"
)

const (
	adminToken    = "admin-token"
	operatorToken = "operator-token"
)

var (
	routeAdmin    = &entities.User{ID: 1, Username: "admin", Role: entities.RoleAdministrator, CommunityNumber: 1, CommunityName: "总部"}
	routeOperator = &entities.User{ID: 2, Username: "op", Role: entities.RoleOperator, CommunityNumber: 7, CommunityName: "小区7", CanEdit: true, CanRead: true}
)

// Заглушки встраивают интерфейс: невызванные методы паникуют, а не молча проходят.

type stubAuth struct {
	services.AuthServiceInterface
}

func (stubAuth) Authorize(_ context.Context, token string) (*entities.User, error) {
	switch token {
	case adminToken:
		return routeAdmin, nil
	case operatorToken:
		return routeOperator, nil
	}
	return nil, apperrors.ErrInvalidToken
}

func (stubAuth) Login(_ context.Context, caller services.Caller, payload dto.LoginDTO) (*dto.LoginResponseDTO, error) {
	if payload.Password != "secret" {
		return nil, apperrors.ErrInvalidCredentials
	}
	return &dto.LoginResponseDTO{Token: "jwt:" + payload.Username + "@" + caller.IP}, nil
}

type stubUser struct {
	services.UserServiceInterface
	renamed uint64
}

func (s *stubUser) UpdateDisplayName(_ context.Context, _ services.Caller, userID uint64, payload dto.UpdateDisplayNameDTO) (*dto.UserProfileDTO, error) {
	s.renamed = userID
	return &dto.UserProfileDTO{ID: userID, RealName: payload.RealName}, nil
}

type stubOrder struct {
	services.OrderServiceInterface
	listQuery   dto.OrderListQueryDTO
	listPage    types.Page
	searchPage  types.Page
	searchQuery dto.OrderSearchDTO
	caller      services.Caller
}

func (s *stubOrder) ListOrders(_ context.Context, caller services.Caller, query dto.OrderListQueryDTO, page types.Page) ([]dto.OrderListItemDTO, uint64, error) {
	s.caller, s.listQuery, s.listPage = caller, query, page
	return []dto.OrderListItemDTO{{OrderID: 5, BillNumber: "WD20250315100000123", TotalAmount: decimal.RequireFromString("30.31")}}, 41, nil
}

func (s *stubOrder) QueryOrders(_ context.Context, _ services.Caller, query dto.OrderSearchDTO, page types.Page) ([]dto.RecentOrderDTO, uint64, error) {
	s.searchQuery, s.searchPage = query, page
	return nil, 0, nil
}

func (s *stubOrder) TodayTotal(context.Context, services.Caller) (*dto.TodayTotalDTO, error) {
	return &dto.TodayTotalDTO{TodayTotal: decimal.RequireFromString("12.50"), Count: 2}, nil
}

func (s *stubOrder) GetOrder(_ context.Context, _ services.Caller, id uint64) (*dto.OrderDetailDTO, error) {
	return &dto.OrderDetailDTO{OrderID: id}, nil
}

type stubReport struct {
	services.ReportServiceInterface
	detailedQuery dto.DetailedOrderQueryDTO
}

func (s *stubReport) ExportDetailed(_ context.Context, _ services.Caller, query dto.DetailedOrderQueryDTO) (*services.ExportFile, error) {
	s.detailedQuery = query
	return &services.ExportFile{Name: "详细订单查询_20250315_100000.xlsx", Content: bytes.NewBufferString("PK")}, nil
}

type stubAudit struct {
	services.AuditServiceInterface
	filter entities.OperationLogFilter
	page   types.Page
}

func (s *stubAudit) ListLogs(_ context.Context, _ services.Caller, filter entities.OperationLogFilter, page types.Page) ([]entities.OperationLog, uint64, error) {
	s.filter, s.page = filter, page
	return []entities.OperationLog{{ID: 1, OperationType: "用户登录"}}, 1, nil
}

type stubPrice struct {
	services.PriceServiceInterface
}

func (stubPrice) GetPrices(context.Context, services.Caller) (*dto.PricesResponseDTO, string, error) {
	return &dto.PricesResponseDTO{}, "当前小区未配置收费标准", nil
}

type routerFixture struct {
	e      *echo.Echo
	order  *stubOrder
	report *stubReport
	audit  *stubAudit
	user   *stubUser
	reg    *prometheus.Registry
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()
	decimal.MarshalJSONWithoutQuotes = true

	f := &routerFixture{
		order:  &stubOrder{},
		report: &stubReport{},
		audit:  &stubAudit{},
		user:   &stubUser{},
		reg:    prometheus.NewRegistry(),
	}
	loggers := logger.NewNopLoggers()
	cfg := &config.Config{Location: time.FixedZone("CST", 8*3600)}

	f.e = echo.New()
	f.e.Validator = validation.New()
	f.e.Use(middleware.Metrics(metrics.New(f.reg)))

	InitRouter(f.e, &Services{
		Auth:   stubAuth{},
		User:   f.user,
		Price:  stubPrice{},
		Order:  f.order,
		Report: f.report,
		Audit:  f.audit,
	}, f.reg, cfg, loggers)
	return f
}

func (f *routerFixture) do(method, target, token string, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHealthz(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestProtectedRouteRequiresBearer(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(http.MethodGet, "/api/orders", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "error", body["status"])
	assert.Equal(t, apperrors.ErrEmptyAuthHeader.Error(), body["message"])

	req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
	req.Header.Set(echo.HeaderAuthorization, "Token abc")
	rec = httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, apperrors.ErrInvalidAuthHeader.Error(), decodeBody(t, rec)["message"])

	rec = f.do(http.MethodGet, "/api/orders", "forged", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginIsPublic(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(http.MethodPost, "/api/login", "", `{"username":"op","password":"secret"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeBody(t, rec)["data"].(map[string]interface{})
	assert.True(t, strings.HasPrefix(data["token"].(string), "jwt:op@"))

	rec = f.do(http.MethodPost, "/api/login", "", `{"username":"op","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(http.MethodPost, "/api/login", "", `{"username":"op"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListOrdersPaginationAndFilters(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(http.MethodGet, "/api/orders?billNumber=WD2025&addressId=9&page=2&per_page=500", operatorToken, "")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, "WD2025", f.order.listQuery.BillNumber)
	assert.Equal(t, uint64(9), f.order.listQuery.AddressID)
	assert.Equal(t, types.Page{Number: 2, PerPage: 100}, f.order.listPage)
	assert.Equal(t, routeOperator, f.order.caller.User)

	body := decodeBody(t, rec)
	pagination := body["pagination"].(map[string]interface{})
	assert.EqualValues(t, 41, pagination["total"])
	assert.EqualValues(t, 1, pagination["pages"])
	item := body["data"].([]interface{})[0].(map[string]interface{})
	assert.EqualValues(t, 30.31, item["totalAmount"])
}

func TestStaticOrderRoutesWinOverID(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(http.MethodGet, "/api/orders/today-total", operatorToken, "")
	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeBody(t, rec)["data"].(map[string]interface{})
	assert.EqualValues(t, 2, data["count"])

	rec = f.do(http.MethodGet, "/api/orders/abc", operatorToken, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLegacyQueryDefaults(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(http.MethodGet, "/api/v1/orders/query?buildingId=3&sort=totalAmount&order=asc", operatorToken, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, types.Page{Number: 1, PerPage: 10}, f.order.searchPage)
	assert.Equal(t, "3", f.order.searchQuery.BuildingID)
	assert.Equal(t, "totalAmount", f.order.searchQuery.SortField)
	assert.Equal(t, "asc", f.order.searchQuery.SortOrder)
}

func TestAdminRoutesRejectOperator(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(http.MethodGet, "/api/admin/operation-logs", operatorToken, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(http.MethodGet, "/api/admin/fee-prices", operatorToken, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(http.MethodPut, "/api/admin/users/2/name", operatorToken, `{"real_name":"李四"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Zero(t, f.user.renamed)
}

func TestOperationLogsFilter(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(http.MethodGet, "/api/admin/operation-logs?username=op&startDate=2025-03-01&endDate=2025-03-15", adminToken, "")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, "op", f.audit.filter.Username)
	require.NotNil(t, f.audit.filter.StartDate)
	require.NotNil(t, f.audit.filter.EndBefore)
	assert.Equal(t, "2025-03-01", f.audit.filter.StartDate.Format("2006-01-02"))
	assert.Equal(t, "2025-03-16", f.audit.filter.EndBefore.Format("2006-01-02"))
	assert.Equal(t, 50, f.audit.page.PerPage)

	rec = f.do(http.MethodGet, "/api/admin/operation-logs?startDate=03/01/2025", adminToken, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateDisplayNameRoute(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(http.MethodPut, "/api/admin/users/2/name", adminToken, `{"real_name":"李四"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint64(2), f.user.renamed)

	rec = f.do(http.MethodPut, "/api/admin/users/x/name", adminToken, `{"real_name":"李四"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExportDetailedSendsWorkbook(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(http.MethodGet, "/api/orders/detailed/export?community=小区7&feeType=parking", operatorToken, "")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, "parking", f.report.detailedQuery.FeeType)
	assert.Equal(t, "小区7", f.report.detailedQuery.Community)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), "spreadsheetml")
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "filename*=UTF-8''")
	assert.Equal(t, "PK", rec.Body.String())
}

func TestGetPricesPassesServiceMessage(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(http.MethodGet, "/api/fee-prices", operatorToken, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "当前小区未配置收费标准", decodeBody(t, rec)["message"])
}

func TestMetricsEndpoint(t *testing.T) {
	f := newRouterFixture(t)

	f.do(http.MethodGet, "/api/orders/5", operatorToken, "")
	rec := f.do(http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "billing_http_request_duration_seconds")
	assert.Contains(t, rec.Body.String(), `route="/api/orders/:id"`)
}
