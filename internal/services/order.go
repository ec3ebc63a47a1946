package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"property-billing/internal/authz"
	"property-billing/internal/dto"
	"property-billing/internal/entities"
	"property-billing/internal/repositories"
	apperrors "property-billing/pkg/errors"
	"property-billing/pkg/metrics"
	"property-billing/pkg/types"
	"property-billing/pkg/utils"
)

const (
	defaultHistoryLimit = 10
	maxHistoryLimit     = 100
)

// BillNumberSource: источник номеров квитанций.
type BillNumberSource interface {
	Next() string
}

type OrderServiceInterface interface {
	CreateOrder(ctx context.Context, caller Caller, payload dto.CreateOrderDTO) (*dto.CreateOrderResponseDTO, error)
	ListOrders(ctx context.Context, caller Caller, query dto.OrderListQueryDTO, page types.Page) ([]dto.OrderListItemDTO, uint64, error)
	GetOrder(ctx context.Context, caller Caller, id uint64) (*dto.OrderDetailDTO, error)
	DeleteOrder(ctx context.Context, caller Caller, id uint64) error
	RecentOrders(ctx context.Context, caller Caller) (*dto.RecentOrdersDTO, error)
	TodayTotal(ctx context.Context, caller Caller) (*dto.TodayTotalDTO, error)
	PaymentHistory(ctx context.Context, caller Caller, query dto.PaymentHistoryQueryDTO) ([]dto.OrderListItemDTO, error)
	QueryOrders(ctx context.Context, caller Caller, query dto.OrderSearchDTO, page types.Page) ([]dto.RecentOrderDTO, uint64, error)
}

type OrderService struct {
	txManager    repositories.TxManagerInterface
	orderRepo    repositories.OrderRepositoryInterface
	addressRepo  repositories.AddressRepositoryInterface
	billNumbers  BillNumberSource
	auditService AuditServiceInterface
	metrics      *metrics.Metrics
	location     *time.Location
	logger       *zap.Logger
	now          func() time.Time
}

func NewOrderService(
	txManager repositories.TxManagerInterface,
	orderRepo repositories.OrderRepositoryInterface,
	addressRepo repositories.AddressRepositoryInterface,
	billNumbers BillNumberSource,
	auditService AuditServiceInterface,
	m *metrics.Metrics,
	location *time.Location,
	logger *zap.Logger,
) OrderServiceInterface {
	if location == nil {
		location = time.Local
	}
	return &OrderService{
		txManager:    txManager,
		orderRepo:    orderRepo,
		addressRepo:  addressRepo,
		billNumbers:  billNumbers,
		auditService: auditService,
		metrics:      m,
		location:     location,
		logger:       logger,
		now:          time.Now,
	}
}

func missingField(name string) error {
	return apperrors.NewBadRequestError(fmt.Sprintf("缺少必要字段: %s", name))
}

func (s *OrderService) CreateOrder(ctx context.Context, caller Caller, payload dto.CreateOrderDTO) (*dto.CreateOrderResponseDTO, error) {
	// 1. Право на ввод
	if !authz.Can(caller.User, authz.OrdersCreate, nil) {
		return nil, apperrors.NewForbiddenError("当前用户没有编辑权限")
	}
	logger := s.logger.With(zap.String("operator", caller.User.Username))

	// 2. Обязательные поля
	switch {
	case payload.AddressID == nil:
		return nil, missingField("addressId")
	case payload.PaymentMethod == nil:
		return nil, missingField("paymentMethod")
	case payload.TotalAmount == nil:
		return nil, missingField("totalAmount")
	case payload.Items == nil:
		return nil, missingField("items")
	}

	// 3. Адрес
	address, err := s.addressRepo.FindByID(ctx, nil, *payload.AddressID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("地址不存在")
		}
		return nil, apperrors.NewDatabaseError(err)
	}

	// 4. Сторно не проверяет комплекс адреса, обычный заказ проверяет
	isReversal := payload.OriginalOrderID != nil
	if isReversal {
		if _, err := s.orderRepo.FindByID(ctx, nil, *payload.OriginalOrderID); err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return nil, apperrors.NewNotFoundError("原订单不存在")
			}
			return nil, apperrors.NewDatabaseError(err)
		}
		logger.Info("Сторно заказа", zap.Uint64("originalOrderID", *payload.OriginalOrderID))
	} else if !authz.Can(caller.User, authz.OrdersCreate, address) {
		return nil, apperrors.NewForbiddenError("无权操作此地址")
	}

	// 5. Данные жильца
	resident, err := residentUpdate(payload.ResidentName, payload.ResidentPhone)
	if err != nil {
		return nil, err
	}

	// 6-9. Строка заказа
	order := s.buildOrder(caller.User, payload, logger)

	// 10. Фаза 1: жилец и заказ в одной транзакции
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		if !resident.Empty() {
			if err := s.addressRepo.UpdateResident(ctx, tx, address.ID, resident); err != nil {
				return err
			}
		}
		id, err := s.orderRepo.Create(ctx, tx, order)
		if err != nil {
			return err
		}
		order.ID = id
		return nil
	})
	if err != nil {
		logger.Error("Ошибка сохранения заказа", zap.String("billNumber", order.BillNumber), zap.Error(err))
		return nil, apperrors.NewDatabaseError(err)
	}

	// Фаза 2: отметка сторно. Ошибка не отменяет созданный заказ.
	if isReversal {
		if err := s.markReversal(ctx, *payload.OriginalOrderID, order); err != nil {
			s.metrics.ReversalMarkFailed()
			logger.Error("Не удалось отметить исходный заказ как сторнированный",
				zap.Uint64("originalOrderID", *payload.OriginalOrderID),
				zap.Uint64("orderID", order.ID),
				zap.Error(err),
			)
		}
	}

	// 11. Журнал
	rec := AuditRecord{
		OperationType:   AuditCreateOrder,
		Module:          "orders",
		Details:         fmt.Sprintf("创建订单 %s，金额 %s", order.BillNumber, formatMoney(order.TotalAmount)),
		TargetID:        strconv.FormatUint(order.ID, 10),
		TargetType:      "order",
		CommunityNumber: &order.CommunityID,
	}
	if isReversal {
		rec.OperationType = AuditReverseOrder
		rec.Details = fmt.Sprintf("红冲订单 %d，新账单号 %s，金额 %s", *payload.OriginalOrderID, order.BillNumber, formatMoney(order.TotalAmount))
	}
	s.auditService.Record(ctx, caller, rec)
	s.metrics.OrderCreated(isReversal)

	// 12.
	return &dto.CreateOrderResponseDTO{
		OrderID:     order.ID,
		BillNumber:  order.BillNumber,
		TotalAmount: order.TotalAmount,
	}, nil
}

func (s *OrderService) buildOrder(operator *entities.User, payload dto.CreateOrderDTO, logger *zap.Logger) *entities.Order {
	order := &entities.Order{
		BillNumber:    s.billNumbers.Next(),
		AddressID:     *payload.AddressID,
		OperatorID:    operator.ID,
		CommunityID:   operator.CommunityNumber,
		EntryTime:     s.now(),
		TotalAmount:   *payload.TotalAmount,
		PaymentMethod: *payload.PaymentMethod,
		Remark:        payload.Remark,
	}

	if raw := strings.TrimSpace(payload.EntryTime); raw != "" {
		if t, err := time.ParseInLocation(utils.DateTimeLayout, raw, s.location); err == nil {
			order.EntryTime = t
		} else {
			logger.Warn("Неверный формат entryTime, используется текущее время", zap.String("entryTime", raw))
		}
	}

	for _, item := range payload.Items {
		category, ok := entities.ParseFeeCategory(item.Type)
		if !ok {
			logger.Warn("Неизвестный вид платежа пропущен", zap.String("type", item.Type))
			continue
		}
		order.SetFee(category, entities.FeeLine{Quantity: item.Quantity, Amount: item.Amount})

		if category == entities.FeeParking {
			order.ParkingInfo.CarPlate = strings.TrimSpace(item.CarPlate)
			order.ParkingInfo.StartDate = s.parseParkingDate(item.StartDate, "startDate", logger)
			order.ParkingInfo.EndDate = s.parseParkingDate(item.EndDate, "endDate", logger)
		}
	}

	// Отдельные поля аренды и управления перекрывают значения из items.
	overrideFee(order, entities.FeeRent, payload.RentMonths, payload.RentAmount)
	overrideFee(order, entities.FeeManagement, payload.ManagementMonths, payload.ManagementAmount)
	return order
}

func overrideFee(order *entities.Order, c entities.FeeCategory, quantity, amount *decimal.Decimal) {
	line := order.Fee(c)
	if quantity != nil {
		line.Quantity = *quantity
	}
	if amount != nil {
		line.Amount = *amount
	}
	order.SetFee(c, line)
}

func (s *OrderService) parseParkingDate(raw, field string, logger *zap.Logger) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	t, err := time.ParseInLocation(utils.DateLayout, raw, s.location)
	if err != nil {
		logger.Warn("Неверная дата парковки пропущена", zap.String("field", field), zap.String("value", raw))
		return nil
	}
	return &t
}

// markReversal: отдельная транзакция после сохранения сторно-заказа.
func (s *OrderService) markReversal(ctx context.Context, originalID uint64, reversal *entities.Order) error {
	return s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		original, err := s.orderRepo.FindByID(ctx, tx, originalID)
		if err != nil {
			return err
		}
		original.MarkReversed()
		if err := s.orderRepo.UpdateReversal(ctx, tx, original.ID, original.Remark, original.ReversalFlag); err != nil {
			return err
		}
		reversal.ReversalFlag = 1
		return s.orderRepo.UpdateReversal(ctx, tx, reversal.ID, reversal.Remark, reversal.ReversalFlag)
	})
}

func (s *OrderService) ListOrders(ctx context.Context, caller Caller, query dto.OrderListQueryDTO, page types.Page) ([]dto.OrderListItemDTO, uint64, error) {
	if !authz.Can(caller.User, authz.OrdersView, nil) {
		return nil, 0, apperrors.NewForbiddenError("当前用户没有查看权限")
	}

	filter := entities.OrderFilter{
		CommunityID: authz.CommunityScope(caller.User),
		BillNumber:  strings.TrimSpace(query.BillNumber),
	}
	if query.AddressID > 0 {
		addressID := query.AddressID
		filter.AddressID = &addressID
	}
	var err error
	if filter.StartDate, err = utils.ParseDate(query.StartDate, s.location); err != nil {
		return nil, 0, apperrors.NewBadRequestError(err.Error())
	}
	if filter.EndBefore, err = utils.ParseEndDate(query.EndDate, s.location); err != nil {
		return nil, 0, apperrors.NewBadRequestError(err.Error())
	}

	orders, total, err := s.orderRepo.List(ctx, filter, page)
	if err != nil {
		s.logger.Error("Ошибка получения списка заказов", zap.Error(err))
		return nil, 0, apperrors.NewDatabaseError(err)
	}

	result := make([]dto.OrderListItemDTO, 0, len(orders))
	for i := range orders {
		result = append(result, newOrderListItem(&orders[i], s.location))
	}
	return result, total, nil
}

func (s *OrderService) GetOrder(ctx context.Context, caller Caller, id uint64) (*dto.OrderDetailDTO, error) {
	if caller.User == nil {
		return nil, apperrors.ErrUnauthorized
	}
	detail, err := s.orderRepo.FindDetail(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("订单不存在")
		}
		s.logger.Error("Ошибка получения заказа", zap.Uint64("orderID", id), zap.Error(err))
		return nil, apperrors.NewDatabaseError(err)
	}
	if !authz.CanAccessCommunity(caller.User, detail.CommunityID) {
		return nil, apperrors.NewForbiddenError("无权查看此订单")
	}

	address := dto.NewAddressDTO(&detail.Address)
	return &dto.OrderDetailDTO{
		OrderID:       detail.ID,
		BillNumber:    detail.BillNumber,
		EntryTime:     detail.EntryTime.In(s.location).Format(utils.DateTimeLayout),
		TotalAmount:   detail.TotalAmount,
		PaymentMethod: detail.PaymentMethod,
		Remark:        detail.Remark,
		RedReverse:    detail.ReversalFlag,
		Operator:      detail.OperatorName,
		Community:     detail.CommunityName,
		AddressID:     detail.AddressID,
		Building:      address.Building,
		Room:          address.Room,
		ResidentName:  address.ResidentName,
		ResidentPhone: address.ResidentPhone,
		Items:         feeBreakdown(&detail.Order),
	}, nil
}

func (s *OrderService) DeleteOrder(ctx context.Context, caller Caller, id uint64) error {
	if caller.User == nil {
		return apperrors.ErrUnauthorized
	}
	order, err := s.orderRepo.FindByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.NewNotFoundError("订单不存在")
		}
		return apperrors.NewDatabaseError(err)
	}
	if !authz.Can(caller.User, authz.OrdersDelete, order) {
		return apperrors.NewForbiddenError("无权删除此订单")
	}

	if err := s.orderRepo.Delete(ctx, nil, id); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.NewNotFoundError("订单不存在")
		}
		s.logger.Error("Ошибка удаления заказа", zap.Uint64("orderID", id), zap.Error(err))
		return apperrors.NewDatabaseError(err)
	}

	s.auditService.Record(ctx, caller, AuditRecord{
		OperationType:   AuditDeleteOrder,
		Module:          "orders",
		Details:         fmt.Sprintf("删除订单 %s，金额 %s", order.BillNumber, formatMoney(order.TotalAmount)),
		TargetID:        strconv.FormatUint(order.ID, 10),
		TargetType:      "order",
		CommunityNumber: &order.CommunityID,
	})
	s.metrics.OrderDeleted()
	return nil
}

func (s *OrderService) todayRows(ctx context.Context, caller Caller) ([]entities.DetailedOrderRow, error) {
	if caller.User == nil {
		return nil, apperrors.ErrUnauthorized
	}
	start := utils.StartOfDay(s.now().In(s.location))
	end := start.AddDate(0, 0, 1).Add(-time.Second)

	rows, _, err := s.orderRepo.Query(ctx, entities.OrderQuery{
		CommunityID: authz.CommunityScope(caller.User),
		Start:       &start,
		End:         &end,
		SortField:   "entryTime",
		SortDesc:    true,
	}, types.Page{Number: 1})
	if err != nil {
		s.logger.Error("Ошибка получения заказов за сегодня", zap.Error(err))
		return nil, apperrors.NewDatabaseError(err)
	}
	return rows, nil
}

func (s *OrderService) RecentOrders(ctx context.Context, caller Caller) (*dto.RecentOrdersDTO, error) {
	rows, err := s.todayRows(ctx, caller)
	if err != nil {
		return nil, err
	}
	result := &dto.RecentOrdersDTO{Orders: make([]dto.RecentOrderDTO, 0, len(rows)), TodayTotal: decimal.Zero}
	for i := range rows {
		result.Orders = append(result.Orders, newRecentOrder(&rows[i], s.location))
		result.TodayTotal = result.TodayTotal.Add(rows[i].TotalAmount)
	}
	result.TodayTotal = result.TodayTotal.Round(2)
	return result, nil
}

func (s *OrderService) TodayTotal(ctx context.Context, caller Caller) (*dto.TodayTotalDTO, error) {
	rows, err := s.todayRows(ctx, caller)
	if err != nil {
		return nil, err
	}
	total := decimal.Zero
	for _, r := range rows {
		total = total.Add(r.TotalAmount)
	}
	return &dto.TodayTotalDTO{TodayTotal: total.Round(2), Count: len(rows)}, nil
}

func (s *OrderService) PaymentHistory(ctx context.Context, caller Caller, query dto.PaymentHistoryQueryDTO) ([]dto.OrderListItemDTO, error) {
	if caller.User == nil {
		return nil, apperrors.ErrUnauthorized
	}
	if query.AddressID == 0 {
		return nil, apperrors.NewBadRequestError("地址ID不能为空")
	}
	limit := query.Limit
	if limit == 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	orders, err := s.orderRepo.ListByAddress(ctx, authz.CommunityScope(caller.User), query.AddressID, limit)
	if err != nil {
		s.logger.Error("Ошибка получения истории платежей", zap.Uint64("addressID", query.AddressID), zap.Error(err))
		return nil, apperrors.NewDatabaseError(err)
	}
	result := make([]dto.OrderListItemDTO, 0, len(orders))
	for i := range orders {
		result = append(result, newOrderListItem(&orders[i], s.location))
	}
	return result, nil
}

func (s *OrderService) QueryOrders(ctx context.Context, caller Caller, query dto.OrderSearchDTO, page types.Page) ([]dto.RecentOrderDTO, uint64, error) {
	if !authz.Can(caller.User, authz.OrdersView, nil) {
		return nil, 0, apperrors.NewForbiddenError("当前用户没有查看权限")
	}

	q := entities.OrderQuery{
		CommunityID: authz.CommunityScope(caller.User),
		Building:    strings.TrimSpace(query.BuildingID),
		Room:        strings.TrimSpace(query.RoomID),
		SortField:   query.SortField,
		SortDesc:    !strings.EqualFold(query.SortOrder, "asc"),
	}
	if q.SortField == "" {
		q.SortField = "entryTime"
	}
	var err error
	if q.Start, err = utils.ParseMinute(query.StartTime, s.location); err != nil {
		return nil, 0, apperrors.NewBadRequestError(err.Error())
	}
	if q.End, err = utils.ParseMinute(query.EndTime, s.location); err != nil {
		return nil, 0, apperrors.NewBadRequestError(err.Error())
	}

	rows, total, err := s.orderRepo.Query(ctx, q, page)
	if err != nil {
		s.logger.Error("Ошибка расширенного поиска заказов", zap.Error(err))
		return nil, 0, apperrors.NewDatabaseError(err)
	}
	result := make([]dto.RecentOrderDTO, 0, len(rows))
	for i := range rows {
		result = append(result, newRecentOrder(&rows[i], s.location))
	}
	return result, total, nil
}
