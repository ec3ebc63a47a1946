package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"property-billing/internal/authz"
	"property-billing/internal/dto"
	"property-billing/internal/entities"
	"property-billing/internal/repositories"
	apperrors "property-billing/pkg/errors"
	"property-billing/pkg/types"
	"property-billing/pkg/utils"
)

const (
	DimensionDay   = "day"
	DimensionWeek  = "week"
	DimensionMonth = "month"

	unknownPaymentMethod = "未知"
)

type ReportServiceInterface interface {
	Overview(ctx context.Context, caller Caller, query dto.ReportQueryDTO) (*dto.OverviewDTO, error)
	TimeSeries(ctx context.Context, caller Caller, query dto.ReportQueryDTO) (*dto.TimeSeriesDTO, error)
	PaymentStats(ctx context.Context, caller Caller, query dto.ReportQueryDTO) ([]dto.PaymentStatDTO, error)
	FeeTypeStats(ctx context.Context, caller Caller, query dto.ReportQueryDTO) ([]dto.FeeTypeStatDTO, error)
	DetailedOrders(ctx context.Context, caller Caller, query dto.DetailedOrderQueryDTO, page types.Page) ([]dto.DetailedOrderDTO, uint64, error)
	ExportDetailed(ctx context.Context, caller Caller, query dto.DetailedOrderQueryDTO) (*ExportFile, error)
}

type ReportService struct {
	reportRepo   repositories.ReportRepositoryInterface
	auditService AuditServiceInterface
	location     *time.Location
	logger       *zap.Logger
	now          func() time.Time
}

func NewReportService(
	reportRepo repositories.ReportRepositoryInterface,
	auditService AuditServiceInterface,
	location *time.Location,
	logger *zap.Logger,
) ReportServiceInterface {
	if location == nil {
		location = time.Local
	}
	return &ReportService{
		reportRepo:   reportRepo,
		auditService: auditService,
		location:     location,
		logger:       logger,
		now:          time.Now,
	}
}

func reportScope(caller Caller, community string) entities.ReportScope {
	return entities.ReportScope{
		CommunityID:   authz.CommunityScope(caller.User),
		CommunityName: strings.TrimSpace(community),
	}
}

// reportFilter: обе даты обязательны, конец периода включает весь день.
func (s *ReportService) reportFilter(caller Caller, query dto.ReportQueryDTO) (entities.ReportFilter, error) {
	if !authz.Can(caller.User, authz.ReportsView, nil) {
		return entities.ReportFilter{}, apperrors.NewForbiddenError("当前用户没有报表权限")
	}
	if strings.TrimSpace(query.StartDate) == "" || strings.TrimSpace(query.EndDate) == "" {
		return entities.ReportFilter{}, apperrors.NewBadRequestError("请提供日期范围")
	}
	start, err := utils.ParseDate(query.StartDate, s.location)
	if err != nil {
		return entities.ReportFilter{}, apperrors.NewBadRequestError(err.Error())
	}
	endBefore, err := utils.ParseEndDate(query.EndDate, s.location)
	if err != nil {
		return entities.ReportFilter{}, apperrors.NewBadRequestError(err.Error())
	}
	if !endBefore.After(*start) {
		return entities.ReportFilter{}, apperrors.NewBadRequestError("结束日期不能早于开始日期")
	}
	return entities.ReportFilter{
		ReportScope: reportScope(caller, query.Community),
		Start:       *start,
		EndBefore:   *endBefore,
	}, nil
}

// percentChange: изменение в процентах с одним знаком; при нулевой базе 0.
func percentChange(current, previous decimal.Decimal) float64 {
	if previous.IsZero() {
		return 0
	}
	return current.Sub(previous).Div(previous).Mul(decimal.NewFromInt(100)).Round(1).InexactFloat64()
}

func (s *ReportService) Overview(ctx context.Context, caller Caller, query dto.ReportQueryDTO) (*dto.OverviewDTO, error) {
	filter, err := s.reportFilter(caller, query)
	if err != nil {
		return nil, err
	}
	current, err := s.reportRepo.Totals(ctx, filter)
	if err != nil {
		s.logger.Error("Ошибка расчёта итогов", zap.Error(err))
		return nil, apperrors.NewDatabaseError(err)
	}

	// Предыдущий период той же длины, вплотную к текущему.
	days := int(filter.EndBefore.Sub(filter.Start).Hours()/24 + 0.5)
	prev := filter
	prev.Start = filter.Start.AddDate(0, 0, -days)
	prev.EndBefore = filter.Start
	previous, err := s.reportRepo.Totals(ctx, prev)
	if err != nil {
		s.logger.Error("Ошибка расчёта итогов предыдущего периода", zap.Error(err))
		return nil, apperrors.NewDatabaseError(err)
	}

	avg := decimal.Zero
	if current.Count > 0 {
		avg = current.Total.Div(decimal.NewFromInt(int64(current.Count)))
	}
	return &dto.OverviewDTO{
		TotalCount:   current.Count,
		TotalAmount:  current.Total.Round(2),
		AvgAmount:    avg.Round(2),
		MaxAmount:    current.Max.Round(2),
		CountChange:  percentChange(decimal.NewFromInt(int64(current.Count)), decimal.NewFromInt(int64(previous.Count))),
		AmountChange: percentChange(current.Total, previous.Total),
	}, nil
}

// bucketFor возвращает ключ сортировки и подпись интервала для момента t.
func bucketFor(t time.Time, dimension string) (string, string) {
	switch dimension {
	case DimensionWeek:
		offset := (int(t.Weekday()) + 6) % 7
		start := time.Date(t.Year(), t.Month(), t.Day()-offset, 0, 0, 0, 0, t.Location())
		end := start.AddDate(0, 0, 6)
		label := start.Format("01月02日") + "-" + end.Format("02日")
		if start.Month() != end.Month() {
			label = start.Format("01月02日") + "-" + end.Format("01月02日")
		}
		return start.Format(utils.DateLayout), label
	case DimensionMonth:
		return t.Format("2006-01"), t.Format("2006年01月")
	default:
		return t.Format(utils.DateLayout), t.Format("01月02日")
	}
}

// BucketPoints группирует заказы по дням, неделям (с понедельника) или месяцам.
func BucketPoints(points []entities.OrderPoint, dimension string, loc *time.Location) []entities.TimeBucket {
	byKey := map[string]*entities.TimeBucket{}
	for _, p := range points {
		key, label := bucketFor(p.EntryTime.In(loc), dimension)
		b, ok := byKey[key]
		if !ok {
			b = &entities.TimeBucket{Key: key, Label: label, Amount: decimal.Zero}
			byKey[key] = b
		}
		b.Count++
		b.Amount = b.Amount.Add(p.TotalAmount)
	}

	result := make([]entities.TimeBucket, 0, len(byKey))
	for _, b := range byKey {
		result = append(result, *b)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Key < result[j].Key })
	return result
}

func (s *ReportService) TimeSeries(ctx context.Context, caller Caller, query dto.ReportQueryDTO) (*dto.TimeSeriesDTO, error) {
	dimension := strings.ToLower(strings.TrimSpace(query.Dimension))
	if dimension == "" {
		dimension = DimensionDay
	}
	if dimension != DimensionDay && dimension != DimensionWeek && dimension != DimensionMonth {
		return nil, apperrors.NewBadRequestError("dimension 只能是 day、week 或 month")
	}
	filter, err := s.reportFilter(caller, query)
	if err != nil {
		return nil, err
	}

	points, err := s.reportRepo.Points(ctx, filter)
	if err != nil {
		s.logger.Error("Ошибка построения временного ряда", zap.Error(err))
		return nil, apperrors.NewDatabaseError(err)
	}

	buckets := BucketPoints(points, dimension, s.location)
	result := &dto.TimeSeriesDTO{
		Labels:  make([]string, 0, len(buckets)),
		Counts:  make([]uint64, 0, len(buckets)),
		Amounts: make([]decimal.Decimal, 0, len(buckets)),
	}
	for _, b := range buckets {
		result.Labels = append(result.Labels, b.Label)
		result.Counts = append(result.Counts, b.Count)
		result.Amounts = append(result.Amounts, b.Amount.Round(2))
	}
	return result, nil
}

func (s *ReportService) PaymentStats(ctx context.Context, caller Caller, query dto.ReportQueryDTO) ([]dto.PaymentStatDTO, error) {
	filter, err := s.reportFilter(caller, query)
	if err != nil {
		return nil, err
	}
	stats, err := s.reportRepo.PaymentStats(ctx, filter)
	if err != nil {
		s.logger.Error("Ошибка статистики по способам оплаты", zap.Error(err))
		return nil, apperrors.NewDatabaseError(err)
	}

	// NULL и пустая строка попадают в одну группу «未知».
	merged := map[string]*dto.PaymentStatDTO{}
	var order []string
	for _, st := range stats {
		method := strings.TrimSpace(st.Method)
		if method == "" {
			method = unknownPaymentMethod
		}
		m, ok := merged[method]
		if !ok {
			m = &dto.PaymentStatDTO{Method: method, Amount: decimal.Zero}
			merged[method] = m
			order = append(order, method)
		}
		m.Count += st.Count
		m.Amount = m.Amount.Add(st.Amount)
	}

	result := make([]dto.PaymentStatDTO, 0, len(order))
	for _, method := range order {
		m := merged[method]
		m.Amount = m.Amount.Round(2)
		result = append(result, *m)
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].Amount.GreaterThan(result[j].Amount) })
	return result, nil
}

func (s *ReportService) FeeTypeStats(ctx context.Context, caller Caller, query dto.ReportQueryDTO) ([]dto.FeeTypeStatDTO, error) {
	filter, err := s.reportFilter(caller, query)
	if err != nil {
		return nil, err
	}
	stats, err := s.reportRepo.FeeTypeStats(ctx, filter)
	if err != nil {
		s.logger.Error("Ошибка статистики по видам платежей", zap.Error(err))
		return nil, apperrors.NewDatabaseError(err)
	}

	result := make([]dto.FeeTypeStatDTO, 0, len(stats))
	for _, st := range stats {
		if st.Count == 0 {
			continue
		}
		result = append(result, dto.FeeTypeStatDTO{
			Type:   st.Category.Code(),
			Name:   st.Category.Title(),
			Count:  st.Count,
			Amount: st.Amount.Round(2),
		})
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].Amount.GreaterThan(result[j].Amount) })
	return result, nil
}

func (s *ReportService) detailedFilter(caller Caller, query dto.DetailedOrderQueryDTO) (entities.DetailedOrderFilter, error) {
	if !authz.Can(caller.User, authz.OrdersView, nil) {
		return entities.DetailedOrderFilter{}, apperrors.NewForbiddenError("当前用户没有查看权限")
	}
	filter := entities.DetailedOrderFilter{
		ReportScope:   reportScope(caller, query.Community),
		BillNumber:    strings.TrimSpace(query.OrderID),
		Building:      strings.TrimSpace(query.Building),
		Room:          strings.TrimSpace(query.Room),
		PaymentMethod: strings.TrimSpace(query.PaymentMethod),
	}
	if code := strings.TrimSpace(query.FeeType); code != "" {
		category, ok := entities.ParseFeeCategory(code)
		if !ok {
			return filter, apperrors.NewBadRequestError(fmt.Sprintf("未知的收费项目: %s", code))
		}
		filter.FeeType = &category
	}
	var err error
	if filter.StartDate, err = utils.ParseDate(query.StartDate, s.location); err != nil {
		return filter, apperrors.NewBadRequestError(err.Error())
	}
	if filter.EndBefore, err = utils.ParseEndDate(query.EndDate, s.location); err != nil {
		return filter, apperrors.NewBadRequestError(err.Error())
	}
	return filter, nil
}

func (s *ReportService) newDetailedOrder(r *entities.DetailedOrderRow) dto.DetailedOrderDTO {
	return dto.DetailedOrderDTO{
		OrderID:          r.ID,
		BillNumber:       r.BillNumber,
		Community:        r.CommunityName,
		EntryTime:        r.EntryTime.In(s.location).Format(utils.DateTimeLayout),
		Building:         r.Building,
		Room:             r.Room,
		ResidentName:     r.ResidentName,
		ResidentPhone:    r.ResidentPhone,
		TotalAmount:      r.TotalAmount.Round(2),
		PaymentMethod:    r.PaymentMethod,
		Operator:         r.OperatorName,
		FeeItems:         FeeItemsSummary(&r.Order),
		CarPlate:         r.ParkingInfo.CarPlate,
		ParkingStartDate: formatTimePtr(r.ParkingInfo.StartDate, utils.DateLayout),
		ParkingEndDate:   formatTimePtr(r.ParkingInfo.EndDate, utils.DateLayout),
		Remark:           r.Remark,
		RedReverse:       r.ReversalFlag,
	}
}

func (s *ReportService) DetailedOrders(ctx context.Context, caller Caller, query dto.DetailedOrderQueryDTO, page types.Page) ([]dto.DetailedOrderDTO, uint64, error) {
	filter, err := s.detailedFilter(caller, query)
	if err != nil {
		return nil, 0, err
	}
	rows, total, err := s.reportRepo.Detailed(ctx, filter, page)
	if err != nil {
		s.logger.Error("Ошибка получения реестра заказов", zap.Error(err))
		return nil, 0, apperrors.NewDatabaseError(err)
	}
	result := make([]dto.DetailedOrderDTO, 0, len(rows))
	for i := range rows {
		result = append(result, s.newDetailedOrder(&rows[i]))
	}
	return result, total, nil
}
