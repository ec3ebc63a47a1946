package repositories

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"

	"property-billing/internal/entities"
	"property-billing/pkg/types"
)

type ReportRepositoryInterface interface {
	Totals(ctx context.Context, filter entities.ReportFilter) (entities.OrderTotals, error)
	Points(ctx context.Context, filter entities.ReportFilter) ([]entities.OrderPoint, error)
	PaymentStats(ctx context.Context, filter entities.ReportFilter) ([]entities.PaymentStat, error)
	FeeTypeStats(ctx context.Context, filter entities.ReportFilter) ([]entities.FeeTypeStat, error)
	// Detailed при page.PerPage == 0 возвращает все строки.
	Detailed(ctx context.Context, filter entities.DetailedOrderFilter, page types.Page) ([]entities.DetailedOrderRow, uint64, error)
}

type reportRepository struct {
	db *pgxpool.Pool
}

func NewReportRepository(db *pgxpool.Pool) ReportRepositoryInterface {
	return &reportRepository{db: db}
}

func scopeWhere(s entities.ReportScope) sq.And {
	where := sq.And{}
	if s.CommunityID != nil {
		where = append(where, sq.Eq{"o.community_id": *s.CommunityID})
	}
	if s.CommunityName != "" {
		where = append(where, sq.Eq{"c.name": s.CommunityName})
	}
	return where
}

// baseSelect: общая часть FROM/JOIN/WHERE для агрегатов за период.
func (r *reportRepository) baseSelect(filter entities.ReportFilter) sq.SelectBuilder {
	where := scopeWhere(filter.ReportScope)
	where = append(where,
		sq.GtOrEq{"o.entry_time": filter.Start},
		sq.Lt{"o.entry_time": filter.EndBefore},
	)
	return psql.Select().
		From("orders o").
		LeftJoin("communities c ON c.number = o.community_id").
		Where(where)
}

func (r *reportRepository) Totals(ctx context.Context, filter entities.ReportFilter) (entities.OrderTotals, error) {
	query, args, err := r.baseSelect(filter).
		Columns("COUNT(o.id)", "COALESCE(SUM(o.total_amount), 0)", "COALESCE(MAX(o.total_amount), 0)").
		ToSql()
	if err != nil {
		return entities.OrderTotals{}, fmt.Errorf("ошибка сборки запроса итогов: %w", err)
	}

	var t entities.OrderTotals
	if err := r.db.QueryRow(ctx, query, args...).Scan(&t.Count, &t.Total, &t.Max); err != nil {
		return entities.OrderTotals{}, fmt.Errorf("ошибка выполнения запроса итогов: %w", err)
	}
	return t, nil
}

func (r *reportRepository) Points(ctx context.Context, filter entities.ReportFilter) ([]entities.OrderPoint, error) {
	query, args, err := r.baseSelect(filter).
		Columns("o.entry_time", "o.total_amount").
		OrderBy("o.entry_time ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка сборки запроса временного ряда: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка выполнения запроса временного ряда: %w", err)
	}
	defer rows.Close()

	var points []entities.OrderPoint
	for rows.Next() {
		var p entities.OrderPoint
		if err := rows.Scan(&p.EntryTime, &p.TotalAmount); err != nil {
			return nil, fmt.Errorf("ошибка сканирования временного ряда: %w", err)
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

func (r *reportRepository) PaymentStats(ctx context.Context, filter entities.ReportFilter) ([]entities.PaymentStat, error) {
	query, args, err := r.baseSelect(filter).
		Columns("COALESCE(o.payment_method, '')", "COUNT(o.id)", "COALESCE(SUM(o.total_amount), 0)").
		GroupBy("o.payment_method").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка сборки запроса по способам оплаты: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка выполнения запроса по способам оплаты: %w", err)
	}
	defer rows.Close()

	var stats []entities.PaymentStat
	for rows.Next() {
		var s entities.PaymentStat
		if err := rows.Scan(&s.Method, &s.Count, &s.Amount); err != nil {
			return nil, fmt.Errorf("ошибка сканирования статистики оплат: %w", err)
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

func (r *reportRepository) FeeTypeStats(ctx context.Context, filter entities.ReportFilter) ([]entities.FeeTypeStat, error) {
	cols := make([]string, 0, len(entities.AllFeeCategories)*2)
	for _, c := range entities.AllFeeCategories {
		amount := "o." + c.AmountColumn()
		cols = append(cols,
			fmt.Sprintf("COUNT(o.id) FILTER (WHERE %s <> 0)", amount),
			fmt.Sprintf("COALESCE(SUM(%s), 0)", amount),
		)
	}
	query, args, err := r.baseSelect(filter).Columns(cols...).ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка сборки запроса по видам платежей: %w", err)
	}

	stats := make([]entities.FeeTypeStat, len(entities.AllFeeCategories))
	targets := make([]any, 0, len(stats)*2)
	for i, c := range entities.AllFeeCategories {
		stats[i].Category = c
		targets = append(targets, &stats[i].Count, &stats[i].Amount)
	}
	if err := r.db.QueryRow(ctx, query, args...).Scan(targets...); err != nil {
		return nil, fmt.Errorf("ошибка выполнения запроса по видам платежей: %w", err)
	}
	return stats, nil
}

func detailedWhere(f entities.DetailedOrderFilter) sq.And {
	where := scopeWhere(f.ReportScope)
	if f.BillNumber != "" {
		where = append(where, sq.Like{"o.bill_number": likePattern(f.BillNumber)})
	}
	if f.Building != "" {
		where = append(where, sq.Like{"a.building": likePattern(f.Building)})
	}
	if f.Room != "" {
		where = append(where, sq.Like{"a.room": likePattern(f.Room)})
	}
	if f.FeeType != nil && f.FeeType.Valid() {
		where = append(where, sq.NotEq{"o." + f.FeeType.AmountColumn(): 0})
	}
	if f.PaymentMethod != "" {
		where = append(where, sq.Eq{"o.payment_method": f.PaymentMethod})
	}
	if f.StartDate != nil {
		where = append(where, sq.GtOrEq{"o.entry_time": *f.StartDate})
	}
	if f.EndBefore != nil {
		where = append(where, sq.Lt{"o.entry_time": *f.EndBefore})
	}
	return where
}

func (r *reportRepository) Detailed(ctx context.Context, filter entities.DetailedOrderFilter, page types.Page) ([]entities.DetailedOrderRow, uint64, error) {
	where := detailedWhere(filter)

	countQuery, countArgs, err := psql.Select("COUNT(o.id)").
		From("orders o").
		Join("addresses a ON a.id = o.address_id").
		LeftJoin("communities c ON c.number = o.community_id").
		Where(where).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка сборки COUNT-запроса: %w", err)
	}
	var total uint64
	if err := r.db.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ошибка выполнения COUNT-запроса: %w", err)
	}
	if total == 0 {
		return []entities.DetailedOrderRow{}, 0, nil
	}

	builder := detailedSelect().Where(where).OrderBy("o.entry_time DESC", "o.id DESC")
	if page.PerPage > 0 {
		builder = builder.Limit(page.Limit()).Offset(page.Offset())
	}
	rows, err := runDetailed(ctx, r.db, builder)
	return rows, total, err
}
