package repositories

import (
	"context"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"property-billing/internal/entities"
	"property-billing/pkg/types"
)

const orderTable = "orders"

var orderFeeColumns = func() []string {
	cols := make([]string, 0, len(entities.AllFeeCategories)*2)
	for _, c := range entities.AllFeeCategories {
		cols = append(cols, c.QuantityColumn(), c.AmountColumn())
	}
	return cols
}()

var orderColumns = append(append([]string{
	"id", "bill_number", "address_id", "operator_id", "community_id", "entry_time",
	"total_amount", "refund_amount", "payment_method",
}, orderFeeColumns...),
	"parking_car_plate", "parking_start_date", "parking_end_date", "remark", "reversal_flag",
)

func prefixed(alias string, cols []string) string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = alias + "." + c
	}
	return strings.Join(out, ", ")
}

// orderScanTargets возвращает указатели в порядке orderColumns.
func orderScanTargets(o *entities.Order) []any {
	targets := []any{
		&o.ID, &o.BillNumber, &o.AddressID, &o.OperatorID, &o.CommunityID, &o.EntryTime,
		&o.TotalAmount, &o.RefundAmount, &o.PaymentMethod,
	}
	for _, c := range entities.AllFeeCategories {
		line := feeLinePtr(o, c)
		targets = append(targets, &line.Quantity, &line.Amount)
	}
	return append(targets,
		&o.ParkingInfo.CarPlate, &o.ParkingInfo.StartDate, &o.ParkingInfo.EndDate, &o.Remark, &o.ReversalFlag,
	)
}

func feeLinePtr(o *entities.Order, c entities.FeeCategory) *entities.FeeLine {
	switch c {
	case entities.FeeElectricity:
		return &o.Electricity
	case entities.FeeHotWater:
		return &o.HotWater
	case entities.FeeColdWater:
		return &o.ColdWater
	case entities.FeeNetwork:
		return &o.Network
	case entities.FeeParking:
		return &o.Parking
	case entities.FeeRent:
		return &o.Rent
	case entities.FeeManagement:
		return &o.Management
	}
	panic(fmt.Sprintf("неизвестный вид платежа: %d", c))
}

type OrderRepositoryInterface interface {
	Create(ctx context.Context, tx pgx.Tx, o *entities.Order) (uint64, error)
	FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Order, error)
	FindDetail(ctx context.Context, id uint64) (*entities.OrderDetail, error)
	List(ctx context.Context, filter entities.OrderFilter, page types.Page) ([]entities.Order, uint64, error)
	Query(ctx context.Context, q entities.OrderQuery, page types.Page) ([]entities.DetailedOrderRow, uint64, error)
	ListByAddress(ctx context.Context, communityID *int, addressID uint64, limit uint64) ([]entities.Order, error)
	UpdateReversal(ctx context.Context, tx pgx.Tx, id uint64, remark string, flag int) error
	Delete(ctx context.Context, tx pgx.Tx, id uint64) error
}

type OrderRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewOrderRepository(storage *pgxpool.Pool, logger *zap.Logger) OrderRepositoryInterface {
	return &OrderRepository{storage: storage, logger: logger}
}

func (r *OrderRepository) getQuerier(tx pgx.Tx) Querier {
	if tx != nil {
		return tx
	}
	return r.storage
}

func (r *OrderRepository) Create(ctx context.Context, tx pgx.Tx, o *entities.Order) (uint64, error) {
	values := []any{
		o.BillNumber, o.AddressID, o.OperatorID, o.CommunityID, o.EntryTime,
		o.TotalAmount, o.RefundAmount, o.PaymentMethod,
	}
	for _, c := range entities.AllFeeCategories {
		line := o.Fee(c)
		values = append(values, line.Quantity, line.Amount)
	}
	values = append(values, o.ParkingInfo.CarPlate, o.ParkingInfo.StartDate, o.ParkingInfo.EndDate, o.Remark, o.ReversalFlag)

	query, args, err := psql.Insert(orderTable).
		Columns(orderColumns[1:]...).
		Values(values...).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("ошибка сборки SQL для создания заказа: %w", err)
	}

	var id uint64
	if err := r.getQuerier(tx).QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return 0, mapDBError(err, "ошибка создания заказа")
	}
	return id, nil
}

func (r *OrderRepository) FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Order, error) {
	query, args, err := psql.Select(prefixed("o", orderColumns)).
		From(orderTable + " o").
		Where(sq.Eq{"o.id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка сборки SQL для заказа: %w", err)
	}

	var o entities.Order
	if err := r.getQuerier(tx).QueryRow(ctx, query, args...).Scan(orderScanTargets(&o)...); err != nil {
		return nil, mapDBError(err, "ошибка получения заказа")
	}
	return &o, nil
}

func (r *OrderRepository) FindDetail(ctx context.Context, id uint64) (*entities.OrderDetail, error) {
	query, args, err := psql.Select(prefixed("o", orderColumns),
		"a.id", "a.community_number", "a.building", "a.room", "a.resident_name", "a.resident_phone",
		"COALESCE(NULLIF(u.real_name, ''), u.username, '')", "COALESCE(c.name, '')").
		From(orderTable + " o").
		Join("addresses a ON a.id = o.address_id").
		LeftJoin("users u ON u.id = o.operator_id").
		LeftJoin("communities c ON c.number = o.community_id").
		Where(sq.Eq{"o.id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка сборки SQL для карточки заказа: %w", err)
	}

	var d entities.OrderDetail
	targets := append(orderScanTargets(&d.Order),
		&d.Address.ID, &d.Address.CommunityNumber, &d.Address.Building, &d.Address.Room,
		&d.Address.ResidentName, &d.Address.ResidentPhone, &d.OperatorName, &d.CommunityName,
	)
	if err := r.storage.QueryRow(ctx, query, args...).Scan(targets...); err != nil {
		return nil, mapDBError(err, "ошибка получения карточки заказа")
	}
	return &d, nil
}

func orderFilterWhere(f entities.OrderFilter) sq.And {
	where := sq.And{}
	if f.CommunityID != nil {
		where = append(where, sq.Eq{"o.community_id": *f.CommunityID})
	}
	if f.BillNumber != "" {
		where = append(where, sq.Like{"o.bill_number": likePattern(f.BillNumber)})
	}
	if f.AddressID != nil {
		where = append(where, sq.Eq{"o.address_id": *f.AddressID})
	}
	if f.StartDate != nil {
		where = append(where, sq.GtOrEq{"o.entry_time": *f.StartDate})
	}
	if f.EndBefore != nil {
		where = append(where, sq.Lt{"o.entry_time": *f.EndBefore})
	}
	return where
}

func (r *OrderRepository) collectOrders(rows pgx.Rows) ([]entities.Order, error) {
	defer rows.Close()
	var result []entities.Order
	for rows.Next() {
		var o entities.Order
		if err := rows.Scan(orderScanTargets(&o)...); err != nil {
			return nil, fmt.Errorf("ошибка сканирования заказа: %w", err)
		}
		result = append(result, o)
	}
	return result, rows.Err()
}

func (r *OrderRepository) List(ctx context.Context, filter entities.OrderFilter, page types.Page) ([]entities.Order, uint64, error) {
	where := orderFilterWhere(filter)

	countQuery, countArgs, err := psql.Select("COUNT(*)").From(orderTable + " o").Where(where).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка сборки SQL для подсчёта заказов: %w", err)
	}
	var total uint64
	if err := r.storage.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ошибка подсчёта заказов: %w", err)
	}
	if total == 0 {
		return []entities.Order{}, 0, nil
	}

	query, args, err := psql.Select(prefixed("o", orderColumns)).
		From(orderTable + " o").
		Where(where).
		OrderBy("o.entry_time DESC", "o.id DESC").
		Limit(page.Limit()).
		Offset(page.Offset()).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка сборки SQL для списка заказов: %w", err)
	}

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка получения списка заказов: %w", err)
	}
	orders, err := r.collectOrders(rows)
	return orders, total, err
}

func (r *OrderRepository) ListByAddress(ctx context.Context, communityID *int, addressID uint64, limit uint64) ([]entities.Order, error) {
	builder := psql.Select(prefixed("o", orderColumns)).
		From(orderTable + " o").
		Where(sq.Eq{"o.address_id": addressID}).
		OrderBy("o.entry_time DESC", "o.id DESC").
		Limit(limit)
	if communityID != nil {
		builder = builder.Where(sq.Eq{"o.community_id": *communityID})
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка сборки SQL для истории платежей: %w", err)
	}

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения истории платежей: %w", err)
	}
	return r.collectOrders(rows)
}

// orderSortColumns: белый список сортировки расширенного поиска.
var orderSortColumns = map[string]string{
	"orderId":     "o.id",
	"totalAmount": "o.total_amount",
	"entryTime":   "o.entry_time",
}

func (r *OrderRepository) Query(ctx context.Context, q entities.OrderQuery, page types.Page) ([]entities.DetailedOrderRow, uint64, error) {
	where := sq.And{}
	if q.CommunityID != nil {
		where = append(where, sq.Eq{"o.community_id": *q.CommunityID})
	}
	if q.Start != nil {
		where = append(where, sq.GtOrEq{"o.entry_time": *q.Start})
	}
	if q.End != nil {
		where = append(where, sq.LtOrEq{"o.entry_time": *q.End})
	}
	if q.Building != "" {
		where = append(where, sq.Eq{"a.building": q.Building})
	}
	if q.Room != "" {
		where = append(where, sq.Eq{"a.room": q.Room})
	}

	countQuery, countArgs, err := psql.Select("COUNT(*)").
		From(orderTable + " o").
		Join("addresses a ON a.id = o.address_id").
		Where(where).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка сборки SQL для подсчёта заказов: %w", err)
	}
	var total uint64
	if err := r.storage.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ошибка подсчёта заказов: %w", err)
	}
	if total == 0 {
		return []entities.DetailedOrderRow{}, 0, nil
	}

	sortCol, ok := orderSortColumns[q.SortField]
	if !ok {
		sortCol = "o.entry_time"
	}
	direction := "ASC"
	if q.SortDesc {
		direction = "DESC"
	}

	builder := detailedSelect().Where(where).OrderBy(sortCol + " " + direction)
	if page.PerPage > 0 {
		builder = builder.Limit(page.Limit()).Offset(page.Offset())
	}
	rows, err := runDetailed(ctx, r.storage, builder)
	return rows, total, err
}

func (r *OrderRepository) UpdateReversal(ctx context.Context, tx pgx.Tx, id uint64, remark string, flag int) error {
	tag, err := r.getQuerier(tx).Exec(ctx, `UPDATE orders SET remark = $1, reversal_flag = $2 WHERE id = $3`, remark, flag, id)
	if err != nil {
		return mapDBError(err, "ошибка обновления признака сторно")
	}
	if tag.RowsAffected() == 0 {
		return mapDBError(pgx.ErrNoRows, "")
	}
	return nil
}

func (r *OrderRepository) Delete(ctx context.Context, tx pgx.Tx, id uint64) error {
	tag, err := r.getQuerier(tx).Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return mapDBError(err, "ошибка удаления заказа")
	}
	if tag.RowsAffected() == 0 {
		return mapDBError(pgx.ErrNoRows, "")
	}
	return nil
}

// detailedSelect: заказ с адресом, оператором и названием комплекса.
func detailedSelect() sq.SelectBuilder {
	return psql.Select(prefixed("o", orderColumns),
		"COALESCE(c.name, '')", "a.building", "a.room",
		"COALESCE(a.resident_name, '')", "COALESCE(a.resident_phone, '')",
		"COALESCE(NULLIF(u.real_name, ''), u.username, '')").
		From(orderTable + " o").
		Join("addresses a ON a.id = o.address_id").
		LeftJoin("users u ON u.id = o.operator_id").
		LeftJoin("communities c ON c.number = o.community_id")
}

func runDetailed(ctx context.Context, q Querier, builder sq.SelectBuilder) ([]entities.DetailedOrderRow, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка сборки SQL для реестра заказов: %w", err)
	}
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения реестра заказов: %w", err)
	}
	defer rows.Close()

	var result []entities.DetailedOrderRow
	for rows.Next() {
		var row entities.DetailedOrderRow
		targets := append(orderScanTargets(&row.Order),
			&row.CommunityName, &row.Building, &row.Room, &row.ResidentName, &row.ResidentPhone, &row.OperatorName)
		if err := rows.Scan(targets...); err != nil {
			return nil, fmt.Errorf("ошибка сканирования реестра заказов: %w", err)
		}
		result = append(result, row)
	}
	return result, rows.Err()
}
