package repositories

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"property-billing/internal/entities"
	"property-billing/pkg/types"
)

const feePriceFields = `p.id, p.community_number, c.name, p.electricity, p.cold_water, p.hot_water,
	p.network, p.parking, p.rent, p.management, p.created_at, p.updated_at`

type FeePriceRepositoryInterface interface {
	FindByCommunityNumber(ctx context.Context, tx pgx.Tx, number int) (*entities.FeePrice, error)
	FindByCommunityName(ctx context.Context, tx pgx.Tx, name string) (*entities.FeePrice, error)
	List(ctx context.Context, nameFilter string, page types.Page) ([]entities.FeePrice, uint64, error)
	ListAll(ctx context.Context) ([]entities.FeePrice, error)
	Create(ctx context.Context, tx pgx.Tx, p entities.FeePrice) (uint64, error)
	Update(ctx context.Context, tx pgx.Tx, communityNumber int, changes entities.PriceChanges) error
	// Upsert перезаписывает все тарифы комплекса. Возвращает true, если строка создана.
	Upsert(ctx context.Context, tx pgx.Tx, p entities.FeePrice) (bool, error)
	Delete(ctx context.Context, tx pgx.Tx, communityNumber int) error
}

type FeePriceRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewFeePriceRepository(storage *pgxpool.Pool, logger *zap.Logger) FeePriceRepositoryInterface {
	return &FeePriceRepository{storage: storage, logger: logger}
}

func (r *FeePriceRepository) getQuerier(tx pgx.Tx) Querier {
	if tx != nil {
		return tx
	}
	return r.storage
}

func (r *FeePriceRepository) baseSelect() sq.SelectBuilder {
	return psql.Select(feePriceFields).
		From("fee_prices p").
		Join("communities c ON c.number = p.community_number")
}

func scanFeePrice(row pgx.Row) (*entities.FeePrice, error) {
	var p entities.FeePrice
	err := row.Scan(
		&p.ID, &p.CommunityNumber, &p.CommunityName,
		&p.Electricity, &p.ColdWater, &p.HotWater, &p.Network, &p.Parking, &p.Rent, &p.Management,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, mapDBError(err, "ошибка сканирования тарифов")
	}
	return &p, nil
}

func (r *FeePriceRepository) findOne(ctx context.Context, tx pgx.Tx, where sq.Sqlizer) (*entities.FeePrice, error) {
	query, args, err := r.baseSelect().Where(where).ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка сборки SQL для тарифов: %w", err)
	}
	return scanFeePrice(r.getQuerier(tx).QueryRow(ctx, query, args...))
}

func (r *FeePriceRepository) FindByCommunityNumber(ctx context.Context, tx pgx.Tx, number int) (*entities.FeePrice, error) {
	return r.findOne(ctx, tx, sq.Eq{"p.community_number": number})
}

func (r *FeePriceRepository) FindByCommunityName(ctx context.Context, tx pgx.Tx, name string) (*entities.FeePrice, error) {
	return r.findOne(ctx, tx, sq.Eq{"c.name": name})
}

func (r *FeePriceRepository) collect(rows pgx.Rows) ([]entities.FeePrice, error) {
	defer rows.Close()
	var result []entities.FeePrice
	for rows.Next() {
		p, err := scanFeePrice(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	return result, rows.Err()
}

func (r *FeePriceRepository) List(ctx context.Context, nameFilter string, page types.Page) ([]entities.FeePrice, uint64, error) {
	where := sq.And{}
	if nameFilter != "" {
		where = append(where, sq.ILike{"c.name": likePattern(nameFilter)})
	}

	countQuery, countArgs, err := psql.Select("COUNT(*)").
		From("fee_prices p").
		Join("communities c ON c.number = p.community_number").
		Where(where).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка сборки SQL для подсчёта тарифов: %w", err)
	}
	var total uint64
	if err := r.storage.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ошибка подсчёта тарифов: %w", err)
	}
	if total == 0 {
		return []entities.FeePrice{}, 0, nil
	}

	query, args, err := r.baseSelect().
		Where(where).
		OrderBy("c.name ASC").
		Limit(page.Limit()).
		Offset(page.Offset()).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка сборки SQL для списка тарифов: %w", err)
	}
	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка получения списка тарифов: %w", err)
	}
	list, err := r.collect(rows)
	return list, total, err
}

func (r *FeePriceRepository) ListAll(ctx context.Context) ([]entities.FeePrice, error) {
	query, args, err := r.baseSelect().OrderBy("c.name ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка сборки SQL для выгрузки тарифов: %w", err)
	}
	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка выгрузки тарифов: %w", err)
	}
	return r.collect(rows)
}

func (r *FeePriceRepository) Create(ctx context.Context, tx pgx.Tx, p entities.FeePrice) (uint64, error) {
	query, args, err := psql.Insert("fee_prices").
		Columns("community_number", "electricity", "cold_water", "hot_water", "network", "parking", "rent", "management").
		Values(p.CommunityNumber, p.Electricity, p.ColdWater, p.HotWater, p.Network, p.Parking, p.Rent, p.Management).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("ошибка сборки SQL для создания тарифов: %w", err)
	}
	var id uint64
	if err := r.getQuerier(tx).QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return 0, mapDBError(err, "ошибка создания тарифов")
	}
	return id, nil
}

func (r *FeePriceRepository) Update(ctx context.Context, tx pgx.Tx, communityNumber int, changes entities.PriceChanges) error {
	builder := psql.Update("fee_prices").
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"community_number": communityNumber})
	for _, c := range entities.AllFeeCategories {
		if v, ok := changes[c]; ok {
			builder = builder.Set(c.Column(), v)
		}
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("ошибка сборки SQL для обновления тарифов: %w", err)
	}

	tag, err := r.getQuerier(tx).Exec(ctx, query, args...)
	if err != nil {
		return mapDBError(err, "ошибка обновления тарифов")
	}
	if tag.RowsAffected() == 0 {
		return mapDBError(pgx.ErrNoRows, "")
	}
	return nil
}

func (r *FeePriceRepository) Upsert(ctx context.Context, tx pgx.Tx, p entities.FeePrice) (bool, error) {
	query, args, err := psql.Insert("fee_prices").
		Columns("community_number", "electricity", "cold_water", "hot_water", "network", "parking", "rent", "management").
		Values(p.CommunityNumber, p.Electricity, p.ColdWater, p.HotWater, p.Network, p.Parking, p.Rent, p.Management).
		Suffix(`ON CONFLICT (community_number) DO UPDATE SET
			electricity = EXCLUDED.electricity,
			cold_water = EXCLUDED.cold_water,
			hot_water = EXCLUDED.hot_water,
			network = EXCLUDED.network,
			parking = EXCLUDED.parking,
			rent = EXCLUDED.rent,
			management = EXCLUDED.management,
			updated_at = NOW()
			RETURNING (xmax = 0) AS is_insert`).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("ошибка сборки SQL для импорта тарифов: %w", err)
	}

	var inserted bool
	if err := r.getQuerier(tx).QueryRow(ctx, query, args...).Scan(&inserted); err != nil {
		return false, mapDBError(err, "ошибка импорта тарифов")
	}
	return inserted, nil
}

func (r *FeePriceRepository) Delete(ctx context.Context, tx pgx.Tx, communityNumber int) error {
	tag, err := r.getQuerier(tx).Exec(ctx, `DELETE FROM fee_prices WHERE community_number = $1`, communityNumber)
	if err != nil {
		return mapDBError(err, "ошибка удаления тарифов")
	}
	if tag.RowsAffected() == 0 {
		return mapDBError(pgx.ErrNoRows, "")
	}
	return nil
}
