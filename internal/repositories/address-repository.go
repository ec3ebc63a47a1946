package repositories

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"property-billing/internal/entities"
)

const (
	addressTable  = "addresses"
	addressFields = "id, community_number, building, room, resident_name, resident_phone"
)

type AddressRepositoryInterface interface {
	FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Address, error)
	// communityNumber == nil: без ограничения по комплексу.
	ListBuildings(ctx context.Context, communityNumber *int) ([]string, error)
	ListRooms(ctx context.Context, communityNumber *int, building string) ([]entities.Address, error)
	UpdateResident(ctx context.Context, tx pgx.Tx, id uint64, upd entities.ResidentUpdate) error
}

type AddressRepository struct {
	storage *pgxpool.Pool
}

func NewAddressRepository(storage *pgxpool.Pool) AddressRepositoryInterface {
	return &AddressRepository{storage: storage}
}

func (r *AddressRepository) getQuerier(tx pgx.Tx) Querier {
	if tx != nil {
		return tx
	}
	return r.storage
}

func scanAddress(row pgx.Row) (*entities.Address, error) {
	var a entities.Address
	if err := row.Scan(&a.ID, &a.CommunityNumber, &a.Building, &a.Room, &a.ResidentName, &a.ResidentPhone); err != nil {
		return nil, mapDBError(err, "ошибка сканирования адреса")
	}
	return &a, nil
}

func (r *AddressRepository) FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Address, error) {
	query, args, err := psql.Select(addressFields).From(addressTable).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка сборки SQL для адреса: %w", err)
	}
	return scanAddress(r.getQuerier(tx).QueryRow(ctx, query, args...))
}

func (r *AddressRepository) ListBuildings(ctx context.Context, communityNumber *int) ([]string, error) {
	builder := psql.Select("DISTINCT building").From(addressTable).Where(sq.NotEq{"building": ""})
	if communityNumber != nil {
		builder = builder.Where(sq.Eq{"community_number": *communityNumber})
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка сборки SQL для списка корпусов: %w", err)
	}

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка корпусов: %w", err)
	}
	buildings, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения списка корпусов: %w", err)
	}
	return buildings, nil
}

func (r *AddressRepository) ListRooms(ctx context.Context, communityNumber *int, building string) ([]entities.Address, error) {
	builder := psql.Select(addressFields).From(addressTable).Where(sq.Eq{"building": building})
	if communityNumber != nil {
		builder = builder.Where(sq.Eq{"community_number": *communityNumber})
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка сборки SQL для списка квартир: %w", err)
	}

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка квартир: %w", err)
	}
	defer rows.Close()

	var result []entities.Address
	for rows.Next() {
		a, err := scanAddress(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	return result, rows.Err()
}

func (r *AddressRepository) UpdateResident(ctx context.Context, tx pgx.Tx, id uint64, upd entities.ResidentUpdate) error {
	if upd.Empty() {
		return nil
	}
	builder := psql.Update(addressTable).Where(sq.Eq{"id": id})
	if upd.Name != nil {
		builder = builder.Set("resident_name", *upd.Name)
	}
	if upd.Phone != nil {
		builder = builder.Set("resident_phone", *upd.Phone)
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("ошибка сборки SQL для обновления жильца: %w", err)
	}

	tag, err := r.getQuerier(tx).Exec(ctx, query, args...)
	if err != nil {
		return mapDBError(err, "ошибка обновления данных жильца")
	}
	if tag.RowsAffected() == 0 {
		return mapDBError(pgx.ErrNoRows, "")
	}
	return nil
}
