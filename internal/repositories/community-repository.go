package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"property-billing/internal/entities"
)

type CommunityRepositoryInterface interface {
	FindByName(ctx context.Context, tx pgx.Tx, name string) (*entities.Community, error)
	FindByNumber(ctx context.Context, tx pgx.Tx, number int) (*entities.Community, error)
	Register(ctx context.Context, tx pgx.Tx, c entities.Community) error
	ListNames(ctx context.Context) ([]string, error)
}

type CommunityRepository struct {
	storage *pgxpool.Pool
}

func NewCommunityRepository(storage *pgxpool.Pool) CommunityRepositoryInterface {
	return &CommunityRepository{storage: storage}
}

func (r *CommunityRepository) getQuerier(tx pgx.Tx) Querier {
	if tx != nil {
		return tx
	}
	return r.storage
}

func (r *CommunityRepository) FindByName(ctx context.Context, tx pgx.Tx, name string) (*entities.Community, error) {
	var c entities.Community
	err := r.getQuerier(tx).QueryRow(ctx, `SELECT number, name FROM communities WHERE name = $1`, name).Scan(&c.Number, &c.Name)
	if err != nil {
		return nil, mapDBError(err, "ошибка поиска комплекса по названию")
	}
	return &c, nil
}

func (r *CommunityRepository) FindByNumber(ctx context.Context, tx pgx.Tx, number int) (*entities.Community, error) {
	var c entities.Community
	err := r.getQuerier(tx).QueryRow(ctx, `SELECT number, name FROM communities WHERE number = $1`, number).Scan(&c.Number, &c.Name)
	if err != nil {
		return nil, mapDBError(err, "ошибка поиска комплекса по номеру")
	}
	return &c, nil
}

// Register добавляет комплекс в реестр. Повторная регистрация с тем же номером и названием не ошибка.
func (r *CommunityRepository) Register(ctx context.Context, tx pgx.Tx, c entities.Community) error {
	_, err := r.getQuerier(tx).Exec(ctx,
		`INSERT INTO communities (number, name) VALUES ($1, $2)
		 ON CONFLICT (number) DO UPDATE SET name = EXCLUDED.name WHERE communities.name = EXCLUDED.name`,
		c.Number, c.Name)
	if err != nil {
		return mapDBError(err, "ошибка регистрации комплекса")
	}
	return nil
}

func (r *CommunityRepository) ListNames(ctx context.Context) ([]string, error) {
	rows, err := r.storage.Query(ctx, `SELECT name FROM communities WHERE name <> '' ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка комплексов: %w", err)
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения списка комплексов: %w", err)
	}
	return names, nil
}
