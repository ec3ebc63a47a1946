package repositories

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"property-billing/internal/entities"
)

const userFields = `u.id, u.username, u.password_hash, u.real_name, c.name, u.community_number,
	u.role, u.can_edit, u.can_read, u.can_report, u.created_at, u.updated_at`

type UserRepositoryInterface interface {
	FindByID(ctx context.Context, id uint64) (*entities.User, error)
	FindByUsername(ctx context.Context, username string) (*entities.User, error)
	Create(ctx context.Context, tx pgx.Tx, u entities.User) (uint64, error)
	UpdateRealName(ctx context.Context, id uint64, realName string) error
}

type UserRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewUserRepository(storage *pgxpool.Pool, logger *zap.Logger) UserRepositoryInterface {
	return &UserRepository{storage: storage, logger: logger}
}

func (r *UserRepository) getQuerier(tx pgx.Tx) Querier {
	if tx != nil {
		return tx
	}
	return r.storage
}

func scanUser(row pgx.Row) (*entities.User, error) {
	var u entities.User
	err := row.Scan(
		&u.ID, &u.Username, &u.Password, &u.RealName, &u.CommunityName, &u.CommunityNumber,
		&u.Role, &u.CanEdit, &u.CanRead, &u.CanReport, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, mapDBError(err, "ошибка сканирования пользователя")
	}
	return &u, nil
}

func (r *UserRepository) findOne(ctx context.Context, where sq.Eq) (*entities.User, error) {
	query, args, err := psql.Select(userFields).
		From("users u").
		Join("communities c ON c.number = u.community_number").
		Where(where).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка сборки SQL для пользователя: %w", err)
	}
	return scanUser(r.storage.QueryRow(ctx, query, args...))
}

func (r *UserRepository) FindByID(ctx context.Context, id uint64) (*entities.User, error) {
	return r.findOne(ctx, sq.Eq{"u.id": id})
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*entities.User, error) {
	return r.findOne(ctx, sq.Eq{"u.username": username})
}

func (r *UserRepository) Create(ctx context.Context, tx pgx.Tx, u entities.User) (uint64, error) {
	query, args, err := psql.Insert("users").
		Columns("username", "password_hash", "real_name", "community_number", "role", "can_edit", "can_read", "can_report").
		Values(u.Username, u.Password, u.RealName, u.CommunityNumber, string(u.Role), u.CanEdit, u.CanRead, u.CanReport).
		Suffix(`ON CONFLICT (username) DO UPDATE SET
			password_hash = EXCLUDED.password_hash,
			real_name = EXCLUDED.real_name,
			community_number = EXCLUDED.community_number,
			role = EXCLUDED.role,
			can_edit = EXCLUDED.can_edit,
			can_read = EXCLUDED.can_read,
			can_report = EXCLUDED.can_report,
			updated_at = NOW()
			RETURNING id`).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("ошибка сборки SQL для создания пользователя: %w", err)
	}

	var id uint64
	if err := r.getQuerier(tx).QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return 0, mapDBError(err, "ошибка создания пользователя")
	}
	return id, nil
}

func (r *UserRepository) UpdateRealName(ctx context.Context, id uint64, realName string) error {
	tag, err := r.storage.Exec(ctx, `UPDATE users SET real_name = $1, updated_at = NOW() WHERE id = $2`, realName, id)
	if err != nil {
		return mapDBError(err, "ошибка обновления имени пользователя")
	}
	if tag.RowsAffected() == 0 {
		return mapDBError(pgx.ErrNoRows, "")
	}
	return nil
}
