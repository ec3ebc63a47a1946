package repositories

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"

	"property-billing/internal/entities"
	"property-billing/pkg/types"
)

const operationLogFields = `id, user_id, username, real_name, role, community_name, community_number, created_at,
	client_ip, client_hostname, user_agent, operation_type, module, details, target_id, target_type,
	result, request_method, request_url`

type OperationLogRepositoryInterface interface {
	Insert(ctx context.Context, l entities.OperationLog) error
	List(ctx context.Context, filter entities.OperationLogFilter, page types.Page) ([]entities.OperationLog, uint64, error)
	// DeleteOlderThan удаляет не больше batch записей старше cutoff.
	DeleteOlderThan(ctx context.Context, cutoff time.Time, batch int) (int64, error)
	CountOlderThan(ctx context.Context, cutoff time.Time) (uint64, error)
}

type OperationLogRepository struct {
	storage *pgxpool.Pool
}

func NewOperationLogRepository(storage *pgxpool.Pool) OperationLogRepositoryInterface {
	return &OperationLogRepository{storage: storage}
}

func (r *OperationLogRepository) Insert(ctx context.Context, l entities.OperationLog) error {
	query, args, err := psql.Insert("operation_logs").
		Columns("user_id", "username", "real_name", "role", "community_name", "community_number", "created_at",
			"client_ip", "client_hostname", "user_agent", "operation_type", "module", "details",
			"target_id", "target_type", "result", "request_method", "request_url").
		Values(l.UserID, l.Username, l.RealName, l.Role, l.CommunityName, l.CommunityNumber, l.CreatedAt,
			l.ClientIP, l.ClientHostname, l.UserAgent, l.OperationType, l.Module, l.Details,
			l.TargetID, l.TargetType, l.Result, l.RequestMethod, l.RequestURL).
		ToSql()
	if err != nil {
		return fmt.Errorf("ошибка сборки SQL для журнала операций: %w", err)
	}
	if _, err := r.storage.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("ошибка записи в журнал операций: %w", err)
	}
	return nil
}

func (r *OperationLogRepository) List(ctx context.Context, filter entities.OperationLogFilter, page types.Page) ([]entities.OperationLog, uint64, error) {
	where := sq.And{}
	if filter.Username != "" {
		where = append(where, sq.Like{"username": likePattern(filter.Username)})
	}
	if filter.OperationType != "" {
		where = append(where, sq.Like{"operation_type": likePattern(filter.OperationType)})
	}
	if filter.StartDate != nil {
		where = append(where, sq.GtOrEq{"created_at": *filter.StartDate})
	}
	if filter.EndBefore != nil {
		where = append(where, sq.Lt{"created_at": *filter.EndBefore})
	}

	countQuery, countArgs, err := psql.Select("COUNT(*)").From("operation_logs").Where(where).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка сборки COUNT-запроса журнала: %w", err)
	}
	var total uint64
	if err := r.storage.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ошибка подсчёта записей журнала: %w", err)
	}
	if total == 0 {
		return []entities.OperationLog{}, 0, nil
	}

	query, args, err := psql.Select(operationLogFields).
		From("operation_logs").
		Where(where).
		OrderBy("created_at DESC", "id DESC").
		Limit(page.Limit()).
		Offset(page.Offset()).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка сборки SQL для журнала: %w", err)
	}

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка чтения журнала: %w", err)
	}
	defer rows.Close()

	var logs []entities.OperationLog
	for rows.Next() {
		var l entities.OperationLog
		if err := rows.Scan(
			&l.ID, &l.UserID, &l.Username, &l.RealName, &l.Role, &l.CommunityName, &l.CommunityNumber, &l.CreatedAt,
			&l.ClientIP, &l.ClientHostname, &l.UserAgent, &l.OperationType, &l.Module, &l.Details,
			&l.TargetID, &l.TargetType, &l.Result, &l.RequestMethod, &l.RequestURL,
		); err != nil {
			return nil, 0, fmt.Errorf("ошибка сканирования журнала: %w", err)
		}
		logs = append(logs, l)
	}
	return logs, total, rows.Err()
}

func (r *OperationLogRepository) CountOlderThan(ctx context.Context, cutoff time.Time) (uint64, error) {
	var n uint64
	if err := r.storage.QueryRow(ctx, `SELECT COUNT(*) FROM operation_logs WHERE created_at < $1`, cutoff).Scan(&n); err != nil {
		return 0, fmt.Errorf("ошибка подсчёта устаревших записей журнала: %w", err)
	}
	return n, nil
}

func (r *OperationLogRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time, batch int) (int64, error) {
	tag, err := r.storage.Exec(ctx,
		`DELETE FROM operation_logs WHERE id IN (
			SELECT id FROM operation_logs WHERE created_at < $1 ORDER BY id LIMIT $2
		)`, cutoff, batch)
	if err != nil {
		return 0, fmt.Errorf("ошибка очистки журнала операций: %w", err)
	}
	return tag.RowsAffected(), nil
}
