package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"property-billing/internal/authz"
	"property-billing/internal/entities"
	"property-billing/internal/events"
	"property-billing/internal/repositories"
	apperrors "property-billing/pkg/errors"
	"property-billing/pkg/eventbus"
	"property-billing/pkg/types"
)

const (
	AuditLogin          = "用户登录"
	AuditCreateOrder    = "创建订单"
	AuditReverseOrder   = "红冲订单"
	AuditDeleteOrder    = "删除订单"
	AuditUpdateResident = "修改住户信息"
	AuditUpdatePrices   = "更新收费标准"
	AuditCreatePrices   = "新增收费标准"
	AuditDeletePrices   = "删除收费标准"
	AuditImportPrices   = "导入收费标准"
	AuditExportOrders   = "导出订单明细"
	AuditUpdateUserName = "修改用户姓名"

	auditResultSuccess = "成功"
)

// EventPublisher: шина событий; *eventbus.Bus подходит.
type EventPublisher interface {
	Publish(ctx context.Context, event eventbus.Event)
}

// AuditRecord описывает действие. При CommunityNumber == nil берётся комплекс автора.
type AuditRecord struct {
	OperationType   string
	Module          string
	Details         string
	TargetID        string
	TargetType      string
	CommunityNumber *int
	Result          string
}

type AuditServiceInterface interface {
	Record(ctx context.Context, caller Caller, rec AuditRecord)
	ListLogs(ctx context.Context, caller Caller, filter entities.OperationLogFilter, page types.Page) ([]entities.OperationLog, uint64, error)
	PurgeOlderThan(ctx context.Context, cutoff time.Time, batch int) (int64, error)
}

type AuditService struct {
	logRepo   repositories.OperationLogRepositoryInterface
	publisher EventPublisher
	logger    *zap.Logger
	now       func() time.Time
}

func NewAuditService(
	logRepo repositories.OperationLogRepositoryInterface,
	publisher EventPublisher,
	logger *zap.Logger,
) AuditServiceInterface {
	return &AuditService{logRepo: logRepo, publisher: publisher, logger: logger, now: time.Now}
}

// Record не возвращает ошибку: запись журнала не должна влиять на исход операции.
func (s *AuditService) Record(ctx context.Context, caller Caller, rec AuditRecord) {
	entry := entities.OperationLog{
		CreatedAt:      s.now(),
		ClientIP:       caller.IP,
		ClientHostname: caller.Hostname,
		UserAgent:      caller.UserAgent,
		OperationType:  rec.OperationType,
		Module:         rec.Module,
		Details:        rec.Details,
		TargetID:       rec.TargetID,
		TargetType:     rec.TargetType,
		Result:         rec.Result,
		RequestMethod:  caller.Method,
		RequestURL:     caller.URL,
	}
	if entry.Result == "" {
		entry.Result = auditResultSuccess
	}
	if u := caller.User; u != nil {
		entry.UserID = u.ID
		entry.Username = u.Username
		entry.RealName = u.RealName
		entry.Role = string(u.Role)
		entry.CommunityName = u.CommunityName
		entry.CommunityNumber = u.CommunityNumber
	}
	if rec.CommunityNumber != nil {
		entry.CommunityNumber = *rec.CommunityNumber
	}

	s.logger.Info("Журнал операций",
		zap.String("operation", entry.OperationType),
		zap.String("username", entry.Username),
		zap.String("details", entry.Details),
	)
	s.publisher.Publish(ctx, events.AuditRecordedEvent{Entry: entry})
}

func (s *AuditService) ListLogs(ctx context.Context, caller Caller, filter entities.OperationLogFilter, page types.Page) ([]entities.OperationLog, uint64, error) {
	if !authz.Can(caller.User, authz.LogsView, nil) {
		return nil, 0, apperrors.NewForbiddenError("需要管理员权限")
	}
	logs, total, err := s.logRepo.List(ctx, filter, page)
	if err != nil {
		s.logger.Error("Ошибка получения журнала операций", zap.Error(err))
		return nil, 0, apperrors.NewDatabaseError(err)
	}
	return logs, total, nil
}

// PurgeOlderThan удаляет записи порциями по batch, пока они не закончатся.
func (s *AuditService) PurgeOlderThan(ctx context.Context, cutoff time.Time, batch int) (int64, error) {
	if batch <= 0 {
		return 0, apperrors.NewBadRequestError("Размер порции должен быть больше нуля")
	}

	var total int64
	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		deleted, err := s.logRepo.DeleteOlderThan(ctx, cutoff, batch)
		if err != nil {
			return total, err
		}
		total += deleted
		s.logger.Debug("Порция журнала удалена", zap.Int64("deleted", deleted), zap.Int64("total", total))
		if deleted < int64(batch) {
			break
		}
	}
	s.logger.Info("Очистка журнала операций завершена", zap.Time("cutoff", cutoff), zap.Int64("deleted", total))
	return total, nil
}
