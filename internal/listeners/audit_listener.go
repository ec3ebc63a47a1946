package listeners

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"property-billing/internal/events"
	"property-billing/internal/repositories"
	"property-billing/pkg/eventbus"
	"property-billing/pkg/metrics"
)

// AuditListener сохраняет записи журнала. Ошибка записи не влияет на исходную операцию.
type AuditListener struct {
	logRepo repositories.OperationLogRepositoryInterface
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func NewAuditListener(logRepo repositories.OperationLogRepositoryInterface, m *metrics.Metrics, logger *zap.Logger) *AuditListener {
	return &AuditListener{logRepo: logRepo, metrics: m, logger: logger}
}

func (l *AuditListener) Register(bus *eventbus.Bus) {
	bus.Subscribe(events.AuditRecordedEventName, l.handleAuditRecorded)
	l.logger.Info("AuditListener подписан на событие", zap.String("event", events.AuditRecordedEventName))
}

func (l *AuditListener) handleAuditRecorded(ctx context.Context, e eventbus.Event) error {
	event, ok := e.(events.AuditRecordedEvent)
	if !ok {
		return fmt.Errorf("неожиданный тип события: %T", e)
	}

	if err := l.logRepo.Insert(ctx, event.Entry); err != nil {
		l.metrics.AuditFailed()
		l.logger.Warn("Не удалось записать журнал операций",
			zap.String("operation", event.Entry.OperationType),
			zap.String("username", event.Entry.Username),
			zap.Error(err),
		)
		return err
	}
	return nil
}
