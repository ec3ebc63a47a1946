package events

import "property-billing/internal/entities"

const AuditRecordedEventName = "audit.record"

// AuditRecordedEvent - запись журнала операций, ожидающая сохранения.
type AuditRecordedEvent struct {
	Entry entities.OperationLog
}

// Name - реализуем интерфейс eventbus.Event
func (e AuditRecordedEvent) Name() string {
	return AuditRecordedEventName
}
