package services

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"property-billing/internal/entities"
	"property-billing/internal/events"
	apperrors "property-billing/pkg/errors"
	"property-billing/pkg/types"
)

func TestRecordPublishesEntry(t *testing.T) {
	publisher := &fakePublisher{}
	svc := NewAuditService(&fakeLogRepo{}, publisher, zap.NewNop())
	community := 9

	svc.Record(context.Background(), Caller{
		User:      operatorUser(5),
		IP:        "192.168.1.20",
		Hostname:  "cashier-01",
		UserAgent: "Mozilla/5.0",
		Method:    "DELETE",
		URL:       "/api/orders/3",
	}, AuditRecord{OperationType: AuditDeleteOrder, Module: "orders", Details: "删除订单", CommunityNumber: &community})

	require.Len(t, publisher.events, 1)
	ev, ok := publisher.events[0].(events.AuditRecordedEvent)
	require.True(t, ok)
	assert.Equal(t, events.AuditRecordedEventName, ev.Name())

	entry := ev.Entry
	assert.Equal(t, "op", entry.Username)
	assert.Equal(t, "operator", entry.Role)
	assert.Equal(t, 9, entry.CommunityNumber)
	assert.Equal(t, "cashier-01", entry.ClientHostname)
	assert.Equal(t, "DELETE", entry.RequestMethod)
	assert.Equal(t, auditResultSuccess, entry.Result)
	assert.False(t, entry.CreatedAt.IsZero())
}

func TestRecordWithoutUser(t *testing.T) {
	publisher := &fakePublisher{}
	svc := NewAuditService(&fakeLogRepo{}, publisher, zap.NewNop())

	svc.Record(context.Background(), Caller{IP: "127.0.0.1"}, AuditRecord{OperationType: AuditLogin, Result: "失败"})

	entry := publisher.events[0].(events.AuditRecordedEvent).Entry
	assert.Empty(t, entry.Username)
	assert.Equal(t, "失败", entry.Result)
}

func TestListLogsAdminOnly(t *testing.T) {
	repo := &fakeLogRepo{inserted: []entities.OperationLog{{ID: 1}}}
	svc := NewAuditService(repo, &fakePublisher{}, zap.NewNop())

	_, _, err := svc.ListLogs(context.Background(), Caller{User: operatorUser(5)}, entities.OperationLogFilter{}, types.Page{Number: 1, PerPage: 50})
	assert.Equal(t, http.StatusForbidden, apperrors.StatusCode(err))

	logs, total, err := svc.ListLogs(context.Background(), Caller{User: adminUser()}, entities.OperationLogFilter{}, types.Page{Number: 2, PerPage: 50})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), total)
	assert.Len(t, logs, 1)
	assert.Equal(t, 2, repo.lastPage.Number)
}

func TestPurgeOlderThanBatches(t *testing.T) {
	repo := &fakeLogRepo{remaining: 2500}
	svc := NewAuditService(repo, &fakePublisher{}, zap.NewNop())

	deleted, err := svc.PurgeOlderThan(context.Background(), time.Now().AddDate(-1, 0, 0), 1000)

	require.NoError(t, err)
	assert.Equal(t, int64(2500), deleted)
	assert.Equal(t, []int64{1000, 1000, 500}, repo.batches)
}

func TestPurgeExactMultipleStopsOnEmptyBatch(t *testing.T) {
	repo := &fakeLogRepo{remaining: 2000}
	svc := NewAuditService(repo, &fakePublisher{}, zap.NewNop())

	deleted, err := svc.PurgeOlderThan(context.Background(), time.Now(), 1000)

	require.NoError(t, err)
	assert.Equal(t, int64(2000), deleted)
	assert.Equal(t, []int64{1000, 1000, 0}, repo.batches)

	_, err = svc.PurgeOlderThan(context.Background(), time.Now(), 0)
	assert.Equal(t, http.StatusBadRequest, apperrors.StatusCode(err))
}
