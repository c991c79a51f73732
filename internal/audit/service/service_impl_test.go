package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	auditdomain "github.com/smallbiznis/narzo/internal/audit/domain"
	"github.com/smallbiznis/narzo/internal/audit/repository"
	"github.com/smallbiznis/narzo/internal/clock"
	obscontext "github.com/smallbiznis/narzo/internal/observability/context"
	"github.com/smallbiznis/narzo/internal/storetest"
	"github.com/smallbiznis/narzo/pkg/db/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestService(t *testing.T) (*Service, *clock.FakeClock) {
	t.Helper()
	fake := clock.NewFakeClock(time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC))
	svc := NewService(Params{
		DB:    storetest.OpenDB(t),
		Log:   zaptest.NewLogger(t),
		GenID: storetest.IDNode(t),
		Clock: fake,
		Repo:  repository.Provide(),
	}).(*Service)
	return svc, fake
}

func TestAuditLogResolvesActorFromContext(t *testing.T) {
	svc, _ := newTestService(t)

	ctx := obscontext.WithActor(context.Background(), string(auditdomain.ActorTypeAdmin), "api_key")
	ctx = obscontext.WithClientIP(ctx, "203.0.113.9")
	ctx = obscontext.WithUserAgent(ctx, "curl/8.0")
	ctx = obscontext.WithRequestID(ctx, "req-1")

	require.NoError(t, svc.Record(ctx, auditdomain.Entry{
		Action:     auditdomain.ActionProductUpsert,
		TargetType: "product",
		TargetID:   "ebook-go",
		Metadata:   map[string]any{"created": true},
	}))

	resp, err := svc.List(context.Background(), auditdomain.ListAuditLogRequest{})
	require.NoError(t, err)
	require.Len(t, resp.AuditLogs, 1)

	entry := resp.AuditLogs[0]
	assert.Equal(t, "admin", entry.ActorType)
	require.NotNil(t, entry.ActorID)
	assert.Equal(t, "api_key", *entry.ActorID)
	require.NotNil(t, entry.IPAddress)
	assert.Equal(t, "203.0.113.9", *entry.IPAddress)
	assert.Equal(t, "req-1", entry.Metadata["request_id"])
	assert.Equal(t, true, entry.Metadata["created"])
	require.NotNil(t, entry.TargetID)
	assert.Equal(t, "ebook-go", *entry.TargetID)
}

func TestAuditLogDefaultsToSystemActor(t *testing.T) {
	svc, _ := newTestService(t)

	require.NoError(t, svc.Record(context.Background(), auditdomain.Entry{Action: auditdomain.ActionOrderPaid, TargetType: "order"}))

	resp, err := svc.List(context.Background(), auditdomain.ListAuditLogRequest{Action: auditdomain.ActionOrderPaid})
	require.NoError(t, err)
	require.Len(t, resp.AuditLogs, 1)
	assert.Equal(t, "system", resp.AuditLogs[0].ActorType)
	assert.Nil(t, resp.AuditLogs[0].ActorID)
}

func TestAuditLogRejectsUnknownActionAndActor(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	err := svc.Record(ctx, auditdomain.Entry{Action: "  ", TargetType: "order"})
	assert.ErrorIs(t, err, auditdomain.ErrInvalidAction)
	err = svc.Record(ctx, auditdomain.Entry{Action: "order.refunded", TargetType: "order"})
	assert.ErrorIs(t, err, auditdomain.ErrInvalidAction)
	err = svc.Record(ctx, auditdomain.Entry{Actor: "robot", Action: auditdomain.ActionOrderPaid})
	assert.ErrorIs(t, err, auditdomain.ErrInvalidActorType)
}

func TestAuditLogMasksCustomerDetails(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Record(ctx, auditdomain.Entry{
		Actor:      auditdomain.ActorTypeGateway,
		ActorID:    "tripay",
		Action:     auditdomain.ActionOrderPaid,
		TargetType: "order",
		TargetID:   "NRZ-1-AAAAAA",
		Metadata:   map[string]any{"customer_email": "budi@example.com", "amount": 50000},
	}))

	resp, err := svc.List(ctx, auditdomain.ListAuditLogRequest{TargetID: "NRZ-1-AAAAAA"})
	require.NoError(t, err)
	require.Len(t, resp.AuditLogs, 1)
	entry := resp.AuditLogs[0]
	assert.Equal(t, "gateway", entry.ActorType)
	assert.Equal(t, "b****@example.com", entry.Metadata["customer_email"])
	assert.Equal(t, json.Number("50000"), entry.Metadata["amount"])
}

func TestListPaginates(t *testing.T) {
	svc, fake := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, svc.Record(ctx, auditdomain.Entry{Action: auditdomain.ActionPostUpsert, TargetType: "post"}))
		fake.Advance(time.Minute)
	}

	first, err := svc.List(ctx, auditdomain.ListAuditLogRequest{Pagination: pagination.Pagination{PageSize: 3}})
	require.NoError(t, err)
	require.Len(t, first.AuditLogs, 3)
	assert.True(t, first.HasMore)
	require.NotEmpty(t, first.NextPageToken)

	second, err := svc.List(ctx, auditdomain.ListAuditLogRequest{
		Pagination: pagination.Pagination{PageSize: 3, PageToken: first.NextPageToken},
	})
	require.NoError(t, err)
	require.Len(t, second.AuditLogs, 2)
	assert.False(t, second.HasMore)
	assert.True(t, second.AuditLogs[0].CreatedAt.Before(first.AuditLogs[2].CreatedAt))
}

func TestListRejectsBadInput(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.List(ctx, auditdomain.ListAuditLogRequest{Pagination: pagination.Pagination{PageToken: "%%%"}})
	assert.ErrorIs(t, err, auditdomain.ErrInvalidPageToken)

	start := time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC)
	end := start.Add(-time.Hour)
	_, err = svc.List(ctx, auditdomain.ListAuditLogRequest{StartAt: &start, EndAt: &end})
	assert.ErrorIs(t, err, auditdomain.ErrInvalidTimeRange)
}
