package domain

import (
	"context"
	"errors"
	"time"

	"github.com/smallbiznis/narzo/pkg/db/pagination"
)

const (
	ActionProductUpsert  = "product.upsert"
	ActionProductDelete  = "product.delete"
	ActionPostUpsert     = "post.upsert"
	ActionPostDelete     = "post.delete"
	ActionCategoryUpsert = "category.upsert"
	ActionCategoryDelete = "category.delete"
	ActionFileUpload     = "file.upload"
	ActionFilePut        = "file.put"
	ActionOrderPaid      = "order.paid"
	ActionOrderExpired   = "order.expired"
	ActionOrderFailed    = "order.failed"
)

var knownActions = map[string]struct{}{
	ActionProductUpsert:  {},
	ActionProductDelete:  {},
	ActionPostUpsert:     {},
	ActionPostDelete:     {},
	ActionCategoryUpsert: {},
	ActionCategoryDelete: {},
	ActionFileUpload:     {},
	ActionFilePut:        {},
	ActionOrderPaid:      {},
	ActionOrderExpired:   {},
	ActionOrderFailed:    {},
}

func IsKnownAction(action string) bool {
	_, ok := knownActions[action]
	return ok
}

// Entry is one audited change. An empty Actor is resolved from the request
// context, falling back to system.
type Entry struct {
	Actor      ActorType
	ActorID    string
	Action     string
	TargetType string
	TargetID   string
	Metadata   map[string]any
}

type ListAuditLogRequest struct {
	pagination.Pagination
	Action     string
	TargetType string
	TargetID   string
	ActorType  string
	StartAt    *time.Time
	EndAt      *time.Time
}

type ListAuditLogResponse struct {
	pagination.PageInfo
	AuditLogs []AuditLog `json:"audit_logs"`
}

type Service interface {
	Record(ctx context.Context, entry Entry) error
	List(ctx context.Context, req ListAuditLogRequest) (ListAuditLogResponse, error)
}

var (
	ErrInvalidPageToken = errors.New("invalid_page_token")
	ErrInvalidTimeRange = errors.New("invalid_time_range")
	ErrInvalidAction    = errors.New("invalid_action")
	ErrInvalidActorType = errors.New("invalid_actor_type")
)
