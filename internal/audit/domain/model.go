package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type ActorType string

const (
	ActorTypeSystem  ActorType = "system"
	ActorTypeAdmin   ActorType = "admin"
	ActorTypeGateway ActorType = "gateway"
)

func (a ActorType) Valid() bool {
	switch a {
	case ActorTypeSystem, ActorTypeAdmin, ActorTypeGateway:
		return true
	}
	return false
}

type AuditLog struct {
	ID         snowflake.ID      `json:"id" gorm:"primaryKey"`
	ActorType  string            `json:"actor_type" gorm:"type:text;not null"`
	ActorID    *string           `json:"actor_id,omitempty" gorm:"type:text"`
	Action     string            `json:"action" gorm:"type:text;not null;index"`
	TargetType string            `json:"target_type" gorm:"type:text;not null"`
	TargetID   *string           `json:"target_id,omitempty" gorm:"type:text"`
	Metadata   datatypes.JSONMap `json:"metadata,omitempty" gorm:"type:json"`
	IPAddress  *string           `json:"ip_address,omitempty" gorm:"type:text"`
	UserAgent  *string           `json:"user_agent,omitempty" gorm:"type:text"`
	CreatedAt  time.Time         `json:"created_at" gorm:"not null"`
}

func (AuditLog) TableName() string { return "audit_logs" }

type AuditCursor struct {
	ID        snowflake.ID
	CreatedAt time.Time
}

type ListFilter struct {
	Action     string
	TargetType string
	TargetID   string
	ActorType  string
	StartAt    *time.Time
	EndAt      *time.Time
	Cursor     *AuditCursor
	Limit      int
}

// Conditions returns the WHERE fragments for the filter, cursor included.
func (f ListFilter) Conditions() []Condition {
	var conds []Condition
	for _, eq := range [...]struct{ column, value string }{
		{"action", f.Action},
		{"target_type", f.TargetType},
		{"target_id", f.TargetID},
		{"actor_type", f.ActorType},
	} {
		if value := strings.TrimSpace(eq.value); value != "" {
			conds = append(conds, Condition{SQL: eq.column + " = ?", Args: []any{value}})
		}
	}
	if f.StartAt != nil {
		conds = append(conds, Condition{SQL: "created_at >= ?", Args: []any{f.StartAt.UTC()}})
	}
	if f.EndAt != nil {
		conds = append(conds, Condition{SQL: "created_at <= ?", Args: []any{f.EndAt.UTC()}})
	}
	if f.Cursor != nil {
		conds = append(conds, Condition{
			SQL:  "(created_at < ?) OR (created_at = ? AND id < ?)",
			Args: []any{f.Cursor.CreatedAt, f.Cursor.CreatedAt, f.Cursor.ID},
		})
	}
	return conds
}

type Condition struct {
	SQL  string
	Args []any
}
