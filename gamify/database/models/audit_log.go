package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// AuditLog is the append-only trail of guarded stats operations. Rows
// are never updated or deleted.
type AuditLog struct {
	bun.BaseModel `bun:"table:audit_logs,alias:alog"`

	ID        uuid.UUID       `bun:"id,pk,type:uuid"`
	UserID    string          `bun:"user_id,notnull"`
	Operation string          `bun:"operation,notnull"`
	Source    string          `bun:"source,notnull"`
	Before    json.RawMessage `bun:"before_state,type:jsonb"`
	After     json.RawMessage `bun:"after_state,type:jsonb"`
	Success   bool            `bun:"success,notnull"`
	Error     string          `bun:"error"`
	CreatedAt time.Time       `bun:"created_at,notnull,default:current_timestamp"`
}
