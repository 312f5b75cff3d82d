package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/openpack/gamify/gamify/database/models"
	"github.com/uptrace/bun"
)

// AuditRepository is append-only: entries are inserted and read, never
// updated or deleted.
type AuditRepository interface {
	Append(ctx context.Context, entry *models.AuditLog) error
	RecentByUser(ctx context.Context, userID string, limit int) ([]*models.AuditLog, error)
}

type auditRepository struct {
	*BaseRepository
}

func NewAuditRepository(db *bun.DB) AuditRepository {
	return &auditRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *auditRepository) Append(ctx context.Context, entry *models.AuditLog) error {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	_, err := r.DB().NewInsert().Model(entry).Exec(ctx)
	return r.HandleErrorWithID("append", "audit_log", entry.UserID, err)
}

func (r *auditRepository) RecentByUser(ctx context.Context, userID string, limit int) ([]*models.AuditLog, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var entries []*models.AuditLog
	err := r.DB().NewSelect().
		Model(&entries).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Scan(ctx)
	return entries, r.HandleErrorWithID("recent_by_user", "audit_log", userID, err)
}
