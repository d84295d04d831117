package postgres

import (
	"context"

	"github.com/chronotracker/chronotracker-api/internal/approval"
	auditDatamodel "github.com/chronotracker/chronotracker-api/internal/core/datamodel/audit"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AuditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) approval.AuditRepository {
	return &AuditRepository{db: db}
}

// Record inserts the entry; a redelivered event id is a no-op.
func (r *AuditRepository) Record(ctx context.Context, e *auditDatamodel.Entry) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "event_id"}}, DoNothing: true}).
		Create(e).Error
}

func (r *AuditRepository) ListForRecord(ctx context.Context, kind string, recordID int64) ([]*auditDatamodel.Entry, error) {
	var entries []*auditDatamodel.Entry
	err := r.db.WithContext(ctx).
		Where("record_kind = ? AND record_id = ?", kind, recordID).
		Order("occurred_at ASC, id ASC").
		Find(&entries).Error
	return entries, err
}

func (r *AuditRepository) Recent(ctx context.Context, limit int) ([]*auditDatamodel.Entry, error) {
	var entries []*auditDatamodel.Entry
	err := r.db.WithContext(ctx).
		Order("occurred_at DESC, id DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}
