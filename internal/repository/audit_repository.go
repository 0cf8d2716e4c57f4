package repository

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/dakarlabs/sms-campaigner/internal/models"
)

type auditRepository struct {
	db *sqlx.DB
}

func NewAuditRepository(db *sqlx.DB) AuditRepository {
	return &auditRepository{
		db: db,
	}
}

// Append writes one audit record.
func (r *auditRepository) Append(entry *models.AuditEntry) error {
	query := `
		INSERT INTO audit_log (action, resource, resource_id, actor_id, organization_id, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.Exec(query,
		entry.Action, entry.Resource, entry.ResourceID,
		entry.ActorID, entry.OrganizationID, entry.Metadata, time.Now())
	if err != nil {
		return fmt.Errorf("failed to append audit log: %w", err)
	}

	return nil
}
