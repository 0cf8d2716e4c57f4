// Package repository provides persistent storage access for campaigns,
// messages and the audit log.
package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
)

// repositoryImpl is the concrete implementation of Repository interface.
type repositoryImpl struct {
	db       *sqlx.DB
	campaign CampaignRepository
	message  MessageRepository
	audit    AuditRepository
}

// NewRepository creates a new repository instance.
func NewRepository(db *sqlx.DB) Repository {
	return &repositoryImpl{
		db:       db,
		campaign: NewCampaignRepository(db),
		message:  NewMessageRepository(db),
		audit:    NewAuditRepository(db),
	}
}

// Campaign returns the campaign repository.
func (r *repositoryImpl) Campaign() CampaignRepository {
	return r.campaign
}

// Message returns the message repository.
func (r *repositoryImpl) Message() MessageRepository {
	return r.message
}

// Audit returns the audit log repository.
func (r *repositoryImpl) Audit() AuditRepository {
	return r.audit
}

// Ping checks if the database connection is healthy.
func (r *repositoryImpl) Ping() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	return r.db.PingContext(ctx)
}
