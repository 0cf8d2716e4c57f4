// Package models defines data structures used throughout the application.
package models

import (
	"database/sql"
	"time"
)

type CampaignStatus string

const (
	CampaignStatusDraft         CampaignStatus = "draft"
	CampaignStatusScheduled     CampaignStatus = "scheduled"
	CampaignStatusSending       CampaignStatus = "sending"
	CampaignStatusSent          CampaignStatus = "sent"
	CampaignStatusPartiallySent CampaignStatus = "partially_sent"
	CampaignStatusFailed        CampaignStatus = "failed"
	CampaignStatusCancelled     CampaignStatus = "cancelled"
)

// IsTerminal reports whether the status ends a campaign's dispatch lifecycle.
func (s CampaignStatus) IsTerminal() bool {
	switch s {
	case CampaignStatusSent, CampaignStatusPartiallySent, CampaignStatusFailed, CampaignStatusCancelled:
		return true
	}
	return false
}

// Campaign represents a bulk SMS campaign in the database.
type Campaign struct {
	ID             int64          `db:"id" json:"id"`
	OrganizationID int64          `db:"organization_id" json:"organization_id"`
	CreatedBy      int64          `db:"created_by" json:"created_by"`
	Name           string         `db:"name" json:"name"`
	Body           string         `db:"body" json:"body"`
	Status         CampaignStatus `db:"status" json:"status"`
	ScheduledAt    sql.NullTime   `db:"scheduled_at" json:"scheduled_at,omitempty"`
	SentAt         sql.NullTime   `db:"sent_at" json:"sent_at,omitempty"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updated_at"`
}
