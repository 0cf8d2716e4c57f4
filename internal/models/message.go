package models

import (
	"database/sql"
	"time"
)

type MessageStatus string

const (
	MessageStatusDraft     MessageStatus = "draft"
	MessageStatusScheduled MessageStatus = "scheduled"
	MessageStatusSent      MessageStatus = "sent"
	MessageStatusFailed    MessageStatus = "failed"
)

// Message is one (campaign, contact) pairing, created at campaign creation
// with a snapshot of the contact's phone number at that time.
type Message struct {
	ID          int64          `db:"id" json:"id"`
	CampaignID  int64          `db:"campaign_id" json:"campaign_id"`
	ContactID   int64          `db:"contact_id" json:"contact_id"`
	PhoneNumber sql.NullString `db:"phone_number" json:"phone_number,omitempty"`
	Status      MessageStatus  `db:"status" json:"status"`
	Provider    sql.NullString `db:"provider" json:"provider,omitempty"`
	ExternalID  sql.NullString `db:"external_id" json:"external_id,omitempty"`
	Metadata    sql.NullString `db:"metadata" json:"metadata,omitempty"`
	SentAt      sql.NullTime   `db:"sent_at" json:"sent_at,omitempty"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}
