package repository

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/dakarlabs/sms-campaigner/internal/models"
)

type messageRepository struct {
	db *sqlx.DB
}

func NewMessageRepository(db *sqlx.DB) MessageRepository {
	return &messageRepository{
		db: db,
	}
}

// GetPendingByCampaign retrieves the messages of a campaign that have not yet
// been through a send attempt.
func (r *messageRepository) GetPendingByCampaign(campaignID int64) ([]*models.Message, error) {
	query := `
		SELECT id, campaign_id, contact_id, phone_number, status, provider, external_id, metadata, sent_at, created_at, updated_at
		FROM messages
		WHERE campaign_id = $1
		  AND status IN ($2, $3)
		ORDER BY id ASC
	`

	var messages []*models.Message
	err := r.db.Select(&messages, query, campaignID,
		models.MessageStatusDraft, models.MessageStatusScheduled)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending messages: %w", err)
	}

	return messages, nil
}

// MarkSent records a confirmed send, keyed by (campaign, contact) so result
// attribution never depends on list positions.
func (r *messageRepository) MarkSent(campaignID, contactID int64, provider, externalID string, sentAt time.Time) error {
	query := `
		UPDATE messages
		SET status = $3,
		    provider = $4,
		    external_id = $5,
		    sent_at = $6,
		    updated_at = $7
		WHERE campaign_id = $1
		  AND contact_id = $2
	`

	_, err := r.db.Exec(query, campaignID, contactID,
		models.MessageStatusSent, provider, externalID, sentAt, time.Now())
	if err != nil {
		return fmt.Errorf("failed to mark message sent: %w", err)
	}

	return nil
}

// MarkFailed records a failed send with the error detail stored in metadata.
func (r *messageRepository) MarkFailed(campaignID, contactID int64, errorDetail string) error {
	query := `
		UPDATE messages
		SET status = $3,
		    metadata = $4,
		    updated_at = $5
		WHERE campaign_id = $1
		  AND contact_id = $2
	`

	_, err := r.db.Exec(query, campaignID, contactID,
		models.MessageStatusFailed, errorDetail, time.Now())
	if err != nil {
		return fmt.Errorf("failed to mark message failed: %w", err)
	}

	return nil
}

// CountByStatus returns per-status message counts for a campaign.
func (r *messageRepository) CountByStatus(campaignID int64) (map[models.MessageStatus]int, error) {
	query := `
		SELECT status, COUNT(*) AS count
		FROM messages
		WHERE campaign_id = $1
		GROUP BY status
	`

	rows := []struct {
		Status models.MessageStatus `db:"status"`
		Count  int                  `db:"count"`
	}{}

	if err := r.db.Select(&rows, query, campaignID); err != nil {
		return nil, fmt.Errorf("failed to count messages by status: %w", err)
	}

	counts := make(map[models.MessageStatus]int, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}

	return counts, nil
}
