package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/dakarlabs/sms-campaigner/internal/models"
)

// ErrCampaignNotFound is returned when a campaign id does not exist.
var ErrCampaignNotFound = errors.New("campaign not found")

type campaignRepository struct {
	db *sqlx.DB
}

func NewCampaignRepository(db *sqlx.DB) CampaignRepository {
	return &campaignRepository{
		db: db,
	}
}

// GetByID retrieves a single campaign.
func (r *campaignRepository) GetByID(id int64) (*models.Campaign, error) {
	query := `
		SELECT id, organization_id, created_by, name, body, status, scheduled_at, sent_at, created_at, updated_at
		FROM campaigns
		WHERE id = $1
	`

	var campaign models.Campaign
	err := r.db.Get(&campaign, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCampaignNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get campaign: %w", err)
	}

	return &campaign, nil
}

// FindDue retrieves scheduled campaigns whose due time has passed.
func (r *campaignRepository) FindDue(now time.Time) ([]*models.Campaign, error) {
	query := `
		SELECT id, organization_id, created_by, name, body, status, scheduled_at, sent_at, created_at, updated_at
		FROM campaigns
		WHERE status = $1
		  AND scheduled_at IS NOT NULL
		  AND scheduled_at <= $2
		ORDER BY scheduled_at ASC
	`

	var campaigns []*models.Campaign
	err := r.db.Select(&campaigns, query, models.CampaignStatusScheduled, now)
	if err != nil {
		return nil, fmt.Errorf("failed to find due campaigns: %w", err)
	}

	return campaigns, nil
}

// ClaimForSending flips the campaign to sending if and only if it is still in
// a dispatch-eligible status. The conditional update is the synchronization
// point that keeps overlapping scheduler ticks and manual triggers from
// double-sending.
func (r *campaignRepository) ClaimForSending(id int64) (bool, error) {
	query := `
		UPDATE campaigns
		SET status = $2,
		    updated_at = $3
		WHERE id = $1
		  AND status IN ($4, $5)
	`

	result, err := r.db.Exec(query, id, models.CampaignStatusSending, time.Now(),
		models.CampaignStatusDraft, models.CampaignStatusScheduled)
	if err != nil {
		return false, fmt.Errorf("failed to claim campaign: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read claim result: %w", err)
	}

	return affected == 1, nil
}

// MarkDispatched writes the outcome status of a dispatch attempt.
func (r *campaignRepository) MarkDispatched(id int64, status models.CampaignStatus, sentAt *time.Time) error {
	query := `
		UPDATE campaigns
		SET status = $2,
		    sent_at = $3,
		    updated_at = $4
		WHERE id = $1
	`

	var sent sql.NullTime
	if sentAt != nil {
		sent = sql.NullTime{Time: *sentAt, Valid: true}
	}

	_, err := r.db.Exec(query, id, status, sent, time.Now())
	if err != nil {
		return fmt.Errorf("failed to mark campaign dispatched: %w", err)
	}

	return nil
}
