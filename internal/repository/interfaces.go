package repository

import (
	"time"

	"github.com/dakarlabs/sms-campaigner/internal/models"
)

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

// Repository interface defines all repository operations.
type Repository interface {
	// Ping checks database connectivity
	Ping() error

	// Campaign returns campaign repository
	Campaign() CampaignRepository

	// Message returns message repository
	Message() MessageRepository

	// Audit returns audit log repository
	Audit() AuditRepository
}

// CampaignRepository interface defines campaign operations.
type CampaignRepository interface {
	GetByID(id int64) (*models.Campaign, error)

	// FindDue returns campaigns with status scheduled whose scheduled_at has
	// passed.
	FindDue(now time.Time) ([]*models.Campaign, error)

	// ClaimForSending conditionally flips a campaign to sending and reports
	// whether this caller won the claim. A campaign already claimed, terminal
	// or cancelled is not claimable.
	ClaimForSending(id int64) (bool, error)

	// MarkDispatched writes the terminal status of a dispatch attempt.
	MarkDispatched(id int64, status models.CampaignStatus, sentAt *time.Time) error
}

// MessageRepository interface defines message operations.
type MessageRepository interface {
	GetPendingByCampaign(campaignID int64) ([]*models.Message, error)

	// MarkSent records a confirmed carrier send for one (campaign, contact)
	// pairing.
	MarkSent(campaignID, contactID int64, provider, externalID string, sentAt time.Time) error

	// MarkFailed records a failed send with the error detail in metadata.
	MarkFailed(campaignID, contactID int64, errorDetail string) error

	CountByStatus(campaignID int64) (map[models.MessageStatus]int, error)
}

// AuditRepository interface defines audit log operations.
type AuditRepository interface {
	Append(entry *models.AuditEntry) error
}
