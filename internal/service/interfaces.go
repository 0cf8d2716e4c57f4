package service

import (
	"context"

	"github.com/dakarlabs/sms-campaigner/internal/models"
	"github.com/dakarlabs/sms-campaigner/internal/orange"
	"github.com/dakarlabs/sms-campaigner/internal/scheduler"
)

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

// Gateway is the carrier boundary the dispatch engine sends through.
type Gateway interface {
	SendBulk(ctx context.Context, recipients []string, body string) (*orange.BulkResult, error)
}

// BreakerStats exposes carrier circuit breaker state for health reporting.
type BreakerStats interface {
	BreakerState() string
	BreakerCounts() (requests, failures uint32)
}

// DispatchService reconciles a bulk-send outcome with persisted campaign and
// message state.
type DispatchService interface {
	Dispatch(ctx context.Context, campaign *models.Campaign) (*DispatchOutcome, error)
}

// SchedulerService drives due-campaign discovery and manual triggers.
type SchedulerService interface {
	Start() error
	Stop() error
	Status() scheduler.Status
	SendCampaignNow(ctx context.Context, campaignID int64) error
}

// CampaignService answers status queries.
type CampaignService interface {
	GetStatus(campaignID int64) (*CampaignStatusReport, error)
}

type HealthService interface {
	GetHealth() *HealthStatus
}
