package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/dakarlabs/sms-campaigner/internal/config"
	"github.com/dakarlabs/sms-campaigner/internal/models"
	"github.com/dakarlabs/sms-campaigner/internal/repository"
	"github.com/dakarlabs/sms-campaigner/internal/scheduler"
)

type schedulerService struct {
	scheduler *scheduler.Scheduler
	repo      repository.Repository
	dispatch  DispatchService
	logger    *zap.Logger
}

func NewSchedulerService(
	cfg *config.Config,
	repo repository.Repository,
	dispatch DispatchService,
	logger *zap.Logger,
) SchedulerService {
	interval := time.Duration(cfg.Scheduler.IntervalMinutes) * time.Minute

	svc := &schedulerService{
		repo:     repo,
		dispatch: dispatch,
		logger:   logger,
	}

	svc.scheduler = scheduler.NewScheduler(logger, interval, svc.processDueCampaigns)
	return svc
}

func (s *schedulerService) Start() error {
	return s.scheduler.Start(context.Background())
}

func (s *schedulerService) Stop() error {
	return s.scheduler.Stop()
}

func (s *schedulerService) Status() scheduler.Status {
	return s.scheduler.Status()
}

// processDueCampaigns is one scheduler tick: find every scheduled campaign
// whose due time has passed and dispatch them sequentially. One campaign's
// failure never stops the rest of the tick.
func (s *schedulerService) processDueCampaigns(ctx context.Context) error {
	campaigns, err := s.repo.Campaign().FindDue(time.Now())
	if err != nil {
		return fmt.Errorf("failed to query due campaigns: %w", err)
	}

	if len(campaigns) == 0 {
		s.logger.Debug("No due campaigns")
		return nil
	}

	s.logger.Info("Found due campaigns", zap.Int("count", len(campaigns)))

	for _, campaign := range campaigns {
		outcome, err := s.dispatch.Dispatch(ctx, campaign)
		if err != nil {
			if errors.Is(err, ErrCampaignNotClaimable) {
				// Another tick or a manual trigger won the claim.
				s.logger.Debug("Campaign already claimed, skipping",
					zap.Int64("campaignID", campaign.ID))
				continue
			}
			s.logger.Error("Failed to dispatch due campaign",
				zap.Int64("campaignID", campaign.ID),
				zap.Error(err))
			continue
		}

		s.logger.Info("Due campaign dispatched",
			zap.Int64("campaignID", campaign.ID),
			zap.Int("sent", outcome.SentCount),
			zap.Int("failed", outcome.FailedCount),
			zap.Int("invalid", outcome.InvalidCount))
	}

	return nil
}

// SendCampaignNow dispatches a scheduled campaign immediately. Campaigns in
// any other status are refused, so an already-sent campaign cannot be resent.
func (s *schedulerService) SendCampaignNow(ctx context.Context, campaignID int64) error {
	campaign, err := s.repo.Campaign().GetByID(campaignID)
	if err != nil {
		if errors.Is(err, repository.ErrCampaignNotFound) {
			return err
		}
		return fmt.Errorf("failed to load campaign %d: %w", campaignID, err)
	}

	if campaign.Status != models.CampaignStatusScheduled {
		if campaign.Status.IsTerminal() {
			return fmt.Errorf("%w: campaign %d already finished with status %q",
				ErrCampaignNotScheduled, campaignID, campaign.Status)
		}
		return fmt.Errorf("%w: campaign %d has status %q",
			ErrCampaignNotScheduled, campaignID, campaign.Status)
	}

	_, err = s.dispatch.Dispatch(ctx, campaign)
	if errors.Is(err, ErrCampaignNotClaimable) {
		// Lost the status race to a concurrent dispatch.
		return fmt.Errorf("%w: campaign %d was claimed concurrently",
			ErrCampaignNotScheduled, campaignID)
	}
	return err
}
