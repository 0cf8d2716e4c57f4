// Package service provides business logic implementation for the application.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/dakarlabs/sms-campaigner/internal/models"
	"github.com/dakarlabs/sms-campaigner/internal/orange"
	"github.com/dakarlabs/sms-campaigner/internal/repository"
)

const (
	auditActionDispatched = "campaign.dispatched"
	auditResourceCampaign = "campaign"

	externalIDCacheTTL = 24 * time.Hour
)

type dispatchService struct {
	repo        repository.Repository
	gateway     Gateway
	redisClient *redis.Client
	logger      *zap.Logger
}

func NewDispatchService(
	repo repository.Repository,
	gateway Gateway,
	redisClient *redis.Client,
	logger *zap.Logger,
) DispatchService {
	return &dispatchService{
		repo:        repo,
		gateway:     gateway,
		redisClient: redisClient,
		logger:      logger,
	}
}

// Dispatch claims the campaign, fans the body out to every pending recipient
// and reconciles the per-recipient results into message and campaign state.
// The claim happens before any send, so overlapping scheduler ticks or a
// racing manual trigger observe a non-scheduled status and back off.
func (s *dispatchService) Dispatch(ctx context.Context, campaign *models.Campaign) (*DispatchOutcome, error) {
	claimed, err := s.repo.Campaign().ClaimForSending(campaign.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to claim campaign %d: %w", campaign.ID, err)
	}
	if !claimed {
		return nil, fmt.Errorf("%w: campaign %d", ErrCampaignNotClaimable, campaign.ID)
	}

	outcome, err := s.attempt(ctx, campaign)
	if err != nil {
		// Never leave a claimed campaign stuck in sending.
		s.logger.Error("Dispatch attempt failed",
			zap.Int64("campaignID", campaign.ID),
			zap.Error(err))
		s.markFailed(campaign.ID)
		return nil, err
	}

	return outcome, nil
}

func (s *dispatchService) attempt(ctx context.Context, campaign *models.Campaign) (*DispatchOutcome, error) {
	start := time.Now()

	pending, err := s.repo.Message().GetPendingByCampaign(campaign.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load pending messages: %w", err)
	}

	sendable := make([]*models.Message, 0, len(pending))
	for _, msg := range pending {
		if msg.PhoneNumber.Valid && msg.PhoneNumber.String != "" {
			sendable = append(sendable, msg)
		}
	}
	invalidCount := len(pending) - len(sendable)

	if len(sendable) == 0 {
		s.logger.Warn("Campaign has no resolvable recipients",
			zap.Int64("campaignID", campaign.ID),
			zap.Int("pending", len(pending)))

		if err := s.repo.Campaign().MarkDispatched(campaign.ID, models.CampaignStatusFailed, nil); err != nil {
			return nil, fmt.Errorf("failed to mark campaign failed: %w", err)
		}

		outcome := &DispatchOutcome{InvalidCount: invalidCount}
		s.audit(campaign, outcome, len(pending), time.Since(start))
		return outcome, nil
	}

	recipients := make([]string, len(sendable))
	for i, msg := range sendable {
		recipients[i] = msg.PhoneNumber.String
	}

	bulk, err := s.gateway.SendBulk(ctx, recipients, campaign.Body)
	if err != nil {
		return nil, fmt.Errorf("bulk send failed: %w", err)
	}

	// Match results back by recipient phone, never by list position:
	// exclusions above shift offsets. Each phone maps to a queue so two
	// contacts sharing a number each consume their own result.
	byRecipient := make(map[string][]orange.SendResult, len(bulk.Results))
	for _, res := range bulk.Results {
		byRecipient[res.Recipient] = append(byRecipient[res.Recipient], res)
	}

	now := time.Now()
	sentCount := 0
	failedCount := 0

	for _, msg := range sendable {
		var res orange.SendResult
		if queue := byRecipient[msg.PhoneNumber.String]; len(queue) > 0 {
			res = queue[0]
			byRecipient[msg.PhoneNumber.String] = queue[1:]
		} else {
			res = orange.SendResult{
				Recipient: msg.PhoneNumber.String,
				Code:      orange.CodeCarrierError,
				Error:     "gateway returned no result for recipient",
			}
		}

		if res.Success {
			sentCount++
			if err := s.repo.Message().MarkSent(campaign.ID, msg.ContactID, orange.ProviderName, res.MessageID, now); err != nil {
				s.logger.Error("Failed to mark message sent",
					zap.Int64("campaignID", campaign.ID),
					zap.Int64("contactID", msg.ContactID),
					zap.Error(err))
			}
			s.cacheExternalID(campaign.ID, msg.ContactID, res.MessageID)
			continue
		}

		failedCount++
		detail := fmt.Sprintf("%s: %s", res.Code, res.Error)
		if err := s.repo.Message().MarkFailed(campaign.ID, msg.ContactID, detail); err != nil {
			s.logger.Error("Failed to mark message failed",
				zap.Int64("campaignID", campaign.ID),
				zap.Int64("contactID", msg.ContactID),
				zap.Error(err))
		}
	}

	// Message rows first, campaign status last, so a reader never sees a
	// terminal campaign with pre-send messages.
	status := campaignStatusFor(sentCount, failedCount)
	var sentAt *time.Time
	if sentCount > 0 {
		sentAt = &now
	}

	if err := s.repo.Campaign().MarkDispatched(campaign.ID, status, sentAt); err != nil {
		return nil, fmt.Errorf("failed to mark campaign %s: %w", status, err)
	}

	outcome := &DispatchOutcome{
		SentCount:    sentCount,
		FailedCount:  failedCount,
		InvalidCount: invalidCount,
	}

	s.logger.Info("Campaign dispatched",
		zap.Int64("campaignID", campaign.ID),
		zap.String("status", string(status)),
		zap.Int("sent", sentCount),
		zap.Int("failed", failedCount),
		zap.Int("invalid", invalidCount),
		zap.Duration("duration", time.Since(start)))

	s.audit(campaign, outcome, len(pending), time.Since(start))

	return outcome, nil
}

// campaignStatusFor partitions the outcome: sent iff no failures, failed iff
// no successes, partially_sent otherwise.
func campaignStatusFor(sentCount, failedCount int) models.CampaignStatus {
	switch {
	case sentCount > 0 && failedCount == 0:
		return models.CampaignStatusSent
	case sentCount == 0:
		return models.CampaignStatusFailed
	default:
		return models.CampaignStatusPartiallySent
	}
}

func (s *dispatchService) markFailed(campaignID int64) {
	if err := s.repo.Campaign().MarkDispatched(campaignID, models.CampaignStatusFailed, nil); err != nil {
		s.logger.Error("Failed to force campaign to failed status",
			zap.Int64("campaignID", campaignID),
			zap.Error(err))
	}
}

func (s *dispatchService) audit(campaign *models.Campaign, outcome *DispatchOutcome, recipients int, duration time.Duration) {
	metadata, err := json.Marshal(map[string]interface{}{
		"recipients":  recipients,
		"sent":        outcome.SentCount,
		"failed":      outcome.FailedCount,
		"invalid":     outcome.InvalidCount,
		"duration_ms": duration.Milliseconds(),
	})
	if err != nil {
		s.logger.Warn("Failed to marshal audit metadata", zap.Error(err))
		return
	}

	entry := &models.AuditEntry{
		Action:         auditActionDispatched,
		Resource:       auditResourceCampaign,
		ResourceID:     campaign.ID,
		ActorID:        campaign.CreatedBy,
		OrganizationID: campaign.OrganizationID,
		Metadata:       string(metadata),
	}

	if err := s.repo.Audit().Append(entry); err != nil {
		s.logger.Warn("Failed to append audit log",
			zap.Int64("campaignID", campaign.ID),
			zap.Error(err))
	}
}

// cacheExternalID stores the carrier message id in Redis so delivery lookups
// do not need a database round trip. Best effort.
func (s *dispatchService) cacheExternalID(campaignID, contactID int64, externalID string) {
	if externalID == "" || s.redisClient == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	cacheKey := fmt.Sprintf("sms:external:%s", externalID)
	cacheValue := fmt.Sprintf("%d:%d:%s", campaignID, contactID, time.Now().Format(time.RFC3339))

	if err := s.redisClient.Set(ctx, cacheKey, cacheValue, externalIDCacheTTL).Err(); err != nil {
		s.logger.Warn("Failed to cache carrier message id",
			zap.String("externalID", externalID),
			zap.Error(err))
	}
}
