package service

import (
	"fmt"

	"github.com/dakarlabs/sms-campaigner/internal/repository"
)

type campaignService struct {
	repo repository.Repository
}

func NewCampaignService(repo repository.Repository) CampaignService {
	return &campaignService{
		repo: repo,
	}
}

// GetStatus returns the campaign together with per-status message counts.
func (s *campaignService) GetStatus(campaignID int64) (*CampaignStatusReport, error) {
	campaign, err := s.repo.Campaign().GetByID(campaignID)
	if err != nil {
		return nil, err
	}

	counts, err := s.repo.Message().CountByStatus(campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to count campaign messages: %w", err)
	}

	return &CampaignStatusReport{
		Campaign:      campaign,
		MessageCounts: counts,
	}, nil
}
