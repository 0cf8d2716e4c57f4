package service

import (
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/dakarlabs/sms-campaigner/internal/config"
	"github.com/dakarlabs/sms-campaigner/internal/orange"
	"github.com/dakarlabs/sms-campaigner/internal/repository"
)

type Service struct {
	Dispatch  DispatchService
	Scheduler SchedulerService
	Campaign  CampaignService
	Health    HealthService
}

func NewService(
	cfg *config.Config,
	repo repository.Repository,
	redisClient *redis.Client,
	gateway *orange.Client,
	logger *zap.Logger,
) *Service {
	dispatchService := NewDispatchService(repo, gateway, redisClient, logger)
	schedulerService := NewSchedulerService(cfg, repo, dispatchService, logger)
	campaignService := NewCampaignService(repo)
	healthService := NewHealthService(repo, redisClient, schedulerService, gateway)

	return &Service{
		Dispatch:  dispatchService,
		Scheduler: schedulerService,
		Campaign:  campaignService,
		Health:    healthService,
	}
}
