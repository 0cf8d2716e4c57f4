package service

import "github.com/dakarlabs/sms-campaigner/internal/models"

// DispatchOutcome summarizes one dispatch attempt. InvalidCount are messages
// excluded before the send because no phone number could be resolved; they
// are not part of the sent/failed tally.
type DispatchOutcome struct {
	SentCount    int `json:"sent_count"`
	FailedCount  int `json:"failed_count"`
	InvalidCount int `json:"invalid_count"`
}

// CampaignStatusReport is the answer to a campaign status query.
type CampaignStatusReport struct {
	Campaign      *models.Campaign             `json:"campaign"`
	MessageCounts map[models.MessageStatus]int `json:"message_counts"`
}

type HealthStatus struct {
	Status               string `json:"status"`
	SchedulerStatus      string `json:"scheduler_status"`
	DatabaseStatus       string `json:"database_status"`
	RedisStatus          string `json:"redis_status"`
	CircuitBreakerState  string `json:"circuit_breaker_state,omitempty"`
	CircuitBreakerCounts string `json:"circuit_breaker_counts,omitempty"`
}

const (
	HealthStatusHealthy   = "healthy"
	HealthStatusDegraded  = "degraded"
	HealthStatusUnhealthy = "unhealthy"

	ComponentStatusConnected    = "connected"
	ComponentStatusDisconnected = "disconnected"

	SchedulerStatusRunning = "running"
	SchedulerStatusStopped = "stopped"
)
