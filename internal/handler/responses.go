package handler

import (
	"time"

	"github.com/dakarlabs/sms-campaigner/internal/scheduler"
	"github.com/dakarlabs/sms-campaigner/internal/service"
)

type SchedulerResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type SchedulerStatusResponse struct {
	Scheduler scheduler.Status `json:"scheduler"`
}

type SendNowResponse struct {
	Success bool                     `json:"success"`
	Outcome *service.DispatchOutcome `json:"outcome,omitempty"`
}

type HealthResponse struct {
	*service.HealthStatus
	Timestamp time.Time `json:"timestamp"`
}

type ErrorResponse struct {
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}
