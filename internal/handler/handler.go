// Package handler provides HTTP request handlers for the application.
package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"go.uber.org/zap"

	"github.com/dakarlabs/sms-campaigner/internal/middleware"
	"github.com/dakarlabs/sms-campaigner/internal/repository"
	"github.com/dakarlabs/sms-campaigner/internal/scheduler"
	"github.com/dakarlabs/sms-campaigner/internal/service"
)

const (
	errorCodeSchedulerAlreadyRunning = "SCHEDULER_ALREADY_RUNNING"
	errorCodeSchedulerNotRunning     = "SCHEDULER_NOT_RUNNING"
	errorCodeCampaignNotFound        = "CAMPAIGN_NOT_FOUND"
	errorCodeCampaignNotScheduled    = "CAMPAIGN_NOT_SCHEDULED"
	errorCodeInvalidCampaignID       = "INVALID_CAMPAIGN_ID"
)

type Handler struct {
	service *service.Service
	logger  *zap.Logger
}

// NewHandler creates a new handler instance.
func NewHandler(service *service.Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// StartScheduler starts the campaign scheduler.
func (h *Handler) StartScheduler(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Scheduler.Start(); err != nil {
		if errors.Is(err, scheduler.ErrSchedulerAlreadyRunning) {
			h.sendError(w, r, http.StatusConflict, errorCodeSchedulerAlreadyRunning, "Scheduler is already running")
			return
		}

		h.logError(r, "Failed to start scheduler", err)
		h.sendError(w, r, http.StatusInternalServerError, middleware.ErrorCodeInternal, "Failed to start scheduler")
		return
	}

	render.JSON(w, r, SchedulerResponse{
		Status:  "started",
		Message: "Scheduler started successfully",
	})
}

// StopScheduler stops the campaign scheduler. A dispatch already in progress
// runs to completion.
func (h *Handler) StopScheduler(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Scheduler.Stop(); err != nil {
		if errors.Is(err, scheduler.ErrSchedulerNotRunning) {
			h.sendError(w, r, http.StatusConflict, errorCodeSchedulerNotRunning, "Scheduler is not running")
			return
		}

		h.logError(r, "Failed to stop scheduler", err)
		h.sendError(w, r, http.StatusInternalServerError, middleware.ErrorCodeInternal, "Failed to stop scheduler")
		return
	}

	render.JSON(w, r, SchedulerResponse{
		Status:  "stopped",
		Message: "Scheduler stopped successfully",
	})
}

// GetSchedulerStatus reports the scheduler state.
func (h *Handler) GetSchedulerStatus(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, SchedulerStatusResponse{
		Scheduler: h.service.Scheduler.Status(),
	})
}

// SendCampaignNow triggers an immediate dispatch of a scheduled campaign.
func (h *Handler) SendCampaignNow(w http.ResponseWriter, r *http.Request) {
	campaignID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.sendError(w, r, http.StatusBadRequest, errorCodeInvalidCampaignID, "Campaign id must be an integer")
		return
	}

	if err := h.service.Scheduler.SendCampaignNow(r.Context(), campaignID); err != nil {
		switch {
		case errors.Is(err, repository.ErrCampaignNotFound):
			h.sendError(w, r, http.StatusNotFound, errorCodeCampaignNotFound, "Campaign not found")
		case errors.Is(err, service.ErrCampaignNotScheduled):
			h.sendError(w, r, http.StatusConflict, errorCodeCampaignNotScheduled, "Campaign is not in scheduled status")
		default:
			h.logError(r, "Failed to send campaign", err)
			h.sendError(w, r, http.StatusInternalServerError, middleware.ErrorCodeInternal, "Failed to send campaign")
		}
		return
	}

	render.JSON(w, r, SendNowResponse{Success: true})
}

// GetCampaignStatus answers a campaign status query.
func (h *Handler) GetCampaignStatus(w http.ResponseWriter, r *http.Request) {
	campaignID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.sendError(w, r, http.StatusBadRequest, errorCodeInvalidCampaignID, "Campaign id must be an integer")
		return
	}

	report, err := h.service.Campaign.GetStatus(campaignID)
	if err != nil {
		if errors.Is(err, repository.ErrCampaignNotFound) {
			h.sendError(w, r, http.StatusNotFound, errorCodeCampaignNotFound, "Campaign not found")
			return
		}

		h.logError(r, "Failed to get campaign status", err)
		h.sendError(w, r, http.StatusInternalServerError, middleware.ErrorCodeInternal, "Failed to get campaign status")
		return
	}

	render.JSON(w, r, report)
}

// HealthCheck reports overall service health.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := h.service.Health.GetHealth()

	if health.Status == service.HealthStatusUnhealthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	render.JSON(w, r, HealthResponse{
		HealthStatus: health,
		Timestamp:    time.Now(),
	})
}

func (h *Handler) logError(r *http.Request, msg string, err error) {
	h.logger.Error(msg,
		zap.String("request_id", middleware.GetRequestID(r.Context())),
		zap.Error(err))
}

func (h *Handler) sendError(w http.ResponseWriter, r *http.Request, statusCode int, errorCode, message string) {
	render.Status(r, statusCode)
	render.JSON(w, r, ErrorResponse{
		Error:     errorCode,
		Message:   message,
		Timestamp: time.Now(),
	})
}
