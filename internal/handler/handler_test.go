package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	"github.com/dakarlabs/sms-campaigner/internal/handler"
	"github.com/dakarlabs/sms-campaigner/internal/middleware"
	"github.com/dakarlabs/sms-campaigner/internal/models"
	"github.com/dakarlabs/sms-campaigner/internal/repository"
	"github.com/dakarlabs/sms-campaigner/internal/scheduler"
	"github.com/dakarlabs/sms-campaigner/internal/service"
	"github.com/dakarlabs/sms-campaigner/internal/service/mocks"
)

func newRequest(method, target, campaignID string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	req = req.WithContext(context.WithValue(req.Context(), middleware.RequestIDKey, "test-request-id"))

	if campaignID != "" {
		routeCtx := chi.NewRouteContext()
		routeCtx.URLParams.Add("id", campaignID)
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
	}
	return req
}

func TestHandler_StartScheduler(t *testing.T) {
	tests := []struct {
		name           string
		setupMocks     func(*mocks.MockSchedulerService)
		expectedStatus int
		expectedBody   func(*testing.T, []byte)
	}{
		{
			name: "success",
			setupMocks: func(m *mocks.MockSchedulerService) {
				m.EXPECT().Start().Return(nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody: func(t *testing.T, body []byte) {
				var resp handler.SchedulerResponse
				assert.NoError(t, json.Unmarshal(body, &resp))
				assert.Equal(t, "started", resp.Status)
			},
		},
		{
			name: "scheduler already running",
			setupMocks: func(m *mocks.MockSchedulerService) {
				m.EXPECT().Start().Return(scheduler.ErrSchedulerAlreadyRunning)
			},
			expectedStatus: http.StatusConflict,
			expectedBody: func(t *testing.T, body []byte) {
				var resp handler.ErrorResponse
				assert.NoError(t, json.Unmarshal(body, &resp))
				assert.Equal(t, "SCHEDULER_ALREADY_RUNNING", resp.Error)
			},
		},
		{
			name: "internal error",
			setupMocks: func(m *mocks.MockSchedulerService) {
				m.EXPECT().Start().Return(errors.New("boom"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody: func(t *testing.T, body []byte) {
				var resp handler.ErrorResponse
				assert.NoError(t, json.Unmarshal(body, &resp))
				assert.Equal(t, middleware.ErrorCodeInternal, resp.Error)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockScheduler := mocks.NewMockSchedulerService(ctrl)
			tt.setupMocks(mockScheduler)

			h := handler.NewHandler(&service.Service{Scheduler: mockScheduler}, zap.NewNop())

			w := httptest.NewRecorder()
			h.StartScheduler(w, newRequest(http.MethodPost, "/api/scheduler/start", ""))

			assert.Equal(t, tt.expectedStatus, w.Code)
			tt.expectedBody(t, w.Body.Bytes())
		})
	}
}

func TestHandler_StopScheduler(t *testing.T) {
	tests := []struct {
		name           string
		setupMocks     func(*mocks.MockSchedulerService)
		expectedStatus int
	}{
		{
			name: "success",
			setupMocks: func(m *mocks.MockSchedulerService) {
				m.EXPECT().Stop().Return(nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "scheduler not running",
			setupMocks: func(m *mocks.MockSchedulerService) {
				m.EXPECT().Stop().Return(scheduler.ErrSchedulerNotRunning)
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name: "internal error",
			setupMocks: func(m *mocks.MockSchedulerService) {
				m.EXPECT().Stop().Return(errors.New("boom"))
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockScheduler := mocks.NewMockSchedulerService(ctrl)
			tt.setupMocks(mockScheduler)

			h := handler.NewHandler(&service.Service{Scheduler: mockScheduler}, zap.NewNop())

			w := httptest.NewRecorder()
			h.StopScheduler(w, newRequest(http.MethodPost, "/api/scheduler/stop", ""))

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestHandler_GetSchedulerStatus(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockScheduler := mocks.NewMockSchedulerService(ctrl)
	mockScheduler.EXPECT().Status().Return(scheduler.Status{
		IsRunning: true,
		Interval:  time.Minute,
		TickCount: 7,
	})

	h := handler.NewHandler(&service.Service{Scheduler: mockScheduler}, zap.NewNop())

	w := httptest.NewRecorder()
	h.GetSchedulerStatus(w, newRequest(http.MethodGet, "/api/scheduler/status", ""))

	assert.Equal(t, http.StatusOK, w.Code)

	var resp handler.SchedulerStatusResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Scheduler.IsRunning)
	assert.EqualValues(t, 7, resp.Scheduler.TickCount)
}

func TestHandler_SendCampaignNow(t *testing.T) {
	tests := []struct {
		name           string
		campaignID     string
		setupMocks     func(*mocks.MockSchedulerService)
		expectedStatus int
		expectedError  string
	}{
		{
			name:       "success",
			campaignID: "42",
			setupMocks: func(m *mocks.MockSchedulerService) {
				m.EXPECT().SendCampaignNow(gomock.Any(), int64(42)).Return(nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "non-numeric id",
			campaignID:     "abc",
			setupMocks:     func(m *mocks.MockSchedulerService) {},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "INVALID_CAMPAIGN_ID",
		},
		{
			name:       "campaign not found",
			campaignID: "42",
			setupMocks: func(m *mocks.MockSchedulerService) {
				m.EXPECT().SendCampaignNow(gomock.Any(), int64(42)).Return(repository.ErrCampaignNotFound)
			},
			expectedStatus: http.StatusNotFound,
			expectedError:  "CAMPAIGN_NOT_FOUND",
		},
		{
			name:       "campaign not scheduled",
			campaignID: "42",
			setupMocks: func(m *mocks.MockSchedulerService) {
				m.EXPECT().SendCampaignNow(gomock.Any(), int64(42)).
					Return(service.ErrCampaignNotScheduled)
			},
			expectedStatus: http.StatusConflict,
			expectedError:  "CAMPAIGN_NOT_SCHEDULED",
		},
		{
			name:       "internal error",
			campaignID: "42",
			setupMocks: func(m *mocks.MockSchedulerService) {
				m.EXPECT().SendCampaignNow(gomock.Any(), int64(42)).Return(errors.New("boom"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedError:  middleware.ErrorCodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockScheduler := mocks.NewMockSchedulerService(ctrl)
			tt.setupMocks(mockScheduler)

			h := handler.NewHandler(&service.Service{Scheduler: mockScheduler}, zap.NewNop())

			w := httptest.NewRecorder()
			h.SendCampaignNow(w, newRequest(http.MethodPost, "/api/campaigns/"+tt.campaignID+"/send", tt.campaignID))

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedError != "" {
				var resp handler.ErrorResponse
				assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
				assert.Equal(t, tt.expectedError, resp.Error)
			}
		})
	}
}

func TestHandler_GetCampaignStatus(t *testing.T) {
	tests := []struct {
		name           string
		setupMocks     func(*mocks.MockCampaignService)
		expectedStatus int
	}{
		{
			name: "success",
			setupMocks: func(m *mocks.MockCampaignService) {
				m.EXPECT().GetStatus(int64(42)).Return(&service.CampaignStatusReport{
					Campaign: &models.Campaign{ID: 42, Status: models.CampaignStatusSent},
					MessageCounts: map[models.MessageStatus]int{
						models.MessageStatusSent:   3,
						models.MessageStatusFailed: 1,
					},
				}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "campaign not found",
			setupMocks: func(m *mocks.MockCampaignService) {
				m.EXPECT().GetStatus(int64(42)).Return(nil, repository.ErrCampaignNotFound)
			},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockCampaign := mocks.NewMockCampaignService(ctrl)
			tt.setupMocks(mockCampaign)

			h := handler.NewHandler(&service.Service{Campaign: mockCampaign}, zap.NewNop())

			w := httptest.NewRecorder()
			h.GetCampaignStatus(w, newRequest(http.MethodGet, "/api/campaigns/42/status", "42"))

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestHandler_HealthCheck(t *testing.T) {
	tests := []struct {
		name           string
		health         *service.HealthStatus
		expectedStatus int
	}{
		{
			name: "healthy",
			health: &service.HealthStatus{
				Status:          service.HealthStatusHealthy,
				SchedulerStatus: service.SchedulerStatusRunning,
				DatabaseStatus:  service.ComponentStatusConnected,
				RedisStatus:     service.ComponentStatusConnected,
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "degraded still returns 200",
			health: &service.HealthStatus{
				Status:              service.HealthStatusDegraded,
				CircuitBreakerState: "open",
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "unhealthy",
			health: &service.HealthStatus{
				Status:         service.HealthStatusUnhealthy,
				DatabaseStatus: service.ComponentStatusDisconnected,
			},
			expectedStatus: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockHealth := mocks.NewMockHealthService(ctrl)
			mockHealth.EXPECT().GetHealth().Return(tt.health)

			h := handler.NewHandler(&service.Service{Health: mockHealth}, zap.NewNop())

			w := httptest.NewRecorder()
			h.HealthCheck(w, newRequest(http.MethodGet, "/health", ""))

			assert.Equal(t, tt.expectedStatus, w.Code)

			var resp handler.HealthResponse
			assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.health.Status, resp.Status)
		})
	}
}
