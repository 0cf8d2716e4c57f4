package service_test

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	"github.com/dakarlabs/sms-campaigner/internal/models"
	"github.com/dakarlabs/sms-campaigner/internal/orange"
	"github.com/dakarlabs/sms-campaigner/internal/repository/mocks"
	"github.com/dakarlabs/sms-campaigner/internal/service"
)

// fakeGateway implements service.Gateway with scripted per-recipient results.
type fakeGateway struct {
	mu             sync.Mutex
	calls          int
	lastRecipients []string
	resultFor      func(recipient string) orange.SendResult
	err            error
}

func (g *fakeGateway) SendBulk(_ context.Context, recipients []string, _ string) (*orange.BulkResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.calls++
	g.lastRecipients = append([]string(nil), recipients...)

	if g.err != nil {
		return nil, g.err
	}

	bulk := &orange.BulkResult{Results: make([]orange.SendResult, len(recipients))}
	for i, recipient := range recipients {
		res := g.resultFor(recipient)
		res.Recipient = recipient
		bulk.Results[i] = res
		if res.Success {
			bulk.SuccessCount++
		} else {
			bulk.FailedCount++
		}
	}
	return bulk, nil
}

func successFor(messageID string) func(string) orange.SendResult {
	return func(string) orange.SendResult {
		return orange.SendResult{Success: true, MessageID: messageID}
	}
}

type repoMocks struct {
	repo     *mocks.MockRepository
	campaign *mocks.MockCampaignRepository
	message  *mocks.MockMessageRepository
	audit    *mocks.MockAuditRepository
}

func newRepoMocks(ctrl *gomock.Controller) *repoMocks {
	m := &repoMocks{
		repo:     mocks.NewMockRepository(ctrl),
		campaign: mocks.NewMockCampaignRepository(ctrl),
		message:  mocks.NewMockMessageRepository(ctrl),
		audit:    mocks.NewMockAuditRepository(ctrl),
	}
	m.repo.EXPECT().Campaign().Return(m.campaign).AnyTimes()
	m.repo.EXPECT().Message().Return(m.message).AnyTimes()
	m.repo.EXPECT().Audit().Return(m.audit).AnyTimes()
	return m
}

func testCampaign() *models.Campaign {
	return &models.Campaign{
		ID:             42,
		OrganizationID: 7,
		CreatedBy:      3,
		Name:           "August promo",
		Body:           "Grande promo ce week-end!",
		Status:         models.CampaignStatusScheduled,
	}
}

func pendingMessage(contactID int64, phone string) *models.Message {
	msg := &models.Message{
		ID:         contactID * 100,
		CampaignID: 42,
		ContactID:  contactID,
		Status:     models.MessageStatusScheduled,
	}
	if phone != "" {
		msg.PhoneNumber = sql.NullString{String: phone, Valid: true}
	}
	return msg
}

func TestDispatch_AllSuccess(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	m := newRepoMocks(ctrl)
	campaign := testCampaign()

	messages := []*models.Message{
		pendingMessage(1, "+221771234501"),
		pendingMessage(2, "+221771234502"),
		pendingMessage(3, "+221771234503"),
	}

	m.campaign.EXPECT().ClaimForSending(campaign.ID).Return(true, nil)
	m.message.EXPECT().GetPendingByCampaign(campaign.ID).Return(messages, nil)

	for _, msg := range messages {
		m.message.EXPECT().
			MarkSent(campaign.ID, msg.ContactID, orange.ProviderName, "ext-1", gomock.Any()).
			Return(nil)
	}

	m.campaign.EXPECT().
		MarkDispatched(campaign.ID, models.CampaignStatusSent, gomock.Any()).
		DoAndReturn(func(_ int64, _ models.CampaignStatus, sentAt *time.Time) error {
			require.NotNil(t, sentAt)
			return nil
		})

	m.audit.EXPECT().
		Append(gomock.Any()).
		DoAndReturn(func(entry *models.AuditEntry) error {
			assert.Equal(t, "campaign.dispatched", entry.Action)
			assert.Equal(t, campaign.ID, entry.ResourceID)
			assert.Equal(t, campaign.OrganizationID, entry.OrganizationID)
			assert.Contains(t, entry.Metadata, `"sent":3`)
			return nil
		})

	gateway := &fakeGateway{resultFor: successFor("ext-1")}
	svc := service.NewDispatchService(m.repo, gateway, nil, zap.NewNop())

	outcome, err := svc.Dispatch(context.Background(), campaign)
	require.NoError(t, err)

	assert.Equal(t, &service.DispatchOutcome{SentCount: 3, FailedCount: 0, InvalidCount: 0}, outcome)
	assert.Equal(t, 1, gateway.calls)
	assert.Equal(t, []string{"+221771234501", "+221771234502", "+221771234503"}, gateway.lastRecipients)
}

func TestDispatch_MixedOutcome(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	m := newRepoMocks(ctrl)
	campaign := testCampaign()

	messages := []*models.Message{
		pendingMessage(1, "+221771234501"),
		pendingMessage(2, "+221771234502"),
		pendingMessage(3, "+221771234503"),
	}

	m.campaign.EXPECT().ClaimForSending(campaign.ID).Return(true, nil)
	m.message.EXPECT().GetPendingByCampaign(campaign.ID).Return(messages, nil)

	m.message.EXPECT().
		MarkSent(campaign.ID, int64(1), orange.ProviderName, "ext-ok", gomock.Any()).
		Return(nil)
	m.message.EXPECT().
		MarkFailed(campaign.ID, int64(2), gomock.Any()).
		DoAndReturn(func(_, _ int64, detail string) error {
			assert.Contains(t, detail, "invalid_recipient")
			assert.Contains(t, detail, "No valid addresses")
			return nil
		})
	m.message.EXPECT().
		MarkSent(campaign.ID, int64(3), orange.ProviderName, "ext-ok", gomock.Any()).
		Return(nil)

	m.campaign.EXPECT().
		MarkDispatched(campaign.ID, models.CampaignStatusPartiallySent, gomock.Any()).
		DoAndReturn(func(_ int64, _ models.CampaignStatus, sentAt *time.Time) error {
			require.NotNil(t, sentAt)
			return nil
		})
	m.audit.EXPECT().Append(gomock.Any()).Return(nil)

	gateway := &fakeGateway{
		resultFor: func(recipient string) orange.SendResult {
			if recipient == "+221771234502" {
				return orange.SendResult{
					Code:  orange.CodeInvalidRecipient,
					Error: "SVC0004: No valid addresses",
				}
			}
			return orange.SendResult{Success: true, MessageID: "ext-ok"}
		},
	}
	svc := service.NewDispatchService(m.repo, gateway, nil, zap.NewNop())

	outcome, err := svc.Dispatch(context.Background(), campaign)
	require.NoError(t, err)

	assert.Equal(t, &service.DispatchOutcome{SentCount: 2, FailedCount: 1, InvalidCount: 0}, outcome)
}

func TestDispatch_SharedPhoneGetsOneResultPerMessage(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	m := newRepoMocks(ctrl)
	campaign := testCampaign()

	// Two contacts with the same phone number in one campaign.
	messages := []*models.Message{
		pendingMessage(1, "+221771234501"),
		pendingMessage(2, "+221771234501"),
	}

	m.campaign.EXPECT().ClaimForSending(campaign.ID).Return(true, nil)
	m.message.EXPECT().GetPendingByCampaign(campaign.ID).Return(messages, nil)

	m.message.EXPECT().
		MarkSent(campaign.ID, int64(1), orange.ProviderName, "ext-first", gomock.Any()).
		Return(nil)
	m.message.EXPECT().
		MarkFailed(campaign.ID, int64(2), gomock.Any()).
		DoAndReturn(func(_, _ int64, detail string) error {
			assert.Contains(t, detail, "invalid_recipient")
			return nil
		})

	m.campaign.EXPECT().
		MarkDispatched(campaign.ID, models.CampaignStatusPartiallySent, gomock.Any()).
		Return(nil)
	m.audit.EXPECT().Append(gomock.Any()).Return(nil)

	// Gateway results in submission order: first occurrence succeeds, the
	// second is rejected. Each message must consume its own result.
	sends := 0
	gateway := &fakeGateway{
		resultFor: func(string) orange.SendResult {
			sends++
			if sends == 1 {
				return orange.SendResult{Success: true, MessageID: "ext-first"}
			}
			return orange.SendResult{
				Code:  orange.CodeInvalidRecipient,
				Error: "SVC0004: No valid addresses",
			}
		},
	}
	svc := service.NewDispatchService(m.repo, gateway, nil, zap.NewNop())

	outcome, err := svc.Dispatch(context.Background(), campaign)
	require.NoError(t, err)

	assert.Equal(t, &service.DispatchOutcome{SentCount: 1, FailedCount: 1, InvalidCount: 0}, outcome)
	assert.Equal(t, []string{"+221771234501", "+221771234501"}, gateway.lastRecipients)
}

func TestDispatch_MissingPhoneIsExcludedNotSent(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	m := newRepoMocks(ctrl)
	campaign := testCampaign()

	messages := []*models.Message{
		pendingMessage(1, "+221771234501"),
		pendingMessage(2, ""), // no resolvable phone
	}

	m.campaign.EXPECT().ClaimForSending(campaign.ID).Return(true, nil)
	m.message.EXPECT().GetPendingByCampaign(campaign.ID).Return(messages, nil)

	// Only the resolvable message is touched.
	m.message.EXPECT().
		MarkSent(campaign.ID, int64(1), orange.ProviderName, "ext-1", gomock.Any()).
		Return(nil)

	m.campaign.EXPECT().
		MarkDispatched(campaign.ID, models.CampaignStatusSent, gomock.Any()).
		Return(nil)
	m.audit.EXPECT().Append(gomock.Any()).Return(nil)

	gateway := &fakeGateway{resultFor: successFor("ext-1")}
	svc := service.NewDispatchService(m.repo, gateway, nil, zap.NewNop())

	outcome, err := svc.Dispatch(context.Background(), campaign)
	require.NoError(t, err)

	assert.Equal(t, &service.DispatchOutcome{SentCount: 1, FailedCount: 0, InvalidCount: 1}, outcome)
	assert.Equal(t, []string{"+221771234501"}, gateway.lastRecipients)
}

func TestDispatch_NoResolvableRecipients(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	m := newRepoMocks(ctrl)
	campaign := testCampaign()

	messages := []*models.Message{
		pendingMessage(1, ""),
		pendingMessage(2, ""),
	}

	m.campaign.EXPECT().ClaimForSending(campaign.ID).Return(true, nil)
	m.message.EXPECT().GetPendingByCampaign(campaign.ID).Return(messages, nil)
	m.campaign.EXPECT().
		MarkDispatched(campaign.ID, models.CampaignStatusFailed, gomock.Nil()).
		Return(nil)
	m.audit.EXPECT().Append(gomock.Any()).Return(nil)

	gateway := &fakeGateway{resultFor: successFor("never")}
	svc := service.NewDispatchService(m.repo, gateway, nil, zap.NewNop())

	outcome, err := svc.Dispatch(context.Background(), campaign)
	require.NoError(t, err)

	assert.Equal(t, &service.DispatchOutcome{SentCount: 0, FailedCount: 0, InvalidCount: 2}, outcome)
	assert.Zero(t, gateway.calls, "gateway must not be called with zero recipients")
}

func TestDispatch_TimeoutEndsAsFailedNeverSent(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	m := newRepoMocks(ctrl)
	campaign := testCampaign()

	messages := []*models.Message{pendingMessage(1, "+221771234501")}

	m.campaign.EXPECT().ClaimForSending(campaign.ID).Return(true, nil)
	m.message.EXPECT().GetPendingByCampaign(campaign.ID).Return(messages, nil)

	m.message.EXPECT().
		MarkFailed(campaign.ID, int64(1), gomock.Any()).
		DoAndReturn(func(_, _ int64, detail string) error {
			assert.Contains(t, detail, "gateway_timeout")
			assert.Contains(t, detail, "unconfirmed")
			return nil
		})

	m.campaign.EXPECT().
		MarkDispatched(campaign.ID, models.CampaignStatusFailed, gomock.Nil()).
		Return(nil)
	m.audit.EXPECT().Append(gomock.Any()).Return(nil)

	gateway := &fakeGateway{
		resultFor: func(string) orange.SendResult {
			return orange.SendResult{
				Code:  orange.CodeGatewayTimeout,
				Error: "delivery unconfirmed: gateway did not respond before timeout",
			}
		},
	}
	svc := service.NewDispatchService(m.repo, gateway, nil, zap.NewNop())

	outcome, err := svc.Dispatch(context.Background(), campaign)
	require.NoError(t, err)

	assert.Equal(t, &service.DispatchOutcome{SentCount: 0, FailedCount: 1, InvalidCount: 0}, outcome)
}

func TestDispatch_ClaimLostMeansNoSend(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	m := newRepoMocks(ctrl)
	campaign := testCampaign()

	m.campaign.EXPECT().ClaimForSending(campaign.ID).Return(false, nil)

	gateway := &fakeGateway{resultFor: successFor("never")}
	svc := service.NewDispatchService(m.repo, gateway, nil, zap.NewNop())

	_, err := svc.Dispatch(context.Background(), campaign)
	require.Error(t, err)
	assert.ErrorIs(t, err, service.ErrCampaignNotClaimable)
	assert.Zero(t, gateway.calls)
}

func TestDispatch_GatewayErrorForcesCampaignFailed(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	m := newRepoMocks(ctrl)
	campaign := testCampaign()

	messages := []*models.Message{pendingMessage(1, "+221771234501")}

	m.campaign.EXPECT().ClaimForSending(campaign.ID).Return(true, nil)
	m.message.EXPECT().GetPendingByCampaign(campaign.ID).Return(messages, nil)

	// Claimed campaign must never be left in sending.
	m.campaign.EXPECT().
		MarkDispatched(campaign.ID, models.CampaignStatusFailed, gomock.Nil()).
		Return(nil)

	gateway := &fakeGateway{err: errors.New("token endpoint unreachable")}
	svc := service.NewDispatchService(m.repo, gateway, nil, zap.NewNop())

	_, err := svc.Dispatch(context.Background(), campaign)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token endpoint unreachable")
}

func TestDispatch_StorageErrorOnPendingMessagesForcesFailed(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	m := newRepoMocks(ctrl)
	campaign := testCampaign()

	m.campaign.EXPECT().ClaimForSending(campaign.ID).Return(true, nil)
	m.message.EXPECT().GetPendingByCampaign(campaign.ID).Return(nil, errors.New("db gone"))
	m.campaign.EXPECT().
		MarkDispatched(campaign.ID, models.CampaignStatusFailed, gomock.Nil()).
		Return(nil)

	gateway := &fakeGateway{resultFor: successFor("never")}
	svc := service.NewDispatchService(m.repo, gateway, nil, zap.NewNop())

	_, err := svc.Dispatch(context.Background(), campaign)
	require.Error(t, err)
	assert.Zero(t, gateway.calls)
}
