package orange

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/dakarlabs/sms-campaigner/internal/config"
	"github.com/dakarlabs/sms-campaigner/internal/phone"
)

// ProviderName identifies the carrier in message records.
const ProviderName = "orange"

// tokenExpiryMargin is subtracted from the token lifetime so we refresh
// before the carrier actually invalidates it.
const tokenExpiryMargin = time.Minute

// SendResult is the outcome of one send attempt for one recipient.
type SendResult struct {
	Recipient string
	Formatted string
	Success   bool
	MessageID string
	Code      Code
	Error     string
}

// Client talks to the Orange SMS API. The cached access token is shared
// across all dispatch operations in the process.
type Client struct {
	cfg        *config.OrangeConfig
	dispatch   *config.DispatchConfig
	httpClient *http.Client
	logger     *zap.Logger
	breaker    *Breaker

	mu          sync.RWMutex
	token       string
	tokenExpiry time.Time
	refresh     singleflight.Group
}

func NewClient(cfg *config.OrangeConfig, dispatch *config.DispatchConfig, logger *zap.Logger) *Client {
	return &Client{
		cfg:      cfg,
		dispatch: dispatch,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
		logger:  logger,
		breaker: NewBreaker(&cfg.CircuitBreaker, logger),
	}
}

// BreakerState exposes the circuit breaker state for health reporting.
func (c *Client) BreakerState() string {
	return c.breaker.State()
}

// BreakerCounts exposes the circuit breaker counters for health reporting.
func (c *Client) BreakerCounts() (requests, failures uint32) {
	return c.breaker.Counts()
}

// SendOne validates the recipient and sends a single SMS. Carrier rejections
// are reported inside the returned SendResult; the error return is reserved
// for failures that doom the whole attempt, such as token acquisition.
func (c *Client) SendOne(ctx context.Context, recipient, body string) (SendResult, error) {
	res := phone.Validate(recipient)
	if !res.Valid {
		return SendResult{
			Recipient: recipient,
			Code:      CodeInvalidRecipient,
			Error:     res.Err,
		}, nil
	}

	token, err := c.accessToken(ctx)
	if err != nil {
		return SendResult{}, fmt.Errorf("failed to obtain access token: %w", err)
	}

	result := SendResult{
		Recipient: recipient,
		Formatted: res.Formatted,
	}

	sendErr := c.breaker.Execute(ctx, func() error {
		messageID, err := c.postMessage(ctx, token, res.Formatted, body)
		if err != nil {
			return err
		}
		result.Success = true
		result.MessageID = messageID
		return nil
	})

	if sendErr != nil {
		var carrierErr *carrierError
		if errors.As(sendErr, &carrierErr) {
			result.Code = carrierErr.code
			result.Error = carrierErr.text
		} else if isTimeout(sendErr) {
			result.Code = CodeGatewayTimeout
			result.Error = "delivery unconfirmed: gateway did not respond before timeout"
		} else {
			result.Code = CodeCarrierError
			result.Error = sendErr.Error()
		}

		c.logger.Warn("Carrier send failed",
			zap.String("recipient", res.Formatted),
			zap.String("code", string(result.Code)),
			zap.String("error", result.Error))
	}

	return result, nil
}

// tokenResponse is the Orange OAuth token exchange response. expires_in is a
// json.Number because the API has returned both string and numeric forms.
type tokenResponse struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	ExpiresIn   json.Number `json:"expires_in"`
}

// accessToken returns the cached token, refreshing it through a singleflight
// group so concurrent dispatches share one credential exchange.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.RLock()
	if c.token != "" && time.Now().Before(c.tokenExpiry) {
		token := c.token
		c.mu.RUnlock()
		return token, nil
	}
	c.mu.RUnlock()

	value, err, _ := c.refresh.Do("token", func() (interface{}, error) {
		c.mu.RLock()
		if c.token != "" && time.Now().Before(c.tokenExpiry) {
			token := c.token
			c.mu.RUnlock()
			return token, nil
		}
		c.mu.RUnlock()

		return c.exchangeCredentials(ctx)
	})
	if err != nil {
		return "", err
	}

	return value.(string), nil
}

func (c *Client) exchangeCredentials(ctx context.Context) (string, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.BaseURL+"/oauth/v3/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}
	req.SetBasicAuth(c.cfg.ClientID, c.cfg.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request failed: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Warn("Failed to close token response body", zap.Error(err))
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token endpoint returned status %d", resp.StatusCode)
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}
	if tr.AccessToken == "" {
		return "", fmt.Errorf("token endpoint returned an empty access token")
	}

	lifetime, err := tr.ExpiresIn.Int64()
	if err != nil || lifetime <= 0 {
		return "", fmt.Errorf("token endpoint returned invalid expires_in %q", tr.ExpiresIn)
	}

	expiry := time.Now().Add(time.Duration(lifetime)*time.Second - tokenExpiryMargin)

	c.mu.Lock()
	c.token = tr.AccessToken
	c.tokenExpiry = expiry
	c.mu.Unlock()

	c.logger.Info("Obtained new carrier access token",
		zap.Time("expires_at", expiry))

	return tr.AccessToken, nil
}

type outboundRequest struct {
	OutboundSMSMessageRequest outboundMessage `json:"outboundSMSMessageRequest"`
}

type outboundMessage struct {
	Address       string      `json:"address"`
	SenderAddress string      `json:"senderAddress"`
	SenderName    string      `json:"senderName,omitempty"`
	TextMessage   textMessage `json:"outboundSMSTextMessage"`
}

type textMessage struct {
	Message string `json:"message"`
}

type outboundResponse struct {
	OutboundSMSMessageRequest struct {
		ResourceURL string `json:"resourceURL"`
	} `json:"outboundSMSMessageRequest"`
}

func (c *Client) postMessage(ctx context.Context, token, formatted, body string) (string, error) {
	payload := outboundRequest{
		OutboundSMSMessageRequest: outboundMessage{
			Address:       "tel:" + formatted,
			SenderAddress: "tel:" + c.cfg.SenderAddress,
			SenderName:    c.cfg.SenderName,
			TextMessage:   textMessage{Message: body},
		},
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal send request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/smsmessaging/v1/outbound/%s/requests",
		c.cfg.BaseURL, url.PathEscape("tel:"+c.cfg.SenderAddress))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create send request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return "", &carrierError{
				code: CodeGatewayTimeout,
				text: "delivery unconfirmed: gateway did not respond before timeout",
			}
		}
		return "", fmt.Errorf("send request failed: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Warn("Failed to close send response body", zap.Error(err))
		}
	}()

	if resp.StatusCode == http.StatusCreated || resp.StatusCode == http.StatusOK {
		var or outboundResponse
		if err := json.NewDecoder(resp.Body).Decode(&or); err != nil {
			return "", fmt.Errorf("failed to decode send response: %w", err)
		}
		return messageIDFromResource(or.OutboundSMSMessageRequest.ResourceURL), nil
	}

	return "", c.classifyFailure(resp)
}

// classifyFailure maps a non-2xx carrier response to a carrierError. The
// structured error body is preferred; when it cannot be parsed the HTTP
// status code is used as a fallback.
func (c *Client) classifyFailure(resp *http.Response) *carrierError {
	var body errorBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil {
		if exc := body.exception(); exc != nil {
			return &carrierError{
				code: classifyException(resp.StatusCode, exc),
				text: fmt.Sprintf("%s: %s", exc.MessageID, exc.Text),
			}
		}
	}

	if resp.StatusCode == http.StatusGatewayTimeout {
		return &carrierError{
			code: CodeGatewayTimeout,
			text: "delivery unconfirmed: carrier returned 504 Gateway Timeout",
		}
	}

	return &carrierError{
		code: CodeCarrierError,
		text: fmt.Sprintf("carrier returned status %d", resp.StatusCode),
	}
}

func classifyException(status int, exc *apiException) Code {
	if status == http.StatusGatewayTimeout {
		return CodeGatewayTimeout
	}
	if status == http.StatusUnauthorized {
		return CodeAuthFailed
	}

	switch exc.MessageID {
	case "SVC0004", "SVC0002":
		return CodeInvalidRecipient
	case "POL1102":
		return CodeInsufficientBalance
	case "POL1100":
		return CodeExpiredContract
	}

	text := strings.ToLower(exc.Text)
	switch {
	case strings.Contains(text, "balance") || strings.Contains(text, "credit"):
		return CodeInsufficientBalance
	case strings.Contains(text, "contract") || strings.Contains(text, "expired"):
		return CodeExpiredContract
	case strings.Contains(text, "timeout"):
		return CodeGatewayTimeout
	}

	return CodeCarrierError
}

func messageIDFromResource(resourceURL string) string {
	if resourceURL == "" {
		return ""
	}
	parts := strings.Split(strings.TrimRight(resourceURL, "/"), "/")
	return parts[len(parts)-1]
}
