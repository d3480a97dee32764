package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// SMSPayload is the request body sent to the SMS gateway.
type SMSPayload struct {
	To       string `json:"to"`
	Message  string `json:"message"`
	SenderID string `json:"sender_id"`
}

// SMSResponse is the gateway's reply.
type SMSResponse struct {
	Status    string `json:"status"` // "accepted" | "rejected"
	MessageID string `json:"message_id"`
	Detail    string `json:"detail,omitempty"`
}

// SMSClient talks to the external SMS gateway over HTTP. Gateway outages are
// handled upstream by the circuit breaker and the notification retry cron.
type SMSClient struct {
	gatewayURL string
	apiKey     string
	senderID   string
	httpClient *http.Client
}

func NewSMSClient(gatewayURL, apiKey, senderID string) *SMSClient {
	return &SMSClient{
		gatewayURL: gatewayURL,
		apiKey:     apiKey,
		senderID:   senderID,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// Send posts one message to the gateway.
func (c *SMSClient) Send(ctx context.Context, to, message string) (*SMSResponse, error) {
	body, err := json.Marshal(SMSPayload{To: to, Message: message, SenderID: c.senderID})
	if err != nil {
		return nil, fmt.Errorf("sms: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.gatewayURL+"/messages", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("sms: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sms: gateway unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return nil, fmt.Errorf("sms: gateway returned %d", resp.StatusCode)
	}

	var result SMSResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("sms: decode response: %w", err)
	}
	if result.Status != "accepted" {
		return nil, fmt.Errorf("sms: gateway rejected message: %s", result.Detail)
	}
	return &result, nil
}
