package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrSMSRejected marks a gateway answer that retrying will not fix
// (bad number, 4xx). Callers send such jobs to the DLQ without retry.
var ErrSMSRejected = errors.New("sms: rejected by gateway")

type SMSMessage struct {
	To   string `json:"to"`
	From string `json:"from"`
	Text string `json:"text"`
	Ref  string `json:"reference,omitempty"`
}

type smsGatewayResponse struct {
	MessageID string `json:"message_id"`
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
}

// SMSClient posts messages to an HTTP SMS gateway with bearer auth.
type SMSClient struct {
	gatewayURL string
	apiKey     string
	sender     string
	httpClient *http.Client
}

func NewSMSClient(gatewayURL, apiKey, sender string) *SMSClient {
	return &SMSClient{
		gatewayURL: gatewayURL,
		apiKey:     apiKey,
		sender:     sender,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// Send delivers one text and returns the gateway message id.
func (c *SMSClient) Send(ctx context.Context, to, text, ref string) (string, error) {
	body, err := json.Marshal(SMSMessage{To: to, From: c.sender, Text: text, Ref: ref})
	if err != nil {
		return "", fmt.Errorf("sms: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.gatewayURL+"/messages", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("sms: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("sms: gateway unreachable: %w", err)
	}
	defer resp.Body.Close()

	var result smsGatewayResponse
	_ = json.NewDecoder(resp.Body).Decode(&result)

	switch {
	case resp.StatusCode >= 500:
		return "", fmt.Errorf("sms: gateway returned %d", resp.StatusCode)
	case resp.StatusCode >= 400:
		return "", fmt.Errorf("%w: %d %s", ErrSMSRejected, resp.StatusCode, result.Error)
	}
	return result.MessageID, nil
}
