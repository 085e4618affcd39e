// Package voice integrates the outbound AI voice-call provider.
package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"leadflow_backend/platform/config"
	"leadflow_backend/platform/logger"
	"leadflow_backend/platform/phone"
)

// Client calls the voice provider's outbound-call API.
type Client struct {
	baseURL         string
	apiKey          string
	defaultAgentRef string
	http            *http.Client
	log             *logger.Logger
}

type callRequest struct {
	AgentRef string            `json:"agentRef"`
	ToNumber string            `json:"toNumber"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type callResponse struct {
	ConversationID string `json:"conversationId"`
}

// NewClient creates a voice client. Returns nil when no provider is
// configured; all methods are safe on a nil receiver.
func NewClient(cfg config.VoiceConfig, log *logger.Logger) *Client {
	if cfg.GetVoiceServiceURL() == "" {
		return nil
	}

	return &Client{
		baseURL:         strings.TrimRight(cfg.GetVoiceServiceURL(), "/"),
		apiKey:          cfg.GetVoiceServiceKey(),
		defaultAgentRef: cfg.GetVoiceDefaultAgentRef(),
		http:            &http.Client{Timeout: 10 * time.Second},
		log:             log,
	}
}

// DefaultAgentRef returns the configured default voice agent.
func (c *Client) DefaultAgentRef() string {
	if c == nil {
		return ""
	}
	return c.defaultAgentRef
}

// StartCall places an outbound call and returns the provider conversation ID.
func (c *Client) StartCall(ctx context.Context, agentRef, toNumber string, metadata map[string]string) (string, error) {
	if c == nil {
		return "", fmt.Errorf("voice provider not configured")
	}
	if agentRef == "" {
		agentRef = c.defaultAgentRef
	}
	if agentRef == "" {
		return "", fmt.Errorf("no voice agent configured")
	}

	payload := callRequest{
		AgentRef: agentRef,
		ToNumber: phone.NormalizeE164(toNumber),
		Metadata: metadata,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal voice payload: %w", err)
	}

	url := fmt.Sprintf("%s/v1/calls", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("voice request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("voice provider returned %d: %s", resp.StatusCode, strings.TrimSpace(string(text)))
	}

	var parsed callResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode voice response: %w", err)
	}

	c.log.Info("voice call started", "agent_ref", agentRef, "conversation_id", parsed.ConversationID)
	return parsed.ConversationID, nil
}
