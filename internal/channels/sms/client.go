// Package sms integrates the outbound SMS gateway.
package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"leadflow_backend/platform/config"
	"leadflow_backend/platform/logger"
	"leadflow_backend/platform/phone"
)

// Client sends text messages through the SMS gateway. Outbound volume is
// throttled so a batch of due tasks cannot trip the provider's limits.
type Client struct {
	baseURL    string
	apiKey     string
	fromNumber string
	http       *http.Client
	limiter    *rate.Limiter
	log        *logger.Logger
}

type sendRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
	Body string `json:"body"`
}

type sendResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// NewClient creates an SMS client. Returns nil when no gateway is configured;
// all methods are safe on a nil receiver.
func NewClient(cfg config.SMSConfig, log *logger.Logger) *Client {
	if cfg.GetSMSServiceURL() == "" {
		return nil
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.GetSMSServiceURL(), "/"),
		apiKey:     cfg.GetSMSServiceKey(),
		fromNumber: cfg.GetSMSFromNumber(),
		http:       &http.Client{Timeout: 10 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(5), 10),
		log:        log,
	}
}

// Send delivers a text message and returns the provider message ID.
func (c *Client) Send(ctx context.Context, toNumber, body string) (string, error) {
	if c == nil {
		return "", fmt.Errorf("sms gateway not configured")
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	payload := sendRequest{
		From: c.fromNumber,
		To:   phone.NormalizeE164(toNumber),
		Body: body,
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal sms payload: %w", err)
	}

	url := fmt.Sprintf("%s/v1/messages", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(encoded))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("sms request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("sms gateway returned %d: %s", resp.StatusCode, strings.TrimSpace(string(text)))
	}

	var parsed sendResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode sms response: %w", err)
	}

	c.log.Info("sms sent", "message_id", parsed.ID, "status", parsed.Status)
	return parsed.ID, nil
}
