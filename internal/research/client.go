// Package research integrates the lead enrichment provider and archives its
// reports.
package research

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
)

// Report is the enrichment provider's findings for a business.
type Report struct {
	Summary    string          `json:"summary"`
	Attributes json.RawMessage `json:"attributes,omitempty"`
	Raw        json.RawMessage `json:"raw,omitempty"`
}

// Client calls the enrichment provider's research API.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	log     *logger.Logger
}

type researchRequest struct {
	BusinessName string `json:"businessName"`
	Location     string `json:"location,omitempty"`
	Industry     string `json:"industry,omitempty"`
}

// NewClient creates a research client. Returns nil when no provider is
// configured; all methods are safe on a nil receiver.
func NewClient(cfg config.ResearchConfig, log *logger.Logger) *Client {
	if cfg.GetResearchServiceURL() == "" {
		return nil
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.GetResearchServiceURL(), "/"),
		apiKey:  cfg.GetResearchServiceKey(),
		// Research runs crawl the open web; give them more room than a
		// plain API call.
		http: &http.Client{Timeout: 60 * time.Second},
		log:  log,
	}
}

// Research asks the provider to investigate a business.
func (c *Client) Research(ctx context.Context, businessName, location, industry string) (Report, error) {
	if c == nil {
		return Report{}, fmt.Errorf("research provider not configured")
	}

	payload := researchRequest{
		BusinessName: businessName,
		Location:     location,
		Industry:     industry,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return Report{}, fmt.Errorf("marshal research payload: %w", err)
	}

	url := fmt.Sprintf("%s/v1/research", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return Report{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Report{}, fmt.Errorf("research request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return Report{}, fmt.Errorf("research provider returned %d: %s", resp.StatusCode, strings.TrimSpace(string(text)))
	}

	var report Report
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		return Report{}, fmt.Errorf("decode research response: %w", err)
	}

	c.log.Info("research completed", "business_name", businessName)
	return report, nil
}
