package firecrawl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"property-agent/scraper"
	"property-agent/utils"
)

const (
	defaultBaseURL = "https://api.firecrawl.dev"
	maxErrorBody   = 512
)

// Job states reported by the extract endpoint.
const (
	statusCompleted  = "completed"
	statusFailed     = "failed"
	statusCancelled  = "cancelled"
	statusProcessing = "processing"
)

// Config controls the Firecrawl client.
type Config struct {
	APIKey       string
	BaseURL      string
	Timeout      time.Duration // overall deadline for one extraction, polling included
	PollInterval time.Duration
	HTTPClient   *http.Client
}

// Client calls the Firecrawl extract API: one POST to start a job, then
// GETs on the job until it settles.
type Client struct {
	apiKey     string
	baseURL    string
	timeout    time.Duration
	poll       time.Duration
	httpClient *http.Client
	logger     *utils.Logger
}

// New creates a Firecrawl client. Zero durations fall back to defaults.
func New(cfg Config, logger *utils.Logger) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Minute
	}
	poll := cfg.PollInterval
	if poll <= 0 {
		poll = 2 * time.Second
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 60 * time.Second}
	}

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    base,
		timeout:    timeout,
		poll:       poll,
		httpClient: hc,
		logger:     logger,
	}
}

// Name implements scraper.Service.
func (c *Client) Name() string { return "Firecrawl" }

type extractRequest struct {
	URLs   []string       `json:"urls"`
	Prompt string         `json:"prompt"`
	Schema map[string]any `json:"schema"`
}

type jobStatus struct {
	Success bool            `json:"success"`
	ID      string          `json:"id"`
	Status  string          `json:"status"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

// Extract implements scraper.Service. It returns the body of the completed
// job so the caller can normalize it.
func (c *Client) Extract(ctx context.Context, req scraper.Request) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	payload, err := json.Marshal(extractRequest{URLs: req.URLs, Prompt: req.Prompt, Schema: req.Schema})
	if err != nil {
		return nil, fmt.Errorf("firecrawl: encode request: %w", err)
	}

	body, err := c.do(ctx, http.MethodPost, "/v1/extract", payload)
	if err != nil {
		return nil, fmt.Errorf("firecrawl: start extract: %w", err)
	}

	var started jobStatus
	if err := json.Unmarshal(body, &started); err != nil {
		return nil, fmt.Errorf("firecrawl: decode start response: %w", err)
	}
	if !started.Success {
		return nil, fmt.Errorf("firecrawl: start extract: %s", orDefault(started.Error, "request rejected"))
	}
	if hasData(started.Data) || started.ID == "" {
		return body, nil
	}

	c.logger.Info("[firecrawl] Extract job %s started, polling every %v", started.ID, c.poll)
	return c.wait(ctx, started.ID)
}

func (c *Client) wait(ctx context.Context, id string) ([]byte, error) {
	path := "/v1/extract/" + id
	for {
		body, err := c.do(ctx, http.MethodGet, path, nil)
		if err != nil {
			return nil, fmt.Errorf("firecrawl: poll job %s: %w", id, err)
		}

		var st jobStatus
		if err := json.Unmarshal(body, &st); err != nil {
			return nil, fmt.Errorf("firecrawl: decode job %s: %w", id, err)
		}

		switch strings.ToLower(st.Status) {
		case statusCompleted:
			c.logger.Info("[firecrawl] Extract job %s completed", id)
			return body, nil
		case statusFailed, statusCancelled:
			return nil, fmt.Errorf("firecrawl: job %s %s: %s", id, st.Status, orDefault(st.Error, "no detail"))
		case "", statusProcessing:
			c.logger.Debug("[firecrawl] Job %s still %s", id, orDefault(st.Status, "pending"))
		default:
			c.logger.Debug("[firecrawl] Job %s in state %q", id, st.Status)
		}

		timer := time.NewTimer(c.poll)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, fmt.Errorf("firecrawl: job %s: %w", id, ctx.Err())
		case <-timer.C:
		}
	}
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var st jobStatus
		if json.Unmarshal(body, &st) == nil && st.Error != "" {
			return nil, fmt.Errorf("status %d: %s", resp.StatusCode, st.Error)
		}
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, truncate(string(body), maxErrorBody))
	}
	return body, nil
}

func hasData(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
