package oracle

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog/log"

	"github.com/subnet42/harvester/internal/config"
	"github.com/subnet42/harvester/internal/synapse"
)

const collectPath = "/api/v1/data/collect"

// Client talks to the oracle's HTTP API with bounded retries.
type Client struct {
	baseURL    string
	maxItems   int
	httpClient *retryablehttp.Client
}

func NewClient(cfg *config.OracleEnvConfig) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("oracle config is nil")
	}
	if cfg.OracleURL == "" {
		return nil, fmt.Errorf("oracle URL is empty")
	}

	client := retryablehttp.NewClient()
	client.RetryMax = cfg.OracleRetryMax
	client.HTTPClient.Timeout = cfg.OracleTimeout
	client.RetryWaitMin = 500 * time.Millisecond
	client.RetryWaitMax = 10 * time.Second
	client.Logger = nil

	log.Info().
		Str("base_url", cfg.OracleURL).
		Int("retry_max", client.RetryMax).
		Str("timeout", client.HTTPClient.Timeout.String()).
		Msg("oracle client configured")

	return &Client{
		baseURL:    cfg.OracleURL,
		maxItems:   cfg.MaxItemsPerTask,
		httpClient: client,
	}, nil
}

// Collect asks the oracle for up to count items matching query. The count is
// capped at the configured per-task maximum before hitting the oracle.
func (c *Client) Collect(ctx context.Context, query string, count int) ([]synapse.Item, error) {
	if count <= 0 {
		return nil, fmt.Errorf("item count must be positive, got %d", count)
	}
	if c.maxItems > 0 && count > c.maxItems {
		count = c.maxItems
	}

	body, err := sonic.Marshal(CollectParams{Query: query, Count: count})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal collect params: %w", err)
	}

	url := c.baseURL + collectPath
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("oracle request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read oracle response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("oracle returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var result CollectResult
	if err := sonic.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal oracle response: %w", err)
	}

	items := result.Data
	if len(items) > count {
		items = items[:count]
	}

	log.Debug().
		Str("query", query).
		Int("requested", count).
		Int("returned", len(items)).
		Msg("oracle collect completed")

	return items, nil
}
