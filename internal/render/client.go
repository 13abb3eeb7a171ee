// Package render talks to the image render service that turns weekly stats
// into shareable graphics.
package render

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"draftbot/internal/config"
	"draftbot/internal/domain"
)

type Client struct {
	client  *http.Client
	baseURL string
	apiKey  string
	logger  *slog.Logger
}

func NewClient(cfg config.RenderConfig, logger *slog.Logger) *Client {
	return &Client{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		logger:  logger.With("client", "render"),
	}
}

func (c *Client) RenderMarket(ctx context.Context, payload domain.MarketRenderPayload) ([]byte, error) {
	return c.render(ctx, "/render/market", payload)
}

func (c *Client) RenderListings(ctx context.Context, payload domain.ListingsRenderPayload) ([]byte, error) {
	return c.render(ctx, "/render/listings", payload)
}

func (c *Client) render(ctx context.Context, path string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "image/png")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("render service status %d", resp.StatusCode)
	}

	image, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if len(image) == 0 {
		return nil, fmt.Errorf("render service returned empty image")
	}

	c.logger.Debug("rendered image", "path", path, "bytes", len(image))
	return image, nil
}
