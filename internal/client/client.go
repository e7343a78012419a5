// Package client calls the profile proxy route on behalf of the agent CLI.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gwi.com/linkedin-agent/internal/store"
)

const profilePath = "/api/linkedin/profile"

// APIError is a non-200 answer from the proxy route.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("proxy returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("proxy returned status %d: %s", e.StatusCode, e.Message)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

func New(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// ScrapeProfile asks the proxy for the profile behind cookie. On any failure
// it logs the error and returns a nil profile.
func (c *Client) ScrapeProfile(ctx context.Context, cookie, userAgent string) (*store.Profile, error) {
	profile, err := c.scrapeProfile(ctx, cookie, userAgent)
	if err != nil {
		c.logger.Warn("Error scraping LinkedIn profile", zap.Error(err))
		return nil, err
	}
	return profile, nil
}

func (c *Client) scrapeProfile(ctx context.Context, cookie, userAgent string) (*store.Profile, error) {
	payload, err := json.Marshal(map[string]string{"cookie": cookie, "userAgent": userAgent})
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+profilePath, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling proxy: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errBody struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(body, &errBody)
		return nil, &APIError{StatusCode: resp.StatusCode, Message: errBody.Error}
	}

	var profile store.Profile
	if err := json.Unmarshal(body, &profile); err != nil {
		return nil, fmt.Errorf("decoding profile: %w", err)
	}
	return &profile, nil
}
