// Package nightscout is an HTTP client for a Nightscout site: glucose entries,
// treatments, profiles and Loop remote commands.
package nightscout

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jwulff/caregiver-go/internal/config"
	"github.com/jwulff/caregiver-go/internal/logger"
)

// API paths relative to the site URL.
const (
	EntriesPath       = "/api/v1/entries/sgv.json"
	TreatmentsPath    = "/api/v1/treatments.json"
	ProfilePath       = "/api/v1/profile.json"
	NotificationsPath = "/api/v2/notifications/loop"
)

// Client is an HTTP client for the Nightscout API.
type Client struct {
	BaseURL    string
	EnteredBy  string
	HTTPClient *http.Client
	Now        func() time.Time
	secretHash string
	logger     *zap.Logger
}

// NewClient creates a client from the site configuration.
func NewClient(cfg config.NightscoutConfig, log *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = config.DefaultTimeout
	}
	enteredBy := cfg.EnteredBy
	if enteredBy == "" {
		enteredBy = config.DefaultEnteredBy
	}
	return &Client{
		BaseURL:   strings.TrimRight(cfg.URL, "/"),
		EnteredBy: enteredBy,
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
		Now:        time.Now,
		secretHash: HashSecret(cfg.APISecret),
		logger:     logger.OrNop(log),
	}
}

// HashSecret returns the SHA-1 hex digest Nightscout expects in the
// api-secret header. An empty secret hashes to the empty string.
func HashSecret(secret string) string {
	if secret == "" {
		return ""
	}
	sum := sha1.Sum([]byte(secret))
	return hex.EncodeToString(sum[:])
}

// StatusError is returned when Nightscout answers with a non-2xx status.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s failed with status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// getJSON fetches path with query and decodes the response into out.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	body, err := c.do(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse %s response: %w", path, err)
	}
	return nil
}

// postJSON sends payload to path.
func (c *Client) postJSON(ctx context.Context, path string, payload any) error {
	_, err := c.do(ctx, http.MethodPost, path, nil, payload)
	return err
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload any) ([]byte, error) {
	endpoint := c.BaseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s request: %w", path, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s request: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.secretHash != "" {
		req.Header.Set("api-secret", c.secretHash)
	}

	start := time.Now()
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s response: %w", path, err)
	}

	c.logger.Debug("Nightscout request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	return body, nil
}

func (c *Client) now() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}
