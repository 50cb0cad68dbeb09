package pixoo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/jwulff/caregiver-go/internal/config"
	"github.com/jwulff/caregiver-go/internal/domain"
	"github.com/jwulff/caregiver-go/internal/logger"
)

// DefaultPort is the Pixoo HTTP API port.
const DefaultPort = "80"

// Client talks to one Pixoo64 on the local network.
type Client struct {
	Address    string
	HTTPClient *http.Client
	logger     *zap.Logger

	mu    sync.Mutex
	picID int // 0 until the device gif id has been reset
}

// NewClient creates a client for the configured display.
func NewClient(cfg config.DisplayConfig, log *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = config.DefaultDisplayTimeout
	}
	return &Client{
		Address: cfg.Address,
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger.OrNop(log),
	}
}

// Endpoint returns the command URL. Address may be a bare host, host:port,
// or a full http URL.
func (c *Client) Endpoint() string {
	addr := strings.TrimRight(c.Address, "/")
	if strings.HasPrefix(addr, "http://") || strings.HasPrefix(addr, "https://") {
		return addr + "/post"
	}
	if _, _, err := net.SplitHostPort(addr); err != nil {
		addr = net.JoinHostPort(addr, DefaultPort)
	}
	return "http://" + addr + "/post"
}

func (c *Client) send(ctx context.Context, name string, cmd any) ([]byte, error) {
	data, err := json.Marshal(cmd)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint(), bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create %s request: %w", name, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send %s: %w", name, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s response: %w", name, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: unexpected status code %d: %s", name, resp.StatusCode, string(body))
	}

	var r response
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, fmt.Errorf("failed to parse %s response: %w", name, err)
	}
	if r.ErrorCode != 0 {
		return nil, &DeviceError{Command: name, Code: r.ErrorCode}
	}
	return body, nil
}

// Push shows frame on the display. The device gif id is reset on the first
// push, after maxPicID pushes, and after any failed push.
func (c *Client) Push(ctx context.Context, frame *domain.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.picID == 0 || c.picID >= maxPicID {
		if _, err := c.send(ctx, cmdResetGifID, command{Command: cmdResetGifID}); err != nil {
			c.picID = 0
			return err
		}
		c.picID = 0
	}

	cmd, err := NewFrameCommand(frame, c.picID+1)
	if err != nil {
		return err
	}
	if _, err := c.send(ctx, cmdSendGif, cmd); err != nil {
		c.picID = 0
		return err
	}
	c.picID++

	c.logger.Debug("Pushed frame", zap.String("address", c.Address), zap.Int("pic_id", c.picID))
	return nil
}

// SetBrightness sets the display brightness, clamped to 0-100.
func (c *Client) SetBrightness(ctx context.Context, brightness int) error {
	_, err := c.send(ctx, cmdSetBrightness, newBrightnessCommand(brightness))
	return err
}

// Ping checks that the device answers commands.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.send(ctx, cmdDeviceTime, command{Command: cmdDeviceTime})
	return err
}
