package pose

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image/jpeg"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/udisondev/posetouch/internal/model"
	"github.com/udisondev/posetouch/internal/video"
)

// ErrNoImage is returned when a frame without pixels is sent to a remote estimator.
var ErrNoImage = errors.New("frame has no image")

// ClientConfig holds configuration for the remote pose-estimation client.
type ClientConfig struct {
	// Endpoint accepts POSTed JPEG frames and replies with a single pose.
	Endpoint string

	// Timeout bounds one estimate. Defaults to 2 seconds if zero.
	Timeout time.Duration

	// FlipHorizontal mirrors returned keypoints so they line up with a mirrored display.
	FlipHorizontal bool

	// JPEGQuality for uploaded frames. Defaults to 80 if zero.
	JPEGQuality int

	// HTTPClient allows injecting a custom HTTP client (useful for testing).
	HTTPClient *http.Client
}

// Client estimates poses through an HTTP inference service.
//
// Request: POST Endpoint, body image/jpeg, X-Frame-Width / X-Frame-Height headers.
// Response: {"score": 0.9, "keypoints": [{"part": "nose", "position": {"x": 1, "y": 2}, "score": 0.8}]}.
type Client struct {
	config ClientConfig
	http   *http.Client
}

// NewClient creates a remote pose client.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("pose endpoint is required")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 2 * time.Second
	}
	if cfg.JPEGQuality == 0 {
		cfg.JPEGQuality = 80
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{config: cfg, http: httpClient}, nil
}

type poseResponse struct {
	Score     float64          `json:"score"`
	Keypoints []model.Keypoint `json:"keypoints"`
}

// Estimate uploads frame and returns the estimated keypoints.
func (c *Client) Estimate(ctx context.Context, frame video.Frame) ([]model.Keypoint, error) {
	if frame.Image == nil {
		return nil, ErrNoImage
	}

	var body bytes.Buffer
	if err := jpeg.Encode(&body, frame.Image, &jpeg.Options{Quality: c.config.JPEGQuality}); err != nil {
		return nil, fmt.Errorf("encoding frame %d: %w", frame.Seq, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.Endpoint, &body)
	if err != nil {
		return nil, fmt.Errorf("building pose request: %w", err)
	}
	req.Header.Set("Content-Type", "image/jpeg")
	req.Header.Set("X-Frame-Width", strconv.Itoa(frame.Width))
	req.Header.Set("X-Frame-Height", strconv.Itoa(frame.Height))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pose request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("pose service returned %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	var pr poseResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return nil, fmt.Errorf("decoding pose response: %w", err)
	}

	if c.config.FlipHorizontal {
		return Mirror(pr.Keypoints, frame.Width), nil
	}
	return pr.Keypoints, nil
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}
