package video

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // snapshot endpoints serve JPEG
	_ "image/png"
	"io"
	"net/http"
	"sync/atomic"
	"time"
)

// Snapshot pulls still images from an HTTP camera endpoint, one request per frame.
// Most IP cameras and webcam bridges expose such an endpoint (e.g. /snapshot.jpg).
type Snapshot struct {
	url  string
	http *http.Client
	seq  atomic.Uint64
	now  func() time.Time
}

// NewSnapshot creates a snapshot source. A nil client gets a 2 second timeout.
func NewSnapshot(url string, client *http.Client, now func() time.Time) (*Snapshot, error) {
	if url == "" {
		return nil, errors.New("snapshot url is required")
	}
	if client == nil {
		client = &http.Client{Timeout: 2 * time.Second}
	}
	if now == nil {
		now = time.Now
	}
	return &Snapshot{url: url, http: client, now: now}, nil
}

// Next fetches and decodes one image.
func (s *Snapshot) Next(ctx context.Context) (Frame, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return Frame{}, fmt.Errorf("building snapshot request: %w", err)
	}
	resp, err := s.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return Frame{}, ctx.Err()
		}
		return Frame{}, fmt.Errorf("snapshot request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 512))
		return Frame{}, fmt.Errorf("snapshot endpoint returned %d", resp.StatusCode)
	}

	img, _, err := image.Decode(resp.Body)
	if err != nil {
		return Frame{}, fmt.Errorf("decoding snapshot: %w", err)
	}
	b := img.Bounds()
	return Frame{
		Seq:      s.seq.Add(1),
		Width:    b.Dx(),
		Height:   b.Dy(),
		Image:    img,
		Captured: s.now(),
	}, nil
}

// Close releases idle connections.
func (s *Snapshot) Close() error {
	s.http.CloseIdleConnections()
	return nil
}
