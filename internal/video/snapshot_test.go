package video

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jpegBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func TestSnapshot(t *testing.T) {
	t.Parallel()

	body := jpegBytes(t, 64, 48)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	s, err := NewSnapshot(srv.URL, srv.Client(), nil)
	require.NoError(t, err)
	defer s.Close()

	f1, err := s.Next(context.Background())
	require.NoError(t, err)
	f2, err := s.Next(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 64, f1.Width)
	assert.Equal(t, 48, f1.Height)
	assert.NotNil(t, f1.Image)
	assert.Equal(t, uint64(1), f1.Seq)
	assert.Equal(t, uint64(2), f2.Seq)
}

func TestSnapshotErrors(t *testing.T) {
	t.Parallel()

	_, err := NewSnapshot("", nil, nil)
	require.Error(t, err)

	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"status", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "camera offline", http.StatusServiceUnavailable)
		}},
		{"not an image", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("hello"))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			s, err := NewSnapshot(srv.URL, srv.Client(), nil)
			require.NoError(t, err)
			_, err = s.Next(context.Background())
			assert.Error(t, err)
		})
	}
}

func TestSnapshotCanceled(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	s, err := NewSnapshot(srv.URL, srv.Client(), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
