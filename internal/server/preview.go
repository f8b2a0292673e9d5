package server

import (
	"image"
	"image/png"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/udisondev/posetouch/internal/game"
	"github.com/udisondev/posetouch/internal/render"
)

// maxPreviewSide caps preview dimensions; clients report their own canvas size.
const maxPreviewSide = 4096

// handleFramePreview renders the latest frame of a live session as PNG: tracked
// keypoints and the target with its countdown, without the camera image.
func (s *Server) handleFramePreview(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	c, ok := s.clients.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	st, ok := c.LastState()
	if !ok {
		writeError(w, http.StatusNotFound, "no frame yet")
		return
	}

	img := renderPreview(st)
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	if err := png.Encode(w, img); err != nil {
		slog.Warn("writing preview", "session", id, "error", err)
	}
}

func renderPreview(st game.State) image.Image {
	b := st.Canvas
	if b.Empty() {
		b.Width, b.Height = 640, 480
	}
	width := min(int(b.Width), maxPreviewSide)
	height := min(int(b.Height), maxPreviewSide)

	r := render.NewRaster(width, height)
	r.Clear()
	render.DrawKeypoints(r, st.Keypoints, st.Config.KeypointSize)
	if t := st.Target; t != nil {
		render.DrawTarget(r, t.Target.Position, st.Config.ObjectShape, st.Config.ObjectSize, t.Remaining.String())
	}
	return r.Image()
}
