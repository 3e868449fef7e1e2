package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/ayusman/tinsel/internal/app"
)

// PreviewSource provides the latest camera frame. WatchPreview marks a
// consumer as present until release is called.
type PreviewSource interface {
	LatestPreview() *app.Preview
	WatchPreview() (release func())
}

// StreamHandler serves the camera preview as MJPEG. Frames are already
// mirrored by the capture layer.
type StreamHandler struct {
	source PreviewSource
	poll   time.Duration
}

// NewStreamHandler creates a StreamHandler.
func NewStreamHandler(source PreviewSource) *StreamHandler {
	return &StreamHandler{source: source, poll: 33 * time.Millisecond}
}

func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	release := h.source.WatchPreview()
	defer release()

	ticker := time.NewTicker(h.poll)
	defer ticker.Stop()

	var last uint64
	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}

		p := h.source.LatestPreview()
		if p == nil || p.Seq == last {
			continue
		}
		last = p.Seq

		fmt.Fprintf(w, "--frame\r\n")
		fmt.Fprintf(w, "Content-Type: image/jpeg\r\n")
		fmt.Fprintf(w, "Content-Length: %d\r\n\r\n", len(p.JPEG))
		if _, err := w.Write(p.JPEG); err != nil {
			return
		}
		fmt.Fprintf(w, "\r\n")

		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
	}
}
