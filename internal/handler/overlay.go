package handler

import (
	"net/http"
	"strconv"
)

// OverlaySource provides the latest rendered overlay as PNG.
type OverlaySource interface {
	PNG() []byte
}

// OverlayHandler serves the transparent box overlay for the live view, or 204 when nothing is drawn.
func OverlayHandler(overlay OverlaySource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var data []byte
		if overlay != nil {
			data = overlay.PNG()
		}
		if len(data) == 0 {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		w.Write(data)
	}
}
