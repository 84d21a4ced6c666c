package shell

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// StreamChanges pushes every published event change to the client as a
// server-sent event until the client goes away.
func (h *Handler) StreamChanges(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if h.changes == nil || !ok {
		http.Error(w, "change stream unavailable", http.StatusServiceUnavailable)
		return
	}

	ctx := r.Context()
	changes := h.changes.Subscribe(ctx)

	w.Header().Set("Content-Type", "text/event-stream;charset=UTF-8")
	w.Header().Set("Cache-Control", "no-cache, no-store, max-age=0, must-revalidate")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)

	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()
	h.logger.Debug("SSE", "Client subscribed to event changes")

	for {
		select {
		case change, open := <-changes:
			if !open {
				return
			}
			data, err := json.Marshal(change)
			if err != nil {
				h.logger.Error("SSE", fmt.Sprintf("Failed to marshal change: %v", err))
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", change.Kind, data)
			flusher.Flush()
		case <-ctx.Done():
			h.logger.Debug("SSE", "Client disconnected from event changes")
			return
		}
	}
}
