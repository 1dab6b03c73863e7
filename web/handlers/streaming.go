package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// handleDebateEvents streams a run's activity events using Server-Sent
// Events: all events emitted so far immediately, then new ones as the
// background run produces them, then a terminal event.
func (h *Handler) handleDebateEvents(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	slog.Debug("New event stream connection", "id", id, "remote_addr", r.RemoteAddr)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		slog.Error("Streaming unsupported: ResponseWriter does not implement http.Flusher")
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	h.mu.RLock()
	run, ok := h.live[id]
	h.mu.RUnlock()

	if !ok {
		// Not live; if archived, replay its recorded events.
		result, err := h.storage.GetRun(id)
		if err != nil || result == nil {
			h.sendSSEError(w, flusher, "debate not found")
			return
		}
		for _, ev := range result.Events {
			h.sendSSEEvent(w, flusher, string(ev.Type), ev)
		}
		h.sendSSEEvent(w, flusher, "debate_complete", map[string]string{"id": id})
		return
	}

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	sent := 0
	for {
		events, done, failed := run.snapshot()
		for ; sent < len(events); sent++ {
			h.sendSSEEvent(w, flusher, string(events[sent].Type), events[sent])
		}

		if done {
			if failed != "" {
				h.sendSSEError(w, flusher, failed)
			} else {
				h.sendSSEEvent(w, flusher, "debate_complete", map[string]string{"id": id})
			}
			return
		}

		select {
		case <-r.Context().Done():
			slog.Debug("Stream context done", "id", id)
			return
		case <-ticker.C:
		}
	}
}

// sendSSEEvent sends a server-sent event.
func (h *Handler) sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, eventType string, data interface{}) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		slog.Error("Failed to marshal SSE data", "error", err)
		return
	}

	if _, err := fmt.Fprintf(w, "event: %s\n", eventType); err != nil {
		slog.Error("Failed to write SSE event", "error", err)
		return
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", jsonData); err != nil {
		slog.Error("Failed to write SSE data", "error", err)
		return
	}
	flusher.Flush()
}

// sendSSEError sends an error event.
func (h *Handler) sendSSEError(w http.ResponseWriter, flusher http.Flusher, message string) {
	h.sendSSEEvent(w, flusher, "error", map[string]string{"message": message})
}
