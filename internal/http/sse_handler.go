package http

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/simplur/cart-events-service/internal/broadcast"
)

func NewSSEHandler(broadcaster *broadcast.Broadcaster) *SSEHandler {
	return &SSEHandler{broadcaster: broadcaster}
}

type SSEHandler struct {
	broadcaster *broadcast.Broadcaster
}

// Events holds one push-stream connection open and relays the session's
// outcome events as server-sent events. The subscription is torn down when
// the client disconnects.
func (h *SSEHandler) Events(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("clientMutationId")
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "missing_session", "clientMutationId is required")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "streaming_unsupported", "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache,no-transform")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	sub := h.broadcaster.Subscribe(sessionID)
	defer h.broadcaster.Unsubscribe(sub)

	for {
		select {
		case <-r.Context().Done():
			return
		case event, open := <-sub.C:
			if !open {
				return
			}
			data, err := json.Marshal(event)
			if err != nil {
				log.Printf("sse: marshal event for session %s: %v", sessionID, err)
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", sessionID, data)
			flusher.Flush()
		}
	}
}
