package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"folio-backend/internal/models"
	"folio-backend/internal/services"
)

type AssistantHandler struct {
	assistant *services.AssistantService
}

func NewAssistantHandler(assistant *services.AssistantService) *AssistantHandler {
	return &AssistantHandler{assistant: assistant}
}

// Chat streams the assistant's reply as plain-text chunks. The client
// reads the body incrementally; errors before the first chunk map to a
// JSON error response, errors after it cut the stream short and the
// client falls back on its own messaging.
func (h *AssistantHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req models.AssistantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Streaming unsupported", r))
		return
	}

	started := false
	err := h.assistant.Stream(r.Context(), req, func(chunk string) error {
		if !started {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.Header().Set("X-Accel-Buffering", "no")
			w.WriteHeader(http.StatusOK)
			started = true
		}
		if _, err := w.Write([]byte(chunk)); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	})
	if err != nil {
		if !started {
			handleServiceError(w, r, err)
			return
		}
		// Headers are gone; all we can do is log and close.
		log.Printf("Assistant stream aborted: %v", err)
	}
}
