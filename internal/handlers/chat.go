package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"folio-backend/internal/services"
)

type ChatHandler struct {
	chatService *services.ChatService
}

func NewChatHandler(chatService *services.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// visitorID pulls the widget's opaque identity from the X-Visitor-ID
// header. The widget generates it once and sends it on every request.
func visitorID(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.Header.Get("X-Visitor-ID"))
	return id, err == nil
}

// GetVisitorThread is the widget's polling endpoint: the full message
// history for this visitor's conversation. First call creates the
// conversation.
func (h *ChatHandler) GetVisitorThread(w http.ResponseWriter, r *http.Request) {
	vid, ok := visitorID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "X-Visitor-ID header is required", r))
		return
	}

	conv, messages, err := h.chatService.VisitorThread(r.Context(), vid, r.URL.Query().Get("name"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"conversation": conv,
		"messages":     messages,
	})
}

func (h *ChatHandler) SendVisitorMessage(w http.ResponseWriter, r *http.Request) {
	vid, ok := visitorID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "X-Visitor-ID header is required", r))
		return
	}

	var req struct {
		Message     string `json:"message"`
		VisitorName string `json:"visitor_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	record, err := h.chatService.SendVisitorMessage(r.Context(), vid, req.VisitorName, req.Message)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, record)
}

// ListConversations is the admin inbox polling endpoint.
func (h *ChatHandler) ListConversations(w http.ResponseWriter, r *http.Request) {
	conversations, err := h.chatService.ListConversations(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, conversations)
}

func (h *ChatHandler) GetAdminThread(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid conversation ID", r))
		return
	}

	conv, messages, err := h.chatService.AdminThread(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"conversation": conv,
		"messages":     messages,
	})
}

func (h *ChatHandler) SendAdminMessage(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid conversation ID", r))
		return
	}

	var req struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	record, err := h.chatService.SendAdminMessage(r.Context(), id, req.Message)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, record)
}
