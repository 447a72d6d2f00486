package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/mail"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"folio-backend/internal/models"
	"folio-backend/internal/repository"
	"folio-backend/internal/worker"
)

type InquiryHandler struct {
	inquiryRepo *repository.InquiryRepo
	pool        *worker.Pool
}

func NewInquiryHandler(inquiryRepo *repository.InquiryRepo, pool *worker.Pool) *InquiryHandler {
	return &InquiryHandler{inquiryRepo: inquiryRepo, pool: pool}
}

// CreateInquiry is the public contact-form endpoint. The admin
// notification email goes through the queue so SMTP latency never
// touches this response.
func (h *InquiryHandler) CreateInquiry(w http.ResponseWriter, r *http.Request) {
	var req models.InquiryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	if fields := validateInquiry(req); len(fields) > 0 {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", fields, r))
		return
	}

	inquiry, err := h.inquiryRepo.Create(r.Context(), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	if err := h.pool.Enqueue(r.Context(), inquiry.ID); err != nil {
		log.Printf("Failed to enqueue notification for inquiry %s: %v", inquiry.ID, err)
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Thanks for reaching out! I'll get back to you soon.",
		"id":      inquiry.ID,
	})
}

func (h *InquiryHandler) ListInquiries(w http.ResponseWriter, r *http.Request) {
	inquiries, err := h.inquiryRepo.List(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, inquiries)
}

func (h *InquiryHandler) GetInquiry(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid inquiry ID", r))
		return
	}

	inquiry, err := h.inquiryRepo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Inquiry not found", r))
			return
		}
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, inquiry)
}

func (h *InquiryHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid inquiry ID", r))
		return
	}

	if err := h.inquiryRepo.MarkRead(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Inquiry not found", r))
			return
		}
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Inquiry marked as read"})
}

func (h *InquiryHandler) DeleteInquiry(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid inquiry ID", r))
		return
	}

	if err := h.inquiryRepo.Delete(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Inquiry not found", r))
			return
		}
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Inquiry deleted"})
}

func validateInquiry(req models.InquiryRequest) map[string]string {
	fields := make(map[string]string)
	if strings.TrimSpace(req.Name) == "" {
		fields["name"] = "Name is required"
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		fields["email"] = "A valid email address is required"
	}
	if strings.TrimSpace(req.Subject) == "" {
		fields["subject"] = "Subject is required"
	}
	if strings.TrimSpace(req.Body) == "" {
		fields["body"] = "Message is required"
	}
	if len(req.Body) > 10000 {
		fields["body"] = "Message must be under 10000 characters"
	}
	return fields
}
