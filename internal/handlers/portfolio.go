package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"folio-backend/internal/models"
	"folio-backend/internal/repository"
	"folio-backend/internal/services"
)

// cacheTTL for public portfolio reads. Content changes rarely; admin
// writes invalidate eagerly so the TTL only matters for multi-instance
// deployments.
const cacheTTL = 5 * time.Minute

type PortfolioHandler struct {
	projectRepo    *repository.ProjectRepo
	skillRepo      *repository.SkillRepo
	experienceRepo *repository.ExperienceRepo
	cache          *redis.Client
	assistant      *services.AssistantService
}

func NewPortfolioHandler(
	projectRepo *repository.ProjectRepo,
	skillRepo *repository.SkillRepo,
	experienceRepo *repository.ExperienceRepo,
	cache *redis.Client,
	assistant *services.AssistantService,
) *PortfolioHandler {
	return &PortfolioHandler{
		projectRepo:    projectRepo,
		skillRepo:      skillRepo,
		experienceRepo: experienceRepo,
		cache:          cache,
		assistant:      assistant,
	}
}

// Projects

func (h *PortfolioHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	if h.serveCached(w, r, "cache:projects") {
		return
	}

	projects, err := h.projectRepo.List(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	h.writeAndCache(w, r, "cache:projects", projects)
}

func (h *PortfolioHandler) GetProject(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	project, err := h.projectRepo.GetBySlug(r.Context(), slug)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Project not found", r))
		return
	}

	writeJSON(w, http.StatusOK, project)
}

func (h *PortfolioHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req models.ProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if fields := validateProject(req); len(fields) > 0 {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", fields, r))
		return
	}

	project, err := h.projectRepo.Create(r.Context(), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	h.invalidate(r, "cache:projects")
	writeJSON(w, http.StatusCreated, project)
}

func (h *PortfolioHandler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid project ID", r))
		return
	}

	var req models.ProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if fields := validateProject(req); len(fields) > 0 {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", fields, r))
		return
	}

	project, err := h.projectRepo.Update(r.Context(), id, req)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Project not found", r))
			return
		}
		handleServiceError(w, r, err)
		return
	}

	h.invalidate(r, "cache:projects")
	writeJSON(w, http.StatusOK, project)
}

func (h *PortfolioHandler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid project ID", r))
		return
	}

	if err := h.projectRepo.Delete(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Project not found", r))
			return
		}
		handleServiceError(w, r, err)
		return
	}

	h.invalidate(r, "cache:projects")
	writeJSON(w, http.StatusOK, map[string]string{"message": "Project deleted"})
}

// Skills

func (h *PortfolioHandler) ListSkills(w http.ResponseWriter, r *http.Request) {
	if h.serveCached(w, r, "cache:skills") {
		return
	}

	skills, err := h.skillRepo.List(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	h.writeAndCache(w, r, "cache:skills", skills)
}

func (h *PortfolioHandler) CreateSkill(w http.ResponseWriter, r *http.Request) {
	var req models.SkillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if req.Name == "" || req.Category == "" {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
			map[string]string{"name": "Name and category are required"}, r))
		return
	}

	skill, err := h.skillRepo.Create(r.Context(), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	h.invalidate(r, "cache:skills")
	writeJSON(w, http.StatusCreated, skill)
}

func (h *PortfolioHandler) UpdateSkill(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid skill ID", r))
		return
	}

	var req models.SkillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	skill, err := h.skillRepo.Update(r.Context(), id, req)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Skill not found", r))
			return
		}
		handleServiceError(w, r, err)
		return
	}

	h.invalidate(r, "cache:skills")
	writeJSON(w, http.StatusOK, skill)
}

func (h *PortfolioHandler) DeleteSkill(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid skill ID", r))
		return
	}

	if err := h.skillRepo.Delete(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Skill not found", r))
			return
		}
		handleServiceError(w, r, err)
		return
	}

	h.invalidate(r, "cache:skills")
	writeJSON(w, http.StatusOK, map[string]string{"message": "Skill deleted"})
}

// Experiences

func (h *PortfolioHandler) ListExperiences(w http.ResponseWriter, r *http.Request) {
	if h.serveCached(w, r, "cache:experiences") {
		return
	}

	experiences, err := h.experienceRepo.List(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	h.writeAndCache(w, r, "cache:experiences", experiences)
}

func (h *PortfolioHandler) CreateExperience(w http.ResponseWriter, r *http.Request) {
	var req models.ExperienceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if req.Role == "" || req.Company == "" {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
			map[string]string{"role": "Role and company are required"}, r))
		return
	}

	experience, err := h.experienceRepo.Create(r.Context(), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	h.invalidate(r, "cache:experiences")
	writeJSON(w, http.StatusCreated, experience)
}

func (h *PortfolioHandler) UpdateExperience(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid experience ID", r))
		return
	}

	var req models.ExperienceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	experience, err := h.experienceRepo.Update(r.Context(), id, req)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Experience not found", r))
			return
		}
		handleServiceError(w, r, err)
		return
	}

	h.invalidate(r, "cache:experiences")
	writeJSON(w, http.StatusOK, experience)
}

func (h *PortfolioHandler) DeleteExperience(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid experience ID", r))
		return
	}

	if err := h.experienceRepo.Delete(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Experience not found", r))
			return
		}
		handleServiceError(w, r, err)
		return
	}

	h.invalidate(r, "cache:experiences")
	writeJSON(w, http.StatusOK, map[string]string{"message": "Experience deleted"})
}

// Cache helpers

func (h *PortfolioHandler) serveCached(w http.ResponseWriter, r *http.Request, key string) bool {
	cached, err := h.cache.Get(r.Context(), key).Result()
	if err != nil {
		return false
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(cached))
	return true
}

func (h *PortfolioHandler) writeAndCache(w http.ResponseWriter, r *http.Request, key string, data interface{}) {
	body, err := json.Marshal(data)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "An unexpected error occurred", r))
		return
	}

	h.cache.Set(r.Context(), key, string(body), cacheTTL)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// invalidate drops the read cache and the assistant's portfolio
// snapshot after an admin write.
func (h *PortfolioHandler) invalidate(r *http.Request, key string) {
	h.cache.Del(r.Context(), key)
	if h.assistant != nil {
		h.assistant.InvalidateContext()
	}
}

func validateProject(req models.ProjectRequest) map[string]string {
	fields := make(map[string]string)
	if req.Title == "" {
		fields["title"] = "Title is required"
	}
	if req.Slug == "" {
		fields["slug"] = "Slug is required"
	}
	return fields
}
