package handlers

import (
	"net/http"

	"folio-backend/internal/models"
	"folio-backend/internal/repository"
	"folio-backend/internal/services"
)

type DashboardHandler struct {
	projectRepo    *repository.ProjectRepo
	skillRepo      *repository.SkillRepo
	experienceRepo *repository.ExperienceRepo
	postRepo       *repository.PostRepo
	inquiryRepo    *repository.InquiryRepo
	chatRepo       *repository.ChatRepo
	assistant      *services.AssistantService
}

func NewDashboardHandler(
	projectRepo *repository.ProjectRepo,
	skillRepo *repository.SkillRepo,
	experienceRepo *repository.ExperienceRepo,
	postRepo *repository.PostRepo,
	inquiryRepo *repository.InquiryRepo,
	chatRepo *repository.ChatRepo,
	assistant *services.AssistantService,
) *DashboardHandler {
	return &DashboardHandler{
		projectRepo:    projectRepo,
		skillRepo:      skillRepo,
		experienceRepo: experienceRepo,
		postRepo:       postRepo,
		inquiryRepo:    inquiryRepo,
		chatRepo:       chatRepo,
		assistant:      assistant,
	}
}

// Stats aggregates the counters shown on the dashboard landing page.
// Counts come straight from the repos; a failed counter falls back to
// zero rather than failing the whole response.
func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	stats := models.DashboardStats{}

	if n, err := h.projectRepo.Count(ctx); err == nil {
		stats.Projects = n
	}
	if n, err := h.skillRepo.Count(ctx); err == nil {
		stats.Skills = n
	}
	if n, err := h.experienceRepo.Count(ctx); err == nil {
		stats.Experiences = n
	}
	if n, err := h.postRepo.CountPublished(ctx); err == nil {
		stats.PublishedPosts = n
	}
	if n, err := h.inquiryRepo.CountUnread(ctx); err == nil {
		stats.UnreadInquiries = n
	}
	if n, err := h.chatRepo.CountOpenConversations(ctx); err == nil {
		stats.OpenConversations = n
	}
	stats.AssistantTurns = h.assistant.TurnCount(ctx)

	writeJSON(w, http.StatusOK, stats)
}
