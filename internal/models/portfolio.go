package models

import (
	"time"

	"github.com/google/uuid"
)

type Project struct {
	ID           uuid.UUID `json:"id"`
	Title        string    `json:"title"`
	Slug         string    `json:"slug"`
	Summary      string    `json:"summary"`
	Description  string    `json:"description"`
	TechStack    []string  `json:"tech_stack"`
	RepoURL      *string   `json:"repo_url"`
	LiveURL      *string   `json:"live_url"`
	ImageURL     *string   `json:"image_url"`
	Featured     bool      `json:"featured"`
	DisplayOrder int       `json:"display_order"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type ProjectRequest struct {
	Title        string   `json:"title"`
	Slug         string   `json:"slug"`
	Summary      string   `json:"summary"`
	Description  string   `json:"description"`
	TechStack    []string `json:"tech_stack"`
	RepoURL      *string  `json:"repo_url"`
	LiveURL      *string  `json:"live_url"`
	ImageURL     *string  `json:"image_url"`
	Featured     bool     `json:"featured"`
	DisplayOrder int      `json:"display_order"`
}

type Skill struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Category     string    `json:"category"`
	Level        int       `json:"level"`
	DisplayOrder int       `json:"display_order"`
}

type SkillRequest struct {
	Name         string `json:"name"`
	Category     string `json:"category"`
	Level        int    `json:"level"`
	DisplayOrder int    `json:"display_order"`
}

type Experience struct {
	ID           uuid.UUID  `json:"id"`
	Role         string     `json:"role"`
	Company      string     `json:"company"`
	Location     *string    `json:"location"`
	StartedAt    time.Time  `json:"started_at"`
	EndedAt      *time.Time `json:"ended_at"`
	Highlights   []string   `json:"highlights"`
	DisplayOrder int        `json:"display_order"`
}

type ExperienceRequest struct {
	Role         string     `json:"role"`
	Company      string     `json:"company"`
	Location     *string    `json:"location"`
	StartedAt    time.Time  `json:"started_at"`
	EndedAt      *time.Time `json:"ended_at"`
	Highlights   []string   `json:"highlights"`
	DisplayOrder int        `json:"display_order"`
}

type Post struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	Excerpt     string     `json:"excerpt"`
	Body        string     `json:"body"`
	Tags        []string   `json:"tags"`
	Published   bool       `json:"published"`
	PublishedAt *time.Time `json:"published_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type PostRequest struct {
	Title     string   `json:"title"`
	Slug      string   `json:"slug"`
	Excerpt   string   `json:"excerpt"`
	Body      string   `json:"body"`
	Tags      []string `json:"tags"`
	Published bool     `json:"published"`
}

type Inquiry struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

type InquiryRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

type DashboardStats struct {
	Projects          int   `json:"projects"`
	Skills            int   `json:"skills"`
	Experiences       int   `json:"experiences"`
	PublishedPosts    int   `json:"published_posts"`
	UnreadInquiries   int   `json:"unread_inquiries"`
	OpenConversations int   `json:"open_conversations"`
	AssistantTurns    int64 `json:"assistant_turns"`
}
