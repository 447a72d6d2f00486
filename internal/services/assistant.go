package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"folio-backend/internal/llm"
	"folio-backend/internal/models"
	"folio-backend/internal/repository"
)

// historyWindow caps how many prior turns are replayed to the model.
// Older turns are dropped silently; the system prompt carries the
// durable context instead.
const historyWindow = 8

// contextCacheTTL bounds how stale the portfolio snapshot baked into
// the system prompt may get after an admin edit.
const contextCacheTTL = 5 * time.Minute

const turnCounterKey = "assistant:turns"

type AssistantService struct {
	provider       llm.Provider
	projectRepo    *repository.ProjectRepo
	skillRepo      *repository.SkillRepo
	experienceRepo *repository.ExperienceRepo
	redis          *redis.Client
	resumeText     string
	siteName       string

	// slots bounds concurrent model calls across all visitors.
	slots chan struct{}

	mu           sync.Mutex
	cachedPrompt string
	cachedAt     time.Time
}

func NewAssistantService(
	provider llm.Provider,
	projectRepo *repository.ProjectRepo,
	skillRepo *repository.SkillRepo,
	experienceRepo *repository.ExperienceRepo,
	redisClient *redis.Client,
	resumeText string,
	siteName string,
	maxConcurrent int,
) *AssistantService {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &AssistantService{
		provider:       provider,
		projectRepo:    projectRepo,
		skillRepo:      skillRepo,
		experienceRepo: experienceRepo,
		redis:          redisClient,
		resumeText:     resumeText,
		siteName:       siteName,
		slots:          make(chan struct{}, maxConcurrent),
	}
}

// Stream answers a visitor question, invoking onChunk for each piece of
// text as the model produces it. History beyond the window is trimmed
// before the call; trimming the oldest turns keeps the newest context.
func (s *AssistantService) Stream(ctx context.Context, req models.AssistantRequest, onChunk func(string) error) error {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return &ValidationError{Fields: map[string]string{"message": "Message is required"}}
	}
	if len(message) > 2000 {
		return &ValidationError{Fields: map[string]string{"message": "Message must be under 2000 characters"}}
	}

	if err := s.acquireSlot(ctx); err != nil {
		return err
	}
	defer s.releaseSlot()

	prompt, err := s.systemPrompt(ctx)
	if err != nil {
		return fmt.Errorf("failed to build assistant context: %w", err)
	}

	history := req.History
	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}

	if err := s.provider.Stream(ctx, prompt, history, message, onChunk); err != nil {
		return err
	}

	if err := s.redis.Incr(context.Background(), turnCounterKey).Err(); err != nil {
		log.Printf("Failed to increment assistant turn counter: %v", err)
	}
	return nil
}

// TurnCount reports how many assistant turns have completed, for the
// admin dashboard.
func (s *AssistantService) TurnCount(ctx context.Context) int64 {
	n, err := s.redis.Get(ctx, turnCounterKey).Int64()
	if err != nil {
		return 0
	}
	return n
}

func (s *AssistantService) acquireSlot(ctx context.Context) error {
	select {
	case s.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	// All slots busy: wait briefly rather than failing instantly.
	timer := time.NewTimer(2 * time.Second)
	defer timer.Stop()
	select {
	case s.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return &RateLimitError{Message: "The assistant is busy right now. Please try again in a moment."}
	}
}

func (s *AssistantService) releaseSlot() {
	<-s.slots
}

func (s *AssistantService) systemPrompt(ctx context.Context) (string, error) {
	s.mu.Lock()
	if s.cachedPrompt != "" && time.Since(s.cachedAt) < contextCacheTTL {
		prompt := s.cachedPrompt
		s.mu.Unlock()
		return prompt, nil
	}
	s.mu.Unlock()

	projects, err := s.projectRepo.List(ctx)
	if err != nil {
		return "", err
	}
	skills, err := s.skillRepo.List(ctx)
	if err != nil {
		return "", err
	}
	experiences, err := s.experienceRepo.List(ctx)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, `You are the assistant on %s, a personal portfolio site. Answer visitor questions about the site owner's work, skills, and experience using only the information below. Be concise and friendly. If a question is outside this material, say so and suggest using the contact form.

## Projects
`, s.siteName)
	for _, p := range projects {
		fmt.Fprintf(&b, "- %s: %s (tech: %s)\n", p.Title, p.Summary, strings.Join(p.TechStack, ", "))
	}

	b.WriteString("\n## Skills\n")
	for _, sk := range skills {
		fmt.Fprintf(&b, "- %s (%s)\n", sk.Name, sk.Category)
	}

	b.WriteString("\n## Experience\n")
	for _, e := range experiences {
		end := "present"
		if e.EndedAt != nil {
			end = e.EndedAt.Format("Jan 2006")
		}
		fmt.Fprintf(&b, "- %s at %s, %s to %s\n", e.Role, e.Company, e.StartedAt.Format("Jan 2006"), end)
		for _, h := range e.Highlights {
			fmt.Fprintf(&b, "  - %s\n", h)
		}
	}

	if s.resumeText != "" {
		b.WriteString("\n## Resume\n")
		b.WriteString(s.resumeText)
		b.WriteString("\n")
	}

	prompt := b.String()
	s.mu.Lock()
	s.cachedPrompt = prompt
	s.cachedAt = time.Now()
	s.mu.Unlock()
	return prompt, nil
}

// InvalidateContext drops the cached portfolio snapshot so the next
// assistant turn sees fresh content. Called by the content handlers
// after admin writes.
func (s *AssistantService) InvalidateContext() {
	s.mu.Lock()
	s.cachedPrompt = ""
	s.mu.Unlock()
}
