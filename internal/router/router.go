package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"folio-backend/internal/handlers"
	"folio-backend/internal/middleware"
	"folio-backend/internal/websocket"
)

func New(
	jwtAuth *middleware.JWTAuth,
	authHandler *handlers.AuthHandler,
	portfolioHandler *handlers.PortfolioHandler,
	postHandler *handlers.PostHandler,
	inquiryHandler *handlers.InquiryHandler,
	chatHandler *handlers.ChatHandler,
	assistantHandler *handlers.AssistantHandler,
	dashboardHandler *handlers.DashboardHandler,
	userHandler *handlers.UserHandler,
	wsHub *websocket.Hub,
	frontendURL string,
	assistantRatePerMin int,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(frontendURL))

	// Auth rate limiter (10 req/min per IP)
	authLimiter := middleware.NewRateLimiter(10, time.Minute)

	// Assistant throttle: token bucket per IP, so a burst of quick
	// replies still goes through while sustained hammering does not.
	assistantThrottle := middleware.NewThrottle(assistantRatePerMin)

	// Contact form gets its own limiter; it is the spammiest endpoint.
	inquiryLimiter := middleware.NewRateLimiter(5, time.Minute)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {

		// ──── Auth Routes ────
		r.Route("/auth", func(r chi.Router) {
			r.Use(authLimiter.Middleware)
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/totp/verify", authHandler.VerifyTOTP)
			r.Post("/refresh", authHandler.Refresh)
			r.Get("/verify-email", authHandler.VerifyEmail)
			r.Post("/resend-verification", authHandler.ResendVerification)

			// Session management requires auth
			r.Group(func(r chi.Router) {
				r.Use(jwtAuth.Middleware)
				r.Post("/logout", authHandler.Logout)
				r.Post("/totp/setup", authHandler.SetupTOTP)
				r.Post("/totp/activate", authHandler.ActivateTOTP)
				r.Post("/totp/disable", authHandler.DisableTOTP)
			})
		})

		// ──── Public Portfolio Routes ────
		r.Get("/projects", portfolioHandler.ListProjects)
		r.Get("/projects/{slug}", portfolioHandler.GetProject)
		r.Get("/skills", portfolioHandler.ListSkills)
		r.Get("/experiences", portfolioHandler.ListExperiences)
		r.Get("/posts", postHandler.ListPosts)
		r.Get("/posts/{slug}", postHandler.GetPost)

		// ──── Contact Form ────
		r.Group(func(r chi.Router) {
			r.Use(inquiryLimiter.Middleware)
			r.Post("/inquiries", inquiryHandler.CreateInquiry)
		})

		// ──── Support Chat (visitor side) ────
		r.Route("/chat", func(r chi.Router) {
			r.Get("/messages", chatHandler.GetVisitorThread)
			r.Post("/messages", chatHandler.SendVisitorMessage)
		})

		// ──── AI Assistant ────
		r.Group(func(r chi.Router) {
			r.Use(assistantThrottle.Middleware)
			r.Post("/assistant/chat", assistantHandler.Chat)
		})

		// ──── Admin Routes ────
		r.Route("/admin", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Use(jwtAuth.AdminOnly)

			r.Get("/dashboard/stats", dashboardHandler.Stats)

			r.Post("/projects", portfolioHandler.CreateProject)
			r.Put("/projects/{id}", portfolioHandler.UpdateProject)
			r.Delete("/projects/{id}", portfolioHandler.DeleteProject)

			r.Post("/skills", portfolioHandler.CreateSkill)
			r.Put("/skills/{id}", portfolioHandler.UpdateSkill)
			r.Delete("/skills/{id}", portfolioHandler.DeleteSkill)

			r.Post("/experiences", portfolioHandler.CreateExperience)
			r.Put("/experiences/{id}", portfolioHandler.UpdateExperience)
			r.Delete("/experiences/{id}", portfolioHandler.DeleteExperience)

			// Same handlers as the public blog routes; the admin context
			// makes drafts visible.
			r.Get("/posts", postHandler.ListPosts)
			r.Get("/posts/{slug}", postHandler.GetPost)
			r.Post("/posts", postHandler.CreatePost)
			r.Put("/posts/{id}", postHandler.UpdatePost)
			r.Delete("/posts/{id}", postHandler.DeletePost)

			r.Get("/inquiries", inquiryHandler.ListInquiries)
			r.Get("/inquiries/{id}", inquiryHandler.GetInquiry)
			r.Put("/inquiries/{id}/read", inquiryHandler.MarkRead)
			r.Delete("/inquiries/{id}", inquiryHandler.DeleteInquiry)

			r.Route("/chat", func(r chi.Router) {
				r.Get("/conversations", chatHandler.ListConversations)
				r.Get("/conversations/{id}/messages", chatHandler.GetAdminThread)
				r.Post("/conversations/{id}/messages", chatHandler.SendAdminMessage)
			})
		})

		// ──── User & Settings Routes ────
		r.Route("/user", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/me", userHandler.Me)
			r.Put("/me", userHandler.UpdateProfile)
			r.Put("/password", userHandler.ChangePassword)
		})

		// ──── WebSocket (push upgrade over polling) ────
		r.Get("/ws/admin", wsHub.HandleAdmin)
		r.Get("/ws/chat", wsHub.HandleVisitor)
	})

	return r
}
