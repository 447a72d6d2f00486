package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"folio-backend/internal/config"
	"folio-backend/internal/database"
	"folio-backend/internal/handlers"
	"folio-backend/internal/llm"
	"folio-backend/internal/middleware"
	"folio-backend/internal/repository"
	"folio-backend/internal/router"
	"folio-backend/internal/services"
	"folio-backend/internal/websocket"
	"folio-backend/internal/worker"
)

func main() {
	log.Println("🚀 Starting Folio Backend...")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	// ──── Step 2: Initialize PostgreSQL Connection Pool ────
	pool, err := database.NewPostgresPool(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("✗ PostgreSQL connection failed: %v", err)
	}
	defer pool.Close()
	log.Println("✓ PostgreSQL connected")

	// ──── Step 3: Initialize Redis Clients ────
	redisClients, err := database.NewRedisClients(cfg.RedisURL)
	if err != nil {
		log.Fatalf("✗ Redis connection failed: %v", err)
	}
	defer redisClients.Close()
	log.Println("✓ Redis connected")

	// ──── Step 4: Run Database Migrations ────
	if err := database.RunMigrations(pool, "migrations"); err != nil {
		log.Fatalf("✗ Database migration failed: %v", err)
	}
	log.Println("✓ Database migrations applied")

	// ──── Initialize Repositories ────
	userRepo := repository.NewUserRepo(pool)
	projectRepo := repository.NewProjectRepo(pool)
	skillRepo := repository.NewSkillRepo(pool)
	experienceRepo := repository.NewExperienceRepo(pool)
	postRepo := repository.NewPostRepo(pool)
	inquiryRepo := repository.NewInquiryRepo(pool)
	chatRepo := repository.NewChatRepo(pool)

	// ──── Step 5: Initialize LLM Provider ────
	provider, err := llm.New(cfg.AssistantProvider, cfg.GeminiAPIKey, cfg.OpenAIAPIKey)
	if err != nil {
		log.Fatalf("✗ LLM provider initialization failed: %v", err)
	}
	defer provider.Close()
	log.Printf("✓ Assistant provider initialized (%s)", provider.Name())

	// Resume context is optional; the assistant works from portfolio
	// tables alone when no PDF is configured.
	resumeText := ""
	if cfg.ResumePath != "" {
		resumeText, err = services.ExtractResumeText(cfg.ResumePath)
		if err != nil {
			log.Printf("⚠ Resume extraction failed, continuing without it: %v", err)
		} else {
			log.Printf("✓ Resume text extracted (%d chars)", len(resumeText))
		}
	}

	// ──── Initialize Services ────
	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret)
	emailService := services.NewEmailService(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom, cfg.FrontendURL, cfg.SiteName)
	authService := services.NewAuthService(userRepo, redisClients.Queue, jwtAuth, emailService, cfg.SiteName)
	presenceService := services.NewPresenceService(redisClients.Queue)
	chatService := services.NewChatService(chatRepo, presenceService, redisClients.PubSub)
	assistantService := services.NewAssistantService(
		provider,
		projectRepo,
		skillRepo,
		experienceRepo,
		redisClients.Queue,
		resumeText,
		cfg.SiteName,
		cfg.AssistantConcurrent,
	)

	// ──── Step 6: Start Notification Worker Pool ────
	workerPool := worker.NewPool(redisClients.Queue, emailService, inquiryRepo, cfg.AdminEmail, 2)
	workerPool.Start()
	log.Println("✓ Worker pool started (2 goroutines)")

	// ──── Step 7: Start WebSocket Hub ────
	wsHub := websocket.NewHub(redisClients.PubSub, cfg.JWTSecret)
	log.Println("✓ WebSocket hub started")

	// ──── Initialize Handlers ────
	authHandler := handlers.NewAuthHandler(authService)
	portfolioHandler := handlers.NewPortfolioHandler(projectRepo, skillRepo, experienceRepo, redisClients.Cache, assistantService)
	postHandler := handlers.NewPostHandler(postRepo)
	inquiryHandler := handlers.NewInquiryHandler(inquiryRepo, workerPool)
	chatHandler := handlers.NewChatHandler(chatService)
	assistantHandler := handlers.NewAssistantHandler(assistantService)
	dashboardHandler := handlers.NewDashboardHandler(projectRepo, skillRepo, experienceRepo, postRepo, inquiryRepo, chatRepo, assistantService)
	userHandler := handlers.NewUserHandler(userRepo, authService)

	// ──── Step 8: Start HTTP Server ────
	r := router.New(
		jwtAuth,
		authHandler,
		portfolioHandler,
		postHandler,
		inquiryHandler,
		chatHandler,
		assistantHandler,
		dashboardHandler,
		userHandler,
		wsHub,
		cfg.FrontendURL,
		cfg.AssistantRatePerMin,
	)

	server := &http.Server{
		Addr:        fmt.Sprintf(":%s", cfg.Port),
		Handler:     r,
		ReadTimeout: 15 * time.Second,
		// Assistant responses stream for up to a couple of minutes;
		// a short WriteTimeout would cut them off.
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")
		workerPool.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("✓ Folio Backend ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api/v1", cfg.Port)
	log.Printf("  WS:  ws://localhost:%s/api/v1/ws/admin", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
