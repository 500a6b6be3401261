package main

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/slated-app/slated/internal/config"
	"github.com/slated-app/slated/internal/handlers"
	"github.com/slated-app/slated/internal/logger"
	"github.com/slated-app/slated/internal/middleware"
	"github.com/slated-app/slated/internal/repository"
	"github.com/slated-app/slated/internal/service"
	"github.com/slated-app/slated/pkg/genai"
	"github.com/slated-app/slated/pkg/supabase"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	Long:  `Start the HTTP API server and listen for requests.`,
	RunE:  runServe,
}

var (
	port           string
	allowedOrigins string
)

func init() {
	serveCmd.Flags().StringVarP(&port, "port", "p", "", "Port to listen on (overrides config)")
	serveCmd.Flags().StringVar(&allowedOrigins, "allowed-origins", "", "Comma-separated CORS origins (empty allows all)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if port != "" {
		cfg.Server.Port = port
	}

	log := logger.NewSlogLogger(logger.Config{
		Level:  logger.ParseLevel(cfg.Log.Level),
		Format: cfg.Log.Format,
	})
	logger.SetDefault(log)

	log.Info("starting slated API server",
		logger.String("env", cfg.Server.Env),
		logger.String("port", cfg.Server.Port),
	)
	if cfg.Gemini.APIKey == "" {
		log.Warn("no Gemini API key configured; AI insights will serve deterministic fallbacks only")
	}

	supabaseClient := supabase.NewClient(cfg.Supabase.URL, cfg.Supabase.ServiceKey)

	generator := genai.NewClient(genai.Config{
		APIKey:  cfg.Gemini.APIKey,
		Model:   cfg.Gemini.Model,
		Timeout: time.Duration(cfg.Gemini.TimeoutSeconds) * time.Second,
	})

	// Repositories
	eventRepo := repository.NewEventRepository(supabaseClient)
	invitationRepo := repository.NewInvitationRepository(supabaseClient)
	activityRepo := repository.NewActivityRepository(supabaseClient)

	// Services
	eventService := service.NewEventService(eventRepo, invitationRepo, activityRepo, log)
	invitationService := service.NewInvitationService(eventRepo, invitationRepo, activityRepo,
		&supabaseAccountResolver{client: supabaseClient}, log)
	analyticsService := service.NewAnalyticsService(eventService, invitationService, activityRepo)
	insightService := service.NewInsightService(eventService, analyticsService, generator, log)

	// Handlers
	eventHandler := handlers.NewEventHandler(eventService)
	invitationHandler := handlers.NewInvitationHandler(invitationService)
	analyticsHandler := handlers.NewAnalyticsHandler(analyticsService)
	insightHandler := handlers.NewInsightHandler(insightService)

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(middleware.CORS(allowedOrigins))
	router.Use(middleware.RateLimit())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
			"env":    cfg.Server.Env,
		})
	})

	v1 := router.Group("/api/v1")
	protected := v1.Group("")
	protected.Use(middleware.Auth(supabaseClient))
	{
		protected.GET("/events", eventHandler.List)
		protected.POST("/events", eventHandler.Create)
		protected.GET("/events/:id", eventHandler.Get)
		protected.PUT("/events/:id", eventHandler.Update)
		protected.DELETE("/events/:id", eventHandler.Delete)

		protected.GET("/events/:id/invitations", invitationHandler.ListForEvent)
		protected.POST("/events/:id/invitations", invitationHandler.Create)
		protected.GET("/invitations", invitationHandler.ListMine)
		protected.POST("/invitations/:id/rsvp", invitationHandler.Rsvp)

		protected.GET("/analytics/overview", analyticsHandler.Overview)

		// Generation-backed endpoints carry their own stricter limiter.
		ai := protected.Group("/ai")
		ai.Use(middleware.RateLimitAI())
		{
			ai.POST("/scheduling-assistant", insightHandler.SchedulingAssistant)
			ai.GET("/dashboard-insight", insightHandler.Dashboard)
			ai.GET("/event-recommendation", insightHandler.Recommendation)
		}
	}

	log.Info("server listening", logger.String("port", cfg.Server.Port))
	if err := router.Run(":" + cfg.Server.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// supabaseAccountResolver adapts the GoTrue admin lookup to the service
// layer's account resolver contract.
type supabaseAccountResolver struct {
	client *supabase.Client
}

func (r *supabaseAccountResolver) ResolveEmail(ctx context.Context, email string) (*service.LinkedAccount, error) {
	user, err := r.client.LookupUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, nil
	}
	return &service.LinkedAccount{UID: user.ID, Name: user.DisplayName()}, nil
}
