// Package api wires the HTTP surface: middleware chain, route groups, and the
// background services that must be stopped on shutdown.
//
// Route grouping philosophy:
//   - /api/v1/auth/ is public but sits behind the stricter auth rate limiter.
//   - Everything else under /api/v1/ requires a bearer token; per-workspace and
//     per-room checks happen inside the handlers via authz.Resolver.
//   - /api/v1/admin/ additionally requires the admin application role.
package api

import (
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/taskflow/taskflow/internal/activity"
	"github.com/taskflow/taskflow/internal/api/accounts"
	"github.com/taskflow/taskflow/internal/api/admin"
	"github.com/taskflow/taskflow/internal/api/chat"
	"github.com/taskflow/taskflow/internal/api/milestones"
	"github.com/taskflow/taskflow/internal/api/projects"
	"github.com/taskflow/taskflow/internal/api/workspaces"
	"github.com/taskflow/taskflow/internal/authz"
	"github.com/taskflow/taskflow/internal/config"
	"github.com/taskflow/taskflow/internal/db/repositories"
	"github.com/taskflow/taskflow/internal/middleware"
)

// BackgroundServices holds references to background resources that must be
// stopped during graceful shutdown. The caller (cmd/server) is responsible for
// calling Shutdown() when the process receives a termination signal.
type BackgroundServices struct {
	notifier     *activity.Notifier
	rateLimiters []*middleware.RateLimiter
}

// Shutdown stops all background goroutines. It should be called after the HTTP
// server has been shut down so that in-flight requests are drained first.
func (bg *BackgroundServices) Shutdown() {
	slog.Info("stopping background services")
	if bg.notifier != nil {
		if err := bg.notifier.Close(); err != nil {
			slog.Warn("failed to close activity notifier", "error", err)
		}
	}
	for _, rl := range bg.rateLimiters {
		rl.Stop()
	}
	slog.Info("all background services stopped")
}

// NewRouter creates and configures the Gin router
func NewRouter(cfg *config.Config, db *sql.DB) (*gin.Engine, *BackgroundServices) {
	router := gin.New()

	// Repositories shared across handlers
	userRepo := repositories.NewUserRepository(db)
	wsRepo := repositories.NewWorkspaceRepository(db)
	chatRepo := repositories.NewChatRepository(db)

	// Wrap *sql.DB with sqlx for the message and dashboard repositories
	sqlxDB := sqlx.NewDb(db, "postgres")

	resolver := authz.NewResolver(wsRepo, chatRepo)

	// Activity shipping is optional; in-database recording happens inside the
	// repository transactions regardless
	shipper, err := activity.NewShipper(&cfg.Activity)
	if err != nil {
		log.Fatalf("Failed to initialize activity shipper: %v", err)
	}
	notifier := activity.NewNotifier(shipper)

	// Add middleware
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.MetricsMiddleware())
	router.Use(LoggerMiddleware(cfg))
	router.Use(CORSMiddleware(cfg))
	router.Use(middleware.SecurityHeadersMiddleware(middleware.APISecurityHeadersConfig()))

	// Health check endpoint
	router.GET("/health", healthCheckHandler(db))

	// API version
	router.GET("/version", versionHandler())

	// Initialize handlers
	authHandlers := accounts.NewAuthHandlers(cfg, db)
	userHandlers := accounts.NewUserHandlers(cfg, db, resolver, notifier)
	workspaceHandlers := workspaces.NewWorkspaceHandlers(cfg, db, resolver)
	dashboardHandlers := workspaces.NewDashboardHandlers(cfg, sqlxDB, wsRepo, resolver)
	projectHandlers := projects.NewProjectHandlers(cfg, db, resolver, notifier)
	milestoneHandlers := milestones.NewMilestoneHandlers(cfg, db, resolver, notifier)
	roomHandlers := chat.NewRoomHandlers(cfg, db, resolver)
	messageHandlers := chat.NewMessageHandlers(cfg, sqlxDB, resolver)
	employeeHandlers := admin.NewEmployeeHandlers(cfg, db, notifier)

	// Initialize rate limiters
	authRateLimiter := middleware.NewRateLimiter(middleware.AuthRateLimitConfig())
	generalRateLimiter := middleware.NewRateLimiter(middleware.DefaultRateLimitConfig())

	apiV1 := router.Group("/api/v1")
	{
		// Public authentication endpoints (no auth required, but rate limited)
		authGroup := apiV1.Group("/auth")
		authGroup.Use(middleware.RateLimitMiddleware(authRateLimiter))
		{
			authGroup.POST("/register", authHandlers.RegisterHandler())
			authGroup.POST("/login", authHandlers.LoginHandler())
		}

		// Authenticated endpoints
		authenticatedGroup := apiV1.Group("")
		authenticatedGroup.Use(middleware.RateLimitMiddleware(generalRateLimiter))
		authenticatedGroup.Use(middleware.AuthMiddleware(userRepo))
		{
			authenticatedGroup.GET("/workspaces", workspaceHandlers.ListWorkspacesHandler())
			authenticatedGroup.POST("/workspaces", workspaceHandlers.CreateWorkspaceHandler())

			authenticatedGroup.GET("/workspace-members", workspaceHandlers.ListMembersHandler())
			authenticatedGroup.POST("/workspace-members", workspaceHandlers.AddMemberHandler())

			authenticatedGroup.GET("/projects", projectHandlers.ListProjectsHandler())
			authenticatedGroup.POST("/projects", projectHandlers.CreateProjectHandler())

			authenticatedGroup.GET("/milestones", milestoneHandlers.ListMilestonesHandler())
			authenticatedGroup.POST("/milestones", milestoneHandlers.CreateMilestoneHandler())
			authenticatedGroup.PATCH("/milestones", milestoneHandlers.UpdateMilestoneHandler())
			authenticatedGroup.DELETE("/milestones", milestoneHandlers.DeleteMilestoneHandler())

			authenticatedGroup.GET("/chat-rooms", roomHandlers.ListRoomsHandler())
			authenticatedGroup.POST("/chat-rooms", roomHandlers.CreateRoomHandler())

			authenticatedGroup.GET("/chat-room-members", roomHandlers.ListRoomMembersHandler())
			authenticatedGroup.POST("/chat-room-members", roomHandlers.AddRoomMemberHandler())
			authenticatedGroup.DELETE("/chat-room-members", roomHandlers.RemoveRoomMemberHandler())

			authenticatedGroup.GET("/messages", messageHandlers.ListMessagesHandler())
			authenticatedGroup.POST("/messages", messageHandlers.SendMessageHandler())

			authenticatedGroup.GET("/users/search", userHandlers.SearchUsersHandler())
			authenticatedGroup.GET("/users/profile", userHandlers.GetProfileHandler())
			authenticatedGroup.PATCH("/users/profile", userHandlers.UpdateProfileHandler())

			authenticatedGroup.GET("/dashboard/stats", dashboardHandlers.StatsHandler())

			// Admin endpoints
			adminGroup := authenticatedGroup.Group("/admin")
			adminGroup.Use(middleware.RequireAppAdmin())
			{
				adminGroup.GET("/employees", employeeHandlers.ListEmployeesHandler())
				adminGroup.POST("/employees", employeeHandlers.CreateEmployeeHandler())
			}
		}
	}

	bg := &BackgroundServices{
		notifier:     notifier,
		rateLimiters: []*middleware.RateLimiter{authRateLimiter, generalRateLimiter},
	}

	return router, bg
}

// healthCheckHandler reports liveness including a database ping
func healthCheckHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Check database connection
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"error":  "database connection failed",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	}
}

func versionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":     "0.1.0",
			"api_version": "v1",
		})
	}
}

// LoggerMiddleware provides structured logging
func LoggerMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)

		// Log the request
		if cfg.Logging.Format == "json" {
			logJSON(c, latency, path, query)
		} else {
			logText(c, latency, path, query)
		}
	}
}

// logJSON logs a request as a JSON-structured slog record.
func logJSON(c *gin.Context, latency time.Duration, path, query string) {
	requestID, _ := c.Get(middleware.RequestIDKey)
	slog.LogAttrs(
		c.Request.Context(),
		slog.LevelInfo,
		"http request",
		slog.String("method", c.Request.Method),
		slog.String("path", path),
		slog.String("query", query),
		slog.Int("status", c.Writer.Status()),
		slog.Int("size", c.Writer.Size()),
		slog.Duration("latency", latency),
		slog.String("ip", c.ClientIP()),
		slog.String("request_id", fmt.Sprintf("%v", requestID)),
		slog.String("user_agent", c.Request.UserAgent()),
	)
}

// logText logs a request as a human-readable slog text record.
func logText(c *gin.Context, latency time.Duration, path, query string) {
	// reuse the same structured output; slog will emit text format when the global
	// handler is a TextHandler (configured in telemetry.SetupLogger).
	logJSON(c, latency, path, query)
}

// CORSMiddleware handles CORS
func CORSMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		// Check if origin is allowed
		allowed := false
		for _, allowedOrigin := range cfg.Security.CORS.AllowedOrigins {
			if allowedOrigin == "*" || allowedOrigin == origin {
				allowed = true
				break
			}
		}

		if allowed {
			if origin == "" {
				c.Header("Access-Control-Allow-Origin", "*")
			} else {
				c.Header("Access-Control-Allow-Origin", origin)
			}
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Allow-Methods", "GET, POST, PATCH, PUT, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-Requested-With")
			c.Header("Access-Control-Max-Age", "3600")
		}

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
