package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/timmy/drawmatch/internal/api/handler"
	"github.com/timmy/drawmatch/internal/api/middleware"
	"github.com/timmy/drawmatch/internal/logger"
	"github.com/timmy/drawmatch/internal/metrics"
	"github.com/timmy/drawmatch/internal/presence"
)

// Services are the collaborators behind the HTTP surface.
type Services struct {
	Prompts     handler.PromptProvider
	Evaluator   handler.DrawingEvaluator
	Leaderboard handler.Leaderboard
	Presence    *presence.Tracker
	Database    handler.Pinger // optional, used by /health
}

// RouterConfig holds transport settings.
type RouterConfig struct {
	Mode           string
	CORS           middleware.CORSConfig
	BodyLimitBytes int64
	Logger         *logger.Logger
	Metrics        *metrics.Manager
	Registry       *prometheus.Registry
}

// SetupRouter configures the Gin router with all routes
func SetupRouter(svc *Services, cfg *RouterConfig) *gin.Engine {
	// Set Gin mode
	switch cfg.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	log := cfg.Logger
	if log == nil {
		log = logger.GetDefault()
	}
	m := cfg.Metrics
	if m == nil {
		m = metrics.Default()
	}
	registry := cfg.Registry
	if registry == nil {
		registry = metrics.GetRegistry()
	}

	r := gin.New()

	// Add middleware
	r.Use(gin.Recovery())
	r.Use(middleware.LoggerMiddleware(log))
	r.Use(middleware.Metrics(m))
	r.Use(middleware.Presence(svc.Presence))
	r.Use(middleware.CORS(cfg.CORS))

	// Create handlers
	healthHandler := handler.NewHealthHandler(svc.Database)
	promptHandler := handler.NewPromptHandler(svc.Prompts)
	drawingHandler := handler.NewDrawingHandler(svc.Evaluator)
	leaderboardHandler := handler.NewLeaderboardHandler(svc.Leaderboard)
	presenceHandler := handler.NewPresenceHandler(svc.Presence)

	// Operational endpoints
	r.GET("/health", healthHandler.Health)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	apiGroup := r.Group("/api")
	apiGroup.Use(middleware.BodyLimit(cfg.BodyLimitBytes))
	{
		// Prompts and drawings
		apiGroup.GET("/getRandomPrompt", promptHandler.GetRandomPrompt)
		apiGroup.POST("/checkDrawing", drawingHandler.CheckDrawing)

		// Leaderboard
		apiGroup.POST("/saveScore", leaderboardHandler.SaveScore)
		apiGroup.POST("/saveGameResult", leaderboardHandler.SaveGameResult)
		apiGroup.GET("/leaderboard", leaderboardHandler.GetLeaderboard)
		apiGroup.GET("/leaderboard/:gameId", leaderboardHandler.GetLeaderboard)
		apiGroup.DELETE("/leaderboard/:gameId/:playerId", leaderboardHandler.DeleteEntry)
		apiGroup.GET("/userStats/:playerName", leaderboardHandler.GetUserStats)

		// Presence
		apiGroup.GET("/activeUsers", presenceHandler.ActiveUsers)
	}

	return r
}
