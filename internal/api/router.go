package api

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sashidhar498/Custom-WhatsApp-Api/internal/ws"
	"github.com/sashidhar498/Custom-WhatsApp-Api/pkg/config"
	"github.com/sashidhar498/Custom-WhatsApp-Api/pkg/middleware"
)

// NewRouter builds the gin engine with common middleware and every route.
func NewRouter(cfg *config.Config, handlers *Handlers, hub *ws.Hub, logger *zap.Logger) *gin.Engine {
	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(logger))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	if cfg.RateLimit.Enabled {
		limiter := middleware.NewRateLimiter(cfg.RateLimit, logger)
		router.Use(limiter.Middleware())
	}

	router.GET("/health", handlers.Health)

	// Event stream stays outside auth so dashboards can subscribe with the
	// browser WebSocket API, which cannot set an Authorization header.
	router.GET("/ws/events", func(c *gin.Context) {
		hub.HandleConnection(c.Writer, c.Request)
	})

	authed := router.Group("/")
	if cfg.Auth.Enabled {
		authed.Use(middleware.AuthMiddleware(cfg.Auth, logger))
	}

	instances := authed.Group("/instance")
	{
		instances.POST("/create", handlers.CreateInstance)
		instances.GET("/:id/status", handlers.InstanceStatus)
		instances.GET("/:id/qr", handlers.InstanceQR)
		instances.DELETE("/:id", handlers.DeleteInstance)
	}
	authed.GET("/instances", handlers.ListInstances)

	authed.POST("/message/send", handlers.SendMessage)

	group := authed.Group("/group")
	{
		group.POST("/create", handlers.CreateGroup)
		group.POST("/:id/participants/add", handlers.AddParticipants)
		group.POST("/:id/participants/promote", handlers.PromoteParticipants)
		group.POST("/:id/participants/demote", handlers.DemoteParticipants)
		group.PUT("/:id/settings", handlers.UpdateGroupSettings)
		group.GET("/:id/invite-link", handlers.GetInviteLink)
		group.POST("/:id/invite-link", handlers.CreateInviteLink)
		group.DELETE("/:id/invite-link", handlers.RevokeInviteLink)
		// :id is the instance here, unlike the group routes above.
		group.GET("/:id/:groupId", handlers.GetGroup)
	}

	groups := authed.Group("/groups")
	{
		groups.GET("/:id", handlers.ListGroups)
		groups.GET("/:id/summary", handlers.ListGroupsSummary)
		groups.POST("/invite-links/batch", handlers.BatchInviteLinks)
	}

	return router
}
