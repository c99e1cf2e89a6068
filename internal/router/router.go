package router

import (
	"time"

	"rostra/config"
	"rostra/internal/domain"
	"rostra/internal/handler"
	"rostra/internal/middleware"
	"rostra/internal/repository"
	"rostra/internal/service"
	"rostra/internal/ws"
	"rostra/pkg/discord"
	"rostra/pkg/roblox"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func Setup(cfg *config.Config, db *gorm.DB) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RateLimit(middleware.NewInMemoryRateLimiter(100, 60*time.Second)))

	// Repositories
	workspaceRepo := repository.NewWorkspaceRepository(db)
	userRepo := repository.NewUserRepository(db)
	templateRepo := repository.NewTemplateRepository(db)
	occurrenceRepo := repository.NewOccurrenceRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	quotaRepo := repository.NewQuotaRepository(db)

	board := ws.NewBoardHub()

	// Services
	robloxClient := roblox.NewClient(&cfg.Roblox)
	identitySvc := service.NewIdentityService(userRepo, robloxClient)
	notifier := service.NewSessionNotifier(discord.NewWebhook())
	quotaSvc := service.NewQuotaService(activityRepo, occurrenceRepo, quotaRepo)
	authSvc := service.NewAuthService(cfg, userRepo)

	// Handlers
	authHandler := handler.NewAuthHandler(authSvc)
	activityHandler := handler.NewActivityHandler(activityRepo, workspaceRepo, identitySvc)
	sessionHandler := handler.NewSessionHandler(templateRepo, occurrenceRepo, workspaceRepo, userRepo, notifier, board)
	templateHandler := handler.NewTemplateHandler(templateRepo, workspaceRepo)
	quotaHandler := handler.NewQuotaHandler(quotaRepo, workspaceRepo, userRepo, quotaSvc)

	authMw := middleware.AuthRequired(&cfg.JWT)
	adminMw := middleware.AdminRequired(workspaceRepo)
	manageSessionsMw := middleware.RequirePermission(workspaceRepo, domain.PermManageSessions)
	manageActivityMw := middleware.RequirePermission(workspaceRepo, domain.PermManageActivity)

	api := r.Group("/api/v1")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
		}

		// Game client heartbeats, authenticated by workspace key.
		api.POST("/activity", middleware.WorkspaceKey(workspaceRepo), activityHandler.Heartbeat)

		sessions := api.Group("/sessions")
		sessions.Use(authMw)
		{
			sessions.GET("/ongoing", sessionHandler.Ongoing)
			sessions.GET("/schedule", sessionHandler.Schedule)
			sessions.POST("/:templateId/claim", sessionHandler.ClaimHost)
			sessions.POST("/:templateId/unclaim", sessionHandler.UnclaimHost)
			sessions.POST("/:templateId/claimSlot", sessionHandler.ClaimSlot)
			sessions.POST("/:templateId/unclaimSlot", sessionHandler.UnclaimSlot)
			sessions.POST("/occurrences/:id/end", sessionHandler.End)
		}

		templates := api.Group("/templates")
		templates.Use(authMw)
		{
			templates.GET("", templateHandler.List)
			templates.POST("", manageSessionsMw, templateHandler.Create)
			templates.DELETE("/:id", manageSessionsMw, templateHandler.Delete)
		}

		quotas := api.Group("/quotas")
		quotas.Use(authMw)
		{
			quotas.GET("", quotaHandler.List)
			quotas.POST("", adminMw, quotaHandler.Create)
			quotas.DELETE("/:id", adminMw, quotaHandler.Delete)
			quotas.GET("/users/:userid", quotaHandler.UserProgress)
		}

		activity := api.Group("/activity")
		activity.Use(authMw)
		{
			activity.GET("/users/:userid", activityHandler.UserSummary)
			activity.POST("/reset", manageActivityMw, activityHandler.ResetTimeframe)
		}
	}

	r.GET("/ws/board", ws.UpgradeBoardWS(&cfg.JWT, board))

	return r
}
