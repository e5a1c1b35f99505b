package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	appsvc "ragstack/internal/app"
	"ragstack/internal/bootstrap"
	"ragstack/internal/model"
	"ragstack/internal/repository"
	"ragstack/internal/transport/http/handler"
	"ragstack/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.RequestLogger(app.Logger),
		middleware.Metrics(),
	)
	if app.Config.RateLimit.Enabled {
		router.Use(middleware.RateLimit(app.Config.RateLimit.RequestsPerMin, app.Config.RateLimit.Burst))
	}

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	userRepo := repository.NewUserRepository(app.MySQL)
	collectionRepo := repository.NewCollectionRepository(app.MySQL)
	documentRepo := repository.NewDocumentRepository(app.MySQL)
	chunkRepo := repository.NewChunkRepository(app.MySQL)
	chatRepo := repository.NewChatRepository(app.MySQL)
	connectorRepo := repository.NewConnectorRepository(app.MySQL)
	evaluationRepo := repository.NewEvaluationRepository(app.MySQL)
	auditRepo := repository.NewAuditRepository(app.MySQL)
	systemRepo := repository.NewSystemRepository(app.MySQL)

	authService := appsvc.NewAuthService(
		userRepo,
		app.TokenBlacklist,
		app.Config.Auth.JWTSecret,
		time.Duration(app.Config.Auth.AccessExpireMinutes)*time.Minute,
		time.Duration(app.Config.Auth.RefreshExpireDays)*24*time.Hour,
	)
	collectionService := appsvc.NewCollectionService(collectionRepo, documentRepo, chunkRepo)
	documentService := appsvc.NewDocumentService(
		documentRepo, chunkRepo, collectionRepo,
		app.Store, app.Publisher,
		app.Config.RabbitMQ.DocumentProcessingQueue,
		app.Config.RabbitMQ.EmbeddingQueue,
	)
	ragService := app.RAGService()
	chatService := appsvc.NewChatService(chatRepo, collectionService, ragService, app.HistoryCache)
	connectorService := appsvc.NewConnectorService(
		connectorRepo, collectionRepo,
		app.Publisher, app.Config.RabbitMQ.ConnectorSyncQueue,
	)
	evaluationService := appsvc.NewEvaluationService(
		evaluationRepo, collectionService,
		app.Publisher, app.Config.RabbitMQ.EvaluationQueue,
	)
	systemService := appsvc.NewSystemService(
		app.MySQL, app.Redis,
		userRepo, collectionRepo, documentRepo, auditRepo, systemRepo,
	)

	authHandler := handler.NewAuthHandler(authService)
	collectionHandler := handler.NewCollectionHandler(collectionService)
	documentHandler := handler.NewDocumentHandler(documentService)
	chatHandler := handler.NewChatHandler(chatService)
	connectorHandler := handler.NewConnectorHandler(connectorService, systemService)
	evaluationHandler := handler.NewEvaluationHandler(evaluationService)
	adminHandler := handler.NewAdminHandler(systemService)

	authRequired := middleware.AuthJWT(app.Config.Auth.JWTSecret, app.TokenBlacklist)

	v1 := router.Group("/api/v1")

	authGroup := v1.Group("/auth")
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)
	authGroup.POST("/refresh", authHandler.Refresh)
	authGroup.POST("/logout", authRequired, authHandler.Logout)
	authGroup.GET("/me", authRequired, authHandler.Me)
	authGroup.PUT("/me", authRequired, authHandler.UpdateProfile)
	authGroup.GET("/preferences", authRequired, authHandler.GetPreferences)
	authGroup.PUT("/preferences", authRequired, authHandler.UpdatePreferences)

	protected := v1.Group("")
	protected.Use(authRequired)
	if app.Config.Auth.AuditEnabled {
		protected.Use(middleware.Audit(auditRepo, app.Logger))
	}

	collections := protected.Group("/collections")
	collections.POST("", collectionHandler.Create)
	collections.GET("", collectionHandler.List)
	collections.GET("/:id", collectionHandler.Get)
	collections.PUT("/:id", collectionHandler.Update)
	collections.DELETE("/:id", collectionHandler.Delete)
	collections.GET("/:id/stats", collectionHandler.Stats)
	collections.GET("/:id/settings", collectionHandler.GetSettings)
	collections.PUT("/:id/settings", collectionHandler.UpdateSettings)
	collections.POST("/:id/documents", documentHandler.Upload)
	collections.GET("/:id/documents", documentHandler.List)

	documents := protected.Group("/documents")
	documents.GET("/:id", documentHandler.Get)
	documents.DELETE("/:id", documentHandler.Delete)
	documents.POST("/:id/reprocess", documentHandler.Reprocess)
	documents.GET("/:id/download", documentHandler.Download)
	documents.GET("/:id/chunks", documentHandler.ListChunks)

	chat := protected.Group("/chat")
	chat.POST("/query", chatHandler.Query)
	chat.POST("/sessions", chatHandler.CreateSession)
	chat.GET("/sessions", chatHandler.ListSessions)
	chat.GET("/sessions/:id", chatHandler.GetSession)
	chat.PUT("/sessions/:id", chatHandler.RenameSession)
	chat.PUT("/sessions/:id/archive", chatHandler.ArchiveSession)
	chat.DELETE("/sessions/:id", chatHandler.DeleteSession)
	chat.GET("/sessions/:id/messages", chatHandler.History)
	chat.POST("/sessions/:id/messages", chatHandler.SendMessage)
	chat.GET("/sessions/:id/messages/:messageID/citations", chatHandler.Citations)

	connectors := protected.Group("/connectors")
	connectors.GET("/types", connectorHandler.Types)
	connectors.POST("", connectorHandler.Create)
	connectors.GET("", connectorHandler.List)
	connectors.GET("/:id", connectorHandler.Get)
	connectors.PUT("/:id", connectorHandler.Update)
	connectors.DELETE("/:id", connectorHandler.Delete)
	connectors.POST("/:id/sync", connectorHandler.Sync)
	connectors.GET("/:id/logs", connectorHandler.Logs)

	evaluations := protected.Group("/evaluations")
	evaluations.POST("", evaluationHandler.Create)
	evaluations.GET("", evaluationHandler.List)
	evaluations.GET("/:id", evaluationHandler.Get)
	evaluations.POST("/:id/run", evaluationHandler.Run)
	evaluations.DELETE("/:id", evaluationHandler.Delete)

	admin := protected.Group("/admin")
	admin.Use(middleware.RequireRole(model.RoleAdmin))
	admin.GET("/stats", adminHandler.Stats)
	admin.GET("/audit", adminHandler.AuditLogs)
	admin.GET("/services", adminHandler.Services)
	admin.GET("/users", adminHandler.ListUsers)
	admin.PUT("/users/:id/active", adminHandler.SetUserActive)
	admin.PUT("/users/:id/role", adminHandler.SetUserRole)

	return router
}
