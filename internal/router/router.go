package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/onegreenvn/campaign-builder-backend/internal/handlers"
	"github.com/onegreenvn/campaign-builder-backend/internal/metrics"
	"github.com/onegreenvn/campaign-builder-backend/internal/middleware"
	"github.com/onegreenvn/campaign-builder-backend/internal/services"
	"github.com/onegreenvn/campaign-builder-backend/internal/services/excel"
)

// Dependencies are the services the HTTP layer is built from
type Dependencies struct {
	Editor      *services.EditorService
	Catalog     handlers.CatalogProvider
	Campaigns   handlers.CampaignLister
	Generations handlers.GenerationLogReader
	SSEHub      *services.SSEHub
	Exporter    *excel.BriefExporter
	Metrics     *metrics.Metrics
	RateLimiter *middleware.RateLimiter
	JWTSecret   string
}

// SetupRouter configures the Gin router of the campaign builder API
func SetupRouter(deps Dependencies) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middleware.Logger())

	// Configure CORS
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", "X-Dropped-Items", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	bearerTokenMiddleware := middleware.NewBearerTokenMiddleware(deps.JWTSecret)

	editorHandler := handlers.NewEditorHandler(deps.Editor, deps.Exporter, deps.SSEHub)
	catalogHandler := handlers.NewCatalogHandler(deps.Catalog)
	campaignHandler := handlers.NewCampaignHandler(deps.Campaigns)
	generationHandler := handlers.NewGenerationHandler(deps.Generations)

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	logrus.Info("Swagger UI endpoint registered at /swagger/index.html")

	if deps.Metrics != nil {
		r.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	// API v1 routes
	api := r.Group("/api/v1")
	{
		// Health check
		api.GET("/health", func(c *gin.Context) {
			c.JSON(200, gin.H{
				"status": "ok",
				"time":   time.Now().Format(time.RFC3339),
			})
		})

		protected := api.Group("")
		protected.Use(bearerTokenMiddleware.BearerTokenAuthMiddleware())
		if deps.RateLimiter != nil {
			protected.Use(deps.RateLimiter.Middleware())
		}
		{
			protected.GET("/organizations", catalogHandler.ListOrganizations)
			protected.GET("/catalog", catalogHandler.GetCatalog)
			protected.GET("/media/channels", catalogHandler.ListMediaChannels)

			sessions := protected.Group("/sessions")
			{
				sessions.POST("", editorHandler.OpenSession)
				sessions.GET("/:id", editorHandler.GetSession)
				sessions.DELETE("/:id", editorHandler.CloseSession)
				sessions.PUT("/:id/organization", editorHandler.SetOrganization)
				sessions.GET("/:id/catalog", editorHandler.SessionCatalog)
				sessions.GET("/:id/events", editorHandler.StreamEvents)
				sessions.GET("/:id/export", editorHandler.ExportBrief)

				// Canvas
				sessions.POST("/:id/drag/catalog", editorHandler.BeginCatalogDrag)
				sessions.POST("/:id/drag/node", editorHandler.BeginNodeDrag)
				sessions.POST("/:id/drop", editorHandler.Drop)
				sessions.POST("/:id/connections", editorHandler.Connect)
				sessions.DELETE("/:id/connections/:edge_id", editorHandler.Disconnect)
				sessions.DELETE("/:id/nodes/:node_id", editorHandler.RemoveNode)
				sessions.POST("/:id/reset", editorHandler.Reset)
				sessions.POST("/:id/save", editorHandler.SaveCampaign)
				sessions.POST("/:id/load", editorHandler.LoadCampaign)

				// Wizard
				sessions.POST("/:id/wizard/next", editorHandler.Next)
				sessions.POST("/:id/wizard/media", editorHandler.SelectMedia)
				sessions.POST("/:id/wizard/generate", editorHandler.Generate)
				sessions.POST("/:id/wizard/back", editorHandler.Back)
				sessions.GET("/:id/wizard/handoff", editorHandler.Handoff)
				sessions.POST("/:id/wizard/resume", editorHandler.Resume)
			}

			campaigns := protected.Group("/campaigns")
			{
				campaigns.GET("", campaignHandler.ListCampaigns)
				campaigns.GET("/:id", campaignHandler.GetCampaign)
				campaigns.DELETE("/:id", campaignHandler.DeleteCampaign)
			}

			generations := protected.Group("/generations")
			{
				generations.GET("", generationHandler.ListGenerations)
				generations.GET("/:correlation_id", generationHandler.GetGeneration)
			}
		}
	}

	return r
}
