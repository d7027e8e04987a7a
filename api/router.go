// api/router.go
package api

import (
	"database/sql"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/tabula-io/tabula-backend/api/handlers"
	"github.com/tabula-io/tabula-backend/api/middleware"
	"github.com/tabula-io/tabula-backend/config"
	"github.com/tabula-io/tabula-backend/internal/authz"
	"github.com/tabula-io/tabula-backend/internal/schema"
)

// SetupRouter initializes the Gin router and sets up all routes.
func SetupRouter(db *sql.DB, cfg *config.Config, registry *schema.Registry, perms *authz.Store) *gin.Engine {
	router := gin.Default() // Includes Logger and Recovery

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization", "X-Request-Id")
	router.Use(cors.New(corsConfig))

	router.Use(middleware.RequestID())

	ratelimiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute, time.Minute)
	router.Use(middleware.RateLimitMiddleware(ratelimiter))
	router.Use(middleware.ErrorHandler())

	// Initialize Handlers
	recordHandler := handlers.NewRecordHandler(db, cfg, registry, perms)
	tableHandler := handlers.NewTableHandler(registry)
	adminHandler := handlers.NewAdminHandler(db, cfg, perms)

	// --- Public Routes ---
	router.GET("/ping", func(c *gin.Context) { c.String(200, "pong") })

	// --- Protected Routes ---
	apiRoutes := router.Group("/api/v1")
	apiRoutes.Use(middleware.AuthMiddleware(cfg))
	{
		apiRoutes.GET("/tables", tableHandler.ListTables)
		apiRoutes.GET("/tables/:table_name", tableHandler.GetTable)

		apiRoutes.GET("/tables/:table_name/records", recordHandler.ListRecords)
		apiRoutes.POST("/tables/:table_name/records", recordHandler.CreateRecord)
		apiRoutes.GET("/tables/:table_name/records/:record_id", recordHandler.GetRecord)
		apiRoutes.PUT("/tables/:table_name/records/:record_id", recordHandler.UpdateRecord)
		apiRoutes.DELETE("/tables/:table_name/records/:record_id", recordHandler.DeleteRecord)

		apiRoutes.POST("/admin/permissions/reload", adminHandler.ReloadPermissions)
	}

	return router
}
