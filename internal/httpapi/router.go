package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/schemaforge/schemaforge/internal/config"
	"github.com/schemaforge/schemaforge/internal/rbac"
	"github.com/schemaforge/schemaforge/internal/records"
	"github.com/schemaforge/schemaforge/internal/registry"
)

// NewRouter assembles the gin engine: static auth and model administration
// routes, plus the no-route fallback that serves the dynamic model
// endpoints from the binder.
func NewRouter(conn *gorm.DB, reg *registry.Registry, store *records.Store, binder *Binder, jwtCfg config.JWTConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger())

	api := router.Group("/api")

	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK", "timestamp": time.Now().UTC().Format(time.RFC3339)})
	})

	authHandler := NewAuthHandler(conn, jwtCfg)
	mfaHandler := NewMFAHandler(conn)
	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)

		authed := authGroup.Group("", AuthMiddleware(jwtCfg.Secret))
		authed.GET("/me", authHandler.Me)
		authed.POST("/mfa/setup", mfaHandler.Setup)
		authed.POST("/mfa/enable", mfaHandler.Enable)
		authed.POST("/mfa/disable", mfaHandler.Disable)
	}

	modelHandler := NewModelHandler(reg, store)
	modelGroup := api.Group("/models", AuthMiddleware(jwtCfg.Secret))
	{
		modelGroup.GET("", modelHandler.List)
		modelGroup.GET("/:name", modelHandler.Get)

		adminOnly := modelGroup.Group("", RequireRole(rbac.RoleAdmin))
		adminOnly.POST("", modelHandler.Publish)
		adminOnly.PUT("/:name", modelHandler.Update)
		adminOnly.DELETE("/:name", modelHandler.Delete)
	}

	router.NoRoute(binder.Dispatch)

	return router
}
