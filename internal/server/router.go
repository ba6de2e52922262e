// Package server assembles the HTTP API.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"figureit/internal/domain/asset"
	"figureit/internal/domain/auth"
	"figureit/internal/domain/category"
	"figureit/internal/domain/session"
	"figureit/internal/middleware"
	"figureit/internal/pkg/jwt"
	"figureit/internal/pkg/logger"
	"figureit/internal/storage/local"
)

type Deps struct {
	Log         *logger.Logger
	Tokens      *jwt.Service
	Auth        *auth.Service
	Categories  *category.Service
	Assets      *asset.Service
	CORSOrigins []string
	// LocalStore is set when objects are kept on disk; its signed download
	// route is mounted under /api/v1.
	LocalStore *local.Store
}

// Models lists every table in migration order.
func Models() []interface{} {
	models := auth.Models()
	models = append(models, category.Model())
	return append(models, asset.Models()...)
}

func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.ErrorLogger(d.Log),
		middleware.RequestLogger(d.Log),
		middleware.CORS(d.CORSOrigins),
	)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")

	authHandler := auth.NewHandler(d.Auth)
	authHandler.RegisterPublicRoutes(v1)

	sessionHandler := session.NewHandler(d.Auth, d.Auth.Events(), d.Log, nil)
	sessionHandler.RegisterStreamRoute(v1.Group("", middleware.JWTAuthQuery(d.Tokens, "token")))

	protected := v1.Group("", middleware.JWTAuth(d.Tokens), session.Middleware(d.Auth))
	{
		sessionHandler.RegisterRoutes(protected)
		authHandler.RegisterProtectedRoutes(protected)
		authHandler.RegisterAdminRoutes(protected.Group("/admin", session.RequireAdmin()))
		category.NewHandler(d.Categories).RegisterRoutes(protected)
		asset.NewHandler(d.Assets).RegisterRoutes(protected)
	}

	if d.LocalStore != nil {
		local.NewHandler(d.LocalStore).RegisterRoutes(v1)
	}
	return r
}
