package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"knowledge-base/middleware"
	"knowledge-base/services"
)

type RouterDeps struct {
	Identity services.IdentityService
	Auth     *AuthHandler
	GraphQL  *GraphQLHandler
	Logger   *slog.Logger

	// AuthLimiter throttles register and login; nil disables it.
	AuthLimiter *middleware.RateLimiter
}

func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery(), middleware.CORS(), middleware.Metrics())

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authenticate := middleware.Authenticate(deps.Identity, deps.Logger)
	throttle := func(c *gin.Context) { c.Next() }
	if deps.AuthLimiter != nil {
		throttle = deps.AuthLimiter.Middleware()
	}

	api := router.Group("/api")
	{
		// Identity provider (public)
		auth := api.Group("/v1/auth")
		{
			auth.POST("/register", throttle, deps.Auth.Register)
			auth.POST("/login", throttle, deps.Auth.Login)
			auth.GET("/profile", authenticate, deps.Auth.Profile)
		}

		gql := api.Group("/graphql", authenticate)
		{
			gql.POST("", deps.GraphQL.Serve)
			gql.GET("", deps.GraphQL.Serve)
		}
	}

	return router
}
