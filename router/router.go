// api/router/router.go

package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/latticehq/lattice/api/controller"
	"github.com/latticehq/lattice/api/middleware"
)

func SetupRouter(
	controllers *controller.Controllers,
	rateLimitRequests int,
	rateLimitDuration time.Duration,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.RateLimiter(rateLimitRequests, rateLimitDuration))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Anonymous surface: optional auth so logged-in callers still resolve,
	// but nothing here requires an identity.
	public := router.Group("/")
	public.Use(middleware.Auth(false))
	controllers.Access.RegisterPublicRoutes(public)
	controllers.Auth.RegisterRoutes(public)

	api := router.Group("/api/v1")
	api.Use(middleware.Auth(true))

	controllers.Node.RegisterRoutes(api)
	controllers.Share.RegisterRoutes(api)
	controllers.Access.RegisterRoutes(api)
	controllers.Schema.RegisterRoutes(api)
	controllers.Org.RegisterRoutes(api)
	controllers.User.RegisterRoutes(api)
	controllers.Audit.RegisterRoutes(api)

	return router
}
