package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Router struct {
	Engine *gin.Engine
}

func NewRouter(
	projectHandler *ProjectHandler,
	userHandler *UserHandler,
	subscriptionHandler *SubscriptionHandler,
	messageHandler *MessageHandler,
	jwtSecret string,
) *Router {
	r := gin.Default()

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Public
	r.GET("/api/projects", projectHandler.ListProjects)
	r.GET("/api/projects/:id", projectHandler.GetProject)
	r.GET("/api/projects/:id/documents", projectHandler.ListProjectDocuments)
	r.GET("/api/locations", projectHandler.ListLocations)
	r.POST("/api/users/register", userHandler.Register)
	r.POST("/api/subscriptions", subscriptionHandler.Create)
	r.DELETE("/api/subscriptions", subscriptionHandler.Delete)
	r.GET("/api/subscriptions/user/:user_id", subscriptionHandler.ListByUser)

	// Protected admin surface
	admin := r.Group("/api")
	admin.Use(AuthMiddleware(jwtSecret))
	{
		admin.POST("/messages/send-bulk", messageHandler.SendBulk)
	}

	return &Router{Engine: r}
}
