// Package api exposes normalization and stored posts over HTTP.
package api

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// NewRouter wires the handler into a gin engine.
func NewRouter(h *Handler, log *logrus.Entry) *gin.Engine {
	log = log.WithField("component", "api")

	router := gin.New()
	router.Use(
		RequestIDProvider(),
		RequestLogging(log),
		PanicRecovery(log),
		CORS(),
		ErrorHandler(),
	)

	router.GET("/health", h.Health)

	v1 := router.Group("/api/v1")
	{
		v1.POST("/comments/normalize", h.NormalizeComments)
		v1.POST("/counts/parse", h.ParseCounts)
		v1.POST("/posts", h.SavePost)
		v1.GET("/posts", h.ListPosts)
		v1.GET("/posts/lookup", h.LookupPost)
		v1.POST("/scrape", h.Scrape)
	}

	return router
}
