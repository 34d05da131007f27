package http

import "github.com/gin-gonic/gin"

// RegisterRoutes registers the public image route.
func RegisterRoutes(r gin.IRouter, handler *Handler) {
	r.GET("/api/images/:name", handler.ServeImage)
}
