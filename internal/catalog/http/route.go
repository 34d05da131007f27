package http

import "github.com/gin-gonic/gin"

func RegisterRoutes(r gin.IRouter, h *Handler, authMiddleware gin.HandlerFunc) {
	group := r.Group("/services")
	group.Use(authMiddleware)
	{
		group.GET("", h.List)
		group.POST("", h.Create)
	}
}
