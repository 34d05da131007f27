package http

import "github.com/gin-gonic/gin"

func RegisterRoutes(r gin.IRouter, h *Handler, authMiddleware gin.HandlerFunc) {
	group := r.Group("/venues")
	group.Use(authMiddleware)
	{
		group.GET("", h.List)
		group.POST("", h.Create)
		group.GET("/user/:id", h.ListByUser)
		group.GET("/:id/services", h.ListServices)
		group.POST("/:id/services", h.AttachServices)
		group.DELETE("/:id/services/:sid", h.DetachService)
	}
}
