package http

import "github.com/gin-gonic/gin"

func RegisterRoutes(r gin.IRouter, h *Handler, authMiddleware gin.HandlerFunc) {
	group := r.Group("/bookings")
	group.Use(authMiddleware)
	{
		group.POST("", h.Create)
		group.PUT("/cancel/:id", h.Cancel)
	}
}
