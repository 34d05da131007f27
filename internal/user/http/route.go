package http

import "github.com/gin-gonic/gin"

// RegisterRoutes registers account and profile routes.
func RegisterRoutes(r gin.IRouter, h *UserHandler, authMiddleware gin.HandlerFunc) {
	r.POST("/signup", h.Signup)
	r.POST("/login", h.Login)

	r.GET("/username/:token", authMiddleware, h.Username)
	r.GET("/users/name/:name", authMiddleware, h.Profile)
}
