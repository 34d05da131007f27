package http

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts /vendors and /carters.
func RegisterRoutes(r gin.IRouter, vendors, carters *Handler, authMiddleware gin.HandlerFunc) {
	v := r.Group("/vendors")
	v.Use(authMiddleware)
	{
		v.GET("", vendors.List)
		v.POST("", vendors.Create)
	}

	c := r.Group("/carters")
	c.Use(authMiddleware)
	{
		c.GET("", carters.List)
		c.POST("", carters.Create)
	}
}
