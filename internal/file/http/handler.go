package http

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nekogravitycat/event-planner/internal/file"
	"github.com/nekogravitycat/event-planner/internal/pkg/response"
)

type Handler struct {
	fileService file.Service
}

func NewHandler(fileService file.Service) *Handler {
	return &Handler{
		fileService: fileService,
	}
}

// ServeImage streams an image by name; ?thumbnail=true serves its thumbnail.
func (h *Handler) ServeImage(c *gin.Context) {
	name := c.Param("name")
	thumbnail := c.Query("thumbnail") == "true"

	stream, img, err := h.fileService.Open(c.Request.Context(), name, thumbnail)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer stream.Close()

	contentType := img.ContentType
	if thumbnail {
		// Thumbnails are always JPEG
		contentType = "image/jpeg"
	}
	c.Header("Content-Type", contentType)
	c.Header("Cache-Control", "public, max-age=86400")

	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, stream); err != nil {
		zap.L().Debug("image stream interrupted", zap.String("image", name), zap.Error(err))
	}
}
