package http

import (
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/event-planner/internal/model"
	"github.com/nekogravitycat/event-planner/internal/pkg/request"
	"github.com/nekogravitycat/event-planner/internal/pkg/response"
	"github.com/nekogravitycat/event-planner/internal/provider"
)

// Handler serves one provider kind.
type Handler struct {
	service provider.Service
	kind    provider.Kind
}

func NewHandler(service provider.Service, kind provider.Kind) *Handler {
	return &Handler{service: service, kind: kind}
}

func (h *Handler) List(c *gin.Context) {
	providers, err := h.service.List(c.Request.Context(), h.kind)
	if err != nil {
		response.Error(c, err)
		return
	}

	if h.kind == provider.KindCarter {
		out := make([]model.Carter, len(providers))
		for i, p := range providers {
			out[i] = p.ToCarter()
		}
		c.JSON(http.StatusOK, out)
		return
	}
	out := make([]model.Vendor, len(providers))
	for i, p := range providers {
		out[i] = p.ToVendor()
	}
	c.JSON(http.StatusOK, out)
}

// Create handles multipart: a "vendor" or "carter" JSON part plus "images".
func (h *Handler) Create(c *gin.Context) {
	req, images, err := h.bind(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	p, err := h.service.Create(c.Request.Context(), h.kind, req, images)
	if err != nil {
		response.Error(c, err)
		return
	}

	if h.kind == provider.KindCarter {
		c.JSON(http.StatusCreated, p.ToCarter())
		return
	}
	c.JSON(http.StatusCreated, p.ToVendor())
}

func (h *Handler) bind(c *gin.Context) (provider.CreateRequest, []*multipart.FileHeader, error) {
	if h.kind == provider.KindCarter {
		var body CreateCarterRequest
		images, err := request.BindMultipart(c, "carter", &body, "images")
		return provider.CreateRequest{
			Name:        body.Name,
			Contact:     body.Contact,
			Specialties: body.Specialties,
			Description: body.Description,
			Price:       body.Price,
		}, images, err
	}

	var body CreateVendorRequest
	images, err := request.BindMultipart(c, "vendor", &body, "images")
	return provider.CreateRequest{
		Name:        body.Name,
		Contact:     body.Contact,
		Specialties: body.Specialties,
		Description: body.Description,
		Price:       body.Price,
	}, images, err
}
