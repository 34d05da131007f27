package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/event-planner/internal/auth"
	"github.com/nekogravitycat/event-planner/internal/pkg/apperror"
	"github.com/nekogravitycat/event-planner/internal/pkg/request"
	"github.com/nekogravitycat/event-planner/internal/pkg/response"
	"github.com/nekogravitycat/event-planner/internal/venue"
)

type Handler struct {
	service venue.Service
}

func NewHandler(service venue.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) List(c *gin.Context) {
	venues, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, venues)
}

// ListByUser lists the venues owned by the user in the path.
func (h *Handler) ListByUser(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.Error(c, apperror.Wrap(err, http.StatusBadRequest, "invalid user id"))
		return
	}

	venues, err := h.service.ListByOwner(c.Request.Context(), uri.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, venues)
}

// Create handles multipart: a "venue" JSON part and any number of "images".
func (h *Handler) Create(c *gin.Context) {
	var body CreateVenueRequest
	images, err := request.BindMultipart(c, "venue", &body, "images")
	if err != nil {
		response.Error(c, err)
		return
	}

	v, err := h.service.Create(c.Request.Context(), auth.GetUserID(c), venue.CreateRequest{
		Name:    body.Name,
		Address: body.Address,
		Price:   body.Price,
	}, images)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, v)
}

func (h *Handler) ListServices(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.Error(c, apperror.Wrap(err, http.StatusBadRequest, "invalid venue id"))
		return
	}

	services, err := h.service.Services(c.Request.Context(), uri.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, services)
}

// AttachServices takes a bare JSON array of service ids.
func (h *Handler) AttachServices(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.Error(c, apperror.Wrap(err, http.StatusBadRequest, "invalid venue id"))
		return
	}
	var ids []int64
	if err := c.ShouldBindJSON(&ids); err != nil {
		response.Error(c, apperror.Wrap(err, http.StatusBadRequest, "body must be an array of service ids"))
		return
	}

	services, err := h.service.AttachServices(c.Request.Context(), auth.GetUserID(c), uri.ID, ids)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, services)
}

func (h *Handler) DetachService(c *gin.Context) {
	var uri request.VenueServiceRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.Error(c, apperror.Wrap(err, http.StatusBadRequest, "invalid venue or service id"))
		return
	}

	if err := h.service.DetachService(c.Request.Context(), auth.GetUserID(c), uri.ID, uri.ServiceID); err != nil {
		response.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
