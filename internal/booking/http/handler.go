package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/event-planner/internal/auth"
	"github.com/nekogravitycat/event-planner/internal/booking"
	"github.com/nekogravitycat/event-planner/internal/pkg/apperror"
	"github.com/nekogravitycat/event-planner/internal/pkg/request"
	"github.com/nekogravitycat/event-planner/internal/pkg/response"
)

// IdempotencyHeader lets a client retry POST /bookings safely.
const IdempotencyHeader = "Idempotency-Key"

type Handler struct {
	service booking.Service
}

func NewHandler(service booking.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Create(c *gin.Context) {
	var body CreateBookingRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, apperror.Wrap(err, http.StatusBadRequest, "invalid request body"))
		return
	}

	b, err := h.service.Create(c.Request.Context(), booking.CreateRequest{
		UserID:         auth.GetUserID(c),
		VenueID:        body.VenueID,
		BookingDate:    body.BookingDate,
		VendorIDs:      body.VendorIDs,
		CarterIDs:      body.CarterIDs,
		IdempotencyKey: c.GetHeader(IdempotencyHeader),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

func (h *Handler) Cancel(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.Error(c, apperror.Wrap(err, http.StatusBadRequest, "invalid booking id"))
		return
	}

	b, err := h.service.Cancel(c.Request.Context(), auth.GetUserID(c), uri.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}
