package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/event-planner/internal/auth"
	"github.com/nekogravitycat/event-planner/internal/booking"
	"github.com/nekogravitycat/event-planner/internal/model"
	"github.com/nekogravitycat/event-planner/internal/pkg/apperror"
	"github.com/nekogravitycat/event-planner/internal/pkg/request"
	"github.com/nekogravitycat/event-planner/internal/pkg/response"
	"github.com/nekogravitycat/event-planner/internal/user"
	"github.com/nekogravitycat/event-planner/internal/venue"
)

type UserHandler struct {
	userService    user.Service
	venueService   venue.Service
	bookingService booking.Service
	jwtManager     *auth.JWTManager
}

func NewHandler(
	userService user.Service,
	venueService venue.Service,
	bookingService booking.Service,
	jwtManager *auth.JWTManager,
) *UserHandler {
	return &UserHandler{
		userService:    userService,
		venueService:   venueService,
		bookingService: bookingService,
		jwtManager:     jwtManager,
	}
}

// Signup handles multipart: a "user" JSON part and an optional "image".
func (h *UserHandler) Signup(c *gin.Context) {
	var req SignupRequest
	files, err := request.BindMultipart(c, "user", &req, "image")
	if err != nil {
		response.Error(c, err)
		return
	}

	u, err := h.userService.Signup(c.Request.Context(), req.Name, req.Email, req.Password, first(files))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, SignupResponse{
		Message: "User created successfully",
		UserID:  u.ID,
	})
}

func (h *UserHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Wrap(err, http.StatusBadRequest, "invalid request body"))
		return
	}

	u, err := h.userService.Login(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		response.Error(c, err)
		return
	}

	token, err := h.jwtManager.GenerateAccessToken(u.ID, u.Name)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, model.LoginResponse{
		Token:   token,
		Name:    u.Name,
		Message: "Login successful",
	})
}

// Username resolves the name carried by the token in the path, as plain text.
func (h *UserHandler) Username(c *gin.Context) {
	claims, err := h.jwtManager.ParseAndValidate(c.Param("token"))
	if err != nil {
		response.Error(c, auth.ErrInvalidToken)
		return
	}
	c.String(http.StatusOK, claims.Name)
}

// Profile returns the user with images, owned venues and bookings. Users
// can only read their own profile.
func (h *UserHandler) Profile(c *gin.Context) {
	name := c.Param("name")
	if name != auth.GetUserName(c) {
		response.Error(c, user.ErrForbidden)
		return
	}

	ctx := c.Request.Context()
	u, err := h.userService.GetByName(ctx, name)
	if err != nil {
		response.Error(c, err)
		return
	}

	images, err := h.userService.Images(ctx, u.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	venues, err := h.venueService.ListByOwner(ctx, u.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	bookings, err := h.bookingService.ListByUser(ctx, u.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, model.UserProfile{
		ID:       u.ID,
		Name:     u.Name,
		Email:    u.Email,
		Images:   images,
		Venues:   venues,
		Bookings: bookings,
	})
}

func first[T any](items []T) T {
	var zero T
	if len(items) == 0 {
		return zero
	}
	return items[0]
}
