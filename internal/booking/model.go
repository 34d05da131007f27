package booking

import (
	"net/http"
	"time"

	"github.com/nekogravitycat/event-planner/internal/model"
	"github.com/nekogravitycat/event-planner/internal/pkg/apperror"
)

var (
	ErrNotFound         = apperror.New(http.StatusNotFound, "booking not found")
	ErrVenueRequired    = apperror.New(http.StatusBadRequest, "venueId is required")
	ErrInvalidDate      = apperror.New(http.StatusBadRequest, "bookingDate must be a date in YYYY-MM-DD format")
	ErrPermissionDenied = apperror.New(http.StatusForbidden, "only the booking owner can cancel it")
	// errDuplicateKey is returned by the repository when an idempotency key was reused.
	errDuplicateKey = apperror.New(http.StatusConflict, "duplicate idempotency key")
)

// Booking is one reservation of a venue, with vendors and carters in the
// order they were requested.
type Booking struct {
	ID             int64
	UserID         int64
	VenueID        int64
	BookingDate    time.Time
	TotalPrice     float64
	Status         model.BookingStatus
	IdempotencyKey *string
	VendorIDs      []int64
	CarterIDs      []int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
