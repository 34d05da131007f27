package venue

import (
	"net/http"
	"time"

	"github.com/nekogravitycat/event-planner/internal/pkg/apperror"
)

var (
	ErrNotFound         = apperror.New(http.StatusNotFound, "venue not found")
	ErrNameRequired     = apperror.New(http.StatusBadRequest, "venue name is required")
	ErrInvalidPrice     = apperror.New(http.StatusBadRequest, "venue price cannot be negative")
	ErrNotOwner         = apperror.New(http.StatusForbidden, "only the venue owner can change its services")
	ErrNoServices       = apperror.New(http.StatusBadRequest, "at least one service id is required")
	ErrServiceNotLinked = apperror.New(http.StatusNotFound, "service is not attached to this venue")
)

// Venue is a bookable place owned by a user.
type Venue struct {
	ID        int64
	OwnerID   int64
	Name      string
	Address   string
	Price     float64
	CreatedAt time.Time
}

// Filter narrows List; zero fields are ignored.
type Filter struct {
	OwnerID int64
	IDs     []int64
}
