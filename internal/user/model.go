package user

import (
	"net/http"
	"time"

	"github.com/nekogravitycat/event-planner/internal/pkg/apperror"
)

var (
	ErrNotFound           = apperror.New(http.StatusNotFound, "user not found")
	ErrNameOrEmailTaken   = apperror.New(http.StatusConflict, "username or email already in use")
	ErrInvalidCredentials = apperror.New(http.StatusUnauthorized, "Invalid credentials")
	ErrIdentifierRequired = apperror.New(http.StatusBadRequest, "name or email is required")
	ErrPasswordTooShort   = apperror.New(http.StatusBadRequest, "password must be at least 6 characters")
	ErrForbidden          = apperror.New(http.StatusForbidden, "you can only view your own profile")
)

// User is an account of the marketplace.
type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}
