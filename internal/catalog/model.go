package catalog

import (
	"net/http"

	"github.com/nekogravitycat/event-planner/internal/model"
	"github.com/nekogravitycat/event-planner/internal/pkg/apperror"
)

var (
	ErrNotFound     = apperror.New(http.StatusNotFound, "service not found")
	ErrNameRequired = apperror.New(http.StatusBadRequest, "service name is required")
	ErrInvalidPrice = apperror.New(http.StatusBadRequest, "service price cannot be negative")
)

// Service is an entry of the services catalog.
type Service struct {
	ID          int64
	Name        string
	Description string
	Price       float64
}

func (s *Service) ToModel() model.Service {
	return model.Service{
		ID:          s.ID,
		Name:        s.Name,
		Description: s.Description,
		Price:       s.Price,
	}
}
