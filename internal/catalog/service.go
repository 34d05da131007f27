package catalog

import (
	"context"
	"slices"
	"strings"

	"github.com/nekogravitycat/event-planner/internal/model"
)

type CreateRequest struct {
	Name        string
	Description string
	Price       float64
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*model.Service, error)
	List(ctx context.Context) ([]model.Service, error)
	// Resolve returns the services for ids, failing with ErrNotFound if any id is unknown.
	Resolve(ctx context.Context, ids []int64) ([]model.Service, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*model.Service, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, ErrNameRequired
	}
	if req.Price < 0 {
		return nil, ErrInvalidPrice
	}

	svc := &Service{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Price:       req.Price,
	}
	if err := s.repo.Create(ctx, svc); err != nil {
		return nil, err
	}
	out := svc.ToModel()
	return &out, nil
}

func (s *service) List(ctx context.Context) ([]model.Service, error) {
	services, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return toModels(services), nil
}

func (s *service) Resolve(ctx context.Context, ids []int64) ([]model.Service, error) {
	unique := slices.Clone(ids)
	slices.Sort(unique)
	unique = slices.Compact(unique)

	services, err := s.repo.GetByIDs(ctx, unique)
	if err != nil {
		return nil, err
	}
	if len(services) != len(unique) {
		return nil, ErrNotFound
	}
	return toModels(services), nil
}

func toModels(services []*Service) []model.Service {
	out := make([]model.Service, len(services))
	for i, svc := range services {
		out[i] = svc.ToModel()
	}
	return out
}
