package venue

import (
	"context"
	"mime/multipart"
	"strings"

	"go.uber.org/zap"

	"github.com/nekogravitycat/event-planner/internal/catalog"
	"github.com/nekogravitycat/event-planner/internal/file"
	"github.com/nekogravitycat/event-planner/internal/model"
)

type CreateRequest struct {
	Name    string
	Address string
	Price   float64
}

type Service interface {
	Create(ctx context.Context, ownerID int64, req CreateRequest, images []*multipart.FileHeader) (*model.Venue, error)
	Get(ctx context.Context, id int64) (*model.Venue, error)
	List(ctx context.Context) ([]model.Venue, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]model.Venue, error)
	// GetMany returns the venues among ids that exist, keyed by id.
	GetMany(ctx context.Context, ids []int64) (map[int64]model.Venue, error)

	Services(ctx context.Context, venueID int64) ([]model.Service, error)
	// AttachServices links catalog services; only the owner may do so.
	AttachServices(ctx context.Context, callerID, venueID int64, serviceIDs []int64) ([]model.Service, error)
	DetachService(ctx context.Context, callerID, venueID, serviceID int64) error
}

type service struct {
	repo    Repository
	catalog catalog.Service
	files   file.Service
	log     *zap.Logger
}

func NewService(repo Repository, catalogService catalog.Service, files file.Service, log *zap.Logger) Service {
	return &service{
		repo:    repo,
		catalog: catalogService,
		files:   files,
		log:     log,
	}
}

func (s *service) Create(ctx context.Context, ownerID int64, req CreateRequest, images []*multipart.FileHeader) (*model.Venue, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, ErrNameRequired
	}
	if req.Price < 0 {
		return nil, ErrInvalidPrice
	}

	v := &Venue{
		OwnerID: ownerID,
		Name:    strings.TrimSpace(req.Name),
		Address: strings.TrimSpace(req.Address),
		Price:   req.Price,
	}
	if err := s.repo.Create(ctx, v); err != nil {
		return nil, err
	}

	refs, err := s.files.Save(ctx, file.OwnerVenue, v.ID, images)
	if err != nil {
		if delErr := s.repo.Delete(ctx, v.ID); delErr != nil {
			s.log.Error("failed to roll back venue after image error", zap.Int64("venue_id", v.ID), zap.Error(delErr))
		}
		return nil, err
	}

	out := toModel(v, refs, nil)
	return &out, nil
}

func (s *service) Get(ctx context.Context, id int64) (*model.Venue, error) {
	v, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	expanded, err := s.expand(ctx, []*Venue{v})
	if err != nil {
		return nil, err
	}
	return &expanded[0], nil
}

func (s *service) List(ctx context.Context) ([]model.Venue, error) {
	return s.list(ctx, Filter{})
}

func (s *service) ListByOwner(ctx context.Context, ownerID int64) ([]model.Venue, error) {
	return s.list(ctx, Filter{OwnerID: ownerID})
}

func (s *service) GetMany(ctx context.Context, ids []int64) (map[int64]model.Venue, error) {
	out := make(map[int64]model.Venue, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	venues, err := s.list(ctx, Filter{IDs: ids})
	if err != nil {
		return nil, err
	}
	for _, v := range venues {
		out[v.ID] = v
	}
	return out, nil
}

func (s *service) list(ctx context.Context, filter Filter) ([]model.Venue, error) {
	venues, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return s.expand(ctx, venues)
}

func (s *service) Services(ctx context.Context, venueID int64) ([]model.Service, error) {
	if _, err := s.repo.GetByID(ctx, venueID); err != nil {
		return nil, err
	}
	byVenue, err := s.repo.ServicesFor(ctx, []int64{venueID})
	if err != nil {
		return nil, err
	}
	return nonNil(byVenue[venueID]), nil
}

func (s *service) AttachServices(ctx context.Context, callerID, venueID int64, serviceIDs []int64) ([]model.Service, error) {
	if len(serviceIDs) == 0 {
		return nil, ErrNoServices
	}
	if err := s.checkOwner(ctx, callerID, venueID); err != nil {
		return nil, err
	}
	if _, err := s.catalog.Resolve(ctx, serviceIDs); err != nil {
		return nil, err
	}

	if err := s.repo.AttachServices(ctx, venueID, serviceIDs); err != nil {
		return nil, err
	}
	s.log.Info("services attached", zap.Int64("venue_id", venueID), zap.Int64s("service_ids", serviceIDs))

	byVenue, err := s.repo.ServicesFor(ctx, []int64{venueID})
	if err != nil {
		return nil, err
	}
	return nonNil(byVenue[venueID]), nil
}

func (s *service) DetachService(ctx context.Context, callerID, venueID, serviceID int64) error {
	if err := s.checkOwner(ctx, callerID, venueID); err != nil {
		return err
	}
	return s.repo.DetachService(ctx, venueID, serviceID)
}

func (s *service) checkOwner(ctx context.Context, callerID, venueID int64) error {
	v, err := s.repo.GetByID(ctx, venueID)
	if err != nil {
		return err
	}
	if v.OwnerID != callerID {
		return ErrNotOwner
	}
	return nil
}

// expand attaches images and services, keeping the order of venues.
func (s *service) expand(ctx context.Context, venues []*Venue) ([]model.Venue, error) {
	out := make([]model.Venue, 0, len(venues))
	if len(venues) == 0 {
		return out, nil
	}

	ids := make([]int64, len(venues))
	for i, v := range venues {
		ids[i] = v.ID
	}
	images, err := s.files.ImagesFor(ctx, file.OwnerVenue, ids)
	if err != nil {
		return nil, err
	}
	services, err := s.repo.ServicesFor(ctx, ids)
	if err != nil {
		return nil, err
	}

	for _, v := range venues {
		out = append(out, toModel(v, images[v.ID], services[v.ID]))
	}
	return out, nil
}

func toModel(v *Venue, images []model.Image, services []model.Service) model.Venue {
	if images == nil {
		images = []model.Image{}
	}
	return model.Venue{
		ID:       v.ID,
		Name:     v.Name,
		Address:  v.Address,
		Price:    v.Price,
		OwnerID:  v.OwnerID,
		Images:   images,
		Services: nonNil(services),
	}
}

func nonNil(services []model.Service) []model.Service {
	if services == nil {
		return []model.Service{}
	}
	return services
}
