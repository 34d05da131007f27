package booking

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/nekogravitycat/event-planner/internal/model"
	"github.com/nekogravitycat/event-planner/internal/provider"
	"github.com/nekogravitycat/event-planner/internal/venue"
)

type CreateRequest struct {
	UserID      int64
	VenueID     int64
	BookingDate string
	VendorIDs   []int64
	CarterIDs   []int64
	// IdempotencyKey, when set, makes a repeated request return the
	// booking created by the first one.
	IdempotencyKey string
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*model.Booking, error)
	ListByUser(ctx context.Context, userID int64) ([]model.Booking, error)
	// Cancel sets the booking to Cancelled. Cancelling twice is not an error.
	Cancel(ctx context.Context, callerID, bookingID int64) (*model.Booking, error)
}

type service struct {
	repo      Repository
	venues    venue.Service
	providers provider.Service
	log       *zap.Logger
}

func NewService(repo Repository, venues venue.Service, providers provider.Service, log *zap.Logger) Service {
	return &service{
		repo:      repo,
		venues:    venues,
		providers: providers,
		log:       log,
	}
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*model.Booking, error) {
	if req.VenueID <= 0 {
		return nil, ErrVenueRequired
	}
	date, err := time.Parse(model.DateLayout, req.BookingDate)
	if err != nil {
		return nil, ErrInvalidDate
	}

	if req.IdempotencyKey != "" {
		existing, err := s.repo.GetByIdempotencyKey(ctx, req.UserID, req.IdempotencyKey)
		if err == nil {
			s.log.Info("replayed booking request", zap.Int64("booking_id", existing.ID))
			return s.expandOne(ctx, existing)
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}

	v, err := s.venues.Get(ctx, req.VenueID)
	if err != nil {
		return nil, err
	}
	vendors, err := s.providers.Resolve(ctx, provider.KindVendor, req.VendorIDs)
	if err != nil {
		return nil, err
	}
	carters, err := s.providers.Resolve(ctx, provider.KindCarter, req.CarterIDs)
	if err != nil {
		return nil, err
	}

	total := v.Price
	for _, p := range vendors {
		total += p.PriceOrZero()
	}
	for _, p := range carters {
		total += p.PriceOrZero()
	}

	b := &Booking{
		UserID:      req.UserID,
		VenueID:     v.ID,
		BookingDate: date,
		TotalPrice:  total,
		Status:      model.BookingPending,
		VendorIDs:   providerIDs(vendors),
		CarterIDs:   providerIDs(carters),
	}
	if req.IdempotencyKey != "" {
		b.IdempotencyKey = &req.IdempotencyKey
	}

	if err := s.repo.Create(ctx, b); err != nil {
		if errors.Is(err, errDuplicateKey) {
			// A concurrent request with the same key won.
			existing, getErr := s.repo.GetByIdempotencyKey(ctx, req.UserID, req.IdempotencyKey)
			if getErr != nil {
				return nil, getErr
			}
			return s.expandOne(ctx, existing)
		}
		return nil, err
	}
	s.log.Info("booking created",
		zap.Int64("booking_id", b.ID),
		zap.Int64("user_id", b.UserID),
		zap.Int64("venue_id", b.VenueID),
		zap.Float64("total_price", b.TotalPrice),
	)

	out := toModel(b, *v, vendors, carters)
	return &out, nil
}

func (s *service) ListByUser(ctx context.Context, userID int64) ([]model.Booking, error) {
	bookings, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.expand(ctx, bookings)
}

func (s *service) Cancel(ctx context.Context, callerID, bookingID int64) (*model.Booking, error) {
	b, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.UserID != callerID {
		return nil, ErrPermissionDenied
	}

	if b.Status != model.BookingCancelled {
		b.Status = model.BookingCancelled
		if err := s.repo.UpdateStatus(ctx, b); err != nil {
			return nil, err
		}
		s.log.Info("booking cancelled", zap.Int64("booking_id", b.ID))
	}
	return s.expandOne(ctx, b)
}

func (s *service) expandOne(ctx context.Context, b *Booking) (*model.Booking, error) {
	out, err := s.expand(ctx, []*Booking{b})
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

// expand resolves venues and providers with one lookup per kind.
func (s *service) expand(ctx context.Context, bookings []*Booking) ([]model.Booking, error) {
	out := make([]model.Booking, 0, len(bookings))
	if len(bookings) == 0 {
		return out, nil
	}

	var venueIDs, vendorIDs, carterIDs []int64
	for _, b := range bookings {
		venueIDs = append(venueIDs, b.VenueID)
		vendorIDs = append(vendorIDs, b.VendorIDs...)
		carterIDs = append(carterIDs, b.CarterIDs...)
	}

	venues, err := s.venues.GetMany(ctx, venueIDs)
	if err != nil {
		return nil, err
	}
	vendors, err := s.lookup(ctx, provider.KindVendor, vendorIDs)
	if err != nil {
		return nil, err
	}
	carters, err := s.lookup(ctx, provider.KindCarter, carterIDs)
	if err != nil {
		return nil, err
	}

	for _, b := range bookings {
		out = append(out, toModel(b, venues[b.VenueID], pick(vendors, b.VendorIDs), pick(carters, b.CarterIDs)))
	}
	return out, nil
}

func (s *service) lookup(ctx context.Context, kind provider.Kind, ids []int64) (map[int64]*provider.Provider, error) {
	found, err := s.providers.Resolve(ctx, kind, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[int64]*provider.Provider, len(found))
	for _, p := range found {
		out[p.ID] = p
	}
	return out, nil
}

func pick(all map[int64]*provider.Provider, ids []int64) []*provider.Provider {
	out := make([]*provider.Provider, 0, len(ids))
	for _, id := range ids {
		if p, ok := all[id]; ok {
			out = append(out, p)
		}
	}
	return out
}

func providerIDs(providers []*provider.Provider) []int64 {
	ids := make([]int64, len(providers))
	for i, p := range providers {
		ids[i] = p.ID
	}
	return ids
}

func toModel(b *Booking, v model.Venue, vendors, carters []*provider.Provider) model.Booking {
	out := model.Booking{
		ID:          b.ID,
		Venue:       v,
		Vendors:     make([]model.Vendor, len(vendors)),
		Carters:     make([]model.Carter, len(carters)),
		TotalPrice:  b.TotalPrice,
		BookingDate: b.BookingDate.Format(model.DateLayout),
		Status:      b.Status,
	}
	for i, p := range vendors {
		out.Vendors[i] = p.ToVendor()
	}
	for i, p := range carters {
		out.Carters[i] = p.ToCarter()
	}
	return out
}
