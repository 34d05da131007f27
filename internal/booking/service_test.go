package booking

import (
	"context"
	"mime/multipart"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nekogravitycat/event-planner/internal/model"
	"github.com/nekogravitycat/event-planner/internal/provider"
	"github.com/nekogravitycat/event-planner/internal/venue"
)

type memRepo struct {
	rows    map[int64]*Booking
	creates int
}

func newMemRepo() *memRepo {
	return &memRepo{rows: map[int64]*Booking{}}
}

func (r *memRepo) Create(ctx context.Context, b *Booking) error {
	for _, existing := range r.rows {
		if b.IdempotencyKey != nil && existing.IdempotencyKey != nil &&
			existing.UserID == b.UserID && *existing.IdempotencyKey == *b.IdempotencyKey {
			return errDuplicateKey
		}
	}
	r.creates++
	b.ID = int64(len(r.rows) + 1)
	cp := *b
	r.rows[b.ID] = &cp
	return nil
}

func (r *memRepo) GetByID(ctx context.Context, id int64) (*Booking, error) {
	b, ok := r.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (r *memRepo) GetByIdempotencyKey(ctx context.Context, userID int64, key string) (*Booking, error) {
	for _, b := range r.rows {
		if b.UserID == userID && b.IdempotencyKey != nil && *b.IdempotencyKey == key {
			cp := *b
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (r *memRepo) ListByUser(ctx context.Context, userID int64) ([]*Booking, error) {
	var out []*Booking
	for id := int64(len(r.rows)); id > 0; id-- {
		if b := r.rows[id]; b.UserID == userID {
			cp := *b
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memRepo) UpdateStatus(ctx context.Context, b *Booking) error {
	r.rows[b.ID].Status = b.Status
	return nil
}

type fakeVenues struct {
	venue.Service
}

func (fakeVenues) Get(ctx context.Context, id int64) (*model.Venue, error) {
	if id != 7 {
		return nil, venue.ErrNotFound
	}
	return &model.Venue{ID: 7, Name: "Hall", Price: 500}, nil
}

func (fakeVenues) GetMany(ctx context.Context, ids []int64) (map[int64]model.Venue, error) {
	return map[int64]model.Venue{7: {ID: 7, Name: "Hall", Price: 500}}, nil
}

type fakeProviders struct{}

func price(f float64) *float64 { return &f }

var catalogue = map[provider.Kind]map[int64]*provider.Provider{
	provider.KindVendor: {
		9:  {ID: 9, Kind: provider.KindVendor, Name: "DJ", Price: price(80)},
		10: {ID: 10, Kind: provider.KindVendor, Name: "Florist"},
	},
	provider.KindCarter: {
		3: {ID: 3, Kind: provider.KindCarter, Name: "Feast", Price: price(20.5)},
	},
}

func (fakeProviders) Create(ctx context.Context, kind provider.Kind, req provider.CreateRequest, images []*multipart.FileHeader) (*provider.Provider, error) {
	return nil, nil
}

func (fakeProviders) List(ctx context.Context, kind provider.Kind) ([]*provider.Provider, error) {
	return nil, nil
}

func (fakeProviders) Resolve(ctx context.Context, kind provider.Kind, ids []int64) ([]*provider.Provider, error) {
	out := []*provider.Provider{}
	seen := map[int64]bool{}
	for _, id := range ids {
		p, ok := catalogue[kind][id]
		if !ok {
			return nil, kind.NotFound()
		}
		if !seen[id] {
			seen[id] = true
			out = append(out, p)
		}
	}
	return out, nil
}

func newTestService() (Service, *memRepo) {
	repo := newMemRepo()
	return NewService(repo, fakeVenues{}, fakeProviders{}, zap.NewNop()), repo
}

func TestCreateComputesTotalPrice(t *testing.T) {
	svc, _ := newTestService()

	b, err := svc.Create(context.Background(), CreateRequest{
		UserID:      1,
		VenueID:     7,
		BookingDate: "2030-05-01",
		VendorIDs:   []int64{9, 10},
		CarterIDs:   []int64{3},
	})
	require.NoError(t, err)
	assert.Equal(t, 600.5, b.TotalPrice)
	assert.Equal(t, model.BookingPending, b.Status)
	assert.Equal(t, "2030-05-01", b.BookingDate)
	assert.Equal(t, "Hall", b.Venue.Name)
	require.Len(t, b.Vendors, 2)
	assert.Equal(t, "DJ", b.Vendors[0].Name)
	require.Len(t, b.Carters, 1)
	assert.Equal(t, "Feast", b.Carters[0].Name)
}

func TestCreateRejectsBadInput(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	tests := []struct {
		name string
		req  CreateRequest
		want error
	}{
		{"no venue", CreateRequest{BookingDate: "2030-05-01"}, ErrVenueRequired},
		{"bad date", CreateRequest{VenueID: 7, BookingDate: "05/01/2030"}, ErrInvalidDate},
		{"unknown venue", CreateRequest{VenueID: 8, BookingDate: "2030-05-01"}, venue.ErrNotFound},
		{"unknown vendor", CreateRequest{VenueID: 7, BookingDate: "2030-05-01", VendorIDs: []int64{3}}, provider.ErrVendorNotFound},
		{"unknown carter", CreateRequest{VenueID: 7, BookingDate: "2030-05-01", CarterIDs: []int64{9}}, provider.ErrCarterNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.Zero(t, repo.creates)
}

func TestCreateWithIdempotencyKeyReplays(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()
	req := CreateRequest{UserID: 1, VenueID: 7, BookingDate: "2030-05-01", CarterIDs: []int64{3}, IdempotencyKey: "k-1"}

	first, err := svc.Create(ctx, req)
	require.NoError(t, err)
	second, err := svc.Create(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, repo.creates)

	req.IdempotencyKey = ""
	third, err := svc.Create(ctx, req)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, third.ID)
}

func TestCancel(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	b, err := svc.Create(ctx, CreateRequest{UserID: 1, VenueID: 7, BookingDate: "2030-05-01"})
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, 2, b.ID)
	assert.ErrorIs(t, err, ErrPermissionDenied)

	cancelled, err := svc.Cancel(ctx, 1, b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingCancelled, cancelled.Status)

	again, err := svc.Cancel(ctx, 1, b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingCancelled, again.Status)

	_, err = svc.Cancel(ctx, 1, 404)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListByUser(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	_, err := svc.Create(ctx, CreateRequest{UserID: 1, VenueID: 7, BookingDate: "2030-05-01", VendorIDs: []int64{9}})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateRequest{UserID: 2, VenueID: 7, BookingDate: "2030-06-01"})
	require.NoError(t, err)

	mine, err := svc.ListByUser(ctx, 1)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, []model.Vendor{{ID: 9, Name: "DJ", Price: price(80), Specialties: []string{}, Images: []model.Image{}, Services: []model.Service{}}}, mine[0].Vendors)
	assert.Equal(t, []model.Carter{}, mine[0].Carters)

	none, err := svc.ListByUser(ctx, 3)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}
