package wizard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/event-planner/internal/apiclient"
	"github.com/nekogravitycat/event-planner/internal/listing"
	"github.com/nekogravitycat/event-planner/internal/model"
	"github.com/nekogravitycat/event-planner/internal/notify"
	"github.com/nekogravitycat/event-planner/internal/pkg/apperror"
	"github.com/nekogravitycat/event-planner/internal/session"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var fixedNow = time.Date(2025, 6, 15, 18, 30, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

type fakeBooker struct {
	mu       sync.Mutex
	requests []model.BookingRequest
	result   *model.Booking
	err      error
}

func (f *fakeBooker) CreateBooking(ctx context.Context, req model.BookingRequest) (*model.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	return f.result, f.err
}

func (f *fakeBooker) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

type harness struct {
	w             *Wizard
	booker        *fakeBooker
	rec           *notify.Recorder
	carterFetches atomic.Int32
	vendorFetches atomic.Int32
}

func newHarness(t *testing.T, venueID int64, opts ...Option) *harness {
	t.Helper()
	h := &harness{booker: &fakeBooker{}, rec: &notify.Recorder{}}
	carters := listing.New(func(ctx context.Context) ([]model.Carter, error) {
		h.carterFetches.Add(1)
		return []model.Carter{{ID: 3, Name: "Chef Co"}}, nil
	}, h.rec)
	vendors := listing.New(func(ctx context.Context) ([]model.Vendor, error) {
		h.vendorFetches.Add(1)
		return []model.Vendor{{ID: 9, Name: "Lights Ltd"}}, nil
	}, h.rec)
	opts = append([]Option{WithClock(clock), WithNavigator(h.rec)}, opts...)
	h.w = New(venueID, h.booker, carters, vendors, h.rec, opts...)
	return h
}

// toConfirm walks an opened wizard to ConfirmingDetails.
func (h *harness) toConfirm(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, h.w.Open(ctx))
	require.NoError(t, h.w.Next(ctx))
	require.NoError(t, h.w.Next(ctx))
	require.Equal(t, StageConfirmingDetails, h.w.Stage())
}

func TestValidateDate(t *testing.T) {
	tests := []struct {
		name    string
		date    string
		wantErr bool
	}{
		{"today", "2025-06-15", false},
		{"tomorrow", "2025-06-16", false},
		{"yesterday", "2025-06-14", true},
		{"long ago", "2025-01-01", true},
		{"absent", "", true},
		{"garbage", "15/06/2025", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDate(tt.date, fixedNow)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidDate)
				assert.Equal(t, "bookingDate", ErrInvalidDate.Field)
				assert.True(t, apperror.IsKind(err, apperror.KindValidation))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateDateIgnoresTimeOfDay(t *testing.T) {
	loc := time.FixedZone("UTC+8", 8*3600)
	lateNight := time.Date(2025, 6, 15, 23, 59, 59, 0, loc)
	earlyMorning := time.Date(2025, 6, 15, 0, 0, 1, 0, loc)

	assert.NoError(t, ValidateDate("2025-06-15", lateNight))
	assert.NoError(t, ValidateDate("2025-06-15", earlyMorning))
	assert.Equal(t, "2025-06-15", Today(lateNight))
}

func TestToggleIsInvolution(t *testing.T) {
	h := newHarness(t, 7)
	require.NoError(t, h.w.Open(context.Background()))

	assert.True(t, h.w.ToggleCarter(3))
	assert.True(t, h.w.ToggleCarter(4))
	before := h.w.Draft().CarterIDs

	for _, id := range []int64{5, 3, 99} {
		h.w.ToggleCarter(id)
		h.w.ToggleCarter(id)
		assert.ElementsMatch(t, before, h.w.Draft().CarterIDs)
	}

	assert.True(t, h.w.ToggleVendor(9))
	assert.False(t, h.w.ToggleVendor(9))
	assert.Empty(t, h.w.Draft().VendorIDs)
}

func TestStageEntryTriggersFetch(t *testing.T) {
	h := newHarness(t, 7)
	ctx := context.Background()

	require.NoError(t, h.w.Open(ctx))
	assert.Equal(t, StageSelectingCarters, h.w.Stage())
	assert.Equal(t, int32(1), h.carterFetches.Load())
	assert.Len(t, h.w.Carters().Items, 1)

	require.NoError(t, h.w.Next(ctx))
	assert.Equal(t, StageSelectingVendors, h.w.Stage())
	assert.Equal(t, int32(1), h.vendorFetches.Load())

	require.NoError(t, h.w.Previous(ctx))
	assert.Equal(t, StageSelectingCarters, h.w.Stage())
	assert.Equal(t, int32(2), h.carterFetches.Load())

	require.NoError(t, h.w.Next(ctx))
	require.NoError(t, h.w.Next(ctx))
	assert.Equal(t, StageConfirmingDetails, h.w.Stage())
	assert.Equal(t, int32(2), h.vendorFetches.Load())

	require.NoError(t, h.w.Previous(ctx))
	assert.Equal(t, StageSelectingVendors, h.w.Stage())
	assert.Equal(t, int32(3), h.vendorFetches.Load())
}

func TestPreviousKeepsSelections(t *testing.T) {
	h := newHarness(t, 7)
	ctx := context.Background()
	require.NoError(t, h.w.Open(ctx))
	h.w.ToggleCarter(3)
	require.NoError(t, h.w.Next(ctx))
	h.w.ToggleVendor(9)
	require.NoError(t, h.w.Next(ctx))

	require.NoError(t, h.w.Previous(ctx))
	require.NoError(t, h.w.Previous(ctx))

	d := h.w.Draft()
	assert.Equal(t, []int64{3}, d.CarterIDs)
	assert.Equal(t, []int64{9}, d.VendorIDs)
}

func TestWrongStageTransitions(t *testing.T) {
	h := newHarness(t, 7)
	ctx := context.Background()

	assert.ErrorIs(t, h.w.Next(ctx), ErrWrongStage)
	_, err := h.w.Submit(ctx)
	assert.ErrorIs(t, err, ErrWrongStage)

	require.NoError(t, h.w.Open(ctx))
	assert.ErrorIs(t, h.w.Previous(ctx), ErrWrongStage)
	_, err = h.w.Submit(ctx)
	assert.ErrorIs(t, err, ErrWrongStage)

	require.NoError(t, h.w.Next(ctx))
	require.NoError(t, h.w.Next(ctx))
	assert.ErrorIs(t, h.w.Next(ctx), ErrWrongStage)
	assert.Zero(t, h.booker.calls())
}

func TestSubmitPastDateRejectedBeforeNetwork(t *testing.T) {
	h := newHarness(t, 7)
	h.toConfirm(t)
	h.w.ToggleCarter(3)
	h.w.SetBookingDate("2025-01-01")

	_, err := h.w.Submit(context.Background())
	assert.ErrorIs(t, err, ErrInvalidDate)
	assert.Equal(t, StageConfirmingDetails, h.w.Stage())
	assert.Zero(t, h.booker.calls())
	assert.Empty(t, h.rec.Errors())
}

func TestSubmitWithoutDateRejected(t *testing.T) {
	h := newHarness(t, 7)
	h.toConfirm(t)

	assert.ErrorIs(t, h.w.ValidateDate(), ErrInvalidDate)
	_, err := h.w.Submit(context.Background())
	assert.ErrorIs(t, err, ErrInvalidDate)
	assert.Zero(t, h.booker.calls())
}

func TestSubmitWithoutVenueRejected(t *testing.T) {
	h := newHarness(t, 0)
	h.toConfirm(t)
	h.w.SetBookingDate("2025-06-15")

	_, err := h.w.Submit(context.Background())
	assert.ErrorIs(t, err, ErrVenueRequired)
	assert.Equal(t, "venueId", ErrVenueRequired.Field)
	assert.Zero(t, h.booker.calls())
}

func TestSubmitSuccess(t *testing.T) {
	var notified *model.Booking
	calls := 0
	h := newHarness(t, 7, WithOnBookingSuccess(func(b *model.Booking) {
		calls++
		notified = b
	}))
	h.booker.result = &model.Booking{ID: 41, Status: model.BookingPending}
	h.toConfirm(t)
	h.w.ToggleCarter(3)
	h.w.SetBookingDate("2025-06-15")

	booking, err := h.w.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(41), booking.ID)

	require.Len(t, h.booker.requests, 1)
	assert.Equal(t, model.BookingRequest{
		VenueID:     7,
		BookingDate: "2025-06-15",
		VendorIDs:   []int64{},
		CarterIDs:   []int64{3},
	}, h.booker.requests[0])

	assert.Equal(t, 1, calls)
	assert.Same(t, booking, notified)
	assert.Equal(t, []string{SuccessMessage}, h.rec.Successes())

	d := h.w.Draft()
	assert.Equal(t, StageClosed, d.Stage)
	assert.Empty(t, d.CarterIDs)
	assert.Empty(t, d.BookingDate)
}

func TestSubmitFailureThenRetry(t *testing.T) {
	h := newHarness(t, 7)
	h.booker.err = apperror.HTTP(http.StatusConflict, `{"message":"Venue already booked on that date"}`, "Venue already booked on that date")
	h.toConfirm(t)
	h.w.SetBookingDate("2025-06-20")

	_, err := h.w.Submit(context.Background())
	require.Error(t, err)
	d := h.w.Draft()
	assert.Equal(t, StageFailed, d.Stage)
	assert.Equal(t, "Venue already booked on that date", d.Message)
	assert.Equal(t, []string{"Venue already booked on that date"}, h.rec.Errors())
	assert.Zero(t, h.rec.LoginRedirects())

	h.booker.err = nil
	_, err = h.w.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, h.booker.calls())
	assert.Equal(t, StageClosed, h.w.Stage())
}

func TestSubmitFailureFallbackMessage(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		redirects int
	}{
		{"network", apperror.Network(errors.New("connection reset")), 0},
		{"html body", apperror.HTTP(http.StatusBadGateway, "<html>bad gateway</html>", ""), 0},
		{"no token", apperror.Unauthenticated("You must be logged in."), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, 7)
			h.booker.err = tt.err
			h.toConfirm(t)
			h.w.SetBookingDate("2025-06-15")

			_, err := h.w.Submit(context.Background())
			assert.ErrorIs(t, err, tt.err)
			assert.Equal(t, FailureMessage, h.w.Draft().Message)
			assert.Equal(t, []string{FailureMessage}, h.rec.Errors())
			assert.Equal(t, tt.redirects, h.rec.LoginRedirects())
		})
	}
}

func TestCancelDiscardsDraft(t *testing.T) {
	h := newHarness(t, 7)
	h.toConfirm(t)
	h.w.ToggleCarter(3)
	h.w.SetBookingDate("2025-06-15")

	h.w.Cancel()
	d := h.w.Draft()
	assert.Equal(t, StageClosed, d.Stage)
	assert.Empty(t, d.CarterIDs)
	assert.Empty(t, d.BookingDate)
	assert.Zero(t, h.booker.calls())

	assert.False(t, h.w.ToggleCarter(3))
	assert.Empty(t, h.w.Draft().CarterIDs)
}

func TestSubmitIssuesExactlyOnePost(t *testing.T) {
	var posts atomic.Int32
	var body map[string]any
	r := gin.New()
	r.GET("/carters", func(c *gin.Context) {
		c.JSON(http.StatusOK, []model.Carter{{ID: 3}})
	})
	r.GET("/vendors", func(c *gin.Context) {
		c.JSON(http.StatusOK, []model.Vendor{{ID: 9}})
	})
	r.POST("/bookings", func(c *gin.Context) {
		posts.Add(1)
		data, _ := io.ReadAll(c.Request.Body)
		_ = json.Unmarshal(data, &body)
		c.JSON(http.StatusCreated, gin.H{"bookingId": 1, "status": "Pending"})
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	store := session.NewMemoryStore()
	require.NoError(t, store.SetSession("token", "alice"))
	client := apiclient.New(srv.URL, store)

	rec := &notify.Recorder{}
	w := New(7, client,
		listing.New(client.ListCarters, rec),
		listing.New(client.ListVendors, rec),
		rec,
	)

	ctx := context.Background()
	require.NoError(t, w.Open(ctx))
	w.ToggleCarter(3)
	require.NoError(t, w.Next(ctx))
	w.ToggleVendor(9)
	require.NoError(t, w.Next(ctx))
	w.SetBookingDate(Today(time.Now()))

	_, err := w.Submit(ctx)
	require.NoError(t, err)

	assert.Equal(t, int32(1), posts.Load())
	assert.Equal(t, map[string]any{
		"venueId":     float64(7),
		"bookingDate": Today(time.Now()),
		"vendorIds":   []any{float64(9)},
		"carterIds":   []any{float64(3)},
	}, body)
}

func TestRetryReusesIdempotencyKey(t *testing.T) {
	var keys []string
	r := gin.New()
	r.GET("/carters", func(c *gin.Context) {
		c.JSON(http.StatusOK, []model.Carter{{ID: 3}})
	})
	r.GET("/vendors", func(c *gin.Context) {
		c.JSON(http.StatusOK, []model.Vendor{{ID: 9}})
	})
	r.POST("/bookings", func(c *gin.Context) {
		keys = append(keys, c.GetHeader(apiclient.IdempotencyHeader))
		if len(keys) == 1 {
			c.JSON(http.StatusGatewayTimeout, gin.H{"message": "upstream timed out"})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"bookingId": len(keys), "status": "Pending"})
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	store := session.NewMemoryStore()
	require.NoError(t, store.SetSession("token", "alice"))
	client := apiclient.New(srv.URL, store, apiclient.WithIdempotencyKeys(nil))

	rec := &notify.Recorder{}
	w := New(7, client,
		listing.New(client.ListCarters, rec),
		listing.New(client.ListVendors, rec),
		rec,
		WithIdempotencyKeys(client.NewIdempotencyKey),
	)

	ctx := context.Background()
	submitDraft := func() error {
		require.NoError(t, w.Open(ctx))
		w.ToggleCarter(3)
		require.NoError(t, w.Next(ctx))
		w.ToggleVendor(9)
		require.NoError(t, w.Next(ctx))
		w.SetBookingDate(Today(time.Now()))
		_, err := w.Submit(ctx)
		return err
	}

	require.Error(t, submitDraft())
	assert.Equal(t, StageFailed, w.Stage())
	assert.Equal(t, "upstream timed out", w.Draft().Message)

	_, err := w.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, StageClosed, w.Stage())

	require.Len(t, keys, 2)
	assert.NotEmpty(t, keys[0])
	assert.Equal(t, keys[0], keys[1])

	// A new draft gets a new key.
	require.NoError(t, submitDraft())
	require.Len(t, keys, 3)
	assert.NotEqual(t, keys[0], keys[2])
}

func TestDraftWithoutKeyGeneratorSendsNoKey(t *testing.T) {
	h := newHarness(t, 7)
	h.toConfirm(t)
	h.w.SetBookingDate("2025-06-20")
	_, err := h.w.Submit(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, h.booker.calls())
	assert.Empty(t, h.booker.requests[0].IdempotencyKey)
}

func TestFailedDraftKeepsKeyUntilCancel(t *testing.T) {
	n := 0
	h := newHarness(t, 7, WithIdempotencyKeys(func() string {
		n++
		return fmt.Sprintf("draft-%d", n)
	}))
	h.booker.err = apperror.HTTP(http.StatusInternalServerError, "", "")
	h.toConfirm(t)
	h.w.SetBookingDate("2025-06-20")

	for range 2 {
		_, err := h.w.Submit(context.Background())
		require.Error(t, err)
	}
	h.w.Cancel()
	h.toConfirm(t)
	h.w.SetBookingDate("2025-06-20")
	_, err := h.w.Submit(context.Background())
	require.Error(t, err)

	require.Equal(t, 3, h.booker.calls())
	assert.Equal(t, "draft-1", h.booker.requests[0].IdempotencyKey)
	assert.Equal(t, "draft-1", h.booker.requests[1].IdempotencyKey)
	assert.Equal(t, "draft-2", h.booker.requests[2].IdempotencyKey)
}
