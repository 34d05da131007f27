// Package wizard implements the booking flow for one venue: pick carters,
// pick vendors, choose a date, then submit a single booking request.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/nekogravitycat/event-planner/internal/apiclient"
	"github.com/nekogravitycat/event-planner/internal/listing"
	"github.com/nekogravitycat/event-planner/internal/model"
	"github.com/nekogravitycat/event-planner/internal/notify"
	"github.com/nekogravitycat/event-planner/internal/pkg/apperror"
)

const (
	SuccessMessage = "Booking confirmed successfully!"
	FailureMessage = "Failed to confirm booking."
)

// ErrWrongStage is returned when an action is not available in the current stage.
var ErrWrongStage = errors.New("action not available in the current stage")

type Stage string

const (
	StageSelectingCarters  Stage = "selecting_carters"
	StageSelectingVendors  Stage = "selecting_vendors"
	StageConfirmingDetails Stage = "confirming_details"
	StageSubmitting        Stage = "submitting"
	StageSucceeded         Stage = "succeeded"
	StageFailed            Stage = "failed"
	StageClosed            Stage = "closed"
)

// Booker submits bookings; *apiclient.Client implements it.
type Booker interface {
	CreateBooking(ctx context.Context, req model.BookingRequest) (*model.Booking, error)
}

// Draft is a snapshot of the wizard.
type Draft struct {
	Stage       Stage
	VenueID     int64
	CarterIDs   []int64
	VendorIDs   []int64
	BookingDate string
	// Message is the failure text shown while in StageFailed.
	Message string
	Booking *model.Booking
}

type Wizard struct {
	booker    Booker
	carters   *listing.Controller[model.Carter]
	vendors   *listing.Controller[model.Vendor]
	sink      notify.Sink
	nav       notify.Navigator
	log       *zap.Logger
	now       func() time.Time
	onSuccess func(*model.Booking)
	newKey    func() string

	mu        sync.Mutex
	stage     Stage
	venueID   int64
	carterIDs []int64
	vendorIDs []int64
	date      string
	idemKey   string
	message   string
	booking   *model.Booking
}

type Option func(*Wizard)

// WithClock overrides time.Now for date validation.
func WithClock(now func() time.Time) Option {
	return func(w *Wizard) { w.now = now }
}

func WithLogger(log *zap.Logger) Option {
	return func(w *Wizard) { w.log = log }
}

func WithNavigator(nav notify.Navigator) Option {
	return func(w *Wizard) { w.nav = nav }
}

// WithOnBookingSuccess is called after a successful submission, before the
// wizard closes. booking may be nil if the server returned no body.
func WithOnBookingSuccess(fn func(booking *model.Booking)) Option {
	return func(w *Wizard) { w.onSuccess = fn }
}

// WithIdempotencyKeys mints one key per draft in Open. Every submission of
// that draft, retries from StageFailed included, carries the same key.
// gen may return "" to send none.
func WithIdempotencyKeys(gen func() string) Option {
	return func(w *Wizard) { w.newKey = gen }
}

// New creates a closed wizard for venueID; call Open to start.
func New(
	venueID int64,
	booker Booker,
	carters *listing.Controller[model.Carter],
	vendors *listing.Controller[model.Vendor],
	sink notify.Sink,
	opts ...Option,
) *Wizard {
	if sink == nil {
		sink = notify.Discard
	}
	w := &Wizard{
		booker:  booker,
		carters: carters,
		vendors: vendors,
		sink:    sink,
		log:     zap.NewNop(),
		now:     time.Now,
		stage:   StageClosed,
		venueID: venueID,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Open starts a fresh draft in StageSelectingCarters and loads the carters.
func (w *Wizard) Open(ctx context.Context) error {
	w.mu.Lock()
	if w.stage == StageSubmitting {
		w.mu.Unlock()
		return fmt.Errorf("%w: open while %s", ErrWrongStage, w.stage)
	}
	w.resetLocked()
	if w.newKey != nil {
		w.idemKey = w.newKey()
	}
	w.stage = StageSelectingCarters
	w.mu.Unlock()

	return w.carters.Fetch(ctx)
}

// Next advances SelectingCarters -> SelectingVendors -> ConfirmingDetails.
func (w *Wizard) Next(ctx context.Context) error {
	w.mu.Lock()
	switch w.stage {
	case StageSelectingCarters:
		w.stage = StageSelectingVendors
		w.mu.Unlock()
		return w.vendors.Fetch(ctx)
	case StageSelectingVendors:
		w.stage = StageConfirmingDetails
		w.mu.Unlock()
		return nil
	default:
		stage := w.stage
		w.mu.Unlock()
		return fmt.Errorf("%w: next from %s", ErrWrongStage, stage)
	}
}

// Previous steps back one stage, keeping selections. Re-entering a
// selection stage reloads its list.
func (w *Wizard) Previous(ctx context.Context) error {
	w.mu.Lock()
	switch w.stage {
	case StageSelectingVendors:
		w.stage = StageSelectingCarters
		w.mu.Unlock()
		return w.carters.Fetch(ctx)
	case StageConfirmingDetails, StageFailed:
		w.stage = StageSelectingVendors
		w.message = ""
		w.mu.Unlock()
		return w.vendors.Fetch(ctx)
	default:
		stage := w.stage
		w.mu.Unlock()
		return fmt.Errorf("%w: previous from %s", ErrWrongStage, stage)
	}
}

// ToggleCarter adds id if absent and removes it if present. It reports
// whether id is selected afterwards.
func (w *Wizard) ToggleCarter(id int64) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.editableLocked() {
		return slices.Contains(w.carterIDs, id)
	}
	var on bool
	w.carterIDs, on = toggle(w.carterIDs, id)
	return on
}

func (w *Wizard) ToggleVendor(id int64) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.editableLocked() {
		return slices.Contains(w.vendorIDs, id)
	}
	var on bool
	w.vendorIDs, on = toggle(w.vendorIDs, id)
	return on
}

// SetBookingDate records a YYYY-MM-DD date. It is validated on submit.
func (w *Wizard) SetBookingDate(date string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.editableLocked() {
		w.date = date
	}
}

// ValidateDate checks the current draft date against the wizard clock.
func (w *Wizard) ValidateDate() error {
	w.mu.Lock()
	date := w.date
	w.mu.Unlock()
	return ValidateDate(date, w.now())
}

// Submit sends the booking. It is allowed from ConfirmingDetails and, for a
// retry, from Failed. Validation failures leave the stage unchanged and make
// no request.
func (w *Wizard) Submit(ctx context.Context) (*model.Booking, error) {
	w.mu.Lock()
	if w.stage != StageConfirmingDetails && w.stage != StageFailed {
		stage := w.stage
		w.mu.Unlock()
		return nil, fmt.Errorf("%w: submit from %s", ErrWrongStage, stage)
	}
	if w.venueID <= 0 {
		w.mu.Unlock()
		return nil, ErrVenueRequired
	}
	if err := ValidateDate(w.date, w.now()); err != nil {
		w.mu.Unlock()
		return nil, err
	}

	req := model.BookingRequest{
		VenueID:     w.venueID,
		BookingDate: w.date,
		VendorIDs:   append(make([]int64, 0, len(w.vendorIDs)), w.vendorIDs...),
		CarterIDs:   append(make([]int64, 0, len(w.carterIDs)), w.carterIDs...),

		IdempotencyKey: w.idemKey,
	}
	w.stage = StageSubmitting
	w.message = ""
	w.mu.Unlock()

	w.log.Info("submitting booking",
		zap.Int64("venue_id", req.VenueID),
		zap.String("date", req.BookingDate),
		zap.Int("carters", len(req.CarterIDs)),
		zap.Int("vendors", len(req.VendorIDs)),
	)
	booking, err := w.booker.CreateBooking(ctx, req)

	w.mu.Lock()
	if w.stage != StageSubmitting {
		// Cancelled while the request was in flight.
		w.mu.Unlock()
		return booking, err
	}
	if err != nil {
		msg := FailureMessage
		if serverMsg, ok := apiclient.ServerMessage(err); ok {
			msg = serverMsg
		}
		w.stage = StageFailed
		w.message = msg
		w.mu.Unlock()

		w.log.Warn("booking failed", zap.Error(err))
		w.sink.Error(msg)
		if apperror.IsKind(err, apperror.KindUnauthenticated) && w.nav != nil {
			w.nav.ToLogin()
		}
		return nil, err
	}

	w.stage = StageSucceeded
	w.booking = booking
	w.mu.Unlock()

	w.sink.Success(SuccessMessage)
	if w.onSuccess != nil {
		w.onSuccess(booking)
	}

	w.mu.Lock()
	if w.stage == StageSucceeded {
		w.resetLocked()
		w.stage = StageClosed
	}
	w.mu.Unlock()
	return booking, nil
}

// Cancel discards the draft from any stage without contacting the server.
func (w *Wizard) Cancel() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.resetLocked()
	w.stage = StageClosed
}

func (w *Wizard) Stage() Stage {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stage
}

func (w *Wizard) Draft() Draft {
	w.mu.Lock()
	defer w.mu.Unlock()
	return Draft{
		Stage:       w.stage,
		VenueID:     w.venueID,
		CarterIDs:   slices.Clone(w.carterIDs),
		VendorIDs:   slices.Clone(w.vendorIDs),
		BookingDate: w.date,
		Message:     w.message,
		Booking:     w.booking,
	}
}

func (w *Wizard) Carters() listing.Snapshot[model.Carter] {
	return w.carters.State()
}

func (w *Wizard) Vendors() listing.Snapshot[model.Vendor] {
	return w.vendors.State()
}

func (w *Wizard) editableLocked() bool {
	return w.stage != StageClosed && w.stage != StageSubmitting
}

func (w *Wizard) resetLocked() {
	w.carterIDs = nil
	w.vendorIDs = nil
	w.date = ""
	w.idemKey = ""
	w.message = ""
	w.booking = nil
}

func toggle(ids []int64, id int64) ([]int64, bool) {
	if i := slices.Index(ids, id); i >= 0 {
		return slices.Delete(ids, i, i+1), false
	}
	return append(ids, id), true
}
