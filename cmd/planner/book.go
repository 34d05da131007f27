package main

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/nekogravitycat/event-planner/internal/listing"
	"github.com/nekogravitycat/event-planner/internal/model"
	"github.com/nekogravitycat/event-planner/internal/pkg/apperror"
	"github.com/nekogravitycat/event-planner/internal/wizard"
)

// book walks the user through the booking wizard for one venue.
func (c *cli) book(ctx context.Context, args []string) error {
	fs := c.flags("book")
	venueID := fs.Int64("venue", 0, "venue id")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *venueID <= 0 {
		return wizard.ErrVenueRequired
	}

	carters := listing.New(c.client.ListCarters, c.sink,
		listing.WithLabel[model.Carter]("carters"),
		listing.WithNavigator[model.Carter](c.nav),
		listing.WithLogger[model.Carter](c.log),
	)
	vendors := listing.New(c.client.ListVendors, c.sink,
		listing.WithLabel[model.Vendor]("vendors"),
		listing.WithNavigator[model.Vendor](c.nav),
		listing.WithLogger[model.Vendor](c.log),
	)
	defer carters.Dispose()
	defer vendors.Dispose()

	var (
		submitted bool
		booked    *model.Booking
	)
	w := wizard.New(*venueID, c.client, carters, vendors, c.sink,
		wizard.WithClock(c.now),
		wizard.WithLogger(c.log.Named("wizard")),
		wizard.WithNavigator(c.nav),
		wizard.WithIdempotencyKeys(c.client.NewIdempotencyKey),
		wizard.WithOnBookingSuccess(func(b *model.Booking) {
			submitted = true
			booked = b
		}),
	)

	if err := w.Open(ctx); apperror.IsKind(err, apperror.KindUnauthenticated) {
		w.Cancel()
		return errReported
	}

	for w.Stage() != wizard.StageClosed {
		c.render(w)
		line, ok := c.readLine()
		if !ok {
			w.Cancel()
			break
		}
		if err := c.step(ctx, w, carters, vendors, line); apperror.IsKind(err, apperror.KindUnauthenticated) {
			w.Cancel()
			return errReported
		}
	}

	if !submitted {
		fmt.Fprintln(c.out, "Booking cancelled.")
		return nil
	}
	if booked != nil {
		fmt.Fprintf(c.out, "Booking #%d at %s on %s, total %s (%s).\n",
			booked.ID, booked.Venue.Name, booked.BookingDate, formatPrice(booked.TotalPrice), booked.Status)
	}
	return nil
}

// step applies one line of input to the wizard. Errors already shown by the
// list controllers or the wizard are returned but not printed again.
func (c *cli) step(
	ctx context.Context,
	w *wizard.Wizard,
	carters *listing.Controller[model.Carter],
	vendors *listing.Controller[model.Vendor],
	line string,
) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}

	switch w.Stage() {
	case wizard.StageSelectingCarters, wizard.StageSelectingVendors:
		switch fields[0] {
		case "n":
			return w.Next(ctx)
		case "p":
			if w.Stage() == wizard.StageSelectingCarters {
				fmt.Fprintln(c.out, "Already at the first step.")
				return nil
			}
			return w.Previous(ctx)
		case "q":
			w.Cancel()
			return nil
		case "r":
			if w.Stage() == wizard.StageSelectingCarters {
				return carters.Fetch(ctx)
			}
			return vendors.Fetch(ctx)
		}
		for _, f := range fields {
			id, err := strconv.ParseInt(f, 10, 64)
			if err != nil {
				fmt.Fprintf(c.out, "Unknown input %q.\n", f)
				return nil
			}
			if w.Stage() == wizard.StageSelectingCarters {
				w.ToggleCarter(id)
			} else {
				w.ToggleVendor(id)
			}
		}
		return nil

	case wizard.StageConfirmingDetails, wizard.StageFailed:
		switch fields[0] {
		case "d":
			if len(fields) != 2 {
				fmt.Fprintln(c.out, "Usage: d YYYY-MM-DD")
				return nil
			}
			w.SetBookingDate(fields[1])
			if err := w.ValidateDate(); err != nil {
				c.sink.Error(messageFor(err))
			}
			return nil
		case "c":
			_, err := w.Submit(ctx)
			if apperror.IsKind(err, apperror.KindValidation) {
				c.sink.Error(messageFor(err))
			}
			return err
		case "p":
			return w.Previous(ctx)
		case "q":
			w.Cancel()
			return nil
		}
		fmt.Fprintf(c.out, "Unknown input %q.\n", line)
		return nil
	}
	return nil
}

func (c *cli) render(w *wizard.Wizard) {
	d := w.Draft()
	fmt.Fprintln(c.out)
	switch d.Stage {
	case wizard.StageSelectingCarters:
		fmt.Fprintf(c.out, "Step 1/3: choose carters for venue #%d\n", d.VenueID)
		s := w.Carters()
		renderOptions(c, s.Status, s.Message, len(s.Items), func(i int) (int64, string, *float64) {
			v := s.Items[i]
			return v.ID, v.Name, v.Price
		}, d.CarterIDs)
		fmt.Fprintln(c.out, "Enter ids to toggle, n=next, r=reload, q=quit")

	case wizard.StageSelectingVendors:
		fmt.Fprintf(c.out, "Step 2/3: choose vendors for venue #%d\n", d.VenueID)
		s := w.Vendors()
		renderOptions(c, s.Status, s.Message, len(s.Items), func(i int) (int64, string, *float64) {
			v := s.Items[i]
			return v.ID, v.Name, v.Price
		}, d.VendorIDs)
		fmt.Fprintln(c.out, "Enter ids to toggle, n=next, p=back, r=reload, q=quit")

	case wizard.StageConfirmingDetails, wizard.StageFailed:
		fmt.Fprintf(c.out, "Step 3/3: confirm booking for venue #%d\n", d.VenueID)
		fmt.Fprintf(c.out, "  Carters: %s\n", joinIDs(d.CarterIDs))
		fmt.Fprintf(c.out, "  Vendors: %s\n", joinIDs(d.VendorIDs))
		date := d.BookingDate
		if date == "" {
			date = "not set"
		}
		fmt.Fprintf(c.out, "  Date:    %s\n", date)
		if d.Stage == wizard.StageFailed {
			fmt.Fprintf(c.out, "Last attempt failed: %s\n", d.Message)
		}
		fmt.Fprintf(c.out, "d YYYY-MM-DD=set date (today is %s), c=confirm, p=back, q=quit\n", wizard.Today(c.now()))
	}
}

func renderOptions(c *cli, status listing.Status, message string, n int, item func(i int) (int64, string, *float64), selected []int64) {
	switch status {
	case listing.StatusLoading:
		fmt.Fprintln(c.out, "  Loading...")
		return
	case listing.StatusFailed:
		fmt.Fprintf(c.out, "  Could not load the list: %s\n", message)
		return
	}
	if n == 0 {
		fmt.Fprintln(c.out, "  Nothing available.")
		return
	}
	for i := 0; i < n; i++ {
		id, name, price := item(i)
		mark := " "
		if slices.Contains(selected, id) {
			mark = "x"
		}
		fmt.Fprintf(c.out, "  [%s] %d  %s  %s\n", mark, id, name, formatOptionalPrice(price))
	}
}

func joinIDs(ids []int64) string {
	if len(ids) == 0 {
		return "none"
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = "#" + strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ", ")
}
