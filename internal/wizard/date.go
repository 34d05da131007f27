package wizard

import (
	"time"

	"github.com/nekogravitycat/event-planner/internal/model"
	"github.com/nekogravitycat/event-planner/internal/pkg/apperror"
)

var (
	ErrInvalidDate   = apperror.Validation("bookingDate", "Please choose a booking date that is today or later.")
	ErrVenueRequired = apperror.Validation("venueId", "A venue must be selected before booking.")
)

// ValidateDate accepts a YYYY-MM-DD date equal to or after the calendar day
// of now, in now's location. Time of day is ignored.
func ValidateDate(date string, now time.Time) error {
	if date == "" {
		return ErrInvalidDate
	}
	loc := now.Location()
	d, err := time.ParseInLocation(model.DateLayout, date, loc)
	if err != nil {
		return ErrInvalidDate
	}
	y, m, day := now.Date()
	today := time.Date(y, m, day, 0, 0, 0, 0, loc)
	if d.Before(today) {
		return ErrInvalidDate
	}
	return nil
}

// Today formats the calendar day of now.
func Today(now time.Time) string {
	return now.Format(model.DateLayout)
}
