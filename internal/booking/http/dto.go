package http

// CreateBookingRequest is the body of POST /bookings.
type CreateBookingRequest struct {
	VenueID     int64   `json:"venueId" binding:"required,min=1"`
	BookingDate string  `json:"bookingDate" binding:"required"`
	VendorIDs   []int64 `json:"vendorIds"`
	CarterIDs   []int64 `json:"carterIds"`
}
