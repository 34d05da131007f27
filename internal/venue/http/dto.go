package http

// CreateVenueRequest is the "venue" JSON part of POST /venues.
type CreateVenueRequest struct {
	Name    string  `json:"venueName" binding:"required"`
	Address string  `json:"venueAddress"`
	Price   float64 `json:"venuePrice" binding:"min=0"`
}
