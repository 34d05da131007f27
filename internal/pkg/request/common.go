package request

// ByIDRequest is a common struct for endpoints that require an ID path parameter.
type ByIDRequest struct {
	ID int64 `uri:"id" binding:"required,min=1"`
}

// VenueServiceRequest addresses one service link of a venue.
type VenueServiceRequest struct {
	ID        int64 `uri:"id" binding:"required,min=1"`
	ServiceID int64 `uri:"sid" binding:"required,min=1"`
}
