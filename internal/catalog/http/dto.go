package http

// CreateServiceRequest is the body of POST /services.
type CreateServiceRequest struct {
	Name        string  `json:"serviceName" binding:"required"`
	Description string  `json:"serviceDescription"`
	Price       float64 `json:"servicePrice" binding:"min=0"`
}
