package http

// CreateVendorRequest is the "vendor" JSON part of POST /vendors.
type CreateVendorRequest struct {
	Name        string   `json:"vendorName" binding:"required"`
	Contact     string   `json:"vendorContact"`
	Specialties []string `json:"vendorSpecialties"`
	Description string   `json:"description"`
	Price       *float64 `json:"price" binding:"omitempty,min=0"`
}

// CreateCarterRequest is the "carter" JSON part of POST /carters.
type CreateCarterRequest struct {
	Name        string   `json:"carterName" binding:"required"`
	Contact     string   `json:"carterContact"`
	Specialties []string `json:"carterSpecialties"`
	Description string   `json:"description"`
	Price       *float64 `json:"price" binding:"omitempty,min=0"`
}
