// Package model holds the JSON shapes exchanged between the planner client
// and the marketplace API. Field names follow the public API, not Go naming.
package model

// DateLayout is the wire format of booking dates.
const DateLayout = "2006-01-02"

type Image struct {
	ID   int64  `json:"imgid"`
	Name string `json:"imgName"`
}

// Service is an entry of the services catalog that can be attached to venues.
type Service struct {
	ID          int64   `json:"serviceId"`
	Name        string  `json:"serviceName"`
	Description string  `json:"serviceDescription"`
	Price       float64 `json:"servicePrice"`
}

type Venue struct {
	ID       int64     `json:"venueId"`
	Name     string    `json:"venueName"`
	Address  string    `json:"venueAddress"`
	Price    float64   `json:"venuePrice"`
	OwnerID  int64     `json:"ownerId,omitempty"`
	Images   []Image   `json:"images"`
	Services []Service `json:"services"`
}

type Vendor struct {
	ID          int64     `json:"vendorId"`
	Name        string    `json:"vendorName"`
	Contact     string    `json:"vendorContact"`
	Specialties []string  `json:"vendorSpecialties"`
	Description string    `json:"description"`
	Price       *float64  `json:"price"`
	Images      []Image   `json:"images"`
	Services    []Service `json:"services"`
}

type Carter struct {
	ID          int64    `json:"carterId"`
	Name        string   `json:"carterName"`
	Contact     string   `json:"carterContact"`
	Specialties []string `json:"carterSpecialties"`
	Description string   `json:"description"`
	Price       *float64 `json:"price"`
	Images      []Image  `json:"images"`
}

// BookingStatus values are capitalized on the wire.
type BookingStatus string

const (
	BookingPending   BookingStatus = "Pending"
	BookingConfirmed BookingStatus = "Confirmed"
	BookingCancelled BookingStatus = "Cancelled"
)

type Booking struct {
	ID          int64         `json:"bookingId"`
	Venue       Venue         `json:"venue"`
	Vendors     []Vendor      `json:"vendors"`
	Carters     []Carter      `json:"carters"`
	TotalPrice  float64       `json:"totalPrice"`
	BookingDate string        `json:"bookingDate"`
	Status      BookingStatus `json:"status"`
}

// BookingRequest is the body of POST /bookings. IdempotencyKey travels in
// the Idempotency-Key header; it stays the same across retries of one draft.
type BookingRequest struct {
	VenueID        int64   `json:"venueId"`
	BookingDate    string  `json:"bookingDate"`
	VendorIDs      []int64 `json:"vendorIds"`
	CarterIDs      []int64 `json:"carterIds"`
	IdempotencyKey string  `json:"-"`
}

type UserProfile struct {
	ID       int64     `json:"userId"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	Images   []Image   `json:"images"`
	Venues   []Venue   `json:"venues"`
	Bookings []Booking `json:"bookings"`
}

// LoginRequest carries either Name or Email, depending on the login mode.
type LoginRequest struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token   string `json:"token"`
	Name    string `json:"name"`
	Message string `json:"message,omitempty"`
}

// SignupUser is the JSON part "user" of POST /signup.
type SignupUser struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// VenueInput is the JSON part "venue" of POST /venues.
type VenueInput struct {
	Name    string  `json:"venueName"`
	Address string  `json:"venueAddress"`
	Price   float64 `json:"venuePrice"`
}

// VendorInput is the JSON part "vendor" of POST /vendors.
type VendorInput struct {
	Name        string   `json:"vendorName"`
	Contact     string   `json:"vendorContact"`
	Specialties []string `json:"vendorSpecialties"`
	Description string   `json:"description"`
	Price       *float64 `json:"price"`
}

// CarterInput is the JSON part "carter" of POST /carters.
type CarterInput struct {
	Name        string   `json:"carterName"`
	Contact     string   `json:"carterContact"`
	Specialties []string `json:"carterSpecialties"`
	Description string   `json:"description"`
	Price       *float64 `json:"price"`
}
