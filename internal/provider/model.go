package provider

import (
	"net/http"
	"time"

	"github.com/nekogravitycat/event-planner/internal/file"
	"github.com/nekogravitycat/event-planner/internal/model"
	"github.com/nekogravitycat/event-planner/internal/pkg/apperror"
)

var (
	ErrVendorNotFound = apperror.New(http.StatusNotFound, "vendor not found")
	ErrCarterNotFound = apperror.New(http.StatusNotFound, "carter not found")
	ErrNameRequired   = apperror.New(http.StatusBadRequest, "name is required")
	ErrInvalidPrice   = apperror.New(http.StatusBadRequest, "price cannot be negative")
	ErrInvalidKind    = apperror.New(http.StatusBadRequest, "unknown provider kind")
)

// Kind separates vendors from carters; both share one table.
type Kind string

const (
	KindVendor Kind = "vendor"
	KindCarter Kind = "carter"
)

func (k Kind) Valid() bool {
	return k == KindVendor || k == KindCarter
}

func (k Kind) owner() file.OwnerKind {
	if k == KindCarter {
		return file.OwnerCarter
	}
	return file.OwnerVendor
}

// NotFound returns the not-found error for the kind.
func (k Kind) NotFound() error {
	if k == KindCarter {
		return ErrCarterNotFound
	}
	return ErrVendorNotFound
}

// Provider is a vendor or carter. Images is filled by the service.
type Provider struct {
	ID          int64
	Kind        Kind
	Name        string
	Contact     string
	Specialties []string
	Description string
	Price       *float64
	CreatedAt   time.Time
	Images      []model.Image
}

// PriceOrZero treats an unpriced provider as free.
func (p *Provider) PriceOrZero() float64 {
	if p.Price == nil {
		return 0
	}
	return *p.Price
}

func (p *Provider) ToVendor() model.Vendor {
	return model.Vendor{
		ID:          p.ID,
		Name:        p.Name,
		Contact:     p.Contact,
		Specialties: nonNilStrings(p.Specialties),
		Description: p.Description,
		Price:       p.Price,
		Images:      nonNilImages(p.Images),
		Services:    []model.Service{},
	}
}

func (p *Provider) ToCarter() model.Carter {
	return model.Carter{
		ID:          p.ID,
		Name:        p.Name,
		Contact:     p.Contact,
		Specialties: nonNilStrings(p.Specialties),
		Description: p.Description,
		Price:       p.Price,
		Images:      nonNilImages(p.Images),
	}
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilImages(images []model.Image) []model.Image {
	if images == nil {
		return []model.Image{}
	}
	return images
}
