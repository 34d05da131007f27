package file

import (
	"net/http"
	"time"

	"github.com/nekogravitycat/event-planner/internal/model"
	"github.com/nekogravitycat/event-planner/internal/pkg/apperror"
)

var (
	ErrNotFound     = apperror.New(http.StatusNotFound, "image not found")
	ErrNotImage     = apperror.New(http.StatusBadRequest, "only image files can be uploaded")
	ErrTooLarge     = apperror.New(http.StatusRequestEntityTooLarge, "image is too large")
	ErrNoThumbnail  = apperror.New(http.StatusNotFound, "thumbnail not available for this image")
	ErrInvalidOwner = apperror.New(http.StatusBadRequest, "invalid image owner")
)

// OwnerKind names the table an image belongs to.
type OwnerKind string

const (
	OwnerUser   OwnerKind = "user"
	OwnerVenue  OwnerKind = "venue"
	OwnerVendor OwnerKind = "vendor"
	OwnerCarter OwnerKind = "carter"
)

// Image is an uploaded picture attached to a user, venue, vendor or carter.
type Image struct {
	ID            int64
	Name          string
	OwnerKind     OwnerKind
	OwnerID       int64
	Position      int
	StoragePath   string
	ThumbnailPath *string
	ContentType   string
	Size          int64
	CreatedAt     time.Time
}

// Ref is the wire form of the image.
func (i *Image) Ref() model.Image {
	return model.Image{ID: i.ID, Name: i.Name}
}
