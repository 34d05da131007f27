package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/nekogravitycat/event-planner/internal/config"
	"github.com/nekogravitycat/event-planner/internal/model"
	"github.com/nekogravitycat/event-planner/internal/pkg/apperror"
	"github.com/nekogravitycat/event-planner/internal/session"
)

// ServerMessage returns the message the server put in an error response, if
// there was a response and it carried one.
func ServerMessage(err error) (string, bool) {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) || appErr.Body == "" {
		return "", false
	}
	msg := serverMessage([]byte(appErr.Body))
	return msg, msg != ""
}

// Login exchanges credentials for a token. identifier is a name or an email
// depending on the configured login field. The caller stores the session.
func (c *Client) Login(ctx context.Context, identifier, password string) (*model.LoginResponse, error) {
	body := model.LoginRequest{Password: password}
	if c.loginField == config.LoginByEmail {
		body.Email = identifier
	} else {
		body.Name = identifier
	}

	resp, err := c.Request(ctx, http.MethodPost, "/login", body, false)
	if err != nil {
		return nil, err
	}

	var out model.LoginResponse
	if err := resp.Decode(&out); err != nil {
		return nil, err
	}
	if out.Token == "" {
		return nil, apperror.Malformed("Login response did not include a token.", nil)
	}
	if out.Name == "" {
		out.Name = identifier
	}
	return &out, nil
}

// Signup creates an account; image is optional.
func (c *Client) Signup(ctx context.Context, user model.SignupUser, image *FilePart) error {
	form := &Multipart{JSONField: "user", JSON: user, FileField: "image"}
	if image != nil {
		form.Files = []FilePart{*image}
	}
	_, err := c.Request(ctx, http.MethodPost, "/signup", form, false)
	return err
}

// Username resolves the display name of the current token.
func (c *Client) Username(ctx context.Context) (string, error) {
	token, ok := c.store.Token()
	if !ok {
		return "", apperror.Unauthenticated("No authentication token found. Please log in.")
	}

	resp, err := c.Request(ctx, http.MethodGet, "/username/"+url.PathEscape(token), nil, true)
	if err != nil {
		return "", err
	}

	// Plain text, but tolerate a JSON string.
	name := strings.TrimSpace(string(resp.Body))
	var s string
	if json.Unmarshal(resp.Body, &s) == nil {
		name = s
	}
	if name == "" {
		return "", apperror.Malformed("Username not found in token response.", nil)
	}
	return name, nil
}

func (c *Client) UserByName(ctx context.Context, name string) (*model.UserProfile, error) {
	resp, err := c.Request(ctx, http.MethodGet, "/users/name/"+url.PathEscape(name), nil, true)
	if err != nil {
		return nil, err
	}
	var u model.UserProfile
	if err := resp.Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Profile loads the current user's profile and bookings.
func (c *Client) Profile(ctx context.Context) (*model.UserProfile, error) {
	name, err := c.Username(ctx)
	if err != nil {
		return nil, err
	}
	return c.UserByName(ctx, name)
}

// CurrentUserID reads the user id from the stored token. A missing or
// unreadable token is an unauthenticated error.
func (c *Client) CurrentUserID() (int64, error) {
	token, ok := c.store.Token()
	if !ok {
		return 0, apperror.Unauthenticated("You must be logged in.")
	}
	claims, err := session.DecodeToken(token)
	if err != nil {
		return 0, &apperror.AppError{Kind: apperror.KindUnauthenticated, Message: "Invalid or expired token.", Err: err}
	}
	id, err := strconv.ParseInt(claims.UserID, 10, 64)
	if err != nil {
		return 0, &apperror.AppError{Kind: apperror.KindUnauthenticated, Message: "Invalid or expired token.", Err: err}
	}
	return id, nil
}

func (c *Client) ListVenues(ctx context.Context) ([]model.Venue, error) {
	return getList[model.Venue](ctx, c, "/venues")
}

func (c *Client) ListVenuesByUser(ctx context.Context, userID int64) ([]model.Venue, error) {
	return getList[model.Venue](ctx, c, fmt.Sprintf("/venues/user/%d", userID))
}

func (c *Client) CreateVenue(ctx context.Context, in model.VenueInput, images []FilePart) (*model.Venue, error) {
	var out model.Venue
	err := c.create(ctx, "/venues", &Multipart{JSONField: "venue", JSON: in, FileField: "images", Files: images}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListVenueServices(ctx context.Context, venueID int64) ([]model.Service, error) {
	return getList[model.Service](ctx, c, fmt.Sprintf("/venues/%d/services", venueID))
}

// AttachVenueServices links catalog services to a venue.
func (c *Client) AttachVenueServices(ctx context.Context, venueID int64, serviceIDs []int64) error {
	if len(serviceIDs) == 0 {
		return apperror.Validation("serviceIds", "Select at least one service.")
	}
	_, err := c.Request(ctx, http.MethodPost, fmt.Sprintf("/venues/%d/services", venueID), serviceIDs, true)
	return err
}

func (c *Client) DetachVenueService(ctx context.Context, venueID, serviceID int64) error {
	_, err := c.Request(ctx, http.MethodDelete, fmt.Sprintf("/venues/%d/services/%d", venueID, serviceID), nil, true)
	return err
}

func (c *Client) ListVendors(ctx context.Context) ([]model.Vendor, error) {
	return getList[model.Vendor](ctx, c, "/vendors")
}

func (c *Client) CreateVendor(ctx context.Context, in model.VendorInput, images []FilePart) (*model.Vendor, error) {
	var out model.Vendor
	err := c.create(ctx, "/vendors", &Multipart{JSONField: "vendor", JSON: in, FileField: "images", Files: images}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListCarters(ctx context.Context) ([]model.Carter, error) {
	return getList[model.Carter](ctx, c, "/carters")
}

func (c *Client) CreateCarter(ctx context.Context, in model.CarterInput, images []FilePart) (*model.Carter, error) {
	var out model.Carter
	err := c.create(ctx, "/carters", &Multipart{JSONField: "carter", JSON: in, FileField: "images", Files: images}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListServices(ctx context.Context) ([]model.Service, error) {
	return getList[model.Service](ctx, c, "/services")
}

// CreateBooking submits a booking, sending req.IdempotencyKey as the
// Idempotency-Key header when set. A 2xx response is a success even if its
// body cannot be read back, in which case the returned booking is nil.
func (c *Client) CreateBooking(ctx context.Context, req model.BookingRequest) (*model.Booking, error) {
	var header http.Header
	if req.IdempotencyKey != "" {
		header = http.Header{IdempotencyHeader: []string{req.IdempotencyKey}}
	}

	resp, err := c.do(ctx, http.MethodPost, "/bookings", req, true, header)
	if err != nil {
		return nil, err
	}

	if len(bytes.TrimSpace(resp.Body)) == 0 {
		return nil, nil
	}
	var b model.Booking
	if err := json.Unmarshal(resp.Body, &b); err != nil {
		c.log.Debug("booking response not decodable", zap.Error(err))
		return nil, nil
	}
	return &b, nil
}

func (c *Client) CancelBooking(ctx context.Context, bookingID int64) error {
	_, err := c.Request(ctx, http.MethodPut, fmt.Sprintf("/bookings/cancel/%d", bookingID), nil, true)
	return err
}

func (c *Client) create(ctx context.Context, path string, form *Multipart, out any) error {
	resp, err := c.Request(ctx, http.MethodPost, path, form, true)
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(resp.Body)) == 0 {
		return nil
	}
	return resp.Decode(out)
}

func getList[T any](ctx context.Context, c *Client, path string) ([]T, error) {
	resp, err := c.Request(ctx, http.MethodGet, path, nil, true)
	if err != nil {
		return nil, err
	}
	return DecodeList[T](resp)
}
