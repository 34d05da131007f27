package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/event-planner/internal/config"
	"github.com/nekogravitycat/event-planner/internal/model"
	"github.com/nekogravitycat/event-planner/internal/pkg/apperror"
	"github.com/nekogravitycat/event-planner/internal/session"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stub struct {
	srv  *httptest.Server
	hits atomic.Int32
}

// newStub starts a gin server; routes registers the handlers under test.
func newStub(t *testing.T, routes func(r *gin.Engine)) *stub {
	t.Helper()
	s := &stub{}
	r := gin.New()
	r.Use(func(c *gin.Context) {
		s.hits.Add(1)
		c.Next()
	})
	routes(r)
	s.srv = httptest.NewServer(r)
	t.Cleanup(s.srv.Close)
	return s
}

func loggedIn(t *testing.T, token string) *session.MemoryStore {
	t.Helper()
	store := session.NewMemoryStore()
	require.NoError(t, store.SetSession(token, "alice"))
	return store
}

func TestRequestWithoutTokenNeverHitsNetwork(t *testing.T) {
	s := newStub(t, func(r *gin.Engine) {
		r.GET("/carters", func(c *gin.Context) { c.JSON(http.StatusOK, []any{}) })
	})
	client := New(s.srv.URL, session.NewMemoryStore())

	_, err := client.Request(context.Background(), http.MethodGet, "/carters", nil, true)

	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindUnauthenticated))
	assert.Equal(t, int32(0), s.hits.Load())
}

func TestRequestAttachesBearerToken(t *testing.T) {
	var gotAuth string
	s := newStub(t, func(r *gin.Engine) {
		r.GET("/vendors", func(c *gin.Context) {
			gotAuth = c.GetHeader("Authorization")
			c.JSON(http.StatusOK, []model.Vendor{{ID: 1, Name: "Lights Co"}})
		})
		r.POST("/login", func(c *gin.Context) {
			gotAuth = c.GetHeader("Authorization")
			c.JSON(http.StatusOK, model.LoginResponse{Token: "t", Name: "alice"})
		})
	})
	client := New(s.srv.URL, loggedIn(t, "tok-123"))

	vendors, err := client.ListVendors(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-123", gotAuth)
	require.Len(t, vendors, 1)
	assert.Equal(t, "Lights Co", vendors[0].Name)

	_, err = client.Login(context.Background(), "alice", "pw")
	require.NoError(t, err)
	assert.Empty(t, gotAuth, "unauthenticated calls carry no token")
}

func TestRequestClassifiesHTTPErrors(t *testing.T) {
	s := newStub(t, func(r *gin.Engine) {
		r.GET("/json-message", func(c *gin.Context) {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Venue is already booked on this date"})
		})
		r.GET("/json-error", func(c *gin.Context) {
			c.JSON(http.StatusNotFound, gin.H{"error": "venue not found"})
		})
		r.GET("/text", func(c *gin.Context) {
			c.String(http.StatusConflict, "Booking date unavailable")
		})
		r.GET("/empty", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })
		r.GET("/expired", func(c *gin.Context) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
		})
	})
	client := New(s.srv.URL, loggedIn(t, "tok"))
	ctx := context.Background()

	tests := []struct {
		path    string
		kind    apperror.Kind
		status  int
		message string
		hasMsg  bool
	}{
		{"/json-message", apperror.KindHTTP, 400, "Venue is already booked on this date", true},
		{"/json-error", apperror.KindHTTP, 404, "venue not found", true},
		{"/text", apperror.KindHTTP, 409, "Booking date unavailable", true},
		{"/empty", apperror.KindHTTP, 500, "request failed with status 500", false},
		{"/expired", apperror.KindUnauthenticated, 401, "invalid or expired token", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			_, err := client.Request(ctx, http.MethodGet, tt.path, nil, true)
			require.Error(t, err)

			var appErr *apperror.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, tt.kind, appErr.Kind)
			assert.Equal(t, tt.status, appErr.Code)
			assert.Equal(t, tt.message, appErr.Message)

			msg, ok := ServerMessage(err)
			assert.Equal(t, tt.hasMsg, ok)
			if tt.hasMsg {
				assert.Equal(t, tt.message, msg)
			}
		})
	}
}

func TestRequestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := New(url, loggedIn(t, "tok"), WithTimeout(time.Second))
	_, err := client.Request(context.Background(), http.MethodGet, "/venues", nil, true)

	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindNetwork))
	_, ok := ServerMessage(err)
	assert.False(t, ok)
}

func TestListRejectsNonArrayBody(t *testing.T) {
	s := newStub(t, func(r *gin.Engine) {
		r.GET("/carters", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"items": []any{}})
		})
		r.GET("/vendors", func(c *gin.Context) { c.String(http.StatusOK, "null") })
		r.GET("/services", func(c *gin.Context) { c.String(http.StatusOK, "[]") })
	})
	client := New(s.srv.URL, loggedIn(t, "tok"))
	ctx := context.Background()

	_, err := client.ListCarters(ctx)
	assert.True(t, apperror.IsKind(err, apperror.KindMalformedResponse))

	_, err = client.ListVendors(ctx)
	assert.True(t, apperror.IsKind(err, apperror.KindMalformedResponse))

	services, err := client.ListServices(ctx)
	require.NoError(t, err)
	assert.NotNil(t, services)
	assert.Empty(t, services)
}

func TestCreateBookingSendsExactBody(t *testing.T) {
	var got []map[string]any
	var keys []string
	s := newStub(t, func(r *gin.Engine) {
		r.POST("/bookings", func(c *gin.Context) {
			var body map[string]any
			assert.NoError(t, c.ShouldBindJSON(&body))
			got = append(got, body)
			keys = append(keys, c.GetHeader(IdempotencyHeader))
			c.JSON(http.StatusCreated, model.Booking{ID: 11, Status: model.BookingPending})
		})
	})

	client := New(s.srv.URL, loggedIn(t, "tok"))

	b, err := client.CreateBooking(context.Background(), model.BookingRequest{
		VenueID:     7,
		BookingDate: "2030-05-01",
		VendorIDs:   []int64{9},
		CarterIDs:   []int64{3},

		IdempotencyKey: "key-1",
	})
	require.NoError(t, err)
	require.NotNil(t, b)
	assert.Equal(t, int64(11), b.ID)

	require.Len(t, got, 1)
	assert.Equal(t, map[string]any{
		"venueId":     float64(7),
		"bookingDate": "2030-05-01",
		"vendorIds":   []any{float64(9)},
		"carterIds":   []any{float64(3)},
	}, got[0])
	assert.Equal(t, []string{"key-1"}, keys)
}

func TestCreateBookingWithoutKeySendsNoHeader(t *testing.T) {
	var sent []bool
	s := newStub(t, func(r *gin.Engine) {
		r.POST("/bookings", func(c *gin.Context) {
			_, ok := c.Request.Header[IdempotencyHeader]
			sent = append(sent, ok)
			c.JSON(http.StatusCreated, model.Booking{ID: 1})
		})
	})
	n := 0
	client := New(s.srv.URL, loggedIn(t, "tok"), WithIdempotencyKeys(func() string {
		n++
		return "unused"
	}))

	_, err := client.CreateBooking(context.Background(), model.BookingRequest{VenueID: 1})
	require.NoError(t, err)
	assert.Equal(t, []bool{false}, sent)
	assert.Zero(t, n)
}

func TestNewIdempotencyKey(t *testing.T) {
	assert.Empty(t, New("http://x", session.NewMemoryStore()).NewIdempotencyKey())

	client := New("http://x", session.NewMemoryStore(), WithIdempotencyKeys(nil))
	a, b := client.NewIdempotencyKey(), client.NewIdempotencyKey()
	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}

func TestWithTimeoutLeavesSharedClientAlone(t *testing.T) {
	shared := &http.Client{}
	client := New("http://x", session.NewMemoryStore(), WithHTTPClient(shared), WithTimeout(2*time.Second))

	assert.Zero(t, shared.Timeout)
	assert.Equal(t, 2*time.Second, client.httpClient.Timeout)
	assert.NotSame(t, shared, client.httpClient)
}

func TestServerMessageTruncatesOnRuneBoundary(t *testing.T) {
	// 'é' is two bytes, so an odd byte offset falls inside a rune.
	body := "x" + strings.Repeat("é", maxMessageLen)
	s := newStub(t, func(r *gin.Engine) {
		r.GET("/venues", func(c *gin.Context) { c.String(http.StatusInternalServerError, body) })
	})
	client := New(s.srv.URL, loggedIn(t, "tok"))

	_, err := client.Request(context.Background(), http.MethodGet, "/venues", nil, true)
	require.Error(t, err)
	msg, ok := ServerMessage(err)
	require.True(t, ok)
	assert.True(t, utf8.ValidString(msg))
	assert.LessOrEqual(t, len(msg), maxMessageLen)
	assert.Equal(t, maxMessageLen-1, len(msg))
	assert.True(t, strings.HasPrefix(body, msg))
}

func TestCreateBookingToleratesEmptyBody(t *testing.T) {
	s := newStub(t, func(r *gin.Engine) {
		r.POST("/bookings", func(c *gin.Context) { c.String(http.StatusOK, "Booking created") })
	})
	client := New(s.srv.URL, loggedIn(t, "tok"))

	b, err := client.CreateBooking(context.Background(), model.BookingRequest{VenueID: 1})
	require.NoError(t, err)
	assert.Nil(t, b)
}

func TestLoginField(t *testing.T) {
	var got model.LoginRequest
	s := newStub(t, func(r *gin.Engine) {
		r.POST("/login", func(c *gin.Context) {
			assert.NoError(t, c.ShouldBindJSON(&got))
			c.JSON(http.StatusOK, gin.H{"token": "abc", "message": "Login successful"})
		})
	})

	client := New(s.srv.URL, session.NewMemoryStore(), WithLoginField(config.LoginByEmail))
	resp, err := client.Login(context.Background(), "a@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", got.Email)
	assert.Empty(t, got.Name)
	assert.Equal(t, "abc", resp.Token)
	assert.Equal(t, "a@example.com", resp.Name, "falls back to the identifier")

	client = New(s.srv.URL, session.NewMemoryStore())
	_, err = client.Login(context.Background(), "alice", "pw")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Name)
}

func TestLoginWithoutTokenIsMalformed(t *testing.T) {
	s := newStub(t, func(r *gin.Engine) {
		r.POST("/login", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"message": "ok"}) })
	})
	client := New(s.srv.URL, session.NewMemoryStore())

	_, err := client.Login(context.Background(), "alice", "pw")
	assert.True(t, apperror.IsKind(err, apperror.KindMalformedResponse))
}

func TestProfileResolvesNameThenUser(t *testing.T) {
	s := newStub(t, func(r *gin.Engine) {
		r.GET("/username/:token", func(c *gin.Context) {
			assert.Equal(t, "tok", c.Param("token"))
			c.String(http.StatusOK, "alice smith")
		})
		r.GET("/users/name/:name", func(c *gin.Context) {
			c.JSON(http.StatusOK, model.UserProfile{ID: 5, Name: c.Param("name")})
		})
	})
	client := New(s.srv.URL, loggedIn(t, "tok"))

	u, err := client.Profile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(5), u.ID)
	assert.Equal(t, "alice smith", u.Name)
}

func TestCurrentUserID(t *testing.T) {
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "42"}).SignedString([]byte("k"))
	require.NoError(t, err)

	id, err := New("http://unused", loggedIn(t, tok)).CurrentUserID()
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	_, err = New("http://unused", loggedIn(t, "not-a-jwt")).CurrentUserID()
	assert.True(t, apperror.IsKind(err, apperror.KindUnauthenticated))

	_, err = New("http://unused", session.NewMemoryStore()).CurrentUserID()
	assert.True(t, apperror.IsKind(err, apperror.KindUnauthenticated))
}

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.White)
	buf := new(bytes.Buffer)
	require.NoError(t, png.Encode(buf, img))
	return buf.Bytes()
}

func TestCreateVenueMultipart(t *testing.T) {
	type upload struct {
		name, ctype string
		size        int
	}
	var gotVenue model.VenueInput
	var uploads []upload

	s := newStub(t, func(r *gin.Engine) {
		r.POST("/venues", func(c *gin.Context) {
			form, err := c.MultipartForm()
			if !assert.NoError(t, err) || !assert.Len(t, form.Value["venue"], 1) {
				c.Status(http.StatusBadRequest)
				return
			}
			assert.NoError(t, json.Unmarshal([]byte(form.Value["venue"][0]), &gotVenue))
			for _, fh := range form.File["images"] {
				f, err := fh.Open()
				if !assert.NoError(t, err) {
					continue
				}
				data, _ := io.ReadAll(f)
				f.Close()
				uploads = append(uploads, upload{fh.Filename, fh.Header.Get("Content-Type"), len(data)})
			}
			c.JSON(http.StatusCreated, model.Venue{ID: 3, Name: gotVenue.Name})
		})
	})
	client := New(s.srv.URL, loggedIn(t, "tok"), WithMaxImageDimension(50))

	venue, err := client.CreateVenue(context.Background(),
		model.VenueInput{Name: "Hall", Address: "1 Main St", Price: 1200.5},
		[]FilePart{
			{Filename: "big.png", ContentType: "image/png", Content: testPNG(t, 200, 100)},
			{Filename: "small.png", ContentType: "image/png", Content: testPNG(t, 10, 10)},
			{Filename: "notes.txt", Content: []byte("hello")},
		},
	)
	require.NoError(t, err)
	assert.Equal(t, int64(3), venue.ID)
	assert.Equal(t, model.VenueInput{Name: "Hall", Address: "1 Main St", Price: 1200.5}, gotVenue)

	require.Len(t, uploads, 3)
	assert.Equal(t, "big.jpg", uploads[0].name)
	assert.Equal(t, "image/jpeg", uploads[0].ctype)
	assert.Equal(t, "small.png", uploads[1].name)
	assert.Equal(t, "image/png", uploads[1].ctype)
	assert.Equal(t, "application/octet-stream", uploads[2].ctype)
	assert.Equal(t, 5, uploads[2].size)
}

func TestAttachVenueServicesRequiresSelection(t *testing.T) {
	var got []int64
	s := newStub(t, func(r *gin.Engine) {
		r.POST("/venues/:id/services", func(c *gin.Context) {
			assert.NoError(t, c.ShouldBindJSON(&got))
			c.Status(http.StatusOK)
		})
	})
	client := New(s.srv.URL, loggedIn(t, "tok"))

	err := client.AttachVenueServices(context.Background(), 4, nil)
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))
	assert.Equal(t, int32(0), s.hits.Load())

	require.NoError(t, client.AttachVenueServices(context.Background(), 4, []int64{1, 2}))
	assert.Equal(t, []int64{1, 2}, got)
}

func TestRateLimitHonoursContext(t *testing.T) {
	s := newStub(t, func(r *gin.Engine) {
		r.GET("/services", func(c *gin.Context) { c.JSON(http.StatusOK, []any{}) })
	})
	client := New(s.srv.URL, loggedIn(t, "tok"), WithRateLimit(0.001, 1))

	_, err := client.ListServices(context.Background())
	require.NoError(t, err, "burst allows the first call")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = client.ListServices(ctx)
	assert.True(t, apperror.IsKind(err, apperror.KindNetwork))
	assert.Equal(t, int32(1), s.hits.Load())
}
