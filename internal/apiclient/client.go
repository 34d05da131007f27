package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/nekogravitycat/event-planner/internal/config"
	"github.com/nekogravitycat/event-planner/internal/pkg/apperror"
	"github.com/nekogravitycat/event-planner/internal/pkg/storage"
	"github.com/nekogravitycat/event-planner/internal/session"
)

// IdempotencyHeader carries the optional key sent with booking submissions.
const IdempotencyHeader = "Idempotency-Key"

// maxMessageLen bounds how much of a plain-text error body is shown to users.
const maxMessageLen = 300

// Response is a successful (2xx) API response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Decode unmarshals the body into v. A body that does not fit v is a
// malformed response.
func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return apperror.Malformed("Invalid response format from server.", err)
	}
	return nil
}

// DecodeList decodes a list endpoint. Anything other than a JSON array
// (including null) is a malformed response.
func DecodeList[T any](r *Response) ([]T, error) {
	trimmed := bytes.TrimSpace(r.Body)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, apperror.Malformed("Invalid response format: expected a list.", nil)
	}
	items := make([]T, 0)
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, apperror.Malformed("Invalid response format: expected a list.", err)
	}
	return items, nil
}

// Client issues requests to the marketplace API. It reads the bearer token
// from the injected session store and never writes to it.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	store       session.Store
	log         *zap.Logger
	limiter     *rate.Limiter
	images      *storage.ImageProcessor
	maxImageDim int
	loginField  string
	idemKey     func() string
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the request timeout on a copy of the HTTP client, so a
// client shared through WithHTTPClient is left untouched.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		hc := *c.httpClient
		hc.Timeout = d
		c.httpClient = &hc
	}
}

func WithLogger(log *zap.Logger) Option {
	return func(c *Client) { c.log = log }
}

// WithRateLimit paces outgoing requests to rps with the given burst.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps > 0 {
			if burst < 1 {
				burst = 1
			}
			c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
		}
	}
}

// WithLoginField selects whether Login sends the identifier as name or email.
func WithLoginField(field string) Option {
	return func(c *Client) { c.loginField = field }
}

// WithMaxImageDimension bounds uploaded images; 0 uploads files untouched.
func WithMaxImageDimension(px int) Option {
	return func(c *Client) { c.maxImageDim = px }
}

// WithIdempotencyKeys enables NewIdempotencyKey, minting keys with gen or
// random UUIDs when gen is nil. The key only helps if the server
// deduplicates on it.
func WithIdempotencyKeys(gen func() string) Option {
	return func(c *Client) {
		if gen == nil {
			gen = func() string { return uuid.NewString() }
		}
		c.idemKey = gen
	}
}

// New creates a Client for baseURL, e.g. "http://localhost:8085".
func New(baseURL string, store session.Store, opts ...Option) *Client {
	c := &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		store:       store,
		log:         zap.NewNop(),
		images:      storage.NewImageProcessor(),
		maxImageDim: 1600,
		loginField:  config.LoginByName,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewFromConfig wires a Client from the planner configuration.
func NewFromConfig(cfg *config.ClientConfig, store session.Store, log *zap.Logger) *Client {
	opts := []Option{
		WithTimeout(cfg.APITimeout),
		WithLogger(log),
		WithRateLimit(cfg.RateLimit, cfg.RateBurst),
		WithLoginField(cfg.LoginField),
		WithMaxImageDimension(cfg.UploadMaxDimension),
	}
	if cfg.BookingIdempotency {
		opts = append(opts, WithIdempotencyKeys(nil))
	}
	return New(cfg.APIBaseURL, store, opts...)
}

// NewIdempotencyKey returns a fresh key for one booking draft, or "" when
// idempotency keys are disabled.
func (c *Client) NewIdempotencyKey() string {
	if c.idemKey == nil {
		return ""
	}
	return c.idemKey()
}

// Request sends one API call. body may be nil, a *Multipart, or any value
// that encodes as JSON. When auth is set and the session has no token the
// call fails with an unauthenticated error without touching the network.
func (c *Client) Request(ctx context.Context, method, path string, body any, auth bool) (*Response, error) {
	return c.do(ctx, method, path, body, auth, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body any, auth bool, header http.Header) (*Response, error) {
	var token string
	if auth {
		var ok bool
		token, ok = c.store.Token()
		if !ok {
			return nil, apperror.Unauthenticated("You must be logged in.")
		}
	}

	reader, contentType, err := c.encodeBody(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if auth {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, apperror.Network(err)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Debug("request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, apperror.Network(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperror.Network(err)
	}

	c.log.Debug("request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, apperror.HTTP(resp.StatusCode, string(data), serverMessage(data))
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
	}, nil
}

func (c *Client) encodeBody(body any) (io.Reader, string, error) {
	switch b := body.(type) {
	case nil:
		return nil, "", nil
	case *Multipart:
		return b.encode(c.images, c.maxImageDim, c.log)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, "", fmt.Errorf("failed to encode request body: %w", err)
		}
		return bytes.NewReader(data), "application/json", nil
	}
}

// serverMessage extracts the message a server put in an error body:
// {"message": ...}, {"error": ...}, a JSON string, or the plain text itself.
func serverMessage(body []byte) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return ""
	}

	var obj struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(trimmed, &obj); err == nil {
		if obj.Message != "" {
			return obj.Message
		}
		return obj.Error
	}

	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		return s
	}

	if trimmed[0] == '<' {
		// HTML error pages are not worth showing.
		return ""
	}
	if len(trimmed) > maxMessageLen {
		cut := maxMessageLen
		for cut > 0 && !utf8.RuneStart(trimmed[cut]) {
			cut--
		}
		trimmed = trimmed[:cut]
	}
	return string(trimmed)
}
