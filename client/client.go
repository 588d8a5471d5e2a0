// Package client is a small SDK for the rideyard API. It keeps a local
// mirror of bikes and bookings, applies optimistic updates for creates,
// and reconciles with the server through typed errors, idempotent
// retries, and the change feed.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const defaultTimeout = 10 * time.Second

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	cache      cache
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Bikes returns the cached fleet. Call RefreshBikes first if the cache
// may be empty.
func (c *Client) Bikes() []Bike { return c.cache.Bikes() }

// Bookings returns the cached bookings, optimistic entries included.
func (c *Client) Bookings() []Booking { return c.cache.Bookings() }

func (c *Client) Login(ctx context.Context, email, password string) error {
	body := map[string]string{"email": email, "password": password}
	var resp struct {
		AccessToken string `json:"access_token"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", body, nil, &resp); err != nil {
		return err
	}
	c.token = resp.AccessToken
	return nil
}

func (c *Client) RefreshBikes(ctx context.Context) error {
	var bikes []Bike
	if err := c.do(ctx, http.MethodGet, "/api/bikes", nil, nil, &bikes); err != nil {
		return err
	}
	c.cache.setBikes(bikes)
	return nil
}

func (c *Client) RefreshBookings(ctx context.Context) error {
	var bookings []Booking
	if err := c.do(ctx, http.MethodGet, "/api/bookings", nil, nil, &bookings); err != nil {
		return err
	}
	c.cache.setBookings(bookings)
	return nil
}

// CheckAvailability asks the server whether the bike is free for the
// dates. The answer is advisory; only CreateBooking is authoritative.
func (c *Client) CheckAvailability(ctx context.Context, bikeID uuid.UUID, startDate, endDate string) (bool, error) {
	var resp struct {
		Available bool `json:"available"`
	}
	path := fmt.Sprintf("/api/bikes/%s/availability?start=%s&end=%s", bikeID, startDate, endDate)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &resp); err != nil {
		return false, err
	}
	return resp.Available, nil
}

// ErrUnresolvedCreate gates creates while an earlier attempt's outcome
// is unknown. RefreshBookings resolves it.
var ErrUnresolvedCreate = errors.New("client: earlier booking attempt unresolved, refresh bookings first")

// CreateBooking inserts an optimistic entry under a temporary ID, sends
// the request under a fresh Idempotency-Key, and reconciles:
//   - server accepts: the temp entry is replaced by the server row
//   - server rejects with a typed error: the temp entry is rolled back
//   - outcome unknown (timeout, connection drop): the temp entry is
//     marked stale, and further creates are refused until a refresh
//     reveals whether the server committed. Each call sends a fresh
//     key, so the refresh gate is what prevents a double-book, not the
//     key itself.
func (c *Client) CreateBooking(ctx context.Context, req CreateBookingRequest) (*Booking, error) {
	if c.cache.hasStale() {
		return nil, ErrUnresolvedCreate
	}

	tempID := uuid.New()
	idempotencyKey := uuid.New()

	c.cache.addOptimistic(Booking{
		ID:           tempID,
		BikeID:       req.BikeID,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		ContactName:  req.ContactName,
		ContactPhone: req.ContactPhone,
		Status:       "Pending",
		CreatedAt:    time.Now(),
		Pending:      true,
	})

	headers := map[string]string{"Idempotency-Key": idempotencyKey.String()}

	var confirmed Booking
	err := c.do(ctx, http.MethodPost, "/api/bookings", req, headers, &confirmed)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			c.cache.rollback(tempID)
			return nil, err
		}

		// Transport failure: the server may or may not have committed.
		c.cache.markStale(tempID)
		if refreshErr := c.RefreshBookings(ctx); refreshErr == nil {
			c.cache.rollback(tempID)
		}
		return nil, err
	}

	c.cache.confirm(tempID, confirmed)
	return &confirmed, nil
}

func (c *Client) CancelBooking(ctx context.Context, id uuid.UUID) (*Booking, error) {
	body := map[string]string{"status": "Cancelled"}
	var updated Booking
	if err := c.do(ctx, http.MethodPatch, "/api/bookings/"+id.String()+"/status", body, nil, &updated); err != nil {
		return nil, err
	}
	if err := c.RefreshBookings(ctx); err != nil {
		slog.Warn("refresh after cancel failed", "error", err.Error())
	}
	return &updated, nil
}

// Subscribe connects to the change feed and re-fetches whichever table
// an event names. Events carry no row data on purpose: the API response
// is the only state the cache ever stores. Blocks until ctx is
// cancelled or the connection drops.
func (c *Client) Subscribe(ctx context.Context) error {
	wsURL := strings.Replace(c.baseURL, "http", "ws", 1) + "/api/events"

	header := http.Header{}
	if c.token != "" {
		header.Set("Authorization", "Bearer "+c.token)
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, header)
	if err != nil {
		return err
	}
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	for {
		var event ChangeEvent
		if err := conn.ReadJSON(&event); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}

		switch event.Table {
		case "bikes":
			if err := c.RefreshBikes(ctx); err != nil {
				slog.Warn("bike refresh after change event failed", "error", err.Error())
			}
		case "bookings":
			if err := c.RefreshBookings(ctx); err != nil {
				slog.Warn("booking refresh after change event failed", "error", err.Error())
			}
		}
	}
}

func (c *Client) do(ctx context.Context, method, path string, body any, headers map[string]string, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var payload struct {
			Error string `json:"error"`
		}
		data, _ := io.ReadAll(resp.Body)
		_ = json.Unmarshal(data, &payload)
		msg := payload.Error
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: msg}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
