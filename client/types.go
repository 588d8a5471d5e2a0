package client

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Bike struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Category     string    `json:"category"`
	EngineCC     int       `json:"engine_cc"`
	DayRateCents int64     `json:"day_rate_cents"`
	DepositCents int64     `json:"deposit_cents"`
	ImageURL     string    `json:"image_url"`
	Description  string    `json:"description"`
	Status       string    `json:"status"`
}

type Booking struct {
	ID           uuid.UUID `json:"id"`
	BikeID       uuid.UUID `json:"bike_id"`
	BikeName     string    `json:"bike_name"`
	StartDate    string    `json:"start_date"`
	EndDate      string    `json:"end_date"`
	ContactName  string    `json:"contact_name"`
	ContactPhone string    `json:"contact_phone"`
	TotalCents   int64     `json:"total_cents"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`

	// Pending marks an optimistic entry the server has not confirmed.
	// Stale marks an entry whose outcome is unknown (request timed out)
	// until the next refresh replaces it.
	Pending bool `json:"-"`
	Stale   bool `json:"-"`
}

type CreateBookingRequest struct {
	BikeID       uuid.UUID `json:"bike_id"`
	StartDate    string    `json:"start_date"`
	EndDate      string    `json:"end_date"`
	ContactName  string    `json:"contact_name"`
	ContactPhone string    `json:"contact_phone"`
}

type ChangeEvent struct {
	Table string `json:"table"`
	Kind  string `json:"kind"`
}

// APIError is a typed rejection from the server. Receiving one means
// the request definitively failed, so optimistic state can be rolled
// back.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

func (e *APIError) IsConflict() bool {
	return e.Status == 409
}
