package shared

import (
	"time"

	"rideyard/internal/domain/bike"

	"github.com/google/uuid"
)

// BikeSnapshot is the minimal read used while creating a booking.
type BikeSnapshot struct {
	ID           uuid.UUID
	Name         string
	DayRateCents int64
	DepositCents int64
	Status       bike.Status
}

// BikeUpdate carries a partial fleet edit; nil fields are left as-is.
// Status is absent on purpose: it is derived, never assigned directly.
type BikeUpdate struct {
	Name         *string
	Category     *string
	EngineCC     *int
	DayRateCents *int64
	DepositCents *int64
	ImageURL     *string
	Description  *string
}

type IdempotencyRecord struct {
	Key             uuid.UUID
	UserID          uuid.UUID
	Status          string
	RequestHash     string
	ResultBookingID *uuid.UUID
	ExpiresAt       time.Time
}

const (
	IdempotencyStatusProcessing = "processing"
	IdempotencyStatusCompleted  = "completed"
)
