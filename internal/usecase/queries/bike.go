package queries

import (
	"context"
	"time"

	"rideyard/internal/domain/booking"

	"github.com/google/uuid"
)

type BikeView struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Category     string    `json:"category"`
	EngineCC     int       `json:"engine_cc"`
	DayRateCents int64     `json:"day_rate_cents"`
	DepositCents int64     `json:"deposit_cents"`
	ImageURL     string    `json:"image_url"`
	Description  string    `json:"description"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type BikeReadStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*BikeView, error)
	FindAll(ctx context.Context) ([]*BikeView, error)
	HasBlockingOverlap(ctx context.Context, bikeID uuid.UUID, dates booking.DateRange) (bool, error)
}

type BikeQueries interface {
	GetByID(ctx context.Context, id uuid.UUID) (*BikeView, error)
	List(ctx context.Context) ([]*BikeView, error)
	// CheckAvailability is advisory: the answer can be stale by the
	// time a create lands. The create transaction re-checks under the
	// per-bike lock, and that check is the one that counts.
	CheckAvailability(ctx context.Context, bikeID uuid.UUID, dates booking.DateRange) (bool, error)
}

type bikeQueriesImpl struct {
	store BikeReadStore
}

func NewBikeQueries(store BikeReadStore) BikeQueries {
	return &bikeQueriesImpl{store: store}
}

func (q *bikeQueriesImpl) GetByID(ctx context.Context, id uuid.UUID) (*BikeView, error) {
	return q.store.FindByID(ctx, id)
}

func (q *bikeQueriesImpl) List(ctx context.Context) ([]*BikeView, error) {
	return q.store.FindAll(ctx)
}

func (q *bikeQueriesImpl) CheckAvailability(ctx context.Context, bikeID uuid.UUID, dates booking.DateRange) (bool, error) {
	if _, err := q.store.FindByID(ctx, bikeID); err != nil {
		return false, err
	}
	overlap, err := q.store.HasBlockingOverlap(ctx, bikeID, dates)
	if err != nil {
		return false, err
	}
	return !overlap, nil
}
