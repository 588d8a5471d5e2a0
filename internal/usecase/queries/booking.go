package queries

import (
	"context"
	"time"

	"rideyard/internal/domain/booking"
	"rideyard/internal/domain/user"
	"rideyard/internal/pkg/errs"

	"github.com/google/uuid"
)

var (
	ErrBookingNotFound = errs.New("booking not found")
	ErrNotBookingOwner = errs.New("booking belongs to another user")
)

// Read models (DTO for read side)
type BookingView struct {
	ID           uuid.UUID `json:"id"`
	BikeID       uuid.UUID `json:"bike_id"`
	BikeName     string    `json:"bike_name"`
	UserID       uuid.UUID `json:"user_id"`
	UserEmail    string    `json:"user_email"`
	ContactName  string    `json:"contact_name"`
	ContactPhone string    `json:"contact_phone"`
	StartDate    string    `json:"start_date"`
	EndDate      string    `json:"end_date"`
	TotalCents   int64     `json:"total_cents"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type BookingListItem struct {
	ID         uuid.UUID `json:"id"`
	BikeID     uuid.UUID `json:"bike_id"`
	BikeName   string    `json:"bike_name"`
	StartDate  string    `json:"start_date"`
	EndDate    string    `json:"end_date"`
	TotalCents int64     `json:"total_cents"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

type BookingReadStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*BookingView, error)
	FindByUserID(ctx context.Context, userID uuid.UUID) ([]*BookingListItem, error)
	FindAll(ctx context.Context) ([]*BookingListItem, error)
}

type BookingQueries interface {
	// GetByID enforces ownership: guests see their own bookings only,
	// privileged roles see everything.
	GetByID(ctx context.Context, actorID uuid.UUID, actorRole user.Role, id uuid.UUID) (*BookingView, error)
	// GetByIDSystem bypasses the ownership check for internal
	// read-after-write paths.
	GetByIDSystem(ctx context.Context, id uuid.UUID) (*BookingView, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*BookingListItem, error)
	// ListAll is the operator dashboard view, newest first.
	ListAll(ctx context.Context) ([]*BookingListItem, error)
}

type bookingQueriesImpl struct {
	store BookingReadStore
}

func NewBookingQueries(store BookingReadStore) BookingQueries {
	return &bookingQueriesImpl{store: store}
}

func (q *bookingQueriesImpl) GetByID(ctx context.Context, actorID uuid.UUID, actorRole user.Role, id uuid.UUID) (*BookingView, error) {
	view, err := q.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if view.UserID != actorID && !actorRole.IsPrivileged() {
		return nil, ErrNotBookingOwner
	}
	return view, nil
}

func (q *bookingQueriesImpl) GetByIDSystem(ctx context.Context, id uuid.UUID) (*BookingView, error) {
	return q.store.FindByID(ctx, id)
}

func (q *bookingQueriesImpl) ListByUser(ctx context.Context, userID uuid.UUID) ([]*BookingListItem, error) {
	return q.store.FindByUserID(ctx, userID)
}

func (q *bookingQueriesImpl) ListAll(ctx context.Context) ([]*BookingListItem, error) {
	return q.store.FindAll(ctx)
}

// BlockingStatuses parameterizes the overlap queries on the write and
// read sides; it mirrors booking.Status.BlocksAvailability.
var BlockingStatuses = []string{booking.StatusPending.String(), booking.StatusActive.String()}
