package shared

import (
	"context"
	"time"

	"rideyard/internal/domain/bike"
	"rideyard/internal/domain/booking"
	"rideyard/internal/domain/user"
	"rideyard/internal/infra/sqldb"

	"github.com/google/uuid"
)

type UnitOfWork interface {
	// Within: Full transaction for write operations with retry logic
	Within(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	// WithDB: Single query operations using implicit transactions
	WithDB(ctx context.Context, fn func(ctx context.Context, db sqldb.DBTX) error) error
}

// Tx hands out repositories bound to the transaction. Repositories
// obtained outside Within run on the pool with implicit transactions.
type Tx interface {
	Bookings() BookingRepository
	Bikes() BikeRepository
	Idempotency() IdempotencyRepository
	Users() UserRepository
	DB() sqldb.DBTX
}

type BookingRepository interface {
	Create(ctx context.Context, b *booking.Booking) error
	// FindByIDForUpdate locks the booking row for the rest of the
	// transaction, serializing concurrent transitions on it.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*booking.Booking, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status booking.Status, updatedAt time.Time) error
	// LockBikeCalendar serializes check-and-create per bike for the
	// rest of the transaction (advisory xact lock).
	LockBikeCalendar(ctx context.Context, bikeID uuid.UUID) error
	HasOverlapping(ctx context.Context, bikeID uuid.UUID, dates booking.DateRange) (bool, error)
	CountActiveForBike(ctx context.Context, bikeID uuid.UUID) (int, error)
	DeleteByBikeID(ctx context.Context, bikeID uuid.UUID) (int64, error)
}

type BikeRepository interface {
	Create(ctx context.Context, b *bike.Bike) error
	Update(ctx context.Context, id uuid.UUID, fields BikeUpdate, updatedAt time.Time) error
	SetStatus(ctx context.Context, id uuid.UUID, status bike.Status, updatedAt time.Time) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*BikeSnapshot, error)
}

type IdempotencyRepository interface {
	// TryInsert claims the key for this request. claimed is false when
	// an earlier request already holds it; the caller then reads the
	// record to decide between replay, duplicate, and in-progress.
	TryInsert(ctx context.Context, key, userID uuid.UUID, endpoint, requestHash string, expiresAt time.Time) (claimed bool, err error)
	Get(ctx context.Context, key, userID uuid.UUID) (*IdempotencyRecord, error)
	UpdateStatusCompleted(ctx context.Context, key, userID uuid.UUID, resultBookingID uuid.UUID) error
}

type UserRepository interface {
	Create(ctx context.Context, u *user.User) error
	UpdateLastLogin(ctx context.Context, userID uuid.UUID, at time.Time) error
}
