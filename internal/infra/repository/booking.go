package repository

import (
	"context"
	"time"

	"rideyard/internal/domain/booking"
	"rideyard/internal/infra"
	"rideyard/internal/infra/sqldb"
	"rideyard/internal/pkg/pgconv"
	"rideyard/internal/usecase/queries"

	"github.com/google/uuid"
)

type BookingRepository struct {
	db sqldb.DBTX
}

func NewBookingRepository(db sqldb.DBTX) *BookingRepository {
	return &BookingRepository{db: db}
}

const insertBookingSQL = `
INSERT INTO bookings (id, bike_id, user_id, contact_name, contact_phone, start_date, end_date, total_cents, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)`

func (r *BookingRepository) Create(ctx context.Context, b *booking.Booking) error {
	_, err := r.db.Exec(ctx, insertBookingSQL,
		b.ID(),
		b.BikeID(),
		b.UserID(),
		b.Contact().Name(),
		b.Contact().Phone(),
		pgconv.DateToPgtype(b.Dates().Start()),
		pgconv.DateToPgtype(b.Dates().End()),
		b.Total().Cents(),
		b.Status().String(),
		pgconv.TimeToPgtype(b.CreatedAt()),
	)
	if err != nil {
		return infra.WrapRepoErr("failed to create booking", err)
	}
	return nil
}

const selectBookingForUpdateSQL = `
SELECT id, bike_id, user_id, contact_name, contact_phone, start_date, end_date, total_cents, status, created_at, updated_at
FROM bookings
WHERE id = $1
FOR UPDATE`

func (r *BookingRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*booking.Booking, error) {
	row := r.db.QueryRow(ctx, selectBookingForUpdateSQL, id)

	b, err := scanBooking(row)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("booking not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find booking for update", err)
	}
	return b, nil
}

func (r *BookingRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status booking.Status, updatedAt time.Time) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE bookings SET status = $2, updated_at = $3 WHERE id = $1`,
		id, status.String(), pgconv.TimeToPgtype(updatedAt),
	)
	if err != nil {
		return infra.WrapRepoErr("failed to update booking status", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("booking not found", nil, infra.KindNotFound)
	}
	return nil
}

// LockBikeCalendar takes a transaction-scoped advisory lock keyed by
// the bike id. Every create for the bike goes through here before the
// overlap check, so check-and-insert pairs cannot interleave.
func (r *BookingRepository) LockBikeCalendar(ctx context.Context, bikeID uuid.UUID) error {
	_, err := r.db.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1::text))`, bikeID)
	if err != nil {
		return infra.WrapRepoErr("failed to lock bike calendar", err)
	}
	return nil
}

// Inclusive-boundary overlap: a shared day conflicts.
const overlapExistsSQL = `
SELECT EXISTS (
	SELECT 1 FROM bookings
	WHERE bike_id = $1
	  AND status = ANY($4)
	  AND start_date <= $3
	  AND end_date >= $2
)`

func (r *BookingRepository) HasOverlapping(ctx context.Context, bikeID uuid.UUID, dates booking.DateRange) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, overlapExistsSQL,
		bikeID,
		pgconv.DateToPgtype(dates.Start()),
		pgconv.DateToPgtype(dates.End()),
		queries.BlockingStatuses,
	).Scan(&exists)
	if err != nil {
		return false, infra.WrapRepoErr("failed to check overlapping bookings", err)
	}
	return exists, nil
}

func (r *BookingRepository) CountActiveForBike(ctx context.Context, bikeID uuid.UUID) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT count(*) FROM bookings WHERE bike_id = $1 AND status = 'Active'`,
		bikeID,
	).Scan(&count)
	if err != nil {
		return 0, infra.WrapRepoErr("failed to count active bookings", err)
	}
	return count, nil
}

// DeleteByBikeID removes a bike's bookings ahead of deleting the bike
// itself. Only the fleet-removal path may call this.
func (r *BookingRepository) DeleteByBikeID(ctx context.Context, bikeID uuid.UUID) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM bookings WHERE bike_id = $1`, bikeID)
	if err != nil {
		return 0, infra.WrapRepoErr("failed to delete bookings for bike", err)
	}
	return tag.RowsAffected(), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (*booking.Booking, error) {
	var (
		id, bikeID, userID         uuid.UUID
		contactName, contactPhone  string
		startDate, endDate         time.Time
		totalCents                 int64
		status                     string
		createdAt, updatedAt       time.Time
	)

	if err := row.Scan(&id, &bikeID, &userID, &contactName, &contactPhone, &startDate, &endDate, &totalCents, &status, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	dates, err := booking.NewDateRange(startDate, endDate)
	if err != nil {
		return nil, err
	}
	contact, err := booking.NewContact(contactName, contactPhone)
	if err != nil {
		return nil, err
	}
	total, err := booking.NewMoney(totalCents)
	if err != nil {
		return nil, err
	}
	st, err := booking.NewStatus(status)
	if err != nil {
		return nil, err
	}

	return booking.ReconstructBooking(id, bikeID, userID, dates, contact, total, st, createdAt, updatedAt), nil
}
