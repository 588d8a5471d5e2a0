package readstore

import (
	"context"
	"time"

	"rideyard/internal/infra"
	"rideyard/internal/infra/sqldb"
	"rideyard/internal/pkg/pgconv"
	"rideyard/internal/usecase/queries"

	"github.com/google/uuid"
)

const dateLayout = "2006-01-02"

type BookingReadStore struct {
	db sqldb.DBTX
}

func NewBookingReadStore(db sqldb.DBTX) *BookingReadStore {
	return &BookingReadStore{db: db}
}

const selectBookingViewSQL = `
SELECT b.id, b.bike_id, k.name, b.user_id, u.email,
       b.contact_name, b.contact_phone, b.start_date, b.end_date,
       b.total_cents, b.status, b.created_at, b.updated_at
FROM bookings b
JOIN bikes k ON k.id = b.bike_id
JOIN users u ON u.id = b.user_id
WHERE b.id = $1`

func (r *BookingReadStore) FindByID(ctx context.Context, id uuid.UUID) (*queries.BookingView, error) {
	var (
		view                 queries.BookingView
		startDate, endDate   time.Time
		createdAt, updatedAt time.Time
	)

	err := r.db.QueryRow(ctx, selectBookingViewSQL, id).Scan(
		&view.ID, &view.BikeID, &view.BikeName, &view.UserID, &view.UserEmail,
		&view.ContactName, &view.ContactPhone, &startDate, &endDate,
		&view.TotalCents, &view.Status, &createdAt, &updatedAt,
	)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("booking not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find booking by ID", err)
	}

	view.StartDate = startDate.Format(dateLayout)
	view.EndDate = endDate.Format(dateLayout)
	view.CreatedAt = createdAt
	view.UpdatedAt = updatedAt
	return &view, nil
}

const selectBookingsByUserSQL = `
SELECT b.id, b.bike_id, k.name, b.start_date, b.end_date, b.total_cents, b.status, b.created_at
FROM bookings b
JOIN bikes k ON k.id = b.bike_id
WHERE b.user_id = $1
ORDER BY b.created_at DESC`

func (r *BookingReadStore) FindByUserID(ctx context.Context, userID uuid.UUID) ([]*queries.BookingListItem, error) {
	rows, err := r.db.Query(ctx, selectBookingsByUserSQL, userID)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list bookings for user", err)
	}
	defer rows.Close()

	return scanBookingListItems(rows)
}

const selectAllBookingsSQL = `
SELECT b.id, b.bike_id, k.name, b.start_date, b.end_date, b.total_cents, b.status, b.created_at
FROM bookings b
JOIN bikes k ON k.id = b.bike_id
ORDER BY b.created_at DESC`

func (r *BookingReadStore) FindAll(ctx context.Context) ([]*queries.BookingListItem, error) {
	rows, err := r.db.Query(ctx, selectAllBookingsSQL)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list all bookings", err)
	}
	defer rows.Close()

	return scanBookingListItems(rows)
}

type pgxRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanBookingListItems(rows pgxRows) ([]*queries.BookingListItem, error) {
	result := []*queries.BookingListItem{}
	for rows.Next() {
		var (
			item               queries.BookingListItem
			startDate, endDate time.Time
		)
		if err := rows.Scan(&item.ID, &item.BikeID, &item.BikeName, &startDate, &endDate, &item.TotalCents, &item.Status, &item.CreatedAt); err != nil {
			return nil, infra.WrapRepoErr("failed to scan booking row", err)
		}
		item.StartDate = startDate.Format(dateLayout)
		item.EndDate = endDate.Format(dateLayout)
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate booking rows", err)
	}
	return result, nil
}
