package readstore

import (
	"context"

	"rideyard/internal/domain/booking"
	"rideyard/internal/infra"
	"rideyard/internal/infra/sqldb"
	"rideyard/internal/pkg/pgconv"
	"rideyard/internal/usecase/queries"

	"github.com/google/uuid"
)

type BikeReadStore struct {
	db sqldb.DBTX
}

func NewBikeReadStore(db sqldb.DBTX) *BikeReadStore {
	return &BikeReadStore{db: db}
}

const selectBikeViewSQL = `
SELECT id, name, category, engine_cc, day_rate_cents, deposit_cents, image_url, description, status, created_at, updated_at
FROM bikes`

func (r *BikeReadStore) FindByID(ctx context.Context, id uuid.UUID) (*queries.BikeView, error) {
	var view queries.BikeView
	err := r.db.QueryRow(ctx, selectBikeViewSQL+` WHERE id = $1`, id).Scan(
		&view.ID, &view.Name, &view.Category, &view.EngineCC,
		&view.DayRateCents, &view.DepositCents, &view.ImageURL, &view.Description,
		&view.Status, &view.CreatedAt, &view.UpdatedAt,
	)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("bike not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find bike by ID", err)
	}
	return &view, nil
}

func (r *BikeReadStore) FindAll(ctx context.Context) ([]*queries.BikeView, error) {
	rows, err := r.db.Query(ctx, selectBikeViewSQL+` ORDER BY created_at DESC`)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list bikes", err)
	}
	defer rows.Close()

	result := []*queries.BikeView{}
	for rows.Next() {
		var view queries.BikeView
		if err := rows.Scan(
			&view.ID, &view.Name, &view.Category, &view.EngineCC,
			&view.DayRateCents, &view.DepositCents, &view.ImageURL, &view.Description,
			&view.Status, &view.CreatedAt, &view.UpdatedAt,
		); err != nil {
			return nil, infra.WrapRepoErr("failed to scan bike row", err)
		}
		result = append(result, &view)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate bike rows", err)
	}
	return result, nil
}

// Same predicate as the in-transaction check, but read from the pool:
// good enough for the advisory availability endpoint.
const blockingOverlapSQL = `
SELECT EXISTS (
	SELECT 1 FROM bookings
	WHERE bike_id = $1
	  AND status = ANY($4)
	  AND start_date <= $3
	  AND end_date >= $2
)`

func (r *BikeReadStore) HasBlockingOverlap(ctx context.Context, bikeID uuid.UUID, dates booking.DateRange) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, blockingOverlapSQL,
		bikeID,
		pgconv.DateToPgtype(dates.Start()),
		pgconv.DateToPgtype(dates.End()),
		queries.BlockingStatuses,
	).Scan(&exists)
	if err != nil {
		return false, infra.WrapRepoErr("failed to check bike availability", err)
	}
	return exists, nil
}
