package repository

import (
	"context"
	"time"

	"rideyard/internal/domain/bike"
	"rideyard/internal/infra"
	"rideyard/internal/infra/sqldb"
	"rideyard/internal/pkg/pgconv"
	"rideyard/internal/usecase/shared"

	"github.com/google/uuid"
)

type BikeRepository struct {
	db sqldb.DBTX
}

func NewBikeRepository(db sqldb.DBTX) *BikeRepository {
	return &BikeRepository{db: db}
}

const insertBikeSQL = `
INSERT INTO bikes (id, name, category, engine_cc, day_rate_cents, deposit_cents, image_url, description, status)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

func (r *BikeRepository) Create(ctx context.Context, b *bike.Bike) error {
	_, err := r.db.Exec(ctx, insertBikeSQL,
		b.ID(),
		b.Name(),
		b.Category(),
		b.EngineCC(),
		b.DayRateCents(),
		b.DepositCents(),
		b.ImageURL(),
		b.Description(),
		b.Status().String(),
	)
	if err != nil {
		return infra.WrapRepoErr("failed to create bike", err)
	}
	return nil
}

const updateBikeSQL = `
UPDATE bikes SET
	name = COALESCE($2, name),
	category = COALESCE($3, category),
	engine_cc = COALESCE($4, engine_cc),
	day_rate_cents = COALESCE($5, day_rate_cents),
	deposit_cents = COALESCE($6, deposit_cents),
	image_url = COALESCE($7, image_url),
	description = COALESCE($8, description),
	updated_at = $9
WHERE id = $1`

func (r *BikeRepository) Update(ctx context.Context, id uuid.UUID, fields shared.BikeUpdate, updatedAt time.Time) error {
	tag, err := r.db.Exec(ctx, updateBikeSQL,
		id,
		fields.Name,
		fields.Category,
		fields.EngineCC,
		fields.DayRateCents,
		fields.DepositCents,
		fields.ImageURL,
		fields.Description,
		pgconv.TimeToPgtype(updatedAt),
	)
	if err != nil {
		return infra.WrapRepoErr("failed to update bike", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("bike not found", nil, infra.KindNotFound)
	}
	return nil
}

// SetStatus is reachable only from the booking transition path; the
// status column is a projection of the booking set, not an input.
func (r *BikeRepository) SetStatus(ctx context.Context, id uuid.UUID, status bike.Status, updatedAt time.Time) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE bikes SET status = $2, updated_at = $3 WHERE id = $1`,
		id, status.String(), pgconv.TimeToPgtype(updatedAt),
	)
	if err != nil {
		return infra.WrapRepoErr("failed to set bike status", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("bike not found", nil, infra.KindNotFound)
	}
	return nil
}

func (r *BikeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM bikes WHERE id = $1`, id)
	if err != nil {
		return infra.WrapRepoErr("failed to delete bike", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("bike not found", nil, infra.KindNotFound)
	}
	return nil
}

const selectBikeSnapshotSQL = `
SELECT id, name, day_rate_cents, deposit_cents, status
FROM bikes
WHERE id = $1`

func (r *BikeRepository) FindByID(ctx context.Context, id uuid.UUID) (*shared.BikeSnapshot, error) {
	var snap shared.BikeSnapshot
	var status string

	err := r.db.QueryRow(ctx, selectBikeSnapshotSQL, id).Scan(
		&snap.ID, &snap.Name, &snap.DayRateCents, &snap.DepositCents, &status,
	)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("bike not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find bike by ID", err)
	}

	snap.Status = bike.Status(status)
	return &snap, nil
}
