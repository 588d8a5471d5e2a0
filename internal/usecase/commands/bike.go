package commands

import (
	"context"
	"log/slog"

	"rideyard/internal/domain/bike"
	"rideyard/internal/infra"
	"rideyard/internal/pkg/clock"
	"rideyard/internal/pkg/errs"
	"rideyard/internal/pkg/patch"
	"rideyard/internal/usecase/queries"
	"rideyard/internal/usecase/shared"

	"github.com/google/uuid"
)

type CreateBikeInput struct {
	Name         string
	Category     string
	EngineCC     int
	DayRateCents int64
	DepositCents int64
	ImageURL     string
	Description  string
}

type BikeCommands interface {
	Create(ctx context.Context, input CreateBikeInput) (*queries.BikeView, error)
	Update(ctx context.Context, id uuid.UUID, fields shared.BikeUpdate) (*queries.BikeView, error)
	// Delete removes the bike and every booking that references it, in
	// one transaction. History goes with the bike.
	Delete(ctx context.Context, id uuid.UUID) error
}

type bikeCommandsImpl struct {
	uow         shared.UnitOfWork
	bikeQueries queries.BikeQueries
	clock       clock.Clock
}

func NewBikeCommands(uow shared.UnitOfWork, bikeQueries queries.BikeQueries, clk clock.Clock) BikeCommands {
	return &bikeCommandsImpl{
		uow:         uow,
		bikeQueries: bikeQueries,
		clock:       clk,
	}
}

func (c *bikeCommandsImpl) Create(ctx context.Context, input CreateBikeInput) (*queries.BikeView, error) {
	entity, err := bike.NewBike(
		input.Name, input.Category, input.EngineCC,
		input.DayRateCents, input.DepositCents,
		input.ImageURL, input.Description,
	)
	if err != nil {
		return nil, errs.Mark(err, ErrDomainValidation)
	}

	err = c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		if createErr := tx.Bikes().Create(ctx, entity); createErr != nil {
			return errs.Mark(createErr, ErrDatabaseOperationFailed)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	view, err := c.bikeQueries.GetByID(ctx, entity.ID())
	if err != nil {
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}
	return view, nil
}

func (c *bikeCommandsImpl) Update(ctx context.Context, id uuid.UUID, fields shared.BikeUpdate) (*queries.BikeView, error) {
	err := c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		current, findErr := tx.Bikes().FindByID(ctx, id)
		if findErr != nil {
			if infra.IsKind(findErr, infra.KindNotFound) {
				return ErrBikeNotFound
			}
			return errs.Mark(findErr, ErrDatabaseOperationFailed)
		}

		// The merged row has to satisfy the same constraints as Create.
		if _, vErr := bike.NewBike(
			patch.Coalesce(fields.Name, current.Name),
			patch.Coalesce(fields.Category, ""),
			patch.Coalesce(fields.EngineCC, 0),
			patch.Coalesce(fields.DayRateCents, current.DayRateCents),
			patch.Coalesce(fields.DepositCents, current.DepositCents),
			patch.Coalesce(fields.ImageURL, ""),
			patch.Coalesce(fields.Description, ""),
		); vErr != nil {
			return errs.Mark(vErr, ErrDomainValidation)
		}

		if updateErr := tx.Bikes().Update(ctx, id, fields, c.clock.Now()); updateErr != nil {
			return errs.Mark(updateErr, ErrDatabaseOperationFailed)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	view, err := c.bikeQueries.GetByID(ctx, id)
	if err != nil {
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}
	return view, nil
}

func (c *bikeCommandsImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		// The calendar lock keeps a concurrent create from inserting a
		// booking between the cascade delete and the bike delete.
		if lockErr := tx.Bookings().LockBikeCalendar(ctx, id); lockErr != nil {
			return errs.Mark(lockErr, ErrDatabaseOperationFailed)
		}

		if _, findErr := tx.Bikes().FindByID(ctx, id); findErr != nil {
			if infra.IsKind(findErr, infra.KindNotFound) {
				return ErrBikeNotFound
			}
			return errs.Mark(findErr, ErrDatabaseOperationFailed)
		}

		removed, delErr := tx.Bookings().DeleteByBikeID(ctx, id)
		if delErr != nil {
			return errs.Mark(delErr, ErrDatabaseOperationFailed)
		}
		if removed > 0 {
			slog.Info("removed bookings with bike", "bike_id", id, "bookings", removed)
		}

		if delErr := tx.Bikes().Delete(ctx, id); delErr != nil {
			return errs.Mark(delErr, ErrDatabaseOperationFailed)
		}
		return nil
	})
}
