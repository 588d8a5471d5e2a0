package commands

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"rideyard/internal/domain/bike"
	"rideyard/internal/domain/booking"
	"rideyard/internal/domain/user"
	"rideyard/internal/infra"
	"rideyard/internal/pkg/clock"
	"rideyard/internal/pkg/errs"
	"rideyard/internal/pkg/metrics"
	"rideyard/internal/usecase/queries"
	"rideyard/internal/usecase/shared"

	"github.com/google/uuid"
)

var (
	ErrBikeNotFound            = errs.New("bike not found")
	ErrBookingNotFound         = errs.New("booking not found")
	ErrBookingConflict         = errs.New("booking dates conflict with an existing booking")
	ErrDuplicateBooking        = errs.New("duplicate booking request")
	ErrIdempotencyInProgress   = errs.New("idempotency in progress")
	ErrIdempotencyCheckFailed  = errs.New("idempotency check failed")
	ErrDomainValidation        = errs.New("domain validation error")
	ErrTransitionNotAllowed    = errs.New("booking status transition not allowed")
	ErrTransitionForbidden     = errs.New("not permitted to change this booking")
	ErrDatabaseOperationFailed = errs.New("database operation failed")
)

const idempotencyTTL = 24 * time.Hour

type CreateBookingInput struct {
	BikeID       uuid.UUID `json:"bike_id"`
	StartDate    string    `json:"start_date"`
	EndDate      string    `json:"end_date"`
	ContactName  string    `json:"contact_name"`
	ContactPhone string    `json:"contact_phone"`
}

type CreateBookingResult struct {
	Booking    *queries.BookingView
	IsReplayed bool
}

type BookingCommands interface {
	Create(ctx context.Context, input CreateBookingInput, userID uuid.UUID, idempotencyKey uuid.UUID) (*CreateBookingResult, error)
	// Transition applies one lifecycle step. Guests may only cancel
	// their own Pending booking; privileged roles drive the rest.
	Transition(ctx context.Context, actorID uuid.UUID, actorRole user.Role, bookingID uuid.UUID, to booking.Status) (*queries.BookingView, error)
}

type bookingCommandsImpl struct {
	uow             shared.UnitOfWork
	idempotencyRepo shared.IdempotencyRepository
	bookingQueries  queries.BookingQueries
	metrics         *metrics.Metrics
	clock           clock.Clock
}

func NewBookingCommands(
	uow shared.UnitOfWork,
	idempotencyRepo shared.IdempotencyRepository,
	bookingQueries queries.BookingQueries,
	m *metrics.Metrics,
	clk clock.Clock,
) BookingCommands {
	return &bookingCommandsImpl{
		uow:             uow,
		idempotencyRepo: idempotencyRepo,
		bookingQueries:  bookingQueries,
		metrics:         m,
		clock:           clk,
	}
}

func (c *bookingCommandsImpl) Create(
	ctx context.Context,
	input CreateBookingInput,
	userID uuid.UUID,
	idempotencyKey uuid.UUID,
) (*CreateBookingResult, error) {
	requestHash := calculateRequestHash(input)
	expiresAt := c.clock.Now().Add(idempotencyTTL)

	replayed, err := c.handleIdempotency(ctx, idempotencyKey, userID, requestHash, expiresAt)
	if err != nil {
		return nil, err
	}
	if replayed != nil {
		return &CreateBookingResult{Booking: replayed, IsReplayed: true}, nil
	}

	view, err := c.createNewBooking(ctx, input, userID, idempotencyKey)
	if err != nil {
		return nil, err
	}
	return &CreateBookingResult{Booking: view, IsReplayed: false}, nil
}

func (c *bookingCommandsImpl) handleIdempotency(
	ctx context.Context,
	idempotencyKey, userID uuid.UUID,
	requestHash string,
	expiresAt time.Time,
) (*queries.BookingView, error) {
	claimed, err := c.idempotencyRepo.TryInsert(ctx, idempotencyKey, userID, "POST /bookings", requestHash, expiresAt)
	if err != nil {
		return nil, errs.Mark(err, ErrIdempotencyCheckFailed)
	}
	if claimed {
		// Fresh key: this request owns it, proceed to create.
		return nil, nil
	}

	existing, err := c.idempotencyRepo.Get(ctx, idempotencyKey, userID)
	if err != nil {
		return nil, errs.Mark(err, ErrIdempotencyCheckFailed)
	}

	switch existing.Status {
	case shared.IdempotencyStatusCompleted:
		if existing.ResultBookingID != nil {
			return c.bookingQueries.GetByIDSystem(ctx, *existing.ResultBookingID)
		}
		return nil, errs.New("completed request missing result booking ID")

	case shared.IdempotencyStatusProcessing:
		if existing.RequestHash != requestHash {
			return nil, ErrDuplicateBooking
		}
		return nil, ErrIdempotencyInProgress

	default:
		return nil, errs.New("invalid idempotency key status")
	}
}

// createNewBooking runs the check-and-create under the per-bike
// advisory lock. The exclusion constraint on bookings backs the overlap
// check up, so a conflict that slips past the query still cannot
// commit.
func (c *bookingCommandsImpl) createNewBooking(
	ctx context.Context,
	input CreateBookingInput,
	userID, idempotencyKey uuid.UUID,
) (*queries.BookingView, error) {
	dates, err := booking.ParseDateRange(input.StartDate, input.EndDate)
	if err != nil {
		return nil, errs.Mark(err, ErrDomainValidation)
	}
	contact, err := booking.NewContact(input.ContactName, input.ContactPhone)
	if err != nil {
		return nil, errs.Mark(err, ErrDomainValidation)
	}

	var bookingID uuid.UUID

	err = c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		if lockErr := tx.Bookings().LockBikeCalendar(ctx, input.BikeID); lockErr != nil {
			return errs.Mark(lockErr, ErrDatabaseOperationFailed)
		}

		snapshot, findErr := tx.Bikes().FindByID(ctx, input.BikeID)
		if findErr != nil {
			if infra.IsKind(findErr, infra.KindNotFound) {
				return ErrBikeNotFound
			}
			return errs.Mark(findErr, ErrDatabaseOperationFailed)
		}

		overlap, overlapErr := tx.Bookings().HasOverlapping(ctx, input.BikeID, dates)
		if overlapErr != nil {
			return errs.Mark(overlapErr, ErrDatabaseOperationFailed)
		}
		if overlap {
			c.metrics.BookingConflicts.Inc()
			return ErrBookingConflict
		}

		dayRate, rateErr := booking.NewMoney(snapshot.DayRateCents)
		if rateErr != nil {
			return errs.Mark(rateErr, ErrDomainValidation)
		}

		entity, newErr := booking.NewBooking(input.BikeID, userID, dates, contact, dayRate, c.clock.Now())
		if newErr != nil {
			return errs.Mark(newErr, ErrDomainValidation)
		}

		if createErr := tx.Bookings().Create(ctx, entity); createErr != nil {
			if infra.IsKind(createErr, infra.KindConflict) {
				c.metrics.BookingConflicts.Inc()
				return ErrBookingConflict
			}
			if infra.IsKind(createErr, infra.KindForeignKeyViolated) {
				return ErrBikeNotFound
			}
			return errs.Mark(createErr, ErrDatabaseOperationFailed)
		}

		if idemErr := tx.Idempotency().UpdateStatusCompleted(ctx, idempotencyKey, userID, entity.ID()); idemErr != nil {
			return errs.Mark(idemErr, ErrDatabaseOperationFailed)
		}

		bookingID = entity.ID()
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.metrics.BookingsCreated.Inc()

	view, err := c.bookingQueries.GetByIDSystem(ctx, bookingID)
	if err != nil {
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}
	return view, nil
}

func (c *bookingCommandsImpl) Transition(
	ctx context.Context,
	actorID uuid.UUID,
	actorRole user.Role,
	bookingID uuid.UUID,
	to booking.Status,
) (*queries.BookingView, error) {
	err := c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		entity, findErr := tx.Bookings().FindByIDForUpdate(ctx, bookingID)
		if findErr != nil {
			if infra.IsKind(findErr, infra.KindNotFound) {
				return ErrBookingNotFound
			}
			return errs.Mark(findErr, ErrDatabaseOperationFailed)
		}

		if !actorRole.IsPrivileged() {
			if to != booking.StatusCancelled || !entity.CancellableBy(actorID) {
				return ErrTransitionForbidden
			}
		}

		now := c.clock.Now()
		if transErr := entity.Transition(to, now); transErr != nil {
			return errs.Mark(transErr, ErrTransitionNotAllowed)
		}

		if updateErr := tx.Bookings().UpdateStatus(ctx, bookingID, entity.Status(), now); updateErr != nil {
			return errs.Mark(updateErr, ErrDatabaseOperationFailed)
		}

		return c.syncBikeStatus(ctx, tx, entity.BikeID(), now)
	})
	if err != nil {
		return nil, err
	}

	c.metrics.BookingTransitions.WithLabelValues(to.String()).Inc()

	view, err := c.bookingQueries.GetByIDSystem(ctx, bookingID)
	if err != nil {
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}
	return view, nil
}

// syncBikeStatus recomputes the bike's derived status from its count of
// Active bookings. Recompute rather than toggle: replaying the same
// transition event leaves the bike status unchanged.
func (c *bookingCommandsImpl) syncBikeStatus(ctx context.Context, tx shared.Tx, bikeID uuid.UUID, now time.Time) error {
	active, err := tx.Bookings().CountActiveForBike(ctx, bikeID)
	if err != nil {
		return errs.Mark(err, ErrDatabaseOperationFailed)
	}
	if err := tx.Bikes().SetStatus(ctx, bikeID, bike.StatusFor(active), now); err != nil {
		return errs.Mark(err, ErrDatabaseOperationFailed)
	}
	return nil
}

func calculateRequestHash(input CreateBookingInput) string {
	data, _ := json.Marshal(input)
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
