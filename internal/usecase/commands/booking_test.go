//go:build unit

package commands_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"testing"
	"time"

	"rideyard/internal/domain/bike"
	"rideyard/internal/domain/booking"
	"rideyard/internal/domain/user"
	"rideyard/internal/infra"
	"rideyard/internal/infra/sqldb"
	"rideyard/internal/pkg/clock"
	"rideyard/internal/pkg/metrics"
	"rideyard/internal/usecase/commands"
	"rideyard/internal/usecase/queries"
	"rideyard/internal/usecase/shared"
	"rideyard/tests/common/builder"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// In-memory fakes standing in for the Postgres repositories. The
// overlap and count queries reproduce the SQL predicates so the command
// logic is exercised against the same semantics.

type fakeState struct {
	bikes       map[uuid.UUID]*shared.BikeSnapshot
	bikeStatus  map[uuid.UUID]bike.Status
	bookings    map[uuid.UUID]*booking.Booking
	idempotency map[uuid.UUID]*shared.IdempotencyRecord
	lockedBikes []uuid.UUID
}

func newFakeState() *fakeState {
	return &fakeState{
		bikes:       make(map[uuid.UUID]*shared.BikeSnapshot),
		bikeStatus:  make(map[uuid.UUID]bike.Status),
		bookings:    make(map[uuid.UUID]*booking.Booking),
		idempotency: make(map[uuid.UUID]*shared.IdempotencyRecord),
	}
}

func (s *fakeState) addBike(t *testing.T, dayRateCents int64) uuid.UUID {
	t.Helper()
	id := uuid.New()
	s.bikes[id] = &shared.BikeSnapshot{
		ID:           id,
		Name:         "Royal Enfield Classic 350",
		DayRateCents: dayRateCents,
		DepositCents: 500000,
		Status:       bike.StatusAvailable,
	}
	s.bikeStatus[id] = bike.StatusAvailable
	return id
}

func (s *fakeState) addBooking(t *testing.T, bikeID uuid.UUID, userID uuid.UUID, start, end string) *booking.Booking {
	t.Helper()
	b, err := builder.NewBookingBuilder().
		WithBikeID(bikeID).
		WithUserID(userID).
		WithDates(start, end).
		BuildDomain()
	require.NoError(t, err)
	s.bookings[b.ID()] = b
	return b
}

type fakeUoW struct{ state *fakeState }

func (u *fakeUoW) Within(ctx context.Context, fn func(ctx context.Context, tx shared.Tx) error) error {
	return fn(ctx, &fakeTx{state: u.state})
}

func (u *fakeUoW) WithDB(ctx context.Context, fn func(ctx context.Context, db sqldb.DBTX) error) error {
	return fn(ctx, nil)
}

type fakeTx struct{ state *fakeState }

func (t *fakeTx) Bookings() shared.BookingRepository       { return &fakeBookingRepo{state: t.state} }
func (t *fakeTx) Bikes() shared.BikeRepository             { return &fakeBikeRepo{state: t.state} }
func (t *fakeTx) Idempotency() shared.IdempotencyRepository { return &fakeIdempotencyRepo{state: t.state} }
func (t *fakeTx) Users() shared.UserRepository             { return nil }
func (t *fakeTx) DB() sqldb.DBTX                           { return nil }

type fakeBookingRepo struct{ state *fakeState }

func (r *fakeBookingRepo) Create(_ context.Context, b *booking.Booking) error {
	r.state.bookings[b.ID()] = b
	return nil
}

func (r *fakeBookingRepo) FindByIDForUpdate(_ context.Context, id uuid.UUID) (*booking.Booking, error) {
	b, ok := r.state.bookings[id]
	if !ok {
		return nil, infra.WrapRepoErr("booking not found", nil, infra.KindNotFound)
	}
	return b, nil
}

func (r *fakeBookingRepo) UpdateStatus(_ context.Context, id uuid.UUID, status booking.Status, updatedAt time.Time) error {
	return nil
}

func (r *fakeBookingRepo) LockBikeCalendar(_ context.Context, bikeID uuid.UUID) error {
	r.state.lockedBikes = append(r.state.lockedBikes, bikeID)
	return nil
}

func (r *fakeBookingRepo) HasOverlapping(_ context.Context, bikeID uuid.UUID, dates booking.DateRange) (bool, error) {
	for _, b := range r.state.bookings {
		if b.BikeID() == bikeID && b.Status().BlocksAvailability() && b.Dates().Overlaps(dates) {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeBookingRepo) CountActiveForBike(_ context.Context, bikeID uuid.UUID) (int, error) {
	n := 0
	for _, b := range r.state.bookings {
		if b.BikeID() == bikeID && b.Status() == booking.StatusActive {
			n++
		}
	}
	return n, nil
}

func (r *fakeBookingRepo) DeleteByBikeID(_ context.Context, bikeID uuid.UUID) (int64, error) {
	var n int64
	for id, b := range r.state.bookings {
		if b.BikeID() == bikeID {
			delete(r.state.bookings, id)
			n++
		}
	}
	return n, nil
}

type fakeBikeRepo struct{ state *fakeState }

func (r *fakeBikeRepo) Create(_ context.Context, b *bike.Bike) error { return nil }

func (r *fakeBikeRepo) Update(_ context.Context, id uuid.UUID, fields shared.BikeUpdate, updatedAt time.Time) error {
	return nil
}

func (r *fakeBikeRepo) SetStatus(_ context.Context, id uuid.UUID, status bike.Status, updatedAt time.Time) error {
	r.state.bikeStatus[id] = status
	return nil
}

func (r *fakeBikeRepo) Delete(_ context.Context, id uuid.UUID) error { return nil }

func (r *fakeBikeRepo) FindByID(_ context.Context, id uuid.UUID) (*shared.BikeSnapshot, error) {
	s, ok := r.state.bikes[id]
	if !ok {
		return nil, infra.WrapRepoErr("bike not found", nil, infra.KindNotFound)
	}
	return s, nil
}

type fakeIdempotencyRepo struct{ state *fakeState }

func (r *fakeIdempotencyRepo) TryInsert(_ context.Context, key, userID uuid.UUID, endpoint, requestHash string, expiresAt time.Time) (bool, error) {
	if _, ok := r.state.idempotency[key]; ok {
		return false, nil
	}
	r.state.idempotency[key] = &shared.IdempotencyRecord{
		Key:         key,
		UserID:      userID,
		Status:      shared.IdempotencyStatusProcessing,
		RequestHash: requestHash,
		ExpiresAt:   expiresAt,
	}
	return true, nil
}

func (r *fakeIdempotencyRepo) Get(_ context.Context, key, userID uuid.UUID) (*shared.IdempotencyRecord, error) {
	rec, ok := r.state.idempotency[key]
	if !ok {
		return nil, infra.WrapRepoErr("idempotency key not found", nil, infra.KindNotFound)
	}
	return rec, nil
}

func (r *fakeIdempotencyRepo) UpdateStatusCompleted(_ context.Context, key, userID uuid.UUID, resultBookingID uuid.UUID) error {
	rec := r.state.idempotency[key]
	rec.Status = shared.IdempotencyStatusCompleted
	id := resultBookingID
	rec.ResultBookingID = &id
	return nil
}

// fakeBookingQueries reads straight out of the fake state.
type fakeBookingQueries struct{ state *fakeState }

func (q *fakeBookingQueries) view(b *booking.Booking) *queries.BookingView {
	return &queries.BookingView{
		ID:           b.ID(),
		BikeID:       b.BikeID(),
		UserID:       b.UserID(),
		ContactName:  b.Contact().Name(),
		ContactPhone: b.Contact().Phone(),
		StartDate:    b.Dates().StartString(),
		EndDate:      b.Dates().EndString(),
		TotalCents:   b.Total().Cents(),
		Status:       b.Status().String(),
		CreatedAt:    b.CreatedAt(),
		UpdatedAt:    b.UpdatedAt(),
	}
}

func (q *fakeBookingQueries) GetByID(_ context.Context, actorID uuid.UUID, actorRole user.Role, id uuid.UUID) (*queries.BookingView, error) {
	b, ok := q.state.bookings[id]
	if !ok {
		return nil, infra.WrapRepoErr("booking not found", nil, infra.KindNotFound)
	}
	if b.UserID() != actorID && !actorRole.IsPrivileged() {
		return nil, queries.ErrNotBookingOwner
	}
	return q.view(b), nil
}

func (q *fakeBookingQueries) GetByIDSystem(_ context.Context, id uuid.UUID) (*queries.BookingView, error) {
	b, ok := q.state.bookings[id]
	if !ok {
		return nil, infra.WrapRepoErr("booking not found", nil, infra.KindNotFound)
	}
	return q.view(b), nil
}

func (q *fakeBookingQueries) ListByUser(_ context.Context, userID uuid.UUID) ([]*queries.BookingListItem, error) {
	return nil, nil
}

func (q *fakeBookingQueries) ListAll(_ context.Context) ([]*queries.BookingListItem, error) {
	return nil, nil
}

// requestHash mirrors the hash the command derives from the input.
func requestHash(t *testing.T, input commands.CreateBookingInput) string {
	t.Helper()
	data, err := json.Marshal(input)
	require.NoError(t, err)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func newCommands(state *fakeState) commands.BookingCommands {
	clk := clock.NewMockClock(time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC))
	return commands.NewBookingCommands(
		&fakeUoW{state: state},
		&fakeIdempotencyRepo{state: state},
		&fakeBookingQueries{state: state},
		metrics.New(),
		clk,
	)
}

func TestBookingCommands_Create(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("creates a pending booking priced per inclusive day", func(t *testing.T) {
		state := newFakeState()
		bikeID := state.addBike(t, 100000)
		cmd := newCommands(state)

		input := builder.NewBookingBuilder().
			WithBikeID(bikeID).
			WithDates("2026-03-10", "2026-03-12").
			BuildCreateInput()

		result, err := cmd.Create(ctx, input, userID, uuid.New())
		require.NoError(t, err)
		require.NotNil(t, result)

		assert.False(t, result.IsReplayed)
		assert.Equal(t, "Pending", result.Booking.Status)
		assert.Equal(t, int64(300000), result.Booking.TotalCents)
		assert.Contains(t, state.lockedBikes, bikeID, "calendar lock must be taken")
	})

	t.Run("rejects overlap on the boundary day", func(t *testing.T) {
		state := newFakeState()
		bikeID := state.addBike(t, 100000)
		state.addBooking(t, bikeID, uuid.New(), "2026-03-10", "2026-03-12")
		cmd := newCommands(state)

		input := builder.NewBookingBuilder().
			WithBikeID(bikeID).
			WithDates("2026-03-12", "2026-03-14").
			BuildCreateInput()

		_, err := cmd.Create(ctx, input, userID, uuid.New())
		require.ErrorIs(t, err, commands.ErrBookingConflict)
	})

	t.Run("adjacent dates do not conflict", func(t *testing.T) {
		state := newFakeState()
		bikeID := state.addBike(t, 100000)
		state.addBooking(t, bikeID, uuid.New(), "2026-03-10", "2026-03-12")
		cmd := newCommands(state)

		input := builder.NewBookingBuilder().
			WithBikeID(bikeID).
			WithDates("2026-03-13", "2026-03-14").
			BuildCreateInput()

		result, err := cmd.Create(ctx, input, userID, uuid.New())
		require.NoError(t, err)
		assert.False(t, result.IsReplayed)
	})

	t.Run("cancelled booking does not block the dates", func(t *testing.T) {
		state := newFakeState()
		bikeID := state.addBike(t, 100000)
		existing := state.addBooking(t, bikeID, uuid.New(), "2026-03-10", "2026-03-12")
		require.NoError(t, existing.Transition(booking.StatusCancelled, time.Now()))
		cmd := newCommands(state)

		input := builder.NewBookingBuilder().
			WithBikeID(bikeID).
			WithDates("2026-03-10", "2026-03-12").
			BuildCreateInput()

		_, err := cmd.Create(ctx, input, userID, uuid.New())
		require.NoError(t, err)
	})

	t.Run("unknown bike", func(t *testing.T) {
		state := newFakeState()
		cmd := newCommands(state)

		input := builder.NewBookingBuilder().BuildCreateInput()

		_, err := cmd.Create(ctx, input, userID, uuid.New())
		require.ErrorIs(t, err, commands.ErrBikeNotFound)
	})

	t.Run("invalid dates fail validation before the transaction", func(t *testing.T) {
		state := newFakeState()
		bikeID := state.addBike(t, 100000)
		cmd := newCommands(state)

		input := builder.NewBookingBuilder().
			WithBikeID(bikeID).
			WithDates("2026-03-12", "2026-03-10").
			BuildCreateInput()

		_, err := cmd.Create(ctx, input, userID, uuid.New())
		require.ErrorIs(t, err, commands.ErrDomainValidation)
		assert.Empty(t, state.lockedBikes)
	})

	t.Run("a never-seen key claims and creates immediately", func(t *testing.T) {
		state := newFakeState()
		bikeID := state.addBike(t, 100000)
		cmd := newCommands(state)
		key := uuid.New()

		input := builder.NewBookingBuilder().
			WithBikeID(bikeID).
			WithDates("2026-03-10", "2026-03-12").
			BuildCreateInput()

		result, err := cmd.Create(ctx, input, userID, key)
		require.NoError(t, err, "a create with a fresh idempotency key must succeed")
		require.False(t, result.IsReplayed)

		rec := state.idempotency[key]
		require.NotNil(t, rec)
		assert.Equal(t, shared.IdempotencyStatusCompleted, rec.Status)
		require.NotNil(t, rec.ResultBookingID)
		assert.Equal(t, result.Booking.ID, *rec.ResultBookingID)
	})

	t.Run("same key while the first request is in flight", func(t *testing.T) {
		state := newFakeState()
		bikeID := state.addBike(t, 100000)
		cmd := newCommands(state)
		key := uuid.New()

		input := builder.NewBookingBuilder().
			WithBikeID(bikeID).
			WithDates("2026-03-10", "2026-03-12").
			BuildCreateInput()

		// The first request claimed the key but has not committed yet.
		state.idempotency[key] = &shared.IdempotencyRecord{
			Key:         key,
			UserID:      userID,
			Status:      shared.IdempotencyStatusProcessing,
			RequestHash: requestHash(t, input),
		}

		_, err := cmd.Create(ctx, input, userID, key)
		require.ErrorIs(t, err, commands.ErrIdempotencyInProgress)
		assert.Empty(t, state.bookings, "the duplicate must not create a booking")
	})

	t.Run("same key replays the original result", func(t *testing.T) {
		state := newFakeState()
		bikeID := state.addBike(t, 100000)
		cmd := newCommands(state)
		key := uuid.New()

		input := builder.NewBookingBuilder().
			WithBikeID(bikeID).
			WithDates("2026-03-10", "2026-03-12").
			BuildCreateInput()

		first, err := cmd.Create(ctx, input, userID, key)
		require.NoError(t, err)
		require.False(t, first.IsReplayed)

		second, err := cmd.Create(ctx, input, userID, key)
		require.NoError(t, err)
		assert.True(t, second.IsReplayed)
		assert.Equal(t, first.Booking.ID, second.Booking.ID)
		assert.Len(t, state.bookings, 1, "replay must not create a second booking")
	})

	t.Run("same key with a different payload is a duplicate", func(t *testing.T) {
		state := newFakeState()
		bikeID := state.addBike(t, 100000)
		cmd := newCommands(state)
		key := uuid.New()

		// A processing record from a request with another payload.
		state.idempotency[key] = &shared.IdempotencyRecord{
			Key:         key,
			UserID:      userID,
			Status:      shared.IdempotencyStatusProcessing,
			RequestHash: "different-hash",
		}

		input := builder.NewBookingBuilder().
			WithBikeID(bikeID).
			BuildCreateInput()

		_, err := cmd.Create(ctx, input, userID, key)
		require.ErrorIs(t, err, commands.ErrDuplicateBooking)
	})
}

func TestBookingCommands_Transition(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()
	operator := uuid.New()

	t.Run("owner cancels their own pending booking", func(t *testing.T) {
		state := newFakeState()
		bikeID := state.addBike(t, 100000)
		b := state.addBooking(t, bikeID, owner, "2026-03-10", "2026-03-12")
		cmd := newCommands(state)

		view, err := cmd.Transition(ctx, owner, user.RoleGuest, b.ID(), booking.StatusCancelled)
		require.NoError(t, err)
		assert.Equal(t, "Cancelled", view.Status)
	})

	t.Run("guest cannot activate a booking", func(t *testing.T) {
		state := newFakeState()
		bikeID := state.addBike(t, 100000)
		b := state.addBooking(t, bikeID, owner, "2026-03-10", "2026-03-12")
		cmd := newCommands(state)

		_, err := cmd.Transition(ctx, owner, user.RoleGuest, b.ID(), booking.StatusActive)
		require.ErrorIs(t, err, commands.ErrTransitionForbidden)
	})

	t.Run("guest cannot cancel another user's booking", func(t *testing.T) {
		state := newFakeState()
		bikeID := state.addBike(t, 100000)
		b := state.addBooking(t, bikeID, owner, "2026-03-10", "2026-03-12")
		cmd := newCommands(state)

		_, err := cmd.Transition(ctx, uuid.New(), user.RoleGuest, b.ID(), booking.StatusCancelled)
		require.ErrorIs(t, err, commands.ErrTransitionForbidden)
	})

	t.Run("activation marks the bike busy", func(t *testing.T) {
		state := newFakeState()
		bikeID := state.addBike(t, 100000)
		b := state.addBooking(t, bikeID, owner, "2026-03-10", "2026-03-12")
		cmd := newCommands(state)

		view, err := cmd.Transition(ctx, operator, user.RoleOperator, b.ID(), booking.StatusActive)
		require.NoError(t, err)
		assert.Equal(t, "Active", view.Status)
		assert.Equal(t, bike.StatusBusy, state.bikeStatus[bikeID])
	})

	t.Run("completion frees the bike", func(t *testing.T) {
		state := newFakeState()
		bikeID := state.addBike(t, 100000)
		b := state.addBooking(t, bikeID, owner, "2026-03-10", "2026-03-12")
		cmd := newCommands(state)

		_, err := cmd.Transition(ctx, operator, user.RoleOperator, b.ID(), booking.StatusActive)
		require.NoError(t, err)
		require.Equal(t, bike.StatusBusy, state.bikeStatus[bikeID])

		view, err := cmd.Transition(ctx, operator, user.RoleOperator, b.ID(), booking.StatusCompleted)
		require.NoError(t, err)
		assert.Equal(t, "Completed", view.Status)
		assert.Equal(t, bike.StatusAvailable, state.bikeStatus[bikeID])
	})

	t.Run("replayed activation leaves the bike busy", func(t *testing.T) {
		state := newFakeState()
		bikeID := state.addBike(t, 100000)
		b := state.addBooking(t, bikeID, owner, "2026-03-10", "2026-03-12")
		cmd := newCommands(state)

		_, err := cmd.Transition(ctx, operator, user.RoleOperator, b.ID(), booking.StatusActive)
		require.NoError(t, err)
		require.Equal(t, bike.StatusBusy, state.bikeStatus[bikeID])

		// Delivered twice: the second application is rejected and the
		// derived status is unchanged from the single application.
		_, err = cmd.Transition(ctx, operator, user.RoleOperator, b.ID(), booking.StatusActive)
		require.ErrorIs(t, err, commands.ErrTransitionNotAllowed)
		assert.Equal(t, bike.StatusBusy, state.bikeStatus[bikeID])
	})

	t.Run("replayed completion leaves the bike available", func(t *testing.T) {
		state := newFakeState()
		bikeID := state.addBike(t, 100000)
		b := state.addBooking(t, bikeID, owner, "2026-03-10", "2026-03-12")
		cmd := newCommands(state)

		_, err := cmd.Transition(ctx, operator, user.RoleOperator, b.ID(), booking.StatusActive)
		require.NoError(t, err)
		_, err = cmd.Transition(ctx, operator, user.RoleOperator, b.ID(), booking.StatusCompleted)
		require.NoError(t, err)
		require.Equal(t, bike.StatusAvailable, state.bikeStatus[bikeID])

		_, err = cmd.Transition(ctx, operator, user.RoleOperator, b.ID(), booking.StatusCompleted)
		require.ErrorIs(t, err, commands.ErrTransitionNotAllowed)
		assert.Equal(t, bike.StatusAvailable, state.bikeStatus[bikeID])
	})

	t.Run("illegal transition is rejected even for operators", func(t *testing.T) {
		state := newFakeState()
		bikeID := state.addBike(t, 100000)
		b := state.addBooking(t, bikeID, owner, "2026-03-10", "2026-03-12")
		cmd := newCommands(state)

		_, err := cmd.Transition(ctx, operator, user.RoleOperator, b.ID(), booking.StatusCompleted)
		require.ErrorIs(t, err, commands.ErrTransitionNotAllowed)
	})

	t.Run("unknown booking", func(t *testing.T) {
		state := newFakeState()
		cmd := newCommands(state)

		_, err := cmd.Transition(ctx, operator, user.RoleOperator, uuid.New(), booking.StatusActive)
		require.ErrorIs(t, err, commands.ErrBookingNotFound)
	})
}
