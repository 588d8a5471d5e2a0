package booking

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidStatus     = errors.New("invalid booking status")
	ErrMissingRequester  = errors.New("booking requires a requester identity")
	ErrInvalidTransition = errors.New("invalid booking status transition")
)

// Booking is a claim on a bike for a closed range of calendar days.
// It is created through NewBooking only and mutated through Transition
// only; a booking is never deleted except when its bike is removed.
type Booking struct {
	id        uuid.UUID
	bikeID    uuid.UUID
	userID    uuid.UUID
	contact   Contact
	dates     DateRange
	total     Money
	status    Status
	createdAt time.Time
	updatedAt time.Time
}

// NewBooking prices the stay at dayRate × inclusive days and starts the
// lifecycle at Pending. Availability is not checked here: that belongs
// to the create transaction, which holds the per-bike lock.
func NewBooking(bikeID, userID uuid.UUID, dates DateRange, contact Contact, dayRate Money, now time.Time) (*Booking, error) {
	if userID == uuid.Nil {
		return nil, ErrMissingRequester
	}

	return &Booking{
		id:        uuid.New(),
		bikeID:    bikeID,
		userID:    userID,
		contact:   contact,
		dates:     dates,
		total:     dayRate.MultiplyDays(dates.Days()),
		status:    StatusPending,
		createdAt: now,
		updatedAt: now,
	}, nil
}

func ReconstructBooking(
	id, bikeID, userID uuid.UUID,
	dates DateRange,
	contact Contact,
	total Money,
	status Status,
	createdAt, updatedAt time.Time,
) *Booking {
	return &Booking{
		id:        id,
		bikeID:    bikeID,
		userID:    userID,
		contact:   contact,
		dates:     dates,
		total:     total,
		status:    status,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}
}

// Transition moves the booking to the target status if the state
// machine allows it. Anything else, including re-entering the current
// status or leaving a terminal one, is ErrInvalidTransition.
func (b *Booking) Transition(to Status, now time.Time) error {
	if !to.IsValid() {
		return ErrInvalidStatus
	}
	if !CanTransition(b.status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, b.status, to)
	}
	b.status = to
	b.updatedAt = now
	return nil
}

// CancellableBy reports whether the given user may cancel the booking:
// the requester may cancel their own Pending booking, operators cancel
// through their own privilege check in the usecase layer.
func (b *Booking) CancellableBy(userID uuid.UUID) bool {
	return b.userID == userID && b.status == StatusPending
}

func (b *Booking) ID() uuid.UUID        { return b.id }
func (b *Booking) BikeID() uuid.UUID    { return b.bikeID }
func (b *Booking) UserID() uuid.UUID    { return b.userID }
func (b *Booking) Contact() Contact     { return b.contact }
func (b *Booking) Dates() DateRange     { return b.dates }
func (b *Booking) Total() Money         { return b.total }
func (b *Booking) Status() Status       { return b.status }
func (b *Booking) CreatedAt() time.Time { return b.createdAt }
func (b *Booking) UpdatedAt() time.Time { return b.updatedAt }
