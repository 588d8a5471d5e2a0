package bike

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrEmptyName       = errors.New("bike name cannot be empty")
	ErrNameTooLong     = errors.New("bike name is too long (max 255 characters)")
	ErrInvalidDayRate  = errors.New("day rate must be positive")
	ErrNegativeDeposit = errors.New("deposit cannot be negative")
)

const MaxNameLength = 255

type Bike struct {
	id           uuid.UUID
	name         string
	category     string
	engineCC     int
	dayRateCents int64
	depositCents int64
	imageURL     string
	description  string
	status       Status
	createdAt    time.Time
	updatedAt    time.Time
}

func NewBike(name, category string, engineCC int, dayRateCents, depositCents int64, imageURL, description string) (*Bike, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	if len(name) > MaxNameLength {
		return nil, ErrNameTooLong
	}
	if dayRateCents <= 0 {
		return nil, ErrInvalidDayRate
	}
	if depositCents < 0 {
		return nil, ErrNegativeDeposit
	}

	return &Bike{
		id:           uuid.New(),
		name:         name,
		category:     category,
		engineCC:     engineCC,
		dayRateCents: dayRateCents,
		depositCents: depositCents,
		imageURL:     imageURL,
		description:  description,
		status:       StatusAvailable,
	}, nil
}

func ReconstructBike(
	id uuid.UUID,
	name, category string,
	engineCC int,
	dayRateCents, depositCents int64,
	imageURL, description string,
	status Status,
	createdAt, updatedAt time.Time,
) *Bike {
	return &Bike{
		id:           id,
		name:         name,
		category:     category,
		engineCC:     engineCC,
		dayRateCents: dayRateCents,
		depositCents: depositCents,
		imageURL:     imageURL,
		description:  description,
		status:       status,
		createdAt:    createdAt,
		updatedAt:    updatedAt,
	}
}

func (b *Bike) ID() uuid.UUID       { return b.id }
func (b *Bike) Name() string        { return b.name }
func (b *Bike) Category() string    { return b.category }
func (b *Bike) EngineCC() int       { return b.engineCC }
func (b *Bike) DayRateCents() int64 { return b.dayRateCents }
func (b *Bike) DepositCents() int64 { return b.depositCents }
func (b *Bike) ImageURL() string    { return b.imageURL }
func (b *Bike) Description() string { return b.description }
func (b *Bike) Status() Status      { return b.status }
func (b *Bike) CreatedAt() time.Time { return b.createdAt }
func (b *Bike) UpdatedAt() time.Time { return b.updatedAt }
