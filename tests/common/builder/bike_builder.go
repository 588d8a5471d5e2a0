//go:build unit || e2e

package builder

import (
	"time"

	dombike "rideyard/internal/domain/bike"
	reqdto "rideyard/internal/handler/dto/request"
	"rideyard/internal/usecase/queries"
	"rideyard/internal/usecase/shared"

	"github.com/google/uuid"
)

type BikeBuilder struct {
	Name         string
	Category     string
	EngineCC     int
	DayRateCents int64
	DepositCents int64
	ImageURL     string
	Description  string
	Status       string
	CreatedAt    time.Time
}

func NewBikeBuilder() *BikeBuilder {
	return &BikeBuilder{
		Name:         "Royal Enfield Classic 350",
		Category:     "cruiser",
		EngineCC:     349,
		DayRateCents: 100000,
		DepositCents: 500000,
		ImageURL:     "https://example.com/classic350.jpg",
		Description:  "Comfortable cruiser for long rides",
		Status:       "available",
		CreatedAt:    time.Now(),
	}
}

func (b *BikeBuilder) With(mutate func(*BikeBuilder)) *BikeBuilder {
	mutate(b)
	return b
}

func (b *BikeBuilder) BuildDomain() (*dombike.Bike, error) {
	return dombike.NewBike(b.Name, b.Category, b.EngineCC, b.DayRateCents, b.DepositCents, b.ImageURL, b.Description)
}

func (b *BikeBuilder) BuildCreateRequestDTO() reqdto.CreateBikeRequest {
	return reqdto.CreateBikeRequest{
		Name:         b.Name,
		Category:     b.Category,
		EngineCC:     b.EngineCC,
		DayRateCents: b.DayRateCents,
		DepositCents: b.DepositCents,
		ImageURL:     b.ImageURL,
		Description:  b.Description,
	}
}

func (b *BikeBuilder) BuildViewQuery() *queries.BikeView {
	return &queries.BikeView{
		ID:           uuid.New(),
		Name:         b.Name,
		Category:     b.Category,
		EngineCC:     b.EngineCC,
		DayRateCents: b.DayRateCents,
		DepositCents: b.DepositCents,
		ImageURL:     b.ImageURL,
		Description:  b.Description,
		Status:       b.Status,
		CreatedAt:    b.CreatedAt,
		UpdatedAt:    b.CreatedAt,
	}
}

func (b *BikeBuilder) BuildSnapshot() *shared.BikeSnapshot {
	return &shared.BikeSnapshot{
		ID:           uuid.New(),
		Name:         b.Name,
		DayRateCents: b.DayRateCents,
		DepositCents: b.DepositCents,
		Status:       dombike.Status(b.Status),
	}
}

// Fluent builder methods
func (b *BikeBuilder) WithName(name string) *BikeBuilder {
	b.Name = name
	return b
}

func (b *BikeBuilder) WithDayRateCents(cents int64) *BikeBuilder {
	b.DayRateCents = cents
	return b
}

func (b *BikeBuilder) WithDepositCents(cents int64) *BikeBuilder {
	b.DepositCents = cents
	return b
}

func (b *BikeBuilder) WithStatus(status string) *BikeBuilder {
	b.Status = status
	return b
}
