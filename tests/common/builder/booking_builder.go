//go:build unit || e2e

package builder

import (
	"time"

	dombooking "rideyard/internal/domain/booking"
	reqdto "rideyard/internal/handler/dto/request"
	"rideyard/internal/usecase/commands"
	"rideyard/internal/usecase/queries"

	"github.com/google/uuid"
)

type BookingBuilder struct {
	BikeID       uuid.UUID
	BikeName     string
	UserID       uuid.UUID
	UserEmail    string
	StartDate    string
	EndDate      string
	ContactName  string
	ContactPhone string
	DayRateCents int64
	Status       string
	CreatedAt    time.Time
}

func NewBookingBuilder() *BookingBuilder {
	return &BookingBuilder{
		BikeID:       uuid.New(),
		BikeName:     "Royal Enfield Classic 350",
		UserID:       uuid.New(),
		UserEmail:    "rider@example.com",
		StartDate:    "2026-03-10",
		EndDate:      "2026-03-12",
		ContactName:  "Arjun Mehta",
		ContactPhone: "9876543210",
		DayRateCents: 100000,
		Status:       "Pending",
		CreatedAt:    time.Now(),
	}
}

func (b *BookingBuilder) With(mutate func(*BookingBuilder)) *BookingBuilder {
	mutate(b)
	return b
}

func (b *BookingBuilder) BuildDomain() (*dombooking.Booking, error) {
	dates, err := dombooking.ParseDateRange(b.StartDate, b.EndDate)
	if err != nil {
		return nil, err
	}
	contact, err := dombooking.NewContact(b.ContactName, b.ContactPhone)
	if err != nil {
		return nil, err
	}
	rate, err := dombooking.NewMoney(b.DayRateCents)
	if err != nil {
		return nil, err
	}
	return dombooking.NewBooking(b.BikeID, b.UserID, dates, contact, rate, b.CreatedAt)
}

func (b *BookingBuilder) BuildCreateRequestDTO() reqdto.CreateBookingRequest {
	return reqdto.CreateBookingRequest{
		BikeID:       b.BikeID,
		StartDate:    b.StartDate,
		EndDate:      b.EndDate,
		ContactName:  b.ContactName,
		ContactPhone: b.ContactPhone,
	}
}

func (b *BookingBuilder) BuildCreateInput() commands.CreateBookingInput {
	return commands.CreateBookingInput{
		BikeID:       b.BikeID,
		StartDate:    b.StartDate,
		EndDate:      b.EndDate,
		ContactName:  b.ContactName,
		ContactPhone: b.ContactPhone,
	}
}

func (b *BookingBuilder) BuildViewQuery() *queries.BookingView {
	dates, _ := dombooking.ParseDateRange(b.StartDate, b.EndDate)
	return &queries.BookingView{
		ID:           uuid.New(),
		BikeID:       b.BikeID,
		BikeName:     b.BikeName,
		UserID:       b.UserID,
		UserEmail:    b.UserEmail,
		ContactName:  b.ContactName,
		ContactPhone: b.ContactPhone,
		StartDate:    b.StartDate,
		EndDate:      b.EndDate,
		TotalCents:   b.DayRateCents * int64(dates.Days()),
		Status:       b.Status,
		CreatedAt:    b.CreatedAt,
		UpdatedAt:    b.CreatedAt,
	}
}

// Fluent builder methods
func (b *BookingBuilder) WithBikeID(id uuid.UUID) *BookingBuilder {
	b.BikeID = id
	return b
}

func (b *BookingBuilder) WithUserID(id uuid.UUID) *BookingBuilder {
	b.UserID = id
	return b
}

func (b *BookingBuilder) WithDates(start, end string) *BookingBuilder {
	b.StartDate = start
	b.EndDate = end
	return b
}

func (b *BookingBuilder) WithContact(name, phone string) *BookingBuilder {
	b.ContactName = name
	b.ContactPhone = phone
	return b
}

func (b *BookingBuilder) WithDayRateCents(cents int64) *BookingBuilder {
	b.DayRateCents = cents
	return b
}

func (b *BookingBuilder) WithStatus(status string) *BookingBuilder {
	b.Status = status
	return b
}
