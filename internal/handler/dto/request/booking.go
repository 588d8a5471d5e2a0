package request

import (
	"rideyard/internal/domain/booking"
	"rideyard/internal/usecase/commands"

	"github.com/google/uuid"
)

type CreateBookingRequest struct {
	BikeID       uuid.UUID `json:"bike_id" binding:"required"`
	StartDate    string    `json:"start_date" binding:"required"`
	EndDate      string    `json:"end_date" binding:"required"`
	ContactName  string    `json:"contact_name" binding:"required"`
	ContactPhone string    `json:"contact_phone" binding:"required"`
}

func (r CreateBookingRequest) ToInput() commands.CreateBookingInput {
	return commands.CreateBookingInput{
		BikeID:       r.BikeID,
		StartDate:    r.StartDate,
		EndDate:      r.EndDate,
		ContactName:  r.ContactName,
		ContactPhone: r.ContactPhone,
	}
}

type TransitionBookingRequest struct {
	Status string `json:"status" binding:"required"`
}

func (r TransitionBookingRequest) ToDomain() (booking.Status, error) {
	return booking.NewStatus(r.Status)
}
