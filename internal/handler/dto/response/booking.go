package response

import (
	"rideyard/internal/usecase/queries"
)

type CreateBookingResponse struct {
	*queries.BookingView
	// Replayed is true when the Idempotency-Key matched a completed
	// request and the stored result was returned instead of a new row.
	Replayed bool `json:"replayed,omitempty"`
}
