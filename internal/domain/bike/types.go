package bike

// Status is a derived value: busy iff the bike has an Active booking.
// Nothing outside the booking transition path may assign it.
type Status string

const (
	StatusAvailable Status = "available"
	StatusBusy      Status = "busy"
)

func (s Status) String() string {
	return string(s)
}

func (s Status) IsValid() bool {
	return s == StatusAvailable || s == StatusBusy
}

// StatusFor derives the bike status from its count of Active bookings.
// Recomputing from the count (rather than toggling) keeps repeated
// application of the same transition event harmless.
func StatusFor(activeBookings int) Status {
	if activeBookings > 0 {
		return StatusBusy
	}
	return StatusAvailable
}
