package client

import (
	"sync"

	"github.com/google/uuid"
)

// cache mirrors the server's bookings and bikes for one user session.
// Optimistic entries live here until the server confirms or rejects
// them; a change-feed event or an explicit refresh replaces the whole
// slice, which is why confirmed entries carry no local edits.
type cache struct {
	mu       sync.RWMutex
	bikes    []Bike
	bookings []Booking
}

func (c *cache) Bikes() []Bike {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Bike, len(c.bikes))
	copy(out, c.bikes)
	return out
}

func (c *cache) Bookings() []Booking {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Booking, len(c.bookings))
	copy(out, c.bookings)
	return out
}

func (c *cache) setBikes(bikes []Bike) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bikes = bikes
}

// setBookings replaces confirmed entries but keeps optimistic ones:
// the server does not know about them yet, so a refresh must not drop
// them.
func (c *cache) setBookings(bookings []Booking) {
	c.mu.Lock()
	defer c.mu.Unlock()

	kept := bookings
	for _, b := range c.bookings {
		if b.Pending && !b.Stale {
			kept = append(kept, b)
		}
	}
	c.bookings = kept
}

func (c *cache) addOptimistic(b Booking) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bookings = append(c.bookings, b)
}

// confirm swaps the temporary entry for the server's row. The server
// row wins on every field; the temp ID was never more than a placeholder.
func (c *cache) confirm(tempID uuid.UUID, confirmed Booking) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.bookings {
		if c.bookings[i].ID == tempID {
			c.bookings[i] = confirmed
			return
		}
	}
	c.bookings = append(c.bookings, confirmed)
}

func (c *cache) rollback(tempID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.bookings {
		if c.bookings[i].ID == tempID {
			c.bookings = append(c.bookings[:i], c.bookings[i+1:]...)
			return
		}
	}
}

// hasStale reports whether an optimistic entry with an unknown server
// outcome is still in the cache. A successful refresh drops such
// entries, so this doubles as the "refresh needed" signal.
func (c *cache) hasStale() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, b := range c.bookings {
		if b.Stale {
			return true
		}
	}
	return false
}

func (c *cache) markStale(tempID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.bookings {
		if c.bookings[i].ID == tempID {
			c.bookings[i].Stale = true
			return
		}
	}
}
