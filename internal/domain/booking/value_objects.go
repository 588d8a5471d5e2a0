package booking

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"
)

const dateLayout = "2006-01-02"

// DateRange is a closed interval of whole calendar days. Both endpoints
// are inclusive: a one-day rental has start == end.
type DateRange struct {
	start time.Time
	end   time.Time
}

func NewDateRange(start, end time.Time) (DateRange, error) {
	start = truncateToDay(start)
	end = truncateToDay(end)
	if end.Before(start) {
		return DateRange{}, ErrInvalidDateRange
	}
	return DateRange{start: start, end: end}, nil
}

func ParseDateRange(start, end string) (DateRange, error) {
	s, err := time.ParseInLocation(dateLayout, start, time.UTC)
	if err != nil {
		return DateRange{}, ErrInvalidDateRange
	}
	e, err := time.ParseInLocation(dateLayout, end, time.UTC)
	if err != nil {
		return DateRange{}, ErrInvalidDateRange
	}
	return NewDateRange(s, e)
}

func (r DateRange) Start() time.Time { return r.start }
func (r DateRange) End() time.Time   { return r.end }

func (r DateRange) StartString() string { return r.start.Format(dateLayout) }
func (r DateRange) EndString() string   { return r.end.Format(dateLayout) }

// Overlaps reports whether the two ranges share at least one calendar
// day. A shared boundary day counts as overlap.
func (r DateRange) Overlaps(other DateRange) bool {
	return !r.start.After(other.end) && !r.end.Before(other.start)
}

// Days returns the inclusive day count, so [d, d] is one day.
func (r DateRange) Days() int {
	return int(r.end.Sub(r.start)/(24*time.Hour)) + 1
}

func (r DateRange) String() string {
	return fmt.Sprintf("[%s, %s]", r.StartString(), r.EndString())
}

func truncateToDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

type Money struct {
	cents int64
}

func NewMoney(cents int64) (Money, error) {
	if cents < 0 {
		return Money{}, ErrNegativePrice
	}
	return Money{cents: cents}, nil
}

func (m Money) Cents() int64 { return m.cents }

func (m Money) MultiplyDays(days int) Money {
	return Money{cents: m.cents * int64(days)}
}

// Contact is the renter-supplied pickup contact. The phone number must
// contain exactly ten digits; any separators are stripped before
// validation, as the booking form did.
type Contact struct {
	name  string
	phone string
}

const phoneDigits = 10

func NewContact(name, phone string) (Contact, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Contact{}, ErrEmptyContactName
	}

	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, phone)
	if len(digits) != phoneDigits {
		return Contact{}, ErrInvalidContactPhone
	}

	return Contact{name: name, phone: digits}, nil
}

func (c Contact) Name() string  { return c.name }
func (c Contact) Phone() string { return c.phone }

var (
	ErrInvalidDateRange    = errors.New("end date cannot be before start date")
	ErrNegativePrice       = errors.New("price cannot be negative")
	ErrEmptyContactName    = errors.New("contact name cannot be empty")
	ErrInvalidContactPhone = errors.New("contact phone must be a 10-digit number")
)
