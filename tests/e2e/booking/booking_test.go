//go:build e2e

package booking_test

import (
	"net/http"
	"sort"
	"sync"
	"testing"

	"rideyard/internal/domain/user"
	"rideyard/internal/usecase/queries"
	"rideyard/tests/common/authtest"
	"rideyard/tests/common/builder"
	"rideyard/tests/common/dbtest"
	"rideyard/tests/common/httptest"
	"rideyard/tests/e2e"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const (
	bookingsURL         = "/api/bookings"
	operatorBookingsURL = "/api/operator/bookings"
)

type BookingSuite struct {
	e2e.SharedSuite
}

func (s *BookingSuite) SetupSubTest() {
	s.SharedSuite.SetupSubTest()
}

func TestBookingSuite(t *testing.T) {
	t.Parallel()
	suite.Run(t, new(BookingSuite))
}

func idempotencyHeader() map[string]string {
	return map[string]string{"Idempotency-Key": uuid.NewString()}
}

// =============================================================================
// TestCreateBooking
// =============================================================================

func (s *BookingSuite) TestCreateBooking() {
	s.Run("Normal case: booking is created with the inclusive-day total", func() {
		t := s.T()

		dbtest.CreateTestUser(t, s.DB, "rider@example.com", string(user.RoleGuest))
		bikeID := dbtest.CreateTestBike(t, s.DB, "Royal Enfield Classic 350", 100000)
		token := authtest.LoginUser(t, s.Router, "rider@example.com", "password123")

		reqBody := builder.NewBookingBuilder().
			WithBikeID(bikeID).
			WithDates("2026-03-10", "2026-03-12").
			BuildCreateRequestDTO()

		w := httptest.PerformRequestWithHeaders(t, s.Router, http.MethodPost, bookingsURL, reqBody, token, idempotencyHeader())
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		var actual queries.BookingView
		require.NoError(t, httptest.DecodeResponseBody(t, w.Body, &actual))

		expected := &queries.BookingView{
			BikeID:       bikeID,
			BikeName:     "Royal Enfield Classic 350",
			UserEmail:    "rider@example.com",
			ContactName:  "Arjun Mehta",
			ContactPhone: "9876543210",
			StartDate:    "2026-03-10",
			EndDate:      "2026-03-12",
			TotalCents:   300000, // 3 days x 100000
			Status:       "Pending",
		}

		opts := []cmp.Option{
			cmpopts.IgnoreFields(queries.BookingView{}, "ID", "UserID", "CreatedAt", "UpdatedAt"),
		}
		if diff := cmp.Diff(expected, &actual, opts...); diff != "" {
			t.Errorf("Booking response mismatch (-want +got):\n%s", diff)
		}
	})

	s.Run("Error case: shared boundary day is a conflict", func() {
		t := s.T()

		dbtest.CreateTestUser(t, s.DB, "rider@example.com", string(user.RoleGuest))
		bikeID := dbtest.CreateTestBike(t, s.DB, "Himalayan 450", 120000)
		token := authtest.LoginUser(t, s.Router, "rider@example.com", "password123")

		first := builder.NewBookingBuilder().
			WithBikeID(bikeID).
			WithDates("2026-03-10", "2026-03-12").
			BuildCreateRequestDTO()
		w1 := httptest.PerformRequestWithHeaders(t, s.Router, http.MethodPost, bookingsURL, first, token, idempotencyHeader())
		require.Equal(t, http.StatusCreated, w1.Code, w1.Body.String())

		second := builder.NewBookingBuilder().
			WithBikeID(bikeID).
			WithDates("2026-03-12", "2026-03-14").
			BuildCreateRequestDTO()
		w2 := httptest.PerformRequestWithHeaders(t, s.Router, http.MethodPost, bookingsURL, second, token, idempotencyHeader())
		require.Equal(t, http.StatusConflict, w2.Code, "boundary day is shared, so the ranges overlap")
	})

	s.Run("Normal case: adjacent date ranges do not conflict", func() {
		t := s.T()

		dbtest.CreateTestUser(t, s.DB, "rider@example.com", string(user.RoleGuest))
		bikeID := dbtest.CreateTestBike(t, s.DB, "Himalayan 450", 120000)
		token := authtest.LoginUser(t, s.Router, "rider@example.com", "password123")

		first := builder.NewBookingBuilder().
			WithBikeID(bikeID).
			WithDates("2026-03-10", "2026-03-12").
			BuildCreateRequestDTO()
		w1 := httptest.PerformRequestWithHeaders(t, s.Router, http.MethodPost, bookingsURL, first, token, idempotencyHeader())
		require.Equal(t, http.StatusCreated, w1.Code, w1.Body.String())

		second := builder.NewBookingBuilder().
			WithBikeID(bikeID).
			WithDates("2026-03-13", "2026-03-14").
			BuildCreateRequestDTO()
		w2 := httptest.PerformRequestWithHeaders(t, s.Router, http.MethodPost, bookingsURL, second, token, idempotencyHeader())
		require.Equal(t, http.StatusCreated, w2.Code, w2.Body.String())
	})

	s.Run("Normal case: cancelled booking frees the dates", func() {
		t := s.T()

		dbtest.CreateTestUser(t, s.DB, "rider@example.com", string(user.RoleGuest))
		bikeID := dbtest.CreateTestBike(t, s.DB, "Himalayan 450", 120000)
		token := authtest.LoginUser(t, s.Router, "rider@example.com", "password123")

		reqBody := builder.NewBookingBuilder().
			WithBikeID(bikeID).
			WithDates("2026-03-10", "2026-03-12").
			BuildCreateRequestDTO()
		w1 := httptest.PerformRequestWithHeaders(t, s.Router, http.MethodPost, bookingsURL, reqBody, token, idempotencyHeader())
		require.Equal(t, http.StatusCreated, w1.Code)

		var created queries.BookingView
		require.NoError(t, httptest.DecodeResponseBody(t, w1.Body, &created))

		cancel := httptest.PerformRequest(t, s.Router, http.MethodPatch,
			bookingsURL+"/"+created.ID.String()+"/status", map[string]string{"status": "Cancelled"}, token)
		require.Equal(t, http.StatusOK, cancel.Code, cancel.Body.String())

		w2 := httptest.PerformRequestWithHeaders(t, s.Router, http.MethodPost, bookingsURL, reqBody, token, idempotencyHeader())
		require.Equal(t, http.StatusCreated, w2.Code, "cancelled bookings must not block the calendar")
	})

	s.Run("Normal case: same idempotency key replays the original booking", func() {
		t := s.T()

		dbtest.CreateTestUser(t, s.DB, "rider@example.com", string(user.RoleGuest))
		bikeID := dbtest.CreateTestBike(t, s.DB, "Royal Enfield Classic 350", 100000)
		token := authtest.LoginUser(t, s.Router, "rider@example.com", "password123")

		headers := idempotencyHeader()
		reqBody := builder.NewBookingBuilder().
			WithBikeID(bikeID).
			WithDates("2026-03-10", "2026-03-12").
			BuildCreateRequestDTO()

		w1 := httptest.PerformRequestWithHeaders(t, s.Router, http.MethodPost, bookingsURL, reqBody, token, headers)
		require.Equal(t, http.StatusCreated, w1.Code, w1.Body.String())
		var first queries.BookingView
		require.NoError(t, httptest.DecodeResponseBody(t, w1.Body, &first))

		w2 := httptest.PerformRequestWithHeaders(t, s.Router, http.MethodPost, bookingsURL, reqBody, token, headers)
		require.Equal(t, http.StatusOK, w2.Code, "replay responds 200, not 201")

		var second struct {
			queries.BookingView
			Replayed bool `json:"replayed"`
		}
		require.NoError(t, httptest.DecodeResponseBody(t, w2.Body, &second))
		require.True(t, second.Replayed)
		require.Equal(t, first.ID, second.ID, "replay must return the original booking")

		list := httptest.PerformRequest(t, s.Router, http.MethodGet, bookingsURL, nil, token)
		require.Equal(t, http.StatusOK, list.Code)
		var items []queries.BookingListItem
		require.NoError(t, httptest.DecodeResponseBody(t, list.Body, &items))
		require.Len(t, items, 1, "replay must not create a second booking")
	})

	s.Run("Concurrency: racing creates for the same dates admit exactly one", func() {
		t := s.T()

		dbtest.CreateTestUser(t, s.DB, "rider@example.com", string(user.RoleGuest))
		dbtest.CreateTestUser(t, s.DB, "other@example.com", string(user.RoleGuest))
		bikeID := dbtest.CreateTestBike(t, s.DB, "Himalayan 450", 120000)

		tokens := []string{
			authtest.LoginUser(t, s.Router, "rider@example.com", "password123"),
			authtest.LoginUser(t, s.Router, "other@example.com", "password123"),
		}

		reqBody := builder.NewBookingBuilder().
			WithBikeID(bikeID).
			WithDates("2026-03-10", "2026-03-12").
			BuildCreateRequestDTO()

		codes := make([]int, len(tokens))
		var wg sync.WaitGroup
		for i, token := range tokens {
			wg.Add(1)
			go func() {
				defer wg.Done()
				w := httptest.PerformRequestWithHeaders(t, s.Router, http.MethodPost, bookingsURL, reqBody, token, idempotencyHeader())
				codes[i] = w.Code
			}()
		}
		wg.Wait()

		sort.Ints(codes)
		require.Equal(t, []int{http.StatusCreated, http.StatusConflict}, codes,
			"one create wins the advisory lock, the other sees the overlap")
	})

	s.Run("Error case: missing Idempotency-Key", func() {
		t := s.T()

		dbtest.CreateTestUser(t, s.DB, "rider@example.com", string(user.RoleGuest))
		bikeID := dbtest.CreateTestBike(t, s.DB, "Royal Enfield Classic 350", 100000)
		token := authtest.LoginUser(t, s.Router, "rider@example.com", "password123")

		reqBody := builder.NewBookingBuilder().WithBikeID(bikeID).BuildCreateRequestDTO()
		w := httptest.PerformRequest(t, s.Router, http.MethodPost, bookingsURL, reqBody, token)
		require.Equal(t, http.StatusBadRequest, w.Code)
	})

	s.Run("Error case: unknown bike", func() {
		t := s.T()

		dbtest.CreateTestUser(t, s.DB, "rider@example.com", string(user.RoleGuest))
		token := authtest.LoginUser(t, s.Router, "rider@example.com", "password123")

		reqBody := builder.NewBookingBuilder().BuildCreateRequestDTO()
		w := httptest.PerformRequestWithHeaders(t, s.Router, http.MethodPost, bookingsURL, reqBody, token, idempotencyHeader())
		require.Equal(t, http.StatusNotFound, w.Code)
	})

	s.Run("Auth test - Unauthorized when not logged in", func() {
		t := s.T()

		bikeID := dbtest.CreateTestBike(t, s.DB, "Royal Enfield Classic 350", 100000)
		reqBody := builder.NewBookingBuilder().WithBikeID(bikeID).BuildCreateRequestDTO()

		w := httptest.PerformRequestWithHeaders(t, s.Router, http.MethodPost, bookingsURL, reqBody, "", idempotencyHeader())
		require.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

// =============================================================================
// TestBookingLifecycle
// =============================================================================

func (s *BookingSuite) TestBookingLifecycle() {
	s.Run("Normal case: activation marks the bike busy, completion frees it", func() {
		t := s.T()

		dbtest.CreateTestUser(t, s.DB, "rider@example.com", string(user.RoleGuest))
		dbtest.CreateTestUser(t, s.DB, "ops@example.com", string(user.RoleOperator))
		bikeID := dbtest.CreateTestBike(t, s.DB, "Royal Enfield Classic 350", 100000)

		riderToken := authtest.LoginUser(t, s.Router, "rider@example.com", "password123")
		opsToken := authtest.LoginUser(t, s.Router, "ops@example.com", "password123")

		reqBody := builder.NewBookingBuilder().
			WithBikeID(bikeID).
			WithDates("2026-03-10", "2026-03-12").
			BuildCreateRequestDTO()
		w := httptest.PerformRequestWithHeaders(t, s.Router, http.MethodPost, bookingsURL, reqBody, riderToken, idempotencyHeader())
		require.Equal(t, http.StatusCreated, w.Code)
		var created queries.BookingView
		require.NoError(t, httptest.DecodeResponseBody(t, w.Body, &created))

		statusURL := bookingsURL + "/" + created.ID.String() + "/status"

		activate := httptest.PerformRequest(t, s.Router, http.MethodPatch, statusURL,
			map[string]string{"status": "Active"}, opsToken)
		require.Equal(t, http.StatusOK, activate.Code, activate.Body.String())
		require.Equal(t, "busy", fetchBikeStatus(t, s, bikeID))

		complete := httptest.PerformRequest(t, s.Router, http.MethodPatch, statusURL,
			map[string]string{"status": "Completed"}, opsToken)
		require.Equal(t, http.StatusOK, complete.Code, complete.Body.String())
		require.Equal(t, "available", fetchBikeStatus(t, s, bikeID))
	})

	s.Run("Normal case: guest cancels their own pending booking", func() {
		t := s.T()

		dbtest.CreateTestUser(t, s.DB, "rider@example.com", string(user.RoleGuest))
		bikeID := dbtest.CreateTestBike(t, s.DB, "Royal Enfield Classic 350", 100000)
		token := authtest.LoginUser(t, s.Router, "rider@example.com", "password123")

		reqBody := builder.NewBookingBuilder().WithBikeID(bikeID).BuildCreateRequestDTO()
		w := httptest.PerformRequestWithHeaders(t, s.Router, http.MethodPost, bookingsURL, reqBody, token, idempotencyHeader())
		require.Equal(t, http.StatusCreated, w.Code)
		var created queries.BookingView
		require.NoError(t, httptest.DecodeResponseBody(t, w.Body, &created))

		cancel := httptest.PerformRequest(t, s.Router, http.MethodPatch,
			bookingsURL+"/"+created.ID.String()+"/status", map[string]string{"status": "Cancelled"}, token)
		require.Equal(t, http.StatusOK, cancel.Code)

		var updated queries.BookingView
		require.NoError(t, httptest.DecodeResponseBody(t, cancel.Body, &updated))
		require.Equal(t, "Cancelled", updated.Status)
	})

	s.Run("Error case: guest cannot activate a booking", func() {
		t := s.T()

		dbtest.CreateTestUser(t, s.DB, "rider@example.com", string(user.RoleGuest))
		bikeID := dbtest.CreateTestBike(t, s.DB, "Royal Enfield Classic 350", 100000)
		token := authtest.LoginUser(t, s.Router, "rider@example.com", "password123")

		reqBody := builder.NewBookingBuilder().WithBikeID(bikeID).BuildCreateRequestDTO()
		w := httptest.PerformRequestWithHeaders(t, s.Router, http.MethodPost, bookingsURL, reqBody, token, idempotencyHeader())
		require.Equal(t, http.StatusCreated, w.Code)
		var created queries.BookingView
		require.NoError(t, httptest.DecodeResponseBody(t, w.Body, &created))

		activate := httptest.PerformRequest(t, s.Router, http.MethodPatch,
			bookingsURL+"/"+created.ID.String()+"/status", map[string]string{"status": "Active"}, token)
		require.Equal(t, http.StatusForbidden, activate.Code)
	})

	s.Run("Error case: guest cannot cancel another user's booking", func() {
		t := s.T()

		dbtest.CreateTestUser(t, s.DB, "owner@example.com", string(user.RoleGuest))
		dbtest.CreateTestUser(t, s.DB, "other@example.com", string(user.RoleGuest))
		bikeID := dbtest.CreateTestBike(t, s.DB, "Royal Enfield Classic 350", 100000)

		ownerToken := authtest.LoginUser(t, s.Router, "owner@example.com", "password123")
		otherToken := authtest.LoginUser(t, s.Router, "other@example.com", "password123")

		reqBody := builder.NewBookingBuilder().WithBikeID(bikeID).BuildCreateRequestDTO()
		w := httptest.PerformRequestWithHeaders(t, s.Router, http.MethodPost, bookingsURL, reqBody, ownerToken, idempotencyHeader())
		require.Equal(t, http.StatusCreated, w.Code)
		var created queries.BookingView
		require.NoError(t, httptest.DecodeResponseBody(t, w.Body, &created))

		cancel := httptest.PerformRequest(t, s.Router, http.MethodPatch,
			bookingsURL+"/"+created.ID.String()+"/status", map[string]string{"status": "Cancelled"}, otherToken)
		require.Equal(t, http.StatusForbidden, cancel.Code)
	})

	s.Run("Error case: skipping activation is rejected", func() {
		t := s.T()

		dbtest.CreateTestUser(t, s.DB, "rider@example.com", string(user.RoleGuest))
		dbtest.CreateTestUser(t, s.DB, "ops@example.com", string(user.RoleOperator))
		bikeID := dbtest.CreateTestBike(t, s.DB, "Royal Enfield Classic 350", 100000)

		riderToken := authtest.LoginUser(t, s.Router, "rider@example.com", "password123")
		opsToken := authtest.LoginUser(t, s.Router, "ops@example.com", "password123")

		reqBody := builder.NewBookingBuilder().WithBikeID(bikeID).BuildCreateRequestDTO()
		w := httptest.PerformRequestWithHeaders(t, s.Router, http.MethodPost, bookingsURL, reqBody, riderToken, idempotencyHeader())
		require.Equal(t, http.StatusCreated, w.Code)
		var created queries.BookingView
		require.NoError(t, httptest.DecodeResponseBody(t, w.Body, &created))

		complete := httptest.PerformRequest(t, s.Router, http.MethodPatch,
			bookingsURL+"/"+created.ID.String()+"/status", map[string]string{"status": "Completed"}, opsToken)
		require.Equal(t, http.StatusUnprocessableEntity, complete.Code, "Pending cannot jump to Completed")
	})
}

// =============================================================================
// TestGetBooking / listing
// =============================================================================

func (s *BookingSuite) TestGetBooking() {
	s.Run("Normal case: owner reads their booking, stranger gets 404", func() {
		t := s.T()

		dbtest.CreateTestUser(t, s.DB, "owner@example.com", string(user.RoleGuest))
		dbtest.CreateTestUser(t, s.DB, "other@example.com", string(user.RoleGuest))
		bikeID := dbtest.CreateTestBike(t, s.DB, "Royal Enfield Classic 350", 100000)

		ownerToken := authtest.LoginUser(t, s.Router, "owner@example.com", "password123")
		otherToken := authtest.LoginUser(t, s.Router, "other@example.com", "password123")

		reqBody := builder.NewBookingBuilder().WithBikeID(bikeID).BuildCreateRequestDTO()
		w := httptest.PerformRequestWithHeaders(t, s.Router, http.MethodPost, bookingsURL, reqBody, ownerToken, idempotencyHeader())
		require.Equal(t, http.StatusCreated, w.Code)
		var created queries.BookingView
		require.NoError(t, httptest.DecodeResponseBody(t, w.Body, &created))

		detailURL := bookingsURL + "/" + created.ID.String()

		own := httptest.PerformRequest(t, s.Router, http.MethodGet, detailURL, nil, ownerToken)
		require.Equal(t, http.StatusOK, own.Code)

		// Ownership concealment: a stranger cannot tell the booking exists.
		other := httptest.PerformRequest(t, s.Router, http.MethodGet, detailURL, nil, otherToken)
		require.Equal(t, http.StatusNotFound, other.Code)
	})

	s.Run("Authorization: operator listing is closed to guests", func() {
		t := s.T()

		dbtest.CreateTestUser(t, s.DB, "rider@example.com", string(user.RoleGuest))
		dbtest.CreateTestUser(t, s.DB, "ops@example.com", string(user.RoleOperator))

		riderToken := authtest.LoginUser(t, s.Router, "rider@example.com", "password123")
		opsToken := authtest.LoginUser(t, s.Router, "ops@example.com", "password123")

		guest := httptest.PerformRequest(t, s.Router, http.MethodGet, operatorBookingsURL, nil, riderToken)
		require.Equal(t, http.StatusForbidden, guest.Code)

		ops := httptest.PerformRequest(t, s.Router, http.MethodGet, operatorBookingsURL, nil, opsToken)
		require.Equal(t, http.StatusOK, ops.Code)
	})
}

// =============================================================================
// TestAvailability
// =============================================================================

func (s *BookingSuite) TestAvailability() {
	s.Run("Normal case: availability flips with the booking lifecycle", func() {
		t := s.T()

		dbtest.CreateTestUser(t, s.DB, "rider@example.com", string(user.RoleGuest))
		bikeID := dbtest.CreateTestBike(t, s.DB, "Royal Enfield Classic 350", 100000)
		token := authtest.LoginUser(t, s.Router, "rider@example.com", "password123")

		availabilityURL := "/api/bikes/" + bikeID.String() + "/availability?start=2026-03-10&end=2026-03-12"

		require.True(t, fetchAvailability(t, s, availabilityURL))

		reqBody := builder.NewBookingBuilder().
			WithBikeID(bikeID).
			WithDates("2026-03-10", "2026-03-12").
			BuildCreateRequestDTO()
		w := httptest.PerformRequestWithHeaders(t, s.Router, http.MethodPost, bookingsURL, reqBody, token, idempotencyHeader())
		require.Equal(t, http.StatusCreated, w.Code)
		var created queries.BookingView
		require.NoError(t, httptest.DecodeResponseBody(t, w.Body, &created))

		require.False(t, fetchAvailability(t, s, availabilityURL))

		cancel := httptest.PerformRequest(t, s.Router, http.MethodPatch,
			bookingsURL+"/"+created.ID.String()+"/status", map[string]string{"status": "Cancelled"}, token)
		require.Equal(t, http.StatusOK, cancel.Code)

		require.True(t, fetchAvailability(t, s, availabilityURL))
	})

	s.Run("Error case: malformed date range", func() {
		t := s.T()

		bikeID := dbtest.CreateTestBike(t, s.DB, "Royal Enfield Classic 350", 100000)
		url := "/api/bikes/" + bikeID.String() + "/availability?start=2026-03-12&end=2026-03-10"
		w := httptest.PerformRequest(t, s.Router, http.MethodGet, url, nil, "")
		require.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func fetchBikeStatus(t *testing.T, s *BookingSuite, bikeID uuid.UUID) string {
	t.Helper()
	w := httptest.PerformRequest(t, s.Router, http.MethodGet, "/api/bikes/"+bikeID.String(), nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var view queries.BikeView
	require.NoError(t, httptest.DecodeResponseBody(t, w.Body, &view))
	return view.Status
}

func fetchAvailability(t *testing.T, s *BookingSuite, url string) bool {
	t.Helper()
	w := httptest.PerformRequest(t, s.Router, http.MethodGet, url, nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		Available bool `json:"available"`
	}
	require.NoError(t, httptest.DecodeResponseBody(t, w.Body, &resp))
	return resp.Available
}
