package response

import (
	"rideyard/internal/usecase/queries"
)

// AccessToken is also set as an HttpOnly cookie; it is echoed in the
// body for non-browser clients that prefer the Authorization header.
type LoginResponse struct {
	AccessToken string                      `json:"access_token"`
	User        *queries.AuthorizedUserView `json:"user"`
}
