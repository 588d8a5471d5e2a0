package request

import (
	"rideyard/internal/usecase/commands"
	"rideyard/internal/usecase/shared"
)

type CreateBikeRequest struct {
	Name         string `json:"name" binding:"required"`
	Category     string `json:"category"`
	EngineCC     int    `json:"engine_cc"`
	DayRateCents int64  `json:"day_rate_cents" binding:"required"`
	DepositCents int64  `json:"deposit_cents"`
	ImageURL     string `json:"image_url"`
	Description  string `json:"description"`
}

func (r CreateBikeRequest) ToInput() commands.CreateBikeInput {
	return commands.CreateBikeInput{
		Name:         r.Name,
		Category:     r.Category,
		EngineCC:     r.EngineCC,
		DayRateCents: r.DayRateCents,
		DepositCents: r.DepositCents,
		ImageURL:     r.ImageURL,
		Description:  r.Description,
	}
}

// UpdateBikeRequest is a partial edit: absent fields are left unchanged.
type UpdateBikeRequest struct {
	Name         *string `json:"name,omitempty"`
	Category     *string `json:"category,omitempty"`
	EngineCC     *int    `json:"engine_cc,omitempty"`
	DayRateCents *int64  `json:"day_rate_cents,omitempty"`
	DepositCents *int64  `json:"deposit_cents,omitempty"`
	ImageURL     *string `json:"image_url,omitempty"`
	Description  *string `json:"description,omitempty"`
}

func (r UpdateBikeRequest) ToFields() shared.BikeUpdate {
	return shared.BikeUpdate{
		Name:         r.Name,
		Category:     r.Category,
		EngineCC:     r.EngineCC,
		DayRateCents: r.DayRateCents,
		DepositCents: r.DepositCents,
		ImageURL:     r.ImageURL,
		Description:  r.Description,
	}
}
