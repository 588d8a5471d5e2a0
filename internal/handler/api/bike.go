package api

import (
	"errors"
	"net/http"

	"rideyard/internal/domain/booking"
	reqdto "rideyard/internal/handler/dto/request"
	"rideyard/internal/infra"
	"rideyard/internal/usecase/commands"
	"rideyard/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type BikeHandler struct {
	bikeCommands commands.BikeCommands
	bikeQueries  queries.BikeQueries
}

func NewBikeHandler(bikeCommands commands.BikeCommands, bikeQueries queries.BikeQueries) *BikeHandler {
	return &BikeHandler{
		bikeCommands: bikeCommands,
		bikeQueries:  bikeQueries,
	}
}

// @Summary List bikes
// @Description List the fleet, newest first
// @Tags bikes
// @Produce json
// @Success 200 {array} queries.BikeView
// @Router /bikes [get]
func (h *BikeHandler) List(c *gin.Context) {
	views, err := h.bikeQueries.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	c.JSON(http.StatusOK, views)
}

// @Summary Get bike
// @Description Get bike by ID
// @Tags bikes
// @Produce json
// @Param id path string true "Bike ID"
// @Success 200 {object} queries.BikeView
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /bikes/{id} [get]
func (h *BikeHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid bike ID format",
		})
		return
	}

	view, err := h.bikeQueries.GetByID(c.Request.Context(), id)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Bike not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	c.JSON(http.StatusOK, view)
}

// @Summary Check availability
// @Description Advisory check whether the bike is free for the given dates
// @Tags bikes
// @Produce json
// @Param id path string true "Bike ID"
// @Param start query string true "Start date (YYYY-MM-DD)"
// @Param end query string true "End date (YYYY-MM-DD)"
// @Success 200 {object} map[string]bool
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /bikes/{id}/availability [get]
func (h *BikeHandler) Availability(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid bike ID format",
		})
		return
	}

	dates, err := booking.ParseDateRange(c.Query("start"), c.Query("end"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid date range",
		})
		return
	}

	available, err := h.bikeQueries.CheckAvailability(c.Request.Context(), id, dates)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Bike not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"available": available})
}

// @Summary Create bike
// @Description Add a bike to the fleet
// @Tags bikes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body reqdto.CreateBikeRequest true "Bike"
// @Success 201 {object} queries.BikeView
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /operator/bikes [post]
func (h *BikeHandler) Create(c *gin.Context) {
	var req reqdto.CreateBikeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	view, err := h.bikeCommands.Create(c.Request.Context(), req.ToInput())
	if err != nil {
		if errors.Is(err, commands.ErrDomainValidation) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error": "Invalid bike data",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	c.JSON(http.StatusCreated, view)
}

// @Summary Update bike
// @Description Partially update a bike; absent fields are left unchanged
// @Tags bikes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Bike ID"
// @Param request body reqdto.UpdateBikeRequest true "Fields to change"
// @Success 200 {object} queries.BikeView
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /operator/bikes/{id} [patch]
func (h *BikeHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid bike ID format",
		})
		return
	}

	var req reqdto.UpdateBikeRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	view, err := h.bikeCommands.Update(c.Request.Context(), id, req.ToFields())
	if err != nil {
		switch {
		case errors.Is(err, commands.ErrBikeNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Bike not found",
			})
		case errors.Is(err, commands.ErrDomainValidation):
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error": "Invalid bike data",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Internal server error",
			})
		}
		return
	}

	c.JSON(http.StatusOK, view)
}

// @Summary Delete bike
// @Description Remove a bike and every booking that references it
// @Tags bikes
// @Security BearerAuth
// @Param id path string true "Bike ID"
// @Success 204 "No Content"
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /operator/bikes/{id} [delete]
func (h *BikeHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid bike ID format",
		})
		return
	}

	if err := h.bikeCommands.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, commands.ErrBikeNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Bike not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	c.Status(http.StatusNoContent)
}
