package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"drivemate/internal/service"
)

// TripHandler handles starting, ending and previewing a driver's trip.
type TripHandler struct {
	trips *service.TripService
}

// NewTripHandler creates a new TripHandler.
func NewTripHandler(trips *service.TripService) *TripHandler {
	return &TripHandler{trips: trips}
}

// EndRideRequest is the HTTP request body for ending a ride. Additional
// charges may be sent as a number or a decimal string.
type EndRideRequest struct {
	AdditionalCharges any  `json:"additional_charges"`
	ReturnTrip        bool `json:"return_trip"`
}

// EndRideResponse is the HTTP response for ending a ride.
type EndRideResponse struct {
	Message string        `json:"message"`
	Ride    RideResponse  `json:"ride"`
	Route   RouteResponse `json:"route"`
}

// StartRide handles POST /v1/driver/requests/:id/start
func (h *TripHandler) StartRide(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	ride, err := h.trips.StartRide(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toRideResponse(ride))
}

// EndRide handles POST /v1/driver/requests/:id/end
func (h *TripHandler) EndRide(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var req EndRideRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBadRequest(c, "invalid request body")
			return
		}
	}

	charges, ok := chargesString(req.AdditionalCharges)
	if !ok {
		respondError(c, service.ErrInvalidAdditionalCharges)
		return
	}

	res, err := h.trips.EndRide(c.Request.Context(), p, c.Param("id"), service.EndRideRequest{
		AdditionalCharges: charges,
		ReturnTrip:        req.ReturnTrip,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, EndRideResponse{
		Message: res.Message,
		Ride:    toRideResponse(res.Ride),
		Route:   toRouteResponse(res.Route),
	})
}

// PreviewRoute handles GET /v1/driver/requests/:id/distance
func (h *TripHandler) PreviewRoute(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	route, err := h.trips.PreviewRoute(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toRouteResponse(route))
}

// chargesString normalises the additional_charges field, which clients send
// either as a JSON number or as a string.
func chargesString(v any) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "", true
	case string:
		return x, true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	default:
		return "", false
	}
}
