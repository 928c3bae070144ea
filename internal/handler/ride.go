package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"drivemate/internal/domain"
	"drivemate/internal/service"
)

// RideHandler handles the customer side of rides.
type RideHandler struct {
	rides    *service.RideService
	matching *service.MatchingService
	ratings  *service.RatingService
}

// NewRideHandler creates a new RideHandler.
func NewRideHandler(rides *service.RideService, matching *service.MatchingService, ratings *service.RatingService) *RideHandler {
	return &RideHandler{
		rides:    rides,
		matching: matching,
		ratings:  ratings,
	}
}

// CreateRideRequest is the HTTP request body for creating a ride.
type CreateRideRequest struct {
	StartLocation          string         `json:"start_location"`
	EndLocation            string         `json:"end_location"`
	Start                  *CoordinateDTO `json:"start"`
	End                    *CoordinateDTO `json:"end"`
	Mode                   string         `json:"mode,omitempty"`
	StartTime              string         `json:"start_time,omitempty"`
	FemaleDriverPreference bool           `json:"female_driver_preference"`
	PurposeID              string         `json:"purpose_id,omitempty"`
}

// RideDetailResponse is a ride with its requests and rating. Both are
// omitted for drivers.
type RideDetailResponse struct {
	RideResponse
	Requests []RequestResponse `json:"requests,omitempty"`
	Rating   *RatingResponse   `json:"rating,omitempty"`
}

// RequestDriverRequest is the HTTP request body for requesting a driver.
type RequestDriverRequest struct {
	DriverID string `json:"driver_id"`
}

// RateRideRequest is the HTTP request body for rating a ride.
type RateRideRequest struct {
	Score    int    `json:"score"`
	Feedback string `json:"feedback,omitempty"`
}

// ListPurposes handles GET /v1/purposes
func (h *RideHandler) ListPurposes(c *gin.Context) {
	purposes, err := h.rides.ListPurposes(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]PurposeResponse, 0, len(purposes))
	for _, p := range purposes {
		out = append(out, PurposeResponse{ID: p.ID, Slug: p.Slug, Name: p.Name})
	}
	respondJSON(c, http.StatusOK, gin.H{"purposes": out})
}

// CreateRide handles POST /v1/rides
func (h *RideHandler) CreateRide(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var req CreateRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	in := service.CreateRideRequest{
		StartLocation:          req.StartLocation,
		EndLocation:            req.EndLocation,
		Mode:                   req.Mode,
		StartTime:              req.StartTime,
		FemaleDriverPreference: req.FemaleDriverPreference,
		PurposeID:              req.PurposeID,
	}
	if req.Start != nil {
		in.Start = &domain.Coordinate{Lat: req.Start.Lat, Lng: req.Start.Lng}
	}
	if req.End != nil {
		in.End = &domain.Coordinate{Lat: req.End.Lat, Lng: req.End.Lng}
	}

	ride, err := h.rides.CreateRide(c.Request.Context(), p, in)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusCreated, toRideResponse(ride))
}

// ListRides handles GET /v1/rides
func (h *RideHandler) ListRides(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	rides, err := h.rides.ListRides(c.Request.Context(), p, c.Query("status"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, gin.H{"rides": toRideResponses(rides)})
}

// GetRide handles GET /v1/rides/:id
func (h *RideHandler) GetRide(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	detail, err := h.rides.GetRide(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	resp := RideDetailResponse{RideResponse: toRideResponse(detail.Ride)}
	if detail.Requests != nil {
		resp.Requests = toRequestResponses(detail.Requests)
	}
	if detail.Rating != nil {
		rating := toRatingResponse(detail.Rating)
		resp.Rating = &rating
	}
	respondJSON(c, http.StatusOK, resp)
}

// ListCandidates handles GET /v1/rides/:id/candidates
func (h *RideHandler) ListCandidates(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	q := service.CandidateQuery{
		VehicleType:  domain.VehicleType(c.Query("vehicle_type")),
		Transmission: domain.Transmission(c.Query("transmission")),
		FuelType:     domain.FuelType(c.Query("fuel_type")),
	}
	if v := c.Query("female_only"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			respondBadRequest(c, "female_only must be a boolean")
			return
		}
		q.FemaleOnly = b
	}
	if v := c.Query("min_rating"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			respondError(c, service.ErrInvalidMinRating)
			return
		}
		q.MinRating = f
	}

	candidates, err := h.matching.ListCandidates(c.Request.Context(), p, c.Param("id"), q)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, gin.H{"candidates": toCandidateResponses(candidates)})
}

// RequestDriver handles POST /v1/rides/:id/requests
func (h *RideHandler) RequestDriver(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var req RequestDriverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	rr, err := h.matching.RequestDriver(c.Request.Context(), p, c.Param("id"), req.DriverID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusCreated, toRequestResponse(rr))
}

// CancelRide handles POST /v1/rides/:id/cancel
func (h *RideHandler) CancelRide(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	ride, err := h.rides.CancelRide(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toRideResponse(ride))
}

// ReopenRide handles POST /v1/rides/:id/reopen
func (h *RideHandler) ReopenRide(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	ride, err := h.rides.ReopenRide(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toRideResponse(ride))
}

// CloseRequest handles POST /v1/requests/:id/close
func (h *RideHandler) CloseRequest(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	rr, err := h.rides.CloseRequest(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toRequestResponse(rr))
}

// RateRide handles POST /v1/rides/:id/rating
func (h *RideHandler) RateRide(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var req RateRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	rating, err := h.ratings.Rate(c.Request.Context(), p, c.Param("id"), req.Score, req.Feedback)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusCreated, toRatingResponse(rating))
}
