package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"drivemate/internal/routing"
	"drivemate/internal/service"
)

// DriverHandler handles the driver's profile and request inbox.
type DriverHandler struct {
	drivers  *service.DriverService
	matching *service.MatchingService
	payments *service.PaymentService
	ratings  *service.RatingService
}

// NewDriverHandler creates a new DriverHandler.
func NewDriverHandler(drivers *service.DriverService, matching *service.MatchingService, payments *service.PaymentService, ratings *service.RatingService) *DriverHandler {
	return &DriverHandler{
		drivers:  drivers,
		matching: matching,
		payments: payments,
		ratings:  ratings,
	}
}

// AvailabilityRequest is the HTTP request body for availability changes.
// A missing is_available toggles the current value.
type AvailabilityRequest struct {
	IsAvailable *bool `json:"is_available"`
}

// UpdateLocationRequest is the HTTP request body for location updates.
type UpdateLocationRequest struct {
	Lat   *float64 `json:"lat"`
	Lng   *float64 `json:"lng"`
	Label string   `json:"label,omitempty"`
}

// AcceptRequest is the HTTP request body for accepting a request.
type AcceptRequest struct {
	VehicleID string `json:"vehicle_id,omitempty"`
}

// InboxItem is a request together with its ride.
type InboxItem struct {
	Request RequestResponse `json:"request"`
	Ride    RideResponse    `json:"ride"`
}

// AcceptResponse is the HTTP response for a successful accept.
type AcceptResponse struct {
	Ride          RideResponse    `json:"ride"`
	Request       RequestResponse `json:"request"`
	AutoCancelled int64           `json:"auto_cancelled"`
}

// Profile handles GET /v1/driver/profile
func (h *DriverHandler) Profile(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	driver, err := h.drivers.Profile(c.Request.Context(), p)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toDriverResponse(driver))
}

// SetAvailability handles POST /v1/driver/availability
func (h *DriverHandler) SetAvailability(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var req AvailabilityRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBadRequest(c, "invalid request body")
			return
		}
	}

	driver, err := h.drivers.SetAvailability(c.Request.Context(), p, req.IsAvailable)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toDriverResponse(driver))
}

// UpdateLocation handles POST /v1/driver/location
func (h *DriverHandler) UpdateLocation(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var req UpdateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	if req.Lat == nil || req.Lng == nil {
		respondError(c, routing.ErrMissingCoordinates)
		return
	}

	driver, err := h.drivers.UpdateLocation(c.Request.Context(), p, service.UpdateLocationRequest{
		Lat:   *req.Lat,
		Lng:   *req.Lng,
		Label: req.Label,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toDriverResponse(driver))
}

// ListRequests handles GET /v1/driver/requests
func (h *DriverHandler) ListRequests(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	inbox, err := h.matching.ListDriverRequests(c.Request.Context(), p)
	if err != nil {
		respondError(c, err)
		return
	}

	items := make([]InboxItem, 0, len(inbox.Items))
	for _, it := range inbox.Items {
		items = append(items, InboxItem{
			Request: toRequestResponse(it.Request),
			Ride:    toRideResponse(it.Ride),
		})
	}
	respondJSON(c, http.StatusOK, gin.H{
		"requests":        items,
		"has_active_ride": inbox.HasActiveRide,
	})
}

// GetRequest handles GET /v1/driver/requests/:id
func (h *DriverHandler) GetRequest(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	item, err := h.matching.GetRequest(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, InboxItem{
		Request: toRequestResponse(item.Request),
		Ride:    toRideResponse(item.Ride),
	})
}

// Accept handles POST /v1/driver/requests/:id/accept
func (h *DriverHandler) Accept(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var req AcceptRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBadRequest(c, "invalid request body")
			return
		}
	}

	res, err := h.matching.AcceptRequest(c.Request.Context(), p, c.Param("id"), req.VehicleID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, AcceptResponse{
		Ride:          toRideResponse(res.Ride),
		Request:       toRequestResponse(res.Request),
		AutoCancelled: res.AutoCancelled,
	})
}

// Reject handles POST /v1/driver/requests/:id/reject
func (h *DriverHandler) Reject(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	rr, err := h.matching.RejectRequest(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toRequestResponse(rr))
}

// ListPayments handles GET /v1/driver/payments
func (h *DriverHandler) ListPayments(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	payments, err := h.payments.ListDriverPayments(c.Request.Context(), p)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, gin.H{"payments": toPaymentResponses(payments)})
}

// Details handles GET /v1/drivers/:id
func (h *DriverHandler) Details(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	driver, err := h.drivers.PublicProfile(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, DriverDetailsResponse{
		ID:              driver.ID,
		Name:            driver.Name,
		Rating:          driver.Rating,
		RatingCount:     driver.RatingCount,
		ExperienceYears: driver.ExperienceYears,
		LicenseNumber:   driver.LicenseNumber,
	})
}

// Ratings handles GET /v1/drivers/:id/ratings
func (h *DriverHandler) Ratings(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	history, err := h.ratings.DriverRatings(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]RatingResponse, 0, len(history.Ratings))
	for _, r := range history.Ratings {
		out = append(out, toRatingResponse(r))
	}
	respondJSON(c, http.StatusOK, DriverRatingsResponse{
		DriverID:    history.Driver.ID,
		Name:        history.Driver.Name,
		AvgRating:   history.Average,
		RatingCount: history.Count,
		Ratings:     out,
	})
}
