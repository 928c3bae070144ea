package domain

import "time"

// RequestStatus is the arbitration outcome of a ride request.
type RequestStatus string

const (
	RequestStatusPending       RequestStatus = "pending"
	RequestStatusAccepted      RequestStatus = "accepted"
	RequestStatusRejected      RequestStatus = "rejected"
	RequestStatusAutoCancelled RequestStatus = "auto_cancelled"
)

// RideRequest is one driver's candidacy for a ride.
//
// Status records how arbitration resolved the request. Consumed is set once
// the accepted driver starts the ride; a consumed request is the gate for
// payment.
type RideRequest struct {
	ID          string
	RideID      string
	DriverID    string
	Status      RequestStatus
	Consumed    bool
	ConsumedAt  *time.Time
	RequestedAt time.Time
	RespondedAt *time.Time
}

// State returns the single display state of the request, where an accepted
// and consumed request reads "completed".
func (r *RideRequest) State() string {
	if r.Status == RequestStatusAccepted && r.Consumed {
		return "completed"
	}
	return string(r.Status)
}

// Respond sets the outcome and stamps responded_at.
func (r *RideRequest) Respond(status RequestStatus, at time.Time) {
	r.Status = status
	r.RespondedAt = &at
}
