package service

import "errors"

// Error categories. Every *Error wraps exactly one of these, so callers can
// classify failures with errors.Is.
var (
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("conflict")
	ErrForbidden  = errors.New("forbidden")
)

// Error is a service failure with a caller-facing message.
type Error struct {
	kind  error
	msg   string
	cause error
}

func (e *Error) Error() string { return e.msg }

// Unwrap exposes the category and, when present, the underlying cause.
func (e *Error) Unwrap() []error {
	if e.cause == nil {
		return []error{e.kind}
	}
	return []error{e.kind, e.cause}
}

func validationError(msg string) *Error { return &Error{kind: ErrValidation, msg: msg} }

func conflictError(msg string) *Error { return &Error{kind: ErrConflict, msg: msg} }

func forbiddenError(msg string) *Error { return &Error{kind: ErrForbidden, msg: msg} }

// invalid turns an input error from a collaborator into a validation error.
func invalid(err error) error {
	return &Error{kind: ErrValidation, msg: err.Error(), cause: err}
}

var (
	// ErrCustomerOnly is returned when a non-customer calls a customer operation.
	ErrCustomerOnly = forbiddenError("customer role required")

	// ErrDriverOnly is returned when a non-driver calls a driver operation.
	ErrDriverOnly = forbiddenError("driver role required")

	// ErrNoDriverProfile is returned when a driver principal has no driver profile.
	ErrNoDriverProfile = forbiddenError("driver profile not found")

	// ErrNotRequestOwner is returned when the request belongs to another driver.
	ErrNotRequestOwner = forbiddenError("request does not belong to driver")
)

var (
	ErrMissingLocations         = validationError("start and end locations are required")
	ErrMissingCoordinates       = validationError("start and end coordinates are required")
	ErrInvalidCoordinates       = validationError("invalid coordinate values")
	ErrInvalidStartTime         = validationError("start_time must be RFC3339")
	ErrInvalidRideStatus        = validationError("invalid ride status")
	ErrInvalidAdditionalCharges = validationError("additional charges must be a non-negative amount")
	ErrInvalidPaymentMethod     = validationError("invalid payment method")
	ErrInvalidPaymentAmount     = validationError("amount must be greater than zero")
	ErrInvalidScore             = validationError("score must be between 1 and 5")
	ErrInvalidMinRating         = validationError("min_rating must be between 0 and 5")
	ErrMissingDriverID          = validationError("driver_id is required")
	ErrRequestNotAccepted       = validationError("request is not accepted or already started")
	ErrRideNotAccepted          = validationError("ride is not accepted")
	ErrRideNotStarted           = validationError("ride has not started")
	ErrRideAlreadyEnded         = validationError("ride already ended")
)

var (
	ErrRideNotAvailable       = conflictError("ride is no longer available")
	ErrRequestNotPending      = conflictError("request is no longer pending")
	ErrDriverHasActiveRide    = conflictError("driver already has an active ride")
	ErrVehicleNotEligible     = conflictError("vehicle not eligible")
	ErrNoEligibleVehicle      = conflictError("no eligible vehicle")
	ErrDriverAlreadyRequested = conflictError("driver already requested")
	ErrAcceptInProgress       = conflictError("driver has an accept in progress")
	ErrRideCannotBeCancelled  = conflictError("ride cannot be cancelled in current state")
	ErrRideCannotBeReopened   = conflictError("ride cannot be reopened in current state")
	ErrPaymentNotAvailable    = conflictError("payment not available yet")
	ErrRideAlreadyPaid        = conflictError("ride already paid")
	ErrRideNotCompleted       = conflictError("ride is not completed")
	ErrRideAlreadyRated       = conflictError("ride already rated")
	ErrReceiptNotAvailable    = conflictError("receipt is only available for successful ride payments")
)
