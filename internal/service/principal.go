package service

import (
	"context"
	"errors"

	"drivemate/internal/domain"
	"drivemate/internal/repository"
)

func requireCustomer(p domain.Principal) error {
	if !p.IsCustomer() {
		return ErrCustomerOnly
	}
	return nil
}

// resolveDriver maps a driver principal to its driver profile.
func resolveDriver(ctx context.Context, drivers repository.DriverRepository, p domain.Principal) (*domain.Driver, error) {
	if !p.IsDriver() {
		return nil, ErrDriverOnly
	}
	driver, err := drivers.GetByUserID(ctx, p.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNoDriverProfile
	}
	return driver, err
}

// ownedRequest loads a request and checks it belongs to driver.
func ownedRequest(ctx context.Context, requests repository.RideRequestRepository, driver *domain.Driver, requestID string) (*domain.RideRequest, error) {
	req, err := requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.DriverID != driver.ID {
		return nil, ErrNotRequestOwner
	}
	return req, nil
}
