package service

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"drivemate/internal/domain"
	"drivemate/internal/repository"
)

// DriverService handles a driver's own profile, availability and location.
type DriverService struct {
	store repository.Store
	log   logrus.FieldLogger
}

// NewDriverService creates a new DriverService.
func NewDriverService(store repository.Store, log logrus.FieldLogger) *DriverService {
	return &DriverService{
		store: store,
		log:   log,
	}
}

// Profile returns the calling driver's profile.
func (s *DriverService) Profile(ctx context.Context, p domain.Principal) (*domain.Driver, error) {
	return resolveDriver(ctx, s.store.Repos().Drivers, p)
}

// PublicProfile returns a driver a customer may book. Unavailable or
// unverified drivers read as missing.
func (s *DriverService) PublicProfile(ctx context.Context, p domain.Principal, driverID string) (*domain.Driver, error) {
	if err := requireCustomer(p); err != nil {
		return nil, err
	}
	driver, err := s.store.Repos().Drivers.GetByID(ctx, driverID)
	if err != nil {
		return nil, err
	}
	if !driver.IsAvailable || !driver.Verified {
		return nil, repository.ErrNotFound
	}
	return driver, nil
}

// SetAvailability sets the driver's availability, or toggles it when
// available is nil.
func (s *DriverService) SetAvailability(ctx context.Context, p domain.Principal, available *bool) (*domain.Driver, error) {
	return s.updateSelf(ctx, p, func(d *domain.Driver) error {
		if available == nil {
			d.IsAvailable = !d.IsAvailable
		} else {
			d.IsAvailable = *available
		}
		return nil
	})
}

// UpdateLocationRequest contains the parameters for updating driver location.
type UpdateLocationRequest struct {
	Lat   float64
	Lng   float64
	Label string
}

// UpdateLocation stores the driver's last known position.
func (s *DriverService) UpdateLocation(ctx context.Context, p domain.Principal, req UpdateLocationRequest) (*domain.Driver, error) {
	loc := domain.Coordinate{Lat: req.Lat, Lng: req.Lng}
	if !loc.Valid() {
		return nil, ErrInvalidCoordinates
	}
	return s.updateSelf(ctx, p, func(d *domain.Driver) error {
		d.Location = &loc
		d.LocationLabel = strings.TrimSpace(req.Label)
		return nil
	})
}

func (s *DriverService) updateSelf(ctx context.Context, p domain.Principal, mutate func(*domain.Driver) error) (*domain.Driver, error) {
	profile, err := resolveDriver(ctx, s.store.Repos().Drivers, p)
	if err != nil {
		return nil, err
	}

	var driver *domain.Driver
	err = s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		driver, err = repos.Drivers.GetByIDForUpdate(ctx, profile.ID)
		if err != nil {
			return err
		}
		if err := mutate(driver); err != nil {
			return err
		}
		driver.UpdatedAt = time.Now()
		return repos.Drivers.Update(ctx, driver)
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"driver_id":    driver.ID,
		"is_available": driver.IsAvailable,
	}).Debug("driver profile updated")
	return driver, nil
}
