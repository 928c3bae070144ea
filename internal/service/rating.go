package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"drivemate/internal/domain"
	"drivemate/internal/repository"
)

// RatingService records customer ratings and keeps driver averages current.
type RatingService struct {
	store repository.Store
	log   logrus.FieldLogger
}

// NewRatingService creates a new RatingService.
func NewRatingService(store repository.Store, log logrus.FieldLogger) *RatingService {
	return &RatingService{
		store: store,
		log:   log,
	}
}

// Rate scores the driver of the customer's completed ride. The driver's
// rating becomes the mean of all their scores, to two decimals.
func (s *RatingService) Rate(ctx context.Context, p domain.Principal, rideID string, score int, feedback string) (*domain.Rating, error) {
	if err := requireCustomer(p); err != nil {
		return nil, err
	}
	if score < 1 || score > 5 {
		return nil, ErrInvalidScore
	}

	var rating *domain.Rating
	var driver *domain.Driver
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		ride, err := lockOwnedRide(ctx, repos, p, rideID)
		if err != nil {
			return err
		}
		if ride.Status != domain.RideStatusCompleted || ride.DriverID == "" {
			return ErrRideNotCompleted
		}

		driver, err = repos.Drivers.GetByIDForUpdate(ctx, ride.DriverID)
		if err != nil {
			return err
		}

		rating = &domain.Rating{
			ID:         uuid.New().String(),
			RideID:     ride.ID,
			CustomerID: p.UserID,
			DriverID:   driver.ID,
			VehicleID:  ride.VehicleID,
			Score:      score,
			Feedback:   strings.TrimSpace(feedback),
			CreatedAt:  time.Now(),
		}
		if err := repos.Ratings.Create(ctx, rating); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return ErrRideAlreadyRated
			}
			return err
		}

		avg, count, err := repos.Ratings.DriverAverage(ctx, driver.ID)
		if err != nil {
			return err
		}
		driver.Rating = math.Round(avg*100) / 100
		driver.RatingCount = count
		driver.UpdatedAt = rating.CreatedAt
		return repos.Drivers.Update(ctx, driver)
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"ride_id":   rideID,
		"driver_id": driver.ID,
		"score":     score,
		"rating":    driver.Rating,
	}).Info("ride rated")
	return rating, nil
}

// DriverRatings is a driver's rating history.
type DriverRatings struct {
	Driver  *domain.Driver
	Average float64
	Count   int
	Ratings []*domain.Rating
}

// DriverRatings returns the mean score of a driver and their ratings, newest first.
func (s *RatingService) DriverRatings(ctx context.Context, p domain.Principal, driverID string) (*DriverRatings, error) {
	if err := requireCustomer(p); err != nil {
		return nil, err
	}

	repos := s.store.Repos()
	driver, err := repos.Drivers.GetByID(ctx, driverID)
	if err != nil {
		return nil, err
	}
	avg, count, err := repos.Ratings.DriverAverage(ctx, driver.ID)
	if err != nil {
		return nil, err
	}
	ratings, err := repos.Ratings.ListByDriver(ctx, driver.ID)
	if err != nil {
		return nil, err
	}
	return &DriverRatings{
		Driver:  driver,
		Average: math.Round(avg*100) / 100,
		Count:   count,
		Ratings: ratings,
	}, nil
}
