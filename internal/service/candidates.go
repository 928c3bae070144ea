package service

import (
	"context"
	"fmt"
	"math"
	"sort"

	"drivemate/internal/domain"
	"drivemate/internal/redis"
	"drivemate/internal/repository"
	"drivemate/internal/routing"
)

// CandidateQuery holds the optional customer filters for candidate surfacing.
type CandidateQuery struct {
	FemaleOnly   bool
	MinRating    float64
	VehicleType  domain.VehicleType
	Transmission domain.Transmission
	FuelType     domain.FuelType
}

// Candidate is one ranked option for a ride. Vehicle is nil for driver_only
// rides. DistanceKm is +Inf when the driver has no known location.
type Candidate struct {
	Driver           *domain.Driver
	Vehicle          *domain.Vehicle
	DistanceKm       float64
	AlreadyRequested bool
}

// ListCandidates returns up to 20 drivers (or vehicles with their drivers)
// for the customer's ride, nearest first. Fully eligible candidates are taken
// first and the list is backfilled from the soft filters alone.
func (s *MatchingService) ListCandidates(ctx context.Context, p domain.Principal, rideID string, q CandidateQuery) ([]Candidate, error) {
	if err := requireCustomer(p); err != nil {
		return nil, err
	}
	if q.MinRating < 0 || q.MinRating > 5 {
		return nil, ErrInvalidMinRating
	}

	repos := s.store.Repos()
	ride, err := repos.Rides.GetByID(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if _, err := ownedRide(ride, p); err != nil {
		return nil, err
	}
	if ride.Status != domain.RideStatusRequested {
		return nil, ErrRideNotAvailable
	}

	filter := repository.CandidateFilter{
		FemaleOnly: q.FemaleOnly || ride.FemaleDriverPreference,
		MinRating:  q.MinRating,
	}
	if ride.Mode == domain.RideModeCarWithDriver {
		filter.VehicleType = q.VehicleType
		filter.Transmission = q.Transmission
		filter.FuelType = q.FuelType
	}

	pool, err := s.candidatePool(ctx, repos, ride.Mode, filter)
	if err != nil {
		return nil, err
	}

	requests, err := repos.Requests.ListByRide(ctx, ride.ID)
	if err != nil {
		return nil, err
	}
	requested := make(map[string]bool, len(requests))
	for _, r := range requests {
		requested[r.DriverID] = true
	}

	for i := range pool {
		pool[i].DistanceKm = distanceFrom(ride.Start, pool[i].Driver.Location)
		pool[i].AlreadyRequested = requested[pool[i].Driver.ID]
	}
	sort.SliceStable(pool, func(i, j int) bool { return pool[i].DistanceKm < pool[j].DistanceKm })
	if len(pool) > maxCandidates {
		pool = pool[:maxCandidates]
	}
	return pool, nil
}

// candidatePool returns the unranked pool, from cache when possible.
func (s *MatchingService) candidatePool(ctx context.Context, repos repository.Repositories, mode domain.RideMode, filter repository.CandidateFilter) ([]Candidate, error) {
	key := poolKey(mode, filter)
	if s.cacheStore != nil {
		cached, hit, err := s.cacheStore.GetCandidates(ctx, key)
		if err != nil {
			s.log.WithError(err).WithField("key", key).Warn("candidate cache read failed")
		} else if hit {
			return fromCached(cached), nil
		}
	}

	var pool []Candidate
	var err error
	if mode == domain.RideModeDriverOnly {
		pool, err = loadDriverPool(ctx, repos.Drivers, filter)
	} else {
		pool, err = loadVehiclePool(ctx, repos.Vehicles, filter)
	}
	if err != nil {
		return nil, err
	}

	if s.cacheStore != nil {
		if err := s.cacheStore.SetCandidates(ctx, key, toCached(pool), s.opts.CandidateCacheTTL); err != nil {
			s.log.WithError(err).WithField("key", key).Warn("candidate cache write failed")
		}
	}
	return pool, nil
}

// loadDriverPool loads every strict candidate and backfills the shortfall
// from the soft filters. Truncation to 20 happens after distance ranking.
func loadDriverPool(ctx context.Context, drivers repository.DriverRepository, filter repository.CandidateFilter) ([]Candidate, error) {
	strict := filter
	strict.Strict = true
	found, err := drivers.ListCandidates(ctx, strict)
	if err != nil {
		return nil, err
	}

	if len(found) < maxCandidates {
		soft := filter
		soft.Limit = maxCandidates - len(found)
		for _, d := range found {
			soft.ExcludeIDs = append(soft.ExcludeIDs, d.ID)
		}
		more, err := drivers.ListCandidates(ctx, soft)
		if err != nil {
			return nil, err
		}
		found = append(found, more...)
	}

	pool := make([]Candidate, 0, len(found))
	for _, d := range found {
		pool = append(pool, Candidate{Driver: d})
	}
	return pool, nil
}

func loadVehiclePool(ctx context.Context, vehicles repository.VehicleRepository, filter repository.CandidateFilter) ([]Candidate, error) {
	strict := filter
	strict.Strict = true
	found, err := vehicles.ListCandidates(ctx, strict)
	if err != nil {
		return nil, err
	}

	if len(found) < maxCandidates {
		soft := filter
		soft.Limit = maxCandidates - len(found)
		for _, c := range found {
			soft.ExcludeIDs = append(soft.ExcludeIDs, c.Vehicle.ID)
		}
		more, err := vehicles.ListCandidates(ctx, soft)
		if err != nil {
			return nil, err
		}
		found = append(found, more...)
	}

	pool := make([]Candidate, 0, len(found))
	for _, c := range found {
		pool = append(pool, Candidate{Driver: c.Driver, Vehicle: c.Vehicle})
	}
	return pool, nil
}

func distanceFrom(origin, loc *domain.Coordinate) float64 {
	if origin == nil || loc == nil {
		return math.Inf(1)
	}
	return routing.HaversineKm(*origin, *loc)
}

func poolKey(mode domain.RideMode, f repository.CandidateFilter) string {
	return fmt.Sprintf("%s|female=%t|min=%.2f|type=%s|trans=%s|fuel=%s",
		mode, f.FemaleOnly, f.MinRating, f.VehicleType, f.Transmission, f.FuelType)
}

func toCached(pool []Candidate) []redis.CachedCandidate {
	out := make([]redis.CachedCandidate, 0, len(pool))
	for _, c := range pool {
		d := c.Driver
		cc := redis.CachedCandidate{
			DriverID:         d.ID,
			UserID:           d.UserID,
			Name:             d.Name,
			Gender:           d.Gender,
			Rating:           d.Rating,
			RatingCount:      d.RatingCount,
			IsAvailable:      d.IsAvailable,
			Verified:         d.Verified,
			DayFixedCharge:   int64(d.DayFixedCharge),
			NightFixedCharge: int64(d.NightFixedCharge),
			LocationLabel:    d.LocationLabel,
		}
		if d.Location != nil {
			lat, lng := d.Location.Lat, d.Location.Lng
			cc.Lat, cc.Lng = &lat, &lng
		}
		if v := c.Vehicle; v != nil {
			cc.VehicleID = v.ID
			cc.RegistrationNumber = v.RegistrationNumber
			cc.Make = v.Make
			cc.Model = v.Model
			cc.VehicleType = string(v.Type)
			cc.Transmission = string(v.Transmission)
			cc.FuelType = string(v.FuelType)
			cc.PerKmRate = int64(v.PerKmRate)
			cc.PerMinRate = int64(v.PerMinRate)
			cc.VehicleVerified = v.Verified
		}
		out = append(out, cc)
	}
	return out
}

func fromCached(cached []redis.CachedCandidate) []Candidate {
	out := make([]Candidate, 0, len(cached))
	for _, cc := range cached {
		d := &domain.Driver{
			ID:               cc.DriverID,
			UserID:           cc.UserID,
			Name:             cc.Name,
			Gender:           cc.Gender,
			Rating:           cc.Rating,
			RatingCount:      cc.RatingCount,
			IsAvailable:      cc.IsAvailable,
			Verified:         cc.Verified,
			DayFixedCharge:   domain.Money(cc.DayFixedCharge),
			NightFixedCharge: domain.Money(cc.NightFixedCharge),
			LocationLabel:    cc.LocationLabel,
		}
		if cc.Lat != nil && cc.Lng != nil {
			d.Location = &domain.Coordinate{Lat: *cc.Lat, Lng: *cc.Lng}
		}
		c := Candidate{Driver: d}
		if cc.VehicleID != "" {
			c.Vehicle = &domain.Vehicle{
				ID:                 cc.VehicleID,
				RegistrationNumber: cc.RegistrationNumber,
				Make:               cc.Make,
				Model:              cc.Model,
				Type:               domain.VehicleType(cc.VehicleType),
				Transmission:       domain.Transmission(cc.Transmission),
				FuelType:           domain.FuelType(cc.FuelType),
				PerKmRate:          domain.Money(cc.PerKmRate),
				PerMinRate:         domain.Money(cc.PerMinRate),
				Verified:           cc.VehicleVerified,
				Active:             true,
				CurrentDriverID:    cc.DriverID,
			}
		}
		out = append(out, c)
	}
	return out
}
