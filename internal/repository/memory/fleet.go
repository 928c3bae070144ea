package memory

import (
	"context"
	"sort"

	"drivemate/internal/domain"
	"drivemate/internal/repository"
)

type driverRepo struct {
	s  *Store
	tx bool
}

func (r *driverRepo) GetByID(_ context.Context, id string) (*domain.Driver, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	d, ok := r.s.data.drivers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &d, nil
}

func (r *driverRepo) GetByIDForUpdate(ctx context.Context, id string) (*domain.Driver, error) {
	return r.GetByID(ctx, id)
}

func (r *driverRepo) GetByUserID(_ context.Context, userID string) (*domain.Driver, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, d := range r.s.data.drivers {
		if d.UserID == userID {
			d := d
			return &d, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *driverRepo) ListCandidates(_ context.Context, f repository.CandidateFilter) ([]*domain.Driver, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	excluded := toSet(f.ExcludeIDs)
	var out []*domain.Driver
	for _, d := range r.s.data.drivers {
		if excluded[d.ID] || !driverMatches(&d, f) {
			continue
		}
		d := d
		out = append(out, &d)
	}
	sort.Slice(out, func(i, j int) bool { return byRating(out[i], out[j], out[i].ID, out[j].ID) })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r *driverRepo) Update(_ context.Context, d *domain.Driver) error {
	defer r.s.write(r.tx)()
	if _, ok := r.s.data.drivers[d.ID]; !ok {
		return repository.ErrNotFound
	}
	r.s.data.drivers[d.ID] = *d
	return nil
}

type vehicleRepo struct {
	s  *Store
	tx bool
}

func (r *vehicleRepo) GetByID(_ context.Context, id string) (*domain.Vehicle, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	v, ok := r.s.data.vehicles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &v, nil
}

func (r *vehicleRepo) GetByIDForUpdate(ctx context.Context, id string) (*domain.Vehicle, error) {
	return r.GetByID(ctx, id)
}

func (r *vehicleRepo) FirstEligibleForDriverForUpdate(_ context.Context, driverID string) (*domain.Vehicle, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var best *domain.Vehicle
	for _, v := range r.s.data.vehicles {
		if !v.EligibleFor(driverID) {
			continue
		}
		if best == nil || v.ID < best.ID {
			v := v
			best = &v
		}
	}
	if best == nil {
		return nil, repository.ErrNotFound
	}
	return best, nil
}

func (r *vehicleRepo) ListCandidates(_ context.Context, f repository.CandidateFilter) ([]repository.VehicleCandidate, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	excluded := toSet(f.ExcludeIDs)
	var out []repository.VehicleCandidate
	for _, v := range r.s.data.vehicles {
		if excluded[v.ID] || v.CurrentDriverID == "" || !v.Active {
			continue
		}
		if f.Strict && !v.Verified {
			continue
		}
		if (f.VehicleType != "" && v.Type != f.VehicleType) ||
			(f.Transmission != "" && v.Transmission != f.Transmission) ||
			(f.FuelType != "" && v.FuelType != f.FuelType) {
			continue
		}
		d, ok := r.s.data.drivers[v.CurrentDriverID]
		if !ok || !driverMatches(&d, f) {
			continue
		}
		v := v
		out = append(out, repository.VehicleCandidate{Vehicle: &v, Driver: &d})
	}
	sort.Slice(out, func(i, j int) bool {
		return byRating(out[i].Driver, out[j].Driver, out[i].Vehicle.ID, out[j].Vehicle.ID)
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

type purposeRepo struct {
	s  *Store
	tx bool
}

func (r *purposeRepo) List(_ context.Context) ([]*domain.RidePurpose, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*domain.RidePurpose
	for _, p := range r.s.data.purposes {
		p := p
		out = append(out, &p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *purposeRepo) GetByID(_ context.Context, id string) (*domain.RidePurpose, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.data.purposes[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func driverMatches(d *domain.Driver, f repository.CandidateFilter) bool {
	if f.FemaleOnly && d.Gender != domain.GenderFemale {
		return false
	}
	if f.MinRating > 0 && d.Rating < f.MinRating {
		return false
	}
	if f.Strict && !(d.IsAvailable && d.Verified && d.BackgroundCheckPassed) {
		return false
	}
	return true
}

func byRating(a, b *domain.Driver, aID, bID string) bool {
	if a.Rating != b.Rating {
		return a.Rating > b.Rating
	}
	return aID < bID
}

func toSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
