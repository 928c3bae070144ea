// Package memory is an in-process implementation of repository.Store.
//
// Transactions are serialised by a store-wide mutex, which gives every
// ForUpdate read exclusive access for the duration of WithinTx. A failed
// transaction restores the snapshot taken when it began.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"drivemate/internal/domain"
	"drivemate/internal/repository"
)

type dataset struct {
	rides    map[string]domain.Ride
	requests map[string]domain.RideRequest
	drivers  map[string]domain.Driver
	vehicles map[string]domain.Vehicle
	payments map[string]domain.Payment
	ratings  map[string]domain.Rating
	purposes map[string]domain.RidePurpose
}

func newDataset() *dataset {
	return &dataset{
		rides:    make(map[string]domain.Ride),
		requests: make(map[string]domain.RideRequest),
		drivers:  make(map[string]domain.Driver),
		vehicles: make(map[string]domain.Vehicle),
		payments: make(map[string]domain.Payment),
		ratings:  make(map[string]domain.Rating),
		purposes: make(map[string]domain.RidePurpose),
	}
}

func (d *dataset) clone() *dataset {
	c := newDataset()
	for k, v := range d.rides {
		c.rides[k] = v
	}
	for k, v := range d.requests {
		c.requests[k] = v
	}
	for k, v := range d.drivers {
		c.drivers[k] = v
	}
	for k, v := range d.vehicles {
		c.vehicles[k] = v
	}
	for k, v := range d.payments {
		c.payments[k] = v
	}
	for k, v := range d.ratings {
		c.ratings[k] = v
	}
	for k, v := range d.purposes {
		c.purposes[k] = v
	}
	return c
}

// Store is an in-memory repository.Store.
type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex
	data *dataset
}

var _ repository.Store = (*Store)(nil)

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{data: newDataset()}
}

// Repos returns repositories over the store. Writes made through them
// outside WithinTx wait for any running transaction to finish.
func (s *Store) Repos() repository.Repositories {
	return s.repos(false)
}

func (s *Store) repos(tx bool) repository.Repositories {
	return repository.Repositories{
		Rides:    &rideRepo{s: s, tx: tx},
		Requests: &requestRepo{s: s, tx: tx},
		Drivers:  &driverRepo{s: s, tx: tx},
		Vehicles: &vehicleRepo{s: s, tx: tx},
		Payments: &paymentRepo{s: s, tx: tx},
		Ratings:  &ratingRepo{s: s, tx: tx},
		Purposes: &purposeRepo{s: s, tx: tx},
	}
}

// write takes the data lock for a mutation. Mutations outside a transaction
// also take the transaction lock so a rollback cannot discard them.
func (s *Store) write(inTx bool) func() {
	if !inTx {
		s.txMu.Lock()
	}
	s.mu.Lock()
	return func() {
		s.mu.Unlock()
		if !inTx {
			s.txMu.Unlock()
		}
	}
}

// WithinTx runs fn with exclusive access to the store.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) (err error) {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	snapshot := s.data.clone()
	s.mu.RUnlock()

	defer func() {
		p := recover()
		if err != nil || p != nil {
			s.mu.Lock()
			s.data = snapshot
			s.mu.Unlock()
		}
		if p != nil {
			panic(p)
		}
	}()

	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(ctx, s.repos(true))
}

// AddDriver seeds a driver profile.
func (s *Store) AddDriver(d *domain.Driver) {
	defer s.write(false)()
	if d.NightStart == "" {
		d.NightStart = domain.DefaultNightStart
	}
	if d.NightEnd == "" {
		d.NightEnd = domain.DefaultNightEnd
	}
	s.data.drivers[d.ID] = *d
}

// AddVehicle seeds a vehicle.
func (s *Store) AddVehicle(v *domain.Vehicle) {
	defer s.write(false)()
	s.data.vehicles[v.ID] = *v
}

// AddPurpose seeds a ride purpose.
func (s *Store) AddPurpose(p *domain.RidePurpose) {
	defer s.write(false)()
	s.data.purposes[p.ID] = *p
}

type rideRepo struct {
	s  *Store
	tx bool
}

func (r *rideRepo) Create(_ context.Context, ride *domain.Ride) error {
	defer r.s.write(r.tx)()
	if _, ok := r.s.data.rides[ride.ID]; ok {
		return repository.ErrDuplicate
	}
	r.s.data.rides[ride.ID] = *ride
	return nil
}

func (r *rideRepo) GetByID(_ context.Context, id string) (*domain.Ride, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	ride, ok := r.s.data.rides[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &ride, nil
}

func (r *rideRepo) GetByIDForUpdate(ctx context.Context, id string) (*domain.Ride, error) {
	return r.GetByID(ctx, id)
}

func (r *rideRepo) ListByCustomer(_ context.Context, customerID string, status domain.RideStatus) ([]*domain.Ride, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*domain.Ride
	for _, ride := range r.s.data.rides {
		if ride.CustomerID != customerID || (status != "" && ride.Status != status) {
			continue
		}
		ride := ride
		out = append(out, &ride)
	}
	sort.Slice(out, func(i, j int) bool { return newerFirst(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID) })
	return out, nil
}

func (r *rideRepo) Update(_ context.Context, ride *domain.Ride) error {
	defer r.s.write(r.tx)()
	if _, ok := r.s.data.rides[ride.ID]; !ok {
		return repository.ErrNotFound
	}
	r.s.data.rides[ride.ID] = *ride
	return nil
}

type requestRepo struct {
	s  *Store
	tx bool
}

func (r *requestRepo) Create(_ context.Context, req *domain.RideRequest) error {
	defer r.s.write(r.tx)()
	for _, existing := range r.s.data.requests {
		if existing.RideID == req.RideID && existing.DriverID == req.DriverID {
			return repository.ErrDuplicate
		}
	}
	r.s.data.requests[req.ID] = *req
	return nil
}

func (r *requestRepo) GetByID(_ context.Context, id string) (*domain.RideRequest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	req, ok := r.s.data.requests[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &req, nil
}

func (r *requestRepo) GetByIDForUpdate(ctx context.Context, id string) (*domain.RideRequest, error) {
	return r.GetByID(ctx, id)
}

func (r *requestRepo) GetByRideAndDriver(_ context.Context, rideID, driverID string) (*domain.RideRequest, error) {
	return r.find(func(req *domain.RideRequest) bool {
		return req.RideID == rideID && req.DriverID == driverID
	})
}

func (r *requestRepo) HasConsumedForRide(_ context.Context, rideID string) (bool, error) {
	_, err := r.find(func(req *domain.RideRequest) bool {
		return req.RideID == rideID && req.Status == domain.RequestStatusAccepted && req.Consumed
	})
	if err == repository.ErrNotFound {
		return false, nil
	}
	return err == nil, err
}

func (r *requestRepo) HasActiveForDriver(_ context.Context, driverID, excludeID string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, req := range r.s.data.requests {
		if req.DriverID != driverID || req.ID == excludeID || req.Status != domain.RequestStatusAccepted {
			continue
		}
		if ride, ok := r.s.data.rides[req.RideID]; ok && ride.Status.IsActive() {
			return true, nil
		}
	}
	return false, nil
}

func (r *requestRepo) ListByRide(_ context.Context, rideID string) ([]*domain.RideRequest, error) {
	out := r.filter(func(req *domain.RideRequest) bool { return req.RideID == rideID })
	sort.Slice(out, func(i, j int) bool { return olderFirst(out[i].RequestedAt, out[j].RequestedAt, out[i].ID, out[j].ID) })
	return out, nil
}

func (r *requestRepo) ListByDriver(_ context.Context, driverID string) ([]*domain.RideRequest, error) {
	out := r.filter(func(req *domain.RideRequest) bool { return req.DriverID == driverID })
	sort.Slice(out, func(i, j int) bool { return newerFirst(out[i].RequestedAt, out[j].RequestedAt, out[i].ID, out[j].ID) })
	return out, nil
}

func (r *requestRepo) AutoCancel(_ context.Context, rideID string, status domain.RequestStatus, exceptID string, at time.Time) (int64, error) {
	defer r.s.write(r.tx)()
	var n int64
	for id, req := range r.s.data.requests {
		if req.RideID != rideID || req.Status != status || id == exceptID {
			continue
		}
		req.Respond(domain.RequestStatusAutoCancelled, at)
		r.s.data.requests[id] = req
		n++
	}
	return n, nil
}

func (r *requestRepo) Update(_ context.Context, req *domain.RideRequest) error {
	defer r.s.write(r.tx)()
	if _, ok := r.s.data.requests[req.ID]; !ok {
		return repository.ErrNotFound
	}
	r.s.data.requests[req.ID] = *req
	return nil
}

func (r *requestRepo) find(match func(*domain.RideRequest) bool) (*domain.RideRequest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, req := range r.s.data.requests {
		req := req
		if match(&req) {
			return &req, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *requestRepo) filter(match func(*domain.RideRequest) bool) []*domain.RideRequest {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*domain.RideRequest
	for _, req := range r.s.data.requests {
		req := req
		if match(&req) {
			out = append(out, &req)
		}
	}
	return out
}

// newerFirst orders by time descending, then by id for a stable result.
func newerFirst(a, b time.Time, aID, bID string) bool {
	if !a.Equal(b) {
		return a.After(b)
	}
	return aID < bID
}

func olderFirst(a, b time.Time, aID, bID string) bool {
	if !a.Equal(b) {
		return a.Before(b)
	}
	return aID < bID
}
