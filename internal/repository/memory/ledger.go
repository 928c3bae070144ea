package memory

import (
	"context"
	"sort"

	"drivemate/internal/domain"
	"drivemate/internal/repository"
)

type paymentRepo struct {
	s  *Store
	tx bool
}

func (r *paymentRepo) Create(_ context.Context, p *domain.Payment) error {
	defer r.s.write(r.tx)()
	if err := p.Validate(); err != nil {
		return err
	}
	for _, existing := range r.s.data.payments {
		if existing.ID == p.ID || existing.OrderID == p.OrderID {
			return repository.ErrDuplicate
		}
	}
	r.s.data.payments[p.ID] = *p
	return nil
}

func (r *paymentRepo) GetByID(_ context.Context, id string) (*domain.Payment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.data.payments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (r *paymentRepo) GetByIDForUpdate(ctx context.Context, id string) (*domain.Payment, error) {
	return r.GetByID(ctx, id)
}

func (r *paymentRepo) SumSuccessfulForRide(_ context.Context, rideID string) (domain.Money, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var sum domain.Money
	for _, p := range r.s.data.payments {
		if p.RideID == rideID && p.Status == domain.PaymentStatusSuccess {
			sum += p.Amount
		}
	}
	return sum, nil
}

func (r *paymentRepo) ListByCustomer(_ context.Context, customerID string) ([]*domain.Payment, error) {
	return r.list(func(p *domain.Payment) bool { return p.CustomerID == customerID }), nil
}

func (r *paymentRepo) ListByDriver(_ context.Context, driverID string) ([]*domain.Payment, error) {
	r.s.mu.RLock()
	drove := make(map[string]bool)
	for id, ride := range r.s.data.rides {
		if ride.DriverID == driverID {
			drove[id] = true
		}
	}
	r.s.mu.RUnlock()
	return r.list(func(p *domain.Payment) bool { return drove[p.RideID] }), nil
}

func (r *paymentRepo) Update(_ context.Context, p *domain.Payment) error {
	defer r.s.write(r.tx)()
	if _, ok := r.s.data.payments[p.ID]; !ok {
		return repository.ErrNotFound
	}
	r.s.data.payments[p.ID] = *p
	return nil
}

func (r *paymentRepo) list(match func(*domain.Payment) bool) []*domain.Payment {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*domain.Payment
	for _, p := range r.s.data.payments {
		p := p
		if match(&p) {
			out = append(out, &p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return newerFirst(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID) })
	return out
}

type ratingRepo struct {
	s  *Store
	tx bool
}

func (r *ratingRepo) Create(_ context.Context, rating *domain.Rating) error {
	defer r.s.write(r.tx)()
	for _, existing := range r.s.data.ratings {
		if existing.RideID == rating.RideID {
			return repository.ErrDuplicate
		}
	}
	r.s.data.ratings[rating.ID] = *rating
	return nil
}

func (r *ratingRepo) GetByRide(_ context.Context, rideID string) (*domain.Rating, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, rating := range r.s.data.ratings {
		if rating.RideID == rideID {
			rating := rating
			return &rating, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *ratingRepo) ListByDriver(_ context.Context, driverID string) ([]*domain.Rating, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*domain.Rating
	for _, rating := range r.s.data.ratings {
		if rating.DriverID == driverID {
			rating := rating
			out = append(out, &rating)
		}
	}
	sort.Slice(out, func(i, j int) bool { return newerFirst(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID) })
	return out, nil
}

func (r *ratingRepo) DriverAverage(_ context.Context, driverID string) (float64, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var sum, n int
	for _, rating := range r.s.data.ratings {
		if rating.DriverID == driverID {
			sum += rating.Score
			n++
		}
	}
	if n == 0 {
		return 0, 0, nil
	}
	return float64(sum) / float64(n), n, nil
}
