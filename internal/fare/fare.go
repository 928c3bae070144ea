// Package fare computes ride fares from a ride's mode, timing, distance and
// the applicable rate card.
package fare

import (
	"math"
	"time"

	"drivemate/internal/domain"
)

const (
	// TaxPercent is the flat tax applied to every base fare.
	TaxPercent = 5

	dayStartHour = 6
	dayEndHour   = 18
)

// Calculator computes and applies fares. The zero value reads hours in UTC.
type Calculator struct {
	loc *time.Location
}

// NewCalculator creates a Calculator that decides day or night in loc.
func NewCalculator(loc *time.Location) *Calculator {
	return &Calculator{loc: loc}
}

func (c *Calculator) location() *time.Location {
	if c == nil || c.loc == nil {
		return time.UTC
	}
	return c.loc
}

// Calculate sets base_fare, tax_amount and total_amount on ride and returns
// the total. driver is consulted for driver_only rides, vehicle for
// car_with_driver rides; a missing rate card yields a zero base.
func (c *Calculator) Calculate(ride *domain.Ride, driver *domain.Driver, vehicle *domain.Vehicle) domain.Money {
	ride.BaseFare = c.baseFare(ride, driver, vehicle)
	return applyTotals(ride)
}

// Finalize applies ride-end adjustments to an already calculated base fare:
// a return trip doubles it, then additional charges are added. Tax and total
// are recomputed from the adjusted base.
func (c *Calculator) Finalize(ride *domain.Ride, returnTrip bool, additional domain.Money) domain.Money {
	if returnTrip {
		ride.BaseFare *= 2
	}
	ride.BaseFare += additional
	ride.ReturnTrip = returnTrip
	ride.AdditionalCharges = additional
	return applyTotals(ride)
}

// IsDaytime reports whether t falls in the fixed [06:00, 18:00) day window.
func (c *Calculator) IsDaytime(t time.Time) bool {
	h := t.In(c.location()).Hour()
	return h >= dayStartHour && h < dayEndHour
}

func (c *Calculator) baseFare(ride *domain.Ride, driver *domain.Driver, vehicle *domain.Vehicle) domain.Money {
	switch ride.Mode {
	case domain.RideModeDriverOnly:
		if driver == nil {
			return 0
		}
		if c.IsDaytime(ride.StartTime) {
			return driver.DayFixedCharge
		}
		return driver.NightFixedCharge

	case domain.RideModeCarWithDriver:
		if vehicle == nil {
			return 0
		}
		var km float64
		var minutes int
		if ride.ActualDistanceKm != nil {
			km = *ride.ActualDistanceKm
		}
		if ride.ActualDurationMin != nil {
			minutes = *ride.ActualDurationMin
		}
		metered := km*float64(vehicle.PerKmRate) + float64(minutes)*float64(vehicle.PerMinRate)
		return domain.Money(math.Round(metered))
	}
	return 0
}

func applyTotals(ride *domain.Ride) domain.Money {
	ride.TaxAmount = ride.BaseFare.Percent(TaxPercent)
	total := ride.BaseFare + ride.TaxAmount - ride.DiscountAmount
	ride.TotalAmount = &total
	return total
}
