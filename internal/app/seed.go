package app

import (
	"time"

	"drivemate/internal/domain"
	"drivemate/internal/repository/memory"
)

// SeedDemo loads a small fleet and the ride purposes into an in-memory store
// so the API can be exercised without a database. Driver logins are
// user-drv-1 .. user-drv-4 with role "driver".
func SeedDemo(store *memory.Store) {
	now := time.Now().UTC()

	purposes := []domain.RidePurpose{
		{ID: "purpose-office", Slug: "office", Name: "Office commute"},
		{ID: "purpose-airport", Slug: "airport", Name: "Airport transfer"},
		{ID: "purpose-outstation", Slug: "outstation", Name: "Outstation trip"},
		{ID: "purpose-event", Slug: "event", Name: "Event or function"},
	}
	for i := range purposes {
		store.AddPurpose(&purposes[i])
	}

	drivers := []domain.Driver{
		{
			ID: "drv-1", UserID: "user-drv-1", Name: "Ravi Kumar", Gender: "male",
			Rating: 4.8, RatingCount: 120, IsAvailable: true, Verified: true, BackgroundCheckPassed: true,
			DayFixedCharge: domain.Rupees(100), NightFixedCharge: domain.Rupees(150),
			Location: &domain.Coordinate{Lat: 12.9716, Lng: 77.5946}, LocationLabel: "MG Road",
			ExperienceYears: 8, LicenseNumber: "KA0120150012345",
		},
		{
			ID: "drv-2", UserID: "user-drv-2", Name: "Anita Rao", Gender: "female",
			Rating: 4.9, RatingCount: 87, IsAvailable: true, Verified: true, BackgroundCheckPassed: true,
			DayFixedCharge: domain.Rupees(120), NightFixedCharge: domain.Rupees(180),
			Location: &domain.Coordinate{Lat: 12.9352, Lng: 77.6245}, LocationLabel: "Koramangala",
			ExperienceYears: 5, LicenseNumber: "KA0320180067890",
		},
		{
			ID: "drv-3", UserID: "user-drv-3", Name: "Suresh Patil", Gender: "male",
			Rating: 4.2, RatingCount: 40, IsAvailable: true, Verified: true, BackgroundCheckPassed: true,
			DayFixedCharge: domain.Rupees(90), NightFixedCharge: domain.Rupees(135),
			Location: &domain.Coordinate{Lat: 13.0358, Lng: 77.5970}, LocationLabel: "Hebbal",
			ExperienceYears: 12, LicenseNumber: "KA0520110024680",
		},
		{
			// Not yet verified; only surfaces as backfill.
			ID: "drv-4", UserID: "user-drv-4", Name: "Imran Shaikh", Gender: "male",
			Rating: 3.9, RatingCount: 5, IsAvailable: true,
			DayFixedCharge: domain.Rupees(80), NightFixedCharge: domain.Rupees(120),
			ExperienceYears: 1,
		},
	}
	for i := range drivers {
		drivers[i].UpdatedAt = now
		store.AddDriver(&drivers[i])
	}

	vehicles := []domain.Vehicle{
		{
			ID: "veh-1", RegistrationNumber: "KA01AB1234", Make: "Maruti", Model: "Swift",
			Type: domain.VehicleTypeHatchback, Transmission: domain.TransmissionManual, FuelType: domain.FuelPetrol,
			PerKmRate: domain.Rupees(8), PerMinRate: domain.Rupees(1), Verified: true, Active: true, CurrentDriverID: "drv-1",
		},
		{
			ID: "veh-2", RegistrationNumber: "KA03CD5678", Make: "Hyundai", Model: "Creta",
			Type: domain.VehicleTypeSUV, Transmission: domain.TransmissionAutomatic, FuelType: domain.FuelDiesel,
			PerKmRate: domain.Rupees(12), PerMinRate: domain.MoneyFromFloat(1.5), Verified: true, Active: true, CurrentDriverID: "drv-2",
		},
		{
			ID: "veh-3", RegistrationNumber: "KA05EF9012", Make: "Tata", Model: "Nexon EV",
			Type: domain.VehicleTypeSUV, Transmission: domain.TransmissionAutomatic, FuelType: domain.FuelElectric,
			PerKmRate: domain.Rupees(10), PerMinRate: domain.Rupees(1), Verified: true, Active: true, CurrentDriverID: "drv-3",
		},
	}
	for i := range vehicles {
		store.AddVehicle(&vehicles[i])
	}
}
