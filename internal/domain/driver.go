package domain

import "time"

// Gender values carried on driver profiles.
const (
	GenderMale   = "male"
	GenderFemale = "female"
	GenderOther  = "other"
)

const (
	DefaultNightStart = "18:00"
	DefaultNightEnd   = "06:00"
)

// Driver represents a driver profile.
type Driver struct {
	ID                    string
	UserID                string
	Name                  string
	Gender                string
	Rating                float64
	RatingCount           int
	IsAvailable           bool
	Verified              bool
	BackgroundCheckPassed bool
	DayFixedCharge        Money
	NightFixedCharge      Money
	NightStart            string
	NightEnd              string
	Location              *Coordinate
	LocationLabel         string
	ExperienceYears       int
	LicenseNumber         string
	UpdatedAt             time.Time
}

// VehicleType categorises a vehicle body.
type VehicleType string

const (
	VehicleTypeHatchback VehicleType = "hatchback"
	VehicleTypeSedan     VehicleType = "sedan"
	VehicleTypeSUV       VehicleType = "suv"
	VehicleTypeMUV       VehicleType = "muv"
	VehicleTypeLCV       VehicleType = "lcv"
	VehicleTypeLuxury    VehicleType = "luxury"
	VehicleTypeVan       VehicleType = "van"
)

// Transmission of a vehicle.
type Transmission string

const (
	TransmissionManual    Transmission = "manual"
	TransmissionAutomatic Transmission = "automatic"
)

// FuelType of a vehicle.
type FuelType string

const (
	FuelPetrol   FuelType = "petrol"
	FuelDiesel   FuelType = "diesel"
	FuelCNG      FuelType = "cng"
	FuelElectric FuelType = "electric"
	FuelHybrid   FuelType = "hybrid"
)

// Vehicle is a car that a driver may operate for car_with_driver rides.
type Vehicle struct {
	ID                 string
	RegistrationNumber string
	Make               string
	Model              string
	Type               VehicleType
	Transmission       Transmission
	FuelType           FuelType
	PerKmRate          Money
	PerMinRate         Money
	Verified           bool
	Active             bool
	CurrentDriverID    string
}

// EligibleFor reports whether the vehicle can be used by driverID on a new ride.
func (v *Vehicle) EligibleFor(driverID string) bool {
	return v.CurrentDriverID == driverID && v.Active && v.Verified
}
