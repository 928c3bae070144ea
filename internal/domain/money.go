package domain

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Currency is the single currency the marketplace settles in.
const Currency = "INR"

// ErrInvalidMoney is returned when an amount cannot be parsed or is out of range.
var ErrInvalidMoney = errors.New("invalid money amount")

// MaxMajorUnits bounds parsed amounts so fare arithmetic stays inside int64.
const MaxMajorUnits = 1e12

// Money is an amount in minor units (paise).
type Money int64

// Rupees builds a Money value from whole rupees.
func Rupees(r int64) Money {
	return Money(r * 100)
}

// MoneyFromFloat rounds a major-unit float to the nearest minor unit, half
// away from zero. Values beyond MaxMajorUnits are clamped.
func MoneyFromFloat(f float64) Money {
	switch {
	case math.IsNaN(f):
		return 0
	case f > MaxMajorUnits:
		f = MaxMajorUnits
	case f < -MaxMajorUnits:
		f = -MaxMajorUnits
	}
	return Money(math.Round(f * 100))
}

// ParseMoney parses a decimal string such as "50", "12.5" or "199.50".
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidMoney
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) > MaxMajorUnits {
		return 0, fmt.Errorf("%w: %q", ErrInvalidMoney, s)
	}
	return MoneyFromFloat(f), nil
}

// Float returns the amount in major units.
func (m Money) Float() float64 {
	return float64(m) / 100
}

// Percent returns p percent of m, rounded half-up to the minor unit. Whole
// rupees and the paise remainder are scaled separately so m*p never overflows
// for percentages up to 100.
func (m Money) Percent(p int64) Money {
	whole, rem := int64(m)/100, int64(m)%100
	v := rem * p
	if v >= 0 {
		v = (v + 50) / 100
	} else {
		v = (v - 50) / 100
	}
	return Money(whole*p + v)
}

// String formats the amount with two decimals.
func (m Money) String() string {
	sign := ""
	v := int64(m)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// MarshalJSON encodes the amount as a JSON number with two decimals.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts both JSON numbers and quoted decimal strings.
func (m *Money) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "null" {
		*m = 0
		return nil
	}
	v, err := ParseMoney(s)
	if err != nil {
		return err
	}
	*m = v
	return nil
}
