// Package units provides shared constants and validation for layout
// length units
package units

import "fmt"

// Unit constants
const (
	UM = "um"
	NM = "nm"
	MM = "mm"
)

// ValidUnits contains all valid unit values
var ValidUnits = []string{UM, NM, MM}

// meters maps each unit name to its size in meters.
var meters = map[string]float64{
	UM: 1e-6,
	NM: 1e-9,
	MM: 1e-3,
}

// IsValid checks if the given unit is in the list of valid units
func IsValid(unit string) bool {
	_, ok := meters[unit]
	return ok
}

// GetValidUnitsString returns a comma-separated string of valid units for error messages
func GetValidUnitsString() string {
	return "um, nm, mm"
}

// InMeters returns the size of one unit in meters.
func InMeters(unit string) (float64, error) {
	m, ok := meters[unit]
	if !ok {
		return 0, fmt.Errorf("unknown unit %q (valid: %s)", unit, GetValidUnitsString())
	}
	return m, nil
}

// Multiplier returns the number of database units per user unit, the
// scale the GDSII encoder applies to every coordinate. Layout coordinates
// are authored in userUnit; the stream stores integers in dbUnit.
func Multiplier(userUnit, dbUnit string) (float64, error) {
	u, err := InMeters(userUnit)
	if err != nil {
		return 0, fmt.Errorf("user unit: %w", err)
	}
	d, err := InMeters(dbUnit)
	if err != nil {
		return 0, fmt.Errorf("database unit: %w", err)
	}
	if u < d {
		return 0, fmt.Errorf("user unit %s is finer than database unit %s", userUnit, dbUnit)
	}
	return u / d, nil
}
