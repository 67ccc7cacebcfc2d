// Package units converts between the canonical storage unit (milliliters)
// and the user-facing display unit. Metric display is the identity;
// imperial display uses US fluid ounces. Both directions round
// half-away-from-zero so a value dragged through display and back does not
// drift.
package units

import (
	"math"

	"github.com/nhle/hydration/internal/model"
)

// MillilitersPerOunce is the US fluid ounce conversion factor.
const MillilitersPerOunce = 29.5735

// ToDisplay converts a canonical milliliter volume to the display unit.
// Metric returns the value unchanged; imperial returns fluid ounces.
func ToDisplay(ml int, unit model.Unit) float64 {
	if unit == model.UnitImperial {
		return float64(ml) / MillilitersPerOunce
	}
	return float64(ml)
}

// ToCanonical converts a display-unit value back to milliliters,
// rounding half-away-from-zero.
func ToCanonical(value float64, unit model.Unit) int {
	if unit == model.UnitImperial {
		return int(math.Round(value * MillilitersPerOunce))
	}
	return int(math.Round(value))
}

// Label returns the display suffix for a unit.
func Label(unit model.Unit) string {
	if unit == model.UnitImperial {
		return "oz"
	}
	return "ml"
}
