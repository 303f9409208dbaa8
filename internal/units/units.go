// Package units converts upstream measurements into display units and
// formats optional values. Every function treats a nil input as "absent".
package units

import "strconv"

// DefaultDecimals is the precision used when a caller has no preference.
const DefaultDecimals = 2

// NotAvailable is rendered in place of an absent value.
const NotAvailable = "N/A"

const mphPerMPS = 2.23694

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}

func CelsiusToFahrenheit(c *float64) *float64 {
	if c == nil {
		return nil
	}
	return Float(*c*9/5 + 32)
}

func MPSToMPH(v *float64) *float64 {
	if v == nil {
		return nil
	}
	return Float(*v * mphPerMPS)
}

// FormatNumber renders v in fixed-point notation with the given number of
// decimals, or NotAvailable when v is nil.
func FormatNumber(v *float64, decimals int) string {
	if v == nil {
		return NotAvailable
	}
	if decimals < 0 {
		decimals = 0
	}
	return strconv.FormatFloat(*v, 'f', decimals, 64)
}
