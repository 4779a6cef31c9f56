package utils

import (
	"fmt"
	"math"
)

// Round2 rounds half-up to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// FormatMoney keeps consistent decimal formatting for currency fields.
func FormatMoney(amount float64) string {
	return fmt.Sprintf("%.2f", amount)
}

// ToMinorUnits converts a major-unit amount into integer minor units
// (NGN -> kobo) for the gateway boundary.
func ToMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
