package utils

import (
	"fmt"
)

// SplitCommission splits a payment amount into the platform commission and
// the remainder due to the counterparty. Rate is a percentage (5.0 == 5%).
// Rounding is half-up to two decimal places; commission + ownerAmount always
// equals amount.
func SplitCommission(amount, rate float64) (commission, ownerAmount float64, err error) {
	if amount <= 0 {
		return 0, 0, fmt.Errorf("amount must be positive, got %.2f", amount)
	}
	if rate < 0 || rate > 100 {
		return 0, 0, fmt.Errorf("commission rate out of range: %.2f", rate)
	}

	commission = Round2(amount * rate / 100)
	if commission > amount {
		commission = amount
	}
	ownerAmount = Round2(amount - commission)
	return commission, ownerAmount, nil
}
