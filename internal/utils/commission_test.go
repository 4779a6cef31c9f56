package utils

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplitCommission(t *testing.T) {
	cases := []struct {
		name       string
		amount     float64
		rate       float64
		commission float64
		owner      float64
	}{
		{"standard rate", 2500000, 5.0, 125000, 2375000},
		{"small amount", 150, 5.0, 7.5, 142.5},
		{"zero rate", 1000, 0, 0, 1000},
		{"full rate", 1000, 100, 1000, 0},
		{"fractional rate rounds half up", 333.33, 7.5, 25.0, 308.33},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			commission, owner, err := SplitCommission(tc.amount, tc.rate)
			require.NoError(t, err)
			require.Equal(t, tc.commission, commission)
			require.Equal(t, tc.owner, owner)
		})
	}
}

func TestSplitCommissionPartsSumToAmount(t *testing.T) {
	amounts := []float64{100, 2500000, 333.33, 999999.99, 150.75}
	rates := []float64{0, 2.5, 5, 7.5, 12.75, 100}

	for _, amount := range amounts {
		for _, rate := range rates {
			commission, owner, err := SplitCommission(amount, rate)
			require.NoError(t, err)
			require.InDelta(t, amount, commission+owner, 0.011,
				"amount=%v rate=%v", amount, rate)
			require.GreaterOrEqual(t, commission, 0.0)
			require.GreaterOrEqual(t, owner, 0.0)
		}
	}
}

func TestSplitCommissionRejectsBadInput(t *testing.T) {
	_, _, err := SplitCommission(0, 5)
	require.Error(t, err)

	_, _, err = SplitCommission(-100, 5)
	require.Error(t, err)

	_, _, err = SplitCommission(1000, -1)
	require.Error(t, err)

	_, _, err = SplitCommission(1000, 100.5)
	require.Error(t, err)
}
