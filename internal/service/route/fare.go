package route

import "math"

const (
	taxiBaseFare      = 4800
	taxiFarePerKm     = 1000
	nightSurchargePct = 20
)

// EstimateTaxiFare returns the late-night fare in won for a trip of km
// kilometres: base plus distance, with the night surcharge applied and the
// result floored.
func EstimateTaxiFare(km float64) int {
	if km < 0 || math.IsNaN(km) {
		km = 0
	}
	subtotal := taxiBaseFare + int(math.Floor(km*taxiFarePerKm))
	return subtotal * (100 + nightSurchargePct) / 100
}
