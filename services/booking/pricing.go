package booking

import (
	"fisiocare/utils"

	"github.com/shopspring/decimal"
)

// ComputePricing splits a package price into the therapist's net total and
// the platform's admin fee, from the package commission rate (percent).
// Amounts are minor units; the net is floored so the fee absorbs the
// commission rounding, and net + fee always equals the total exactly.
func ComputePricing(totalPrice int64, commissionRate int) (net int64, fee int64, err error) {
	if totalPrice <= 0 {
		return 0, 0, utils.NewValidationError("package price must be positive")
	}
	if commissionRate < 0 || commissionRate > 100 {
		return 0, 0, utils.NewValidationError("commission rate must be between 0 and 100")
	}

	net = decimal.NewFromInt(totalPrice).
		Mul(decimal.NewFromInt(int64(100 - commissionRate))).
		Div(decimal.NewFromInt(100)).
		Floor().
		IntPart()
	return net, totalPrice - net, nil
}

// ProRataFee is the per-session share of the therapist net total. Sessions
// 1..N-1 get the floored share; the last session absorbs the rounding
// remainder so the payouts for a booking sum to the net total exactly.
func ProRataFee(therapistNetTotal int64, sessionCount, sequenceOrder int) int64 {
	if sessionCount <= 0 {
		return 0
	}
	per := decimal.NewFromInt(therapistNetTotal).
		Div(decimal.NewFromInt(int64(sessionCount))).
		Floor().
		IntPart()
	if sequenceOrder == sessionCount {
		return therapistNetTotal - per*int64(sessionCount-1)
	}
	return per
}
