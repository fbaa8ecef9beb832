package risk

import (
	"github.com/shopspring/decimal"

	"binance-momentum-bot-go/internal/models"
)

// minProfitThreshold is the minimum net gain, as a fraction of notional,
// a trade must clear on top of fees. 0.1%.
var minProfitThreshold = decimal.NewFromFloat(0.001)

// FeeCalculation is the round-trip cost breakdown for a candidate trade.
// All figures are in quote currency.
type FeeCalculation struct {
	EntryFee  decimal.Decimal
	ExitFee   decimal.Decimal
	TotalFee  decimal.Decimal
	GrossGain decimal.Decimal
	NetGain   decimal.Decimal
}

// FeeFilter decides whether a candidate trade's expected gain covers its
// round-trip cost. All arithmetic runs on decimals so rounding error cannot
// accumulate over many trades. The conservative assumption from the fee
// schedule is maker on entry, taker on exit.
type FeeFilter struct {
	makerRate decimal.Decimal
	takerRate decimal.Decimal
}

// NewFeeFilter builds a filter from the latest known fee schedule.
func NewFeeFilter(makerRate, takerRate float64) *FeeFilter {
	return &FeeFilter{
		makerRate: decimal.NewFromFloat(makerRate),
		takerRate: decimal.NewFromFloat(takerRate),
	}
}

// Evaluate computes fees for a round trip entered at entryPrice and exited at
// expectedExit with the given quantity. It returns a FeeRejectedError when
// the expected net gain does not clear fees plus the minimum profit
// threshold. Stop-loss closes must not be routed through this check.
func (f *FeeFilter) Evaluate(quantity, entryPrice, expectedExit float64, side models.PositionSide) (FeeCalculation, error) {
	qty := decimal.NewFromFloat(quantity)
	entry := decimal.NewFromFloat(entryPrice)
	exit := decimal.NewFromFloat(expectedExit)

	notional := qty.Mul(entry)
	calc := FeeCalculation{
		EntryFee: notional.Mul(f.makerRate),
		ExitFee:  qty.Mul(exit).Mul(f.takerRate),
	}
	calc.TotalFee = calc.EntryFee.Add(calc.ExitFee)

	move := exit.Sub(entry)
	if side == models.Short {
		move = move.Neg()
	}
	calc.GrossGain = move.Mul(qty)
	calc.NetGain = calc.GrossGain.Sub(calc.TotalFee)

	if notional.IsZero() {
		return calc, &models.FeeRejectedError{Reason: "zero notional"}
	}

	profitRatio := calc.NetGain.Div(notional)
	if profitRatio.LessThan(minProfitThreshold) {
		expected, _ := calc.GrossGain.Float64()
		roundTrip, _ := calc.TotalFee.Float64()
		return calc, &models.FeeRejectedError{
			Reason:    "expected gain does not cover round-trip fees",
			Expected:  expected,
			RoundTrip: roundTrip,
		}
	}
	return calc, nil
}
