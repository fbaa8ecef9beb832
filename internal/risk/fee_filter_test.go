package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"binance-momentum-bot-go/internal/models"
)

const (
	testMakerRate = 0.0002
	testTakerRate = 0.0005
)

func TestFeeFilterAcceptsProfitableLong(t *testing.T) {
	f := NewFeeFilter(testMakerRate, testTakerRate)

	// 5% expected move dwarfs 0.07% round-trip fees.
	calc, err := f.Evaluate(100, 1.00, 1.05, models.Long)
	require.NoError(t, err)

	entryFee, _ := calc.EntryFee.Float64()
	exitFee, _ := calc.ExitFee.Float64()
	net, _ := calc.NetGain.Float64()
	assert.InDelta(t, 0.02, entryFee, 1e-9)    // 100 * 1.00 * 0.0002
	assert.InDelta(t, 0.0525, exitFee, 1e-9)   // 100 * 1.05 * 0.0005
	assert.InDelta(t, 5.0-0.0725, net, 1e-9)
}

func TestFeeFilterRejectsThinMove(t *testing.T) {
	f := NewFeeFilter(testMakerRate, testTakerRate)

	// 0.05% expected move cannot clear fees plus the 0.1% threshold.
	_, err := f.Evaluate(100, 1.0000, 1.0005, models.Long)
	var ferr *models.FeeRejectedError
	require.ErrorAs(t, err, &ferr)
	assert.Greater(t, ferr.RoundTrip+0.001, ferr.Expected/100,
		"rejection reports the gain and the cost it failed to cover")
}

func TestFeeFilterRejectsExactlyAtFeeBreakeven(t *testing.T) {
	f := NewFeeFilter(testMakerRate, testTakerRate)

	// Gross gain slightly above total fees but net ratio still under the
	// 0.1% minimum profit threshold.
	_, err := f.Evaluate(100, 1.000, 1.001, models.Long)
	var ferr *models.FeeRejectedError
	assert.ErrorAs(t, err, &ferr)
}

func TestFeeFilterShortDirection(t *testing.T) {
	f := NewFeeFilter(testMakerRate, testTakerRate)

	// A short profits from a falling exit price.
	calc, err := f.Evaluate(100, 1.05, 1.00, models.Short)
	require.NoError(t, err)
	gross, _ := calc.GrossGain.Float64()
	assert.InDelta(t, 5.0, gross, 1e-9)

	// The same move longs a loss.
	_, err = f.Evaluate(100, 1.05, 1.00, models.Long)
	var ferr *models.FeeRejectedError
	assert.ErrorAs(t, err, &ferr)
}

func TestFeeFilterZeroNotional(t *testing.T) {
	f := NewFeeFilter(testMakerRate, testTakerRate)

	_, err := f.Evaluate(0, 1.0, 1.05, models.Long)
	var ferr *models.FeeRejectedError
	require.ErrorAs(t, err, &ferr)
	assert.Contains(t, ferr.Reason, "zero notional")
}

func TestFeeFilterNoDriftOverManyTrades(t *testing.T) {
	f := NewFeeFilter(testMakerRate, testTakerRate)

	// Decimal arithmetic keeps the fee on a price like 0.1 exact where
	// binary floats would drift.
	calc, err := f.Evaluate(1000, 0.1, 0.11, models.Long)
	require.NoError(t, err)
	assert.Equal(t, "0.02", calc.EntryFee.String())
	assert.Equal(t, "0.055", calc.ExitFee.String())
}
