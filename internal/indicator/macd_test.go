package indicator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"binance-momentum-bot-go/internal/models"
)

func TestMACDWarmup(t *testing.T) {
	m := NewMACD(12, 26, 9)
	// The signal line needs 9 MACD observations, which need 26 closes for
	// the slow EMA first: 26 + 9 - 1 closes total before a value appears.
	for i := 0; i < 33; i++ {
		_, err := m.Update(100 + float64(i))
		assert.ErrorIs(t, err, models.ErrInsufficientData, "close %d", i)
	}
	_, err := m.Update(134)
	assert.NoError(t, err)
}

func TestMACDHistogramIsLineMinusSignal(t *testing.T) {
	m := NewMACD(3, 6, 3)
	var v MACDValue
	var err error
	for i := 0; i < 50; i++ {
		v, err = m.Update(100 + float64(i%7))
	}
	require.NoError(t, err)
	assert.InDelta(t, v.MACD-v.Signal, v.Histogram, 1e-12)
}

func TestMACDPositiveInUptrend(t *testing.T) {
	m := NewMACD(12, 26, 9)
	var v MACDValue
	var err error
	price := 100.0
	for i := 0; i < 120; i++ {
		price *= 1.01
		v, err = m.Update(price)
	}
	require.NoError(t, err)
	assert.Greater(t, v.MACD, 0.0, "fast EMA leads slow EMA in a sustained uptrend")
}

func TestMACDTracksPreviousObservation(t *testing.T) {
	m := NewMACD(3, 6, 3)
	var prev, cur MACDValue
	var err error
	for i := 0; i < 40; i++ {
		cur, err = m.Update(100 + float64(i%5))
		if err == nil && i > 10 {
			assert.Equal(t, prev.MACD, cur.PrevMACD)
			assert.Equal(t, prev.Signal, cur.PrevSignal)
		}
		if err == nil {
			prev = cur
		}
	}
	require.NoError(t, err)
}
