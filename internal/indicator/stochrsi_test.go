package indicator

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStochRSIAlwaysInRange(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	s := NewStochRSI(14, 14)

	price := 100.0
	for i := 0; i < 1000; i++ {
		price *= 1 + (rng.Float64()-0.5)*0.04
		stoch, _, err := s.Update(price)
		if err != nil {
			continue
		}
		assert.GreaterOrEqual(t, stoch, 0.0)
		assert.LessOrEqual(t, stoch, 100.0)
	}
}

func TestStochRSIConstantWindowIsNeutral50(t *testing.T) {
	// A flat price series yields a constant RSI (100 by the zero-loss rule),
	// so max == min over the stochastic window and the output is defined 50.
	s := NewStochRSI(14, 14)
	var (
		stoch float64
		err   error
	)
	for i := 0; i < 60; i++ {
		stoch, _, err = s.Update(42.0)
	}
	require.NoError(t, err)
	assert.Equal(t, 50.0, stoch)
}

func TestStochRSIExtremesHitBands(t *testing.T) {
	s := NewStochRSI(14, 14)

	// Rise long enough to seed both windows, then fall hard: the latest RSI
	// becomes the window minimum, so stochastic RSI pins to 0.
	price := 100.0
	for i := 0; i < 60; i++ {
		price += 1
		s.Update(price)
	}
	var last float64
	for i := 0; i < 20; i++ {
		price -= 2
		v, _, err := s.Update(price)
		require.NoError(t, err)
		last = v
	}
	assert.Equal(t, 0.0, last, "falling into the window minimum pins stoch RSI at 0")
}
