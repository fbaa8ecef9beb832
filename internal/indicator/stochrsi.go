package indicator

import "binance-momentum-bot-go/internal/models"

// StochRSI normalizes RSI values over a second rolling window to [0, 100].
// When every RSI in the window is identical the result is defined as the
// neutral 50, not an error.
type StochRSI struct {
	rsi         *RSI
	stochPeriod int
	window      []float64
	last        float64
	haveValue   bool
}

// NewStochRSI builds a Stochastic-RSI calculator: rsiPeriod drives the inner
// RSI, stochPeriod the normalization window over its output.
func NewStochRSI(rsiPeriod, stochPeriod int) *StochRSI {
	return &StochRSI{
		rsi:         NewRSI(rsiPeriod),
		stochPeriod: stochPeriod,
	}
}

// Update consumes the next close and returns (stochRSI, rsi). During warm-up
// of either window it returns ErrInsufficientData.
func (s *StochRSI) Update(close float64) (float64, float64, error) {
	rsi, err := s.rsi.Update(close)
	if err != nil {
		return 0, 0, err
	}

	s.window = append(s.window, rsi)
	if len(s.window) > s.stochPeriod {
		s.window = s.window[len(s.window)-s.stochPeriod:]
	}
	if len(s.window) < s.stochPeriod {
		return 0, rsi, models.ErrInsufficientData
	}

	lowest, highest := s.window[0], s.window[0]
	for _, v := range s.window[1:] {
		if v < lowest {
			lowest = v
		}
		if v > highest {
			highest = v
		}
	}

	if highest == lowest {
		s.last = 50
	} else {
		s.last = (rsi - lowest) / (highest - lowest) * 100
	}
	s.haveValue = true
	return s.last, rsi, nil
}

// Last returns the most recent Stochastic-RSI value, if any.
func (s *StochRSI) Last() (float64, bool) {
	return s.last, s.haveValue
}
