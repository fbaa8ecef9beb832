package indicator

import "binance-momentum-bot-go/internal/models"

// RSI computes the Relative Strength Index with Wilder's recursive smoothing.
// The first `period` price deltas seed the averages with a simple mean; every
// delta after that updates them with
//
//	avg = (avgPrev*(period-1) + current) / period
//
// A zero average loss yields RSI = 100 by definition, never an error.
type RSI struct {
	period    int
	prevClose float64
	havePrev  bool
	seedGains []float64
	seedLoss  []float64
	avgGain   float64
	avgLoss   float64
	seeded    bool
	last      float64
	haveValue bool
}

// NewRSI returns an RSI calculator over the given period.
func NewRSI(period int) *RSI {
	return &RSI{period: period}
}

// Update consumes the next close price and returns the current RSI value,
// or ErrInsufficientData while still warming up.
func (r *RSI) Update(close float64) (float64, error) {
	if !r.havePrev {
		r.prevClose = close
		r.havePrev = true
		return 0, models.ErrInsufficientData
	}

	delta := close - r.prevClose
	r.prevClose = close

	gain, loss := 0.0, 0.0
	if delta > 0 {
		gain = delta
	} else {
		loss = -delta
	}

	if !r.seeded {
		r.seedGains = append(r.seedGains, gain)
		r.seedLoss = append(r.seedLoss, loss)
		if len(r.seedGains) < r.period {
			return 0, models.ErrInsufficientData
		}
		r.avgGain = mean(r.seedGains)
		r.avgLoss = mean(r.seedLoss)
		r.seedGains, r.seedLoss = nil, nil
		r.seeded = true
	} else {
		n := float64(r.period)
		r.avgGain = (r.avgGain*(n-1) + gain) / n
		r.avgLoss = (r.avgLoss*(n-1) + loss) / n
	}

	r.last = rsiFromAverages(r.avgGain, r.avgLoss)
	r.haveValue = true
	return r.last, nil
}

// Last returns the most recent RSI value, if any.
func (r *RSI) Last() (float64, bool) {
	return r.last, r.haveValue
}

// Compute recomputes RSI from scratch over a full window of closes. It is
// definitionally equivalent to feeding the same closes through Update on a
// fresh calculator; tests assert the two agree.
func Compute(closes []float64, period int) (float64, error) {
	r := NewRSI(period)
	var v float64
	err := error(models.ErrInsufficientData)
	for _, c := range closes {
		v, err = r.Update(c)
	}
	if err != nil {
		return 0, err
	}
	return v, nil
}

func rsiFromAverages(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
