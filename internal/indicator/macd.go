package indicator

import "binance-momentum-bot-go/internal/models"

// ema is an exponential moving average seeded with the simple average of the
// first `period` samples, then updated with k = 2/(period+1).
type ema struct {
	period int
	k      float64
	seed   []float64
	value  float64
	seeded bool
}

func newEMA(period int) *ema {
	return &ema{period: period, k: 2.0 / float64(period+1)}
}

func (e *ema) update(x float64) (float64, bool) {
	if !e.seeded {
		e.seed = append(e.seed, x)
		if len(e.seed) < e.period {
			return 0, false
		}
		e.value = mean(e.seed)
		e.seed = nil
		e.seeded = true
		return e.value, true
	}
	e.value = x*e.k + e.value*(1-e.k)
	return e.value, true
}

// MACDValue is one full MACD observation plus the previous one, so a caller
// can detect line crossovers without keeping history itself.
type MACDValue struct {
	MACD       float64
	Signal     float64
	Histogram  float64
	PrevMACD   float64
	PrevSignal float64
}

// MACD maintains the fast/slow EMAs, the signal EMA of their difference, and
// the histogram.
type MACD struct {
	fast   *ema
	slow   *ema
	signal *ema
	last   MACDValue
	have   bool
}

// NewMACD builds a MACD calculator from the usual three periods.
func NewMACD(fastPeriod, slowPeriod, signalPeriod int) *MACD {
	return &MACD{
		fast:   newEMA(fastPeriod),
		slow:   newEMA(slowPeriod),
		signal: newEMA(signalPeriod),
	}
}

// Update consumes the next close. It returns ErrInsufficientData until the
// slow EMA and the signal EMA have both seeded.
func (m *MACD) Update(close float64) (MACDValue, error) {
	fastV, fastOK := m.fast.update(close)
	slowV, slowOK := m.slow.update(close)
	if !fastOK || !slowOK {
		return MACDValue{}, models.ErrInsufficientData
	}

	macdLine := fastV - slowV
	signalV, signalOK := m.signal.update(macdLine)
	if !signalOK {
		return MACDValue{}, models.ErrInsufficientData
	}

	v := MACDValue{
		MACD:       macdLine,
		Signal:     signalV,
		Histogram:  macdLine - signalV,
		PrevMACD:   m.last.MACD,
		PrevSignal: m.last.Signal,
	}
	if !m.have {
		// First complete observation has no predecessor to cross against.
		v.PrevMACD = macdLine
		v.PrevSignal = signalV
	}
	m.last = v
	m.have = true
	return v, nil
}

// Last returns the most recent MACD observation, if any.
func (m *MACD) Last() (MACDValue, bool) {
	return m.last, m.have
}
