package reporter

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"binance-momentum-bot-go/internal/models"
)

// Metrics are the performance figures derived from the ROI ledger.
type Metrics struct {
	TotalTrades   int
	WinningTrades int
	LosingTrades  int
	WinRate       float64
	TotalPnL      float64
	TotalFees     float64
	NetPnL        float64
	MaxDrawdown   float64
	FirstTrade    time.Time
	LastTrade     time.Time
}

// Summarize walks the ledger once and computes the metrics. Max drawdown is
// measured on the running cumulative net PnL curve.
func Summarize(ledger []models.TradeRecord) Metrics {
	m := Metrics{}
	if len(ledger) == 0 {
		return m
	}

	m.FirstTrade = ledger[0].OpenTime
	m.LastTrade = ledger[len(ledger)-1].CloseTime

	var cumulative, peak float64
	for _, t := range ledger {
		m.TotalTrades++
		m.TotalPnL += t.RealizedPnL
		m.TotalFees += t.FeesPaid
		if t.RealizedPnL > 0 {
			m.WinningTrades++
		} else {
			m.LosingTrades++
		}

		cumulative += t.RealizedPnL - t.FeesPaid
		if cumulative > peak {
			peak = cumulative
		}
		if dd := peak - cumulative; dd > m.MaxDrawdown {
			m.MaxDrawdown = dd
		}
	}
	m.NetPnL = m.TotalPnL - m.TotalFees
	m.WinRate = float64(m.WinningTrades) / float64(m.TotalTrades) * 100
	return m
}

// Render formats the metrics as a bordered table for logs and status
// notifications.
func Render(m Metrics) string {
	t := table.NewWriter()
	t.SetTitle("ROI Ledger")
	t.AppendRows([]table.Row{
		{"Total trades", m.TotalTrades},
		{"Winning / losing", fmt.Sprintf("%d / %d", m.WinningTrades, m.LosingTrades)},
		{"Win rate", fmt.Sprintf("%.2f%%", m.WinRate)},
		{"Gross PnL", fmt.Sprintf("%.4f", m.TotalPnL)},
		{"Fees paid", fmt.Sprintf("%.4f", m.TotalFees)},
		{"Net PnL", fmt.Sprintf("%.4f", m.NetPnL)},
		{"Max drawdown", fmt.Sprintf("%.4f", m.MaxDrawdown)},
	})
	if m.TotalTrades > 0 {
		t.AppendRow(table.Row{"Period", fmt.Sprintf("%s to %s",
			m.FirstTrade.Format("2006-01-02 15:04"), m.LastTrade.Format("2006-01-02 15:04"))})
	}
	return t.Render()
}
