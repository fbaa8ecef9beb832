package exchange

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// mainnetWSBase is the Binance combined-stream endpoint.
const mainnetWSBase = "wss://stream.binance.com:9443/ws"

// PriceStream keeps a live trade-price feed over a websocket so stop-loss
// checks can run between candle closes instead of waiting up to a full
// timeframe. It reconnects with a fixed delay on any read failure and only
// ever exposes the latest observed price.
type PriceStream struct {
	url    string
	logger *zap.SugaredLogger

	mu        sync.RWMutex
	lastPrice float64
	lastAt    time.Time

	stopChan chan struct{}
	stopOnce sync.Once
}

type aggTradeEvent struct {
	Price     string `json:"p"`
	TradeTime int64  `json:"T"`
}

// NewPriceStream subscribes to the aggTrade stream for symbol.
func NewPriceStream(symbol string, logger *zap.SugaredLogger) *PriceStream {
	return &PriceStream{
		url:      fmt.Sprintf("%s/%s@aggTrade", mainnetWSBase, strings.ToLower(symbol)),
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

// Start launches the read loop in the background.
func (p *PriceStream) Start() {
	go p.run()
}

// Stop terminates the read loop.
func (p *PriceStream) Stop() {
	p.stopOnce.Do(func() { close(p.stopChan) })
}

// Latest returns the most recent traded price and when it was seen.
// ok is false before the first message arrives.
func (p *PriceStream) Latest() (price float64, at time.Time, ok bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastPrice, p.lastAt, p.lastPrice > 0
}

func (p *PriceStream) run() {
	for {
		select {
		case <-p.stopChan:
			return
		default:
		}

		if err := p.readLoop(); err != nil {
			p.logger.Warnf("price stream disconnected: %v, reconnecting in 5s", err)
		}

		select {
		case <-p.stopChan:
			return
		case <-time.After(5 * time.Second):
		}
	}
}

func (p *PriceStream) readLoop() error {
	conn, _, err := websocket.DefaultDialer.Dial(p.url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", p.url, err)
	}
	defer conn.Close()

	p.logger.Infof("price stream connected: %s", p.url)

	for {
		select {
		case <-p.stopChan:
			return nil
		default:
		}

		conn.SetReadDeadline(time.Now().Add(90 * time.Second))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var ev aggTradeEvent
		if err := json.Unmarshal(msg, &ev); err != nil {
			p.logger.Debugf("skipping unparseable stream message: %v", err)
			continue
		}
		price, err := strconv.ParseFloat(ev.Price, 64)
		if err != nil || price <= 0 {
			continue
		}

		p.mu.Lock()
		p.lastPrice = price
		p.lastAt = time.UnixMilli(ev.TradeTime)
		p.mu.Unlock()
	}
}
