package notifier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// DiscordNotifier posts events to a Discord webhook. Deliveries run in a
// single background goroutine fed by a bounded queue; when the queue is full
// the event is dropped with a log line rather than blocking the trading
// cycle.
type DiscordNotifier struct {
	webhookURL string
	client     *http.Client
	queue      chan Event
	logger     *zap.SugaredLogger
}

// NewDiscordNotifier starts the delivery goroutine.
func NewDiscordNotifier(webhookURL string, logger *zap.SugaredLogger) *DiscordNotifier {
	n := &DiscordNotifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
		queue:      make(chan Event, 64),
		logger:     logger,
	}
	go n.deliverLoop()
	return n
}

// Emit enqueues an event without blocking.
func (n *DiscordNotifier) Emit(ev Event) {
	select {
	case n.queue <- ev:
	default:
		n.logger.Warnf("notification queue full, dropping %s event", ev.Kind)
	}
}

// Close stops the delivery goroutine. Queued events are still delivered;
// Emit must not be called after Close.
func (n *DiscordNotifier) Close() {
	close(n.queue)
}

func (n *DiscordNotifier) deliverLoop() {
	for ev := range n.queue {
		if err := n.post(ev); err != nil {
			n.logger.Warnf("discord delivery failed for %s event: %v", ev.Kind, err)
		}
	}
}

func (n *DiscordNotifier) post(ev Event) error {
	payload, err := json.Marshal(map[string]string{"content": Format(ev)})
	if err != nil {
		return err
	}
	resp, err := n.client.Post(n.webhookURL, "application/json", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned %s", resp.Status)
	}
	return nil
}

// LogNotifier writes events to the application log. Used when no webhook is
// configured and in dry-run mode.
type LogNotifier struct {
	Logger *zap.SugaredLogger
}

func (n *LogNotifier) Emit(ev Event) {
	n.Logger.Infof("[notify] %s", Format(ev))
}
