package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"berlin-airquality/internal/config"
	"berlin-airquality/internal/dataset"
)

var ErrNotConnected = errors.New("mqtt client not connected")

// Publisher announces freshly written datasets. Notices are retained so a
// dashboard that subscribes later still learns about the latest one.
type Publisher struct {
	client    paho.Client
	topic     string
	logger    *slog.Logger
	mu        sync.RWMutex
	connected bool

	stopCh   chan struct{}
	stopOnce sync.Once
}

func NewPublisher(cfg config.Config, logger *slog.Logger) *Publisher {
	p := &Publisher{
		topic:  cfg.MQTTTopic,
		logger: logger,
		stopCh: make(chan struct{}),
	}

	opts := clientOptions(cfg, "ingest", logger)
	opts.SetOnConnectHandler(func(_ paho.Client) {
		p.setConnected(true)
		logger.Info("mqtt connected", "broker", cfg.MQTTBroker, "port", cfg.MQTTPort)
	})
	prevLost := opts.OnConnectionLost
	opts.SetConnectionLostHandler(func(c paho.Client, err error) {
		p.setConnected(false)
		prevLost(c, err)
	})

	p.client = paho.NewClient(opts)
	return p
}

// Connect waits for the initial connection, respecting ctx and Disconnect.
func (p *Publisher) Connect(ctx context.Context) error {
	return waitConnect(ctx, p.client, p.stopCh, p.IsConnected)
}

// PublishNotice implements ingest.Notifier.
func (p *Publisher) PublishNotice(ctx context.Context, notice dataset.Notice) error {
	if !p.IsConnected() {
		return ErrNotConnected
	}
	if notice.PublishedAt.IsZero() {
		notice.PublishedAt = time.Now()
	}
	if err := notice.Validate(); err != nil {
		return fmt.Errorf("invalid notice: %w", err)
	}

	data, err := json.Marshal(notice)
	if err != nil {
		return fmt.Errorf("marshal notice: %w", err)
	}

	token := p.client.Publish(p.topic, qosAtLeastOnce, true, data)
	if err := waitToken(ctx, token, publishTimeout); err != nil {
		p.logger.Error("failed to publish dataset notice", "topic", p.topic, "error", err)
		return fmt.Errorf("publish notice: %w", err)
	}

	p.logger.Debug("published dataset notice", "topic", p.topic, "run_id", notice.RunID, "rows", notice.Rows)
	return nil
}

func (p *Publisher) IsConnected() bool {
	p.mu.RLock()
	connected := p.connected
	p.mu.RUnlock()
	return connected && p.client.IsConnected()
}

// Disconnect is idempotent. After it, Connect returns ErrStopped.
func (p *Publisher) Disconnect() {
	p.stopOnce.Do(func() { close(p.stopCh) })
	if p.client != nil {
		p.client.Disconnect(250)
	}
	p.setConnected(false)
	p.logger.Info("mqtt publisher disconnected")
}

func (p *Publisher) setConnected(v bool) {
	p.mu.Lock()
	p.connected = v
	p.mu.Unlock()
}
