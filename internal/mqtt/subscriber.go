package mqtt

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"berlin-airquality/internal/config"
	"berlin-airquality/internal/dataset"
)

// NoticeSubscriber is what feature modules attach their notice handler to.
type NoticeSubscriber interface {
	SetMessageHandler(handler func(notice dataset.Notice) error)
}

// Subscriber receives dataset notices. It subscribes from the OnConnect
// callback, so the subscription is restored after every reconnect.
type Subscriber struct {
	client    paho.Client
	topic     string
	logger    *slog.Logger
	mu        sync.RWMutex
	connected bool
	handler   func(notice dataset.Notice) error

	stopCh   chan struct{}
	stopOnce sync.Once
}

func NewSubscriber(cfg config.Config, logger *slog.Logger) *Subscriber {
	s := &Subscriber{
		topic:  cfg.MQTTTopic,
		logger: logger,
		stopCh: make(chan struct{}),
	}

	opts := clientOptions(cfg, "dashboard", logger)
	opts.SetOnConnectHandler(func(c paho.Client) {
		s.setConnected(true)
		logger.Info("mqtt connected", "broker", cfg.MQTTBroker, "port", cfg.MQTTPort)
		s.subscribe(c)
	})
	prevLost := opts.OnConnectionLost
	opts.SetConnectionLostHandler(func(c paho.Client, err error) {
		s.setConnected(false)
		prevLost(c, err)
	})

	s.client = paho.NewClient(opts)
	return s
}

// SetMessageHandler must be called before Connect.
func (s *Subscriber) SetMessageHandler(handler func(notice dataset.Notice) error) {
	s.mu.Lock()
	s.handler = handler
	s.mu.Unlock()
}

func (s *Subscriber) Connect(ctx context.Context) error {
	return waitConnect(ctx, s.client, s.stopCh, s.IsConnected)
}

func (s *Subscriber) subscribe(c paho.Client) {
	token := c.Subscribe(s.topic, qosAtLeastOnce, func(_ paho.Client, msg paho.Message) {
		s.handleMessage(msg.Topic(), msg.Payload())
	})
	// paho runs OnConnect on its own goroutine.
	if !token.WaitTimeout(5 * time.Second) {
		s.logger.Error("mqtt subscribe timeout", "topic", s.topic)
		return
	}
	if err := token.Error(); err != nil {
		s.logger.Error("mqtt subscribe failed", "topic", s.topic, "error", err)
		return
	}
	s.logger.Info("subscribed to mqtt topic", "topic", s.topic, "qos", qosAtLeastOnce)
}

func (s *Subscriber) handleMessage(topic string, payload []byte) {
	s.logger.Debug("received mqtt message", "topic", topic, "size", len(payload))

	var notice dataset.Notice
	if err := json.Unmarshal(payload, &notice); err != nil {
		s.logger.Warn("failed to parse dataset notice",
			"topic", topic,
			"error", err,
			"payload", string(payload),
		)
		return
	}

	if err := notice.Validate(); err != nil {
		s.logger.Warn("invalid dataset notice",
			"topic", topic,
			"run_id", notice.RunID,
			"error", err,
		)
		return
	}

	s.mu.RLock()
	handler := s.handler
	s.mu.RUnlock()
	if handler == nil {
		return
	}
	if err := handler(notice); err != nil {
		s.logger.Error("notice handler failed",
			"topic", topic,
			"run_id", notice.RunID,
			"error", err,
		)
		return
	}
	s.logger.Debug("processed dataset notice", "run_id", notice.RunID, "published_at", notice.PublishedAt)
}

func (s *Subscriber) IsConnected() bool {
	s.mu.RLock()
	connected := s.connected
	s.mu.RUnlock()
	return connected && s.client.IsConnected()
}

// Disconnect is idempotent and safe to call multiple times.
func (s *Subscriber) Disconnect() {
	s.stopOnce.Do(func() { close(s.stopCh) })

	if s.client != nil && s.IsConnected() {
		token := s.client.Unsubscribe(s.topic)
		token.WaitTimeout(2 * time.Second)
	}
	if s.client != nil {
		s.client.Disconnect(250)
	}

	s.setConnected(false)
	s.logger.Info("mqtt subscriber disconnected")
}

func (s *Subscriber) setConnected(v bool) {
	s.mu.Lock()
	s.connected = v
	s.mu.Unlock()
}
