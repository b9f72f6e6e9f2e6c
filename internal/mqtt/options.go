// Package mqtt carries dataset notices between the ingest job and the
// dashboard over an MQTT broker.
package mqtt

import (
	"fmt"
	"log/slog"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"berlin-airquality/internal/config"
)

const (
	qosAtLeastOnce = byte(1)
	publishTimeout = 5 * time.Second
)

// clientOptions holds the settings shared by the publisher and subscriber.
// role is appended to the configured client id so both can share a broker.
func clientOptions(cfg config.Config, role string, logger *slog.Logger) *paho.ClientOptions {
	opts := paho.NewClientOptions()
	opts.AddBroker(brokerURL(cfg))
	opts.SetClientID(cfg.MQTTClientID + "-" + role)

	opts.SetCleanSession(true)

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(60 * time.Second)

	opts.SetKeepAlive(30 * time.Second)
	opts.SetPingTimeout(10 * time.Second)

	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		logger.Warn("mqtt connection lost", "role", role, "error", err)
	})
	return opts
}

func brokerURL(cfg config.Config) string {
	return fmt.Sprintf("tcp://%s:%d", cfg.MQTTBroker, cfg.MQTTPort)
}
