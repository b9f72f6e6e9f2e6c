package mqtt

import (
	"context"
	"errors"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

var ErrStopped = errors.New("mqtt client stopped")

const poll = 200 * time.Millisecond

// waitConnect starts a connection attempt and waits for it in a ctx and
// stop aware loop. With ConnectRetry the token only completes once connected.
func waitConnect(ctx context.Context, client paho.Client, stopCh <-chan struct{}, connected func() bool) error {
	select {
	case <-stopCh:
		return ErrStopped
	default:
	}
	if connected() {
		return nil
	}

	token := client.Connect()
	for {
		if token.WaitTimeout(poll) {
			if err := token.Error(); err != nil {
				return fmt.Errorf("mqtt connect: %w", err)
			}
			return nil
		}

		select {
		case <-ctx.Done():
			client.Disconnect(0)
			return ctx.Err()
		case <-stopCh:
			client.Disconnect(0)
			return ErrStopped
		default:
		}
	}
}

// waitToken waits for token up to timeout or until ctx is done.
func waitToken(ctx context.Context, token paho.Token, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-token.Done():
		return token.Error()
	case <-timer.C:
		return fmt.Errorf("timeout after %s", timeout)
	case <-ctx.Done():
		return ctx.Err()
	}
}
