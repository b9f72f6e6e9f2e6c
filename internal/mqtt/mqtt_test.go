package mqtt

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"strconv"
	"testing"
	"time"

	"berlin-airquality/internal/config"
	"berlin-airquality/internal/dataset"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	// A port nothing listens on.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	_ = ln.Close()
	return config.Config{
		MQTTBroker:   "127.0.0.1",
		MQTTPort:     port,
		MQTTClientID: "test",
		MQTTTopic:    "airquality/dataset",
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSubscriber_handleMessage(t *testing.T) {
	published := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name     string
		payload  string
		wantCall bool
	}{
		{
			name:     "valid notice",
			payload:  `{"run_id":"r1","path":"data_combined.parquet","rows":10,"files":2,"published_at":"2024-05-01T12:00:00Z"}`,
			wantCall: true,
		},
		{name: "not json", payload: `rows=10`},
		{name: "missing run id", payload: `{"published_at":"2024-05-01T12:00:00Z"}`},
		{name: "missing timestamp", payload: `{"run_id":"r1"}`},
		{name: "negative rows", payload: `{"run_id":"r1","rows":-1,"published_at":"2024-05-01T12:00:00Z"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSubscriber(testConfig(t), quietLogger())
			var got []dataset.Notice
			s.SetMessageHandler(func(n dataset.Notice) error {
				got = append(got, n)
				return nil
			})

			s.handleMessage("airquality/dataset", []byte(tt.payload))

			if tt.wantCall != (len(got) == 1) {
				t.Fatalf("handler calls = %d, want call = %v", len(got), tt.wantCall)
			}
			if tt.wantCall {
				if got[0].RunID != "r1" || got[0].Rows != 10 || !got[0].PublishedAt.Equal(published) {
					t.Errorf("notice = %+v", got[0])
				}
			}
		})
	}
}

func TestSubscriber_handlerErrorIsSwallowed(t *testing.T) {
	s := NewSubscriber(testConfig(t), quietLogger())
	calls := 0
	s.SetMessageHandler(func(dataset.Notice) error {
		calls++
		return errors.New("boom")
	})
	s.handleMessage("t", []byte(`{"run_id":"r1","published_at":"2024-05-01T12:00:00Z"}`))
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestSubscriber_noHandler(t *testing.T) {
	s := NewSubscriber(testConfig(t), quietLogger())
	s.handleMessage("t", []byte(`{"run_id":"r1","published_at":"2024-05-01T12:00:00Z"}`))
}

func TestPublisher_notConnected(t *testing.T) {
	p := NewPublisher(testConfig(t), quietLogger())
	err := p.PublishNotice(context.Background(), dataset.Notice{RunID: "r1"})
	if !errors.Is(err, ErrNotConnected) {
		t.Errorf("PublishNotice() error = %v, want %v", err, ErrNotConnected)
	}
}

func TestConnect_respectsContext(t *testing.T) {
	s := NewSubscriber(testConfig(t), quietLogger())
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	err := s.Connect(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Connect() error = %v, want deadline exceeded", err)
	}
	if s.IsConnected() {
		t.Error("IsConnected() = true after failed connect")
	}
}

func TestConnect_afterDisconnect(t *testing.T) {
	p := NewPublisher(testConfig(t), quietLogger())
	p.Disconnect()
	p.Disconnect()

	if err := p.Connect(context.Background()); !errors.Is(err, ErrStopped) {
		t.Errorf("Connect() error = %v, want %v", err, ErrStopped)
	}
}

func TestClientOptions(t *testing.T) {
	cfg := testConfig(t)
	opts := clientOptions(cfg, "dashboard", quietLogger())
	if opts.ClientID != "test-dashboard" {
		t.Errorf("ClientID = %q, want %q", opts.ClientID, "test-dashboard")
	}
	if len(opts.Servers) != 1 || opts.Servers[0].Host != cfg.MQTTBroker+":"+strconv.Itoa(cfg.MQTTPort) {
		t.Errorf("Servers = %v, want %s", opts.Servers, brokerURL(cfg))
	}
}
