package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"inputcode-go/bus"
	"inputcode-go/types"
)

// captureTransport hands out links that forward writes to a channel.
type captureTransport struct {
	lines chan string
}

func (t *captureTransport) String() string { return "capture" }

func (t *captureTransport) Open(context.Context) (io.WriteCloser, error) {
	return &captureLink{lines: t.lines}, nil
}

type captureLink struct {
	lines chan string
}

func (l *captureLink) Write(p []byte) (int, error) {
	l.lines <- string(p)
	return len(p), nil
}

func (l *captureLink) Close() error { return nil }

// brokenTransport opens links whose writes always fail.
type brokenTransport struct{}

func (brokenTransport) String() string { return "broken" }

func (brokenTransport) Open(context.Context) (io.WriteCloser, error) {
	return brokenLink{}, nil
}

type brokenLink struct{}

func (brokenLink) Write([]byte) (int, error) { return 0, errors.New("wire cut") }
func (brokenLink) Close() error              { return nil }

func startBridge(t *testing.T) (*bus.Connection, *bus.Subscription, context.CancelFunc) {
	t.Helper()
	b := bus.NewBus(16)
	svcConn := b.NewConnection("bridge")
	tstConn := b.NewConnection("test")

	ctx, cancel := context.WithCancel(context.Background())
	go Run(ctx, svcConn)

	stateSub := tstConn.Subscribe(bus.T("bridge", "state"))
	waitBridgeState(t, stateSub, "idle")
	return tstConn, stateSub, cancel
}

func TestBridgeForwardsEventsAsJSONLines(t *testing.T) {
	lines := make(chan string, 8)
	RegisterTransport("capture", func(types.BridgeConfig) (Transport, error) {
		return &captureTransport{lines: lines}, nil
	})

	conn, stateSub, cancel := startBridge(t)
	defer cancel()

	conn.Publish(conn.NewMessage(topicConfig, types.BridgeConfig{Transport: "capture"}, false))
	waitBridgeState(t, stateSub, "ready")

	sent := types.InputEvent{Pin: 5, Event: "on", TSms: 12345}
	conn.Publish(conn.NewMessage(bus.T("input", "event", 5), sent, false))

	select {
	case line := <-lines:
		if !strings.HasSuffix(line, "\n") {
			t.Fatalf("line not newline-terminated: %q", line)
		}
		var got types.InputEvent
		if err := json.Unmarshal([]byte(line), &got); err != nil {
			t.Fatalf("bad JSON %q: %v", line, err)
		}
		if got != sent {
			t.Fatalf("round-tripped event = %+v, want %+v", got, sent)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no line forwarded")
	}
}

func TestUnknownTransportReportsError(t *testing.T) {
	conn, stateSub, cancel := startBridge(t)
	defer cancel()

	conn.Publish(conn.NewMessage(topicConfig, types.BridgeConfig{Transport: "does-not-exist"}, false))
	waitBridgeState(t, stateSub, "error")
}

func TestWriteFailureGoesDegraded(t *testing.T) {
	RegisterTransport("broken", func(types.BridgeConfig) (Transport, error) {
		return brokenTransport{}, nil
	})

	conn, stateSub, cancel := startBridge(t)
	defer cancel()

	conn.Publish(conn.NewMessage(topicConfig, types.BridgeConfig{Transport: "broken"}, false))
	waitBridgeState(t, stateSub, "ready")

	conn.Publish(conn.NewMessage(bus.T("input", "event", 5),
		types.InputEvent{Pin: 5, Event: "on"}, false))
	waitBridgeState(t, stateSub, "degraded")
}

func TestBridgeStopsOnCancel(t *testing.T) {
	_, stateSub, cancel := startBridge(t)
	cancel()
	waitBridgeState(t, stateSub, "stopped")
}

func waitBridgeState(t *testing.T, sub *bus.Subscription, level string) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case msg := <-sub.Channel():
			if st, ok := msg.Payload.(types.ServiceState); ok && st.Level == level {
				return
			}
		case <-deadline:
			t.Fatalf("timeout waiting for bridge state %q", level)
		}
	}
}
