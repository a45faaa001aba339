// Package bridge exports confirmed input events to the outside world as one
// JSON line per event over a pluggable transport (UART on MCU targets,
// serial/MQTT/stdout on hosts).
package bridge

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"

	"inputcode-go/bus"
	"inputcode-go/errcode"
	"inputcode-go/types"
	"inputcode-go/x/timex"
)

var (
	topicConfig = bus.T("config", "bridge")
	topicState  = bus.T("bridge", "state")
	topicEvents = bus.T("input", "event", bus.Plus)
)

const (
	dialBackoffMin = 250 * time.Millisecond
	dialBackoffMax = 5 * time.Second
)

// Transport is a pluggable link dialler/owner.
type Transport interface {
	Open(ctx context.Context) (io.WriteCloser, error)
	String() string
}

type transportFactory func(types.BridgeConfig) (Transport, error)

var (
	regMu    sync.RWMutex
	registry = map[string]transportFactory{}
)

// RegisterTransport allows external packages to add transports.
func RegisterTransport(name string, f transportFactory) {
	regMu.Lock()
	defer regMu.Unlock()
	registry[name] = f
}

func newTransport(cfg types.BridgeConfig) (Transport, error) {
	regMu.RLock()
	f, ok := registry[cfg.Transport]
	regMu.RUnlock()
	if !ok {
		return nil, &errcode.E{C: errcode.UnknownTransport, Op: "bridge", Msg: cfg.Transport}
	}
	return f(cfg)
}

type service struct {
	conn *bus.Connection

	tr   Transport
	link io.WriteCloser

	backoff  time.Duration
	nextDial time.Time
}

// Run starts the bridge service and blocks until ctx is cancelled. It waits
// for a BridgeConfig on {"config","bridge"}, then forwards every input event
// over the configured transport, reopening the link with capped backoff when
// it fails.
func Run(ctx context.Context, conn *bus.Connection) {
	s := &service{conn: conn, backoff: dialBackoffMin}

	cfgSub := conn.Subscribe(topicConfig)
	defer conn.Unsubscribe(cfgSub)
	evSub := conn.Subscribe(topicEvents)
	defer conn.Unsubscribe(evSub)
	s.publishState("idle", "awaiting_config")

	for {
		select {
		case <-ctx.Done():
			s.dropLink()
			s.publishState("stopped", "context_cancelled")
			return
		case msg := <-cfgSub.Channel():
			cfg, ok := msg.Payload.(types.BridgeConfig)
			if !ok {
				println("[bridge] ignoring config with unexpected payload")
				continue
			}
			s.reconfigure(ctx, cfg)
		case msg := <-evSub.Channel():
			if ev, ok := msg.Payload.(types.InputEvent); ok {
				s.forward(ctx, ev)
			}
		}
	}
}

func (s *service) reconfigure(ctx context.Context, cfg types.BridgeConfig) {
	s.dropLink()
	tr, err := newTransport(cfg)
	if err != nil {
		s.tr = nil
		s.publishState("error", err.Error())
		return
	}
	s.tr = tr
	s.backoff = dialBackoffMin
	s.nextDial = time.Time{}
	if s.ensureLink(ctx) {
		s.publishState("ready", "link_established")
	}
}

// forward writes one event as a JSON line. Failures drop the link and the
// event; the next event retries after the backoff window.
func (s *service) forward(ctx context.Context, ev types.InputEvent) {
	if s.tr == nil || !s.ensureLink(ctx) {
		return
	}
	line, err := json.Marshal(ev)
	if err != nil {
		println("[bridge] encode failed:", err.Error())
		return
	}
	line = append(line, '\n')
	if _, err := s.link.Write(line); err != nil {
		s.dropLink()
		s.deferDial()
		s.publishState("degraded", "write_failed_retrying")
	}
}

func (s *service) ensureLink(ctx context.Context) bool {
	if s.link != nil {
		return true
	}
	if !s.nextDial.IsZero() && time.Now().Before(s.nextDial) {
		return false
	}
	l, err := s.tr.Open(ctx)
	if err != nil {
		s.deferDial()
		s.publishState("degraded", "dial_failed_retrying")
		return false
	}
	s.link = l
	s.backoff = dialBackoffMin
	s.nextDial = time.Time{}
	return true
}

func (s *service) dropLink() {
	if s.link != nil {
		_ = s.link.Close()
		s.link = nil
	}
}

func (s *service) deferDial() {
	s.nextDial = time.Now().Add(s.backoff)
	s.backoff *= 2
	if s.backoff > dialBackoffMax {
		s.backoff = dialBackoffMax
	}
}

func (s *service) publishState(level, status string) {
	s.conn.Publish(s.conn.NewMessage(
		topicState,
		types.ServiceState{Level: level, Status: status, TSms: timex.NowMs()},
		true,
	))
}
