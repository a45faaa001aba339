package inputs

import (
	"context"
	"time"

	"inputcode-go/bus"
	"inputcode-go/services/inputs/internal/hw"
	"inputcode-go/services/inputs/internal/platform"
	"inputcode-go/types"
	"inputcode-go/x/timex"
)

const defaultPollMs = 2

var (
	topicConfig = bus.T("config", "inputs")
	topicState  = bus.T("inputs", "state")
)

// eventTopic returns {"input","event",<pin>}.
func eventTopic(pin PinID) bus.Topic {
	return bus.T("input", "event", int(pin))
}

type service struct {
	conn *bus.Connection
	mgr  *Manager
}

// Run starts the inputs service on the platform's default pins and blocks
// until ctx is cancelled. It waits for an InputsConfig on {"config","inputs"},
// registers the configured pins, then evaluates all inputs on the poll
// cadence, publishing confirmed transitions on {"input","event",<pin>}.
func Run(ctx context.Context, conn *bus.Connection) {
	runWith(ctx, conn, platform.DefaultPinFactory())
}

func runWith(ctx context.Context, conn *bus.Connection, pins hw.PinFactory) {
	s := &service{conn: conn}
	s.mgr = NewManager(pins, s)

	cfgSub := conn.Subscribe(topicConfig)
	defer conn.Unsubscribe(cfgSub)
	s.publishState("idle", "awaiting_config")

	// Parked until the first config arrives.
	tick := time.NewTicker(time.Hour)
	defer tick.Stop()
	configured := false

	for {
		select {
		case <-ctx.Done():
			s.publishState("stopped", "context_cancelled")
			return
		case msg := <-cfgSub.Channel():
			cfg, ok := msg.Payload.(types.InputsConfig)
			if !ok {
				println("[inputs] ignoring config with unexpected payload")
				continue
			}
			s.applyConfig(cfg)
			tick.Reset(timex.PeriodMs(cfg.PollMs, defaultPollMs))
			if !configured {
				configured = true
				s.publishState("ready", "")
			}
		case <-tick.C:
			if configured {
				s.mgr.Eval()
			}
		}
	}
}

// applyConfig registers each configured pin. Per-pin failures are logged and
// skipped; the rest of the config still applies.
func (s *service) applyConfig(cfg types.InputsConfig) {
	for _, pc := range cfg.Pins {
		mode, ok := ParseMode(pc.Mode)
		if !ok {
			println("[inputs] invalid mode for pin:", pc.Pin, pc.Mode)
			continue
		}
		if err := s.mgr.Register(pc.Pin, mode, parsePull(pc.Pull), pc.Interrupts); err != nil {
			println("[inputs] register failed for pin:", pc.Pin, "err:", err.Error())
		}
	}
}

func parsePull(s string) hw.Pull {
	switch s {
	case "down":
		return hw.PullDown
	case "none":
		return hw.PullNone
	default:
		return hw.PullUp
	}
}

// Emit publishes one classified event paired with its originating pin.
func (s *service) Emit(pin PinID, ev Event) bool {
	s.conn.Publish(s.conn.NewMessage(
		eventTopic(pin),
		types.InputEvent{Pin: int(pin), Event: ev.String(), TSms: timex.NowMs()},
		false,
	))
	return true
}

func (s *service) publishState(level, status string) {
	s.conn.Publish(s.conn.NewMessage(
		topicState,
		types.ServiceState{Level: level, Status: status, TSms: timex.NowMs()},
		true,
	))
}
